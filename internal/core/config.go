package core

import (
	"context"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL"`

	TopicGuardURL string `envconfig:"TOPIC_GUARD_URL"`
	ImageStoreURL string `envconfig:"IMAGE_STORE_URL"`
}

func (c *Config) Init(_ context.Context) error {
	return envconfig.Process("mindforum", c)
}
