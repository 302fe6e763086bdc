package cmd

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
	"github.com/zhulik/pal/inspect"

	"mindforum/internal/api"
	"mindforum/internal/authz"
	"mindforum/internal/cmd/flags"
	"mindforum/internal/comments"
	"mindforum/internal/communities"
	"mindforum/internal/core"
	"mindforum/internal/images"
	"mindforum/internal/metrics"
	"mindforum/internal/moderation"
	"mindforum/internal/persistence"
	"mindforum/internal/topicguard"
)

var serverCmd = &cli.Command{
	Name:  "server",
	Usage: "Run the forum API server together with the metrics endpoint",
	Flags: []cli.Flag{
		flags.HTTPAddr,
		flags.MetricsAddr,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		services := []pal.ServiceDef{
			pal.Provide(&core.Config{}),
			persistence.Provide(),

			pal.Provide[core.AuthzResolver](&authz.Resolver{}),
			pal.Provide[core.TopicGuard](&topicguard.Client{}),
			pal.Provide[core.ImageStore](&images.Store{}),

			pal.Provide(&communities.Directory{}),
			pal.Provide(&moderation.Manager{}),
			pal.Provide(&comments.Ledger{}),

			pal.Provide(&api.Server{}),
			pal.Provide(&metrics.HTTPServer{}),
			pal.Provide(&metrics.Collector{}),
		}
		services = append(services, inspect.ProvideBase())

		return run(ctx, c, services...)
	},
}
