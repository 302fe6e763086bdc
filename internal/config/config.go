package config

type Config struct {
	LogLevel    string `flag:"log-level"`
	HTTPAddr    string `flag:"http-addr"`
	MetricsAddr string `flag:"metrics-addr"`
}
