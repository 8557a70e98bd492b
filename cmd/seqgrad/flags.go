package main

import "github.com/urfave/cli/v3"

var (
	configPath  string
	backendName string
	workers     int64
	logLevel    string
	logFormat   string
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "execution backend (cpu, webgpu)",
			Value:       "cpu",
			Destination: &backendName,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Usage:       "CPU worker goroutines (1 runs sequentially, 0 uses every CPU)",
			Destination: &workers,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Value:       "text",
			Destination: &logFormat,
		},
	}
}
