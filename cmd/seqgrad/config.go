package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/RodgersLuo/DeepBind-code/internal/config"
	"github.com/RodgersLuo/DeepBind-code/internal/logger"
)

// appConfig is the loaded config file with explicit flags applied on top.
var appConfig config.Config

// setup loads the config file, lets explicitly set flags win over it and
// puts the logger on the context.
func setup(ctx context.Context, c *cli.Command) (context.Context, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return ctx, err
	}
	applyGlobalConfig(c, &cfg)
	appConfig = cfg

	log, err := logger.Open(os.Stderr, logFormat, logLevel)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

// applyGlobalConfig applies config file defaults to the global flag variables
// when the corresponding flag was not explicitly set, and records set flags
// in cfg.
func applyGlobalConfig(c *cli.Command, cfg *config.Config) {
	if cfg.Backend != "" && !c.IsSet("backend") {
		backendName = cfg.Backend
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if c.IsSet("workers") {
		n := int(workers)
		cfg.Workers = &n
	}
}
