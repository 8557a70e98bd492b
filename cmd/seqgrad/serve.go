package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/urfave/cli/v3"

	"github.com/RodgersLuo/DeepBind-code/internal/logger"
	"github.com/RodgersLuo/DeepBind-code/internal/server"
)

func serveCmd() *cli.Command {
	var (
		addr         string
		readTimeout  time.Duration
		maxBodyBytes int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve filter-gradient jobs over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (default from config or 127.0.0.1:8088)",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "request read timeout (default from config or 30s)",
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-body-bytes",
				Usage:       "largest accepted job body (default from config or 64 MiB)",
				Destination: &maxBodyBytes,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.IsSet("addr") {
				addr = appConfig.ServerAddress()
			}
			if !cmd.IsSet("read-timeout") {
				d, err := appConfig.ReadTimeout()
				if err != nil {
					return err
				}
				readTimeout = d
			}
			if !cmd.IsSet("max-body-bytes") {
				n, err := appConfig.MaxBodyBytes()
				if err != nil {
					return err
				}
				maxBodyBytes = n
			} else if maxBodyBytes <= 0 {
				return fmt.Errorf("--max-body-bytes must be positive, got %d", maxBodyBytes)
			}

			r, release, err := newRunner()
			if err != nil {
				return err
			}
			defer release()

			log := logger.FromContext(ctx)
			e := server.New(r, log).WithBodyLimit(maxBodyBytes).NewEcho()
			log.Info("starting server", "address", addr, "backend", r.Backend().Name())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					srv.ReadTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
