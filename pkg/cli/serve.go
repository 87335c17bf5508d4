package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/refundo/pkg/server"
	"github.com/m-mizutani/refundo/pkg/usecase/analyze"
	"github.com/m-mizutani/refundo/pkg/usecase/query"
	"github.com/m-mizutani/refundo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg        config
		addr       string
		configPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       ":8080",
			Sources:     cli.EnvVars("REFUNDO_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config file",
			Sources:     cli.EnvVars("REFUNDO_CONFIG"),
			Destination: &configPath,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if configPath != "" {
				if err := cfg.applyFile(configPath, c, &addr); err != nil {
					return err
				}
			}

			// Long-lived handles, opened once and shared across requests
			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeRepo(); err != nil {
					logging.From(ctx).Warn("failed to close repository", "error", err)
				}
			}()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}

			analyzeOpts := []analyze.Option{}
			if storage != nil {
				analyzeOpts = append(analyzeOpts, analyze.WithStorage(storage))
			}

			srv := server.New(addr,
				analyze.New(repo, gemini, analyzeOpts...),
				query.New(repo, gemini),
			)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}
}
