package cli

import (
	"context"

	"github.com/m-mizutani/refundo/pkg/mcp"
	"github.com/m-mizutani/refundo/pkg/usecase/analyze"
	"github.com/m-mizutani/refundo/pkg/usecase/query"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var cfg config

	flags := append(globalFlags(&cfg), llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Run an MCP server over stdio exposing analyze and query tools",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeRepo()
			}()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			srv := mcp.New(
				analyze.New(repo, gemini),
				query.New(repo, gemini),
			)

			return srv.Run(ctx)
		},
	}
}
