package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refundo/pkg/usecase/query"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var cfg config

	flags := append(globalFlags(&cfg), llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactively ask questions about stored invoices",
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

			uc := query.New(repo, gemini)

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer func() {
				_ = rl.Close()
			}()

			fmt.Fprintf(c.Root().Writer, "Ask about stored invoices. Type 'exit' to quit.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "exit" {
					return nil
				}
				if message == "" {
					continue
				}

				answer, err := uc.Answer(ctx, query.AnswerInput{Query: message})
				if err != nil {
					return goerr.Wrap(err, "failed to answer query")
				}

				fmt.Fprintf(c.Root().Writer, "%s\n\n", answer)
			}
		},
	}
}
