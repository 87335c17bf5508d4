package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refundo/pkg/usecase/query"
	"github.com/urfave/cli/v3"
)

func queryCommand() *cli.Command {
	var (
		cfg       config
		userQuery string
		employee  string
		date      string
		status    string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Free-text question about stored invoice verdicts",
			Sources:     cli.EnvVars("REFUNDO_QUERY"),
			Destination: &userQuery,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "employee-name",
			Usage:       "Accepted for compatibility; retrieval is not filtered by it",
			Destination: &employee,
		},
		&cli.StringFlag{
			Name:        "date",
			Usage:       "Accepted for compatibility; retrieval is not filtered by it",
			Destination: &date,
		},
		&cli.StringFlag{
			Name:        "status",
			Usage:       "Accepted for compatibility; retrieval is not filtered by it",
			Destination: &status,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "query",
		Usage: "Ask a question about previously analyzed invoices",
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

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
				spinner.WithWriter(os.Stderr), spinner.WithSuffix(" searching invoices..."))
			sp.Start()
			answer, err := uc.Answer(ctx, query.AnswerInput{
				Query:        userQuery,
				EmployeeName: employee,
				Date:         date,
				Status:       status,
			})
			sp.Stop()
			if err != nil {
				return goerr.Wrap(err, "failed to answer query")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", answer)
			return nil
		},
	}
}
