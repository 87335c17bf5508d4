package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	var (
		cfg    config
		offset int64
		limit  int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Offset for pagination",
			Value:       0,
			Sources:     cli.EnvVars("REFUNDO_LIST_OFFSET"),
			Destination: &offset,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of invoices to list",
			Value:       100,
			Sources:     cli.EnvVars("REFUNDO_LIST_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List stored invoice verdicts, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeRepo()
			}()

			invoices, err := repo.ListInvoices(ctx, int(offset), int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to list invoices")
			}

			for _, inv := range invoices {
				verdict := inv.Verdict()
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\t%s\n",
					inv.ID, inv.InvoiceKey, verdict.DisplayStatus(), inv.CreatedAt.Format("2006-01-02 15:04:05"))
			}

			return nil
		},
	}
}
