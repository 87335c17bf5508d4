package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refundo/pkg/usecase/analyze"
	"github.com/urfave/cli/v3"
)

func analyzeCommand() *cli.Command {
	var (
		cfg          config
		policyPath   string
		invoicePaths []string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "policy",
			Usage:       "Path to the reimbursement policy document (PDF or text)",
			Sources:     cli.EnvVars("REFUNDO_POLICY"),
			Destination: &policyPath,
			Required:    true,
		},
		&cli.StringSliceFlag{
			Name:        "invoice",
			Aliases:     []string{"i"},
			Usage:       "Path to an invoice document, repeatable; texts are concatenated in order",
			Sources:     cli.EnvVars("REFUNDO_INVOICE"),
			Destination: &invoicePaths,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "analyze",
		Usage: "Evaluate invoice documents against a policy and store the verdict",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if len(invoicePaths) == 0 {
				return goerr.New("at least one invoice is required")
			}

			policy, err := readSource(policyPath)
			if err != nil {
				return err
			}

			invoices := make([]analyze.Source, 0, len(invoicePaths))
			for _, p := range invoicePaths {
				src, err := readSource(p)
				if err != nil {
					return err
				}
				invoices = append(invoices, src)
			}

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

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}

			opts := []analyze.Option{}
			if storage != nil {
				opts = append(opts, analyze.WithStorage(storage))
			}
			uc := analyze.New(repo, gemini, opts...)

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
				spinner.WithWriter(os.Stderr), spinner.WithSuffix(" evaluating invoice..."))
			sp.Start()
			result, err := uc.AnalyzeSources(ctx, policy, invoices)
			sp.Stop()
			if err != nil {
				return goerr.Wrap(err, "failed to analyze invoice")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", result.Message)
			fmt.Fprintf(c.Root().Writer, "Record ID: %s\n", result.Invoice.ID)
			return nil
		},
	}
}

func readSource(path string) (analyze.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return analyze.Source{}, goerr.Wrap(err, "failed to read source file", goerr.Value("path", path))
	}
	return analyze.Source{
		Filename: filepath.Base(path),
		Data:     data,
	}, nil
}
