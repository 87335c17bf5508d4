package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/refundo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	logger := logging.New(os.Getenv("REFUNDO_LOG_LEVEL"), os.Stderr)
	logging.SetDefault(logger)
	ctx = logging.With(ctx, logger)

	cmd := &cli.Command{
		Name:  "refundo",
		Usage: "Invoice reimbursement analysis and query service",
		Commands: []*cli.Command{
			serveCommand(),
			analyzeCommand(),
			queryCommand(),
			chatCommand(),
			listCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logger.Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
