// Command reportctl renders ticket reports in the terminal and runs the
// maintenance tasks of the report service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lorrc/ticket-reports/internal/app"
	"github.com/lorrc/ticket-reports/internal/config"
	"github.com/lorrc/ticket-reports/internal/infrastructure/logging"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "reportctl",
	Short:         "Ticket report tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger = logging.NewLogger(logging.Config{
			Level:       cfg.Logging.Level,
			Format:      "text",
			Output:      os.Stderr,
			ServiceName: "reportctl",
			Environment: cfg.App.Environment,
		})
		return nil
	},
}

// newApp initializes data sources for commands that read reports.
func newApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
