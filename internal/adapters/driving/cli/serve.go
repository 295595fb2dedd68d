package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/github-sensor/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/github-sensor/internal/core/domain"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driving"
	"github.com/custodia-labs/github-sensor/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server with periodic backfill sweeps",
	Long: `Starts the webhook receiver and keeps the repositories reconciled with
periodic backfill sweeps. An initial sweep runs at startup so restarts
catch up on deliveries missed while the sensor was down.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck // best-effort close on exit

	server := httpapi.NewServer(app.ingestor, app.settings.WebhookSecret())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(app.settings.Backfill.IntervalMinutes) * time.Minute
	go sweepLoop(ctx, app.backfill, interval)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
		if err := server.Shutdown(); err != nil {
			logger.Error("Server shutdown: %v", err)
		}
	}()

	logger.Info("Webhook server listening on %s", app.settings.ListenAddr)
	return server.Listen(app.settings.ListenAddr)
}

// sweepLoop runs an initial sweep, then one per interval until the
// context is cancelled.
func sweepLoop(ctx context.Context, backfill driving.BackfillRunner, interval time.Duration) {
	runSweep(ctx, backfill)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runSweep(ctx, backfill)
		}
	}
}

func runSweep(ctx context.Context, backfill driving.BackfillRunner) {
	err := backfill.RunSweep(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, domain.ErrSweepInProgress):
		logger.Debug("Skipping sweep, previous one still running")
	default:
		logger.Error("Backfill sweep failed: %v", err)
	}
}
