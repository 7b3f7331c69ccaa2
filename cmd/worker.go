package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/awardly/compliance-engine/internal/core/events"
	"github.com/awardly/compliance-engine/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker processes",
	Long:  `Start background workers like the validation event consumer.`,
}

// Event Bus worker command
var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start validation event worker",
	Long:  `Start the event bus worker that consumes validation run outcomes`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

func startEventWorker() {
	_, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe(events.EventTypeValidationCompleted, func(ctx context.Context, event events.Event) error {
		logger.Info("validation run completed",
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	})

	eventBus.Subscribe(events.EventTypeValidationFailed, func(ctx context.Context, event events.Event) error {
		// Execution failures are retryable; surface them loudly so an
		// operator can trigger the retry endpoint.
		logger.Error("validation run failed mid-execution",
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	})

	logger.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("received signal, shutting down event bus", "signal", sig)
	logger.Info("event bus shutdown complete")
}

// Stale-run sweep command
var sweepWorkerCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Start the stale validation run sweeper",
	Long: `Periodically mark abandoned InProgress validation runs as failed so they
stop blocking new runs and become eligible for retry.`,
	Run: func(cmd *cobra.Command, args []string) {
		startSweepWorker()
	},
}

var sweepInterval time.Duration

func startSweepWorker() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("stale run sweeper started",
		"interval", sweepInterval,
		"stale_threshold", cfg.Engine.StaleRunThreshold)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			for _, table := range []string{"roster_validations", "payroll_validations"} {
				swept, err := sweepStaleRuns(db, table, cfg.Engine.StaleRunThreshold)
				if err != nil {
					logger.Error("stale run sweep failed", "table", table, "error", err)
					continue
				}
				if swept > 0 {
					logger.Warn("swept abandoned validation runs", "table", table, "count", swept)
				}
			}
		case sig := <-sigChan:
			logger.Info("received signal, shutting down sweeper", "signal", sig)
			return
		}
	}
}

// sweepStaleRuns fails every InProgress run whose started_at is older than the
// stale threshold. The runs it touches are already abandoned as far as the
// services are concerned; this just makes the failure visible and retryable.
func sweepStaleRuns(db *sqlx.DB, table string, threshold time.Duration) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'Failed',
		    failure_kind = 'Execution',
		    notes = 'ExecutionFailure: run abandoned past the stale threshold',
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE status = 'InProgress'
		  AND is_deleted = false
		  AND started_at < NOW() - ($1 * interval '1 second')`, table)

	res, err := db.Exec(query, int64(threshold.Seconds()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func init() {
	sweepWorkerCmd.Flags().DurationVar(&sweepInterval, "interval", 5*time.Minute, "how often to sweep for abandoned runs")

	workerCmd.AddCommand(eventWorkerCmd)
	workerCmd.AddCommand(sweepWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
