package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/seedflow/seedflow/pkg/cmd"
	"github.com/seedflow/seedflow/pkg/log"
	"github.com/seedflow/seedflow/pkg/otelhelper"
)

func main() {
	command := &cli.Command{
		Name:                  "seedflow-worker",
		EnableShellCompletion: true,
		Usage:                 "Start a worker to execute flows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, memory)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "delay-queue-url",
				Usage:   "Delay queue URL (redis://... for durable delays, empty for in-process timers)",
				Value:   "",
				Sources: cli.EnvVars("DELAY_QUEUE_URL"),
			},
			&cli.StringFlag{
				Name:    "ledger-url",
				Usage:   "Idempotency ledger URL (redis://... for a shared ledger, empty for in-process)",
				Value:   "",
				Sources: cli.EnvVars("LEDGER_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (json, text)",
				Value:   "json",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			tracerProvider, err := otelhelper.InitTracer(ctx, "seedflow-worker")
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}
			defer func() {
				if err := tracerProvider.Shutdown(ctx); err != nil {
					log.WithModule("seedflow-worker").ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
				}
			}()

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("seedflow-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Seedflow Worker")

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			delayQueue := cmd.NewDelayQueue(command.String("delay-queue-url"), logger)
			ledger := cmd.NewLedger(command.String("ledger-url"))
			registry := cmd.NewRegistry(logger, ledger)

			worker := NewWorkerManager(
				workerID,
				persistence,
				eventBus,
				delayQueue,
				logger,
				registry,
				tracerProvider.Tracer("seedflow-worker"),
			)

			if err := worker.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
