package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/seedflow/seedflow/pkg/cmd"
	"github.com/seedflow/seedflow/pkg/engine"
	"github.com/seedflow/seedflow/pkg/log"
	"github.com/seedflow/seedflow/pkg/otelhelper"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "seedflow-api",
		Usage:                 "Create and manage flows, trigger and inspect runs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, memory)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
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

			logger := log.WithModule("seedflow-api")

			logger.InfoContext(ctx, "Initializing Seedflow API")

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			delayQueue := cmd.NewDelayQueue(command.String("delay-queue-url"), logger)
			if err := delayQueue.Start(ctx); err != nil {
				return err
			}

			ledger := cmd.NewLedger(command.String("ledger-url"))
			registry := cmd.NewRegistry(logger, ledger)

			tracer, err := otelhelper.NewTracer(ctx, "seedflow-api")
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}

			eng := engine.NewEngine("api", persistence, registry, delayQueue, eventBus, logger).
				WithTracer(tracer)

			api := NewAPI(logger, persistence, eng)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
