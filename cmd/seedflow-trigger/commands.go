package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/seedflow/seedflow/pkg/cmd"
	"github.com/seedflow/seedflow/pkg/events"
	"github.com/seedflow/seedflow/pkg/log"
	"github.com/seedflow/seedflow/pkg/sources/schedule"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
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
	}
}

// NewRunCommand starts the cron schedule source and keeps it running until
// interrupted.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run the cron schedule source",
		Flags:   commonFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("seedflow-trigger")

			logger.InfoContext(ctx, "Initializing schedule source")

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

			source := schedule.NewSource(persistence, eventBus, logger)
			if err := source.Start(ctx); err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			<-sigChan
			logger.InfoContext(ctx, "Shutting down schedule source...")

			return source.Stop(ctx)
		},
	}
}

// NewFireCommand publishes a single trigger event and exits. Useful to test
// flows without waiting for a schedule or wiring a producer.
func NewFireCommand() *cli.Command {
	return &cli.Command{
		Name:    "fire",
		Aliases: []string{"f"},
		Usage:   "Publish one trigger event",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:     "trigger-type",
				Aliases:  []string{"t"},
				Usage:    "Trigger type to fire (e.g. order_created)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "payload",
				Usage:   "JSON payload for the trigger event",
				Value:   "{}",
				Aliases: []string{"d"},
			},
		),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("seedflow-trigger")

			var payload map[string]any
			if err := json.Unmarshal([]byte(command.String("payload")), &payload); err != nil {
				return fmt.Errorf("invalid payload: %w", err)
			}

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			triggerType := command.String("trigger-type")

			event := events.FlowTriggered{
				BaseEvent:   events.NewBaseEvent(events.FlowTriggeredEvent, ""),
				TriggerType: triggerType,
				Payload:     payload,
			}

			if err := eventBus.Publish(ctx, triggerType, event); err != nil {
				return fmt.Errorf("failed to publish trigger event: %w", err)
			}

			logger.InfoContext(ctx, "Trigger event published", "trigger_type", triggerType)

			return nil
		},
	}
}
