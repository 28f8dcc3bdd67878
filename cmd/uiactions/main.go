package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/uiactions/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	cmd := &cli.Command{
		Name:                  "uiactions",
		Usage:                 "Serve triggers, actions and drilldowns",
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
				Name:    "database-url",
				Usage:   "Drilldown storage URL (a directory, file://path or postgres://...)",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "kv-url",
				Usage:   "Key/value storage URL for user preferences (memory or redis://...)",
				Value:   "memory",
				Sources: cli.EnvVars("KV_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus shared between instances (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka brokers used when --event-bus=kafka",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "license",
				Usage:   "Active license level (basic, gold, platinum, enterprise)",
				Value:   "basic",
				Sources: cli.EnvVars("LICENSE_LEVEL"),
			},
			&cli.StringSliceFlag{
				Name:    "schedule",
				Usage:   "Fire a trigger on a cron spec, as TRIGGER_ID@CRON",
				Sources: cli.EnvVars("SCHEDULES"),
			},
			&cli.StringSliceFlag{
				Name:    "allowed-urls",
				Usage:   "URL prefixes URL drilldowns may navigate to",
				Sources: cli.EnvVars("ALLOWED_URLS"),
			},
			&cli.StringFlag{
				Name:  "plugins-path",
				Usage: "Path to the directory containing drilldown plugins",
				Value: "./plugins",
			},
			&cli.IntFlag{
				Name:    "max-open-menus",
				Usage:   "Number of context menus kept open before the oldest is evicted",
				Value:   100,
				Sources: cli.EnvVars("MAX_OPEN_MENUS"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export traces over OTLP HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			return run(ctx, Config{
				Port:         command.Int("port"),
				DatabaseURL:  command.String("database-url"),
				KVURL:        command.String("kv-url"),
				EventBus:     command.String("event-bus"),
				KafkaBrokers: command.StringSlice("kafka-brokers"),
				License:      command.String("license"),
				Schedules:    command.StringSlice("schedule"),
				AllowedURLs:  command.StringSlice("allowed-urls"),
				PluginsPath:  command.String("plugins-path"),
				MaxOpenMenus: command.Int("max-open-menus"),
				OTel:         command.Bool("otel"),
			})
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.Run(ctx, os.Args)
	if err != nil {
		log.WithModule("uiactions").Error("Exited with error", "error", err)
		os.Exit(1)
	}
}
