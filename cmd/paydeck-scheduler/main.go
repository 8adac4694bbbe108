package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/paydeck/paydeck/pkg/log"
)

func main() {
	logger := log.WithModule("scheduler")

	command := &cli.Command{
		Name:                  "paydeck-scheduler",
		Usage:                 "Trigger payroll runs on a schedule",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the Paydeck API",
				Value:   "http://localhost:9090",
				Sources: cli.EnvVars("PAYDECK_API_URL"),
			},
			&cli.StringFlag{
				Name:    "cron",
				Usage:   "Cron expression for payroll runs",
				Value:   "0 9 25 * *",
				Sources: cli.EnvVars("PAYROLL_CRON"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			scheduler, err := NewScheduler(command.String("api-url"), command.String("cron"), logger)
			if err != nil {
				return err
			}

			if err := scheduler.Start(ctx); err != nil {
				return err
			}
			defer scheduler.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.InfoContext(ctx, "Shutting down payroll scheduler")

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
