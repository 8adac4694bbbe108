package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/paydeck/paydeck/pkg/cmd"
	"github.com/paydeck/paydeck/pkg/config"
	"github.com/paydeck/paydeck/pkg/log"
	"github.com/paydeck/paydeck/pkg/settlement"
)

const (
	defaultPort           = 9090
	defaultThresholdCents = 1_000_000
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "paydeck-api",
		Usage:                 "Run payroll batches through policy evaluation, review and settlement",
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
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "funding-account",
				Usage:    "Settlement network account payroll batches are paid from",
				Required: true,
				Sources:  cli.EnvVars("FUNDING_ACCOUNT"),
			},
			&cli.StringFlag{
				Name:    "chain-endpoint",
				Usage:   "Settlement network RPC endpoint (empty selects the simulated network)",
				Sources: cli.EnvVars("CHAIN_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the cross-instance funding account lock",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "policy-file",
				Usage:   "Path to the decision policy YAML file",
				Sources: cli.EnvVars("POLICY_FILE"),
			},
			&cli.IntFlag{
				Name:    "approval-threshold-cents",
				Usage:   "Batch total at or above which runs are flagged for review",
				Value:   defaultThresholdCents,
				Sources: cli.EnvVars("APPROVAL_THRESHOLD_CENTS"),
			},
			&cli.IntFlag{
				Name:    "max-submission-attempts",
				Usage:   "Settlement submission attempts before giving up",
				Value:   settlement.DefaultMaxAttempts,
				Sources: cli.EnvVars("MAX_SUBMISSION_ATTEMPTS"),
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

			logger.InfoContext(ctx, "Initializing Paydeck API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			fundingAccount := command.String("funding-account")
			chainClient := cmd.NewChainClient(command.String("chain-endpoint"), fundingAccount)
			locker := cmd.NewAccountLocker(command.String("redis-url"))

			policy := config.LoadPolicyOrDefault(
				command.String("policy-file"),
				int64(command.Int("approval-threshold-cents")),
			)

			settlementConfig := settlement.ExecutorConfig{
				FundingAccount:       fundingAccount,
				MaxAttempts:          command.Int("max-submission-attempts"),
				RateLimitBackoff:     2 * time.Second,
				NonceConflictBackoff: 1 * time.Second,
			}

			api := NewAPI(
				logger,
				persistence,
				eventBus,
				chainClient,
				locker,
				policy,
				settlementConfig,
			)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
