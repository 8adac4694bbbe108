// Package main provides the Paydeck API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/paydeck/paydeck/pkg/decision"
	"github.com/paydeck/paydeck/pkg/eventbus"
	"github.com/paydeck/paydeck/pkg/payroll"
	"github.com/paydeck/paydeck/pkg/persistence"
	"github.com/paydeck/paydeck/pkg/provenance"
	"github.com/paydeck/paydeck/pkg/review"
	"github.com/paydeck/paydeck/pkg/settlement"
	"github.com/paydeck/paydeck/pkg/web"
	"github.com/paydeck/paydeck/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	chainClient settlement.ChainClient
	locker      settlement.AccountLocker
	policy      decision.Config
	settlement  settlement.ExecutorConfig
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	chainClient settlement.ChainClient,
	locker settlement.AccountLocker,
	policy decision.Config,
	settlementConfig settlement.ExecutorConfig,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		chainClient: chainClient,
		locker:      locker,
		policy:      policy,
		settlement:  settlementConfig,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() (*fiber.App, error) {
	executions := a.persistence.ExecutionRepository()
	employees := a.persistence.EmployeeRepository()

	calculator := payroll.NewCalculator(payroll.DefaultRates())
	payrollService := payroll.NewService(employees, calculator)

	executor := settlement.NewExecutor(a.chainClient, employees, a.locker, a.logger, a.settlement)
	recorder := provenance.NewRecorder(provenance.DefaultVersions())
	notifier := workflow.NewEmailNotifier(employees, a.logger)

	orchestrator, err := workflow.NewOrchestrator(
		executions,
		decision.NewEngine(),
		executor,
		recorder,
		a.eventBus,
		notifier,
		a.policy,
		a.logger,
	)
	if err != nil {
		return nil, err
	}

	queue := review.NewQueue(executions, orchestrator, a.logger)

	handlers := web.NewAPIHandlers(
		payrollService,
		orchestrator,
		queue,
		executions,
		employees,
		calculator,
		a.persistence,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Paydeck API")
	})

	app.Post("/payroll", handlers.RunPayroll)

	w := app.Group("/workflows")
	w.Get("/reviews", handlers.ListReviews)
	w.Post("/reviews/submit", handlers.SubmitReview)
	w.Get("/executions", handlers.ListExecutions)
	w.Get("/executions/:id", handlers.GetExecution)

	e := app.Group("/employees")
	e.Get("/", handlers.ListEmployees)
	e.Post("/", handlers.CreateEmployee)

	app.Get("/health", handlers.HealthCheck)

	return app, nil
}

func (a *API) Start(port int) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}
