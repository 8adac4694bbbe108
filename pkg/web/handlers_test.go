package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydeck/paydeck/pkg/decision"
	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/payroll"
	"github.com/paydeck/paydeck/pkg/persistence"
	"github.com/paydeck/paydeck/pkg/persistence/file"
	"github.com/paydeck/paydeck/pkg/provenance"
	"github.com/paydeck/paydeck/pkg/review"
	"github.com/paydeck/paydeck/pkg/settlement"
	"github.com/paydeck/paydeck/pkg/web"
	"github.com/paydeck/paydeck/pkg/workflow"
)

const (
	fundingAccount = "0xf000000000000000000000000000000000000001"
	employeeWallet = "0x1111111111111111111111111111111111111111"
)

type testEnv struct {
	app         *fiber.App
	persistence persistence.Persistence
	chain       *settlement.SimulatedClient
}

func setupTestApp(t *testing.T, thresholdCents, fundCents int64) *testEnv {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	executions := store.ExecutionRepository()
	employees := store.EmployeeRepository()

	chain := settlement.NewSimulatedClient()
	chain.Fund(fundingAccount, fundCents)

	calculator := payroll.NewCalculator(payroll.DefaultRates())
	payrollService := payroll.NewService(employees, calculator)

	executor := settlement.NewExecutor(chain, employees, settlement.NewLocalLocker(), slog.Default(), settlement.ExecutorConfig{
		FundingAccount: fundingAccount,
	})

	orchestrator, err := workflow.NewOrchestrator(
		executions,
		decision.NewEngine(),
		executor,
		provenance.NewRecorder(provenance.DefaultVersions()),
		nil,
		workflow.NewEmailNotifier(employees, slog.Default()),
		decision.Config{ApprovalThresholdCents: thresholdCents},
		slog.Default(),
	)
	require.NoError(t, err)

	queue := review.NewQueue(executions, orchestrator, slog.Default())

	handlers := web.NewAPIHandlers(
		payrollService,
		orchestrator,
		queue,
		executions,
		employees,
		calculator,
		store,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()
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

	return &testEnv{app: app, persistence: store, chain: chain}
}

func (env *testEnv) seedEmployee(t *testing.T, id string, netCents int64) {
	t.Helper()

	now := time.Now().UTC()
	err := env.persistence.EmployeeRepository().Save(context.Background(), &models.Employee{
		ID:            id,
		Name:          "Test Employee " + id,
		Email:         id + "@example.com",
		WalletAddress: employeeWallet,
		GrossPayCents: netCents,
		NetPayCents:   netCents,
		PaymentStatus: models.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (int, map[string]any) {
	t.Helper()

	var body []byte

	if payload != nil {
		var err error

		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}

	return resp.StatusCode, parsed
}

func TestRunPayrollNoPendingEmployees(t *testing.T) {
	env := setupTestApp(t, 1_000_000, 10_000_000)

	status, body := doJSON(t, env.app, http.MethodPost, "/payroll", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(0), body["paid"])
}

func TestRunPayrollAutoApproved(t *testing.T) {
	env := setupTestApp(t, 1_000_000, 10_000_000)
	env.seedEmployee(t, "emp-1", 100_000)
	env.seedEmployee(t, "emp-2", 150_000)

	status, body := doJSON(t, env.app, http.MethodPost, "/payroll", web.RunPayrollRequest{RequestedBy: "tests"})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["paid"])
	assert.Equal(t, float64(250_000), body["totalPaid"])
	assert.NotEmpty(t, body["tx"])
	assert.Equal(t, float64(2), body["emailsSent"])

	// Paid employees leave the pending queue.
	pending, err := env.persistence.EmployeeRepository().ListByPaymentStatus(context.Background(), models.PaymentStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRunPayrollFlaggedForReview(t *testing.T) {
	env := setupTestApp(t, 1_000_000, 10_000_000)
	env.seedEmployee(t, "emp-1", 2_000_000)

	status, body := doJSON(t, env.app, http.MethodPost, "/payroll", nil)

	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "pending", body["status"])
	assert.NotEmpty(t, body["reviewId"])

	// No settlement happened.
	assert.Empty(t, env.chain.Submissions())
}

func TestRunPayrollInsufficientFunds(t *testing.T) {
	env := setupTestApp(t, 10_000_000, 100)
	env.seedEmployee(t, "emp-1", 100_000)

	status, _ := doJSON(t, env.app, http.MethodPost, "/payroll", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestReviewLifecycle(t *testing.T) {
	env := setupTestApp(t, 1_000_000, 10_000_000)
	env.seedEmployee(t, "emp-1", 2_000_000)

	status, runBody := doJSON(t, env.app, http.MethodPost, "/payroll", nil)
	require.Equal(t, http.StatusAccepted, status)

	reviewID := runBody["reviewId"].(string)

	// The parked request shows up in the queue.
	status, listBody := doJSON(t, env.app, http.MethodGet, "/workflows/reviews", nil)
	require.Equal(t, http.StatusOK, status)

	reviews := listBody["reviews"].([]any)
	require.Len(t, reviews, 1)
	assert.Equal(t, reviewID, reviews[0].(map[string]any)["id"])

	// Approving resumes settlement synchronously.
	status, submitBody := doJSON(t, env.app, http.MethodPost, "/workflows/reviews/submit", web.SubmitReviewRequest{
		ReviewID: reviewID,
		Decision: "approved",
		Reviewer: "ops@example.com",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, submitBody["success"])
	assert.Equal(t, "completed", submitBody["status"])
	assert.NotEmpty(t, submitBody["tx"])

	require.Len(t, env.chain.Submissions(), 1)

	// A second decision on the same request conflicts.
	status, _ = doJSON(t, env.app, http.MethodPost, "/workflows/reviews/submit", web.SubmitReviewRequest{
		ReviewID: reviewID,
		Decision: "rejected",
		Reviewer: "second@example.com",
	})
	assert.Equal(t, http.StatusConflict, status)

	// The queue is empty again.
	status, listBody = doJSON(t, env.app, http.MethodGet, "/workflows/reviews", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, listBody["reviews"])
}

func TestRejectedReviewSkipsSettlement(t *testing.T) {
	env := setupTestApp(t, 1_000_000, 10_000_000)
	env.seedEmployee(t, "emp-1", 2_000_000)

	status, runBody := doJSON(t, env.app, http.MethodPost, "/payroll", nil)
	require.Equal(t, http.StatusAccepted, status)

	reviewID := runBody["reviewId"].(string)

	status, submitBody := doJSON(t, env.app, http.MethodPost, "/workflows/reviews/submit", web.SubmitReviewRequest{
		ReviewID: reviewID,
		Decision: "rejected",
		Reviewer: "ops@example.com",
		Notes:    "batch total looks wrong",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "rejected", submitBody["status"])

	assert.Empty(t, env.chain.Submissions())
}

func TestSubmitReviewValidation(t *testing.T) {
	env := setupTestApp(t, 1_000_000, 10_000_000)

	tests := []struct {
		name           string
		payload        any
		expectedStatus int
	}{
		{
			name:           "invalid decision value",
			payload:        web.SubmitReviewRequest{ReviewID: "review-1", Decision: "maybe", Reviewer: "ops"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing reviewer",
			payload:        web.SubmitReviewRequest{ReviewID: "review-1", Decision: "approved"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown review request",
			payload:        web.SubmitReviewRequest{ReviewID: "review-missing", Decision: "approved", Reviewer: "ops"},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := doJSON(t, env.app, http.MethodPost, "/workflows/reviews/submit", tt.payload)
			assert.Equal(t, tt.expectedStatus, status)
		})
	}
}

func TestListAndGetExecutions(t *testing.T) {
	env := setupTestApp(t, 1_000_000, 10_000_000)
	env.seedEmployee(t, "emp-1", 100_000)

	status, _ := doJSON(t, env.app, http.MethodPost, "/payroll", nil)
	require.Equal(t, http.StatusOK, status)

	status, listBody := doJSON(t, env.app, http.MethodGet, "/workflows/executions", nil)
	require.Equal(t, http.StatusOK, status)

	executions := listBody["executions"].([]any)
	require.Len(t, executions, 1)

	executionID := executions[0].(map[string]any)["id"].(string)

	status, execBody := doJSON(t, env.app, http.MethodGet, "/workflows/executions/"+executionID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", execBody["status"])
	assert.NotNil(t, execBody["provenance"])

	status, _ = doJSON(t, env.app, http.MethodGet, "/workflows/executions/exec-missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateEmployee(t *testing.T) {
	env := setupTestApp(t, 1_000_000, 10_000_000)

	status, body := doJSON(t, env.app, http.MethodPost, "/employees/", web.CreateEmployeeRequest{
		Name:          "Dana",
		Email:         "dana@example.com",
		WalletAddress: employeeWallet,
		GrossPayCents: 100_000,
	})

	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "pending", body["payment_status"])

	// Net pay derived from the withholding schedule.
	assert.Equal(t, float64(75_350), body["net_pay_cents"])
}

func TestCreateEmployeeValidation(t *testing.T) {
	env := setupTestApp(t, 1_000_000, 10_000_000)

	status, _ := doJSON(t, env.app, http.MethodPost, "/employees/", web.CreateEmployeeRequest{
		Name:  "Dana",
		Email: "not-an-email",
	})

	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthCheck(t *testing.T) {
	env := setupTestApp(t, 1_000_000, 10_000_000)

	status, body := doJSON(t, env.app, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}
