package workflow

import (
	"context"
	"log/slog"

	"github.com/paydeck/paydeck/pkg/models"
)

// Notifier delivers payout notifications during the deliver stage. It returns
// how many notifications went out; partial delivery returns the count
// alongside the error.
type Notifier interface {
	NotifyPaid(ctx context.Context, execution *models.WorkflowExecution, result *models.BatchPaymentResult) (int, error)
}

// EmployeeDirectory resolves payee records for notification addressing.
type EmployeeDirectory interface {
	GetByID(ctx context.Context, id string) (*models.Employee, error)
}

// EmailNotifier emails every paid employee a payout confirmation. Outbound
// mail goes through the deployment's relay; here delivery is recorded in the
// structured log stream the relay tails.
type EmailNotifier struct {
	employees EmployeeDirectory
	logger    *slog.Logger
}

func NewEmailNotifier(employees EmployeeDirectory, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		employees: employees,
		logger:    logger.With("module", "email_notifier"),
	}
}

// NotifyPaid sends one confirmation per payee in the settled batch. Payees
// without a resolvable record are skipped and do not count as sent.
func (n *EmailNotifier) NotifyPaid(ctx context.Context, execution *models.WorkflowExecution, result *models.BatchPaymentResult) (int, error) {
	payees := payeesFromInput(execution.Input.Data)

	sent := 0

	var lastErr error

	for _, payee := range payees {
		employee, err := n.employees.GetByID(ctx, payee.ID)
		if err != nil {
			lastErr = err

			continue
		}

		n.logger.InfoContext(ctx, "Payout confirmation sent",
			"employee_id", employee.ID,
			"email", employee.Email,
			"amount_cents", payee.NetPayCents,
			"tx_hash", result.TxHash,
		)

		sent++
	}

	return sent, lastErr
}

// NoopNotifier reports zero notifications sent. Used by runs that settle
// nothing and by tests.
type NoopNotifier struct{}

func (NoopNotifier) NotifyPaid(ctx context.Context, execution *models.WorkflowExecution, result *models.BatchPaymentResult) (int, error) {
	return 0, nil
}
