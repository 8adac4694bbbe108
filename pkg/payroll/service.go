package payroll

import (
	"context"
	"fmt"

	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/persistence"
)

// Service assembles settlement batches from the store's pending payees.
type Service struct {
	employees  persistence.EmployeeRepository
	calculator *Calculator
}

// NewService creates a payroll service with its collaborators injected.
func NewService(employees persistence.EmployeeRepository, calculator *Calculator) *Service {
	return &Service{employees: employees, calculator: calculator}
}

// Batch is one assembled payout batch plus the decision-layer payee views.
type Batch struct {
	Payees     []models.BatchPaymentEmployee
	Employees  []*models.Employee
	TotalCents int64
}

// PendingBatch reads all employees awaiting payment and computes their net
// pay. Employees without a stored net amount are computed from gross via the
// withholding calculator.
func (s *Service) PendingBatch(ctx context.Context) (*Batch, error) {
	employees, err := s.employees.ListByPaymentStatus(ctx, models.PaymentStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending employees: %w", err)
	}

	batch := &Batch{
		Payees:    make([]models.BatchPaymentEmployee, 0, len(employees)),
		Employees: employees,
	}

	for _, employee := range employees {
		netCents := employee.NetPayCents
		if netCents == 0 && employee.GrossPayCents > 0 {
			netCents = s.calculator.NetPayCents(employee.GrossPayCents)
		}

		batch.Payees = append(batch.Payees, models.BatchPaymentEmployee{
			ID:            employee.ID,
			WalletAddress: employee.WalletAddress,
			NetPayCents:   netCents,
		})
		batch.TotalCents += netCents
	}

	return batch, nil
}

// DecisionData builds the workflow input payload the decision engine
// evaluates for a payroll batch.
func (b *Batch) DecisionData() map[string]any {
	payees := make([]map[string]any, 0, len(b.Payees))

	for i, payee := range b.Payees {
		payees = append(payees, map[string]any{
			"id":             payee.ID,
			"wallet_address": payee.WalletAddress,
			"net_pay_cents":  payee.NetPayCents,
			"payment_status": string(b.Employees[i].PaymentStatus),
		})
	}

	return map[string]any{
		"employees":          payees,
		"total_amount_cents": b.TotalCents,
	}
}
