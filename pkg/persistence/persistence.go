// Package persistence provides the data storage abstraction layer for
// workflow executions and employee records.
package persistence

import (
	"context"

	"github.com/paydeck/paydeck/pkg/models"
)

// ListExecutionsOptions filters execution listings.
type ListExecutionsOptions struct {
	Status       *models.ExecutionStatus
	WorkflowType *models.WorkflowType
}

// ExecutionRepository stores workflow executions. Review requests are embedded
// on the execution row, which is why lookups by review id search the owning row.
type ExecutionRepository interface {
	Save(ctx context.Context, execution *models.WorkflowExecution) error
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	List(ctx context.Context, opts ListExecutionsOptions) ([]*models.WorkflowExecution, error)
	GetByReviewRequestID(ctx context.Context, reviewRequestID string) (*models.WorkflowExecution, error)
}

// EmployeeRepository stores long-lived employee payee records.
type EmployeeRepository interface {
	Save(ctx context.Context, employee *models.Employee) error
	GetByID(ctx context.Context, id string) (*models.Employee, error)
	ListByPaymentStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Employee, error)
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
}

type Persistence interface {
	ExecutionRepository() ExecutionRepository
	EmployeeRepository() EmployeeRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
