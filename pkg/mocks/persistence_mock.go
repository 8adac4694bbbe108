package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/persistence"
)

// MockExecutionRepository is a mock implementation of
// persistence.ExecutionRepository interface.
type MockExecutionRepository struct {
	mock.Mock
}

func (m *MockExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	args := m.Called(ctx, execution)

	return args.Error(0)
}

func (m *MockExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowExecution), args.Error(1)
}

func (m *MockExecutionRepository) List(ctx context.Context, opts persistence.ListExecutionsOptions) ([]*models.WorkflowExecution, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowExecution), args.Error(1)
}

func (m *MockExecutionRepository) GetByReviewRequestID(ctx context.Context, reviewRequestID string) (*models.WorkflowExecution, error) {
	args := m.Called(ctx, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowExecution), args.Error(1)
}

// MockEmployeeRepository is a mock implementation of
// persistence.EmployeeRepository interface.
type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) Save(ctx context.Context, employee *models.Employee) error {
	args := m.Called(ctx, employee)

	return args.Error(0)
}

func (m *MockEmployeeRepository) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) ListByPaymentStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Employee, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	args := m.Called(ctx, id, status)

	return args.Error(0)
}
