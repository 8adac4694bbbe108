package payroll

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydeck/paydeck/pkg/models"
)

type fakeEmployeeRepo struct {
	pending []*models.Employee
	err     error
}

func (f *fakeEmployeeRepo) Save(_ context.Context, _ *models.Employee) error { return nil }

func (f *fakeEmployeeRepo) GetByID(_ context.Context, _ string) (*models.Employee, error) {
	return nil, nil
}

func (f *fakeEmployeeRepo) ListByPaymentStatus(_ context.Context, status models.PaymentStatus) ([]*models.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}

	if status != models.PaymentStatusPending {
		return nil, nil
	}

	return f.pending, nil
}

func (f *fakeEmployeeRepo) UpdatePaymentStatus(_ context.Context, _ string, _ models.PaymentStatus) error {
	return nil
}

func TestPendingBatch(t *testing.T) {
	repo := &fakeEmployeeRepo{pending: []*models.Employee{
		{
			ID:            "emp-1",
			WalletAddress: "0x1111111111111111111111111111111111111111",
			GrossPayCents: 100_000,
			NetPayCents:   75_350,
			PaymentStatus: models.PaymentStatusPending,
		},
		{
			ID:            "emp-2",
			WalletAddress: "0x2222222222222222222222222222222222222222",
			GrossPayCents: 100_000,
			PaymentStatus: models.PaymentStatusPending,
		},
	}}

	service := NewService(repo, NewCalculator(DefaultRates()))

	batch, err := service.PendingBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Payees, 2)
	assert.Equal(t, int64(75_350), batch.Payees[0].NetPayCents)

	// emp-2 has no stored net amount, so it is derived from gross.
	assert.Equal(t, int64(75_350), batch.Payees[1].NetPayCents)
	assert.Equal(t, int64(150_700), batch.TotalCents)
}

func TestPendingBatchEmpty(t *testing.T) {
	service := NewService(&fakeEmployeeRepo{}, NewCalculator(DefaultRates()))

	batch, err := service.PendingBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Payees)
	assert.Zero(t, batch.TotalCents)
}

func TestPendingBatchStoreError(t *testing.T) {
	service := NewService(&fakeEmployeeRepo{err: errors.New("store down")}, NewCalculator(DefaultRates()))

	_, err := service.PendingBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}

func TestDecisionData(t *testing.T) {
	repo := &fakeEmployeeRepo{pending: []*models.Employee{
		{
			ID:            "emp-1",
			WalletAddress: "0x1111111111111111111111111111111111111111",
			NetPayCents:   50_000,
			PaymentStatus: models.PaymentStatusActive,
		},
	}}

	service := NewService(repo, NewCalculator(DefaultRates()))

	batch, err := service.PendingBatch(context.Background())
	require.NoError(t, err)

	data := batch.DecisionData()
	assert.Equal(t, int64(50_000), data["total_amount_cents"])

	employees, ok := data["employees"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, employees, 1)
	assert.Equal(t, "emp-1", employees[0]["id"])
	assert.Equal(t, "0x1111111111111111111111111111111111111111", employees[0]["wallet_address"])
	assert.Equal(t, int64(50_000), employees[0]["net_pay_cents"])
	assert.Equal(t, "active", employees[0]["payment_status"])
}
