package settlement_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paydeck/paydeck/pkg/mocks"
	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/settlement"
)

const payerAccount = "0xf000000000000000000000000000000000000002"

func mockedExecutor(chain *mocks.MockChainClient, employees *mocks.MockEmployeeRepository) *settlement.Executor {
	return settlement.NewExecutor(
		chain,
		employees,
		settlement.NewLocalLocker(),
		slog.Default(),
		settlement.ExecutorConfig{FundingAccount: payerAccount},
	)
}

func TestExecuteBatchMirrorsPaidAfterConfirmation(t *testing.T) {
	chain := &mocks.MockChainClient{}
	employees := &mocks.MockEmployeeRepository{}

	payees := []models.BatchPaymentEmployee{
		{ID: "emp-1", WalletAddress: "0x1111111111111111111111111111111111111111", NetPayCents: 75_350},
		{ID: "emp-2", WalletAddress: "0x2222222222222222222222222222222222222222", NetPayCents: 60_000},
	}

	chain.On("Balance", mock.Anything, payerAccount).Return(int64(200_000), nil)
	chain.On("PendingNonce", mock.Anything, payerAccount).Return(uint64(7), nil)
	chain.On("SubmitBatch", mock.Anything, mock.MatchedBy(func(tx settlement.BatchTransaction) bool {
		return tx.From == payerAccount &&
			tx.Nonce == 7 &&
			tx.TotalCents == 135_350 &&
			tx.GasLimit == settlement.GasLimitFor(2)
	})).Return("0xfeedbeef", nil)
	chain.On("WaitForConfirmation", mock.Anything, "0xfeedbeef").
		Return(&settlement.Receipt{TxHash: "0xfeedbeef", BlockNumber: 42}, nil)

	employees.On("UpdatePaymentStatus", mock.Anything, "emp-1", models.PaymentStatusPaid).Return(nil)
	employees.On("UpdatePaymentStatus", mock.Anything, "emp-2", models.PaymentStatusPaid).Return(nil)

	result, err := mockedExecutor(chain, employees).ExecuteBatch(context.Background(), payees)
	require.NoError(t, err)

	assert.Equal(t, "0xfeedbeef", result.TxHash)
	assert.Equal(t, int64(135_350), result.TotalPaidCents)
	assert.Equal(t, 2, result.EmployeeCount)
	assert.Equal(t, uint64(42), result.BlockNumber)

	chain.AssertExpectations(t)
	employees.AssertExpectations(t)
}

func TestExecuteBatchNonceQueryFailureSkipsMirroring(t *testing.T) {
	chain := &mocks.MockChainClient{}
	employees := &mocks.MockEmployeeRepository{}

	payees := []models.BatchPaymentEmployee{
		{ID: "emp-1", WalletAddress: "0x1111111111111111111111111111111111111111", NetPayCents: 50_000},
	}

	chain.On("Balance", mock.Anything, payerAccount).Return(int64(1_000_000), nil)
	chain.On("PendingNonce", mock.Anything, payerAccount).Return(uint64(0), errors.New("rpc timeout"))

	_, err := mockedExecutor(chain, employees).ExecuteBatch(context.Background(), payees)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending nonce")

	chain.AssertNotCalled(t, "SubmitBatch", mock.Anything, mock.Anything)
	employees.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}
