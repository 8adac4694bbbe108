package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/paydeck/paydeck/pkg/settlement"
)

// MockChainClient is a mock implementation of settlement.ChainClient
// interface.
type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) Balance(ctx context.Context, account string) (int64, error) {
	args := m.Called(ctx, account)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChainClient) PendingNonce(ctx context.Context, account string) (uint64, error) {
	args := m.Called(ctx, account)

	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockChainClient) SubmitBatch(ctx context.Context, tx settlement.BatchTransaction) (string, error) {
	args := m.Called(ctx, tx)

	return args.String(0), args.Error(1)
}

func (m *MockChainClient) WaitForConfirmation(ctx context.Context, txHash string) (*settlement.Receipt, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*settlement.Receipt), args.Error(1)
}
