package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/persistence"
)

// ExecutorConfig carries the deployment-supplied settlement parameters.
type ExecutorConfig struct {
	FundingAccount       string
	MaxAttempts          int
	RateLimitBackoff     time.Duration
	NonceConflictBackoff time.Duration
}

// Defaults for the retry policy. The retryable failure classes are expected
// to clear within a couple of seconds, so backoff is fixed rather than
// exponential.
const (
	DefaultMaxAttempts          = 3
	DefaultRateLimitBackoff     = 2 * time.Second
	DefaultNonceConflictBackoff = 1 * time.Second
)

// withDefaults fills unset config fields.
func (c ExecutorConfig) withDefaults() ExecutorConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}

	if c.RateLimitBackoff <= 0 {
		c.RateLimitBackoff = DefaultRateLimitBackoff
	}

	if c.NonceConflictBackoff <= 0 {
		c.NonceConflictBackoff = DefaultNonceConflictBackoff
	}

	return c
}

// Executor submits one batched settlement transaction per call. At most one
// run may be in flight per funding account; the locker serializes runs so
// nonce conflicts stay rare rather than routine.
type Executor struct {
	client    ChainClient
	employees persistence.EmployeeRepository
	locker    AccountLocker
	logger    *slog.Logger
	config    ExecutorConfig

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(time.Duration)
}

// NewExecutor creates a settlement executor with its collaborators injected.
func NewExecutor(
	client ChainClient,
	employees persistence.EmployeeRepository,
	locker AccountLocker,
	logger *slog.Logger,
	config ExecutorConfig,
) *Executor {
	return &Executor{
		client:    client,
		employees: employees,
		locker:    locker,
		logger:    logger.With("module", "settlement_executor"),
		config:    config.withDefaults(),
		sleep:     time.Sleep,
	}
}

// ExecuteBatch pays every payee in a single atomic batched transaction and,
// after confirmation, mirrors the paid state onto the employee records.
//
// Failure modes: *ValidationError before any network call,
// *InsufficientFundsError after the fresh balance check, *SubmissionError once
// submission or confirmation is exhausted. Per-record mirroring failures are
// logged and never roll back the settlement; financial truth lives on the
// network, the store is a cache of it.
func (e *Executor) ExecuteBatch(ctx context.Context, payees []models.BatchPaymentEmployee) (*models.BatchPaymentResult, error) {
	if err := validatePayees(payees); err != nil {
		return nil, err
	}

	release, err := e.locker.Acquire(ctx, e.config.FundingAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire funding account lock: %w", err)
	}
	defer release()

	var totalCents int64
	for _, payee := range payees {
		totalCents += payee.NetPayCents
	}

	logger := e.logger.With("funding_account", e.config.FundingAccount, "payees", len(payees), "total_cents", totalCents)

	// Balance is queried fresh on every run; a cached balance cannot prove
	// the account still covers the batch.
	balance, err := e.client.Balance(ctx, e.config.FundingAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to query funding account balance: %w", err)
	}

	if balance < totalCents {
		logger.WarnContext(ctx, "Funding account cannot cover batch", "balance_cents", balance)

		return nil, &InsufficientFundsError{RequiredCents: totalCents, AvailableCents: balance}
	}

	txHash, err := e.submitWithRetry(ctx, logger, payees, totalCents)
	if err != nil {
		return nil, err
	}

	logger = logger.With("tx_hash", txHash)
	logger.InfoContext(ctx, "Batch transaction submitted, waiting for confirmation")

	receipt, err := e.client.WaitForConfirmation(ctx, txHash)
	if err != nil {
		return nil, &SubmissionError{Attempts: e.config.MaxAttempts, Err: fmt.Errorf("confirmation failed for %s: %w", txHash, err)}
	}

	logger.InfoContext(ctx, "Batch transaction confirmed", "block_number", receipt.BlockNumber)

	e.mirrorPaidStatus(ctx, logger, payees)

	return &models.BatchPaymentResult{
		TxHash:         receipt.TxHash,
		TotalPaidCents: totalCents,
		EmployeeCount:  len(payees),
		BlockNumber:    receipt.BlockNumber,
	}, nil
}

// validatePayees fails the whole batch on the first invalid entry. No partial
// batches are ever split off and submitted.
func validatePayees(payees []models.BatchPaymentEmployee) error {
	if len(payees) == 0 {
		return &ValidationError{Reason: "empty batch"}
	}

	for _, payee := range payees {
		if !ValidAddress(payee.WalletAddress) {
			return &ValidationError{EmployeeID: payee.ID, Reason: fmt.Sprintf("invalid wallet address %q", payee.WalletAddress)}
		}

		if payee.NetPayCents <= 0 {
			return &ValidationError{EmployeeID: payee.ID, Reason: fmt.Sprintf("non-positive amount %d", payee.NetPayCents)}
		}
	}

	return nil
}

// submitWithRetry submits the batch up to MaxAttempts times. Each attempt
// fetches a fresh pending sequence number; a cached nonce is exactly what
// collides after a half-submitted attempt. Only rate-limit and
// nonce-conflict errors are retried.
func (e *Executor) submitWithRetry(ctx context.Context, logger *slog.Logger, payees []models.BatchPaymentEmployee, totalCents int64) (string, error) {
	recipients := make([]string, len(payees))
	amounts := make([]int64, len(payees))

	for i, payee := range payees {
		recipients[i] = payee.WalletAddress
		amounts[i] = payee.NetPayCents
	}

	var lastErr error

	for attempt := 1; attempt <= e.config.MaxAttempts; attempt++ {
		nonce, err := e.client.PendingNonce(ctx, e.config.FundingAccount)
		if err != nil {
			return "", fmt.Errorf("failed to fetch pending nonce: %w", err)
		}

		tx := BatchTransaction{
			From:       e.config.FundingAccount,
			Recipients: recipients,
			Amounts:    amounts,
			TotalCents: totalCents,
			Nonce:      nonce,
			GasLimit:   GasLimitFor(len(payees)),
		}

		txHash, err := e.client.SubmitBatch(ctx, tx)
		if err == nil {
			return txHash, nil
		}

		if !retryable(err) {
			return "", &SubmissionError{Attempts: attempt, Err: err}
		}

		lastErr = err

		if attempt == e.config.MaxAttempts {
			break
		}

		backoff := e.config.RateLimitBackoff
		if errorIsNonceConflict(err) {
			backoff = e.config.NonceConflictBackoff
		}

		logger.WarnContext(ctx, "Transient submission failure, retrying with fresh nonce",
			"attempt", attempt, "backoff", backoff, "error", err)

		e.sleep(backoff)
	}

	return "", &SubmissionError{Attempts: e.config.MaxAttempts, Err: lastErr}
}

// mirrorPaidStatus marks every payee's persisted record as paid. Individual
// failures are logged and skipped; the money has already moved.
func (e *Executor) mirrorPaidStatus(ctx context.Context, logger *slog.Logger, payees []models.BatchPaymentEmployee) {
	for _, payee := range payees {
		err := e.employees.UpdatePaymentStatus(ctx, payee.ID, models.PaymentStatusPaid)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to mirror paid status for employee", "employee_id", payee.ID, "error", err)
		}
	}
}
