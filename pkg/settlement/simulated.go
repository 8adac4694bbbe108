package settlement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
)

// SimulatedClient is an in-memory ChainClient for development and tests. It
// honors the same contract as the live client, including nonce accounting, so
// the orchestrator code is identical in both modes.
type SimulatedClient struct {
	mu          sync.Mutex
	balances    map[string]int64
	nonces      map[string]uint64
	blockNumber uint64
	receipts    map[string]*Receipt

	// scriptedErrs are returned by SubmitBatch in order before submissions
	// start succeeding. Used by tests to exercise the retry policy.
	scriptedErrs []error
	submissions  []BatchTransaction
}

// NewSimulatedClient creates a simulated settlement network.
func NewSimulatedClient() *SimulatedClient {
	return &SimulatedClient{
		balances:    make(map[string]int64),
		nonces:      make(map[string]uint64),
		receipts:    make(map[string]*Receipt),
		blockNumber: 1,
	}
}

// Fund credits an account balance.
func (c *SimulatedClient) Fund(account string, cents int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.balances[account] += cents
}

// ScriptSubmitErrors queues errors SubmitBatch will return, in order, before
// succeeding.
func (c *SimulatedClient) ScriptSubmitErrors(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scriptedErrs = append(c.scriptedErrs, errs...)
}

// Submissions returns the transactions accepted so far.
func (c *SimulatedClient) Submissions() []BatchTransaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]BatchTransaction, len(c.submissions))
	copy(out, c.submissions)

	return out
}

// Balance returns the account's current simulated balance.
func (c *SimulatedClient) Balance(_ context.Context, account string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.balances[account], nil
}

// PendingNonce returns the account's next sequence number.
func (c *SimulatedClient) PendingNonce(_ context.Context, account string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.nonces[account], nil
}

// SubmitBatch validates and accepts the transaction, debiting the funding
// account and crediting every recipient.
func (c *SimulatedClient) SubmitBatch(_ context.Context, tx BatchTransaction) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.scriptedErrs) > 0 {
		err := c.scriptedErrs[0]
		c.scriptedErrs = c.scriptedErrs[1:]

		return "", err
	}

	if tx.Nonce != c.nonces[tx.From] {
		return "", fmt.Errorf("expected nonce %d, got %d: %w", c.nonces[tx.From], tx.Nonce, ErrNonceConflict)
	}

	if c.balances[tx.From] < tx.TotalCents {
		return "", fmt.Errorf("account %s holds %d cents, batch needs %d", tx.From, c.balances[tx.From], tx.TotalCents)
	}

	c.balances[tx.From] -= tx.TotalCents
	for i, recipient := range tx.Recipients {
		c.balances[recipient] += tx.Amounts[i]
	}

	c.nonces[tx.From]++
	c.blockNumber++

	txHash := hashTransaction(tx)
	c.receipts[txHash] = &Receipt{TxHash: txHash, BlockNumber: c.blockNumber}
	c.submissions = append(c.submissions, tx)

	return txHash, nil
}

// WaitForConfirmation returns the receipt of an accepted transaction. The
// simulated network confirms instantly.
func (c *SimulatedClient) WaitForConfirmation(_ context.Context, txHash string) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	receipt, ok := c.receipts[txHash]
	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", txHash)
	}

	return receipt, nil
}

func hashTransaction(tx BatchTransaction) string {
	payload, _ := json.Marshal(tx)
	sum := sha256.Sum256(payload)

	return "0x" + hex.EncodeToString(sum[:])
}
