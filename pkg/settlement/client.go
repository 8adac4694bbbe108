package settlement

import "context"

// BatchTransaction is one batched money-movement transaction carrying the full
// recipient and amount arrays plus the full funding value.
type BatchTransaction struct {
	From       string   `json:"from"`
	Recipients []string `json:"recipients"`
	Amounts    []int64  `json:"amounts"`
	TotalCents int64    `json:"total_cents"`
	Nonce      uint64   `json:"nonce"`
	GasLimit   uint64   `json:"gas_limit"`
}

// Receipt describes an included transaction.
type Receipt struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

// ChainClient is the wrapper around the settlement network RPC endpoint. The
// network itself is opaque; implementations must translate transport failures
// into the typed error classes of this package so retry logic can branch on
// type rather than message text.
type ChainClient interface {
	// Balance returns the spendable balance of the account, queried fresh.
	Balance(ctx context.Context, account string) (int64, error)

	// PendingNonce returns the account's next sequence number including
	// pending transactions.
	PendingNonce(ctx context.Context, account string) (uint64, error)

	// SubmitBatch submits the transaction and returns its hash. After a
	// successful return the transaction can no longer be canceled.
	SubmitBatch(ctx context.Context, tx BatchTransaction) (string, error)

	// WaitForConfirmation blocks until the transaction is included in a
	// block and returns its receipt. The wait is bounded only by ctx and
	// network responsiveness.
	WaitForConfirmation(ctx context.Context, txHash string) (*Receipt, error)
}

// Gas sizing scales with batch size so large runs do not fail purely from
// under-provisioning.
const (
	gasBase     uint64 = 100_000
	gasPerPayee uint64 = 35_000
)

// GasLimitFor returns the execution budget for a batch of n payees.
func GasLimitFor(n int) uint64 {
	return gasBase + gasPerPayee*uint64(n)
}
