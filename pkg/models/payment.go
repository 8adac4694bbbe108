package models

// BatchPaymentEmployee is the settlement-layer view of one payee. Amounts are
// in cents of the settlement token; instances are created per execution and
// never reused across runs.
type BatchPaymentEmployee struct {
	ID            string `json:"id"`
	WalletAddress string `json:"wallet_address"`
	NetPayCents   int64  `json:"net_pay_cents"`
}

// BatchPaymentResult describes one confirmed batch settlement transaction.
type BatchPaymentResult struct {
	TxHash         string `json:"tx_hash"`
	TotalPaidCents int64  `json:"total_paid_cents"`
	EmployeeCount  int    `json:"employee_count"`
	BlockNumber    uint64 `json:"block_number"`
}
