package models

import "time"

// PaymentStatus is the long-lived payment state of an employee record. The
// paid transition is the only store side effect the settlement executor is
// allowed to commit, and only after the batch transaction is confirmed.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusActive   PaymentStatus = "active"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusInactive PaymentStatus = "inactive"
)

// PayEligible reports whether an employee in this state may receive a payout.
func (s PaymentStatus) PayEligible() bool {
	return s == PaymentStatusActive || s == PaymentStatusPending
}

// Employee is the long-lived payee entity mirrored from the store.
type Employee struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"          validate:"required"`
	Email         string        `json:"email"         validate:"required,email"`
	WalletAddress string        `json:"wallet_address"`
	GrossPayCents int64         `json:"gross_pay_cents"`
	NetPayCents   int64         `json:"net_pay_cents"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
