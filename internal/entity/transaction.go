package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VerificationResult is the outcome of the simulated weight check.
type VerificationResult string

const (
	VerificationPending VerificationResult = "PENDING"
	VerificationPass    VerificationResult = "PASS"
	VerificationFlag    VerificationResult = "FLAG"
)

// PaymentMethod only affects the displayed label; settlement is identical.
type PaymentMethod string

const (
	PayUPI    PaymentMethod = "upi"
	PayCard   PaymentMethod = "card"
	PayWallet PaymentMethod = "wallet"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(s)) {
	case PayUPI:
		return PayUPI, true
	case PayCard:
		return PayCard, true
	case PayWallet:
		return PayWallet, true
	}
	return "", false
}

// Transaction is frozen on entry into the Payment state and never mutated
// afterwards. Tax is computed from the frozen subtotal, not a live recompute.
type Transaction struct {
	ID          string
	OrderNumber string
	Method      PaymentMethod
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	GrandTotal  decimal.Decimal
	CreatedAt   time.Time
}

// NewTransaction freezes totals at Pay time. taxRate is e.g. 0.05.
func NewTransaction(totals CartTotals, taxRate decimal.Decimal, method PaymentMethod, now time.Time) Transaction {
	subtotal := totals.TotalPrice
	tax := subtotal.Mul(taxRate)
	return Transaction{
		ID:          NewTransactionID(now),
		OrderNumber: NewOrderNumber(),
		Method:      method,
		Subtotal:    subtotal,
		TaxAmount:   tax,
		GrandTotal:  subtotal.Add(tax),
		CreatedAt:   now,
	}
}

// NewTransactionID matches the scanner-facing format TXN-<unixmilli>-<6 upper>.
func NewTransactionID(now time.Time) string {
	tag := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), tag)
}

func NewOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
