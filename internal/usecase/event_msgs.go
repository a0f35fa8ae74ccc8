package usecase

import "encoding/json"

// Audit event types on the checkout.audit topic.
const (
	AuditVerificationFlagged    = "verification.flagged"
	AuditVerificationOverridden = "verification.overridden"
	AuditCheckoutCompleted      = "checkout.completed"
)

type CheckoutAuditMsg struct {
	Type          string  `json:"type"`
	CheckoutID    string  `json:"checkoutId"`
	Store         string  `json:"store"`
	TransactionID string  `json:"transactionId,omitempty"`
	OrderNumber   string  `json:"orderNumber,omitempty"`
	GrandTotal    float64 `json:"grandTotal,omitempty"`
	At            string  `json:"at"` // RFC3339
}

// ExitScanMsg arrives on the exitpass.scan.q queue from gate scanners.
type ExitScanMsg struct {
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
	Gate      string          `json:"gate"`
}
