// Package receipt assembles the exit-pass payload shown as a QR code at the
// store exit, and the itemized invoice view.
package receipt

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/swiftcart/checkout-api/internal/entity"
)

// Payload is the exact record a gate scanner decodes. Field names and the
// 2-decimal rounding of weight/amount are load-bearing: downstream scanners
// parse this shape.
type Payload struct {
	TransactionID string  `json:"transactionId"`
	OrderNumber   string  `json:"orderNumber"`
	TotalWeight   float64 `json:"totalWeight"`
	TotalItems    int64   `json:"totalItems"`
	GrandTotal    float64 `json:"grandTotal"`
	TimestampISO  string  `json:"timestampIso"`
	Store         string  `json:"store"`
}

// Compose builds the payload for a settled transaction. Deterministic given
// its inputs except for now, which must be the moment of composition.
func Compose(txn domain.Transaction, totals domain.CartTotals, store string, now time.Time) Payload {
	return Payload{
		TransactionID: txn.ID,
		OrderNumber:   txn.OrderNumber,
		TotalWeight:   round2(totals.TotalWeight),
		TotalItems:    totals.TotalCount,
		GrandTotal:    round2(txn.GrandTotal),
		TimestampISO:  now.UTC().Format(time.RFC3339),
		Store:         store,
	}
}

func Encode(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

func Decode(b []byte) (Payload, error) {
	var p Payload
	err := json.Unmarshal(b, &p)
	return p, err
}

// InvoiceLine is one cart line priced out for display.
type InvoiceLine struct {
	Name       string  `json:"name"`
	Quantity   int64   `json:"quantity"`
	LineAmount float64 `json:"lineAmount"`
}

// Invoice is the view model the surrounding layer renders after payment.
type Invoice struct {
	Lines      []InvoiceLine `json:"lines"`
	Subtotal   float64       `json:"subtotal"`
	TaxAmount  float64       `json:"taxAmount"`
	GrandTotal float64       `json:"grandTotal"`
}

// BuildInvoice prices the frozen transaction out line by line. All amounts
// are rounded to 2 decimals at this edge only; upstream math stays exact.
func BuildInvoice(txn domain.Transaction, lines []domain.CartLine) Invoice {
	inv := Invoice{
		Subtotal:   round2(txn.Subtotal),
		TaxAmount:  round2(txn.TaxAmount),
		GrandTotal: round2(txn.GrandTotal),
	}
	for _, l := range lines {
		inv.Lines = append(inv.Lines, InvoiceLine{
			Name:       l.Name,
			Quantity:   l.Quantity,
			LineAmount: round2(l.LineAmount()),
		})
	}
	return inv
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
