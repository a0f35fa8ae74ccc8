package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/swiftcart/checkout-api/internal/checkout"
	"github.com/swiftcart/checkout-api/internal/fulfillment"
)

const publishTimeout = 3 * time.Second

// CheckoutObserver bridges session lifecycle events to the audit stream and
// the exit-pass store. Publishing is best-effort: a broker hiccup must not
// wedge a checkout.
type CheckoutObserver struct {
	audit    AuditPublisher
	receipts ReceiptStore
	log      *slog.Logger
}

func NewCheckoutObserver(audit AuditPublisher, receipts ReceiptStore, log *slog.Logger) *CheckoutObserver {
	return &CheckoutObserver{audit: audit, receipts: receipts, log: log}
}

func (o *CheckoutObserver) VerificationFlagged(s checkout.Snapshot) {
	o.publish(CheckoutAuditMsg{
		Type:       AuditVerificationFlagged,
		CheckoutID: s.ID,
		Store:      s.Store,
		At:         time.Now().UTC().Format(time.RFC3339),
	})
}

func (o *CheckoutObserver) VerificationOverridden(s checkout.Snapshot) {
	msg := CheckoutAuditMsg{
		Type:       AuditVerificationOverridden,
		CheckoutID: s.ID,
		Store:      s.Store,
		At:         time.Now().UTC().Format(time.RFC3339),
	}
	if s.Transaction != nil {
		msg.TransactionID = s.Transaction.ID
		msg.OrderNumber = s.Transaction.OrderNumber
	}
	o.publish(msg)
}

func (o *CheckoutObserver) CheckoutCompleted(s checkout.Snapshot, pass checkout.ExitPass) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if o.receipts != nil {
		err := o.receipts.Save(ctx, pass.Payload.TransactionID, ExitPassRecord{
			Encoded:   string(pass.Encoded),
			Signature: pass.Signature,
		})
		if err != nil {
			o.log.Error("save exit pass", "transaction_id", pass.Payload.TransactionID, "error", err)
		}
	}

	o.publish(CheckoutAuditMsg{
		Type:          AuditCheckoutCompleted,
		CheckoutID:    s.ID,
		Store:         s.Store,
		TransactionID: pass.Payload.TransactionID,
		OrderNumber:   pass.Payload.OrderNumber,
		GrandTotal:    pass.Payload.GrandTotal,
		At:            time.Now().UTC().Format(time.RFC3339),
	})
}

func (o *CheckoutObserver) publish(msg CheckoutAuditMsg) {
	if o.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := o.audit.PublishAudit(ctx, msg); err != nil {
		o.log.Error("publish audit event", "type", msg.Type, "error", err)
	}
}

var _ checkout.Observer = (*CheckoutObserver)(nil)

// DeliveryObserver forwards tracker events to the broker.
type DeliveryObserver struct {
	pub DeliveryEventPublisher
	log *slog.Logger
}

func NewDeliveryObserver(pub DeliveryEventPublisher, log *slog.Logger) *DeliveryObserver {
	return &DeliveryObserver{pub: pub, log: log}
}

func (o *DeliveryObserver) DeliveryStatusChanged(ev fulfillment.Event) {
	if o.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := o.pub.PublishDeliveryStatus(ctx, ev); err != nil {
		o.log.Error("publish delivery status", "delivery_id", ev.DeliveryID, "stage", ev.Stage, "error", err)
	}
}

var _ fulfillment.Observer = (*DeliveryObserver)(nil)
