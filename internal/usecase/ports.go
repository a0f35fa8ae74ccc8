package usecase

import (
	"context"

	"github.com/swiftcart/checkout-api/internal/fulfillment"
)

// ExitPassRecord is what the gate can look up for a scanned pass.
type ExitPassRecord struct {
	Encoded   string
	Signature string
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// ReceiptStore keeps issued exit passes for the scan window.
type ReceiptStore interface {
	Save(ctx context.Context, transactionID string, rec ExitPassRecord) error
	Find(ctx context.Context, transactionID string) (ExitPassRecord, bool, error)
}

// AuditPublisher feeds the owner-dashboard analytics stream.
type AuditPublisher interface {
	PublishAudit(ctx context.Context, msg CheckoutAuditMsg) error
}

// DeliveryEventPublisher fans DeliveryStatusEvents out to subscribers.
type DeliveryEventPublisher interface {
	PublishDeliveryStatus(ctx context.Context, ev fulfillment.Event) error
}
