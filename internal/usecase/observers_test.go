package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/checkout-api/internal/checkout"
	"github.com/swiftcart/checkout-api/internal/fulfillment"
	"github.com/swiftcart/checkout-api/internal/receipt"
)

type memAuditPublisher struct {
	mu   sync.Mutex
	msgs []CheckoutAuditMsg
	err  error
}

func (m *memAuditPublisher) PublishAudit(_ context.Context, msg CheckoutAuditMsg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

type memDeliveryPublisher struct {
	mu  sync.Mutex
	evs []fulfillment.Event
}

func (m *memDeliveryPublisher) PublishDeliveryStatus(_ context.Context, ev fulfillment.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evs = append(m.evs, ev)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestCheckoutObserver(t *testing.T) {
	snapshot := checkout.Snapshot{ID: "chk-1", Store: "SwiftCart Indiranagar"}
	pass := checkout.ExitPass{
		Payload: receipt.Payload{
			TransactionID: "TXN-1-ABC123",
			OrderNumber:   "ORD-DEADBEEF",
			GrandTotal:    2.52,
		},
		Encoded:   []byte(`{"transactionId":"TXN-1-ABC123"}`),
		Signature: "sig",
	}

	t.Run("flagged publishes an audit event", func(t *testing.T) {
		audit := &memAuditPublisher{}
		o := NewCheckoutObserver(audit, newMemReceiptStore(), discard())

		o.VerificationFlagged(snapshot)

		require.Len(t, audit.msgs, 1)
		assert.Equal(t, AuditVerificationFlagged, audit.msgs[0].Type)
		assert.Equal(t, "chk-1", audit.msgs[0].CheckoutID)
		assert.NotEmpty(t, audit.msgs[0].At)
	})

	t.Run("completion stores the pass and publishes", func(t *testing.T) {
		audit := &memAuditPublisher{}
		receipts := newMemReceiptStore()
		o := NewCheckoutObserver(audit, receipts, discard())

		o.CheckoutCompleted(snapshot, pass)

		rec, ok, err := receipts.Find(context.Background(), "TXN-1-ABC123")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, string(pass.Encoded), rec.Encoded)
		assert.Equal(t, "sig", rec.Signature)

		require.Len(t, audit.msgs, 1)
		assert.Equal(t, AuditCheckoutCompleted, audit.msgs[0].Type)
		assert.Equal(t, "TXN-1-ABC123", audit.msgs[0].TransactionID)
		assert.Equal(t, 2.52, audit.msgs[0].GrandTotal)
	})

	t.Run("publisher failure does not panic the checkout", func(t *testing.T) {
		audit := &memAuditPublisher{err: errors.New("broker down")}
		o := NewCheckoutObserver(audit, newMemReceiptStore(), discard())

		assert.NotPanics(t, func() { o.CheckoutCompleted(snapshot, pass) })
	})
}

func TestDeliveryObserver(t *testing.T) {
	pub := &memDeliveryPublisher{}
	o := NewDeliveryObserver(pub, discard())

	o.DeliveryStatusChanged(fulfillment.Event{DeliveryID: "del-1", Stage: "on_the_way", Progress: 0.5})

	require.Len(t, pub.evs, 1)
	assert.Equal(t, "del-1", pub.evs[0].DeliveryID)
	assert.Equal(t, "on_the_way", pub.evs[0].Stage)
}
