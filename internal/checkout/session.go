// Package checkout drives a single scan-and-go purchase through
// review -> security -> payment -> success, gated by the weight check.
package checkout

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/swiftcart/checkout-api/internal/entity"
	"github.com/swiftcart/checkout-api/internal/receipt"
	"github.com/swiftcart/checkout-api/internal/security"
	"github.com/swiftcart/checkout-api/internal/timeutil"
	"github.com/swiftcart/checkout-api/internal/verify"
)

type State string

const (
	StateReview   State = "review"
	StateSecurity State = "security"
	StatePayment  State = "payment"
	StateSuccess  State = "success"
)

// Policy is the frozen configuration for one session.
type Policy struct {
	TaxRate     decimal.Decimal
	CheckDelay  time.Duration // simulated scale read time
	SettleDelay time.Duration // simulated settlement time
}

// ExitPass is the signed receipt handed to the gate scanner.
type ExitPass struct {
	Payload   receipt.Payload
	Encoded   []byte
	Signature string
}

// Observer receives lifecycle notifications. Callbacks run outside the
// session lock and must not call back into the session.
type Observer interface {
	VerificationFlagged(s Snapshot)
	VerificationOverridden(s Snapshot)
	CheckoutCompleted(s Snapshot, pass ExitPass)
}

// Snapshot is a point-in-time copy of the session for display and events.
type Snapshot struct {
	ID             string
	Store          string
	State          State
	Verification   domain.VerificationResult
	MeasuredWeight decimal.Decimal
	Totals         domain.CartTotals
	Transaction    *domain.Transaction
	Invoice        *receipt.Invoice
}

// Session owns one checkout's state and timers exclusively. All actions are
// serialized through the mutex; a stale timer callback is invalidated by the
// generation counter rather than queued.
type Session struct {
	mu sync.Mutex

	id     string
	store  string
	lines  []domain.CartLine // copied at creation; totals are frozen here
	totals domain.CartTotals

	policy Policy
	clock  timeutil.Clock
	engine *verify.Engine
	signer security.PassSigner
	obs    Observer
	log    *slog.Logger

	state    State
	result   domain.VerificationResult
	measured decimal.Decimal
	txn      *domain.Transaction
	pass     *ExitPass

	checkSeq int
	closed   bool
	timers   []timeutil.Timer
}

// NewSession copies the cart in and starts at Review. An empty or
// zero-weight cart never becomes a session.
func NewSession(id, store string, lines []domain.CartLine, policy Policy, clock timeutil.Clock, engine *verify.Engine, signer security.PassSigner, obs Observer, log *slog.Logger) (*Session, error) {
	totals := domain.AggregateCart(lines)
	if totals.Empty() || !totals.TotalWeight.IsPositive() {
		return nil, domain.ErrEmptyCart
	}
	copied := make([]domain.CartLine, len(lines))
	copy(copied, lines)
	return &Session{
		id:     id,
		store:  store,
		lines:  copied,
		totals: totals,
		policy: policy,
		clock:  clock,
		engine: engine,
		signer: signer,
		obs:    obs,
		log:    log.With("checkout_id", id),
		state:  StateReview,
		result: domain.VerificationPending,
	}, nil
}

func (s *Session) ID() string { return s.id }

// StartCheck moves Review -> Security and schedules the simulated weigh-in.
// A second submission while the first is pending is rejected, not queued.
func (s *Session) StartCheck() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.state != StateReview {
		return domain.ErrInvalidTransition
	}
	s.state = StateSecurity
	s.beginCheckLocked()
	return nil
}

// Retry re-draws the weight check. Valid any time the session sits in
// Security, regardless of a prior PASS or FLAG; the result drops back to
// PENDING and a fresh sample is scheduled.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.state != StateSecurity {
		return domain.ErrInvalidTransition
	}
	s.beginCheckLocked()
	return nil
}

func (s *Session) beginCheckLocked() {
	s.result = domain.VerificationPending
	s.measured = decimal.Zero
	s.checkSeq++
	seq := s.checkSeq
	s.schedule(s.policy.CheckDelay, func() { s.completeCheck(seq) })
}

func (s *Session) completeCheck(seq int) {
	s.mu.Lock()
	if s.closed || seq != s.checkSeq || s.state != StateSecurity || s.result != domain.VerificationPending {
		s.mu.Unlock()
		return
	}
	measured, result := s.engine.Check(s.totals.TotalWeight)
	s.measured = measured
	s.result = result
	weightVerifications.WithLabelValues(string(result)).Inc()
	s.log.Info("weight check resolved",
		"expected", s.totals.TotalWeight.String(),
		"measured", measured.StringFixed(3),
		"result", string(result),
	)
	var flagged *Snapshot
	if result == domain.VerificationFlag {
		sn := s.snapshotLocked()
		flagged = &sn
	}
	s.mu.Unlock()

	if flagged != nil && s.obs != nil {
		s.obs.VerificationFlagged(*flagged)
	}
}

// Pay authorizes payment. Only a PASS unlocks it; a pending check rejects
// with ErrVerificationPending and a FLAG requires the explicit override.
func (s *Session) Pay(method domain.PaymentMethod) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.state != StateSecurity {
		s.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	switch s.result {
	case domain.VerificationPending:
		s.mu.Unlock()
		return domain.ErrVerificationPending
	case domain.VerificationFlag:
		s.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	s.freezeLocked(method)
	s.mu.Unlock()
	return nil
}

// Override is the audited "Proceed Anyway" edge: it authorizes payment on a
// flagged check. Valid only while the result is FLAG.
func (s *Session) Override(method domain.PaymentMethod) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.state != StateSecurity || s.result != domain.VerificationFlag {
		s.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	s.freezeLocked(method)
	checkoutOverrides.Inc()
	sn := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Warn("flagged checkout overridden", "transaction_id", sn.Transaction.ID)
	if s.obs != nil {
		s.obs.VerificationOverridden(sn)
	}
	return nil
}

// freezeLocked creates the immutable Transaction and enters Payment. Tax is
// computed here, from the frozen subtotal, and never recomputed.
func (s *Session) freezeLocked(method domain.PaymentMethod) {
	txn := domain.NewTransaction(s.totals, s.policy.TaxRate, method, s.clock.Now())
	s.txn = &txn
	s.state = StatePayment
	s.checkSeq++ // any in-flight weigh-in result is now stale
	s.schedule(s.policy.SettleDelay, s.settle)
}

// settle completes Payment -> Success. No failure path is modeled.
func (s *Session) settle() {
	s.mu.Lock()
	if s.closed || s.state != StatePayment {
		s.mu.Unlock()
		return
	}
	s.state = StateSuccess
	payload := receipt.Compose(*s.txn, s.totals, s.store, s.clock.Now())
	encoded, err := receipt.Encode(payload)
	if err != nil {
		// Payload is plain fields; this cannot fail in practice.
		s.log.Error("encode exit pass", "error", err)
		s.mu.Unlock()
		return
	}
	sig, err := s.signer.Sign(encoded)
	if err != nil {
		s.log.Error("sign exit pass", "error", err)
		s.mu.Unlock()
		return
	}
	s.pass = &ExitPass{Payload: payload, Encoded: encoded, Signature: sig}
	checkoutsCompleted.Inc()
	sn := s.snapshotLocked()
	pass := *s.pass
	s.mu.Unlock()

	s.log.Info("checkout settled", "transaction_id", pass.Payload.TransactionID, "order_number", pass.Payload.OrderNumber)
	if s.obs != nil {
		s.obs.CheckoutCompleted(sn, pass)
	}
}

// Cancel models navigating away: timers stop and no partial state leaks
// into any later session. Idempotent.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.checkSeq++
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

// Pass returns the signed exit pass once the checkout reached Success.
func (s *Session) Pass() (ExitPass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSuccess || s.pass == nil {
		return ExitPass{}, domain.ErrInvalidTransition
	}
	return *s.pass, nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	sn := Snapshot{
		ID:             s.id,
		Store:          s.store,
		State:          s.state,
		Verification:   s.result,
		MeasuredWeight: s.measured,
		Totals:         s.totals,
	}
	if s.txn != nil {
		txn := *s.txn
		sn.Transaction = &txn
		inv := receipt.BuildInvoice(txn, s.lines)
		sn.Invoice = &inv
	}
	return sn
}

func (s *Session) schedule(d time.Duration, f func()) {
	s.timers = append(s.timers, s.clock.AfterFunc(d, f))
}
