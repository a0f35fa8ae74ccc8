// Package fulfillment advances a placed delivery through its stages on
// timers and moves the courier marker along the shop-to-door line.
package fulfillment

import (
	"log/slog"
	"sync"
	"time"

	domain "github.com/swiftcart/checkout-api/internal/entity"
	"github.com/swiftcart/checkout-api/internal/timeutil"
)

// Dwell holds the configured stage durations and the position tick period.
type Dwell struct {
	Preparing time.Duration
	PickedUp  time.Duration
	InTransit time.Duration
	Tick      time.Duration
}

// Event is emitted on every stage change and every position update.
type Event struct {
	DeliveryID string        `json:"deliveryId"`
	Stage      string        `json:"stage"`
	Position   domain.LatLng `json:"position"`
	ETALabel   string        `json:"etaLabel"`
	Progress   float64       `json:"progress"` // fraction of the in-transit leg
}

// Observer receives status events outside the tracker lock.
type Observer interface {
	DeliveryStatusChanged(ev Event)
}

// Snapshot is the view the surrounding layer polls.
type Snapshot struct {
	ID         string
	ShopName   string
	Stage      domain.Stage
	Position   domain.LatLng
	ETALabel   string
	Progress   float64
	ItemCount  int64
	TotalPrice float64
}

// Tracker is a time-driven automaton: no user action moves it. Each
// tracker owns its timers exclusively.
type Tracker struct {
	mu sync.Mutex

	id     string
	shop   domain.Shop
	dest   domain.LatLng
	dwell  Dwell
	clock  timeutil.Clock
	obs    Observer
	log    *slog.Logger
	items  int64
	amount float64

	stage     domain.Stage
	enteredAt time.Time
	pos       domain.LatLng
	progress  float64
	started   bool
	closed    bool
	timers    []timeutil.Timer
}

func NewTracker(id string, shop domain.Shop, dest domain.LatLng, items int64, amount float64, dwell Dwell, clock timeutil.Clock, obs Observer, log *slog.Logger) *Tracker {
	return &Tracker{
		id:     id,
		shop:   shop,
		dest:   dest,
		dwell:  dwell,
		clock:  clock,
		obs:    obs,
		log:    log.With("delivery_id", id),
		items:  items,
		amount: amount,
		stage:  domain.StagePreparing,
		pos:    shop.Location,
	}
}

func (t *Tracker) ID() string { return t.id }

// Start enters Preparing and arms the first dwell timer. Second calls no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	if t.started || t.closed {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.enteredAt = t.clock.Now()
	ev := t.eventLocked()
	t.schedule(t.dwell.Preparing, t.advance)
	t.mu.Unlock()

	t.emit(ev)
}

// advance fires when a non-terminal stage's dwell elapses.
func (t *Tracker) advance() {
	t.mu.Lock()
	if t.closed || t.stage.Terminal() {
		t.mu.Unlock()
		return
	}
	t.stage++
	t.enteredAt = t.clock.Now()
	deliveryStageTransitions.WithLabelValues(t.stage.String()).Inc()
	t.log.Info("delivery stage", "stage", t.stage.String())

	switch t.stage {
	case domain.StagePickedUp:
		t.schedule(t.dwell.PickedUp, t.advance)
	case domain.StageInTransit:
		t.progress = 0
		t.pos = t.shop.Location
		t.schedule(t.dwell.Tick, t.tick)
	case domain.StageDelivered:
		t.pos = t.dest
		t.progress = 1
	}
	ev := t.eventLocked()
	t.mu.Unlock()

	t.emit(ev)
}

// tick interpolates the courier position during InTransit. At p >= 1 the
// tracker transitions to Delivered instead of lingering past the end.
func (t *Tracker) tick() {
	t.mu.Lock()
	if t.closed || t.stage != domain.StageInTransit {
		t.mu.Unlock()
		return
	}
	elapsed := t.clock.Now().Sub(t.enteredAt)
	p := float64(elapsed) / float64(t.dwell.InTransit)
	if p < 0 {
		p = 0
	}
	if p >= 1 {
		t.mu.Unlock()
		t.advance()
		return
	}
	t.progress = p
	t.pos = t.shop.Location.Lerp(t.dest, p)
	ev := t.eventLocked()
	t.schedule(t.dwell.Tick, t.tick)
	t.mu.Unlock()

	t.emit(ev)
}

// Cancel stops all timers; the tracker reports its last state but never
// moves again. Idempotent.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for _, tm := range t.timers {
		tm.Stop()
	}
	t.timers = nil
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		ID:         t.id,
		ShopName:   t.shop.Name,
		Stage:      t.stage,
		Position:   t.pos,
		ETALabel:   t.etaLocked(),
		Progress:   t.progress,
		ItemCount:  t.items,
		TotalPrice: t.amount,
	}
}

func (t *Tracker) eventLocked() Event {
	return Event{
		DeliveryID: t.id,
		Stage:      t.stage.String(),
		Position:   t.pos,
		ETALabel:   t.etaLocked(),
		Progress:   t.progress,
	}
}

func (t *Tracker) etaLocked() string {
	if t.stage == domain.StageDelivered {
		return "Delivered!"
	}
	return t.shop.ETALabel
}

func (t *Tracker) emit(ev Event) {
	if t.obs != nil {
		t.obs.DeliveryStatusChanged(ev)
	}
}

func (t *Tracker) schedule(d time.Duration, f func()) {
	t.timers = append(t.timers, t.clock.AfterFunc(d, f))
}
