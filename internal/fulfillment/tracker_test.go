package fulfillment

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/swiftcart/checkout-api/internal/entity"
	"github.com/swiftcart/checkout-api/internal/timeutil"
)

var testDwell = Dwell{
	Preparing: 4 * time.Second,
	PickedUp:  5 * time.Second,
	InTransit: 10 * time.Second,
	Tick:      100 * time.Millisecond,
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) DeliveryStatusChanged(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

var (
	testShop = domain.Shop{
		Name:     "SwiftCart Indiranagar",
		Location: domain.LatLng{Lat: 0, Lng: 0},
		ETALabel: "15-20 min",
	}
	testDest = domain.LatLng{Lat: 10, Lng: 10}
)

func newTestTracker(obs Observer) (*Tracker, *timeutil.Fake) {
	clock := timeutil.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	t := NewTracker("del-1", testShop, testDest, 2, 2.52, testDwell, clock, obs, log)
	return t, clock
}

func TestTrackerStageProgression(t *testing.T) {
	rec := &eventRecorder{}
	tr, clock := newTestTracker(rec)

	tr.Start()
	sn := tr.Snapshot()
	assert.Equal(t, domain.StagePreparing, sn.Stage)
	assert.Equal(t, testShop.Location, sn.Position)
	assert.Equal(t, "15-20 min", sn.ETALabel)

	clock.Advance(testDwell.Preparing)
	assert.Equal(t, domain.StagePickedUp, tr.Snapshot().Stage)

	clock.Advance(testDwell.PickedUp)
	sn = tr.Snapshot()
	assert.Equal(t, domain.StageInTransit, sn.Stage)
	assert.Equal(t, testShop.Location, sn.Position)
	assert.Equal(t, 0.0, sn.Progress)

	// Halfway through the leg the marker sits mid-line.
	clock.Advance(testDwell.InTransit / 2)
	sn = tr.Snapshot()
	assert.Equal(t, domain.StageInTransit, sn.Stage)
	assert.InDelta(t, 0.5, sn.Progress, 0.02)
	assert.InDelta(t, 5.0, sn.Position.Lat, 0.2)
	assert.InDelta(t, 5.0, sn.Position.Lng, 0.2)

	clock.Advance(testDwell.InTransit / 2)
	sn = tr.Snapshot()
	assert.Equal(t, domain.StageDelivered, sn.Stage)
	assert.Equal(t, testDest, sn.Position)
	assert.Equal(t, 1.0, sn.Progress)
	assert.Equal(t, "Delivered!", sn.ETALabel)

	// Nothing moves after the terminal stage.
	clock.Advance(time.Minute)
	assert.Equal(t, domain.StageDelivered, tr.Snapshot().Stage)
}

func TestTrackerEventsAreMonotonic(t *testing.T) {
	rec := &eventRecorder{}
	tr, clock := newTestTracker(rec)

	tr.Start()
	clock.Advance(testDwell.Preparing + testDwell.PickedUp + testDwell.InTransit + time.Second)

	events := rec.all()
	require.NotEmpty(t, events)
	assert.Equal(t, "preparing", events[0].Stage)
	assert.Equal(t, "delivered", events[len(events)-1].Stage)

	order := map[string]int{"preparing": 0, "picked_up": 1, "on_the_way": 2, "delivered": 3}
	lastStage := -1
	lastProgress := -1.0
	for _, ev := range events {
		rank, ok := order[ev.Stage]
		require.True(t, ok, "unexpected stage %q", ev.Stage)
		assert.GreaterOrEqual(t, rank, lastStage)
		if rank > lastStage {
			lastStage = rank
			lastProgress = -1
		}
		assert.GreaterOrEqual(t, ev.Progress, lastProgress)
		lastProgress = ev.Progress
	}

	// The in-transit leg produced a stream of position ticks.
	var transit int
	for _, ev := range events {
		if ev.Stage == "on_the_way" {
			transit++
		}
	}
	assert.Greater(t, transit, 10)
}

func TestTrackerStartIsIdempotent(t *testing.T) {
	rec := &eventRecorder{}
	tr, clock := newTestTracker(rec)

	tr.Start()
	tr.Start()
	clock.Advance(testDwell.Preparing)

	// A doubled Start would have armed two dwell timers and advanced twice.
	assert.Equal(t, domain.StagePickedUp, tr.Snapshot().Stage)
}

func TestTrackerCancel(t *testing.T) {
	rec := &eventRecorder{}
	tr, clock := newTestTracker(rec)

	tr.Start()
	clock.Advance(testDwell.Preparing)
	require.Equal(t, domain.StagePickedUp, tr.Snapshot().Stage)

	tr.Cancel()
	tr.Cancel() // idempotent
	before := len(rec.all())

	clock.Advance(time.Minute)
	sn := tr.Snapshot()
	assert.Equal(t, domain.StagePickedUp, sn.Stage)
	assert.Len(t, rec.all(), before)
}

func TestRegistryRequiresShopAndDestination(t *testing.T) {
	clock := timeutil.NewFake(time.Now())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := NewRegistry(testDwell, clock, nil, log)

	_, err := reg.Create(nil, &testDest, 2, 2.52)
	assert.ErrorIs(t, err, domain.ErrMissingContext)

	shop := testShop
	_, err = reg.Create(&shop, nil, 2, 2.52)
	assert.ErrorIs(t, err, domain.ErrMissingContext)

	tr, err := reg.Create(&shop, &testDest, 2, 2.52)
	require.NoError(t, err)
	assert.Equal(t, domain.StagePreparing, tr.Snapshot().Stage)
	assert.Equal(t, int64(2), tr.Snapshot().ItemCount)

	got, err := reg.Get(tr.ID())
	require.NoError(t, err)
	assert.Same(t, tr, got)

	require.NoError(t, reg.Remove(tr.ID()))
	_, err = reg.Get(tr.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Removal cancelled the tracker.
	clock.Advance(testDwell.Preparing)
	assert.Equal(t, domain.StagePreparing, tr.Snapshot().Stage)
}
