package fulfillment

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	domain "github.com/swiftcart/checkout-api/internal/entity"
	"github.com/swiftcart/checkout-api/internal/timeutil"
)

// Registry owns the live trackers, one per placed delivery.
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker

	dwell Dwell
	clock timeutil.Clock
	obs   Observer
	log   *slog.Logger
}

func NewRegistry(dwell Dwell, clock timeutil.Clock, obs Observer, log *slog.Logger) *Registry {
	return &Registry{
		trackers: make(map[string]*Tracker),
		dwell:    dwell,
		clock:    clock,
		obs:      obs,
		log:      log,
	}
}

// Create validates the required context and starts the tracker. A missing
// shop or destination means there is nothing to track: ErrMissingContext,
// surfaced upstream as an inactive view rather than a fault.
func (r *Registry) Create(shop *domain.Shop, dest *domain.LatLng, items int64, amount float64) (*Tracker, error) {
	if shop == nil || dest == nil {
		return nil, domain.ErrMissingContext
	}
	t := NewTracker(uuid.NewString(), *shop, *dest, items, amount, r.dwell, r.clock, r.obs, r.log)
	r.mu.Lock()
	r.trackers[t.ID()] = t
	r.mu.Unlock()
	t.Start()
	return t, nil
}

func (r *Registry) Get(id string) (*Tracker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trackers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	t, ok := r.trackers[id]
	delete(r.trackers, id)
	r.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	t.Cancel()
	return nil
}
