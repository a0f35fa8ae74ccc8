package checkout

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	domain "github.com/swiftcart/checkout-api/internal/entity"
	"github.com/swiftcart/checkout-api/internal/security"
	"github.com/swiftcart/checkout-api/internal/timeutil"
	"github.com/swiftcart/checkout-api/internal/verify"
)

// Registry owns the live sessions. The only cross-request artifacts
// (idempotency keys, issued passes) live in redis, not here.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	policy Policy
	clock  timeutil.Clock
	engine *verify.Engine
	signer security.PassSigner
	obs    Observer
	log    *slog.Logger
}

func NewRegistry(policy Policy, clock timeutil.Clock, engine *verify.Engine, signer security.PassSigner, obs Observer, log *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		policy:   policy,
		clock:    clock,
		engine:   engine,
		signer:   signer,
		obs:      obs,
		log:      log,
	}
}

// Create opens a fresh session for the cart. ErrEmptyCart when there is
// nothing to check out.
func (r *Registry) Create(store string, lines []domain.CartLine) (*Session, error) {
	id := uuid.NewString()
	s, err := NewSession(id, store, lines, r.policy, r.clock, r.engine, r.signer, r.obs, r.log)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// Remove cancels the session's timers and forgets it.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.Cancel()
	return nil
}
