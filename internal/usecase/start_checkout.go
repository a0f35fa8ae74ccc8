package usecase

import (
	"context"
	"errors"

	"github.com/swiftcart/checkout-api/internal/checkout"
	domain "github.com/swiftcart/checkout-api/internal/entity"
)

var ErrDuplicate = errors.New("duplicate idempotency key")

type StartCheckoutInput struct {
	Store          string
	IdempotencyKey string
	Lines          []domain.CartLine
}

type StartCheckoutOutput struct {
	CheckoutID string
	State      string // "inactive" when no session was allocated
}

type StartCheckout struct {
	sessions *checkout.Registry
	idem     IdempotencyStore
}

func NewStartCheckout(sessions *checkout.Registry, idem IdempotencyStore) *StartCheckout {
	return &StartCheckout{sessions: sessions, idem: idem}
}

func (uc *StartCheckout) Execute(ctx context.Context, in StartCheckoutInput) (StartCheckoutOutput, error) {
	// An empty cart allocates nothing; the caller gets an inactive view.
	if len(in.Lines) == 0 {
		return StartCheckoutOutput{State: "inactive"}, nil
	}

	// Fast path: idempotency recall
	if in.IdempotencyKey != "" {
		if id, ok, _ := uc.idem.Recall(ctx, in.Store, in.IdempotencyKey); ok {
			out := StartCheckoutOutput{CheckoutID: id, State: string(checkout.StateReview)}
			if s, err := uc.sessions.Get(id); err == nil {
				out.State = string(s.Snapshot().State)
			}
			return out, nil
		}
		ok, err := uc.idem.TryLock(ctx, in.Store, in.IdempotencyKey)
		if err != nil {
			return StartCheckoutOutput{}, err
		}
		if !ok {
			return StartCheckoutOutput{}, ErrDuplicate
		}
	}

	s, err := uc.sessions.Create(in.Store, in.Lines)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCart) {
			return StartCheckoutOutput{State: "inactive"}, nil
		}
		return StartCheckoutOutput{}, err
	}

	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, in.Store, in.IdempotencyKey, s.ID())
	}
	return StartCheckoutOutput{CheckoutID: s.ID(), State: string(checkout.StateReview)}, nil
}
