package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/swiftcart/checkout-api/internal/security"
	"github.com/swiftcart/checkout-api/internal/usecase"
)

var exitScans = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "exit_scans_total",
		Help: "Gate scan verifications by outcome",
	},
	[]string{"result"},
)

// ExitScanHandler verifies scanned exit passes arriving from gate devices.
// Intended for use with queue.JSONHandler[usecase.ExitScanMsg].
type ExitScanHandler struct {
	verifier *usecase.VerifyExitPass
	log      *slog.Logger
}

func NewExitScanHandler(verifier *usecase.VerifyExitPass, log *slog.Logger) *ExitScanHandler {
	return &ExitScanHandler{verifier: verifier, log: log}
}

// HandleScan returns nil for rejected passes too: a bad pass is a terminal
// decision, not a processing failure, so the message must not be requeued.
func (h *ExitScanHandler) HandleScan(ctx context.Context, msg usecase.ExitScanMsg) error {
	p, err := h.verifier.Execute(ctx, msg)
	switch {
	case err == nil:
		exitScans.WithLabelValues("accepted").Inc()
		h.log.Info("exit pass accepted", "gate", msg.Gate, "transaction_id", p.TransactionID)
		return nil
	case errors.Is(err, security.ErrBadSignature),
		errors.Is(err, usecase.ErrUnknownPass),
		errors.Is(err, usecase.ErrStalePass):
		exitScans.WithLabelValues("rejected").Inc()
		h.log.Warn("exit pass rejected", "gate", msg.Gate, "reason", err.Error())
		return nil
	default:
		// Store lookup failed; let the router nack it.
		return err
	}
}
