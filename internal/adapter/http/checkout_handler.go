package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/swiftcart/checkout-api/internal/checkout"
	domain "github.com/swiftcart/checkout-api/internal/entity"
	"github.com/swiftcart/checkout-api/internal/receipt"
	"github.com/swiftcart/checkout-api/internal/usecase"
)

type CheckoutHandler struct {
	start    *usecase.StartCheckout
	sessions *checkout.Registry
}

func NewCheckoutHandler(start *usecase.StartCheckout, sessions *checkout.Registry) *CheckoutHandler {
	return &CheckoutHandler{start: start, sessions: sessions}
}

type cartLineReq struct {
	ItemID     string  `json:"itemId" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	UnitPrice  float64 `json:"unitPrice" binding:"gte=0"`
	UnitWeight float64 `json:"unitWeight" binding:"gte=0"`
	Quantity   int64   `json:"quantity" binding:"required,gte=1"`
}

type createCheckoutReq struct {
	Store string        `json:"store" binding:"required"`
	Lines []cartLineReq `json:"lines"`
}

type checkoutTotalsView struct {
	TotalPrice  float64 `json:"totalPrice"`
	TotalWeight float64 `json:"totalWeight"`
	TotalItems  int64   `json:"totalItems"`
}

type checkoutTxnView struct {
	TransactionID string `json:"transactionId"`
	OrderNumber   string `json:"orderNumber"`
	Method        string `json:"method"`
	CreatedAt     string `json:"createdAt"`
}

type checkoutView struct {
	CheckoutID     string             `json:"checkoutId"`
	Store          string             `json:"store"`
	State          string             `json:"state"`
	Verification   string             `json:"verification"`
	MeasuredWeight float64            `json:"measuredWeight,omitempty"`
	Totals         checkoutTotalsView `json:"totals"`
	Transaction    *checkoutTxnView   `json:"transaction,omitempty"`
	Invoice        *receipt.Invoice   `json:"invoice,omitempty"`
}

// CreateCheckout opens a session for the scanned cart. An empty cart yields
// an inactive view, not an error.
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	var req createCheckoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated requests

	lines := make([]domain.CartLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, domain.CartLine{
			ItemID:     l.ItemID,
			Name:       l.Name,
			UnitPrice:  decimal.NewFromFloat(l.UnitPrice),
			UnitWeight: decimal.NewFromFloat(l.UnitWeight),
			Quantity:   l.Quantity,
		})
	}

	out, err := h.start.Execute(c.Request.Context(), usecase.StartCheckoutInput{
		Store:          req.Store,
		IdempotencyKey: idemKey,
		Lines:          lines,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrDuplicate) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if out.CheckoutID == "" {
		c.JSON(http.StatusOK, gin.H{"state": out.State})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"checkoutId": out.CheckoutID, "state": out.State})
}

func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, viewOf(s.Snapshot()))
}

func (h *CheckoutHandler) StartCheck(c *gin.Context) {
	h.action(c, func(s *checkout.Session) error { return s.StartCheck() })
}

func (h *CheckoutHandler) Retry(c *gin.Context) {
	h.action(c, func(s *checkout.Session) error { return s.Retry() })
}

type payReq struct {
	Method string `json:"method" binding:"required"`
}

func (h *CheckoutHandler) Pay(c *gin.Context) {
	method, ok := bindMethod(c)
	if !ok {
		return
	}
	h.action(c, func(s *checkout.Session) error { return s.Pay(method) })
}

// Override is "Proceed Anyway" on a flagged check. Kept as its own endpoint
// so the bypass is explicit in access logs and audit events.
func (h *CheckoutHandler) Override(c *gin.Context) {
	method, ok := bindMethod(c)
	if !ok {
		return
	}
	h.action(c, func(s *checkout.Session) error { return s.Override(method) })
}

func (h *CheckoutHandler) GetReceipt(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	pass, err := s.Pass()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "not_settled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payload":   json.RawMessage(pass.Encoded),
		"signature": pass.Signature,
		"qrData":    string(pass.Encoded),
	})
}

// CancelCheckout models the shopper navigating away: timers stop and the
// session is forgotten.
func (h *CheckoutHandler) CancelCheckout(c *gin.Context) {
	if err := h.sessions.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CheckoutHandler) action(c *gin.Context, fn func(*checkout.Session) error) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}

	switch err := fn(s); {
	case err == nil:
		c.JSON(http.StatusOK, viewOf(s.Snapshot()))
	case errors.Is(err, domain.ErrVerificationPending):
		c.JSON(http.StatusConflict, gin.H{"error": "verification_pending"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_transition"})
	case errors.Is(err, domain.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": "session_closed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func bindMethod(c *gin.Context) (domain.PaymentMethod, bool) {
	var req payReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return "", false
	}
	method, ok := domain.ParsePaymentMethod(req.Method)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_payment_method"})
		return "", false
	}
	return method, true
}

func viewOf(sn checkout.Snapshot) checkoutView {
	v := checkoutView{
		CheckoutID:   sn.ID,
		Store:        sn.Store,
		State:        string(sn.State),
		Verification: string(sn.Verification),
		Totals: checkoutTotalsView{
			TotalPrice:  round2(sn.Totals.TotalPrice),
			TotalWeight: round2(sn.Totals.TotalWeight),
			TotalItems:  sn.Totals.TotalCount,
		},
		Invoice: sn.Invoice,
	}
	if !sn.MeasuredWeight.IsZero() {
		v.MeasuredWeight = round2(sn.MeasuredWeight)
	}
	if sn.Transaction != nil {
		v.Transaction = &checkoutTxnView{
			TransactionID: sn.Transaction.ID,
			OrderNumber:   sn.Transaction.OrderNumber,
			Method:        string(sn.Transaction.Method),
			CreatedAt:     sn.Transaction.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return v
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
