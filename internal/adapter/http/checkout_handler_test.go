package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/checkout-api/internal/checkout"
	"github.com/swiftcart/checkout-api/internal/fulfillment"
	"github.com/swiftcart/checkout-api/internal/security"
	"github.com/swiftcart/checkout-api/internal/timeutil"
	"github.com/swiftcart/checkout-api/internal/usecase"
	"github.com/swiftcart/checkout-api/internal/verify"
)

type fixedSampler struct{ u float64 }

func (s fixedSampler) Float64() float64 { return s.u }

// testServer wires the handlers onto a bare engine, without authz, so the
// tests exercise request handling rather than token plumbing.
func testServer(t *testing.T) (*gin.Engine, *timeutil.Fake) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := timeutil.NewFake(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	signer, err := security.NewPassSigner("test-secret")
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sessions := checkout.NewRegistry(checkout.Policy{
		TaxRate:     decimal.NewFromFloat(0.05),
		CheckDelay:  2 * time.Second,
		SettleDelay: 2 * time.Second,
	}, clock, verify.New(0.15, 0.10, fixedSampler{u: 0.5}), signer, nil, log)
	deliveries := fulfillment.NewRegistry(fulfillment.Dwell{
		Preparing: 4 * time.Second,
		PickedUp:  5 * time.Second,
		InTransit: 10 * time.Second,
		Tick:      100 * time.Millisecond,
	}, clock, nil, log)

	ch := NewCheckoutHandler(usecase.NewStartCheckout(sessions, nil), sessions)
	dh := NewDeliveryHandler(deliveries)

	r := gin.New()
	r.POST("/v1/checkouts", ch.CreateCheckout)
	r.GET("/v1/checkouts/:id", ch.GetCheckout)
	r.POST("/v1/checkouts/:id/verify", ch.StartCheck)
	r.POST("/v1/checkouts/:id/retry", ch.Retry)
	r.POST("/v1/checkouts/:id/pay", ch.Pay)
	r.POST("/v1/checkouts/:id/override", ch.Override)
	r.GET("/v1/checkouts/:id/receipt", ch.GetReceipt)
	r.DELETE("/v1/checkouts/:id", ch.CancelCheckout)
	r.POST("/v1/deliveries", dh.CreateDelivery)
	r.GET("/v1/deliveries/:id", dh.GetDelivery)
	r.DELETE("/v1/deliveries/:id", dh.CancelDelivery)
	return r, clock
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func cartBody() map[string]any {
	return map[string]any{
		"store": "SwiftCart Indiranagar",
		"lines": []map[string]any{
			{"itemId": "sku-milk", "name": "Milk 1L", "unitPrice": 1.20, "unitWeight": 0.8, "quantity": 2},
		},
	}
}

func createCheckout(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/v1/checkouts", cartBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id, ok := decodeBody(t, w)["checkoutId"].(string)
	require.True(t, ok)
	return id
}

func TestCreateCheckout(t *testing.T) {
	r, _ := testServer(t)

	t.Run("empty cart is inactive", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/checkouts", map[string]any{"store": "s1", "lines": []any{}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "inactive", decodeBody(t, w)["state"])
	})

	t.Run("missing store is a bad request", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/checkouts", map[string]any{"lines": []any{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid cart opens in review", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/checkouts", cartBody())
		require.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.NotEmpty(t, body["checkoutId"])
		assert.Equal(t, "review", body["state"])
	})
}

func TestCheckoutFlowOverHTTP(t *testing.T) {
	r, clock := testServer(t)
	id := createCheckout(t, r)
	base := "/v1/checkouts/" + id

	w := doJSON(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "review", body["state"])
	assert.Equal(t, "PENDING", body["verification"])
	totals := body["totals"].(map[string]any)
	assert.Equal(t, 2.4, totals["totalPrice"])
	assert.Equal(t, 1.6, totals["totalWeight"])

	// Receipt is not available before settlement.
	w = doJSON(t, r, http.MethodGet, base+"/receipt", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, base+"/verify", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "security", decodeBody(t, w)["state"])

	// Paying while the weigh-in is pending conflicts.
	w = doJSON(t, r, http.MethodPost, base+"/pay", map[string]any{"method": "upi"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "verification_pending", decodeBody(t, w)["error"])

	clock.Advance(2 * time.Second)
	w = doJSON(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PASS", decodeBody(t, w)["verification"])

	w = doJSON(t, r, http.MethodPost, base+"/pay", map[string]any{"method": "upi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decodeBody(t, w)
	assert.Equal(t, "payment", body["state"])
	txn := body["transaction"].(map[string]any)
	assert.NotEmpty(t, txn["transactionId"])
	inv := body["invoice"].(map[string]any)
	assert.Equal(t, 2.52, inv["grandTotal"])

	clock.Advance(2 * time.Second)
	w = doJSON(t, r, http.MethodGet, base+"/receipt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.NotEmpty(t, body["signature"])
	payload := body["payload"].(map[string]any)
	assert.Equal(t, txn["transactionId"], payload["transactionId"])
	// qrData mirrors the signed payload bytes.
	assert.JSONEq(t, body["qrData"].(string), string(mustMarshal(t, payload)))
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestPayValidation(t *testing.T) {
	r, _ := testServer(t)
	id := createCheckout(t, r)

	w := doJSON(t, r, http.MethodPost, "/v1/checkouts/"+id+"/pay", map[string]any{"method": "cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_payment_method", decodeBody(t, w)["error"])

	w = doJSON(t, r, http.MethodPost, "/v1/checkouts/"+id+"/pay", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownCheckout(t *testing.T) {
	r, _ := testServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/checkouts/nope"},
		{http.MethodPost, "/v1/checkouts/nope/verify"},
		{http.MethodGet, "/v1/checkouts/nope/receipt"},
		{http.MethodDelete, "/v1/checkouts/nope"},
	} {
		w := doJSON(t, r, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
	}
}

func TestCancelCheckout(t *testing.T) {
	r, _ := testServer(t)
	id := createCheckout(t, r)

	w := doJSON(t, r, http.MethodDelete, "/v1/checkouts/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/checkouts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeliveryEndpoints(t *testing.T) {
	r, clock := testServer(t)

	t.Run("no shop means inactive", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/deliveries", map[string]any{"items": 2})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "inactive", decodeBody(t, w)["state"])
	})

	t.Run("full tracking lifecycle", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/deliveries", map[string]any{
			"shop":        map[string]any{"name": "SwiftCart Indiranagar", "lat": 0, "lng": 0, "eta": "15-20 min"},
			"destination": map[string]any{"lat": 10, "lng": 10},
			"items":       2,
			"totalPrice":  2.52,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decodeBody(t, w)
		id := body["deliveryId"].(string)
		assert.Equal(t, "preparing", body["stage"])

		clock.Advance(9 * time.Second) // preparing + picked_up dwells
		w = doJSON(t, r, http.MethodGet, "/v1/deliveries/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "on_the_way", decodeBody(t, w)["stage"])

		clock.Advance(10 * time.Second)
		w = doJSON(t, r, http.MethodGet, "/v1/deliveries/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body = decodeBody(t, w)
		assert.Equal(t, "delivered", body["stage"])
		assert.Equal(t, 1.0, body["progress"])
		assert.Equal(t, "Delivered!", body["etaLabel"])

		w = doJSON(t, r, http.MethodDelete, "/v1/deliveries/"+id, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = doJSON(t, r, http.MethodGet, "/v1/deliveries/"+id, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
