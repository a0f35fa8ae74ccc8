// Package verify simulates the exit-lane scale. There is no real sensor:
// a measured weight is sampled around the expected cart weight and the
// relative discrepancy decides PASS vs FLAG.
package verify

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	domain "github.com/swiftcart/checkout-api/internal/entity"
)

// Sampler supplies the uniform draw in [0,1). Injected so tests can pin it.
type Sampler interface {
	Float64() float64
}

type randSampler struct{}

func (randSampler) Float64() float64 { return rand.Float64() }

type Engine struct {
	tolerance decimal.Decimal // flag when discrepancy exceeds this, e.g. 0.15
	band      decimal.Decimal // simulated scale drift, e.g. 0.10 for ±10%
	src       Sampler
}

// New builds an engine with the given tolerance and variance band.
// A nil src falls back to math/rand.
func New(tolerance, band float64, src Sampler) *Engine {
	if src == nil {
		src = randSampler{}
	}
	return &Engine{
		tolerance: decimal.NewFromFloat(tolerance),
		band:      decimal.NewFromFloat(band),
		src:       src,
	}
}

// Measure samples a simulated reading for the expected weight:
// expected × (1 − band + U·2·band), U uniform in [0,1). With the default
// band of 0.10 that is the classic 0.9 + 0.2·U spread.
func (e *Engine) Measure(expected decimal.Decimal) decimal.Decimal {
	u := decimal.NewFromFloat(e.src.Float64())
	factor := decimal.NewFromInt(1).
		Sub(e.band).
		Add(e.band.Mul(decimal.NewFromInt(2)).Mul(u))
	return expected.Mul(factor)
}

// Classify applies the decision rule: discrepancy strictly greater than the
// tolerance flags the transaction; exactly at the tolerance still passes.
// expected must be positive; the checkout refuses to start a check on an
// empty cart before the engine is ever reached.
func (e *Engine) Classify(expected, measured decimal.Decimal) domain.VerificationResult {
	d := measured.Sub(expected).Abs().Div(expected)
	if d.GreaterThan(e.tolerance) {
		return domain.VerificationFlag
	}
	return domain.VerificationPass
}

// Check draws one sample and classifies it. Each call re-draws, so a retry
// is a genuinely fresh measurement.
func (e *Engine) Check(expected decimal.Decimal) (measured decimal.Decimal, result domain.VerificationResult) {
	measured = e.Measure(expected)
	return measured, e.Classify(expected, measured)
}
