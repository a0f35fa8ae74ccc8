package verify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/swiftcart/checkout-api/internal/entity"
)

type fixedSampler struct{ u float64 }

func (s fixedSampler) Float64() float64 { return s.u }

type seqSampler struct {
	us []float64
	i  int
}

func (s *seqSampler) Float64() float64 {
	u := s.us[s.i%len(s.us)]
	s.i++
	return u
}

func TestMeasure(t *testing.T) {
	expected := decimal.NewFromFloat(1.60)

	t.Run("midpoint draw reads exact", func(t *testing.T) {
		e := New(0.15, 0.10, fixedSampler{u: 0.5})
		assert.True(t, e.Measure(expected).Equal(expected))
	})

	t.Run("extremes of the band", func(t *testing.T) {
		low := New(0.15, 0.10, fixedSampler{u: 0}).Measure(expected)
		high := New(0.15, 0.10, fixedSampler{u: 1}).Measure(expected)
		assert.True(t, low.Equal(decimal.NewFromFloat(1.44)), "low %s", low)
		assert.True(t, high.Equal(decimal.NewFromFloat(1.76)), "high %s", high)
	})
}

func TestClassify(t *testing.T) {
	e := New(0.15, 0.10, nil)
	expected := decimal.NewFromInt(100)

	cases := []struct {
		name     string
		measured float64
		want     domain.VerificationResult
	}{
		{"exact", 100, domain.VerificationPass},
		{"within tolerance low", 90, domain.VerificationPass},
		{"within tolerance high", 110, domain.VerificationPass},
		{"exactly at tolerance", 115, domain.VerificationPass},
		{"just above tolerance", 115.01, domain.VerificationFlag},
		{"exactly at tolerance below", 85, domain.VerificationPass},
		{"well below", 80, domain.VerificationFlag},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Classify(expected, decimal.NewFromFloat(tc.measured))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCheck(t *testing.T) {
	t.Run("band extremes still pass at default tolerance", func(t *testing.T) {
		// Max drift of a ±10% band is a 0.10 discrepancy, under the 0.15 cut.
		for _, u := range []float64{0, 0.5, 1} {
			e := New(0.15, 0.10, fixedSampler{u: u})
			_, result := e.Check(decimal.NewFromFloat(1.60))
			assert.Equal(t, domain.VerificationPass, result, "u=%v", u)
		}
	})

	t.Run("wide band can flag", func(t *testing.T) {
		e := New(0.15, 0.50, fixedSampler{u: 1})
		measured, result := e.Check(decimal.NewFromInt(100))
		require.Equal(t, domain.VerificationFlag, result)
		assert.True(t, measured.Equal(decimal.NewFromInt(150)), "measured %s", measured)
	})

	t.Run("each check is a fresh draw", func(t *testing.T) {
		e := New(0.15, 0.50, &seqSampler{us: []float64{1, 0.5}})
		expected := decimal.NewFromInt(100)

		_, first := e.Check(expected)
		_, second := e.Check(expected)
		assert.Equal(t, domain.VerificationFlag, first)
		assert.Equal(t, domain.VerificationPass, second)
	})
}
