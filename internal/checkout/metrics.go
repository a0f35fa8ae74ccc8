package checkout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	weightVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weight_verifications_total",
			Help: "Resolved weight checks by result",
		},
		[]string{"result"},
	)

	checkoutOverrides = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_overrides_total",
			Help: "Flagged checkouts paid via Proceed Anyway",
		},
	)

	checkoutsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkouts_completed_total",
			Help: "Checkouts that reached the success state",
		},
	)
)
