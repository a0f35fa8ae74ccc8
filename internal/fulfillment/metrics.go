package fulfillment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var deliveryStageTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "delivery_stage_transitions_total",
		Help: "Fulfillment stage transitions by stage entered",
	},
	[]string{"stage"},
)
