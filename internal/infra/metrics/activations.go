package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(activationsTotal, activationsExpiredTotal, refundsTotal) }

var activationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "module_activations_total",
		Help: "Module activations by module key.",
	},
	[]string{"module"},
)

var activationsExpiredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "module_activations_expired_total",
		Help: "Activations flipped inactive by the expiry sweep.",
	},
)

var refundsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "module_refunds_total",
		Help: "Deactivation outcomes by refund result (refunded/forfeited).",
	},
	[]string{"result"},
)

func IncActivation(moduleKey string) {
	activationsTotal.WithLabelValues(norm(moduleKey)).Inc()
}

func IncActivationsExpired(n int) {
	activationsExpiredTotal.Add(float64(n))
}

func IncRefund(refunded bool) {
	result := "forfeited"
	if refunded {
		result = "refunded"
	}
	refundsTotal.WithLabelValues(result).Inc()
}
