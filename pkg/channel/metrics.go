package channel

import "github.com/prometheus/client_golang/prometheus"

// encoderEscalations counts per-channel crash-recovery escalations that
// surfaced as an operator-visible failure; alerting/paging integration
// itself is out of scope.
var encoderEscalations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "broadcastcore_encoder_escalations_total",
		Help: "Count of channels whose encoder relaunch was escalated to an operator-visible failure.",
	},
	[]string{"channel_id"},
)

func init() {
	prometheus.MustRegister(encoderEscalations)
}
