package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Direction string

const (
	IN  Direction = "in"
	OUT Direction = "out"
)

var (
	labels = []string{"direction", "msg_type"}

	MessageCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fix_message_counter",
		Help: "The total number of FIX messages by direction and type",
	}, labels)

	DecodeErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fix_decode_error_counter",
		Help: "The total number of inbound bytes rejected by the decoder",
	}, []string{"kind"})

	SequenceCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fix_sequence_counter",
		Help: "The total number of inbound sequence anomalies",
	}, []string{"outcome"})

	ResendRequestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fix_resend_request_counter",
		Help: "The total number of resend requests",
	}, []string{"direction"})

	TerminationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fix_termination_counter",
		Help: "The total number of terminated sessions by reason",
	}, []string{"reason"})

	SessionPhaseGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fix_session_phase",
		Help: "1 for the current phase of each session",
	}, []string{"session", "phase"})

	WriteDurationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "fix_write_duration",
		Help: "Transport write duration in microseconds",
	})
)

func CountMessage(direction Direction, msgType string) {
	MessageCounter.WithLabelValues(string(direction), msgType).Inc()
}
