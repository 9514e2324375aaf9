package metrics

import (
	"net/http"

	"fixsession/pkg/collector"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the session collectors from a dedicated registry.
func Handler() http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collector.MessageCounter,
		collector.DecodeErrorCounter,
		collector.SequenceCounter,
		collector.ResendRequestCounter,
		collector.TerminationCounter,
		collector.SessionPhaseGauge,
		collector.WriteDurationHistogram,
	)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
