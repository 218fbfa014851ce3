/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type canvasMetrics struct {
	registry *prometheus.Registry

	// participants is the number of connected participants
	participants prometheus.Gauge

	// historyLength is the number of accepted updates so far
	historyLength prometheus.Gauge

	accepted prometheus.Counter

	// rejected counts dropped updates by reason
	rejected *prometheus.CounterVec

	// dropped counts participants cut off for falling behind
	dropped prometheus.Counter
}

// newCanvasMetrics uses its own registry so that every canvas, including the
// ones built in tests, starts from zero.
func newCanvasMetrics() *canvasMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)

	return &canvasMetrics{
		registry: reg,
		participants: f.NewGauge(prometheus.GaugeOpts{
			Name: "gridparty_participants",
			Help: "Number of connected participants",
		}),
		historyLength: f.NewGauge(prometheus.GaugeOpts{
			Name: "gridparty_history_length",
			Help: "Number of accepted grid updates",
		}),
		accepted: f.NewCounter(prometheus.CounterOpts{
			Name: "gridparty_updates_accepted_total",
			Help: "Total grid updates accepted",
		}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gridparty_updates_rejected_total",
			Help: "Total grid updates rejected by reason",
		}, []string{"reason"}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "gridparty_participants_dropped_total",
			Help: "Total participants dropped for a full send queue",
		}),
	}
}

func registerMetrics(cfg *Config, mux *httprouter.Router, m *canvasMetrics) {
	mux.Handler("GET", cfg.prefix+"/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
