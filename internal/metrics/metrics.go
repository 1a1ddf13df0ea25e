// Package metrics registers the bot's Prometheus collectors and serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Signals produced per symbol and source (ai|fallback)"},
		[]string{"symbol", "source"},
	)
	ModelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "model_calls_total", Help: "Inference endpoint call attempts by outcome"},
		[]string{"outcome"},
	)
	KrakenRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "kraken_requests_total", Help: "Kraken REST requests by endpoint and method"},
		[]string{"endpoint", "method"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of live ticker updates ingested"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(SignalsTotal, ModelCallsTotal, KrakenRequestsTotal, OrdersTotal, TicksTotal)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
