// Package metricsserver exposes a running role's Stats collector as
// Prometheus metrics plus a health endpoint, routed with gorilla/mux the
// way the teacher's own HTTP surface is routed.
package metricsserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes /metrics and /healthz for one running role.
type Server struct {
	httpServer *http.Server

	sentTotal     prometheus.Counter
	receivedTotal prometheus.Counter
	errorsTotal   prometheus.Counter
	latencyHist   prometheus.Histogram

	lastSent     float64
	lastReceived float64
	lastErrors   float64

	tr transport.Transport
}

// New builds a Server bound to addr. Call Refresh periodically (the owning
// role's snapshot job is the natural place) to push the latest Snapshot
// into the Prometheus series, and Serve to start listening.
func New(addr string, tr transport.Transport) *Server {
	registry := prometheus.NewRegistry()

	s := &Server{
		tr: tr,
		sentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqbench_sent_total",
			Help: "Total messages sent.",
		}),
		receivedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqbench_received_total",
			Help: "Total messages received.",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqbench_errors_total",
			Help: "Total transport errors.",
		}),
		latencyHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mqbench_latency_ns",
			Help:    "End-to-end message latency in nanoseconds.",
			Buckets: prometheus.ExponentialBuckets(1000, 4, 12),
		}),
	}
	registry.MustRegister(s.sentTotal, s.receivedTotal, s.errorsTotal, s.latencyHist)

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", s.handleHealthz)

	s.httpServer = &http.Server{Addr: addr, Handler: router}
	return s
}

// Refresh adds the counter deltas represented by snap since the last call
// into the Prometheus counters and records snap's p50 latency as one
// histogram observation. Counters are monotonic by construction
// (Stats never decreases), so Refresh tracks the last-seen totals itself.
func (s *Server) Refresh(snap stats.Snapshot) {
	s.sentTotal.Add(float64(snap.SentCount) - s.lastSent)
	s.receivedTotal.Add(float64(snap.ReceivedCount) - s.lastReceived)
	s.errorsTotal.Add(float64(snap.ErrorCount) - s.lastErrors)
	s.lastSent = float64(snap.SentCount)
	s.lastReceived = float64(snap.ReceivedCount)
	s.lastErrors = float64(snap.ErrorCount)
	s.latencyHist.Observe(float64(snap.LatencyNsP50))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.tr == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := s.tr.HealthCheck(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Serve starts listening in a background goroutine.
func (s *Server) Serve() {
	go s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
