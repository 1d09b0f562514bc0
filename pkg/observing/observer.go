// Package observing counts generation progress and exposes it to Prometheus.
package observing

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"AnomalyForge/pkg/injecting"
)

// Observer receives progress events from the builders and the collector.
type Observer interface {
	WindowBuilt(c injecting.Class)
	Skipped(c injecting.Class, reason injecting.SkipReason)
	SetWritten(set string, rows int, elapsed time.Duration)
	SampleCollected(elapsed time.Duration)
}

// Nop discards every event.
type Nop struct{}

func (Nop) WindowBuilt(injecting.Class)                   {}
func (Nop) Skipped(injecting.Class, injecting.SkipReason) {}
func (Nop) SetWritten(string, int, time.Duration)         {}
func (Nop) SampleCollected(time.Duration)                 {}

// PromObserver records events as Prometheus metrics.
type PromObserver struct {
	windows  *prometheus.CounterVec
	skips    *prometheus.CounterVec
	rows     *prometheus.CounterVec
	write    prometheus.Histogram
	collect  prometheus.Histogram
	gatherer prometheus.Gatherer
}

// NewPromObserver registers its collectors on reg. A nil reg uses a fresh registry.
func NewPromObserver(reg *prometheus.Registry) *PromObserver {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	p := &PromObserver{
		windows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anomalyforge_windows_built_total",
			Help: "Windows sampled, injected and flattened, by class.",
		}, []string{"class"}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anomalyforge_injection_skips_total",
			Help: "Entries an injector left untouched, by class and reason.",
		}, []string{"class", "reason"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anomalyforge_rows_written_total",
			Help: "Records handed to the dataset sink, by set.",
		}, []string{"set"}),
		write: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "anomalyforge_set_write_seconds",
			Help:    "Time spent writing one set to the sink.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		collect: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "anomalyforge_collect_seconds",
			Help:    "Time spent taking one live sample.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		gatherer: reg,
	}
	reg.MustRegister(p.windows, p.skips, p.rows, p.write, p.collect)
	return p
}

func (p *PromObserver) WindowBuilt(c injecting.Class) {
	p.windows.WithLabelValues(c.String()).Inc()
}

func (p *PromObserver) Skipped(c injecting.Class, reason injecting.SkipReason) {
	p.skips.WithLabelValues(c.String(), string(reason)).Inc()
}

func (p *PromObserver) SetWritten(set string, rows int, elapsed time.Duration) {
	p.rows.WithLabelValues(set).Add(float64(rows))
	p.write.Observe(elapsed.Seconds())
}

func (p *PromObserver) SampleCollected(elapsed time.Duration) {
	p.collect.Observe(elapsed.Seconds())
}

// Handler serves the observer's registry.
func (p *PromObserver) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics and /healthz on addr until ctx is done.
func (p *PromObserver) Serve(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server exited", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
}
