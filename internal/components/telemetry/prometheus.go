package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusAPI implements API by counting reports into prometheus collectors.
// It is meant to be combined with SlogAPI through MultiAPI.
type PrometheusAPI struct {
	broken   *prometheus.CounterVec
	warnings *prometheus.CounterVec
	counts   *prometheus.GaugeVec
}

func NewPrometheusAPI(registerer prometheus.Registerer) PrometheusAPI {
	api := PrometheusAPI{
		broken: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_scraper_broken_total",
				Help: "Number of broken component reports.",
			},
			[]string{"id"},
		),
		warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_scraper_warnings_total",
				Help: "Number of warning reports.",
			},
			[]string{"id"},
		),
		counts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "catalog_scraper_count",
				Help: "Latest reported value of a counter.",
			},
			[]string{"id"},
		),
	}
	registerer.MustRegister(api.broken, api.warnings, api.counts)
	return api
}

func (p PrometheusAPI) ReportBroken(id string, params ...any) {
	p.broken.WithLabelValues(id).Inc()
}

func (p PrometheusAPI) ReportWarning(id string, params ...any) {
	p.warnings.WithLabelValues(id).Inc()
}

func (p PrometheusAPI) ReportDebug(msg string, params ...any) {}

func (p PrometheusAPI) ReportCount(id string, count int64) {
	p.counts.WithLabelValues(id).Set(float64(count))
}

// ExposeMetrics serves the default prometheus registry on `addr` until ctx is done.
func ExposeMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
	go func() {
		slog.Info("exposing metrics", "addr", addr)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "err", err)
		}
	}()
}
