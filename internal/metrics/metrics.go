// Package metrics exposes conditioning progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/sigcond/internal/processor"
)

const namespace = "sigcond"

// Collector holds the sigcond metrics on a private registry, so several
// collectors (one per test, say) never collide.
type Collector struct {
	registry *prometheus.Registry

	samplesTotal     *prometheus.CounterVec
	clampedTotal     *prometheus.CounterVec
	calibrationTotal *prometheus.CounterVec
	rawLevel         *prometheus.GaugeVec
	conditioned      *prometheus.GaugeVec
	baselineLevel    *prometheus.GaugeVec
	floorLevel       *prometheus.GaugeVec
}

// NewCollector creates and registers the sigcond metrics.
func NewCollector() *Collector {
	labels := []string{"input"}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		samplesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "samples_total",
				Help:      "Total number of samples run through the conditioning chain.",
			},
			labels,
		),
		clampedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clamped_samples_total",
				Help:      "Total number of samples clamped by the amplifier.",
			},
			labels,
		),
		calibrationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calibrations_total",
				Help:      "Total number of baseline calibrations.",
			},
			labels,
		),
		rawLevel: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "raw_level",
				Help:      "Most recent raw ADC reading.",
			},
			labels,
		),
		conditioned: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "conditioned_level",
				Help:      "Most recent conditioned output.",
			},
			labels,
		),
		baselineLevel: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "baseline_level",
				Help:      "Resting level subtracted from every reading.",
			},
			labels,
		),
		floorLevel: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "floor_level",
				Help:      "Current dynamic floor (window minimum).",
			},
			labels,
		),
	}

	c.registry.MustRegister(
		c.samplesTotal,
		c.clampedTotal,
		c.calibrationTotal,
		c.rawLevel,
		c.conditioned,
		c.baselineLevel,
		c.floorLevel,
	)
	return c
}

// Registry returns the private registry, for tests and custom handlers.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// For returns a processor.Recorder that labels its observations with input.
func (c *Collector) For(input string) processor.Recorder {
	return &inputRecorder{c: c, input: input}
}

type inputRecorder struct {
	c     *Collector
	input string
}

// ObserveBaseline publishes the level in use and counts it as a calibration
// only when one actually ran.
func (r *inputRecorder) ObserveBaseline(level int, calibrated bool) {
	r.c.baselineLevel.WithLabelValues(r.input).Set(float64(level))
	if calibrated {
		r.c.calibrationTotal.WithLabelValues(r.input).Inc()
	}
}

func (r *inputRecorder) ObserveSample(s processor.Sample) {
	r.c.samplesTotal.WithLabelValues(r.input).Inc()
	if s.Clamped {
		r.c.clampedTotal.WithLabelValues(r.input).Inc()
	}
	r.c.rawLevel.WithLabelValues(r.input).Set(float64(s.Raw))
	r.c.conditioned.WithLabelValues(r.input).Set(s.Conditioned)
	r.c.floorLevel.WithLabelValues(r.input).Set(float64(s.Floor))
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", c.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"function": "Serve",
			"addr":     addr,
		}).Info("Starting metrics server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logrus.WithField("function", "Serve").Info("Shutting down metrics server")
		return srv.Shutdown(shutdownCtx)
	}
}
