// Package metrics records convert runs as Prometheus metrics. A run is a
// short-lived process, so the registry is written to a node_exporter
// textfile instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dbsmedya/goalias/internal/reconcile"
	"github.com/dbsmedya/goalias/internal/replay"
	"github.com/dbsmedya/goalias/internal/types"
)

const namespace = "goalias"

// Recorder owns a private registry so tests and repeated runs never collide
// with the default one.
type Recorder struct {
	registry *prometheus.Registry

	entries      *prometheus.GaugeVec
	outcomes     *prometheus.CounterVec
	aliasLatency *prometheus.HistogramVec
	lastRun      prometheus.Gauge
}

// NewRecorder creates a recorder with every metric registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		entries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_entries",
			Help:      "Number of natural keys in the reconciled dataset.",
		}, []string{"kind", "state"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_outcomes_total",
			Help:      "Replayed entries by outcome.",
		}, []string{"kind", "status"}),
		aliasLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alias_latency_seconds",
			Help:      "Latency of alias calls, retries included.",
			Buckets: []float64{
				0.01, 0.02, 0.05,
				0.1, 0.2, 0.5,
				1, 2, 5, 10, 30,
			},
		}, []string{"kind", "result"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the textfile was written.",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveDataset records the complete/incomplete split of ds.
func (r *Recorder) ObserveDataset(ds *reconcile.Dataset) {
	kind := ds.Kind.String()
	r.entries.WithLabelValues(kind, "complete").Set(float64(ds.CompleteCount()))
	r.entries.WithLabelValues(kind, "incomplete").Set(float64(ds.IncompleteCount()))
}

// ObserveOutcome counts one replayed entry.
func (r *Recorder) ObserveOutcome(kind types.RecordKind, o replay.Outcome) {
	r.outcomes.WithLabelValues(kind.String(), o.Status.String()).Inc()
}

// Instrument wraps an aliaser so every call is timed under kind.
func (r *Recorder) Instrument(kind types.RecordKind, a replay.Aliaser) replay.Aliaser {
	return replay.AliasFunc(func(ctx context.Context, previousID, userID string) error {
		start := time.Now()
		err := a.Alias(ctx, previousID, userID)

		result := "success"
		if err != nil {
			result = "error"
		}
		r.aliasLatency.WithLabelValues(kind.String(), result).Observe(time.Since(start).Seconds())
		return err
	})
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	r.lastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
