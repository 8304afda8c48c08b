package sinks

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/diamondsights/yrfi-pipeline/internal/progress"
)

// PrometheusSink folds progress events into metrics served from the daily
// runner's /metrics endpoint.
type PrometheusSink struct {
	runs            *prometheus.CounterVec
	recordsWritten  *prometheus.CounterVec
	recordsSkipped  *prometheus.CounterVec
	sourceDurations *prometheus.HistogramVec
}

// NewPrometheusSink registers the collection metrics on reg.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	s := &PrometheusSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yrfi_runs_total",
			Help: "Collection runs by outcome.",
		}, []string{"outcome"}),
		recordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yrfi_records_written_total",
			Help: "Records written to the dataset, by source.",
		}, []string{"source"}),
		recordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yrfi_records_skipped_total",
			Help: "Malformed records skipped during parsing, by source.",
		}, []string{"source"}),
		sourceDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yrfi_source_duration_seconds",
			Help:    "Wall time spent collecting each source.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"source"}),
	}
	for _, c := range []prometheus.Collector{s.runs, s.recordsWritten, s.recordsSkipped, s.sourceDurations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Consume updates the metric families from a batch of events.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunDone:
			s.runs.WithLabelValues("ok").Inc()
		case progress.StageRunError:
			s.runs.WithLabelValues("error").Inc()
		case progress.StageRecordOK:
			s.recordsWritten.WithLabelValues(evt.Source).Inc()
		case progress.StageRecordSkip:
			s.recordsSkipped.WithLabelValues(evt.Source).Inc()
		case progress.StageSourceDone:
			s.sourceDurations.WithLabelValues(evt.Source).Observe(evt.Dur.Seconds())
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
