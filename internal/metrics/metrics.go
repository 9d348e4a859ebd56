package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts scans by outcome (present, suppressed, busy, ...).
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduscan",
		Name:      "scans_total",
		Help:      "Scans handled, by outcome.",
	}, []string{"outcome"})

	// PayloadFormats counts which parser branch resolved a payload.
	PayloadFormats = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduscan",
		Name:      "payload_formats_total",
		Help:      "Parsed QR payloads, by detected format.",
	}, []string{"format"})

	// MessagesTotal counts composed notifications by kind and source.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduscan",
		Name:      "messages_composed_total",
		Help:      "Composed notification messages, by kind and source (generated or fallback).",
	}, []string{"kind", "source"})

	// ComposeSeconds observes text generation latency.
	ComposeSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "eduscan",
		Name:      "compose_duration_seconds",
		Help:      "Time spent composing a notification, fallback included.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
	})

	// DeliveriesTotal counts delivery hand-offs by result.
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduscan",
		Name:      "deliveries_total",
		Help:      "Delivery hand-offs, by result.",
	}, []string{"result"})

	// DayClosedRecords counts records marked absent by day-close.
	DayClosedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eduscan",
		Name:      "day_close_absences_total",
		Help:      "Records marked absent by day-close.",
	})
)
