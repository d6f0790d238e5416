package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters. Registered on the default registry and exposed on
// GET /metrics.
var (
	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parentpal",
		Name:      "messages_processed_total",
		Help:      "Raw messages run through the ingestion pipeline",
	}, []string{"result"}) // processed | duplicate | rejected | failed

	ExtractorFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parentpal",
		Name:      "extractor_fallbacks_total",
		Help:      "Extractions that degraded to the heuristic parser",
	}, []string{"reason"}) // rate_limited | request_failed | parse_failed

	EventsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "parentpal",
		Name:      "events_created_total",
		Help:      "Events persisted from extraction candidates",
	})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parentpal",
		Name:      "notifications_created_total",
		Help:      "Notification records created",
	}, []string{"channel"})

	SMSDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parentpal",
		Name:      "sms_dispatches_total",
		Help:      "Immediate SMS dispatch attempts",
	}, []string{"result"}) // sent | failed
)
