package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decision_client_events_dropped_total",
		Help: "Events discarded because a log queue was full or shutting down.",
	}, []string{"channel"})

	batchesFlushed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decision_client_batches_flushed_total",
		Help: "Framed batches handed to a sender.",
	}, []string{"channel"})

	sendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decision_client_send_failures_total",
		Help: "Batches whose synchronous send attempt failed.",
	}, []string{"channel"})
)
