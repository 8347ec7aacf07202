// Package metrics defines and registers all custom Prometheus metrics for the
// Dr.Brain dashboard service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// on package initialisation; GET /metrics exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "drbrain"

// ── Upstream metrics ──────────────────────────────────────────────────────────

// UpstreamRequestsTotal counts calls to the hosted backend.
// Labels:
//   - function: edge function or auth endpoint (e.g. "get-profile", "auth_token")
//   - outcome: "ok", "not_found", "remote_error", "transport_error", "invalid_payload"
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of requests issued to the hosted backend.",
	},
	[]string{"function", "outcome"},
)

// UpstreamRequestDuration measures the latency of each upstream attempt.
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of requests to the hosted backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"function"},
)

// UpstreamRetriesTotal counts retry attempts issued under an explicit retry policy.
var UpstreamRetriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_retries_total",
		Help:      "Total number of upstream retries.",
	},
	[]string{"function"},
)

// ── Session and guard metrics ─────────────────────────────────────────────────

// SessionEventsTotal counts session lifecycle events.
// Label:
//   - event: "sign_in", "refresh", "sign_out", "refresh_failed"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session lifecycle events.",
	},
	[]string{"event"},
)

// GuardDecisionsTotal counts route guard outcomes.
// Label:
//   - decision: "login", "onboarding", "allow"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions.",
	},
	[]string{"decision"},
)

// GuardFallbacksTotal counts requests admitted because the profile fetch failed.
var GuardFallbacksTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_fallbacks_total",
		Help:      "Total number of guard decisions that allowed access after a profile fetch error.",
	},
)

// ── Chat metrics ──────────────────────────────────────────────────────────────

// ChatMessagesTotal counts chat sends.
// Labels:
//   - kind: "onboarding" or "feedback"
//   - type: "text" or "audio"
//   - result: "replied", "no_reply", "failed"
var ChatMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_messages_total",
		Help:      "Total number of chat messages sent, by kind, content type and result.",
	},
	[]string{"kind", "type", "result"},
)

// ── Integration metrics ───────────────────────────────────────────────────────

// StatusPollsTotal counts status poll ticks.
// Labels:
//   - integration: "whatsapp" or "google_calendar"
//   - state: the observed state, or "error"
var StatusPollsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_polls_total",
		Help:      "Total number of integration status polls.",
	},
	[]string{"integration", "state"},
)

// ActivePollers tracks running status pollers.
var ActivePollers = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "status_pollers_active",
		Help:      "Current number of running integration status pollers.",
	},
	[]string{"integration"},
)

// ── Realtime metrics ──────────────────────────────────────────────────────────

// RealtimeNotificationsTotal counts notifications received from the realtime channel.
var RealtimeNotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_notifications_total",
		Help:      "Total number of realtime row-insert notifications received.",
	},
	[]string{"table"},
)

// RealtimeReconnectsTotal counts realtime websocket reconnects.
var RealtimeReconnectsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_reconnects_total",
		Help:      "Total number of realtime websocket reconnects.",
	},
)

// NotificationsDroppedTotal counts notifications dropped because a stream was full.
var NotificationsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Total number of notifications dropped for slow subscribers.",
	},
)

// NotificationQueueDepth tracks pending notifications per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
