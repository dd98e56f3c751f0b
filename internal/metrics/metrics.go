// Package metrics defines and registers the custom Prometheus metrics of the
// Webster service. Metrics are registered with the default registry at init
// through promauto and served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "webster"

// Result label values shared by counters below.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ── Registration metrics ──────────────────────────────────────────────────────

// RegistrationsSubmittedTotal counts accepted submissions (not conflicts).
// Label:
//   - category: the request category supplied by the visitor
var RegistrationsSubmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_submitted_total",
		Help:      "Total number of membership requests stored, by category.",
	},
	[]string{"category"},
)

// RegistrationDecisionsTotal counts operator decisions.
// Label:
//   - decision: "accepted" or "denied"
var RegistrationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_decisions_total",
		Help:      "Total number of membership requests moved out of pending.",
	},
	[]string{"decision"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login attempts.
// Labels:
//   - kind: "operator" or "member"
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login attempts, by principal kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts notification deliveries.
// Labels:
//   - kind: template name (e.g. "verification", "admin_notification")
//   - result: "success" or "failure"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notifications delivered or dropped, by kind and result.",
	},
	[]string{"kind", "result"},
)

// OutboxDepth is the number of notifications waiting in the outbox, sampled
// by the readiness probe.
var OutboxDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outbox_depth",
		Help:      "Notifications waiting in the outbox at the last readiness probe.",
	},
)

// ── Content metrics ───────────────────────────────────────────────────────────

// ContentSectionsWrittenTotal counts section upserts.
// Label:
//   - lang: language code of the written section
var ContentSectionsWrittenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_sections_written_total",
		Help:      "Total number of page content sections written, by language.",
	},
	[]string{"lang"},
)

// Result maps an error to a result label value.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
