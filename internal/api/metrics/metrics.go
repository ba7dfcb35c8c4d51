// Package metrics defines and registers the custom Prometheus metrics of the
// newsroom service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry on package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsroom"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// SignupsTotal counts signup attempts.
// Label:
//   - result: "created", "invalid", "mail_failed" or "error"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of signup attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Labels:
//   - method: "password" or "remember_me"
//   - result: "success", "invalid_credentials", "inactive" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// TokenOperationsTotal counts emailed token flows.
// Labels:
//   - purpose: "verify_email" or "reset_password"
//   - result: "issued", "already_pending", "consumed", "invalid" or "error"
var TokenOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_operations_total",
		Help:      "Total number of verification and reset token operations.",
	},
	[]string{"purpose", "result"},
)

// MailDeliveryFailuresTotal counts emails that could not be delivered.
// Label:
//   - kind: "verification" or "password_reset"
var MailDeliveryFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_delivery_failures_total",
		Help:      "Total number of transactional emails that failed delivery.",
	},
	[]string{"kind"},
)

// ── Back office metrics ───────────────────────────────────────────────────────

// AdminActionsTotal counts successful back office mutations.
// Labels:
//   - resource: "category" or "author"
//   - action: "create", "update", "delete", "activate" or "deactivate"
var AdminActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_actions_total",
		Help:      "Total number of back office mutations, by resource and action.",
	},
	[]string{"resource", "action"},
)
