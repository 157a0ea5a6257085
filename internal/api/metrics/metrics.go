// Package metrics defines the custom Prometheus metrics of the contracts API.
// It is the single source of truth for metric names, labels and help strings.
// HTTP request metrics are produced separately by echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contracts"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts signup, signin and password change attempts.
// Labels:
//   - operation: "signup", "signin" or "change_password"
//   - outcome: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication operations, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// TokenVerificationsTotal counts bearer token checks.
// Label:
//   - result: "ok", "missing", "invalid" or "expired"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer token verifications, by result.",
	},
	[]string{"result"},
)

// PermissionDenialsTotal counts requests rejected by the permission middleware.
// Label:
//   - reason: "invalid_identifier", "unauthenticated", "user_not_found" or "role"
var PermissionDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_denials_total",
		Help:      "Total number of requests denied before reaching a handler, by reason.",
	},
	[]string{"reason"},
)

// ── Contract metrics ──────────────────────────────────────────────────────────

var ContractsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contracts_created_total",
		Help:      "Total number of contracts created.",
	},
)

// IdempotentReplaysTotal counts creations answered from an earlier Idempotency-Key.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of contract creations replayed from an idempotency key.",
	},
)

var ContractsCancelledTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contracts_cancelled_total",
		Help:      "Total number of contract cancellations.",
	},
)

// Outcome maps an operation error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
