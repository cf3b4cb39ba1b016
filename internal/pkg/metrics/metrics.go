package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "challenge_admin"

// Provisioning outcomes.
const (
	OutcomeProvisioned = "provisioned"
	OutcomeDeclined    = "declined"
	OutcomeError       = "error"
)

// Side effects that run after the provisioning transaction commits.
const (
	EffectEmail       = "email"
	EffectActivityLog = "activity_log"
	EffectSchedule    = "schedule_expiration"
)

var (
	Provisioning = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provisioning_total",
		Help:      "Account provisioning attempts by workflow and outcome.",
	}, []string{"workflow", "outcome"})

	OrphanedRemoteAccounts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orphaned_remote_accounts_total",
		Help:      "Remote accounts created whose local records failed to commit.",
	}, []string{"workflow"})

	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "side_effect_failures_total",
		Help:      "Best-effort post-commit steps that failed.",
	}, []string{"effect"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_processed_total",
		Help:      "Background jobs processed by type and final status.",
	}, []string{"type", "status"})

	JobsRescheduled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expiration_jobs_rescheduled_total",
		Help:      "Free-trial expiration jobs restored by the reconciliation sweep.",
	})
)
