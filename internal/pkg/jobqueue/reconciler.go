package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/app/repository"
	"github.com/propmodel/challenge-admin/internal/pkg/metrics"
)

// Reconciler restores expiration jobs lost from Redis, for example after a
// flush or a scheduling failure at provisioning time.
type Reconciler struct {
	queue    *Queue
	accounts repository.PlatformAccountRepository
	expiry   time.Duration
	now      func() time.Time
}

func NewReconciler(queue *Queue, accounts repository.PlatformAccountRepository, expiry time.Duration) *Reconciler {
	return &Reconciler{
		queue:    queue,
		accounts: accounts,
		expiry:   expiry,
		now:      time.Now,
	}
}

// RunOnce schedules every active free trial that has no job, due at
// created_at + expiry. Overdue trials become due immediately and trials whose
// expiry was cancelled are skipped. It returns how many jobs were restored.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	accounts, err := r.accounts.ListActiveByAwardType(models.AwardTypeFreeTrial)
	if err != nil {
		return 0, fmt.Errorf("list free trial accounts: %w", err)
	}

	restored := 0
	for _, account := range accounts {
		if account.ExpirationCancelled() {
			continue
		}
		jobID := FreeTrialExpirationJobID(account.UUID)
		exists, err := r.queue.Exists(ctx, jobID)
		if err != nil {
			return restored, fmt.Errorf("check job %s: %w", jobID, err)
		}
		if exists {
			continue
		}

		delay := account.CreatedAt.Add(r.expiry).Sub(r.now())
		payload := FreeTrialExpirationPayload{PlatformAccountUUID: account.UUID}.ToMap()
		if _, err := r.queue.Schedule(ctx, jobID, JobTypeFreeTrialExpiration, payload, delay); err != nil {
			return restored, err
		}
		restored++
		metrics.JobsRescheduled.Inc()
	}

	if restored > 0 {
		log.Warnf("[JobQueue] Reconciliation restored %d expiration jobs", restored)
	}
	return restored, nil
}
