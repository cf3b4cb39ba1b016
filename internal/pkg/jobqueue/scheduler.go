package jobqueue

import (
	"context"
	"time"
)

// ScheduleFreeTrialExpiration makes the account's expiration job due after
// delay, replacing any earlier schedule for the same account.
func (q *Queue) ScheduleFreeTrialExpiration(ctx context.Context, platformAccountUUID string, delay time.Duration) error {
	payload := FreeTrialExpirationPayload{PlatformAccountUUID: platformAccountUUID}.ToMap()
	_, err := q.Schedule(ctx, FreeTrialExpirationJobID(platformAccountUUID), JobTypeFreeTrialExpiration, payload, delay)
	return err
}

// CancelFreeTrialExpiration removes the account's pending expiration job.
func (q *Queue) CancelFreeTrialExpiration(ctx context.Context, platformAccountUUID string) (bool, error) {
	return q.Cancel(ctx, FreeTrialExpirationJobID(platformAccountUUID))
}
