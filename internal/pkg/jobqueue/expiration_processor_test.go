package jobqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/internal/pkg/webhook"
)

func expirationJob(accountUUID string) *Job {
	return &Job{
		ID:      FreeTrialExpirationJobID(accountUUID),
		Type:    JobTypeFreeTrialExpiration,
		Payload: FreeTrialExpirationPayload{PlatformAccountUUID: accountUUID}.ToMap(),
	}
}

func TestExpirationProcessorDisablesTrial(t *testing.T) {
	accounts := newStubAccounts(models.PlatformAccount{
		UUID:            "acc-1",
		UserUUID:        "user-1",
		PlatformLoginID: "700123",
		AwardType:       models.AwardTypeFreeTrial,
		Status:          models.AccountStatusActive,
	})
	engine := &fakeEngine{}
	events := &fakeEvents{ok: true}
	activity := &fakeActivity{}

	p := NewExpirationProcessor(accounts, engine, events, activity)
	require.NoError(t, p.Process(context.Background(), expirationJob("acc-1")))

	assert.Equal(t, [][]string{{"700123"}}, engine.logins)
	require.Len(t, events.events, 1)
	assert.Equal(t, sentEvent{event: webhook.EventChallengeFailed, login: "700123", reason: "Free trial expired"}, events.events[0])

	account, _ := accounts.GetByUUID("acc-1")
	assert.Equal(t, models.AccountStatusInactive, account.Status)

	require.Len(t, activity.entries, 1)
	entry := activity.entries[0]
	assert.Equal(t, models.ActionFreeTrialExpired, entry.Action)
	assert.Equal(t, models.ActorTypeSystem, entry.UserType)
	assert.Equal(t, models.EventTypeFreeTrial, entry.EventType)
	assert.Equal(t, models.ActorTypeSystem, entry.CreatedBy)
	assert.Equal(t, "user-1", entry.UserUUID)
}

func TestExpirationProcessorSkips(t *testing.T) {
	cancelledAt := time.Now()
	tests := []struct {
		name    string
		account *models.PlatformAccount
	}{
		{name: "missing account"},
		{
			name:    "not a free trial",
			account: &models.PlatformAccount{UUID: "acc-1", AwardType: "ADMIN", Status: models.AccountStatusActive},
		},
		{
			name:    "already disabled",
			account: &models.PlatformAccount{UUID: "acc-1", AwardType: models.AwardTypeFreeTrial, Status: models.AccountStatusInactive},
		},
		{
			name:    "expiration cancelled",
			account: &models.PlatformAccount{UUID: "acc-1", AwardType: models.AwardTypeFreeTrial, Status: models.AccountStatusActive, ExpirationCancelledAt: &cancelledAt},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := newStubAccounts()
			if tt.account != nil {
				accounts = newStubAccounts(*tt.account)
			}
			engine := &fakeEngine{}
			events := &fakeEvents{ok: true}
			activity := &fakeActivity{}

			p := NewExpirationProcessor(accounts, engine, events, activity)
			require.NoError(t, p.Process(context.Background(), expirationJob("acc-1")))

			assert.Empty(t, engine.logins)
			assert.Empty(t, events.events)
			assert.Empty(t, activity.entries)
		})
	}
}

func TestExpirationProcessorSideEffectsAreBestEffort(t *testing.T) {
	accounts := newStubAccounts(models.PlatformAccount{
		UUID:            "acc-1",
		PlatformLoginID: "700123",
		AwardType:       models.AwardTypeFreeTrial,
		Status:          models.AccountStatusActive,
	})
	p := NewExpirationProcessor(accounts, &fakeEngine{fail: true}, &fakeEvents{ok: false}, &fakeActivity{err: errors.New("db down")})

	require.NoError(t, p.Process(context.Background(), expirationJob("acc-1")))

	account, _ := accounts.GetByUUID("acc-1")
	assert.Equal(t, models.AccountStatusInactive, account.Status)
}

func TestExpirationProcessorRejectsEmptyPayload(t *testing.T) {
	p := NewExpirationProcessor(newStubAccounts(), &fakeEngine{}, &fakeEvents{}, &fakeActivity{})
	err := p.Process(context.Background(), &Job{Type: JobTypeFreeTrialExpiration, Payload: map[string]interface{}{}})
	assert.Error(t, err)
}
