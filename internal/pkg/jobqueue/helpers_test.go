package jobqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/internal/pkg/activitylog"
	"github.com/propmodel/challenge-admin/internal/pkg/tradingengine"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueue(client, 2), mr
}

func waitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

type stubAccounts struct {
	mu       sync.Mutex
	accounts map[string]*models.PlatformAccount
	listErr  error
}

func newStubAccounts(accounts ...models.PlatformAccount) *stubAccounts {
	s := &stubAccounts{accounts: map[string]*models.PlatformAccount{}}
	for i := range accounts {
		a := accounts[i]
		s.accounts[a.UUID] = &a
	}
	return s
}

func (s *stubAccounts) Create(account *models.PlatformAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.UUID] = account
	return nil
}

func (s *stubAccounts) GetByUUID(uuid string) (*models.PlatformAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[uuid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *stubAccounts) CountByAwardType(awardType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.accounts {
		if a.AwardType == awardType {
			n++
		}
	}
	return n, nil
}

func (s *stubAccounts) CountByUserAndAwardType(userUUID, awardType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.accounts {
		if a.UserUUID == userUUID && a.AwardType == awardType {
			n++
		}
	}
	return n, nil
}

func (s *stubAccounts) ListActiveByAwardType(awardType string) ([]models.PlatformAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.PlatformAccount
	for _, a := range s.accounts {
		if a.AwardType == awardType && a.Status == models.AccountStatusActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *stubAccounts) UpdateStatus(uuid string, status int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[uuid]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Status = status
	return nil
}

func (s *stubAccounts) MarkExpirationCancelled(uuid string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[uuid]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if a.ExpirationCancelledAt == nil {
		a.ExpirationCancelledAt = &at
	}
	return nil
}

type fakeEngine struct {
	mu     sync.Mutex
	logins [][]string
	fail   bool
}

func (f *fakeEngine) DisableAccounts(_ context.Context, logins []string) tradingengine.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, logins)
	if f.fail {
		return tradingengine.Result{Error: "engine down", StatusCode: 500}
	}
	return tradingengine.Result{Success: true, StatusCode: 200}
}

type sentEvent struct {
	event, login, reason string
	isFunded             bool
}

type fakeEvents struct {
	mu     sync.Mutex
	events []sentEvent
	ok     bool
}

func (f *fakeEvents) Send(_ context.Context, event, login string, isFunded bool, reason string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{event: event, login: login, reason: reason, isFunded: isFunded})
	return f.ok
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []activitylog.Entry
	err     error
}

func (f *fakeActivity) Store(_ context.Context, entry activitylog.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}
