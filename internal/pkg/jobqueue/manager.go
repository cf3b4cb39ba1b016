package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/propmodel/challenge-admin/app/repository"
)

const DefaultReconcileSchedule = "@every 30m"

// ManagerConfig wires the queue to its processors.
type ManagerConfig struct {
	Client            *redis.Client
	Workers           int
	ReconcileSchedule string
	TrialExpiry       time.Duration
	Accounts          repository.PlatformAccountRepository
	Expiration        *ExpirationProcessor
}

// Manager manages the job queue and its periodic reconciliation
type Manager struct {
	queue      *Queue
	reconciler *Reconciler
	accounts   repository.PlatformAccountRepository
	schedule   string
	cron       *cron.Cron
	mu         sync.Mutex
	running    bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

func NewManager(cfg ManagerConfig) *Manager {
	queue := NewQueue(cfg.Client, cfg.Workers)
	if cfg.Expiration != nil {
		queue.Register(JobTypeFreeTrialExpiration, cfg.Expiration.Process)
	}

	schedule := cfg.ReconcileSchedule
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}

	m := &Manager{
		queue:    queue,
		accounts: cfg.Accounts,
		schedule: schedule,
	}
	if cfg.Accounts != nil {
		m.reconciler = NewReconciler(queue, cfg.Accounts, cfg.TrialExpiry)
	}
	return m
}

// InitializeManager creates the global manager once.
func InitializeManager(cfg ManagerConfig) *Manager {
	managerOnce.Do(func() {
		globalManager = NewManager(cfg)
	})
	return globalManager
}

// GetManager returns the global job queue manager
func GetManager() *Manager {
	if globalManager == nil {
		panic("Job queue manager not initialized. Call InitializeManager first.")
	}
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and the reconciliation cron
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	log.Info("[JobQueue Manager] Starting job queue and background tasks")
	m.queue.Start()

	if m.reconciler != nil {
		m.cron = cron.New()
		if _, err := m.cron.AddFunc(m.schedule, m.reconcile); err != nil {
			m.queue.Stop()
			return err
		}
		m.cron.Start()
		go m.reconcile()
	}

	m.running = true
	log.Info("[JobQueue Manager] Started successfully")
	return nil
}

// Stop stops the cron and the job queue
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
	m.queue.Stop()
	m.running = false
	log.Info("[JobQueue Manager] Stopped successfully")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RunReconciliationOnce exposes a manual trigger for a single sweep.
func (m *Manager) RunReconciliationOnce(ctx context.Context) (int, error) {
	if m.reconciler == nil {
		return 0, nil
	}
	return m.reconciler.RunOnce(ctx)
}

func (m *Manager) reconcile() {
	if _, err := m.reconciler.RunOnce(context.Background()); err != nil {
		log.Errorf("[JobQueue Manager] Reconciliation error: %v", err)
	}
}

// CancelFreeTrialExpiration records the cancellation on the account before
// removing the queued job, so a later reconciliation sweep leaves it alone.
// It reports false when there was nothing to cancel.
func (m *Manager) CancelFreeTrialExpiration(ctx context.Context, platformAccountUUID string) (bool, error) {
	if m.accounts == nil {
		return m.queue.CancelFreeTrialExpiration(ctx, platformAccountUUID)
	}

	account, err := m.accounts.GetByUUID(platformAccountUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load platform account: %w", err)
	}
	if !account.IsFreeTrial() || !account.IsActive() {
		return false, nil
	}

	marked := false
	if !account.ExpirationCancelled() {
		if err := m.accounts.MarkExpirationCancelled(account.UUID, time.Now()); err != nil {
			return false, fmt.Errorf("mark expiration cancelled: %w", err)
		}
		marked = true
	}

	removed, err := m.queue.CancelFreeTrialExpiration(ctx, account.UUID)
	if err != nil {
		return false, err
	}
	return removed || marked, nil
}
