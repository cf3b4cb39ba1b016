package challenge

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/app/repository"
	"github.com/propmodel/challenge-admin/internal/pkg/activitylog"
	"github.com/propmodel/challenge-admin/internal/pkg/mail"
	"github.com/propmodel/challenge-admin/internal/pkg/tradingengine"
)

// memStore is an in-memory implementation of every repository the
// workflows use. Transactions are serialized and roll back on error.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users         []models.User
	groups        []models.PlatformGroup
	phase         []models.PhaseWiseSetting
	advanced      []models.AdvancedChallengeSettings
	defaults      *models.DefaultChallengeSettings
	purchases     []models.Purchase
	accounts      []models.PlatformAccount
	tags          []models.Tag
	subtags       []models.Subtag
	attachments   []models.PlatformAccountSubtag
	discounts     []models.DiscountCode
	codes         []models.FreeTrialCode
	trialSettings *models.FreeTrialSettings
	logs          []models.ActivityLog

	// fail maps an operation name to the error it returns.
	fail   map[string]error
	locked []string
}

func newMemStore() *memStore {
	return &memStore{fail: map[string]error{}}
}

func (s *memStore) failure(op string) error {
	return s.fail[op]
}

type memSnapshot struct {
	purchases   []models.Purchase
	accounts    []models.PlatformAccount
	advanced    []models.AdvancedChallengeSettings
	tags        []models.Tag
	attachments []models.PlatformAccountSubtag
	codes       []models.FreeTrialCode
	logs        []models.ActivityLog
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		purchases:   append([]models.Purchase(nil), s.purchases...),
		accounts:    append([]models.PlatformAccount(nil), s.accounts...),
		advanced:    append([]models.AdvancedChallengeSettings(nil), s.advanced...),
		tags:        append([]models.Tag(nil), s.tags...),
		attachments: append([]models.PlatformAccountSubtag(nil), s.attachments...),
		codes:       append([]models.FreeTrialCode(nil), s.codes...),
		logs:        append([]models.ActivityLog(nil), s.logs...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = snap.purchases
	s.accounts = snap.accounts
	s.advanced = snap.advanced
	s.tags = snap.tags
	s.attachments = snap.attachments
	s.codes = snap.codes
	s.logs = snap.logs
}

func (s *memStore) repos() *repository.Repositories {
	return &repository.Repositories{
		User:            memUsers{s},
		PlatformGroup:   memGroups{s},
		Settings:        memSettings{s},
		Purchase:        memPurchases{s},
		PlatformAccount: memAccounts{s},
		Tag:             memTags{s},
		DiscountCode:    memDiscounts{s},
		FreeTrial:       memFreeTrials{s},
		ActivityLog:     memLogs{s},
	}
}

type memTx struct{ s *memStore }

func (t memTx) WithinTransaction(_ context.Context, fn func(repos *repository.Repositories) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	snap := t.s.snapshot()
	if err := fn(t.s.repos()); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

type memUsers struct{ s *memStore }

func (r memUsers) GetByUUID(uuid string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.UUID == uuid {
			cp := u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memUsers) GetByEmail(email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memUsers) GetByEmails(emails []string) ([]models.User, error) {
	if err := r.s.failure("users.list"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.User
	for _, u := range r.s.users {
		for _, e := range emails {
			if strings.EqualFold(u.Email, e) {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

func (r memUsers) LockByUUID(uuid string) (*models.User, error) {
	r.s.mu.Lock()
	r.s.locked = append(r.s.locked, uuid)
	r.s.mu.Unlock()
	return r.GetByUUID(uuid)
}

type memGroups struct{ s *memStore }

func (r memGroups) GetByUUID(uuid string) (*models.PlatformGroup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if g.UUID == uuid {
			cp := g
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memGroups) FindChallengeGroup(q repository.ChallengeGroupQuery) (*models.PlatformGroup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if g.GroupType == models.GroupTypeChallenge &&
			g.InitialBalance.Equal(q.InitialBalance) &&
			g.AccountStage == q.AccountStage &&
			g.AccountType == q.AccountType &&
			g.PlatformName == q.PlatformName {
			cp := g
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type memSettings struct{ s *memStore }

func (r memSettings) GetPhaseSettings(groupUUID, phaseKey string) ([]models.PhaseWiseSetting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.PhaseWiseSetting
	for _, p := range r.s.phase {
		if p.PlatformGroupUUID == groupUUID && p.PhaseKey == phaseKey {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memSettings) GetAdvancedForGroup(groupUUID string) (*models.AdvancedChallengeSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.advanced {
		if a.PlatformGroupUUID != nil && *a.PlatformGroupUUID == groupUUID {
			cp := a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memSettings) GetDefaults() (*models.DefaultChallengeSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.defaults == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r.s.defaults
	return &cp, nil
}

func (r memSettings) CreateAdvanced(settings *models.AdvancedChallengeSettings) error {
	if err := r.s.failure("advanced.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	models.AssignUUID(&settings.UUID)
	r.s.advanced = append(r.s.advanced, *settings)
	return nil
}

type memPurchases struct{ s *memStore }

func (r memPurchases) Create(purchase *models.Purchase) error {
	if err := r.s.failure("purchase.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	models.AssignUUID(&purchase.UUID)
	r.s.purchases = append(r.s.purchases, *purchase)
	return nil
}

type memAccounts struct{ s *memStore }

func (r memAccounts) Create(account *models.PlatformAccount) error {
	if err := r.s.failure("account.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	models.AssignUUID(&account.UUID)
	r.s.accounts = append(r.s.accounts, *account)
	return nil
}

func (r memAccounts) GetByUUID(uuid string) (*models.PlatformAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.UUID == uuid {
			cp := a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memAccounts) CountByAwardType(awardType string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.accounts {
		if a.AwardType == awardType {
			n++
		}
	}
	return n, nil
}

func (r memAccounts) CountByUserAndAwardType(userUUID, awardType string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.accounts {
		if a.UserUUID == userUUID && a.AwardType == awardType {
			n++
		}
	}
	return n, nil
}

func (r memAccounts) ListActiveByAwardType(awardType string) ([]models.PlatformAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.PlatformAccount
	for _, a := range r.s.accounts {
		if a.AwardType == awardType && a.IsActive() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAccounts) UpdateStatus(uuid string, status int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.accounts {
		if r.s.accounts[i].UUID == uuid {
			r.s.accounts[i].Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r memAccounts) MarkExpirationCancelled(uuid string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.accounts {
		if r.s.accounts[i].UUID == uuid {
			r.s.accounts[i].ExpirationCancelledAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memTags struct{ s *memStore }

func (r memTags) Create(tag *models.Tag) error {
	if err := r.s.failure("tag.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	models.AssignUUID(&tag.UUID)
	r.s.tags = append(r.s.tags, *tag)
	return nil
}

func (r memTags) FindSubtags(uuids []string) ([]models.Subtag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Subtag
	for _, st := range r.s.subtags {
		for _, id := range uuids {
			if st.UUID == id {
				out = append(out, st)
				break
			}
		}
	}
	return out, nil
}

func (r memTags) AttachSubtags(accountUUID string, subtagUUIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range subtagUUIDs {
		a := models.PlatformAccountSubtag{PlatformAccountUUID: accountUUID, SubtagUUID: id}
		models.AssignUUID(&a.UUID)
		r.s.attachments = append(r.s.attachments, a)
	}
	return nil
}

type memDiscounts struct{ s *memStore }

func (r memDiscounts) GetByName(name string) (*models.DiscountCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.discounts {
		if d.Name == name && d.Status {
			cp := d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type memFreeTrials struct{ s *memStore }

func (r memFreeTrials) GetCode(code string) (*models.FreeTrialCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.codes {
		if c.Code == code {
			cp := c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memFreeTrials) ConsumeCode(codeUUID, userUUID, accountUUID string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.codes {
		c := &r.s.codes[i]
		if c.UUID != codeUUID || c.Status != models.FreeTrialCodeActive {
			continue
		}
		c.Status = models.FreeTrialCodeConsumed
		c.UsedByUserUUID = &userUUID
		c.PlatformAccountUUID = &accountUUID
		c.UsedAt = &at
		return true, nil
	}
	return false, nil
}

func (r memFreeTrials) GetSettings() (*models.FreeTrialSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.trialSettings == nil || !r.s.trialSettings.Status {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r.s.trialSettings
	return &cp, nil
}

// consumeCodeDirectly flips a code outside any transaction, as a concurrent
// request would.
func (s *memStore) consumeCodeDirectly(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.codes {
		if s.codes[i].Code == code {
			s.codes[i].Status = models.FreeTrialCodeConsumed
		}
	}
}

type memLogs struct{ s *memStore }

func (r memLogs) Create(entry *models.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.logs = append(r.s.logs, *entry)
	return nil
}

// fakeEngine creates accounts with sequential logins. Emails in decline are
// refused.
type fakeEngine struct {
	mu       sync.Mutex
	decline  map[string]bool
	requests []tradingengine.CreateAccountRequest
	next     int
	delay    time.Duration
	onCreate func()

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (e *fakeEngine) CreateAccount(_ context.Context, req tradingengine.CreateAccountRequest) tradingengine.CreateAccountResult {
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		cur := e.maxInFlight.Load()
		if n <= cur || e.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.onCreate != nil {
		e.onCreate()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, req)
	if e.decline[req.Email] {
		return tradingengine.CreateAccountResult{Error: "group is full", StatusCode: 400}
	}
	e.next++
	return tradingengine.CreateAccountResult{
		Success: true,
		Credentials: &tradingengine.AccountCredentials{
			Login:            strconv.Itoa(700000 + e.next),
			MainPassword:     "Main#pass",
			InvestorPassword: "Inv#pass",
		},
		StatusCode: 200,
	}
}

func (e *fakeEngine) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []mail.ChallengeCredentials
}

func (m *fakeMailer) SendChallengeCredentials(_ context.Context, _ string, data mail.ChallengeCredentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, data)
	return m.err
}

type fakeActivity struct {
	mu      sync.Mutex
	err     error
	entries []activitylog.Entry
}

func (a *fakeActivity) Store(_ context.Context, entry activitylog.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	err       error
	scheduled map[string]time.Duration
}

func (f *fakeScheduler) ScheduleFreeTrialExpiration(_ context.Context, accountUUID string, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.scheduled == nil {
		f.scheduled = map[string]time.Duration{}
	}
	f.scheduled[accountUUID] = delay
	return nil
}

type fixture struct {
	store     *memStore
	engine    *fakeEngine
	mailer    *fakeMailer
	activity  *fakeActivity
	scheduler *fakeScheduler
	service   *Service
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		store:     newMemStore(),
		engine:    &fakeEngine{decline: map[string]bool{}},
		mailer:    &fakeMailer{},
		activity:  &fakeActivity{},
		scheduler: &fakeScheduler{},
	}
	f.service = NewService(cfg, Deps{
		Repos:      f.store.repos(),
		Transactor: memTx{f.store},
		Engine:     f.engine,
		Mailer:     f.mailer,
		Activity:   f.activity,
		Scheduler:  f.scheduler,
	})
	return f
}

func strPtr(s string) *string { return &s }

func seedChallengeGroup(s *memStore) models.PlatformGroup {
	g := models.PlatformGroup{
		UUID:            "group-10k",
		Name:            "demo\\challenge-10k",
		PlatformName:    "mt5",
		GroupType:       models.GroupTypeChallenge,
		InitialBalance:  decimal.NewFromInt(10000),
		AccountStage:    models.AccountStageDouble,
		AccountType:     models.AccountTypeStandard,
		AccountLeverage: ptr(50),
		Prices:          decimal.NewFromInt(100),
		Status:          true,
	}
	s.groups = append(s.groups, g)
	s.phase = append(s.phase, models.PhaseWiseSetting{
		UUID:              "phase-pt",
		PlatformGroupUUID: g.UUID,
		SettingName:       SettingProfitTarget,
		PhaseKey:          models.PhaseOne,
		PhaseValue:        strPtr("1000"),
	})
	return g
}

func seedUsers(s *memStore, emails ...string) {
	for i, e := range emails {
		s.users = append(s.users, models.User{
			UUID:      "user-" + e,
			FirstName: "User",
			LastName:  strconv.Itoa(i),
			Email:     e,
			Role:      models.ROLE_USER,
			Status:    models.STATUS_ACTIVE,
		})
	}
}

func awardRequest(emails ...string) AwardRequest {
	return AwardRequest{
		PlatformName:   "mt5",
		InitialBalance: decimal.NewFromInt(10000),
		AccountStage:   models.AccountStageDouble,
		AccountType:    models.AccountTypeStandard,
		AwardType:      "manual",
		UserEmails:     emails,
	}
}
