package challenge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/app/repository"
	"github.com/propmodel/challenge-admin/internal/pkg/activitylog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// AwardRequest grants a challenge account to every listed user.
type AwardRequest struct {
	PlatformName         string
	InitialBalance       decimal.Decimal
	AccountStage         string
	AccountType          string
	AwardType            string
	UserEmails           []string
	SubtagUUIDs          []string
	DiscountCode         string
	PaymentTransactionID string
}

// AwardResult lists the emails that did not get an account, either because
// no user has that email or because the trading engine declined.
type AwardResult struct {
	FailedUsers []string `json:"failedUsers"`
}

// AwardChallenge provisions one account per resolved user. Input errors
// reject the whole batch before anything is written; per-user declines are
// reported in the result.
func (s *Service) AwardChallenge(ctx context.Context, req AwardRequest, actorUUID string) (*AwardResult, error) {
	emails := normalizeEmails(req.UserEmails)
	if len(emails) == 0 {
		return nil, ErrNoUsers
	}

	var discount *models.DiscountCode
	if name := strings.TrimSpace(req.DiscountCode); name != "" {
		code, err := s.repos.DiscountCode.GetByName(name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDiscountCodeNotFound, name)
		}
		if err != nil {
			return nil, fmt.Errorf("load discount code: %w", err)
		}
		discount = code
	}

	group, err := s.repos.PlatformGroup.FindChallengeGroup(repository.ChallengeGroupQuery{
		InitialBalance: req.InitialBalance,
		AccountStage:   req.AccountStage,
		AccountType:    req.AccountType,
		PlatformName:   req.PlatformName,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlatformGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load platform group: %w", err)
	}

	users, failed, err := s.resolveUsers(emails)
	if err != nil {
		return nil, err
	}

	subtagUUIDs := dedupe(req.SubtagUUIDs)
	if err := s.checkSubtags(subtagUUIDs); err != nil {
		return nil, err
	}

	defaults, err := s.loadDefaults()
	if err != nil {
		return nil, err
	}

	awardType := strings.ToUpper(strings.TrimSpace(req.AwardType))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.cfg.awardConcurrency())
	for i := range users {
		user := &users[i]
		g.Go(func() error {
			out, err := s.provision(ctx, provisionRequest{
				workflow:          workflowAward,
				group:             group,
				user:              user,
				actorUUID:         actorUUID,
				subtagUUIDs:       subtagUUIDs,
				awardType:         awardType,
				discount:          discount,
				paymentTxnID:      req.PaymentTransactionID,
				defaults:          defaults,
				activity:          awardActivity(user, actorUUID),
				strictActivityLog: true,
			})
			if err != nil {
				return fmt.Errorf("provision account for %s: %w", user.Email, err)
			}
			if out.Declined {
				mu.Lock()
				failed = append(failed, user.Email)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Infof("[Challenge] Awarded group %s to %d of %d users (actor %s)", group.Name, len(emails)-len(failed), len(emails), actorUUID)
	return &AwardResult{FailedUsers: failed}, nil
}

// resolveUsers loads the users behind emails. Unknown emails are returned as
// failures.
func (s *Service) resolveUsers(emails []string) ([]models.User, []string, error) {
	found, err := s.repos.User.GetByEmails(emails)
	if err != nil {
		return nil, nil, fmt.Errorf("load users: %w", err)
	}
	byEmail := make(map[string]models.User, len(found))
	for _, u := range found {
		byEmail[strings.ToLower(u.Email)] = u
	}

	users := make([]models.User, 0, len(emails))
	failed := make([]string, 0)
	for _, email := range emails {
		u, ok := byEmail[strings.ToLower(email)]
		if !ok {
			failed = append(failed, email)
			continue
		}
		users = append(users, u)
	}
	return users, failed, nil
}

func (s *Service) checkSubtags(uuids []string) error {
	if len(uuids) == 0 {
		return nil
	}
	found, err := s.repos.Tag.FindSubtags(uuids)
	if err != nil {
		return fmt.Errorf("load subtags: %w", err)
	}
	known := make(map[string]struct{}, len(found))
	for _, st := range found {
		known[st.UUID] = struct{}{}
	}
	var missing []string
	for _, id := range uuids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &MissingSubtagsError{UUIDs: missing}
	}
	return nil
}

func awardActivity(user *models.User, actorUUID string) func(*models.PlatformAccount) activitylog.Entry {
	return func(account *models.PlatformAccount) activitylog.Entry {
		return activitylog.Entry{
			UserUUID:  user.UUID,
			Action:    models.ActionAwardedChallenge,
			Metadata:  fmt.Sprintf("Account has been awarded - %s", account.PlatformLoginID),
			UserType:  models.ActorTypeAdmin,
			EventType: models.EventTypeChallenge,
			CreatedBy: actorUUID,
		}
	}
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		key := strings.ToLower(e)
		if e == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
