package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/formlink/formlink/internal/models"
)

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

type quotaRepository interface {
	GetUsage(ctx context.Context, userID int64, day, yearMonth string) (int64, int64, error)
	IncrementUsage(ctx context.Context, userID int64, day, yearMonth string) error
}

// QuotaCheck is the outcome of a quota eligibility check. Nil limits mean
// unlimited. Reason is only set when the check denies creation.
type QuotaCheck struct {
	Allowed      bool
	DailyUsed    int64
	DailyLimit   *int64
	MonthlyUsed  int64
	MonthlyLimit *int64
	Reason       string
}

// QuotaLedger tracks per-user link creation counts against plan-tiered limits.
// Eligibility checks read counters without mutating them; recording is a
// separate atomic increment that runs only after a link row is committed.
type QuotaLedger struct {
	repo quotaRepository
	now  func() time.Time
}

func NewQuotaLedger(repo quotaRepository) *QuotaLedger {
	return &QuotaLedger{
		repo: repo,
		now:  time.Now,
	}
}

// CanCreateLink reports whether the user may create another link under the
// plan's daily and monthly limits. When denied, Reason lists every failed
// limit and ends with an upgrade suggestion.
func (l *QuotaLedger) CanCreateLink(ctx context.Context, userID int64, plan models.Plan) (QuotaCheck, error) {
	const op = "service.QuotaLedger.CanCreateLink"

	now := l.now()
	daily, monthly, err := l.repo.GetUsage(ctx, userID, now.Format(dayKeyLayout), now.Format(monthKeyLayout))
	if err != nil {
		return QuotaCheck{}, fmt.Errorf("%s: failed to read quota usage: %w", op, err)
	}

	limits := plan.Limits()
	check := QuotaCheck{
		Allowed:      true,
		DailyUsed:    daily,
		DailyLimit:   limits.DailyLinks,
		MonthlyUsed:  monthly,
		MonthlyLimit: limits.MonthlyLinks,
	}

	var clauses []string
	if limits.DailyLinks != nil && daily >= *limits.DailyLinks {
		clauses = append(clauses, fmt.Sprintf("daily limit of %d links reached", *limits.DailyLinks))
	}
	if limits.MonthlyLinks != nil && monthly >= *limits.MonthlyLinks {
		clauses = append(clauses, fmt.Sprintf("monthly limit of %d links reached", *limits.MonthlyLinks))
	}

	if len(clauses) > 0 {
		check.Allowed = false
		check.Reason = strings.Join(clauses, " and ") + "; upgrade your plan to create more links"
	}

	return check, nil
}

// RecordCreation increments today's daily counter and this month's monthly
// counter. It must be called exactly once per successful link creation, after
// the link row is committed. Callers treat a failure here as fire-and-forget:
// the link already exists, so the error is logged, never rolled back.
func (l *QuotaLedger) RecordCreation(ctx context.Context, userID int64) error {
	const op = "service.QuotaLedger.RecordCreation"

	now := l.now()
	if err := l.repo.IncrementUsage(ctx, userID, now.Format(dayKeyLayout), now.Format(monthKeyLayout)); err != nil {
		return fmt.Errorf("%s: failed to increment quota counters: %w", op, err)
	}

	return nil
}
