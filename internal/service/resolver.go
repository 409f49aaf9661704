package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/formlink/formlink/internal/database"
	"github.com/formlink/formlink/internal/models"
)

// EvaluateState resolves the per-request state of a link. The function is
// total: any combination of stored flag and expiration yields exactly one of
// the four states, in this order of precedence.
func EvaluateState(link *models.ShortLink, now time.Time) models.LinkState {
	switch {
	case link == nil:
		return models.StateNotFound
	case !link.IsActive:
		return models.StateDeactivated
	case link.IsExpired(now):
		return models.StateExpired
	default:
		return models.StateActive
	}
}

// RedirectResult is the outcome of resolving a short code. TargetURL is set
// only when State is StateActive; the HTTP layer maps the other states to 404.
type RedirectResult struct {
	State     models.LinkState
	TargetURL string
}

type linkFinder interface {
	FindByCode(ctx context.Context, shortCode string) (*models.ShortLink, error)
}

type clickSink interface {
	Record(ctx context.Context, shortLinkID int64, reqCtx models.RequestContext)
}

// Resolver drives the redirect path: look up the code, evaluate the state
// machine, and record a click if and only if the link is active.
type Resolver struct {
	repo   linkFinder
	clicks clickSink
	logger *slog.Logger
	now    func() time.Time
}

func NewResolver(repo linkFinder, clicks clickSink, logger *slog.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		clicks: clicks,
		logger: logger,
		now:    time.Now,
	}
}

// Resolve evaluates a short code for redirect. An unknown code is a normal
// outcome, not an error; errors are reserved for storage failures.
func (r *Resolver) Resolve(ctx context.Context, shortCode string, reqCtx models.RequestContext) (RedirectResult, error) {
	const op = "service.Resolver.Resolve"

	link, err := r.repo.FindByCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, database.ErrLinkNotFound) {
			return RedirectResult{State: models.StateNotFound}, nil
		}

		return RedirectResult{}, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	state := EvaluateState(link, r.now())
	if state != models.StateActive {
		return RedirectResult{State: state}, nil
	}

	// Recording is synchronous but bounded and never fails the redirect.
	r.clicks.Record(ctx, link.ID, reqCtx)

	return RedirectResult{State: models.StateActive, TargetURL: link.OriginalURL}, nil
}
