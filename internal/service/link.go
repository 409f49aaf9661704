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

// createMaxRetries caps how many times a creation retries on a storage-level
// short code collision. Collisions here are races between the generator's
// pre-check and the insert, so a couple of retries is plenty.
const createMaxRetries = 3

type linkRepository interface {
	Create(ctx context.Context, link *models.ShortLink) (*models.ShortLink, error)
	FindByID(ctx context.Context, id int64) (*models.ShortLink, error)
	HasActiveLinkWithCode(ctx context.Context, shortCode string, excludingID int64) (bool, error)
	Update(ctx context.Context, id int64, upd database.LinkUpdate) (*models.ShortLink, error)
	Delete(ctx context.Context, id int64) error
	SearchByUser(ctx context.Context, userID int64, filter database.LinkFilter) ([]models.ShortLink, error)
	CountByUser(ctx context.Context, userID int64, filter database.LinkFilter) (int64, error)
}

type clickStatsRepository interface {
	CountByLink(ctx context.Context, shortLinkID int64) (int64, error)
	CountByLinkPerDevice(ctx context.Context, shortLinkID int64) (models.DeviceStats, error)
}

type codeGenerator interface {
	GenerateRandom(ctx context.Context) (string, error)
	ValidateCustom(ctx context.Context, code string) (string, error)
}

type quotaKeeper interface {
	CanCreateLink(ctx context.Context, userID int64, plan models.Plan) (QuotaCheck, error)
	RecordCreation(ctx context.Context, userID int64) error
}

// CreateLinkParams are the user-supplied fields for a new link.
type CreateLinkParams struct {
	URL        string
	CustomCode string
	Label      string
	ExpiresAt  *time.Time
}

// LinkService owns the link lifecycle outside the redirect path: quota-checked
// creation, owner mutations, search and the stats read path.
type LinkService struct {
	repo   linkRepository
	clicks clickStatsRepository
	codes  codeGenerator
	quotas quotaKeeper
	urls   *URLValidator
	logger *slog.Logger
}

func NewLinkService(
	repo linkRepository,
	clicks clickStatsRepository,
	codes codeGenerator,
	quotas quotaKeeper,
	urls *URLValidator,
	logger *slog.Logger,
) *LinkService {
	return &LinkService{
		repo:   repo,
		clicks: clicks,
		codes:  codes,
		quotas: quotas,
		urls:   urls,
		logger: logger,
	}
}

// CreateLink runs the creation pipeline in its fixed order: validate the URL,
// check quota, settle the short code, insert the row, then record quota usage.
// Quota recording happens strictly after the insert commits and is never
// skipped on insert failure.
func (s *LinkService) CreateLink(ctx context.Context, user models.User, params CreateLinkParams) (*models.ShortLink, error) {
	const op = "service.LinkService.CreateLink"

	normalizedURL, err := s.urls.Validate(params.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limits := user.Plan.Limits()
	if params.CustomCode != "" && !limits.AllowsCustomCode {
		return nil, fmt.Errorf("%s: %w", op, ErrCustomCodeNotAllowed)
	}
	if params.ExpiresAt != nil && !limits.AllowsExpiration {
		return nil, fmt.Errorf("%s: %w", op, ErrExpirationNotAllowed)
	}

	check, err := s.quotas.CanCreateLink(ctx, user.ID, user.Plan)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to check quota: %w", op, err)
	}
	if !check.Allowed {
		return nil, fmt.Errorf("%s: %w", op, &QuotaExceededError{Check: check})
	}

	var link *models.ShortLink
	if params.CustomCode != "" {
		link, err = s.createWithCustomCode(ctx, user, normalizedURL, params)
	} else {
		link, err = s.createWithRandomCode(ctx, user, normalizedURL, params)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Fire-and-forget: the link row is committed, so a counter failure is
	// logged with enough context to reconcile later, never rolled back.
	if err := s.quotas.RecordCreation(ctx, user.ID); err != nil {
		s.logger.Error("link created but quota recording failed",
			slog.String("op", op),
			slog.Int64("user_id", user.ID),
			slog.String("short_code", link.ShortCode),
			slog.Any("err", err))
	}

	return link, nil
}

func (s *LinkService) createWithCustomCode(ctx context.Context, user models.User, normalizedURL string, params CreateLinkParams) (*models.ShortLink, error) {
	code, err := s.codes.ValidateCustom(ctx, params.CustomCode)
	if err != nil {
		return nil, err
	}

	link, err := s.repo.Create(ctx, &models.ShortLink{
		UserID:      user.ID,
		OriginalURL: normalizedURL,
		ShortCode:   code,
		Label:       params.Label,
		ExpiresAt:   params.ExpiresAt,
		IsActive:    true,
	})
	if err != nil {
		// A race between the pre-check and the insert surfaces to the user
		// the same way a failed pre-check would.
		if errors.Is(err, database.ErrShortCodeExists) {
			return nil, ErrCodeTaken
		}

		return nil, err
	}

	return link, nil
}

func (s *LinkService) createWithRandomCode(ctx context.Context, user models.User, normalizedURL string, params CreateLinkParams) (*models.ShortLink, error) {
	for i := 0; i < createMaxRetries; i++ {
		code, err := s.codes.GenerateRandom(ctx)
		if err != nil {
			return nil, err
		}

		link, err := s.repo.Create(ctx, &models.ShortLink{
			UserID:      user.ID,
			OriginalURL: normalizedURL,
			ShortCode:   code,
			Label:       params.Label,
			ExpiresAt:   params.ExpiresAt,
			IsActive:    true,
		})
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				continue
			}

			return nil, err
		}

		return link, nil
	}

	return nil, ErrCodeGenerationExhausted
}

// GetLink returns a link owned by the user. Links owned by others read as
// not found.
func (s *LinkService) GetLink(ctx context.Context, user models.User, id int64) (*models.ShortLink, error) {
	const op = "service.LinkService.GetLink"

	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}
	if link.UserID != user.ID {
		return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
	}

	return link, nil
}

// UpdateLink applies a partial update to an owned link. Reactivating a link is
// guarded: uniqueness is enforced only at creation, so a deactivated link may
// share its code with a newer active one, and flipping it back would otherwise
// leave two active links on the same code.
func (s *LinkService) UpdateLink(ctx context.Context, user models.User, id int64, upd database.LinkUpdate) (*models.ShortLink, error) {
	const op = "service.LinkService.UpdateLink"

	link, err := s.GetLink(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if upd.IsActive != nil && *upd.IsActive && !link.IsActive {
		conflict, err := s.repo.HasActiveLinkWithCode(ctx, link.ShortCode, link.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to check active code: %w", op, err)
		}
		if conflict {
			return nil, fmt.Errorf("%s: %w", op, ErrActivationConflict)
		}
	}

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update link: %w", op, err)
	}

	return updated, nil
}

// DeleteLink removes an owned link. Click history cascades with it.
func (s *LinkService) DeleteLink(ctx context.Context, user models.User, id int64) error {
	const op = "service.LinkService.DeleteLink"

	if _, err := s.GetLink(ctx, user, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	return nil
}

// SearchLinks returns a filtered page of the user's links and the total match
// count for pagination.
func (s *LinkService) SearchLinks(ctx context.Context, user models.User, filter database.LinkFilter) ([]models.ShortLink, int64, error) {
	const op = "service.LinkService.SearchLinks"

	links, err := s.repo.SearchByUser(ctx, user.ID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to search links: %w", op, err)
	}

	total, err := s.repo.CountByUser(ctx, user.ID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count links: %w", op, err)
	}

	return links, total, nil
}

// GetLinkStats returns the click analytics for an owned link.
func (s *LinkService) GetLinkStats(ctx context.Context, user models.User, id int64) (*models.LinkStats, error) {
	const op = "service.LinkService.GetLinkStats"

	if _, err := s.GetLink(ctx, user, id); err != nil {
		return nil, err
	}

	total, err := s.clicks.CountByLink(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count clicks: %w", op, err)
	}

	devices, err := s.clicks.CountByLinkPerDevice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count clicks per device: %w", op, err)
	}

	return &models.LinkStats{
		TotalClicks: total,
		Devices:     devices,
	}, nil
}
