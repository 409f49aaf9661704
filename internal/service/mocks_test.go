package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/formlink/formlink/internal/database"
	"github.com/formlink/formlink/internal/models"
)

type MockLinkRepository struct {
	mock.Mock
}

func (r *MockLinkRepository) Create(ctx context.Context, link *models.ShortLink) (*models.ShortLink, error) {
	args := r.Called(ctx, link)
	created, _ := args.Get(0).(*models.ShortLink)
	return created, args.Error(1)
}

func (r *MockLinkRepository) FindByCode(ctx context.Context, shortCode string) (*models.ShortLink, error) {
	args := r.Called(ctx, shortCode)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Error(1)
}

func (r *MockLinkRepository) FindByID(ctx context.Context, id int64) (*models.ShortLink, error) {
	args := r.Called(ctx, id)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Error(1)
}

func (r *MockLinkRepository) IsCodeUnique(ctx context.Context, shortCode string) (bool, error) {
	args := r.Called(ctx, shortCode)
	return args.Bool(0), args.Error(1)
}

func (r *MockLinkRepository) HasActiveLinkWithCode(ctx context.Context, shortCode string, excludingID int64) (bool, error) {
	args := r.Called(ctx, shortCode, excludingID)
	return args.Bool(0), args.Error(1)
}

func (r *MockLinkRepository) Update(ctx context.Context, id int64, upd database.LinkUpdate) (*models.ShortLink, error) {
	args := r.Called(ctx, id, upd)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Error(1)
}

func (r *MockLinkRepository) Delete(ctx context.Context, id int64) error {
	args := r.Called(ctx, id)
	return args.Error(0)
}

func (r *MockLinkRepository) SearchByUser(ctx context.Context, userID int64, filter database.LinkFilter) ([]models.ShortLink, error) {
	args := r.Called(ctx, userID, filter)
	links, _ := args.Get(0).([]models.ShortLink)
	return links, args.Error(1)
}

func (r *MockLinkRepository) CountByUser(ctx context.Context, userID int64, filter database.LinkFilter) (int64, error) {
	args := r.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockClickRepository struct {
	mock.Mock
}

func (r *MockClickRepository) Create(ctx context.Context, click *models.Click) (*models.Click, error) {
	args := r.Called(ctx, click)
	created, _ := args.Get(0).(*models.Click)
	return created, args.Error(1)
}

func (r *MockClickRepository) CountByLink(ctx context.Context, shortLinkID int64) (int64, error) {
	args := r.Called(ctx, shortLinkID)
	return args.Get(0).(int64), args.Error(1)
}

func (r *MockClickRepository) CountByLinkPerDevice(ctx context.Context, shortLinkID int64) (models.DeviceStats, error) {
	args := r.Called(ctx, shortLinkID)
	stats, _ := args.Get(0).(models.DeviceStats)
	return stats, args.Error(1)
}

type MockQuotaRepository struct {
	mock.Mock
}

func (r *MockQuotaRepository) GetUsage(ctx context.Context, userID int64, day, yearMonth string) (int64, int64, error) {
	args := r.Called(ctx, userID, day, yearMonth)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (r *MockQuotaRepository) IncrementUsage(ctx context.Context, userID int64, day, yearMonth string) error {
	args := r.Called(ctx, userID, day, yearMonth)
	return args.Error(0)
}

type MockQuotaKeeper struct {
	mock.Mock
}

func (k *MockQuotaKeeper) CanCreateLink(ctx context.Context, userID int64, plan models.Plan) (QuotaCheck, error) {
	args := k.Called(ctx, userID, plan)
	check, _ := args.Get(0).(QuotaCheck)
	return check, args.Error(1)
}

func (k *MockQuotaKeeper) RecordCreation(ctx context.Context, userID int64) error {
	args := k.Called(ctx, userID)
	return args.Error(0)
}

type MockCodeGenerator struct {
	mock.Mock
}

func (g *MockCodeGenerator) GenerateRandom(ctx context.Context) (string, error) {
	args := g.Called(ctx)
	return args.String(0), args.Error(1)
}

func (g *MockCodeGenerator) ValidateCustom(ctx context.Context, code string) (string, error) {
	args := g.Called(ctx, code)
	return args.String(0), args.Error(1)
}

type MockClickSink struct {
	mock.Mock
}

func (s *MockClickSink) Record(ctx context.Context, shortLinkID int64, reqCtx models.RequestContext) {
	s.Called(ctx, shortLinkID, reqCtx)
}
