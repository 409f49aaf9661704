package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var errUnknown = errors.New("unknown error")

func TestShortCodeGenerator_GenerateRandom(t *testing.T) {
	codeFormat := regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

	t.Run("uniqueness check error", func(t *testing.T) {
		repo := new(MockLinkRepository)
		repo.On("IsCodeUnique", mock.Anything, mock.Anything).
			Once().
			Return(false, errUnknown)

		gen := NewShortCodeGenerator(repo, DefaultCodeLength)
		code, err := gen.GenerateRandom(context.Background())

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Empty(t, code)
		repo.AssertExpectations(t)
	})

	t.Run("exhausts retries on persistent collisions", func(t *testing.T) {
		repo := new(MockLinkRepository)
		repo.On("IsCodeUnique", mock.Anything, mock.Anything).
			Times(10).
			Return(false, nil)

		gen := NewShortCodeGenerator(repo, DefaultCodeLength)
		code, err := gen.GenerateRandom(context.Background())

		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrCodeGenerationExhausted)
		assert.Empty(t, code)
		repo.AssertExpectations(t)
	})

	t.Run("success", func(t *testing.T) {
		repo := new(MockLinkRepository)
		repo.On("IsCodeUnique", mock.Anything, mock.Anything).
			Once().
			Return(true, nil)

		gen := NewShortCodeGenerator(repo, DefaultCodeLength)
		code, err := gen.GenerateRandom(context.Background())

		assert.NoError(t, err)
		assert.Regexp(t, codeFormat, code)
		repo.AssertExpectations(t)
	})

	t.Run("retries until a unique code appears", func(t *testing.T) {
		repo := new(MockLinkRepository)
		repo.On("IsCodeUnique", mock.Anything, mock.Anything).
			Twice().
			Return(false, nil)
		repo.On("IsCodeUnique", mock.Anything, mock.Anything).
			Once().
			Return(true, nil)

		gen := NewShortCodeGenerator(repo, DefaultCodeLength)
		code, err := gen.GenerateRandom(context.Background())

		assert.NoError(t, err)
		assert.Regexp(t, codeFormat, code)
		repo.AssertExpectations(t)
	})
}

func TestShortCodeGenerator_ValidateCustom(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		unique  bool
		want    string
		wantErr error
	}{
		{
			name:    "too short",
			code:    "ab",
			wantErr: ErrCodeTooShort,
		},
		{
			name:    "too long",
			code:    "a123456789b123456789c123456789d123456789e123456789f",
			wantErr: ErrCodeTooLong,
		},
		{
			name:    "invalid characters",
			code:    "my code!",
			wantErr: ErrCodeInvalidFormat,
		},
		{
			name:    "reserved word",
			code:    "admin",
			wantErr: ErrCodeReserved,
		},
		{
			name:    "reserved word is case-insensitive",
			code:    "Dashboard",
			wantErr: ErrCodeReserved,
		},
		{
			name:    "already in use",
			code:    "promo1",
			unique:  false,
			wantErr: ErrCodeTaken,
		},
		{
			name:   "success",
			code:   "promo_2025",
			unique: true,
			want:   "promo_2025",
		},
		{
			name:   "success with hyphen",
			code:   "summer-sale",
			unique: true,
			want:   "summer-sale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockLinkRepository)
			repo.On("IsCodeUnique", mock.Anything, tt.code).
				Maybe().
				Return(tt.unique, nil)

			gen := NewShortCodeGenerator(repo, DefaultCodeLength)
			got, err := gen.ValidateCustom(context.Background(), tt.code)

			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("uniqueness check error", func(t *testing.T) {
		repo := new(MockLinkRepository)
		repo.On("IsCodeUnique", mock.Anything, "promo1").
			Once().
			Return(false, errUnknown)

		gen := NewShortCodeGenerator(repo, DefaultCodeLength)
		got, err := gen.ValidateCustom(context.Background(), "promo1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Empty(t, got)
		repo.AssertExpectations(t)
	})
}
