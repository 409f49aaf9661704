// Package service contains the business logic of the link shortener:
// quota-checked creation, short code generation, the redirect state machine
// and click recording.
package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// codeAlphabet is the character set for random short codes.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	// DefaultCodeLength is the fixed length of randomly generated codes.
	DefaultCodeLength = 6

	minCustomCodeLength = 3
	maxCustomCodeLength = 50

	// maxGenerateAttempts caps collision retries. Exhaustion is a hard
	// failure, never a silent pass-through of an unchecked code.
	maxGenerateAttempts = 10
)

var customCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// invalidCodeChars matches everything outside the custom code character set.
var invalidCodeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// reservedCodes are route segments that must never resolve as short codes.
var reservedCodes = map[string]struct{}{
	"admin":       {},
	"api":         {},
	"login":       {},
	"logout":      {},
	"dashboard":   {},
	"profile":     {},
	"billing":     {},
	"pricing":     {},
	"create-link": {},
	"links":       {},
	"stripe":      {},
}

type codeChecker interface {
	IsCodeUnique(ctx context.Context, shortCode string) (bool, error)
}

// ShortCodeGenerator produces random short codes and validates custom ones.
// Uniqueness pre-checks go through the link repository; the database unique
// constraint remains the authoritative guard.
type ShortCodeGenerator struct {
	checker codeChecker
	length  int
}

func NewShortCodeGenerator(checker codeChecker, length int) *ShortCodeGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}

	return &ShortCodeGenerator{
		checker: checker,
		length:  length,
	}
}

// GenerateRandom draws random codes until one passes the uniqueness pre-check,
// retrying up to maxGenerateAttempts times before giving up with
// ErrCodeGenerationExhausted.
func (g *ShortCodeGenerator) GenerateRandom(ctx context.Context) (string, error) {
	const op = "service.ShortCodeGenerator.GenerateRandom"

	for i := 0; i < maxGenerateAttempts; i++ {
		code, err := gonanoid.Generate(codeAlphabet, g.length)
		if err != nil {
			return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		unique, err := g.checker.IsCodeUnique(ctx, code)
		if err != nil {
			return "", fmt.Errorf("%s: failed to check short code: %w", op, err)
		}
		if unique {
			return code, nil
		}
	}

	return "", fmt.Errorf("%s: %w", op, ErrCodeGenerationExhausted)
}

// ValidateCustom checks a user-supplied code against format, length, reserved
// word and uniqueness rules. On success it returns the code with any invalid
// characters stripped.
func (g *ShortCodeGenerator) ValidateCustom(ctx context.Context, code string) (string, error) {
	const op = "service.ShortCodeGenerator.ValidateCustom"

	if len(code) < minCustomCodeLength {
		return "", fmt.Errorf("%s: %w", op, ErrCodeTooShort)
	}
	if len(code) > maxCustomCodeLength {
		return "", fmt.Errorf("%s: %w", op, ErrCodeTooLong)
	}
	if !customCodePattern.MatchString(code) {
		return "", fmt.Errorf("%s: %w", op, ErrCodeInvalidFormat)
	}
	if _, reserved := reservedCodes[strings.ToLower(code)]; reserved {
		return "", fmt.Errorf("%s: %w", op, ErrCodeReserved)
	}

	unique, err := g.checker.IsCodeUnique(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%s: failed to check short code: %w", op, err)
	}
	if !unique {
		return "", fmt.Errorf("%s: %w", op, ErrCodeTaken)
	}

	return invalidCodeChars.ReplaceAllString(code, ""), nil
}
