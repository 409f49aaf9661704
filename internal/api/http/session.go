package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/formlink/formlink/internal/models"
)

// Session provides the authenticated user for a request. Authentication is an
// external collaborator; the core trusts the user it returns and only scopes
// data access by it.
type Session interface {
	CurrentUser(r *http.Request) (models.User, error)
}

// ErrNoUser is returned when a request carries no authenticated user.
var ErrNoUser = errors.New("no authenticated user")

// HeaderSession reads the user from headers set by the upstream auth gateway.
// The gateway strips these headers from client traffic, so their presence is
// proof of authentication.
type HeaderSession struct{}

func (HeaderSession) CurrentUser(r *http.Request) (models.User, error) {
	const op = "api.http.HeaderSession.CurrentUser"

	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrNoUser)
	}

	plan := models.Plan(r.Header.Get("X-User-Plan"))
	if plan == "" {
		plan = models.PlanFree
	}

	return models.User{ID: id, Plan: plan}, nil
}
