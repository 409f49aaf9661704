package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/formlink/formlink/internal/database"
	"github.com/formlink/formlink/internal/models"
	"github.com/formlink/formlink/internal/service"
	"github.com/formlink/formlink/pkg/response"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

type createLinkRequest struct {
	URL        string     `json:"url" validate:"required,url"`
	CustomCode string     `json:"custom_code,omitempty" validate:"omitempty,min=3,max=50"`
	Label      string     `json:"label,omitempty" validate:"omitempty,max=100"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type updateLinkRequest struct {
	Label           *string `json:"label,omitempty" validate:"omitempty,max=100"`
	IsActive        *bool   `json:"is_active,omitempty"`
	ClearExpiration bool    `json:"clear_expiration,omitempty"`
}

type linkResponse struct {
	ID        int64      `json:"id"`
	ShortCode string     `json:"short_code"`
	URL       string     `json:"url"`
	Label     string     `json:"label,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

func toLinkResponse(link *models.ShortLink) linkResponse {
	return linkResponse{
		ID:        link.ID,
		ShortCode: link.ShortCode,
		URL:       link.OriginalURL,
		Label:     link.Label,
		ExpiresAt: link.ExpiresAt,
		IsActive:  link.IsActive,
		CreatedAt: link.CreatedAt,
	}
}

type quotaUsage struct {
	DailyUsed    int64  `json:"daily_used"`
	DailyLimit   *int64 `json:"daily_limit"`
	MonthlyUsed  int64  `json:"monthly_used"`
	MonthlyLimit *int64 `json:"monthly_limit"`
}

// renderServiceError maps service-layer failures onto status codes and
// envelopes. Storage errors stay generic: their text never reaches the client.
func renderServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var quotaErr *service.QuotaExceededError

	switch {
	case errors.Is(err, service.ErrURLInvalid),
		errors.Is(err, service.ErrURLNotHTTPS),
		errors.Is(err, service.ErrURLDomainNotAllowed),
		errors.Is(err, service.ErrURLNotFormsPath):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorResponse("Invalid URL",
			"Only https Google Forms links (docs.google.com/forms or forms.gle) can be shortened."))

	case errors.Is(err, service.ErrCodeTooShort),
		errors.Is(err, service.ErrCodeTooLong),
		errors.Is(err, service.ErrCodeInvalidFormat),
		errors.Is(err, service.ErrCodeReserved):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorResponse("Invalid Custom Code",
			"Custom codes must be 3-50 characters of letters, digits, '-' or '_', and must not be a reserved word."))

	case errors.Is(err, service.ErrCustomCodeNotAllowed),
		errors.Is(err, service.ErrExpirationNotAllowed):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorResponse("Plan Restriction",
			"Custom codes and expiration dates require a premium plan."))

	case errors.As(err, &quotaErr):
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, response.ErrorResponse("Quota Exceeded", quotaErr.Check.Reason, quotaUsage{
			DailyUsed:    quotaErr.Check.DailyUsed,
			DailyLimit:   quotaErr.Check.DailyLimit,
			MonthlyUsed:  quotaErr.Check.MonthlyUsed,
			MonthlyLimit: quotaErr.Check.MonthlyLimit,
		}))

	case errors.Is(err, service.ErrCodeTaken):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.ErrorResponse("Code Already In Use",
			"This short code is already taken. Please choose another one."))

	case errors.Is(err, service.ErrActivationConflict):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.ErrorResponse("Activation Conflict",
			"Another active link already uses this short code."))

	case errors.Is(err, database.ErrLinkNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)

	default:
		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
	}
}

func currentUser(w http.ResponseWriter, r *http.Request, session Session) (models.User, bool) {
	user, err := session.CurrentUser(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.UnauthorizedResponse)
		return models.User{}, false
	}

	return user, true
}

func handleCreateLink(svc LinkService, session Session, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleCreateLink"
	const successMsg = "The link has been created successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r, session)
		if !ok {
			return
		}

		var req createLinkRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		link, err := svc.CreateLink(r.Context(), user, service.CreateLinkParams{
			URL:        req.URL,
			CustomCode: req.CustomCode,
			Label:      req.Label,
			ExpiresAt:  req.ExpiresAt,
		})
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

func handleSearchLinks(svc LinkService, session Session) http.HandlerFunc {
	const op = "api.http.handleSearchLinks"
	const successMsg = "Links retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r, session)
		if !ok {
			return
		}

		filter, err := filterFromQuery(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		links, total, err := svc.SearchLinks(r.Context(), user, filter)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		items := make([]linkResponse, 0, len(links))
		for i := range links {
			items = append(items, toLinkResponse(&links[i]))
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, map[string]any{
			"links": items,
			"total": total,
		}))
	}
}

func filterFromQuery(r *http.Request) (database.LinkFilter, error) {
	q := r.URL.Query()

	filter := database.LinkFilter{
		Query:  q.Get("q"),
		Status: q.Get("status"),
		Limit:  20,
	}

	switch filter.Status {
	case "", database.StatusActive, database.StatusInactive, database.StatusExpired:
	default:
		return database.LinkFilter{}, fmt.Errorf("unknown status %q", filter.Status)
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			return database.LinkFilter{}, fmt.Errorf("invalid limit %q", raw)
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return database.LinkFilter{}, fmt.Errorf("invalid offset %q", raw)
		}
		filter.Offset = offset
	}

	if raw := q.Get("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return database.LinkFilter{}, fmt.Errorf("invalid from date %q", raw)
		}
		filter.DateFrom = &ts
	}
	if raw := q.Get("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return database.LinkFilter{}, fmt.Errorf("invalid to date %q", raw)
		}
		filter.DateTo = &ts
	}

	return filter, nil
}

func linkIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "linkID"), 10, 64)
}

func handleUpdateLink(svc LinkService, session Session, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleUpdateLink"
	const successMsg = "The link was updated successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r, session)
		if !ok {
			return
		}

		id, err := linkIDParam(r)
		if err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
			return
		}

		var req updateLinkRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		link, err := svc.UpdateLink(r.Context(), user, id, database.LinkUpdate{
			Label:          req.Label,
			IsActive:       req.IsActive,
			ClearExpiresAt: req.ClearExpiration,
		})
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

func handleDeleteLink(svc LinkService, session Session) http.HandlerFunc {
	const op = "api.http.handleDeleteLink"
	const successMsg = "The link was deleted successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r, session)
		if !ok {
			return
		}

		id, err := linkIDParam(r)
		if err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
			return
		}

		if err := svc.DeleteLink(r.Context(), user, id); err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}

func handleGetLinkStats(svc LinkService, session Session) http.HandlerFunc {
	const op = "api.http.handleGetLinkStats"
	const successMsg = "Link statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r, session)
		if !ok {
			return
		}

		id, err := linkIDParam(r)
		if err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
			return
		}

		stats, err := svc.GetLinkStats(r.Context(), user, id)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, map[string]any{
			"total_clicks": stats.TotalClicks,
			"devices": map[string]int64{
				"desktop": stats.Devices.Desktop,
				"mobile":  stats.Devices.Mobile,
				"tablet":  stats.Devices.Tablet,
			},
		}))
	}
}

func handleRedirect(resolver Resolver) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		reqCtx := models.RequestContext{
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
			Referrer:  r.Referer(),
		}

		result, err := resolver.Resolve(r.Context(), shortCode, reqCtx)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		switch result.State {
		case models.StateActive:
			http.Redirect(w, r, result.TargetURL, http.StatusFound)
		case models.StateDeactivated:
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ErrorResponse("Link Deactivated",
				"This link has been deactivated by its owner."))
		case models.StateExpired:
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ErrorResponse("Link Expired",
				"This link has expired."))
		default:
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
		}
	}
}
