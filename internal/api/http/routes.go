// Package http wires the link shortener services to their REST and redirect
// endpoints. It owns request decoding, validation and the mapping of service
// errors to status codes; all business rules live in the service layer.
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"

	"github.com/formlink/formlink/internal/database"
	"github.com/formlink/formlink/internal/models"
	"github.com/formlink/formlink/internal/service"
)

type LinkService interface {
	CreateLink(ctx context.Context, user models.User, params service.CreateLinkParams) (*models.ShortLink, error)
	GetLink(ctx context.Context, user models.User, id int64) (*models.ShortLink, error)
	UpdateLink(ctx context.Context, user models.User, id int64, upd database.LinkUpdate) (*models.ShortLink, error)
	DeleteLink(ctx context.Context, user models.User, id int64) error
	SearchLinks(ctx context.Context, user models.User, filter database.LinkFilter) ([]models.ShortLink, int64, error)
	GetLinkStats(ctx context.Context, user models.User, id int64) (*models.LinkStats, error)
}

type Resolver interface {
	Resolve(ctx context.Context, shortCode string, reqCtx models.RequestContext) (service.RedirectResult, error)
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

func NewRouter(logger *httplog.Logger, linkSvc LinkService, resolver Resolver, session Session) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		validate := getValidate()

		r.Get("/ping", handlePing)

		r.Route("/links", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))

			r.Post("/", handleCreateLink(linkSvc, session, validate))
			r.Get("/", handleSearchLinks(linkSvc, session))

			r.Route("/{linkID}", func(r chi.Router) {
				r.Patch("/", handleUpdateLink(linkSvc, session, validate))
				r.Delete("/", handleDeleteLink(linkSvc, session))
				r.Get("/stats", handleGetLinkStats(linkSvc, session))
			})
		})
	})

	// The redirect path sits at the root so short links stay short.
	r.Get("/{shortCode}", handleRedirect(resolver))

	return r
}
