package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockmaster/stockmaster/internal/auth"
	"github.com/stockmaster/stockmaster/internal/dashboard"
	"github.com/stockmaster/stockmaster/internal/masterdata/contacts"
	"github.com/stockmaster/stockmaster/internal/masterdata/locations"
	"github.com/stockmaster/stockmaster/internal/masterdata/products"
	"github.com/stockmaster/stockmaster/internal/masterdata/warehouses"
	"github.com/stockmaster/stockmaster/internal/moves"
	"github.com/stockmaster/stockmaster/internal/observability"
	"github.com/stockmaster/stockmaster/internal/operations"
	"github.com/stockmaster/stockmaster/internal/search"
	"github.com/stockmaster/stockmaster/internal/shared"
	"github.com/stockmaster/stockmaster/internal/users"
	"github.com/stockmaster/stockmaster/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger   *slog.Logger
	Config   *Config
	Sessions *shared.SessionStore

	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	OperationsHandler *operations.Handler
	ProductsHandler   *products.Handler
	WarehousesHandler *warehouses.Handler
	LocationsHandler  *locations.Handler
	ContactsHandler   *contacts.Handler
	MovesHandler      *moves.Handler
	DashboardHandler  *dashboard.Handler
	SearchHandler     *search.Handler
	JobsHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		params.AuthHandler.MountPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(shared.RequireAuth(params.Sessions))

			params.AuthHandler.MountProtectedRoutes(r)
			params.UsersHandler.MountRoutes(r)
			params.OperationsHandler.MountRoutes(r)
			params.ProductsHandler.MountRoutes(r)
			params.WarehousesHandler.MountRoutes(r)
			params.LocationsHandler.MountRoutes(r)
			params.ContactsHandler.MountRoutes(r)
			params.MovesHandler.MountRoutes(r)
			params.DashboardHandler.MountRoutes(r)
			params.SearchHandler.MountRoutes(r)
			if params.JobsHandler != nil {
				r.Route("/jobs", params.JobsHandler.MountRoutes)
			}
		})
	})

	return r
}
