package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sahyadri-hs/backoffice/internal/auth"
	"github.com/sahyadri-hs/backoffice/internal/billing"
	"github.com/sahyadri-hs/backoffice/internal/inventory"
	"github.com/sahyadri-hs/backoffice/internal/observability"
	"github.com/sahyadri-hs/backoffice/internal/participants"
	"github.com/sahyadri-hs/backoffice/internal/perm"
	"github.com/sahyadri-hs/backoffice/internal/programs"
	"github.com/sahyadri-hs/backoffice/internal/roles"
	"github.com/sahyadri-hs/backoffice/internal/shared"
	"github.com/sahyadri-hs/backoffice/internal/staff"
	"github.com/sahyadri-hs/backoffice/internal/users"
	"github.com/sahyadri-hs/backoffice/internal/view"
	"github.com/sahyadri-hs/backoffice/jobs"
	"github.com/sahyadri-hs/backoffice/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          perm.Middleware

	AuthHandler         *auth.Handler
	PermHandler         *perm.Handler
	NavHandler          *perm.NavHandler
	RolesHandler        *roles.Handler
	UsersHandler        *users.Handler
	ProgramsHandler     *programs.Handler
	ParticipantsHandler *participants.Handler
	StaffHandler        *staff.Handler
	InventoryHandler    *inventory.Handler
	BillingHandler      *billing.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess != nil && sess.User() != "" {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		data := view.TemplateData{Title: "Sahyadri Catering Services", CurrentPath: r.URL.Path}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.Guard.RequirePage("/dashboard"))
		r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
			var flash *shared.FlashMessage
			if sess != nil {
				flash = sess.PopFlash()
			}
			type sectionLink struct {
				Name string
				Href string
			}
			sections := make([]sectionLink, 0, 4)
			for _, s := range []sectionLink{
				{Name: "Consumer Management", Href: "/dashboard/consumers/programs"},
				{Name: "Inventory", Href: "/dashboard/inventory/packages"},
				{Name: "Billing", Href: "/dashboard/billing/entries"},
				{Name: "User Management", Href: "/dashboard/users"},
			} {
				if params.Guard.Allows(r, s.Href, perm.ActionView) {
					sections = append(sections, s)
				}
			}
			data := view.TemplateData{
				Title:       "Dashboard",
				CSRFToken:   csrfToken,
				Flash:       flash,
				CurrentPath: r.URL.Path,
				Data:        map[string]any{"Sections": sections},
			}
			if err := params.Templates.Render(w, "pages/home.html", data); err != nil {
				params.Logger.Error("render home", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
	})

	// Section index paths point at their first page; per-page guards
	// decide from there.
	sectionRedirect(r, "/dashboard/consumers", "/dashboard/consumers/programs")
	sectionRedirect(r, "/dashboard/inventory", "/dashboard/inventory/packages")
	sectionRedirect(r, "/dashboard/billing", "/dashboard/billing/entries")

	r.Route("/dashboard/consumers/programs", params.ProgramsHandler.MountRoutes)
	r.Route("/dashboard/consumers/participants", params.ParticipantsHandler.MountRoutes)
	r.Route("/dashboard/consumers/staff", params.StaffHandler.MountRoutes)
	r.Route("/dashboard/inventory/packages", params.InventoryHandler.MountPackageRoutes)
	r.Route("/dashboard/inventory/products", params.InventoryHandler.MountProductRoutes)
	r.Route("/dashboard/billing/entries", params.BillingHandler.MountEntryRoutes)
	r.Route("/dashboard/billing/invoice", params.BillingHandler.MountInvoiceRoutes)
	r.Route("/dashboard/billing/reports", params.BillingHandler.MountReportRoutes)
	r.Route("/dashboard/users/roles", params.RolesHandler.MountRoutes)
	r.Route("/dashboard/users/permissions", params.PermHandler.MountRoutes)
	r.Route("/dashboard/users", params.UsersHandler.MountRoutes)

	if params.NavHandler != nil {
		r.Route("/api/nav", params.NavHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

func sectionRedirect(r chi.Router, from, to string) {
	r.Get(from, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, to, http.StatusSeeOther)
	})
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
