package perm

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sahyadri-hs/backoffice/internal/platform/httpx"
	"github.com/sahyadri-hs/backoffice/internal/shared"
)

// NavHandler answers the marketing site's coarse navigation checks as
// JSON. It runs the legacy ancestor-walking rules, so a view grant on a
// section is enough to light up that section's link.
type NavHandler struct {
	logger   *slog.Logger
	service  *Service
	registry *Registry
}

// NewNavHandler builds a NavHandler. The service must be configured with
// the legacy evaluator.
func NewNavHandler(logger *slog.Logger, service *Service, registry *Registry) *NavHandler {
	return &NavHandler{logger: logger, service: service, registry: registry}
}

// MountRoutes registers the nav API routes.
func (h *NavHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.nav)
	r.Get("/check", h.check)
}

type navEntry struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	CanEdit     bool   `json:"can_edit"`
}

func (h *NavHandler) nav(w http.ResponseWriter, r *http.Request) {
	userID := shared.ActorFromContext(r.Context())
	if userID == 0 {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in first")
		return
	}
	var entries []navEntry
	for _, page := range h.registry.Pages() {
		if !h.service.Check(r.Context(), userID, page.Path, ActionView) {
			continue
		}
		entries = append(entries, navEntry{
			Path:        page.Path,
			DisplayName: page.DisplayName,
			CanEdit:     h.service.Check(r.Context(), userID, page.Path, ActionEdit),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"pages": entries})
}

func (h *NavHandler) check(w http.ResponseWriter, r *http.Request) {
	userID := shared.ActorFromContext(r.Context())
	if userID == 0 {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in first")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "path query parameter is required")
		return
	}
	ev := h.service.Evaluate(r.Context(), userID, path)
	if ev.Status == StatusErrored {
		h.log().Error("nav check errored", slog.String("path", path), slog.Any("error", ev.Err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "permission store unavailable")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"path":     NormalizePath(path),
		"can_view": ev.CanView,
		"can_edit": ev.CanEdit,
	})
}

func (h *NavHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
