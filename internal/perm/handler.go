package perm

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sahyadri-hs/backoffice/internal/shared"
	"github.com/sahyadri-hs/backoffice/internal/view"
)

const matrixPath = "/dashboard/users/permissions"

// RoleDirectory lists the selectable roles for the matrix editor.
type RoleDirectory interface {
	ListRoles(ctx context.Context) ([]RoleRef, error)
}

// Handler serves the permission matrix editor.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	roles     RoleDirectory
	registry  *Registry
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	guard     Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, roles RoleDirectory, registry *Registry, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, guard Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		roles:     roles,
		registry:  registry,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		guard:     guard,
	}
}

// MountRoutes registers matrix editor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(matrixPath))
		r.Get("/", h.showMatrix)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(matrixPath, WithEdit()))
		r.Post("/", h.saveMatrix)
	})
}

type matrixRow struct {
	ID                string
	DisplayName       string
	Path              string
	ParentID          string
	IsParent          bool
	CanView           bool
	CanEdit           bool
	ViewIndeterminate bool
	EditIndeterminate bool
}

type matrixPageData struct {
	Roles          []RoleRef
	SelectedRoleID int64
	WildcardView   bool
	WildcardEdit   bool
	Rows           []matrixRow
	Errors         map[string]string
}

func (h *Handler) showMatrix(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles for matrix", slog.Any("error", err))
		h.render(w, r, matrixPageData{Errors: map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	if len(roles) == 0 {
		h.render(w, r, matrixPageData{Errors: map[string]string{"general": "No roles exist yet. Create a role first."}}, http.StatusOK)
		return
	}

	selected := roles[0].ID
	if raw := r.URL.Query().Get("role_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			selected = id
		}
	}

	stored, err := h.service.PermissionsForRole(r.Context(), selected)
	if err != nil {
		h.logger.Error("load matrix permissions", slog.Int64("role_id", selected), slog.Any("error", err))
		h.render(w, r, matrixPageData{Roles: roles, SelectedRoleID: selected, Errors: map[string]string{"general": "Could not load permissions for this role."}}, http.StatusInternalServerError)
		return
	}

	matrix := NewMatrix(h.registry, selected, stored)
	h.render(w, r, h.pageData(roles, matrix, nil), http.StatusOK)
}

func (h *Handler) saveMatrix(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	roleID, err := strconv.ParseInt(r.PostFormValue("role_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	matrix := h.matrixFromForm(roleID, r)
	if err := h.service.Save(r.Context(), roleID, matrix.Rows()); err != nil {
		h.logger.Error("save permissions", slog.Int64("role_id", roleID), slog.Any("error", err))
		roles, rolesErr := h.roles.ListRoles(r.Context())
		if rolesErr != nil {
			roles = []RoleRef{{ID: roleID, Name: "Selected role"}}
		}
		// Render the submitted, unsaved state so the admin can retry.
		data := h.pageData(roles, matrix, map[string]string{"general": "Saving failed; nothing was changed."})
		h.render(w, r, data, http.StatusInternalServerError)
		return
	}

	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Permissions saved"})
	}
	http.Redirect(w, r, matrixPath+"?role_id="+strconv.FormatInt(roleID, 10), http.StatusSeeOther)
}

// matrixFromForm rebuilds the editing matrix from submitted checkbox
// state. The cascades run client-side while the admin edits, so the
// form is taken as the final per-row state; the server re-enforces the
// same-row rules: an unchecked view resolves the whole row off, even
// when a stray edit value arrives with it, and a checked wildcard view
// grants everything.
func (h *Handler) matrixFromForm(roleID int64, r *http.Request) *Matrix {
	matrix := NewMatrix(h.registry, roleID, nil)
	for _, page := range h.registry.Pages() {
		if r.PostFormValue("view_"+page.ID) != "on" {
			continue
		}
		matrix.setView(page.Path, true)
		if r.PostFormValue("edit_"+page.ID) == "on" {
			matrix.setEdit(page.Path, true)
		}
	}
	if r.PostFormValue("view_all") == "on" {
		matrix.SetView(Wildcard, true)
	}
	return matrix
}

func (h *Handler) pageData(roles []RoleRef, matrix *Matrix, errs map[string]string) matrixPageData {
	wildcard := matrix.Row(Wildcard)
	data := matrixPageData{
		Roles:          roles,
		SelectedRoleID: matrix.RoleID(),
		WildcardView:   wildcard.CanView,
		WildcardEdit:   wildcard.CanEdit,
		Errors:         errs,
	}
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	for _, page := range h.registry.Pages() {
		row := matrix.Row(page.Path)
		vm := matrixRow{
			ID:          page.ID,
			DisplayName: page.DisplayName,
			Path:        page.Path,
			ParentID:    page.ParentID,
			IsParent:    h.registry.IsParent(page.ID),
			CanView:     row.CanView,
			CanEdit:     row.CanEdit,
		}
		if vm.IsParent {
			vm.ViewIndeterminate = matrix.ParentState(page.ID, ActionView) == SomeChecked
			vm.EditIndeterminate = matrix.ParentState(page.ID, ActionEdit) == SomeChecked
		}
		data.Rows = append(data.Rows, vm)
	}
	return data
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data matrixPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Permissions", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/users/permissions.html", viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
