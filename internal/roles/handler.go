package roles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sahyadri-hs/backoffice/internal/perm"
	"github.com/sahyadri-hs/backoffice/internal/shared"
	"github.com/sahyadri-hs/backoffice/internal/view"
)

const rolesPath = "/dashboard/users/roles"

// Handler manages role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	guard     perm.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, guard perm.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(rolesPath))
		r.Get("/", h.listRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(rolesPath, perm.WithEdit()))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createRole)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.updateRole)
		r.Post("/{id}/delete", h.deleteRole)
	})
}

type roleForm struct {
	Name        string `validate:"required,min=2,max=64"`
	Description string `validate:"max=255"`
}

type formErrors map[string]string

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		h.render(w, r, "pages/roles/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/list.html", map[string]any{"Roles": roles}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/roles/form.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := roleForm{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
	if errs := h.validate(form); len(errs) > 0 {
		h.render(w, r, "pages/roles/form.html", map[string]any{"Form": form, "Errors": errs}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateRole(r.Context(), form.Name, form.Description); err != nil {
		h.logger.Error("create role failed", slog.Any("error", err))
		h.render(w, r, "pages/roles/form.html", map[string]any{"Form": form, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, rolesPath, "success", "Role created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "pages/roles/form.html", map[string]any{"Role": role, "Form": roleForm{Name: role.Name, Description: role.Description}, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := roleForm{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
	if errs := h.validate(form); len(errs) > 0 {
		h.render(w, r, "pages/roles/form.html", map[string]any{"Role": Role{ID: id}, "Form": form, "Errors": errs}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.UpdateRole(r.Context(), id, form.Name, form.Description); err != nil {
		h.logger.Error("update role failed", slog.Int64("role_id", id), slog.Any("error", err))
		h.render(w, r, "pages/roles/form.html", map[string]any{"Role": Role{ID: id}, "Form": form, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, rolesPath, "success", "Role updated")
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.logger.Warn("delete role failed", slog.Int64("role_id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, rolesPath, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, rolesPath, "success", "Role deleted")
}

func (h *Handler) validate(form roleForm) formErrors {
	errs := formErrors{}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	return errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Roles", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
