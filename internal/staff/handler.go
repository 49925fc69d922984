package staff

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

const staffPath = "/dashboard/consumers/staff"

// Handler manages staff endpoints.
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

// MountRoutes registers staff routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(staffPath))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(staffPath, perm.WithEdit()))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
		r.Post("/{id}/delete", h.delete)
	})
}

type staffForm struct {
	Name         string `validate:"required,min=2,max=128"`
	Designation  string `validate:"max=128"`
	Organisation string `validate:"max=128"`
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{Search: r.URL.Query().Get("search")}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filters.Page = page
	}
	members, pagination, err := h.service.ListStaff(r.Context(), filters)
	if err != nil {
		h.logger.Error("list staff failed", slog.Any("error", err))
		h.render(w, r, "pages/consumers/staff_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	ev := perm.EvaluationFromContext(r.Context())
	h.render(w, r, "pages/consumers/staff_list.html", map[string]any{
		"Staff":      members,
		"Pagination": pagination,
		"Search":     filters.Search,
		"CanEdit":    ev.CanEdit,
		"Errors":     formErrors{},
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/consumers/staff_form.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	member, errs := h.parseForm(r)
	if len(errs) > 0 {
		h.render(w, r, "pages/consumers/staff_form.html", map[string]any{"Member": &member, "Errors": errs}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateMember(r.Context(), member); err != nil {
		h.logger.Error("create staff member failed", slog.Any("error", err))
		h.render(w, r, "pages/consumers/staff_form.html", map[string]any{"Member": &member, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, staffPath, "success", "Staff member created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "pages/consumers/staff_form.html", map[string]any{"Member": &member, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	member, errs := h.parseForm(r)
	member.ID = id
	if len(errs) > 0 {
		h.render(w, r, "pages/consumers/staff_form.html", map[string]any{"Member": &member, "Errors": errs}, http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateMember(r.Context(), id, member); err != nil {
		h.logger.Error("update staff member failed", slog.Int64("staff_id", id), slog.Any("error", err))
		h.render(w, r, "pages/consumers/staff_form.html", map[string]any{"Member": &member, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, staffPath, "success", "Staff member updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.DeleteMember(r.Context(), id); err != nil {
		h.logger.Warn("delete staff member failed", slog.Int64("staff_id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, staffPath, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, staffPath, "success", "Staff member deleted")
}

func (h *Handler) parseForm(r *http.Request) (Member, formErrors) {
	errs := formErrors{}
	if err := r.ParseForm(); err != nil {
		errs["general"] = "Invalid form submission"
		return Member{}, errs
	}
	form := staffForm{
		Name:         r.PostFormValue("name"),
		Designation:  r.PostFormValue("designation"),
		Organisation: r.PostFormValue("organisation"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	return Member{Name: form.Name, Designation: form.Designation, Organisation: form.Organisation}, errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Staff", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
