package programs

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sahyadri-hs/backoffice/internal/perm"
	"github.com/sahyadri-hs/backoffice/internal/shared"
	"github.com/sahyadri-hs/backoffice/internal/view"
)

const programsPath = "/dashboard/consumers/programs"

// Handler manages program endpoints.
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

// MountRoutes registers program routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(programsPath))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(programsPath, perm.WithEdit()))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
		r.Post("/{id}/delete", h.delete)
	})
}

type programForm struct {
	Name         string `validate:"required,min=2,max=128"`
	CustomerName string `validate:"max=128"`
	StartDate    string `validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `validate:"omitempty,datetime=2006-01-02"`
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{
		Search: r.URL.Query().Get("search"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filters.Page = page
	}
	programs, pagination, err := h.service.ListPrograms(r.Context(), filters)
	if err != nil {
		h.logger.Error("list programs failed", slog.Any("error", err))
		h.render(w, r, "pages/consumers/programs_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	ev := perm.EvaluationFromContext(r.Context())
	h.render(w, r, "pages/consumers/programs_list.html", map[string]any{
		"Programs":   programs,
		"Pagination": pagination,
		"Search":     filters.Search,
		"CanEdit":    ev.CanEdit,
		"Errors":     formErrors{},
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/consumers/programs_form.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	program, errs := h.parseForm(r)
	if len(errs) > 0 {
		h.render(w, r, "pages/consumers/programs_form.html", map[string]any{"Program": &program, "Errors": errs}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateProgram(r.Context(), program); err != nil {
		h.logger.Error("create program failed", slog.Any("error", err))
		h.render(w, r, "pages/consumers/programs_form.html", map[string]any{"Program": &program, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, programsPath, "success", "Program created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	program, err := h.service.GetProgram(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "pages/consumers/programs_form.html", map[string]any{"Program": &program, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	program, errs := h.parseForm(r)
	program.ID = id
	if len(errs) > 0 {
		h.render(w, r, "pages/consumers/programs_form.html", map[string]any{"Program": &program, "Errors": errs}, http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateProgram(r.Context(), id, program); err != nil {
		h.logger.Error("update program failed", slog.Int64("program_id", id), slog.Any("error", err))
		h.render(w, r, "pages/consumers/programs_form.html", map[string]any{"Program": &program, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, programsPath, "success", "Program updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.DeleteProgram(r.Context(), id); err != nil {
		h.logger.Warn("delete program failed", slog.Int64("program_id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, programsPath, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, programsPath, "success", "Program deleted")
}

func (h *Handler) parseForm(r *http.Request) (Program, formErrors) {
	errs := formErrors{}
	if err := r.ParseForm(); err != nil {
		errs["general"] = "Invalid form submission"
		return Program{}, errs
	}
	form := programForm{
		Name:         r.PostFormValue("name"),
		CustomerName: r.PostFormValue("customer_name"),
		StartDate:    r.PostFormValue("start_date"),
		EndDate:      r.PostFormValue("end_date"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	program := Program{Name: form.Name, CustomerName: form.CustomerName}
	if form.StartDate != "" {
		program.StartDate, _ = time.Parse("2006-01-02", form.StartDate)
	}
	if form.EndDate != "" {
		program.EndDate, _ = time.Parse("2006-01-02", form.EndDate)
	}
	if !program.StartDate.IsZero() && !program.EndDate.IsZero() && program.EndDate.Before(program.StartDate) {
		errs["EndDate"] = "End date must not be before the start date"
	}
	return program, errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Programs", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
