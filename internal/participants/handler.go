package participants

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sahyadri-hs/backoffice/internal/perm"
	"github.com/sahyadri-hs/backoffice/internal/programs"
	"github.com/sahyadri-hs/backoffice/internal/shared"
	"github.com/sahyadri-hs/backoffice/internal/view"
)

const participantsPath = "/dashboard/consumers/participants"

// ProgramLister supplies the program dropdown on the participant form.
type ProgramLister interface {
	ListPrograms(ctx context.Context, filters programs.ListFilters) ([]programs.Program, shared.Pagination, error)
}

// Handler manages participant endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	programs  ProgramLister
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	guard     perm.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, programLister ProgramLister, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, guard perm.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		programs:  programLister,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers participant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(participantsPath))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(participantsPath, perm.WithEdit()))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
		r.Post("/{id}/delete", h.delete)
	})
}

type participantForm struct {
	Name      string `validate:"required,min=2,max=128"`
	ProgramID string `validate:"required,number"`
	Type      string `validate:"omitempty,oneof=resident day"`
	CheckIn   string `validate:"omitempty,datetime=2006-01-02"`
	CheckOut  string `validate:"omitempty,datetime=2006-01-02"`
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{Search: r.URL.Query().Get("search")}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filters.Page = page
	}
	if programID, err := strconv.ParseInt(r.URL.Query().Get("program_id"), 10, 64); err == nil {
		filters.ProgramID = programID
	}
	participants, pagination, err := h.service.ListParticipants(r.Context(), filters)
	if err != nil {
		h.logger.Error("list participants failed", slog.Any("error", err))
		h.render(w, r, "pages/consumers/participants_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	ev := perm.EvaluationFromContext(r.Context())
	h.render(w, r, "pages/consumers/participants_list.html", map[string]any{
		"Participants": participants,
		"Pagination":   pagination,
		"Search":       filters.Search,
		"CanEdit":      ev.CanEdit,
		"Errors":       formErrors{},
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, nil, formErrors{}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	participant, errs := h.parseForm(r)
	if len(errs) > 0 {
		h.renderForm(w, r, &participant, errs, http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateParticipant(r.Context(), participant); err != nil {
		h.logger.Error("create participant failed", slog.Any("error", err))
		h.renderForm(w, r, &participant, formErrors{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, participantsPath, "success", "Participant created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	participant, err := h.service.GetParticipant(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.renderForm(w, r, &participant, formErrors{}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	participant, errs := h.parseForm(r)
	participant.ID = id
	if len(errs) > 0 {
		h.renderForm(w, r, &participant, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateParticipant(r.Context(), id, participant); err != nil {
		h.logger.Error("update participant failed", slog.Int64("participant_id", id), slog.Any("error", err))
		h.renderForm(w, r, &participant, formErrors{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, participantsPath, "success", "Participant updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.DeleteParticipant(r.Context(), id); err != nil {
		h.logger.Warn("delete participant failed", slog.Int64("participant_id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, participantsPath, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, participantsPath, "success", "Participant deleted")
}

func (h *Handler) parseForm(r *http.Request) (Participant, formErrors) {
	errs := formErrors{}
	if err := r.ParseForm(); err != nil {
		errs["general"] = "Invalid form submission"
		return Participant{}, errs
	}
	form := participantForm{
		Name:      r.PostFormValue("name"),
		ProgramID: r.PostFormValue("program_id"),
		Type:      r.PostFormValue("type"),
		CheckIn:   r.PostFormValue("check_in"),
		CheckOut:  r.PostFormValue("check_out"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	participant := Participant{Name: form.Name, Type: form.Type}
	participant.ProgramID, _ = strconv.ParseInt(form.ProgramID, 10, 64)
	if form.CheckIn != "" {
		participant.CheckIn, _ = time.Parse("2006-01-02", form.CheckIn)
	}
	if form.CheckOut != "" {
		participant.CheckOut, _ = time.Parse("2006-01-02", form.CheckOut)
	}
	if !participant.CheckIn.IsZero() && !participant.CheckOut.IsZero() && participant.CheckOut.Before(participant.CheckIn) {
		errs["CheckOut"] = "Check out must not be before check in"
	}
	return participant, errs
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, participant *Participant, errs formErrors, status int) {
	programList, _, err := h.programs.ListPrograms(r.Context(), programs.ListFilters{PerPage: 200})
	if err != nil {
		h.logger.Error("list programs for participant form", slog.Any("error", err))
		errs["general"] = shared.UserSafeMessage(err)
	}
	h.render(w, r, "pages/consumers/participants_form.html", map[string]any{
		"Participant": participant,
		"Programs":    programList,
		"Errors":      errs,
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Participants", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
