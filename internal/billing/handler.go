package billing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sahyadri-hs/backoffice/internal/inventory"
	"github.com/sahyadri-hs/backoffice/internal/perm"
	"github.com/sahyadri-hs/backoffice/internal/programs"
	"github.com/sahyadri-hs/backoffice/internal/shared"
	"github.com/sahyadri-hs/backoffice/internal/view"
	"github.com/sahyadri-hs/backoffice/report"
)

const (
	entriesPath  = "/dashboard/billing/entries"
	invoicesPath = "/dashboard/billing/invoice"
	reportsPath  = "/dashboard/billing/reports"
)

const dateLayout = "2006-01-02"

// ProgramDirectory supplies the program dropdowns.
type ProgramDirectory interface {
	ListPrograms(ctx context.Context, filters programs.ListFilters) ([]programs.Program, shared.Pagination, error)
}

// ProductCatalog supplies the product dropdown on the entry form.
type ProductCatalog interface {
	ListProducts(ctx context.Context, packageID *int64) ([]inventory.Product, error)
}

// Handler manages billing endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	programs  ProgramDirectory
	products  ProductCatalog
	pdf       *report.Client
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	guard     perm.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, programDir ProgramDirectory, products ProductCatalog, pdf *report.Client, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, guard perm.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		programs:  programDir,
		products:  products,
		pdf:       pdf,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountEntryRoutes registers daily entry routes.
func (h *Handler) MountEntryRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(entriesPath))
		r.Get("/", h.listEntries)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(entriesPath, perm.WithEdit()))
		r.Get("/new", h.showCreateEntry)
		r.Post("/", h.createEntry)
		r.Get("/{id}/edit", h.showEditEntry)
		r.Post("/{id}", h.updateEntry)
		r.Post("/{id}/delete", h.deleteEntry)
	})
}

// MountInvoiceRoutes registers invoice routes.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(invoicesPath))
		r.Get("/", h.listInvoices)
		r.Get("/{id}/pdf", h.invoicePDF)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(invoicesPath, perm.WithEdit()))
		r.Post("/generate", h.generateInvoice)
	})
}

// MountReportRoutes registers report routes. Reports are read-only.
func (h *Handler) MountReportRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(reportsPath))
		r.Get("/", h.showReport)
		r.Get("/export", h.exportReportCSV)
		r.Get("/pdf", h.exportReportPDF)
	})
}

type entryForm struct {
	EntryDate string `validate:"required,datetime=2006-01-02"`
	ProgramID string `validate:"required,number"`
	ProductID string `validate:"required,number"`
	Quantity  string `validate:"required,number"`
}

type formErrors map[string]string

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	filters := EntryFilters{}
	if v, err := strconv.ParseInt(r.URL.Query().Get("program_id"), 10, 64); err == nil {
		filters.ProgramID = &v
	}
	entries, err := h.service.ListEntries(r.Context(), filters)
	if err != nil {
		h.logger.Error("list billing entries failed", slog.Any("error", err))
		h.render(w, r, "pages/billing/entries_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	ev := perm.EvaluationFromContext(r.Context())
	h.render(w, r, "pages/billing/entries_list.html", map[string]any{
		"Entries": entries,
		"CanEdit": ev.CanEdit,
		"Errors":  formErrors{},
	}, http.StatusOK)
}

func (h *Handler) showCreateEntry(w http.ResponseWriter, r *http.Request) {
	h.renderEntryForm(w, r, nil, formErrors{}, http.StatusOK)
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	entry, errs := h.parseEntryForm(r)
	if len(errs) > 0 {
		h.renderEntryForm(w, r, &entry, errs, http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateEntry(r.Context(), entry); err != nil {
		h.logger.Error("create billing entry failed", slog.Any("error", err))
		h.renderEntryForm(w, r, &entry, formErrors{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, entriesPath, "success", "Entry recorded")
}

func (h *Handler) showEditEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.renderEntryForm(w, r, &entry, formErrors{}, http.StatusOK)
}

func (h *Handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	entry, errs := h.parseEntryForm(r)
	entry.ID = id
	if len(errs) > 0 {
		h.renderEntryForm(w, r, &entry, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateEntry(r.Context(), id, entry); err != nil {
		h.logger.Error("update billing entry failed", slog.Int64("entry_id", id), slog.Any("error", err))
		h.renderEntryForm(w, r, &entry, formErrors{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, entriesPath, "success", "Entry updated")
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		h.logger.Warn("delete billing entry failed", slog.Int64("entry_id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, entriesPath, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, entriesPath, "success", "Entry deleted")
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.service.ListInvoices(r.Context())
	if err != nil {
		h.logger.Error("list invoices failed", slog.Any("error", err))
		h.render(w, r, "pages/billing/invoices_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	programList, _, err := h.programs.ListPrograms(r.Context(), programs.ListFilters{PerPage: 200})
	if err != nil {
		h.logger.Error("list programs failed", slog.Any("error", err))
	}
	ev := perm.EvaluationFromContext(r.Context())
	h.render(w, r, "pages/billing/invoices_list.html", map[string]any{
		"Invoices": invoices,
		"Programs": programList,
		"CanEdit":  ev.CanEdit,
		"Errors":   formErrors{},
	}, http.StatusOK)
}

func (h *Handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, invoicesPath, "error", "Invalid form submission")
		return
	}
	programID, err := strconv.ParseInt(r.PostFormValue("program_id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, invoicesPath, "error", "Choose a program")
		return
	}
	period, err := time.Parse("2006-01", r.PostFormValue("month"))
	if err != nil {
		h.redirectWithFlash(w, r, invoicesPath, "error", "Choose a month")
		return
	}
	inv, err := h.service.GenerateInvoice(r.Context(), programID, period)
	if err != nil {
		h.logger.Warn("generate invoice failed", slog.Int64("program_id", programID), slog.Any("error", err))
		switch {
		case errors.Is(err, ErrNoEntries):
			h.redirectWithFlash(w, r, invoicesPath, "error", "No billable entries for the selected month")
		case errors.Is(err, shared.ErrDuplicate):
			h.redirectWithFlash(w, r, invoicesPath, "error", "An invoice already exists for that program and month")
		default:
			h.redirectWithFlash(w, r, invoicesPath, "error", shared.UserSafeMessage(err))
		}
		return
	}
	h.redirectWithFlash(w, r, invoicesPath, "success", fmt.Sprintf("Invoice %s generated", inv.Number))
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	doc, err := h.service.InvoiceDocument(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	html, err := report.BuildInvoiceHTML(doc)
	if err != nil {
		h.logger.Error("build invoice document failed", slog.Int64("invoice_id", id), slog.Any("error", err))
		http.Error(w, "could not build document", http.StatusInternalServerError)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render invoice pdf failed", slog.Int64("invoice_id", id), slog.Any("error", err))
		http.Error(w, "PDF service unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Number+".pdf"))
	_, _ = w.Write(pdf)
}

func (h *Handler) showReport(w http.ResponseWriter, r *http.Request) {
	from, to := reportRange(r)
	lines, err := h.service.Report(r.Context(), from, to)
	if err != nil {
		h.logger.Error("billing report failed", slog.Any("error", err))
		h.render(w, r, "pages/billing/reports.html", map[string]any{
			"From":   from.Format(dateLayout),
			"To":     to.Format(dateLayout),
			"Errors": formErrors{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/billing/reports.html", map[string]any{
		"From":   from.Format(dateLayout),
		"To":     to.Format(dateLayout),
		"Lines":  lines,
		"Errors": formErrors{},
	}, http.StatusOK)
}

func (h *Handler) exportReportCSV(w http.ResponseWriter, r *http.Request) {
	from, to := reportRange(r)
	lines, err := h.service.Report(r.Context(), from, to)
	if err != nil {
		h.logger.Error("billing report failed", slog.Any("error", err))
		http.Error(w, "report failed", http.StatusInternalServerError)
		return
	}
	filename := fmt.Sprintf("billing-%s-%s.csv", from.Format(dateLayout), to.Format(dateLayout))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"program", "package", "quantity", "amount"})
	for _, l := range lines {
		_ = cw.Write([]string{l.ProgramName, l.PackageName, strconv.Itoa(l.Quantity), strconv.FormatFloat(l.Amount, 'f', 2, 64)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("write report csv failed", slog.Any("error", err))
	}
}

func (h *Handler) exportReportPDF(w http.ResponseWriter, r *http.Request) {
	from, to := reportRange(r)
	doc, err := h.service.ReportDocument(r.Context(), from, to)
	if err != nil {
		h.logger.Error("billing report failed", slog.Any("error", err))
		http.Error(w, "report failed", http.StatusInternalServerError)
		return
	}
	html, err := report.BuildBillingReportHTML(doc)
	if err != nil {
		h.logger.Error("build report document failed", slog.Any("error", err))
		http.Error(w, "could not build document", http.StatusInternalServerError)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render report pdf failed", slog.Any("error", err))
		http.Error(w, "PDF service unavailable", http.StatusBadGateway)
		return
	}
	filename := fmt.Sprintf("billing-%s-%s.pdf", from.Format(dateLayout), to.Format(dateLayout))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(pdf)
}

// reportRange parses from/to query params, defaulting to the current
// month so far.
func reportRange(r *http.Request) (time.Time, time.Time) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if v, err := time.Parse(dateLayout, r.URL.Query().Get("from")); err == nil {
		from = v
	}
	if v, err := time.Parse(dateLayout, r.URL.Query().Get("to")); err == nil {
		to = v
	}
	if to.Before(from) {
		from, to = to, from
	}
	return from, to
}

func (h *Handler) parseEntryForm(r *http.Request) (Entry, formErrors) {
	errs := formErrors{}
	if err := r.ParseForm(); err != nil {
		errs["general"] = "Invalid form submission"
		return Entry{}, errs
	}
	form := entryForm{
		EntryDate: r.PostFormValue("entry_date"),
		ProgramID: r.PostFormValue("program_id"),
		ProductID: r.PostFormValue("product_id"),
		Quantity:  r.PostFormValue("quantity"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
		return Entry{}, errs
	}
	entryDate, _ := time.Parse(dateLayout, form.EntryDate)
	programID, _ := strconv.ParseInt(form.ProgramID, 10, 64)
	productID, _ := strconv.ParseInt(form.ProductID, 10, 64)
	quantity, _ := strconv.Atoi(form.Quantity)
	if quantity < 0 {
		errs["Quantity"] = "quantity must not be negative"
		return Entry{}, errs
	}
	return Entry{ProgramID: programID, ProductID: productID, EntryDate: entryDate, Quantity: quantity}, errs
}

func (h *Handler) renderEntryForm(w http.ResponseWriter, r *http.Request, entry *Entry, errs formErrors, status int) {
	programList, _, err := h.programs.ListPrograms(r.Context(), programs.ListFilters{PerPage: 200})
	if err != nil {
		h.logger.Error("list programs failed", slog.Any("error", err))
	}
	productList, err := h.products.ListProducts(r.Context(), nil)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
	}
	h.render(w, r, "pages/billing/entries_form.html", map[string]any{
		"Entry":    entry,
		"Programs": programList,
		"Products": productList,
		"Errors":   errs,
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Billing", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
