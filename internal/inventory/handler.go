package inventory

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

const (
	packagesPath = "/dashboard/inventory/packages"
	productsPath = "/dashboard/inventory/products"
)

// Handler manages inventory endpoints.
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

// MountPackageRoutes registers package routes.
func (h *Handler) MountPackageRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(packagesPath))
		r.Get("/", h.listPackages)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(packagesPath, perm.WithEdit()))
		r.Get("/new", h.showCreatePackageForm)
		r.Post("/", h.createPackage)
		r.Get("/{id}/edit", h.showEditPackageForm)
		r.Post("/{id}", h.updatePackage)
		r.Post("/{id}/delete", h.deletePackage)
	})
}

// MountProductRoutes registers product routes.
func (h *Handler) MountProductRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(productsPath))
		r.Get("/", h.listProducts)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePage(productsPath, perm.WithEdit()))
		r.Get("/new", h.showCreateProductForm)
		r.Post("/", h.createProduct)
		r.Get("/{id}/edit", h.showEditProductForm)
		r.Post("/{id}", h.updateProduct)
		r.Post("/{id}/delete", h.deleteProduct)
	})
}

type packageForm struct {
	Name string `validate:"required,min=2,max=128"`
	Type string `validate:"omitempty,oneof=catering extra cold_drink"`
}

type productForm struct {
	Name      string `validate:"required,min=2,max=128"`
	PackageID string `validate:"required,number"`
	Rate      string `validate:"omitempty,numeric"`
	Unit      string `validate:"max=32"`
}

type formErrors map[string]string

func (h *Handler) listPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.service.ListPackages(r.Context())
	if err != nil {
		h.logger.Error("list packages failed", slog.Any("error", err))
		h.render(w, r, "pages/inventory/packages_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	ev := perm.EvaluationFromContext(r.Context())
	h.render(w, r, "pages/inventory/packages_list.html", map[string]any{"Packages": packages, "CanEdit": ev.CanEdit, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) showCreatePackageForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/inventory/packages_form.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) createPackage(w http.ResponseWriter, r *http.Request) {
	pkg, errs := h.parsePackageForm(r)
	if len(errs) > 0 {
		h.render(w, r, "pages/inventory/packages_form.html", map[string]any{"Package": &pkg, "Errors": errs}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreatePackage(r.Context(), pkg); err != nil {
		h.logger.Error("create package failed", slog.Any("error", err))
		h.render(w, r, "pages/inventory/packages_form.html", map[string]any{"Package": &pkg, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, packagesPath, "success", "Package created")
}

func (h *Handler) showEditPackageForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	pkg, err := h.service.GetPackage(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "pages/inventory/packages_form.html", map[string]any{"Package": &pkg, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) updatePackage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	pkg, errs := h.parsePackageForm(r)
	pkg.ID = id
	if len(errs) > 0 {
		h.render(w, r, "pages/inventory/packages_form.html", map[string]any{"Package": &pkg, "Errors": errs}, http.StatusBadRequest)
		return
	}
	if err := h.service.UpdatePackage(r.Context(), id, pkg); err != nil {
		h.logger.Error("update package failed", slog.Int64("package_id", id), slog.Any("error", err))
		h.render(w, r, "pages/inventory/packages_form.html", map[string]any{"Package": &pkg, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, packagesPath, "success", "Package updated")
}

func (h *Handler) deletePackage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.DeletePackage(r.Context(), id); err != nil {
		h.logger.Warn("delete package failed", slog.Int64("package_id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, packagesPath, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, packagesPath, "success", "Package deleted")
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var packageID *int64
	if raw := r.URL.Query().Get("package_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			packageID = &id
		}
	}
	products, err := h.service.ListProducts(r.Context(), packageID)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		h.render(w, r, "pages/inventory/products_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	ev := perm.EvaluationFromContext(r.Context())
	h.render(w, r, "pages/inventory/products_list.html", map[string]any{"Products": products, "CanEdit": ev.CanEdit, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) showCreateProductForm(w http.ResponseWriter, r *http.Request) {
	h.renderProductForm(w, r, nil, formErrors{}, http.StatusOK)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	product, errs := h.parseProductForm(r)
	if len(errs) > 0 {
		h.renderProductForm(w, r, &product, errs, http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateProduct(r.Context(), product); err != nil {
		h.logger.Error("create product failed", slog.Any("error", err))
		h.renderProductForm(w, r, &product, formErrors{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, productsPath, "success", "Product created")
}

func (h *Handler) showEditProductForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.renderProductForm(w, r, &product, formErrors{}, http.StatusOK)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	product, errs := h.parseProductForm(r)
	product.ID = id
	if len(errs) > 0 {
		h.renderProductForm(w, r, &product, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateProduct(r.Context(), id, product); err != nil {
		h.logger.Error("update product failed", slog.Int64("product_id", id), slog.Any("error", err))
		h.renderProductForm(w, r, &product, formErrors{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, productsPath, "success", "Product updated")
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.logger.Warn("delete product failed", slog.Int64("product_id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, productsPath, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, productsPath, "success", "Product deleted")
}

func (h *Handler) parsePackageForm(r *http.Request) (Package, formErrors) {
	errs := formErrors{}
	if err := r.ParseForm(); err != nil {
		errs["general"] = "Invalid form submission"
		return Package{}, errs
	}
	form := packageForm{
		Name: r.PostFormValue("name"),
		Type: r.PostFormValue("type"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	return Package{Name: form.Name, Type: form.Type}, errs
}

func (h *Handler) parseProductForm(r *http.Request) (Product, formErrors) {
	errs := formErrors{}
	if err := r.ParseForm(); err != nil {
		errs["general"] = "Invalid form submission"
		return Product{}, errs
	}
	form := productForm{
		Name:      r.PostFormValue("name"),
		PackageID: r.PostFormValue("package_id"),
		Rate:      r.PostFormValue("rate"),
		Unit:      r.PostFormValue("unit"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	product := Product{Name: form.Name, Unit: form.Unit}
	product.PackageID, _ = strconv.ParseInt(form.PackageID, 10, 64)
	if form.Rate != "" {
		product.Rate, _ = strconv.ParseFloat(form.Rate, 64)
	}
	return product, errs
}

func (h *Handler) renderProductForm(w http.ResponseWriter, r *http.Request, product *Product, errs formErrors, status int) {
	packages, err := h.service.ListPackages(r.Context())
	if err != nil {
		h.logger.Error("list packages for product form", slog.Any("error", err))
		errs["general"] = shared.UserSafeMessage(err)
	}
	h.render(w, r, "pages/inventory/products_form.html", map[string]any{
		"Product":  product,
		"Packages": packages,
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
	viewData := view.TemplateData{Title: "Inventory", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
