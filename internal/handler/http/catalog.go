package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
)

// CatalogHandler serves the public storefront reads.
type CatalogHandler struct {
	catalog    *service.CatalogService
	categories *service.CategoryService
	settings   *service.SettingsService
	logger     *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, categories *service.CategoryService, settings *service.SettingsService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, categories: categories, settings: settings, logger: logger}
}

func productFilter(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	f := domain.ProductFilter{
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Sort:     domain.ProductSort(q.Get("sort")),
	}
	var err error
	if f.Featured, err = queryBool(r, "featured"); err != nil {
		return f, err
	}
	if f.MinPrice, err = queryDecimal(r, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(r, "max_price"); err != nil {
		return f, err
	}
	if f.MinRating, err = queryFloat(r, "min_rating"); err != nil {
		return f, err
	}
	return f, nil
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	page, err := h.catalog.ListProducts(r.Context(), filter, pagination.FromRequest(r, pagination.DefaultLimit))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, page)
}

// SearchProducts handles GET /api/v1/products/search?q=
func (h *CatalogHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// ListFeaturedProducts handles GET /api/v1/products/featured
func (h *CatalogHandler) ListFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	products, err := h.catalog.ListFeaturedProducts(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// ListCategories handles GET /api/v1/categories. Shoppers only see active
// categories.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context(), true)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, categories)
}

// GetCategory handles GET /api/v1/categories/{id}
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, c)
}

// GetSettings handles GET /api/v1/settings
func (h *CatalogHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.GetSettings(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, s)
}
