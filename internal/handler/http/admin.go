package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

const adminPageLimit = 20

// AdminHandler serves the dashboard API. Every route sits behind the admin
// role check.
type AdminHandler struct {
	svcs   Services
	logger *slog.Logger
}

func NewAdminHandler(svcs Services, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svcs: svcs, logger: logger}
}

type bulkStatusRequest struct {
	OrderIDs []string           `json:"order_ids" validate:"required,min=1,dive,required"`
	Status   domain.OrderStatus `json:"status" validate:"required"`
}

type stockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

type bulkAdjustRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,required"`
	Delta      int      `json:"delta"`
}

func (h *AdminHandler) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, status, v)
}

// --- Dashboard ---

// DashboardAnalytics handles GET /api/v1/admin/dashboard/analytics
func (h *AdminHandler) DashboardAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.svcs.Analytics.ComputeDashboardAnalytics(r.Context())
	h.respond(w, r, http.StatusOK, a, err)
}

// DashboardStats handles GET /api/v1/admin/dashboard/stats
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.svcs.Analytics.ComputeDashboardStats(r.Context())
	h.respond(w, r, http.StatusOK, s, err)
}

// GlobalSearch handles GET /api/v1/admin/search?q=&collections=products,orders
func (h *AdminHandler) GlobalSearch(w http.ResponseWriter, r *http.Request) {
	hits, err := h.svcs.Analytics.GlobalSearch(r.Context(), r.URL.Query().Get("q"), queryList(r, "collections"))
	h.respond(w, r, http.StatusOK, hits, err)
}

// --- Products ---

// CreateProduct handles POST /api/v1/admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.ProductInput
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	p, err := h.svcs.Catalog.CreateProduct(r.Context(), req)
	h.respond(w, r, http.StatusCreated, p, err)
}

// UpdateProduct handles PATCH /api/v1/admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.ProductPatch
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	p, err := h.svcs.Catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	h.respond(w, r, http.StatusOK, p, err)
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svcs.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Categories ---

// ListCategories handles GET /api/v1/admin/categories, inactive included.
func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svcs.Categories.ListCategories(r.Context(), false)
	h.respond(w, r, http.StatusOK, categories, err)
}

// CreateCategory handles POST /api/v1/admin/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	c, err := h.svcs.Categories.CreateCategory(r.Context(), req)
	h.respond(w, r, http.StatusCreated, c, err)
}

// UpdateCategory handles PATCH /api/v1/admin/categories/{id}
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryPatch
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	c, err := h.svcs.Categories.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req)
	h.respond(w, r, http.StatusOK, c, err)
}

// DeleteCategory handles DELETE /api/v1/admin/categories/{id}
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svcs.Categories.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecalculateProductCounts handles POST /api/v1/admin/categories/recalculate-counts
func (h *AdminHandler) RecalculateProductCounts(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svcs.Categories.RecalculateProductCounts(r.Context())
	h.respond(w, r, http.StatusOK, categories, err)
}

// --- Orders ---

// ListOrders handles GET /api/v1/admin/orders?status=&user_id=
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter := domain.OrderFilter{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		UserID: r.URL.Query().Get("user_id"),
	}
	page, err := h.svcs.Orders.ListOrders(r.Context(), filter, pagination.FromRequest(r, adminPageLimit))
	h.respond(w, r, http.StatusOK, page, err)
}

// GetOrder handles GET /api/v1/admin/orders/{id}
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svcs.Orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, o, err)
}

// UpdateOrder handles PATCH /api/v1/admin/orders/{id}
func (h *AdminHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.OrderUpdate
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	o, err := h.svcs.Orders.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), req)
	h.respond(w, r, http.StatusOK, o, err)
}

// BulkUpdateOrderStatus handles POST /api/v1/admin/orders/bulk-status
func (h *AdminHandler) BulkUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	orders, err := h.svcs.Orders.BulkUpdateOrderStatus(r.Context(), req.OrderIDs, req.Status)
	h.respond(w, r, http.StatusOK, orders, err)
}

// --- Inventory ---

// ListInventory handles GET /api/v1/admin/inventory
func (h *AdminHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.svcs.Inventory.ListInventory(r.Context())
	h.respond(w, r, http.StatusOK, items, err)
}

// LowStock handles GET /api/v1/admin/inventory/low-stock
func (h *AdminHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.svcs.Analytics.GetLowStockProducts(r.Context())
	h.respond(w, r, http.StatusOK, items, err)
}

// SetStock handles PUT /api/v1/admin/inventory/{id}
func (h *AdminHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	item, err := h.svcs.Inventory.SetStock(r.Context(), chi.URLParam(r, "id"), *req.Stock)
	h.respond(w, r, http.StatusOK, item, err)
}

// BulkAdjustStock handles POST /api/v1/admin/inventory/bulk-adjust
func (h *AdminHandler) BulkAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req bulkAdjustRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	items, err := h.svcs.Inventory.BulkAdjustStock(r.Context(), req.ProductIDs, req.Delta)
	h.respond(w, r, http.StatusOK, items, err)
}

// --- Users ---

// ListUsers handles GET /api/v1/admin/users?role=&is_active=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r, "is_active")
	if err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	filter := domain.UserFilter{Role: domain.Role(r.URL.Query().Get("role")), IsActive: active}
	page, err := h.svcs.Users.ListUsers(r.Context(), filter, pagination.FromRequest(r, adminPageLimit))
	h.respond(w, r, http.StatusOK, page, err)
}

// GetUser handles GET /api/v1/admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svcs.Users.GetUser(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, u, err)
}

// UpdateUser handles PATCH /api/v1/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UserUpdate
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	u, err := h.svcs.Users.UpdateUser(r.Context(), chi.URLParam(r, "id"), req)
	h.respond(w, r, http.StatusOK, u, err)
}

// --- Notifications ---

// ListNotifications handles GET /api/v1/admin/notifications?unread=&limit=
func (h *AdminHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	unread, err := queryBool(r, "unread")
	if err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	list, err := h.svcs.Notifications.ListNotifications(r.Context(), unread != nil && *unread, limit)
	h.respond(w, r, http.StatusOK, list, err)
}

// MarkNotificationRead handles POST /api/v1/admin/notifications/{id}/read
func (h *AdminHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svcs.Notifications.MarkNotificationRead(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, n, err)
}

// --- Settings ---

// GetSettings handles GET /api/v1/admin/settings
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.svcs.Settings.GetSettings(r.Context())
	h.respond(w, r, http.StatusOK, s, err)
}

// UpdateSettings handles PATCH /api/v1/admin/settings
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req service.SettingsPatch
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	s, err := h.svcs.Settings.UpdateSettings(r.Context(), req)
	h.respond(w, r, http.StatusOK, s, err)
}
