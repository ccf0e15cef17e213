package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// AccountHandler serves a customer's own orders and wishlist.
type AccountHandler struct {
	orders   *service.OrderService
	wishlist *service.WishlistService
	logger   *slog.Logger
}

func NewAccountHandler(orders *service.OrderService, wishlist *service.WishlistService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{orders: orders, wishlist: wishlist, logger: logger}
}

type wishlistRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// ListMyOrders handles GET /api/v1/orders
func (h *AccountHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	page, err := h.orders.ListMyOrders(r.Context(), userID(r), pagination.FromRequest(r, pagination.DefaultLimit))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, page)
}

// GetMyOrder handles GET /api/v1/orders/{id}
func (h *AccountHandler) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetMyOrder(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// ListWishlist handles GET /api/v1/wishlist
func (h *AccountHandler) ListWishlist(w http.ResponseWriter, r *http.Request) {
	products, err := h.wishlist.List(r.Context(), userID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// AddToWishlist handles POST /api/v1/wishlist
func (h *AccountHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	list, err := h.wishlist.Add(r.Context(), userID(r), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, list)
}

// RemoveFromWishlist handles DELETE /api/v1/wishlist/{productID}
func (h *AccountHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	list, err := h.wishlist.Remove(r.Context(), userID(r), chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, list)
}

// ClearWishlist handles DELETE /api/v1/wishlist
func (h *AccountHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	list, err := h.wishlist.Clear(r.Context(), userID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, list)
}
