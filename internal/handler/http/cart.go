package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// CartHandler serves the signed-in user's cart and checkout.
type CartHandler struct {
	cart   *service.CartService
	logger *slog.Logger
}

func NewCartHandler(cart *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{cart: cart, logger: logger}
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type shippingOptionRequest struct {
	ShippingOption domain.ShippingOption `json:"shipping_option" validate:"required"`
}

type discountRequest struct {
	Code string `json:"code" validate:"required,max=50"`
}

func (h *CartHandler) write(w http.ResponseWriter, r *http.Request, cart *domain.Cart, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.GetCart(r.Context(), userID(r))
	h.write(w, r, cart, err)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.ClearCart(r.Context(), userID(r))
	h.write(w, r, cart, err)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItemInput
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	cart, err := h.cart.AddItem(r.Context(), userID(r), req)
	h.write(w, r, cart, err)
}

// UpdateQuantity handles PATCH /api/v1/cart/items/{lineID}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	cart, err := h.cart.UpdateQuantity(r.Context(), userID(r), chi.URLParam(r, "lineID"), req.Quantity)
	h.write(w, r, cart, err)
}

// RemoveItem handles DELETE /api/v1/cart/items/{lineID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.RemoveItem(r.Context(), userID(r), chi.URLParam(r, "lineID"))
	h.write(w, r, cart, err)
}

// SetShippingOption handles PUT /api/v1/cart/shipping-option
func (h *CartHandler) SetShippingOption(w http.ResponseWriter, r *http.Request) {
	var req shippingOptionRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	cart, err := h.cart.SetShippingOption(r.Context(), userID(r), req.ShippingOption)
	h.write(w, r, cart, err)
}

// ApplyDiscount handles POST /api/v1/cart/discount
func (h *CartHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	cart, err := h.cart.ApplyDiscount(r.Context(), userID(r), req.Code)
	h.write(w, r, cart, err)
}

// RemoveDiscount handles DELETE /api/v1/cart/discount
func (h *CartHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.RemoveDiscount(r.Context(), userID(r))
	h.write(w, r, cart, err)
}

// SetShippingDetails handles PUT /api/v1/cart/shipping-details
func (h *CartHandler) SetShippingDetails(w http.ResponseWriter, r *http.Request) {
	var req service.ShippingDetailsInput
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	cart, err := h.cart.SetShippingDetails(r.Context(), userID(r), req)
	h.write(w, r, cart, err)
}

// PlaceOrder handles POST /api/v1/cart/checkout
func (h *CartHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderInput
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, r, err)
		return
	}
	order, err := h.cart.PlaceOrder(r.Context(), userID(r), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, order)
}
