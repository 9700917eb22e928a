package transport

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const emptyCartMessage = "Your cart is empty."

// CartItemRequest identifies a product in the cart
type CartItemRequest struct {
	ID ProductRef `json:"id" validate:"required"`
}

// CartUpdateRequest changes the quantity of one cart entry
type CartUpdateRequest struct {
	ID     ProductRef `json:"id" validate:"required"`
	Action string     `json:"action" validate:"required,oneof=increase decrease"`
}

// TrackRequest looks up orders by buyer email
type TrackRequest struct {
	Email string `json:"email" validate:"required"`
}

// CartTotalsResponse is returned by cart mutations
type CartTotalsResponse struct {
	Success       bool            `json:"success"`
	Total         decimal.Decimal `json:"total"`
	TotalQuantity int             `json:"total_qty"`
	Quantity      *int            `json:"qty,omitempty"`
}

// TrackResponse lists the orders placed with an email
type TrackResponse struct {
	Email   string         `json:"email"`
	Orders  []domain.Order `json:"orders"`
	Message string         `json:"message,omitempty"`
}

// StorefrontHandler handles the visitor-facing catalog, cart, checkout and tracking endpoints
type StorefrontHandler struct {
	catalog  service.Catalog
	carts    service.CartService
	checkout service.CheckoutService
	ledger   service.OrderLedger
	logger   *zap.Logger
}

// NewStorefrontHandler creates a new StorefrontHandler
func NewStorefrontHandler(
	catalog service.Catalog,
	carts service.CartService,
	checkout service.CheckoutService,
	ledger service.OrderLedger,
	logger *zap.Logger,
) *StorefrontHandler {
	return &StorefrontHandler{
		catalog:  catalog,
		carts:    carts,
		checkout: checkout,
		ledger:   ledger,
		logger:   logger,
	}
}

// RegisterRoutes registers the storefront routes. sessions must attach a visitor session.
func (h *StorefrontHandler) RegisterRoutes(r chi.Router, sessions func(http.Handler) http.Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(sessions)

			r.Get("/cart", h.GetCart)
			r.Get("/cart/count", h.CartCount)
			r.Post("/cart/add", h.AddToCart)
			r.Post("/cart/update", h.UpdateCart)
			r.Post("/cart/remove", h.RemoveFromCart)

			r.Post("/checkout", h.Checkout)
			r.Post("/checkout/details", h.CheckoutDetails)
			r.Get("/checkout/success", h.CheckoutSuccess)
		})

		r.Get("/track", h.TrackOrders)
		r.Post("/track", h.TrackOrders)
	})
}

// ListProducts returns the catalog in catalog order
func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.catalog.GetAll(r.Context()))
}

func (h *StorefrontHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// GetCart returns the cart priced against the live catalog
func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, h.carts.BuildDetails(r.Context(), sess.Cart))
}

// CartCount returns the raw number of units in the cart
func (h *StorefrontHandler) CartCount(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"count": sess.Cart.TotalQuantity()})
}

func (h *StorefrontHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	var req CartItemRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	sess.Cart.Add(req.ID.String())
	h.logger.Debug("Added to cart", zap.String("product_id", req.ID.String()))

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Added to cart successfully!",
		"cartCount": sess.Cart.TotalQuantity(),
	})
}

func (h *StorefrontHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	var req CartUpdateRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if err := sess.Cart.Update(req.ID.String(), domain.CartAction(req.Action)); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	qty := sess.Cart.Quantity(req.ID.String())
	resp := h.totals(r, sess.Cart)
	resp.Quantity = &qty
	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *StorefrontHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	var req CartItemRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	sess.Cart.Remove(req.ID.String())
	middleware.RespondWithJSON(w, http.StatusOK, h.totals(r, sess.Cart))
}

// Checkout checks that there is something to buy before the details form
func (h *StorefrontHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	if sess.Cart.IsEmpty() {
		middleware.RespondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": emptyCartMessage,
		})
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"redirect": "/api/checkout/details",
	})
}

// CheckoutDetails places the order from the submitted buyer details
func (h *StorefrontHandler) CheckoutDetails(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	if sess.Cart.IsEmpty() {
		h.redirectToCart(w)
		return
	}

	var buyer domain.BuyerInfo
	if !decodeRequest(w, r, &buyer, h.logger) {
		return
	}

	order, err := h.checkout.PlaceOrder(r.Context(), buyer, sess.Cart)
	if errors.Is(err, domain.ErrEmptyCart) {
		h.redirectToCart(w)
		return
	}
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	sess.SetLastBuyer(order.Buyer)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// CheckoutSuccess returns the buyer details of the session's most recent checkout
func (h *StorefrontHandler) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	if sess.LastBuyer == nil {
		middleware.RespondWithError(w, http.StatusNotFound, "no recent checkout")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"user": sess.LastBuyer})
}

// TrackOrders lists the orders placed with an email, from the query string or the body
func (h *StorefrontHandler) TrackOrders(w http.ResponseWriter, r *http.Request) {
	var email string
	if r.Method == http.MethodGet {
		email = r.URL.Query().Get("email")
	} else {
		var req TrackRequest
		if !decodeRequest(w, r, &req, h.logger) {
			return
		}
		email = req.Email
	}

	email = domain.NormalizeEmail(email)
	if email == "" {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: "email", Message: "This field is required"}})
		return
	}

	orders := h.ledger.GetByEmail(r.Context(), email)
	if len(orders) == 0 {
		middleware.RespondWithJSON(w, http.StatusNotFound, TrackResponse{
			Email:   email,
			Orders:  []domain.Order{},
			Message: "No orders found for " + email + ".",
		})
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, TrackResponse{Email: email, Orders: orders})
}

func (h *StorefrontHandler) totals(r *http.Request, cart *domain.Cart) CartTotalsResponse {
	total, qty := h.carts.Totals(r.Context(), cart)
	return CartTotalsResponse{Success: true, Total: total, TotalQuantity: qty}
}

func (h *StorefrontHandler) redirectToCart(w http.ResponseWriter) {
	w.Header().Set("Location", "/api/cart")
	middleware.RespondWithJSON(w, http.StatusSeeOther, map[string]string{"warning": emptyCartMessage})
}
