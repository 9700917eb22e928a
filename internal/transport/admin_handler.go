package transport

import (
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LoginRequest represents the admin login payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the admin token for clients that do not use the cookie
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StatusRequest sets the free-text status of an order
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ProductRequest creates a product
type ProductRequest struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Image       string           `json:"image"`
}

// ProductUpdateRequest partially updates a product; absent fields are kept
type ProductUpdateRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
	Status      *string          `json:"status" validate:"omitempty,oneof=available out-of-stock"`
}

// CustomerDetailResponse is a customer with their resolved orders
type CustomerDetailResponse struct {
	Customer *domain.Customer `json:"customer"`
	Orders   []domain.Order   `json:"orders"`
}

// AdminHandler handles the back-office endpoints
type AdminHandler struct {
	admins       service.AdminService
	office       service.BackOffice
	catalog      service.Catalog
	ledger       service.OrderLedger
	directory    service.CustomerDirectory
	secureCookie bool
	logger       *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	admins service.AdminService,
	office service.BackOffice,
	catalog service.Catalog,
	ledger service.OrderLedger,
	directory service.CustomerDirectory,
	secureCookie bool,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		admins:       admins,
		office:       office,
		catalog:      catalog,
		ledger:       ledger,
		directory:    directory,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// RegisterRoutes registers all admin routes behind the auth and role gates
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, requireAdmin)

			r.Get("/dashboard", h.Dashboard)

			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{id}", h.GetOrder)
			r.Post("/orders/{id}/status", h.UpdateOrderStatus)

			r.Get("/customers", h.ListCustomers)
			r.Get("/customers/{id}", h.GetCustomer)

			r.Get("/products", h.ListProducts)
			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)
			r.Post("/products/{id}/toggle", h.ToggleProduct)
		})
	})
}

// Login checks the admin credentials and issues the admin token
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	token, expiresAt, err := h.admins.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("Admin login failed", zap.String("username", req.Username))
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    token,
		Path:     "/api/admin",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	h.logger.Info("Admin logged in", zap.String("username", req.Username))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// Logout clears the admin cookie
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    "",
		Path:     "/api/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.office.Dashboard(r.Context()))
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.ledger.GetAll(r.Context()))
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	order, err := h.ledger.GetByID(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req StatusRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	order, err := h.office.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *AdminHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.directory.GetAll(r.Context()))
}

func (h *AdminHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	customer, orders, err := h.office.CustomerWithOrders(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, CustomerDetailResponse{Customer: customer, Orders: orders})
}

func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.catalog.GetAll(r.Context()))
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.catalog.Add(r.Context(), domain.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Image:       req.Image,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ProductUpdateRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	patch := domain.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
	}
	if req.Status != nil {
		status := domain.ProductStatus(*req.Status)
		patch.Status = &status
	}

	product, err := h.catalog.Update(r.Context(), id, patch)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ToggleProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.ToggleStatus(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}
