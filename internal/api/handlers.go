package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/luxejewel-storefront/internal/api/middleware"
	"github.com/example/luxejewel-storefront/internal/auth"
	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/example/luxejewel-storefront/internal/domain/user"
	"github.com/example/luxejewel-storefront/internal/domain/validate"
	"github.com/example/luxejewel-storefront/internal/sandbox"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handlers struct {
	svc        *sandbox.Service
	jwtService *auth.JWTService
	log        log.FieldLogger
}

func NewHandlers(svc *sandbox.Service, jwtService *auth.JWTService, logger log.FieldLogger) *Handlers {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Handlers{
		svc:        svc,
		jwtService: jwtService,
		log:        logger.WithField("component", "api"),
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	ShippingAddress order.ShippingAddress `json:"shipping_address"`
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Products(r.Context(), r.URL.Query().Get("category")))
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Product(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.svc.CreateProduct(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.log.WithFields(log.Fields{"product_id": p.ID, "admin_id": middleware.GetUserID(r.Context())}).Info("Product created")
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.svc.UpdateProduct(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.log.WithFields(log.Fields{"product_id": id, "admin_id": middleware.GetUserID(r.Context())}).Info("Product deleted")
	respondJSON(w, http.StatusOK, messageResponse{Message: "Product deleted"})
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Cart(r.Context(), middleware.GetUserID(r.Context())))
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.AddToCart(r.Context(), middleware.GetUserID(r.Context()), req.ProductID, req.Quantity); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Item added to cart"})
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateCartItem(r.Context(), middleware.GetUserID(r.Context()), req.ProductID, req.Quantity); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Cart updated"})
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearCart(r.Context(), middleware.GetUserID(r.Context()))
	respondJSON(w, http.StatusOK, messageResponse{Message: "Cart cleared"})
}

// Order Handlers

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.ShippingAddress.Validate(); err != nil {
		h.respondError(w, err)
		return
	}

	created, err := h.svc.CreateOrder(r.Context(), middleware.GetUserID(r.Context()), req.ShippingAddress)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, created)
}

func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req order.PaymentVerification
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.VerifyPayment(r.Context(), middleware.GetUserID(r.Context()), req); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Payment verified successfully"})
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Orders(r.Context(), caller(r)))
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Order(r.Context(), caller(r), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// UpdateOrderStatus reads the new status from the status query parameter.
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	status, err := order.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.svc.UpdateOrderStatus(r.Context(), mux.Vars(r)["id"], status); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Order status updated"})
}

// Admin Handlers

func (h *Handlers) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Analytics(r.Context()))
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"detail": message})
}

// respondError maps service errors to status codes. Unexpected errors are logged and
// hidden from the caller.
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).Error("Request failed")
		respondJSONError(w, "Internal server error", status)
		return
	}
	respondJSONError(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, validate.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sandbox.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, sandbox.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, sandbox.ErrProductNotFound),
		errors.Is(err, sandbox.ErrOrderNotFound),
		errors.Is(err, sandbox.ErrCartNotFound),
		errors.Is(err, sandbox.ErrItemNotInCart),
		errors.Is(err, sandbox.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, sandbox.ErrEmailTaken),
		errors.Is(err, sandbox.ErrInvalidRegistration),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, sandbox.ErrInvalidQuantity),
		errors.Is(err, sandbox.ErrCartEmpty),
		errors.Is(err, sandbox.ErrOutOfStock),
		errors.Is(err, sandbox.ErrPaymentVerification),
		errors.Is(err, order.ErrUnknownStatus):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// caller rebuilds the requesting user from the token claims.
func caller(r *http.Request) user.User {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return user.User{}
	}
	return user.User{ID: claims.UserID, Email: claims.Email, IsAdmin: claims.IsAdmin}
}
