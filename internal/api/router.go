package api

import (
	"net/http"
	"time"

	"github.com/example/luxejewel-storefront/internal/api/middleware"
	"github.com/example/luxejewel-storefront/internal/auth"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// NewRouter mounts the storefront REST API under /api and the sandbox payment
// provider under /sandbox.
func NewRouter(handlers *Handlers, gatewayHandlers *GatewayHandlers, jwtService *auth.JWTService, logger log.FieldLogger) http.Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	authed := func(f http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(jwtService)(f)
	}
	admin := func(f http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(jwtService)(middleware.RequireAdmin(f))
	}

	r := mux.NewRouter()
	r.Use(withLogging(logger.WithField("component", "http")))

	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/register", handlers.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", handlers.Login).Methods(http.MethodPost)
	api.Handle("/auth/me", authed(handlers.Me)).Methods(http.MethodGet)

	// Products
	api.HandleFunc("/products", handlers.GetProducts).Methods(http.MethodGet)
	api.Handle("/products", admin(handlers.CreateProduct)).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", handlers.GetProduct).Methods(http.MethodGet)
	api.Handle("/products/{id}", admin(handlers.UpdateProduct)).Methods(http.MethodPut)
	api.Handle("/products/{id}", admin(handlers.DeleteProduct)).Methods(http.MethodDelete)
	api.HandleFunc("/categories", handlers.ListCategories).Methods(http.MethodGet)

	// Cart
	api.Handle("/cart", authed(handlers.GetCart)).Methods(http.MethodGet)
	api.Handle("/cart/add", authed(handlers.AddToCart)).Methods(http.MethodPost)
	api.Handle("/cart/update", authed(handlers.UpdateCartItem)).Methods(http.MethodPut)
	api.Handle("/cart/clear", authed(handlers.ClearCart)).Methods(http.MethodDelete)

	// Orders
	api.Handle("/orders/create", authed(handlers.CreateOrder)).Methods(http.MethodPost)
	api.Handle("/orders/verify-payment", authed(handlers.VerifyPayment)).Methods(http.MethodPost)
	api.Handle("/orders", authed(handlers.GetOrders)).Methods(http.MethodGet)
	api.Handle("/orders/{id}", authed(handlers.GetOrder)).Methods(http.MethodGet)
	api.Handle("/orders/{id}/status", admin(handlers.UpdateOrderStatus)).Methods(http.MethodPut)

	// Admin
	api.Handle("/admin/analytics", admin(handlers.GetAnalytics)).Methods(http.MethodGet)

	// Sandbox payment provider
	r.HandleFunc("/sandbox/checkout.js", gatewayHandlers.CheckoutScript).Methods(http.MethodGet)
	r.HandleFunc("/sandbox/pay", gatewayHandlers.Pay).Methods(http.MethodPost)
	r.HandleFunc("/sandbox/pay", gatewayHandlers.Preflight).Methods(http.MethodOptions)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func withLogging(logger log.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.WithFields(log.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"elapsed":    time.Since(started),
				"request_id": r.Header.Get("X-Request-ID"),
			}).Info("Request handled")
		})
	}
}
