// Package sandbox is an in-memory stand-in for the storefront REST backend and its
// payment provider, used for local runs and client integration tests.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/luxejewel-storefront/internal/auth"
	"github.com/example/luxejewel-storefront/internal/domain/cart"
	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/example/luxejewel-storefront/internal/domain/user"
	"github.com/example/luxejewel-storefront/internal/gateway"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRegistration = errors.New("name, email and password are required")
	ErrUserNotFound        = errors.New("user not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrCartNotFound        = errors.New("cart not found")
	ErrItemNotInCart       = errors.New("item not in cart")
	ErrCartEmpty           = errors.New("cart is empty")
	ErrOutOfStock          = errors.New("out of stock")
	ErrOrderNotFound       = errors.New("order not found")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrPaymentVerification = errors.New("payment verification failed")
)

const recentOrdersLimit = 10

// Service applies the storefront backend rules to the in-memory store.
type Service struct {
	// mu serialises read-modify-write sequences across store calls.
	mu sync.Mutex

	store    *Store
	hasher   *auth.PasswordHasher
	payments *PaymentGateway
	currency string
	log      log.FieldLogger
	now      func() time.Time
}

func NewService(store *Store, hasher *auth.PasswordHasher, payments *PaymentGateway, currency string, logger log.FieldLogger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		store:    store,
		hasher:   hasher,
		payments: payments,
		currency: currency,
		log:      logger.WithField("component", "sandbox"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Payments() *PaymentGateway { return s.payments }

// Accounts

func (s *Service) Register(ctx context.Context, name, email, password string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return user.User{}, ErrInvalidRegistration
	}
	if _, _, exists := s.store.AccountByEmail(email); exists {
		return user.User{}, ErrEmailTaken
	}
	return s.createAccount(name, email, password, false)
}

func (s *Service) createAccount(name, email, password string, isAdmin bool) (user.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user.User{}, err
	}
	u := user.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		IsAdmin:   isAdmin,
		CreatedAt: s.now(),
	}
	s.store.PutAccount(u, hash)
	s.log.WithFields(log.Fields{"user_id": u.ID, "admin": isAdmin}).Info("Account created")
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	u, hash, ok := s.store.AccountByEmail(normalizeEmail(email))
	if !ok || !s.hasher.Check(password, hash) {
		return user.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) User(ctx context.Context, id string) (user.User, error) {
	u, ok := s.store.User(id)
	if !ok {
		return user.User{}, ErrUserNotFound
	}
	return u, nil
}

// Catalogue

func (s *Service) Products(ctx context.Context, category string) []product.Product {
	return s.store.Products(category)
}

func (s *Service) Product(ctx context.Context, id string) (product.Product, error) {
	p, ok := s.store.Product(id)
	if !ok {
		return product.Product{}, ErrProductNotFound
	}
	return p, nil
}

// Categories returns the distinct product categories in name order.
func (s *Service) Categories(ctx context.Context) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, p := range s.store.Products("") {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	if categories == nil {
		categories = []string{}
	}
	return categories
}

func (s *Service) CreateProduct(ctx context.Context, in product.Input) (product.Product, error) {
	if err := in.Validate(); err != nil {
		return product.Product{}, err
	}
	p := fromInput(uuid.NewString(), in, s.now())
	s.store.PutProduct(p)
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in product.Input) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.store.Product(id)
	if !ok {
		return product.Product{}, ErrProductNotFound
	}
	if err := in.Validate(); err != nil {
		return product.Product{}, err
	}
	p := fromInput(id, in, existing.CreatedAt)
	s.store.PutProduct(p)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if !s.store.DeleteProduct(id) {
		return ErrProductNotFound
	}
	return nil
}

func fromInput(id string, in product.Input, createdAt time.Time) product.Product {
	return product.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Stock:       in.Stock,
		CreatedAt:   createdAt,
	}
}

// Cart

// Cart joins the user's lines with current product data. Lines whose product was
// deleted are skipped.
func (s *Service) Cart(ctx context.Context, userID string) cart.Cart {
	c := cart.Empty()
	for _, line := range s.store.CartLines(userID) {
		if p, ok := s.store.Product(line.ProductID); ok {
			c.Items = append(c.Items, cart.Item{Product: p, Quantity: line.Quantity})
		}
	}
	return c
}

// AddToCart merges quantity into an existing line or appends a new one.
func (s *Service) AddToCart(ctx context.Context, userID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.Product(productID); !ok {
		return ErrProductNotFound
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	lines := s.store.CartLines(userID)
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += quantity
			s.store.PutCartLines(userID, lines)
			return nil
		}
	}
	s.store.PutCartLines(userID, append(lines, cartLine{ProductID: productID, Quantity: quantity}))
	return nil
}

// UpdateCartItem sets a line's quantity; zero or less removes the line.
func (s *Service) UpdateCartItem(ctx context.Context, userID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.store.CartLines(userID)
	if len(lines) == 0 {
		return ErrCartNotFound
	}
	for i := range lines {
		if lines[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			lines = append(lines[:i], lines[i+1:]...)
		} else {
			lines[i].Quantity = quantity
		}
		s.store.PutCartLines(userID, lines)
		return nil
	}
	return ErrItemNotInCart
}

func (s *Service) ClearCart(ctx context.Context, userID string) {
	s.store.PutCartLines(userID, nil)
}

// Orders

// CreateOrder snapshots the cart into a pending order and opens a gateway order for
// its total. The cart is left intact until payment is verified.
func (s *Service) CreateOrder(ctx context.Context, userID string, address order.ShippingAddress) (order.Created, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.store.CartLines(userID)
	if len(lines) == 0 {
		return order.Created{}, ErrCartEmpty
	}

	items := make([]order.Item, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		p, ok := s.store.Product(line.ProductID)
		if !ok {
			return order.Created{}, fmt.Errorf("product unknown %w", ErrOutOfStock)
		}
		if p.Stock < line.Quantity {
			return order.Created{}, fmt.Errorf("product %s %w", p.Name, ErrOutOfStock)
		}
		item := order.Item{ProductID: p.ID, ProductName: p.Name, Quantity: line.Quantity, Price: p.Price}
		items = append(items, item)
		total = total.Add(item.Subtotal())
	}

	gatewayOrderID := s.payments.CreateOrder(gateway.MinorUnits(total), s.currency)
	o := order.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		Status:          order.StatusPending,
		PaymentStatus:   order.PaymentPending,
		ShippingAddress: address,
		RazorpayOrderID: gatewayOrderID,
		CreatedAt:       s.now(),
	}
	s.store.PutOrder(o)
	s.log.WithFields(log.Fields{"order_id": o.ID, "razorpay_order_id": gatewayOrderID, "total": total.String()}).Info("Order created")

	return order.Created{
		OrderID:         o.ID,
		RazorpayOrderID: gatewayOrderID,
		Amount:          total,
		Currency:        s.currency,
		KeyID:           s.payments.KeyID(),
	}, nil
}

// VerifyPayment checks the gateway signature. On success the order is confirmed,
// stock is decremented and the cart cleared; otherwise the payment is marked failed.
func (s *Service) VerifyPayment(ctx context.Context, userID string, v order.PaymentVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.store.Order(v.OrderID)
	if !ok {
		return ErrOrderNotFound
	}
	if !s.payments.Verify(v.RazorpayOrderID, v.RazorpayPaymentID, v.RazorpaySignature) || v.RazorpayOrderID != o.RazorpayOrderID {
		o.PaymentStatus = order.PaymentFailed
		s.store.PutOrder(o)
		s.log.WithField("order_id", o.ID).Warn("Payment signature rejected")
		return ErrPaymentVerification
	}

	o.PaymentStatus = order.PaymentCompleted
	o.Status = order.StatusConfirmed
	o.RazorpayPaymentID = v.RazorpayPaymentID
	s.store.PutOrder(o)
	for _, item := range o.Items {
		s.store.AdjustStock(item.ProductID, -item.Quantity)
	}
	s.store.PutCartLines(userID, nil)
	s.log.WithFields(log.Fields{"order_id": o.ID, "razorpay_payment_id": v.RazorpayPaymentID}).Info("Payment verified")
	return nil
}

// Orders lists the caller's orders, or every order for an admin.
func (s *Service) Orders(ctx context.Context, caller user.User) []order.Order {
	if caller.IsAdmin {
		return s.store.Orders("")
	}
	return s.store.Orders(caller.ID)
}

func (s *Service) Order(ctx context.Context, caller user.User, id string) (order.Order, error) {
	o, ok := s.store.Order(id)
	if !ok {
		return order.Order{}, ErrOrderNotFound
	}
	if o.UserID != caller.ID && !caller.IsAdmin {
		return order.Order{}, ErrNotAuthorized
	}
	return o, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.store.Order(id)
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	s.store.PutOrder(o)
	return nil
}

// Analytics summarises the store for the admin dashboard. Revenue and category sales
// count only orders whose payment completed.
func (s *Service) Analytics(ctx context.Context) order.Analytics {
	orders := s.store.Orders("")
	a := order.Analytics{
		TotalProducts: len(s.store.Products("")),
		TotalOrders:   len(orders),
		TotalUsers:    s.store.CountCustomers(),
		TotalRevenue:  decimal.Zero,
		RecentOrders:  orders,
		CategorySales: make(map[string]decimal.Decimal),
	}
	if len(a.RecentOrders) > recentOrdersLimit {
		a.RecentOrders = a.RecentOrders[:recentOrdersLimit]
	}

	for _, o := range orders {
		if !o.Paid() {
			continue
		}
		a.TotalRevenue = a.TotalRevenue.Add(o.TotalAmount)
		for _, item := range o.Items {
			p, ok := s.store.Product(item.ProductID)
			if !ok {
				continue
			}
			a.CategorySales[p.Category] = a.CategorySales[p.Category].Add(item.Subtotal())
		}
	}
	return a
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
