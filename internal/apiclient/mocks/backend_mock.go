package mocks

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/example/luxejewel-storefront/internal/apiclient"
	"github.com/example/luxejewel-storefront/internal/domain/cart"
	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/domain/product"
)

// Call records one backend operation and its arguments.
type Call struct {
	Op   string
	Args []any
}

// MockBackend is an in-memory stand-in for the REST backend used by package tests.
// Errors set in Fail are returned by the named operation instead of touching state.
type MockBackend struct {
	mu       sync.Mutex
	products map[string]product.Product
	lines    []cartLine
	orders   []order.Order

	Calls []Call
	Fail  map[string]error

	Created      *order.Created
	Categories   []string
	AnalyticsOut *order.Analytics
}

type cartLine struct {
	productID string
	quantity  int
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		products: make(map[string]product.Product),
		Calls:    make([]Call, 0),
		Fail:     make(map[string]error),
	}
}

// AddProduct seeds the catalogue.
func (m *MockBackend) AddProduct(p product.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// SetCartLine seeds the backend cart directly.
func (m *MockBackend) SetCartLine(productID string, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLine(productID, quantity)
}

// AddOrder seeds an order.
func (m *MockBackend) AddOrder(o order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, o)
}

// Order returns a seeded order by id.
func (m *MockBackend) Order(id string) (order.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return o, true
		}
	}
	return order.Order{}, false
}

// CallCount returns how many times op was invoked.
func (m *MockBackend) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// CallsTo returns the recorded calls to op in order.
func (m *MockBackend) CallsTo(op string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var calls []Call
	for _, c := range m.Calls {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

// Reset clears recorded calls and injected failures but keeps data.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]Call, 0)
	m.Fail = make(map[string]error)
}

func (m *MockBackend) record(op string, args ...any) error {
	m.Calls = append(m.Calls, Call{Op: op, Args: args})
	return m.Fail[op]
}

func notFound(method, path string) error {
	return &apiclient.Error{Method: method, Path: path, StatusCode: http.StatusNotFound, Detail: "Not found"}
}

func (m *MockBackend) setLine(productID string, quantity int) {
	for i, l := range m.lines {
		if l.productID == productID {
			if quantity <= 0 {
				m.lines = append(m.lines[:i], m.lines[i+1:]...)
			} else {
				m.lines[i].quantity = quantity
			}
			return
		}
	}
	if quantity > 0 {
		m.lines = append(m.lines, cartLine{productID: productID, quantity: quantity})
	}
}

// Catalog

func (m *MockBackend) ListProducts(ctx context.Context, category string) ([]product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListProducts", category); err != nil {
		return nil, err
	}
	products := make([]product.Product, 0, len(m.products))
	for _, p := range m.products {
		if category == "" || p.Category == category {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (m *MockBackend) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetProduct", id); err != nil {
		return nil, err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, notFound(http.MethodGet, "/products/"+id)
	}
	return &p, nil
}

func (m *MockBackend) ListCategories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListCategories"); err != nil {
		return nil, err
	}
	return append([]string(nil), m.Categories...), nil
}

// Cart

func (m *MockBackend) GetCart(ctx context.Context) (cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetCart"); err != nil {
		return cart.Cart{}, err
	}
	c := cart.Empty()
	for _, l := range m.lines {
		if p, ok := m.products[l.productID]; ok {
			c.Items = append(c.Items, cart.Item{Product: p, Quantity: l.quantity})
		}
	}
	return c, nil
}

func (m *MockBackend) AddToCart(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("AddToCart", productID, quantity); err != nil {
		return err
	}
	if _, ok := m.products[productID]; !ok {
		return notFound(http.MethodPost, "/cart/add")
	}
	existing := 0
	for _, l := range m.lines {
		if l.productID == productID {
			existing = l.quantity
		}
	}
	m.setLine(productID, existing+quantity)
	return nil
}

func (m *MockBackend) UpdateCartItem(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateCartItem", productID, quantity); err != nil {
		return err
	}
	for _, l := range m.lines {
		if l.productID == productID {
			m.setLine(productID, quantity)
			return nil
		}
	}
	return notFound(http.MethodPut, "/cart/update")
}

func (m *MockBackend) ClearCart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ClearCart"); err != nil {
		return err
	}
	m.lines = nil
	return nil
}

// Orders

func (m *MockBackend) CreateOrder(ctx context.Context, address order.ShippingAddress) (*order.Created, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateOrder", address); err != nil {
		return nil, err
	}
	if m.Created == nil {
		return nil, fmt.Errorf("mock: no Created response configured")
	}
	created := *m.Created
	m.orders = append(m.orders, order.Order{
		ID:              created.OrderID,
		TotalAmount:     created.Amount,
		Status:          order.StatusPending,
		PaymentStatus:   order.PaymentPending,
		ShippingAddress: address,
		RazorpayOrderID: created.RazorpayOrderID,
	})
	return &created, nil
}

func (m *MockBackend) VerifyPayment(ctx context.Context, v order.PaymentVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("VerifyPayment", v); err != nil {
		for i := range m.orders {
			if m.orders[i].ID == v.OrderID {
				m.orders[i].PaymentStatus = order.PaymentFailed
			}
		}
		return err
	}
	for i := range m.orders {
		if m.orders[i].ID == v.OrderID {
			m.orders[i].Status = order.StatusConfirmed
			m.orders[i].PaymentStatus = order.PaymentCompleted
			m.orders[i].RazorpayPaymentID = v.RazorpayPaymentID
			m.lines = nil
			return nil
		}
	}
	return notFound(http.MethodPost, "/orders/verify-payment")
}

func (m *MockBackend) ListOrders(ctx context.Context) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListOrders"); err != nil {
		return nil, err
	}
	return append([]order.Order{}, m.orders...), nil
}

func (m *MockBackend) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetOrder", id); err != nil {
		return nil, err
	}
	for _, o := range m.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, notFound(http.MethodGet, "/orders/"+id)
}

// Admin

func (m *MockBackend) Analytics(ctx context.Context) (*order.Analytics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Analytics"); err != nil {
		return nil, err
	}
	if m.AnalyticsOut == nil {
		return &order.Analytics{}, nil
	}
	a := *m.AnalyticsOut
	return &a, nil
}

func (m *MockBackend) CreateProduct(ctx context.Context, in product.Input) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateProduct", in); err != nil {
		return nil, err
	}
	p := product.Product{
		ID:          fmt.Sprintf("prod-%d", len(m.products)+1),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Stock:       in.Stock,
	}
	m.products[p.ID] = p
	return &p, nil
}

func (m *MockBackend) UpdateProduct(ctx context.Context, id string, in product.Input) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateProduct", id, in); err != nil {
		return nil, err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, notFound(http.MethodPut, "/products/"+id)
	}
	p.Name, p.Description, p.Price = in.Name, in.Description, in.Price
	p.Category, p.ImageURL, p.Stock = in.Category, in.ImageURL, in.Stock
	m.products[id] = p
	return &p, nil
}

func (m *MockBackend) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteProduct", id); err != nil {
		return err
	}
	if _, ok := m.products[id]; !ok {
		return notFound(http.MethodDelete, "/products/"+id)
	}
	delete(m.products, id)
	return nil
}

func (m *MockBackend) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateOrderStatus", id, status); err != nil {
		return err
	}
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].Status = status
			return nil
		}
	}
	return notFound(http.MethodPut, "/orders/"+id+"/status")
}
