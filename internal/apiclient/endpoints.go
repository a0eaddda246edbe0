package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/example/luxejewel-storefront/internal/domain/cart"
	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/example/luxejewel-storefront/internal/domain/user"
)

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        user.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	ShippingAddress order.ShippingAddress `json:"shipping_address"`
}

// Auth

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	req := registerRequest{Email: email, Password: password, Name: name}
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Me(ctx context.Context) (*user.User, error) {
	var u user.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Catalog

func (c *Client) ListProducts(ctx context.Context, category string) ([]product.Product, error) {
	var query url.Values
	if category != "" {
		query = url.Values{"category": {category}}
	}
	products := []product.Product{}
	if err := c.do(ctx, http.MethodGet, "/products", query, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Cart

func (c *Client) GetCart(ctx context.Context) (cart.Cart, error) {
	result := cart.Empty()
	if err := c.do(ctx, http.MethodGet, "/cart", nil, nil, &result); err != nil {
		return cart.Cart{}, err
	}
	if result.Items == nil {
		result.Items = []cart.Item{}
	}
	return result, nil
}

func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, http.MethodPost, "/cart/add", nil, cartItemRequest{ProductID: productID, Quantity: quantity}, nil)
}

// UpdateCartItem sets a line's quantity; zero removes the line.
func (c *Client) UpdateCartItem(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, http.MethodPut, "/cart/update", nil, cartItemRequest{ProductID: productID, Quantity: quantity}, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart/clear", nil, nil, nil)
}

// Orders

func (c *Client) CreateOrder(ctx context.Context, address order.ShippingAddress) (*order.Created, error) {
	var created order.Created
	if err := c.do(ctx, http.MethodPost, "/orders/create", nil, createOrderRequest{ShippingAddress: address}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) VerifyPayment(ctx context.Context, v order.PaymentVerification) error {
	return c.do(ctx, http.MethodPost, "/orders/verify-payment", nil, v, nil)
}

func (c *Client) ListOrders(ctx context.Context) ([]order.Order, error) {
	orders := []order.Order{}
	if err := c.do(ctx, http.MethodGet, "/orders", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Admin

func (c *Client) Analytics(ctx context.Context) (*order.Analytics, error) {
	var a order.Analytics
	if err := c.do(ctx, http.MethodGet, "/admin/analytics", nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CreateProduct(ctx context.Context, in product.Input) (*product.Product, error) {
	var p product.Product
	if err := c.do(ctx, http.MethodPost, "/products", nil, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in product.Input) (*product.Product, error) {
	var p product.Product
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), nil, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil, nil)
}

// UpdateOrderStatus sends the status as a query parameter, as the backend expects.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	query := url.Values{"status": {string(status)}}
	return c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/status", query, nil, nil)
}
