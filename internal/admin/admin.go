// Package admin implements the management console: dashboard analytics, product
// maintenance and order fulfilment. The admin gate here only hides the console;
// the backend enforces authorization.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/example/luxejewel-storefront/internal/domain/user"
	"github.com/example/luxejewel-storefront/internal/session"
	"github.com/example/luxejewel-storefront/internal/view"
	log "github.com/sirupsen/logrus"
)

var (
	ErrForbidden    = errors.New("admin access required")
	ErrNotConfirmed = errors.New("action not confirmed")
)

const deletePrompt = "Are you sure you want to delete this product?"

type Backend interface {
	Analytics(ctx context.Context) (*order.Analytics, error)
	ListProducts(ctx context.Context, category string) ([]product.Product, error)
	CreateProduct(ctx context.Context, in product.Input) (*product.Product, error)
	UpdateProduct(ctx context.Context, id string, in product.Input) (*product.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListOrders(ctx context.Context) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status order.Status) error
}

type Session interface {
	Current() (user.User, bool)
}

// Confirmer asks the operator to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Console is the admin view set. Every operation checks the gate first.
type Console struct {
	backend  Backend
	session  Session
	confirm  Confirmer
	log      log.FieldLogger
	products view.Loader[[]product.Product]
	orders   view.Loader[[]order.Order]
}

func NewConsole(backend Backend, session Session, confirm Confirmer, logger log.FieldLogger) *Console {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Console{
		backend: backend,
		session: session,
		confirm: confirm,
		log:     logger.WithField("component", "admin"),
	}
}

func (c *Console) gate() (user.User, error) {
	u, ok := c.session.Current()
	if !ok {
		return user.User{}, session.ErrAuth
	}
	if !u.IsAdmin {
		return user.User{}, ErrForbidden
	}
	return u, nil
}

func (c *Console) Analytics(ctx context.Context) (*order.Analytics, error) {
	if _, err := c.gate(); err != nil {
		return nil, err
	}
	return c.backend.Analytics(ctx)
}

func (c *Console) Products(ctx context.Context) ([]product.Product, error) {
	if _, err := c.gate(); err != nil {
		return nil, err
	}
	return c.products.Load(ctx, func(ctx context.Context) ([]product.Product, error) {
		return c.backend.ListProducts(ctx, "")
	})
}

// CreateProduct validates in, creates the product and returns the refreshed listing.
func (c *Console) CreateProduct(ctx context.Context, in product.Input) ([]product.Product, error) {
	u, err := c.gate()
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	created, err := c.backend.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(log.Fields{"product_id": created.ID, "admin": u.Email}).Info("Product created")
	return c.Products(ctx)
}

// UpdateProduct replaces every field of product id and returns the refreshed listing.
func (c *Console) UpdateProduct(ctx context.Context, id string, in product.Input) ([]product.Product, error) {
	u, err := c.gate()
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := c.backend.UpdateProduct(ctx, id, in); err != nil {
		return nil, err
	}
	c.log.WithFields(log.Fields{"product_id": id, "admin": u.Email}).Info("Product updated")
	return c.Products(ctx)
}

// DeleteProduct removes product id once the operator confirms.
func (c *Console) DeleteProduct(ctx context.Context, id string) ([]product.Product, error) {
	u, err := c.gate()
	if err != nil {
		return nil, err
	}
	if !c.confirm.Confirm(deletePrompt) {
		return nil, ErrNotConfirmed
	}
	if err := c.backend.DeleteProduct(ctx, id); err != nil {
		return nil, err
	}
	c.log.WithFields(log.Fields{"product_id": id, "admin": u.Email}).Info("Product deleted")
	return c.Products(ctx)
}

// Orders lists every customer's orders; the backend returns all orders to admins.
func (c *Console) Orders(ctx context.Context) ([]order.Order, error) {
	if _, err := c.gate(); err != nil {
		return nil, err
	}
	return c.orders.Load(ctx, func(ctx context.Context) ([]order.Order, error) {
		return c.backend.ListOrders(ctx)
	})
}

// UpdateOrderStatus sends exactly the selected status, then re-fetches the order list.
func (c *Console) UpdateOrderStatus(ctx context.Context, id, status string) ([]order.Order, error) {
	u, err := c.gate()
	if err != nil {
		return nil, err
	}
	s, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	if err := c.backend.UpdateOrderStatus(ctx, id, s); err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	c.log.WithFields(log.Fields{"order_id": id, "status": s, "admin": u.Email}).Info("Order status updated")
	return c.Orders(ctx)
}
