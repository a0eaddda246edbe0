// Package orders serves the signed-in customer's order history.
package orders

import (
	"context"
	"sort"

	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/session"
	"github.com/example/luxejewel-storefront/internal/view"
)

type Backend interface {
	ListOrders(ctx context.Context) ([]order.Order, error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
}

type Auth interface {
	Authenticated() bool
}

// History lists and shows the caller's orders. Only the latest load of each view is kept.
type History struct {
	backend Backend
	auth    Auth
	list    view.Loader[[]order.Order]
	detail  view.Loader[*order.Order]
}

func NewHistory(backend Backend, auth Auth) *History {
	return &History{backend: backend, auth: auth}
}

// List returns the caller's orders, newest first.
func (h *History) List(ctx context.Context) ([]order.Order, error) {
	if !h.auth.Authenticated() {
		return nil, session.ErrAuth
	}
	return h.list.Load(ctx, func(ctx context.Context) ([]order.Order, error) {
		orders, err := h.backend.ListOrders(ctx)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		})
		return orders, nil
	})
}

func (h *History) Get(ctx context.Context, id string) (*order.Order, error) {
	if !h.auth.Authenticated() {
		return nil, session.ErrAuth
	}
	return h.detail.Load(ctx, func(ctx context.Context) (*order.Order, error) {
		return h.backend.GetOrder(ctx, id)
	})
}
