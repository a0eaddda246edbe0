package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/example/luxejewel-storefront/internal/domain/cart"
	"github.com/example/luxejewel-storefront/internal/session"
	"github.com/example/luxejewel-storefront/internal/view"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrExceedsStock    = errors.New("quantity exceeds available stock")
)

// Backend is the cart slice of the REST surface.
type Backend interface {
	GetCart(ctx context.Context) (cart.Cart, error)
	AddToCart(ctx context.Context, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, productID string, quantity int) error
	ClearCart(ctx context.Context) error
}

// Auth reports whether a user is signed in.
type Auth interface {
	Authenticated() bool
}

// Service mirrors the signed-in user's backend cart. Every mutation is followed by a
// re-fetch; local state only ever holds a cart the backend returned.
type Service struct {
	mu         sync.RWMutex
	current    cart.Cart
	generation uint64
	backend Backend
	auth    Auth
	log     log.FieldLogger
}

func NewService(backend Backend, auth Auth, logger log.FieldLogger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		current: cart.Empty(),
		backend: backend,
		auth:    auth,
		log:     logger.WithField("component", "cart"),
	}
}

// Fetch replaces local state with the backend cart. Unauthenticated callers get an empty cart.
// A response overtaken by a newer fetch, a Clear or a session change is dropped with
// view.ErrStale.
func (s *Service) Fetch(ctx context.Context) (cart.Cart, error) {
	if !s.auth.Authenticated() {
		s.replace(cart.Empty())
		return cart.Empty(), nil
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	fetched, err := s.backend.GetCart(ctx)
	authenticated := s.auth.Authenticated()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return s.current.Clone(), view.ErrStale
	}
	if !authenticated {
		s.generation++
		s.current = cart.Empty()
		return cart.Empty(), view.ErrStale
	}
	if err != nil {
		return s.current.Clone(), err
	}
	s.current = fetched.Clone()
	return fetched.Clone(), nil
}

// Add requests the backend to add quantity units of productID, then re-fetches.
func (s *Service) Add(ctx context.Context, productID string, quantity int) error {
	if !s.auth.Authenticated() {
		return session.ErrAuth
	}
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if item, ok := s.Snapshot().Find(productID); ok && item.Quantity+quantity > item.Product.Stock {
		return fmt.Errorf("%w: %d in cart, %d requested, %d in stock",
			ErrExceedsStock, item.Quantity, quantity, item.Product.Stock)
	}

	if err := s.backend.AddToCart(ctx, productID, quantity); err != nil {
		return err
	}
	return s.refetch(ctx)
}

// SetQuantity sets the line for productID to quantity. Zero removes the line.
func (s *Service) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if !s.auth.Authenticated() {
		return session.ErrAuth
	}
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if item, ok := s.Snapshot().Find(productID); ok && quantity > item.Product.Stock {
		return fmt.Errorf("%w: %d requested, %d in stock", ErrExceedsStock, quantity, item.Product.Stock)
	}

	if err := s.backend.UpdateCartItem(ctx, productID, quantity); err != nil {
		return err
	}
	return s.refetch(ctx)
}

// refetch follows a successful mutation. A stale result means a newer load owns the state.
func (s *Service) refetch(ctx context.Context) error {
	if _, err := s.Fetch(ctx); err != nil && !errors.Is(err, view.ErrStale) {
		return err
	}
	return nil
}

// Remove drops the line for productID.
func (s *Service) Remove(ctx context.Context, productID string) error {
	return s.SetQuantity(ctx, productID, 0)
}

// Clear empties the cart on the backend, then locally.
func (s *Service) Clear(ctx context.Context) error {
	if !s.auth.Authenticated() {
		return session.ErrAuth
	}
	if err := s.backend.ClearCart(ctx); err != nil {
		return err
	}
	s.replace(cart.Empty())
	return nil
}

// Snapshot returns a copy of the last confirmed cart.
func (s *Service) Snapshot() cart.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

func (s *Service) Total() decimal.Decimal {
	return s.Snapshot().Total()
}

func (s *Service) ItemCount() int {
	return s.Snapshot().ItemCount()
}

// SessionChanged implements session.Listener.
func (s *Service) SessionChanged(ctx context.Context, authenticated bool) {
	if !authenticated {
		s.replace(cart.Empty())
		return
	}
	if _, err := s.Fetch(ctx); err != nil && !errors.Is(err, view.ErrStale) {
		s.log.WithError(err).Warn("Failed to fetch cart after sign-in")
	}
}

// replace installs c and invalidates any fetch still in flight.
func (s *Service) replace(c cart.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.current = c.Clone()
}
