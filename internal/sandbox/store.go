package sandbox

import (
	"sort"
	"sync"

	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/example/luxejewel-storefront/internal/domain/user"
)

type account struct {
	user         user.User
	passwordHash string
}

type cartLine struct {
	ProductID string
	Quantity  int
}

// Store keeps sandbox state in memory. Values are copied in and out so callers never
// share backing arrays with the store.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]account // id -> account
	emails   map[string]string  // email -> id
	products map[string]product.Product
	carts    map[string][]cartLine // user id -> lines
	orders   map[string]order.Order
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]account),
		emails:   make(map[string]string),
		products: make(map[string]product.Product),
		carts:    make(map[string][]cartLine),
		orders:   make(map[string]order.Order),
	}
}

// Users

func (s *Store) PutAccount(u user.User, passwordHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[u.ID] = account{user: u, passwordHash: passwordHash}
	s.emails[u.Email] = u.ID
}

func (s *Store) AccountByEmail(email string) (user.User, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return user.User{}, "", false
	}
	a := s.accounts[id]
	return a.user, a.passwordHash, true
}

func (s *Store) User(id string) (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	return a.user, ok
}

func (s *Store) CountCustomers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.accounts {
		if !a.user.IsAdmin {
			n++
		}
	}
	return n
}

// Products

func (s *Store) PutProduct(p product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) Product(id string) (product.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Store) DeleteProduct(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return false
	}
	delete(s.products, id)
	return true
}

// Products returns products in creation order, optionally restricted to one category.
func (s *Store) Products(category string) []product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := make([]product.Product, 0, len(s.products))
	for _, p := range s.products {
		if category == "" || p.Category == category {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
	return products
}

// AdjustStock adds delta to a product's stock, flooring at zero.
func (s *Store) AdjustStock(id string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return
	}
	p.Stock += delta
	if p.Stock < 0 {
		p.Stock = 0
	}
	s.products[id] = p
}

// Carts

func (s *Store) CartLines(userID string) []cartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]cartLine(nil), s.carts[userID]...)
}

func (s *Store) PutCartLines(userID string, lines []cartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(lines) == 0 {
		delete(s.carts, userID)
		return
	}
	s.carts[userID] = append([]cartLine(nil), lines...)
}

// Orders

func (s *Store) PutOrder(o order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.Items = append([]order.Item(nil), o.Items...)
	s.orders[o.ID] = o
}

func (s *Store) Order(id string) (order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if ok {
		o.Items = append([]order.Item(nil), o.Items...)
	}
	return o, ok
}

// Orders returns orders newest first; an empty userID returns every order.
func (s *Store) Orders(userID string) []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if userID == "" || o.UserID == userID {
			o.Items = append([]order.Item(nil), o.Items...)
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}
