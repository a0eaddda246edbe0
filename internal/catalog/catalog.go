// Package catalog serves the product listing, product detail and category views.
package catalog

import (
	"context"
	"net/url"
	"strings"

	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/example/luxejewel-storefront/internal/view"
)

// AllCategories is the synthetic category that means no filter.
const AllCategories = "All"

// FeaturedCount is how many products the landing view shows.
const FeaturedCount = 6

// Backend is the catalogue slice of the REST surface.
type Backend interface {
	ListProducts(ctx context.Context, category string) ([]product.Product, error)
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// Filter is the listing filter. It round-trips through the ?category= query parameter
// so a filtered listing can be shared as a link.
type Filter struct {
	Category string
}

func ParseFilter(q url.Values) Filter {
	category := strings.TrimSpace(q.Get("category"))
	if category == AllCategories {
		category = ""
	}
	return Filter{Category: category}
}

func (f Filter) Values() url.Values {
	q := url.Values{}
	if f.Category != "" && f.Category != AllCategories {
		q.Set("category", f.Category)
	}
	return q
}

// Label is the category name to highlight, AllCategories when unfiltered.
func (f Filter) Label() string {
	if f.Category == "" {
		return AllCategories
	}
	return f.Category
}

// Link returns base with the filter's query applied, replacing any existing query.
func (f Filter) Link(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.RawQuery = f.Values().Encode()
	return u.String(), nil
}

func (f Filter) backendCategory() string {
	if f.Category == AllCategories {
		return ""
	}
	return f.Category
}

// Browser loads catalogue views. Each view discards responses overtaken by a newer
// load of the same view.
type Browser struct {
	backend    Backend
	listing    view.Loader[[]product.Product]
	detail     view.Loader[*product.Product]
	categories view.Loader[[]string]
}

func NewBrowser(backend Backend) *Browser {
	return &Browser{backend: backend}
}

func (b *Browser) Browse(ctx context.Context, f Filter) ([]product.Product, error) {
	return b.listing.Load(ctx, func(ctx context.Context) ([]product.Product, error) {
		return b.backend.ListProducts(ctx, f.backendCategory())
	})
}

// Featured is the first FeaturedCount products of the unfiltered listing.
func (b *Browser) Featured(ctx context.Context) ([]product.Product, error) {
	products, err := b.Browse(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	if len(products) > FeaturedCount {
		products = products[:FeaturedCount]
	}
	return products, nil
}

func (b *Browser) Product(ctx context.Context, id string) (*product.Product, error) {
	return b.detail.Load(ctx, func(ctx context.Context) (*product.Product, error) {
		return b.backend.GetProduct(ctx, id)
	})
}

// Categories lists the backend categories behind the synthetic AllCategories entry.
func (b *Browser) Categories(ctx context.Context) ([]string, error) {
	return b.categories.Load(ctx, func(ctx context.Context) ([]string, error) {
		categories, err := b.backend.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(categories)+1)
		out = append(out, AllCategories)
		for _, c := range categories {
			if c != AllCategories {
				out = append(out, c)
			}
		}
		return out, nil
	})
}
