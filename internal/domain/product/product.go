package product

import (
	"time"

	"github.com/example/luxejewel-storefront/internal/domain/validate"
	"github.com/shopspring/decimal"
)

// Prices travel as JSON numbers, the way the REST backend sends them.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InStock reports whether at least one unit can be ordered.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Input is the admin create/update form.
type Input struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock"`
}

func (in Input) Validate() error {
	var f validate.Form
	f.Required("name", in.Name)
	f.Required("description", in.Description)
	f.Check("price", in.Price.IsPositive())
	f.Required("category", in.Category)
	f.Required("image_url", in.ImageURL)
	f.Check("stock", in.Stock >= 0)
	return f.Err()
}

// InputFrom prefills the edit form from an existing product.
func InputFrom(p Product) Input {
	return Input{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
	}
}
