package order

import "github.com/example/luxejewel-storefront/internal/domain/validate"

// ShippingAddress is stored against the order at creation and never changes afterwards.
type ShippingAddress struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

// Validate requires every field to be non-blank.
func (a ShippingAddress) Validate() error {
	var f validate.Form
	f.Required("fullName", a.FullName)
	f.Required("email", a.Email)
	f.Required("phone", a.Phone)
	f.Required("address", a.Address)
	f.Required("city", a.City)
	f.Required("state", a.State)
	f.Required("pincode", a.Pincode)
	return f.Err()
}
