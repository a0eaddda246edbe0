package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Amounts travel as JSON numbers, the way the REST backend sends them.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Statuses lists fulfilment statuses in the order an admin walks through them.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

var (
	ErrUnknownStatus        = errors.New("unknown order status")
	ErrUnknownPaymentStatus = errors.New("unknown payment status")
)

// ParseStatus accepts exactly one of the enumerated fulfilment statuses.
func ParseStatus(s string) (Status, error) {
	for _, status := range Statuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch p := PaymentStatus(s); p {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPaymentStatus, s)
}

// Item is a snapshot of a product line taken when the order was created.
type Item struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Items             []Item          `json:"items"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            Status          `json:"status"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
	ShippingAddress   ShippingAddress `json:"shipping_address"`
	RazorpayOrderID   string          `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string          `json:"razorpay_payment_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ShortID is the abbreviated order number shown to customers.
func (o Order) ShortID() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[:8]
}

// Paid reports whether the gateway payment was verified.
func (o Order) Paid() bool {
	return o.PaymentStatus == PaymentCompleted
}

// Created is the create-order response: everything needed to open the payment widget.
type Created struct {
	OrderID         string          `json:"order_id"`
	RazorpayOrderID string          `json:"razorpay_order_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	KeyID           string          `json:"key_id"`
}

// PaymentVerification is passed through to the backend after the widget reports success.
type PaymentVerification struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	OrderID           string `json:"order_id"`
}

// Analytics is the admin dashboard summary.
type Analytics struct {
	TotalProducts int                        `json:"total_products"`
	TotalOrders   int                        `json:"total_orders"`
	TotalUsers    int                        `json:"total_users"`
	TotalRevenue  decimal.Decimal            `json:"total_revenue"`
	RecentOrders  []Order                    `json:"recent_orders"`
	CategorySales map[string]decimal.Decimal `json:"category_sales"`
}
