// Package gateway hands a created order over to the hosted payment widget and reports
// the outcome through exactly one of two callbacks.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnavailable means the widget script could not be acquired or the widget could not be opened.
var ErrUnavailable = errors.New("payment gateway unavailable")

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type Theme struct {
	Color string `json:"color"`
}

// Options is the configuration handed to the widget when it opens.
type Options struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}

// Success is the widget's success payload, passed unchanged to payment verification.
type Success struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// Failure is the widget's payment.failed error payload.
type Failure struct {
	Code        string            `json:"code"`
	Description string            `json:"description"`
	Source      string            `json:"source,omitempty"`
	Step        string            `json:"step,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (f *Failure) Error() string {
	if f.Reason == "" {
		return fmt.Sprintf("%s: %s", f.Code, f.Description)
	}
	return fmt.Sprintf("%s: %s (%s)", f.Code, f.Description, f.Reason)
}

// Callbacks receive the widget outcome. At most one of them fires, at most once.
type Callbacks struct {
	OnSuccess func(Success)
	OnFailure func(Failure)
}

// Widget is the external payment widget. Load is idempotent. Open returns once the
// widget is showing; the outcome arrives later through cb, possibly on another goroutine.
type Widget interface {
	Load(ctx context.Context) error
	Open(ctx context.Context, opts Options, cb Callbacks) error
}

// MinorUnits converts a major-unit amount (rupees) to the minor units the widget expects.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// once wraps cb so that only the first outcome is delivered.
func once(cb Callbacks) Callbacks {
	fired := make(chan struct{}, 1)
	fired <- struct{}{}
	take := func() bool {
		select {
		case <-fired:
			return true
		default:
			return false
		}
	}
	return Callbacks{
		OnSuccess: func(s Success) {
			if take() && cb.OnSuccess != nil {
				cb.OnSuccess(s)
			}
		},
		OnFailure: func(f Failure) {
			if take() && cb.OnFailure != nil {
				cb.OnFailure(f)
			}
		},
	}
}
