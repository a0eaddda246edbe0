package sandbox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"github.com/example/luxejewel-storefront/internal/gateway"
	"github.com/google/uuid"
)

var ErrUnknownGatewayOrder = errors.New("unknown gateway order")

type gatewayOrder struct {
	amount   int64
	currency string
	paid     bool
}

// PaymentGateway stands in for the hosted payment provider: it issues gateway order
// ids, settles payments and signs them with the merchant key secret the same way the
// real provider does.
type PaymentGateway struct {
	keyID  string
	secret []byte

	mu     sync.Mutex
	orders map[string]*gatewayOrder
}

func NewPaymentGateway(keyID, secret string) *PaymentGateway {
	return &PaymentGateway{
		keyID:  keyID,
		secret: []byte(secret),
		orders: make(map[string]*gatewayOrder),
	}
}

func (g *PaymentGateway) KeyID() string { return g.keyID }

// CreateOrder registers a payable amount in minor units and returns its gateway order id.
func (g *PaymentGateway) CreateOrder(amount int64, currency string) string {
	id := "order_" + shortID()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[id] = &gatewayOrder{amount: amount, currency: currency}
	return id
}

// Pay settles req. A declined or mismatched payment yields a Failure and no error.
func (g *PaymentGateway) Pay(req gateway.PayRequest) (*gateway.Success, *gateway.Failure, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	o, ok := g.orders[req.RazorpayOrderID]
	if !ok {
		return nil, nil, ErrUnknownGatewayOrder
	}
	paymentID := "pay_" + shortID()
	meta := map[string]string{"order_id": req.RazorpayOrderID, "payment_id": paymentID}

	switch {
	case o.paid:
		return nil, &gateway.Failure{
			Code: "BAD_REQUEST_ERROR", Description: "This order has already been paid.",
			Source: "business", Step: "payment_initiation", Reason: "order_already_paid", Metadata: meta,
		}, nil
	case req.Amount != 0 && req.Amount != o.amount:
		return nil, &gateway.Failure{
			Code: "BAD_REQUEST_ERROR", Description: "Payment amount does not match the order amount.",
			Source: "business", Step: "payment_initiation", Reason: "amount_mismatch", Metadata: meta,
		}, nil
	case req.Decline:
		return nil, &gateway.Failure{
			Code: "BAD_REQUEST_ERROR", Description: "Your payment has been declined by the bank.",
			Source: "bank", Step: "payment_authorization", Reason: "payment_failed", Metadata: meta,
		}, nil
	}

	o.paid = true
	return &gateway.Success{
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: g.Sign(req.RazorpayOrderID, paymentID),
	}, nil, nil
}

// Sign is the hex HMAC-SHA256 of "order_id|payment_id" under the key secret.
func (g *PaymentGateway) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *PaymentGateway) Verify(orderID, paymentID, signature string) bool {
	expected := g.Sign(orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}
