// Package checkout drives one purchase from the shipping form through order creation,
// the hosted payment widget and backend payment verification.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/luxejewel-storefront/internal/domain/cart"
	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/domain/user"
	"github.com/example/luxejewel-storefront/internal/gateway"
	"github.com/example/luxejewel-storefront/internal/session"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrGatewayUnavailable  = fmt.Errorf("checkout: %w", gateway.ErrUnavailable)
	ErrOrderCreationFailed = errors.New("order creation failed")
	ErrPaymentDeclined     = errors.New("payment declined")
	ErrVerificationFailed  = errors.New("payment verification failed")
	ErrInProgress          = errors.New("checkout already in progress")
	ErrNotEditing          = errors.New("checkout form is not open")
	ErrCartEmpty           = errors.New("cart is empty")
)

type Session interface {
	Current() (user.User, bool)
}

type Cart interface {
	Fetch(ctx context.Context) (cart.Cart, error)
	Snapshot() cart.Cart
}

// Backend is the order slice of the REST surface.
type Backend interface {
	CreateOrder(ctx context.Context, address order.ShippingAddress) (*order.Created, error)
	VerifyPayment(ctx context.Context, v order.PaymentVerification) error
}

// Merchant is the storefront branding shown by the payment widget.
type Merchant struct {
	Name        string
	Description string
	ThemeColor  string
}

type attempt struct {
	id      string
	created *order.Created
	err     error
	done    chan struct{}
}

// Orchestrator owns the checkout state machine. Submit runs up to the point where the
// widget is showing; the widget callbacks finish the attempt and Wait observes it.
type Orchestrator struct {
	session   Session
	cart      Cart
	backend   Backend
	widget    gateway.Widget
	merchant  Merchant
	observers []Observer
	log       log.FieldLogger

	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	state   State
	attempt *attempt
	pending []Transition

	notifyMu sync.Mutex
}

func NewOrchestrator(
	session Session,
	cart Cart,
	backend Backend,
	widget gateway.Widget,
	merchant Merchant,
	logger log.FieldLogger,
	observers ...Observer,
) *Orchestrator {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Orchestrator{
		session:   session,
		cart:      cart,
		backend:   backend,
		widget:    widget,
		merchant:  merchant,
		observers: observers,
		log:       logger.WithField("component", "checkout"),
		now:       time.Now,
		newID:     uuid.NewString,
		state:     Idle,
	}
}

// Begin opens the shipping form, or tells the caller where to go instead.
func (o *Orchestrator) Begin(ctx context.Context) (Redirect, error) {
	if _, ok := o.session.Current(); !ok {
		return RedirectLogin, nil
	}

	o.mu.Lock()
	inFlight := o.state.InFlight()
	o.mu.Unlock()
	if inFlight {
		return RedirectNone, ErrInProgress
	}

	c, err := o.cart.Fetch(ctx)
	if err != nil {
		return RedirectNone, fmt.Errorf("failed to load cart: %w", err)
	}
	if c.IsEmpty() {
		return RedirectCatalog, nil
	}

	o.mu.Lock()
	if o.state.InFlight() {
		o.mu.Unlock()
		return RedirectNone, ErrInProgress
	}
	o.attempt = nil
	o.transition("", FormEditing, "", nil)
	o.mu.Unlock()
	o.emit()
	return RedirectNone, nil
}

// Submit validates the address and starts a fresh attempt. It returns once the payment
// widget is open, or with the error that failed the attempt. A signed-out session
// (session.ErrAuth) or an empty cart (ErrCartEmpty) is refused before Submitting.
func (o *Orchestrator) Submit(ctx context.Context, address order.ShippingAddress) error {
	if _, ok := o.session.Current(); !ok {
		return session.ErrAuth
	}
	if err := address.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.state != FormEditing && o.state != Failed {
		state := o.state
		o.mu.Unlock()
		if state.InFlight() {
			return ErrInProgress
		}
		return ErrNotEditing
	}
	if o.cart.Snapshot().IsEmpty() {
		o.mu.Unlock()
		return ErrCartEmpty
	}
	a := &attempt{id: o.newID(), done: make(chan struct{})}
	o.attempt = a
	o.transition(a.id, Submitting, "", nil)
	o.mu.Unlock()
	o.emit()

	if err := o.widget.Load(ctx); err != nil {
		return o.fail(a, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err))
	}

	created, err := o.backend.CreateOrder(ctx, address)
	if err != nil {
		return o.fail(a, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err))
	}

	opts := gateway.Options{
		Key:         created.KeyID,
		Amount:      gateway.MinorUnits(created.Amount),
		Currency:    created.Currency,
		Name:        o.merchant.Name,
		Description: o.merchant.Description,
		OrderID:     created.RazorpayOrderID,
		Prefill: gateway.Prefill{
			Name:    address.FullName,
			Email:   address.Email,
			Contact: address.Phone,
		},
		Theme: gateway.Theme{Color: o.merchant.ThemeColor},
	}

	o.mu.Lock()
	if o.attempt != a {
		o.mu.Unlock()
		return ErrInProgress
	}
	a.created = created
	o.transition(a.id, AwaitingPaymentWidget, created.OrderID, nil)
	o.mu.Unlock()
	o.emit()

	detached := context.WithoutCancel(ctx)
	cb := gateway.Callbacks{
		OnSuccess: func(s gateway.Success) { o.paymentSucceeded(detached, a, s) },
		OnFailure: func(f gateway.Failure) { o.paymentFailed(a, f) },
	}
	if err := o.widget.Open(ctx, opts, cb); err != nil {
		return o.fail(a, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err))
	}
	return nil
}

func (o *Orchestrator) paymentSucceeded(ctx context.Context, a *attempt, s gateway.Success) {
	o.mu.Lock()
	if o.attempt != a || o.state != AwaitingPaymentWidget {
		o.mu.Unlock()
		o.log.WithField("attempt_id", a.id).Debug("Ignoring success callback for a settled attempt")
		return
	}
	o.transition(a.id, VerifyingPayment, a.created.OrderID, nil)
	o.mu.Unlock()
	o.emit()

	err := o.backend.VerifyPayment(ctx, order.PaymentVerification{
		RazorpayOrderID:   s.RazorpayOrderID,
		RazorpayPaymentID: s.RazorpayPaymentID,
		RazorpaySignature: s.RazorpaySignature,
		OrderID:           a.created.OrderID,
	})
	if err != nil {
		_ = o.fail(a, fmt.Errorf("%w: %w", ErrVerificationFailed, err))
		return
	}

	if _, err := o.cart.Fetch(ctx); err != nil {
		o.log.WithError(err).Warn("Failed to refresh cart after payment")
	}

	o.mu.Lock()
	settled := o.attempt == a && o.state == VerifyingPayment
	if settled {
		o.transition(a.id, Succeeded, a.created.OrderID, nil)
	}
	o.mu.Unlock()
	o.emit()
	if settled {
		close(a.done)
	}
}

func (o *Orchestrator) paymentFailed(a *attempt, f gateway.Failure) {
	o.mu.Lock()
	settled := o.attempt != a || o.state != AwaitingPaymentWidget
	o.mu.Unlock()
	if settled {
		o.log.WithField("attempt_id", a.id).Debug("Ignoring failure callback for a settled attempt")
		return
	}
	_ = o.fail(a, fmt.Errorf("%w: %w", ErrPaymentDeclined, &f))
}

// fail moves attempt a to Failed if it is still current and in flight. Waiters are
// released only after observers have seen the transition.
func (o *Orchestrator) fail(a *attempt, err error) error {
	o.mu.Lock()
	settled := o.attempt == a && o.state.InFlight()
	if settled {
		a.err = err
		orderID := ""
		if a.created != nil {
			orderID = a.created.OrderID
		}
		o.transition(a.id, Failed, orderID, err)
	}
	o.mu.Unlock()
	o.emit()
	if settled {
		close(a.done)
	}
	return err
}

// transition must be called with o.mu held.
func (o *Orchestrator) transition(attemptID string, to State, orderID string, err error) {
	from := o.state
	if !from.CanTransitionTo(to) {
		o.log.WithFields(log.Fields{"from": from.String(), "to": to.String()}).Error("Invalid checkout transition")
		return
	}
	o.state = to
	o.pending = append(o.pending, Transition{
		AttemptID: attemptID,
		From:      from,
		To:        to,
		OrderID:   orderID,
		Err:       err,
		At:        o.now(),
	})
}

// emit delivers queued transitions to observers in the order they happened.
func (o *Orchestrator) emit() {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()
	for {
		o.mu.Lock()
		if len(o.pending) == 0 {
			o.mu.Unlock()
			return
		}
		t := o.pending[0]
		o.pending = o.pending[1:]
		o.mu.Unlock()

		for _, obs := range o.observers {
			obs.Observe(t)
		}
	}
}

// Wait blocks until the current attempt succeeds or fails, or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context) (State, error) {
	o.mu.Lock()
	a := o.attempt
	o.mu.Unlock()
	if a == nil {
		return o.State(), nil
	}

	select {
	case <-a.done:
		return o.State(), o.Err()
	case <-ctx.Done():
		return o.State(), ctx.Err()
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err is the error that failed the current attempt, nil otherwise.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt == nil || o.state != Failed {
		return nil
	}
	return o.attempt.err
}

// Order is the backend order created by the current attempt, nil before creation.
func (o *Orchestrator) Order() *order.Created {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt == nil || o.attempt.created == nil {
		return nil
	}
	created := *o.attempt.created
	return &created
}

// AttemptID identifies the current attempt in logs and the journal.
func (o *Orchestrator) AttemptID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt == nil {
		return ""
	}
	return o.attempt.id
}
