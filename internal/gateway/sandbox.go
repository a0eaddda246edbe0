package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

// PayRequest is the body of POST /sandbox/pay.
type PayRequest struct {
	RazorpayOrderID string `json:"razorpay_order_id"`
	Amount          int64  `json:"amount"`
	Decline         bool   `json:"decline"`
}

// PayDeclined is the body of a declined /sandbox/pay response.
type PayDeclined struct {
	Error Failure `json:"error"`
}

// SandboxWidget settles payments against the sandbox gateway instead of showing a
// hosted widget. The outcome is delivered on a separate goroutine like the real one.
type SandboxWidget struct {
	baseURL    string
	decline    bool
	httpClient *http.Client
	loader     *ScriptLoader
	log        log.FieldLogger
}

type SandboxOption func(*SandboxWidget)

// WithDecline makes every payment fail as if the customer's card was refused.
func WithDecline() SandboxOption {
	return func(w *SandboxWidget) { w.decline = true }
}

func WithSandboxHTTPClient(hc *http.Client) SandboxOption {
	return func(w *SandboxWidget) { w.httpClient = hc }
}

func WithSandboxLogger(logger log.FieldLogger) SandboxOption {
	return func(w *SandboxWidget) { w.log = logger }
}

func NewSandboxWidget(baseURL string, opts ...SandboxOption) *SandboxWidget {
	w := &SandboxWidget{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		log:        log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithField("component", "sandbox-widget")
	w.loader = NewScriptLoader(w.baseURL+"/sandbox/checkout.js", w.httpClient, w.log)
	return w
}

func (w *SandboxWidget) Load(ctx context.Context) error {
	return w.loader.Load(ctx)
}

func (w *SandboxWidget) Open(ctx context.Context, opts Options, cb Callbacks) error {
	if !w.loader.Loaded() {
		return fmt.Errorf("%w: widget script not loaded", ErrUnavailable)
	}
	cb = once(cb)
	req := PayRequest{RazorpayOrderID: opts.OrderID, Amount: opts.Amount, Decline: w.decline}
	go w.settle(context.WithoutCancel(ctx), req, cb)
	return nil
}

func (w *SandboxWidget) settle(ctx context.Context, payReq PayRequest, cb Callbacks) {
	logger := w.log.WithField("razorpay_order_id", payReq.RazorpayOrderID)

	body, err := json.Marshal(payReq)
	if err != nil {
		cb.OnFailure(gatewayFailure(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/sandbox/pay", bytes.NewReader(body))
	if err != nil {
		cb.OnFailure(gatewayFailure(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Warn("Sandbox payment request failed")
		cb.OnFailure(gatewayFailure(err))
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var s Success
		if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
			cb.OnFailure(gatewayFailure(err))
			return
		}
		logger.WithField("razorpay_payment_id", s.RazorpayPaymentID).Debug("Sandbox payment approved")
		cb.OnSuccess(s)
	default:
		var declined PayDeclined
		if err := json.NewDecoder(resp.Body).Decode(&declined); err != nil || declined.Error.Code == "" {
			cb.OnFailure(gatewayFailure(fmt.Errorf("sandbox responded %s", resp.Status)))
			return
		}
		logger.WithField("reason", declined.Error.Reason).Debug("Sandbox payment declined")
		cb.OnFailure(declined.Error)
	}
}

func gatewayFailure(err error) Failure {
	return Failure{
		Code:        "GATEWAY_ERROR",
		Description: err.Error(),
		Source:      "gateway",
		Reason:      "payment_failed",
	}
}
