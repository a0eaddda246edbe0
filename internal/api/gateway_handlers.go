package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"text/template"

	"github.com/example/luxejewel-storefront/internal/gateway"
	"github.com/example/luxejewel-storefront/internal/sandbox"
	log "github.com/sirupsen/logrus"
)

// checkoutScript mimics the hosted widget's Razorpay constructor: open asks the
// user to approve, settles against /sandbox/pay and reports through the handler or
// payment.failed listeners.
var checkoutScript = template.Must(template.New("checkout.js").Parse(`(function () {
  var base = {{printf "%q" .}};
  function Razorpay(options) {
    this.options = options;
    this.failed = [];
  }
  Razorpay.prototype.on = function (event, fn) {
    if (event === "payment.failed") { this.failed.push(fn); }
  };
  Razorpay.prototype.open = function () {
    var self = this;
    var approve = window.confirm("Sandbox payment of " + (self.options.amount / 100).toFixed(2) + " " + self.options.currency + ". Approve?");
    fetch(base + "/sandbox/pay", {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      body: JSON.stringify({razorpay_order_id: self.options.order_id, amount: self.options.amount, decline: !approve})
    }).then(function (resp) {
      return resp.json().then(function (body) { return {ok: resp.ok, body: body}; });
    }).then(function (result) {
      if (result.ok) { self.options.handler(result.body); return; }
      self.failed.forEach(function (fn) { fn(result.body); });
    });
  };
  window.Razorpay = Razorpay;
})();
`))

// GatewayHandlers serve the sandbox payment provider.
type GatewayHandlers struct {
	payments *sandbox.PaymentGateway
	log      log.FieldLogger
}

func NewGatewayHandlers(payments *sandbox.PaymentGateway, logger log.FieldLogger) *GatewayHandlers {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &GatewayHandlers{
		payments: payments,
		log:      logger.WithField("component", "sandbox-gateway"),
	}
}

func (h *GatewayHandlers) CheckoutScript(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	if err := checkoutScript.Execute(w, scheme+"://"+r.Host); err != nil {
		h.log.WithError(err).Error("Failed to render checkout script")
	}
}

// Pay settles a sandbox payment: 200 with the signed success payload, 402 with the
// failure for a decline.
func (h *GatewayHandlers) Pay(w http.ResponseWriter, r *http.Request) {
	allowCrossOrigin(w)

	var req gateway.PayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	success, failure, err := h.payments.Pay(req)
	switch {
	case errors.Is(err, sandbox.ErrUnknownGatewayOrder):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case err != nil:
		h.log.WithError(err).Error("Sandbox payment failed")
		respondJSONError(w, "Internal server error", http.StatusInternalServerError)
	case failure != nil:
		h.log.WithFields(log.Fields{"razorpay_order_id": req.RazorpayOrderID, "reason": failure.Reason}).Info("Sandbox payment declined")
		respondJSON(w, http.StatusPaymentRequired, gateway.PayDeclined{Error: *failure})
	default:
		h.log.WithFields(log.Fields{"razorpay_order_id": req.RazorpayOrderID, "razorpay_payment_id": success.RazorpayPaymentID}).Info("Sandbox payment captured")
		respondJSON(w, http.StatusOK, success)
	}
}

// Preflight answers CORS preflight for the checkout page served from loopback.
func (h *GatewayHandlers) Preflight(w http.ResponseWriter, r *http.Request) {
	allowCrossOrigin(w)
	w.WriteHeader(http.StatusNoContent)
}

func allowCrossOrigin(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
