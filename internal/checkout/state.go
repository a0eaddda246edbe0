package checkout

// State is the checkout flow position of the current attempt.
type State int

const (
	Idle State = iota
	FormEditing
	Submitting
	AwaitingPaymentWidget
	VerifyingPayment
	Succeeded
	Failed
)

var stateNames = map[State]string{
	Idle:                  "idle",
	FormEditing:           "form_editing",
	Submitting:            "submitting",
	AwaitingPaymentWidget: "awaiting_payment_widget",
	VerifyingPayment:      "verifying_payment",
	Succeeded:             "succeeded",
	Failed:                "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the attempt has finished.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

// InFlight reports whether an attempt is between submission and its outcome.
func (s State) InFlight() bool {
	return s == Submitting || s == AwaitingPaymentWidget || s == VerifyingPayment
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// validTransitions lists the states each state may move to.
var validTransitions = map[State][]State{
	Idle:                  {FormEditing},
	FormEditing:           {FormEditing, Submitting},
	Submitting:            {AwaitingPaymentWidget, Failed},
	AwaitingPaymentWidget: {VerifyingPayment, Failed},
	VerifyingPayment:      {Succeeded, Failed},
	Succeeded:             {FormEditing},
	Failed:                {FormEditing, Submitting},
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Redirect tells the caller where to send a customer who cannot check out.
type Redirect int

const (
	RedirectNone Redirect = iota
	RedirectLogin
	RedirectCatalog
)

func (r Redirect) String() string {
	switch r {
	case RedirectLogin:
		return "login"
	case RedirectCatalog:
		return "catalog"
	default:
		return "none"
	}
}
