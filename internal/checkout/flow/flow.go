// Package flow gates navigation across the checkout steps. The shopper moves
// Shipping → Payment → Review → Confirmation, may return to earlier steps,
// and can only advance once the session carries what the step needs.
package flow

import "time"

// Step is one screen of the checkout funnel.
type Step int

const (
	StepShipping Step = iota
	StepPayment
	StepReview
	StepConfirmation
)

var stepNames = map[Step]string{
	StepShipping:     "shipping",
	StepPayment:      "payment",
	StepReview:       "review",
	StepConfirmation: "confirmation",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStep maps a path segment to a Step.
func ParseStep(name string) (Step, bool) {
	for step, n := range stepNames {
		if n == name {
			return step, true
		}
	}
	return StepShipping, false
}

// Session is the checkout-relevant slice of the shopper's session state.
type Session struct {
	Current           Step
	HasShippingInfo   bool
	HasShippingMethod bool
	HasPaymentMethod  bool
	HasOrderID        bool
	ExpiresAt         time.Time
}

// Expired reports whether the session has lapsed. A zero ExpiresAt means the
// session does not expire.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// guards is the ordered table of step predicates. Evaluating a fixed table
// instead of nested conditionals keeps each guard independently testable and
// makes HighestAllowedStep a simple fold.
var guards = []struct {
	step  Step
	allow func(Session) bool
}{
	{StepShipping, func(Session) bool { return true }},
	{StepPayment, func(s Session) bool {
		return s.HasShippingInfo && s.HasShippingMethod
	}},
	{StepReview, func(s Session) bool {
		return s.HasShippingInfo && s.HasShippingMethod && s.HasPaymentMethod
	}},
	{StepConfirmation, func(s Session) bool {
		// A client may navigate to confirmation before the server has
		// recorded the step change, so being on Review is enough. A
		// session that already holds an order id, or that is already on
		// Confirmation, may reload the page even after the cart was
		// cleared.
		return s.Current == StepReview || s.Current == StepConfirmation || s.HasOrderID
	}},
}

// Allowed reports whether the session satisfies the guard for one step,
// ignoring expiry.
func Allowed(session Session, step Step) bool {
	for _, g := range guards {
		if g.step == step {
			return g.allow(session)
		}
	}
	return false
}

// HighestAllowedStep folds the guard table top-down and returns the furthest
// step currently reachable. Since guards are ordered and each later guard
// implies the earlier ones (except Confirmation), this is the redirect target
// when a requested step is denied.
func HighestAllowedStep(session Session) Step {
	highest := StepShipping
	for _, g := range guards {
		if g.allow(session) {
			highest = g.step
		} else {
			break
		}
	}
	return highest
}

// Decision is the outcome of a step-access check.
type Decision struct {
	Allowed  bool
	Redirect Step
	// Expired is set when the denial came from session expiry rather than
	// an unsatisfied guard; the caller should reset checkout state.
	Expired bool
}

// Access decides whether the session may open the requested step at the
// given time. Expiry overrides the guards and forces a reset to Shipping —
// except for Confirmation, which must stay reachable so a shopper can always
// view the confirmation of an order they just placed.
func Access(session Session, requested Step, now time.Time) Decision {
	if session.Expired(now) && requested != StepConfirmation {
		return Decision{Allowed: false, Redirect: StepShipping, Expired: true}
	}
	if Allowed(session, requested) {
		return Decision{Allowed: true, Redirect: requested}
	}
	return Decision{Allowed: false, Redirect: HighestAllowedStep(session)}
}
