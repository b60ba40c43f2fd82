package subscription

import (
	"fmt"
	"slices"
	"time"

	"github.com/dmitrymomot/tillkit/pkg/plan"
	"github.com/dmitrymomot/tillkit/pkg/statemachine"
)

// DefaultBillingPeriod is the paid period granted by activate when no
// period is given.
const DefaultBillingPeriod = 30 * day

// Transition is an externally triggered lifecycle action.
type Transition string

const (
	TransitionActivate     Transition = "activate"
	TransitionCancel       Transition = "cancel"
	TransitionExpire       Transition = "expire"
	TransitionRestartTrial Transition = "restart_trial"
)

// change is the subject the lifecycle machine acts on. next is the copy
// handed back by Apply.
type change struct {
	next *Record
	cfg  applyConfig
	now  time.Time
}

type (
	guard  = statemachine.Guard[Status, Transition, *change]
	action = statemachine.Action[Status, Transition, *change]
)

// lifecycle is the subscription state machine. The source status of each
// transition is the status check; actions apply the date and renewal
// updates to the copy.
var lifecycle = statemachine.NewBuilder[Status, Transition, *change]().
	From(StatusTrial).When(TransitionActivate).To(StatusActive).WithGuard(requestedTierKnown).WithAction(enter, startPaidPeriod).Add().
	From(StatusTrial).When(TransitionCancel).To(StatusCancelled).WithAction(enter, stopRenewal).Add().
	From(StatusTrial).When(TransitionExpire).To(StatusExpired).WithAction(enter, endNow, stopRenewal).Add().
	From(StatusActive).When(TransitionCancel).To(StatusCancelled).WithAction(enter, stopRenewal).Add().
	From(StatusActive).When(TransitionExpire).To(StatusExpired).WithAction(enter, endNow, stopRenewal).Add().
	From(StatusExpired).When(TransitionActivate).To(StatusActive).WithGuard(requestedTierKnown).WithAction(enter, startPaidPeriod).Add().
	From(StatusExpired).When(TransitionRestartTrial).To(StatusTrial).WithAction(enter, startTrial, stopRenewal).Add().
	From(StatusCancelled).When(TransitionActivate).To(StatusActive).WithGuard(requestedTierKnown).WithAction(enter, startPaidPeriod).Add().
	From(StatusCancelled).When(TransitionRestartTrial).To(StatusTrial).WithAction(enter, startTrial, stopRenewal).Add().
	MustBuild()

// requestedTierKnown rejects activation to a tier outside the catalog.
// An empty request keeps the default choice of activationTier.
var requestedTierKnown guard = func(_ Status, _ Transition, c *change) bool {
	if c == nil || c.cfg.tier == "" {
		return true
	}
	_, ok := plan.ResolveTier(string(c.cfg.tier))
	return ok
}

var enter action = func(_, to Status, _ Transition, c *change) error {
	c.next.Status = to
	c.next.UpdatedAt = c.now
	return nil
}

var startPaidPeriod action = func(_, _ Status, _ Transition, c *change) error {
	requested := c.cfg.tier
	if requested != "" {
		requested, _ = plan.ResolveTier(string(requested))
	}
	c.next.Tier = activationTier(c.next.Tier, requested)
	c.next.StartDate = c.now
	c.next.EndDate = c.now.Add(c.cfg.period)
	c.next.AutoRenew = true
	if c.cfg.billing != nil {
		b := *c.cfg.billing
		c.next.Billing = &b
	}
	return nil
}

var stopRenewal action = func(_, _ Status, _ Transition, c *change) error {
	c.next.AutoRenew = false
	return nil
}

var endNow action = func(_, _ Status, _ Transition, c *change) error {
	if c.next.EndDate.After(c.now) {
		c.next.EndDate = c.now
	}
	return nil
}

var startTrial action = func(_, _ Status, _ Transition, c *change) error {
	trialEnd := c.now.Add(TrialPeriod)
	c.next.Tier = plan.TierTrial
	c.next.StartDate = c.now
	c.next.EndDate = trialEnd
	c.next.TrialEndsAt = &trialEnd
	return nil
}

// CanTransition reports whether t is allowed from status from.
func CanTransition(from Status, t Transition) bool {
	return lifecycle.Defined(from, t)
}

// TransitionsFrom lists the actions allowed from status s, sorted by name.
func TransitionsFrom(s Status) []Transition {
	result := lifecycle.Events(s)
	slices.Sort(result)
	return result
}

type applyConfig struct {
	tier    plan.Tier
	period  time.Duration
	billing *BillingInfo
}

// ApplyOption configures Apply.
type ApplyOption func(*applyConfig)

// WithTier sets the tier granted by activate.
func WithTier(t plan.Tier) ApplyOption {
	return func(c *applyConfig) {
		c.tier = t
	}
}

// WithPeriod sets the paid period granted by activate.
func WithPeriod(d time.Duration) ApplyOption {
	return func(c *applyConfig) {
		if d > 0 {
			c.period = d
		}
	}
}

// WithBilling attaches billing metadata on activate.
func WithBilling(b *BillingInfo) ApplyOption {
	return func(c *applyConfig) {
		c.billing = b
	}
}

// Apply runs transition t on a copy of rec and returns the copy.
// rec itself is not modified. Trial history (TrialEndsAt) is retained on
// activation.
func Apply(rec *Record, t Transition, now time.Time, opts ...ApplyOption) (*Record, error) {
	if rec == nil {
		return nil, ErrRecordNotFound
	}

	c := &change{
		next: rec.Clone(),
		cfg:  applyConfig{period: DefaultBillingPeriod},
		now:  now.UTC(),
	}
	for _, opt := range opts {
		opt(&c.cfg)
	}

	if _, err := lifecycle.Fire(rec.Status, t, c); err != nil {
		return nil, fmt.Errorf("%w: %s from %s: %w", ErrInvalidTransition, t, rec.Status, err)
	}
	return c.next, nil
}

// activationTier keeps a paid tier across reactivation and lifts a trial
// record to standard unless a tier was requested explicitly.
func activationTier(current, requested plan.Tier) plan.Tier {
	switch {
	case requested != "":
		return requested
	case current == plan.TierTrial || current == "":
		return plan.TierStandard
	default:
		return current
	}
}

// Reconcile expires a trial or active record whose end date has passed.
// It returns the original record and false when nothing changed.
func Reconcile(rec *Record, now time.Time) (*Record, bool) {
	if rec == nil || !rec.IsExpiredAt(now) || !CanTransition(rec.Status, TransitionExpire) {
		return rec, false
	}
	next, err := Apply(rec, TransitionExpire, now)
	if err != nil {
		return rec, false
	}
	return next, true
}
