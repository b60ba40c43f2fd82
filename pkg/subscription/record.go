package subscription

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/tillkit/pkg/plan"
)

// TrialPeriod is the length of the trial granted on registration.
const TrialPeriod = 7 * 24 * time.Hour

const day = 24 * time.Hour

// Status is the stored lifecycle state of a record.
// It may lag behind the dates; see EffectiveStatusAt.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every known status.
var Statuses = []Status{StatusTrial, StatusActive, StatusExpired, StatusCancelled}

// BillingInterval represents the billing frequency of a paid record.
type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// BillingInfo is opaque metadata written by the billing collaborator.
type BillingInfo struct {
	Provider       string          `json:"provider,omitempty"`
	CustomerID     string          `json:"customer_id,omitempty"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	Interval       BillingInterval `json:"interval,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency,omitempty"` // ISO 4217
}

// Record is one principal's purchased entitlement.
// OwnerID is the principal's identity key and the primary key of the record.
type Record struct {
	OwnerID     string       `json:"owner_id"`
	Tier        plan.Tier    `json:"tier"`
	Status      Status       `json:"status"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	AutoRenew   bool         `json:"auto_renew"`
	TrialEndsAt *time.Time   `json:"trial_ends_at,omitempty"`
	Billing     *BillingInfo `json:"billing,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Materialized marks an in-memory default that was never stored.
	Materialized bool `json:"-"`
}

// NewTrialRecord returns the record a principal starts with: trial tier,
// trial status and a TrialPeriod window from now.
func NewTrialRecord(ownerID string, now time.Time) *Record {
	now = now.UTC()
	trialEnd := now.Add(TrialPeriod)
	return &Record{
		OwnerID:     ownerID,
		Tier:        plan.TierTrial,
		Status:      StatusTrial,
		StartDate:   now,
		EndDate:     trialEnd,
		TrialEndsAt: &trialEnd,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the fields every stored record must carry.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return fmt.Errorf("%w: owner id is required", ErrInvalidRecord)
	}
	if r.EndDate.IsZero() {
		return fmt.Errorf("%w: end date is required", ErrInvalidRecord)
	}
	return nil
}

// Normalize maps legacy tier names to current tiers and lower-cases the
// status. It must run once when a record is read from a store.
// It returns false when the tier is still unknown afterwards; lookups on
// such a record use the catalog fallback.
func (r *Record) Normalize() bool {
	tier, known := plan.ResolveTier(string(r.Tier))
	r.Tier = tier
	r.Status = Status(strings.ToLower(strings.TrimSpace(string(r.Status))))
	return known
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.TrialEndsAt != nil {
		t := *r.TrialEndsAt
		c.TrialEndsAt = &t
	}
	if r.Billing != nil {
		b := *r.Billing
		c.Billing = &b
	}
	return &c
}

// IsExpiredAt reports whether now is past the end date.
// The stored status is not consulted.
func (r *Record) IsExpiredAt(now time.Time) bool {
	return now.After(r.EndDate)
}

// IsExpired is IsExpiredAt with the wall clock.
func (r *Record) IsExpired() bool {
	return r.IsExpiredAt(time.Now())
}

// EffectiveStatusAt combines the stored status with the dates.
// A trial or active record past its end date reads as expired; an
// unrecognised status reads as expired too.
func (r *Record) EffectiveStatusAt(now time.Time) Status {
	switch r.Status {
	case StatusTrial, StatusActive:
		if r.IsExpiredAt(now) {
			return StatusExpired
		}
		return r.Status
	case StatusCancelled:
		return StatusCancelled
	default:
		return StatusExpired
	}
}

// EffectiveStatus is EffectiveStatusAt with the wall clock.
func (r *Record) EffectiveStatus() Status {
	return r.EffectiveStatusAt(time.Now())
}

// IsLiveAt reports whether the record grants its plan at the given time.
func (r *Record) IsLiveAt(now time.Time) bool {
	s := r.EffectiveStatusAt(now)
	return s == StatusTrial || s == StatusActive
}

// DaysUntilExpiryAt returns the whole days until the end date, rounded up.
// The result is negative once the record is past its end date.
func (r *Record) DaysUntilExpiryAt(now time.Time) int {
	return int(math.Ceil(float64(r.EndDate.Sub(now)) / float64(day)))
}

// DaysUntilExpiry is DaysUntilExpiryAt with the wall clock.
func (r *Record) DaysUntilExpiry() int {
	return r.DaysUntilExpiryAt(time.Now())
}

// TrialDaysRemainingAt returns the days left in the trial, rounded up.
// Returns 0 if the record is not in trial or the trial has ended.
func (r *Record) TrialDaysRemainingAt(now time.Time) int {
	if r.Status != StatusTrial || r.TrialEndsAt == nil {
		return 0
	}
	return max(int(math.Ceil(float64(r.TrialEndsAt.Sub(now))/float64(day))), 0)
}

// IsExpired reports whether rec is past its end date. A nil record is
// treated as expired.
func IsExpired(rec *Record) bool {
	if rec == nil {
		return true
	}
	return rec.IsExpired()
}

// DaysUntilExpiry returns rec.DaysUntilExpiry, or 0 for a nil record.
func DaysUntilExpiry(rec *Record) int {
	if rec == nil {
		return 0
	}
	return rec.DaysUntilExpiry()
}
