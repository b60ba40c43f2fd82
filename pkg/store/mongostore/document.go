package mongostore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/tillkit/pkg/plan"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

// document is the stored shape of a record. Money is kept as a decimal
// string to avoid float rounding.
type document struct {
	OwnerID     string           `bson:"_id"`
	Tier        string           `bson:"tier"`
	Status      string           `bson:"status"`
	StartDate   time.Time        `bson:"start_date"`
	EndDate     time.Time        `bson:"end_date"`
	AutoRenew   bool             `bson:"auto_renew"`
	TrialEndsAt *time.Time       `bson:"trial_ends_at,omitempty"`
	Billing     *billingDocument `bson:"billing,omitempty"`
	CreatedAt   time.Time        `bson:"created_at"`
	UpdatedAt   time.Time        `bson:"updated_at"`
}

type billingDocument struct {
	Provider       string `bson:"provider,omitempty"`
	CustomerID     string `bson:"customer_id,omitempty"`
	SubscriptionID string `bson:"subscription_id,omitempty"`
	Interval       string `bson:"interval,omitempty"`
	Amount         string `bson:"amount"`
	Currency       string `bson:"currency,omitempty"`
}

func toDocument(rec *subscription.Record) document {
	doc := document{
		OwnerID:     rec.OwnerID,
		Tier:        string(rec.Tier),
		Status:      string(rec.Status),
		StartDate:   rec.StartDate.UTC(),
		EndDate:     rec.EndDate.UTC(),
		AutoRenew:   rec.AutoRenew,
		TrialEndsAt: rec.TrialEndsAt,
		CreatedAt:   rec.CreatedAt.UTC(),
		UpdatedAt:   rec.UpdatedAt.UTC(),
	}
	if b := rec.Billing; b != nil {
		doc.Billing = &billingDocument{
			Provider:       b.Provider,
			CustomerID:     b.CustomerID,
			SubscriptionID: b.SubscriptionID,
			Interval:       string(b.Interval),
			Amount:         b.Amount.String(),
			Currency:       b.Currency,
		}
	}
	return doc
}

func (d document) record() (*subscription.Record, error) {
	rec := &subscription.Record{
		OwnerID:     d.OwnerID,
		Tier:        plan.Tier(d.Tier),
		Status:      subscription.Status(d.Status),
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		AutoRenew:   d.AutoRenew,
		TrialEndsAt: d.TrialEndsAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if b := d.Billing; b != nil {
		info := &subscription.BillingInfo{
			Provider:       b.Provider,
			CustomerID:     b.CustomerID,
			SubscriptionID: b.SubscriptionID,
			Interval:       subscription.BillingInterval(b.Interval),
			Currency:       b.Currency,
		}
		if b.Amount != "" {
			amount, err := decimal.NewFromString(b.Amount)
			if err != nil {
				return nil, err
			}
			info.Amount = amount
		}
		rec.Billing = info
	}
	rec.Normalize()
	return rec, nil
}
