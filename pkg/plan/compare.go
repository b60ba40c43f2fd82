package plan

import (
	"errors"
	"fmt"
	"slices"
)

// Comparison contains the differences between two tiers.
// Used to validate downgrades and communicate changes to users.
type Comparison struct {
	From            Tier
	To              Tier
	NewFeatures     []Feature
	LostFeatures    []Feature
	IncreasedLimits map[LimitKind]LimitChange
	DecreasedLimits map[LimitKind]LimitChange
}

// LimitChange represents a change of a single quota.
type LimitChange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// IsDowngrade returns true if any feature is lost or any quota shrinks.
func (c *Comparison) IsDowngrade() bool {
	return len(c.LostFeatures) > 0 || len(c.DecreasedLimits) > 0
}

// Compare returns the differences between the current and target tiers.
func (c *Catalog) Compare(current, target Tier) *Comparison {
	from, to := c.resolve(current), c.resolve(target)

	cmp := &Comparison{
		From:            current,
		To:              target,
		NewFeatures:     make([]Feature, 0),
		LostFeatures:    make([]Feature, 0),
		IncreasedLimits: make(map[LimitKind]LimitChange),
		DecreasedLimits: make(map[LimitKind]LimitChange),
	}

	for _, f := range to.Features {
		if !slices.Contains(from.Features, f) {
			cmp.NewFeatures = append(cmp.NewFeatures, f)
		}
	}
	for _, f := range from.Features {
		if !slices.Contains(to.Features, f) {
			cmp.LostFeatures = append(cmp.LostFeatures, f)
		}
	}

	for _, kind := range LimitKinds {
		fromLimit, toLimit := from.Limits[kind], to.Limits[kind]
		if fromLimit == toLimit {
			continue
		}
		change := LimitChange{From: fromLimit, To: toLimit}

		// Unlimited-to-limited counts as a decrease
		switch {
		case fromLimit == Unlimited:
			cmp.DecreasedLimits[kind] = change
		case toLimit == Unlimited, toLimit > fromLimit:
			cmp.IncreasedLimits[kind] = change
		default:
			cmp.DecreasedLimits[kind] = change
		}
	}

	return cmp
}

// CanDowngrade checks that current usage fits into every quota lowered by
// moving from current to target. Kinds absent from usage are not checked.
func (c *Catalog) CanDowngrade(current, target Tier, usage map[LimitKind]int64) error {
	cmp := c.Compare(current, target)
	for kind, change := range cmp.DecreasedLimits {
		used, ok := usage[kind]
		if !ok {
			continue
		}
		if used > change.To {
			return errors.Join(ErrDowngradeNotPossible,
				fmt.Errorf("%s usage %d exceeds %s quota %d", kind, used, target, change.To))
		}
	}
	return nil
}
