package plan

// LimitResult is the outcome of a quota check.
type LimitResult struct {
	Allowed   bool  `json:"allowed"`
	Limit     int64 `json:"limit"`     // Unlimited (-1) when the quota is unbounded
	Remaining int64 `json:"remaining"` // Unlimited (-1) when the quota is unbounded
}

// IsUnlimited reports whether the checked quota is unbounded.
func (r LimitResult) IsUnlimited() bool {
	return r.Limit == Unlimited
}

// CheckLimit compares current usage against the tier quota for kind.
// Counting is the caller's job; negative counts are treated as zero.
// An unknown kind is denied with a zero limit.
func (c *Catalog) CheckLimit(t Tier, kind LimitKind, current int64) LimitResult {
	limit, ok := c.resolve(t).Quota(kind)
	if !ok {
		return LimitResult{}
	}

	if limit == Unlimited {
		return LimitResult{Allowed: true, Limit: Unlimited, Remaining: Unlimited}
	}

	current = max(current, 0)
	return LimitResult{
		Allowed:   current < limit,
		Limit:     limit,
		Remaining: max(limit-current, 0),
	}
}

// UsagePercentage returns usage as a percentage (0-100, or -1 for unlimited).
// Caps at 100 so over-quota tenants do not break progress bars.
func UsagePercentage(current, limit int64) int {
	if limit == Unlimited {
		return -1
	}
	if limit == 0 {
		return 100
	}
	return int(min((max(current, 0)*100)/limit, 100))
}
