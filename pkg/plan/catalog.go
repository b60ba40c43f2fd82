package plan

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Entitlement is the quota and capability vector of a single tier.
type Entitlement struct {
	Tier     Tier                `json:"tier" yaml:"tier"`
	Name     string              `json:"name" yaml:"name"`
	Limits   map[LimitKind]int64 `json:"limits" yaml:"limits"` // -1 represents unlimited
	Features []Feature           `json:"features" yaml:"features"`
}

// Quota returns the configured limit for kind.
// The second value is false when the entitlement does not define kind.
func (e Entitlement) Quota(kind LimitKind) (int64, bool) {
	limit, ok := e.Limits[kind]
	return limit, ok
}

// Has reports whether the capability flag is enabled for this tier.
func (e Entitlement) Has(f Feature) bool {
	return slices.Contains(e.Features, f)
}

func (e Entitlement) clone() Entitlement {
	return Entitlement{
		Tier:     e.Tier,
		Name:     e.Name,
		Limits:   maps.Clone(e.Limits),
		Features: slices.Clone(e.Features),
	}
}

// FallbackFunc is called when a tier outside the catalog is looked up.
// requested is the unknown value, resolved the tier used instead.
type FallbackFunc func(requested, resolved Tier)

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithTopTier overrides the tier used as fallback for unknown lookups.
// The tier must be part of the catalog.
func WithTopTier(t Tier) CatalogOption {
	return func(c *Catalog) {
		c.top = t
	}
}

// WithFallbackHook registers a callback for unknown-tier lookups,
// typically used to log data drift.
func WithFallbackHook(fn FallbackFunc) CatalogOption {
	return func(c *Catalog) {
		if fn != nil {
			c.onFallback = fn
		}
	}
}

// Catalog maps every tier to exactly one Entitlement.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	entries    map[Tier]Entitlement
	top        Tier
	onFallback FallbackFunc
}

// NewCatalog validates the entitlements and builds a Catalog.
// Every tier in Tiers must be defined exactly once and every entry must
// carry a quota for each kind in LimitKinds.
func NewCatalog(entitlements []Entitlement, opts ...CatalogOption) (*Catalog, error) {
	c := &Catalog{
		entries: make(map[Tier]Entitlement, len(entitlements)),
		top:     TierUnlimited,
	}

	for _, e := range entitlements {
		if _, exists := c.entries[e.Tier]; exists {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("%w: %s", ErrDuplicateTier, e.Tier))
		}
		if err := validateEntitlement(e); err != nil {
			return nil, errors.Join(ErrInvalidCatalog, err)
		}
		c.entries[e.Tier] = e.clone()
	}

	for _, t := range Tiers {
		if _, ok := c.entries[t]; !ok {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("%w: %s", ErrMissingTier, t))
		}
	}

	for _, opt := range opts {
		opt(c)
	}

	if _, ok := c.entries[c.top]; !ok {
		return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("%w: top tier %s", ErrMissingTier, c.top))
	}

	return c, nil
}

// MustNewCatalog is like NewCatalog but panics on invalid configuration.
func MustNewCatalog(entitlements []Entitlement, opts ...CatalogOption) *Catalog {
	c, err := NewCatalog(entitlements, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// EntitlementFor returns the entitlement of tier t.
// Unknown tiers resolve to the most capable tier so that data drift never
// blocks a paying customer; the fallback hook is notified when it happens.
func (c *Catalog) EntitlementFor(t Tier) Entitlement {
	return c.resolve(t).clone()
}

// Lookup returns the entitlement of t without applying the fallback.
func (c *Catalog) Lookup(t Tier) (Entitlement, bool) {
	e, ok := c.entries[t]
	if !ok {
		return Entitlement{}, false
	}
	return e.clone(), true
}

// Top returns the fallback tier.
func (c *Catalog) Top() Tier {
	return c.top
}

// Entitlements returns all entries ordered from least to most capable.
func (c *Catalog) Entitlements() []Entitlement {
	result := make([]Entitlement, 0, len(c.entries))
	for _, t := range Tiers {
		if e, ok := c.entries[t]; ok {
			result = append(result, e.clone())
		}
	}
	return result
}

// resolve returns the stored entry without copying. Callers must not mutate it.
func (c *Catalog) resolve(t Tier) Entitlement {
	if e, ok := c.entries[t]; ok {
		return e
	}
	if c.onFallback != nil {
		c.onFallback(t, c.top)
	}
	return c.entries[c.top]
}

func validateEntitlement(e Entitlement) error {
	for _, kind := range LimitKinds {
		limit, ok := e.Limits[kind]
		if !ok {
			return fmt.Errorf("%w: tier %s has no %s quota", ErrInvalidQuota, e.Tier, kind)
		}
		if limit < Unlimited {
			return fmt.Errorf("%w: tier %s %s=%d", ErrInvalidQuota, e.Tier, kind, limit)
		}
	}
	for kind := range e.Limits {
		if !IsKnownLimitKind(kind) {
			return fmt.Errorf("%w: %s", ErrUnknownLimitKind, kind)
		}
	}
	for _, f := range e.Features {
		if !IsKnownFeature(f) {
			return fmt.Errorf("%w: %s", ErrUnknownFeature, f)
		}
	}
	return nil
}
