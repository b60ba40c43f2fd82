package plan

import "strings"

// legacyTiers maps plan identifiers found in older records to current tiers.
var legacyTiers = map[string]Tier{
	"free":       TierTrial,
	"basic":      TierStandard,
	"starter":    TierStandard,
	"pro":        TierUnlimited,
	"business":   TierUnlimited,
	"premium":    TierUnlimited,
	"enterprise": TierUnlimited,
}

// ResolveTier normalises a stored tier identifier.
// Current tier names and legacy aliases resolve to their Tier; anything
// else is returned trimmed and lower-cased so that the catalog fallback
// applies on lookup. The boolean reports whether the value was recognised.
func ResolveTier(raw string) (Tier, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch t := Tier(v); t {
	case TierTrial, TierStandard, TierUnlimited:
		return t, true
	}
	if t, ok := legacyTiers[v]; ok {
		return t, true
	}
	return Tier(v), false
}

// IsLegacyAlias reports whether raw is a legacy plan identifier.
func IsLegacyAlias(raw string) bool {
	_, ok := legacyTiers[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}
