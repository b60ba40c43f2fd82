// Package plan defines the point-of-sale plan catalog: the closed set of
// tiers, their numeric quotas and their boolean capability flags.
//
// The package is pure. Every lookup is total: a tier value that is not part
// of the catalog resolves to the most capable tier (see Catalog.Top) instead
// of failing closed, so that drifted records never lock a paying business out
// of its register. Register a hook with WithFallbackHook to observe it.
//
// # Quota checks
//
//	res := plan.CheckLimit(plan.TierStandard, plan.LimitStaffSeats, 5)
//	// res.Allowed == false, res.Limit == 5, res.Remaining == 0
//
// Usage counts are supplied by the caller. A quota of Unlimited (-1) always
// allows and reports Unlimited for both Limit and Remaining.
//
// # Feature flags
//
//	if plan.HasFeature(tier, plan.FeatureBarcodeScanning) {
//		// enable the scanner input
//	}
//
// # Legacy identifiers
//
// Older records may carry plan names that no longer exist ("basic",
// "business", ...). ResolveTier maps them to current tiers and must be applied
// once when a record is ingested, not at call sites.
//
// # Custom catalogs
//
// LoadFile and LoadYAML build a Catalog from a YAML document; NewCatalog
// validates that every tier is defined exactly once with a quota for every
// LimitKind.
package plan
