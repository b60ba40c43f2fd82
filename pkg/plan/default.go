package plan

var trialFeatures = []Feature{
	FeatureBarcodeScanning,
	FeatureTransactionExport,
	FeatureReceiptCustomization,
}

// standardFeatures adds staff tooling and live sync on top of trial.
var standardFeatures = appendFeatures(trialFeatures,
	FeatureRealtimeSync,
	FeatureStaffManagement,
	FeatureQuickLoginToken,
	FeatureStaffBadgePrinting,
)

func appendFeatures(base []Feature, extra ...Feature) []Feature {
	result := make([]Feature, len(base), len(base)+len(extra))
	copy(result, base)
	return append(result, extra...)
}

// DefaultEntitlements returns the built-in plan definitions.
func DefaultEntitlements() []Entitlement {
	return []Entitlement{
		{
			Tier: TierTrial,
			Name: "Trial",
			Limits: map[LimitKind]int64{
				LimitCatalogItems:      50,
				LimitStaffSeats:        1,
				LimitMonthlyOperations: 300,
				LimitSites:             1,
			},
			Features: trialFeatures,
		},
		{
			Tier: TierStandard,
			Name: "Standard",
			Limits: map[LimitKind]int64{
				LimitCatalogItems:      1000,
				LimitStaffSeats:        5,
				LimitMonthlyOperations: 10000,
				LimitSites:             1,
			},
			Features: standardFeatures,
		},
		{
			Tier: TierUnlimited,
			Name: "Unlimited",
			Limits: map[LimitKind]int64{
				LimitCatalogItems:      Unlimited,
				LimitStaffSeats:        Unlimited,
				LimitMonthlyOperations: Unlimited,
				LimitSites:             Unlimited,
			},
			Features: Features,
		},
	}
}

var defaultCatalog = MustNewCatalog(DefaultEntitlements())

// Default returns the catalog built from DefaultEntitlements.
func Default() *Catalog {
	return defaultCatalog
}

// EntitlementFor looks up t in the default catalog.
func EntitlementFor(t Tier) Entitlement {
	return defaultCatalog.EntitlementFor(t)
}

// CheckLimit runs a quota check against the default catalog.
func CheckLimit(t Tier, kind LimitKind, current int64) LimitResult {
	return defaultCatalog.CheckLimit(t, kind, current)
}

// HasFeature tests a capability flag against the default catalog.
func HasFeature(t Tier, f Feature) bool {
	return defaultCatalog.HasFeature(t, f)
}
