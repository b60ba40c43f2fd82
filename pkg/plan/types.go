package plan

import "slices"

// Tier identifies a purchasable plan level.
type Tier string

const (
	TierTrial     Tier = "trial"
	TierStandard  Tier = "standard"
	TierUnlimited Tier = "unlimited"
)

// Tiers lists the known tiers ordered from least to most capable.
var Tiers = []Tier{TierTrial, TierStandard, TierUnlimited}

// LimitKind represents a countable quota dimension of a plan.
type LimitKind string

const (
	LimitCatalogItems      LimitKind = "catalog_items"
	LimitStaffSeats        LimitKind = "staff_seats"
	LimitMonthlyOperations LimitKind = "monthly_operations"
	LimitSites             LimitKind = "sites"
)

// LimitKinds lists every quota dimension a catalog entry must define.
var LimitKinds = []LimitKind{
	LimitCatalogItems,
	LimitStaffSeats,
	LimitMonthlyOperations,
	LimitSites,
}

const (
	// Unlimited marks a quota with no upper bound (-1 chosen for SQL compatibility)
	Unlimited int64 = -1
)

// Feature represents a boolean capability flag of a plan.
type Feature string

const (
	FeatureRealtimeSync           Feature = "realtime_sync"
	FeatureAdvancedReporting      Feature = "advanced_reporting"
	FeatureAIAssistant            Feature = "ai_assistant"
	FeatureFineGrainedPermissions Feature = "fine_grained_permissions"
	FeatureBarcodeScanning        Feature = "barcode_scanning"
	FeatureStaffManagement        Feature = "staff_management"
	FeatureStaffBadgePrinting     Feature = "staff_badge_printing"
	FeatureQuickLoginToken        Feature = "quick_login_token"
	FeatureTransactionExport      Feature = "transaction_export"
	FeatureTransactionDeletion    Feature = "transaction_deletion"
	FeatureReceiptCustomization   Feature = "receipt_customization"
)

// Features lists every capability flag known to the catalog.
var Features = []Feature{
	FeatureRealtimeSync,
	FeatureAdvancedReporting,
	FeatureAIAssistant,
	FeatureFineGrainedPermissions,
	FeatureBarcodeScanning,
	FeatureStaffManagement,
	FeatureStaffBadgePrinting,
	FeatureQuickLoginToken,
	FeatureTransactionExport,
	FeatureTransactionDeletion,
	FeatureReceiptCustomization,
}

// IsKnownLimitKind reports whether k is one of LimitKinds.
func IsKnownLimitKind(k LimitKind) bool {
	return slices.Contains(LimitKinds, k)
}

// IsKnownFeature reports whether f is one of Features.
func IsKnownFeature(f Feature) bool {
	return slices.Contains(Features, f)
}
