package plan

import "errors"

var (
	ErrInvalidCatalog       = errors.New("plan: invalid catalog configuration")
	ErrDuplicateTier        = errors.New("plan: tier defined more than once")
	ErrMissingTier          = errors.New("plan: catalog has no entry for tier")
	ErrInvalidQuota         = errors.New("plan: quota must be non-negative or unlimited")
	ErrUnknownFeature       = errors.New("plan: unknown feature flag")
	ErrUnknownLimitKind     = errors.New("plan: unknown limit kind")
	ErrFailedToLoadCatalog  = errors.New("plan: failed to load catalog")
	ErrDowngradeNotPossible = errors.New("plan: downgrade not possible with current usage")
)
