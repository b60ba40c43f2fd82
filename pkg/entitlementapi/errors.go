package entitlementapi

import "errors"

var (
	ErrInvalidTier      = errors.New("entitlementapi: unknown plan tier")
	ErrInvalidLimitKind = errors.New("entitlementapi: unknown limit kind")
	ErrInvalidFeature   = errors.New("entitlementapi: unknown feature")
	ErrInvalidCount     = errors.New("entitlementapi: count must be an integer")
	ErrInvalidOwner     = errors.New("entitlementapi: owner id is required")
	ErrStoreUnavailable = errors.New("entitlementapi: record store unavailable")
)
