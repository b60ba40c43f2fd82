package entitlement

import "errors"

var (
	// ErrSyncUnavailable is the recoverable condition reported when the live
	// subscription cannot be opened or breaks. The last snapshot is kept.
	ErrSyncUnavailable = errors.New("entitlement: live sync unavailable")

	ErrSynchronizerClosed = errors.New("entitlement: synchronizer closed")
	ErrNoCounter          = errors.New("entitlement: no usage counter registered")
	ErrUsageCount         = errors.New("entitlement: usage count failed")
)
