package rbac

import "errors"

// Domain errors for RBAC operations.
var (
	// ErrInvalidRole is returned when a role does not exist or cannot be used in the given position.
	ErrInvalidRole = errors.New("rbac.invalid_role")

	// ErrInsufficientPermissions is returned when required permissions are not granted.
	ErrInsufficientPermissions = errors.New("rbac.insufficient_permissions")

	// ErrNoIdentity is returned when a check is made without a principal or delegated session.
	ErrNoIdentity = errors.New("rbac.no_identity")

	// ErrInvalidSession is returned when a delegated session misses its staff or principal key.
	ErrInvalidSession = errors.New("rbac.invalid_session")

	// ErrActorNotInContext is returned when no actor is found in the context.
	ErrActorNotInContext = errors.New("rbac.actor_not_in_context")
)
