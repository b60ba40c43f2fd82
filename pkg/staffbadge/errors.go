package staffbadge

import "errors"

var (
	ErrFeatureUnavailable = errors.New("staffbadge: quick login is not included in the plan")
	ErrInvalidToken       = errors.New("staffbadge: invalid token")
	ErrTokenExpired       = errors.New("staffbadge: token expired")
	ErrCredentialNotFound = errors.New("staffbadge: credential not found")
	ErrRenderBadge        = errors.New("staffbadge: failed to render badge")
)
