package subscription

import "errors"

var (
	ErrRecordNotFound    = errors.New("subscription record not found")
	ErrRecordExists      = errors.New("subscription record already exists")
	ErrInvalidRecord     = errors.New("invalid subscription record")
	ErrInvalidTransition = errors.New("invalid subscription state transition")
	ErrFeedClosed        = errors.New("subscription feed closed")
)
