package pgstore

import "errors"

var (
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")
	ErrHealthcheckFailed        = errors.New("healthcheck failed, connection is not available")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
	ErrInvalidNotifyChannel     = errors.New("invalid notify channel name")
)
