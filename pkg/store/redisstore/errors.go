package redisstore

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
	ErrFailedToDecodeRecord         = errors.New("failed to decode subscription record")
)
