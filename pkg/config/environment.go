package config

import (
	"fmt"
	"strings"
)

// Environment is the deployment stage of the process.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// ParseEnvironment accepts full names and the short forms "dev", "stage"
// and "prod".
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev", "":
		return Development, nil
	case "staging", "stage":
		return Staging, nil
	case "production", "prod":
		return Production, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEnvironment, s)
	}
}

// UnmarshalText lets env.Parse fill Environment fields.
func (e *Environment) UnmarshalText(text []byte) error {
	parsed, err := ParseEnvironment(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// IsProduction reports whether e is Production.
func (e Environment) IsProduction() bool {
	return e == Production
}
