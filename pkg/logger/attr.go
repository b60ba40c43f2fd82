package logger

import (
	"log/slog"
	"strconv"

	"github.com/dmitrymomot/tillkit/pkg/plan"
	"github.com/dmitrymomot/tillkit/pkg/rbac"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error". A nil error yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Owner records the governing principal id under "owner_id".
func Owner(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("owner_id", id)
}

// Tier records a plan tier under "tier".
func Tier(t plan.Tier) slog.Attr {
	return slog.String("tier", string(t))
}

// Actor describes the acting identity as an "actor" group.
func Actor(a rbac.Actor) slog.Attr {
	attrs := []slog.Attr{slog.String("kind", string(a.Kind()))}
	switch a.Kind() {
	case rbac.ActorDelegated:
		attrs = append(attrs,
			slog.String("id", a.Session.StaffID),
			slog.String("principal_id", a.Session.PrincipalID),
			slog.String("role", string(a.Session.Role)),
		)
	case rbac.ActorPrincipal:
		attrs = append(attrs, slog.String("id", a.Principal.ID))
	}
	return Group("actor", attrs...)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
