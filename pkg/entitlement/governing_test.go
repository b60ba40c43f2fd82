package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tillkit/pkg/entitlement"
	"github.com/dmitrymomot/tillkit/pkg/rbac"
)

func TestGoverningOwner(t *testing.T) {
	t.Parallel()

	delegated := staffActor("staff-1", "owner-b", rbac.RoleStaffCashier)
	both := rbac.Actor{Principal: &rbac.Principal{ID: "owner-a"}, Session: delegated.Session}

	tests := []struct {
		name  string
		actor rbac.Actor
		want  string
		ok    bool
	}{
		{"principal", rbac.PrincipalActor("owner-a"), "owner-a", true},
		{"delegated", delegated, "owner-b", true},
		{"session wins over principal", both, "owner-b", true},
		{"no identity", rbac.Actor{}, "", false},
		{"blank principal", rbac.PrincipalActor("  "), "", false},
		{"session without principal", rbac.Actor{Session: &rbac.DelegatedSession{StaffID: "s"}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := entitlement.GoverningOwner(tt.actor)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
