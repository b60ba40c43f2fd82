package rbac_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tillkit/pkg/rbac"
)

func newSession(t *testing.T, role rbac.Role) *rbac.DelegatedSession {
	t.Helper()
	s, err := rbac.NewDelegatedSession("staff-1", "owner-1", role, rbac.LoginMethodToken, time.Now())
	require.NoError(t, err)
	return s
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("principal gets everything", func(t *testing.T) {
		t.Parallel()
		set := rbac.Resolve(rbac.PrincipalActor("owner-1"))
		assert.Equal(t, rbac.RolePrincipal, set.Role)
		assert.Equal(t, rbac.Permissions, set.Granted())
		assert.True(t, set.DiscountCeiling.Equal(decimal.NewFromInt(100)))
	})

	t.Run("staff admin cannot delete transactions", func(t *testing.T) {
		t.Parallel()
		set := rbac.Resolve(rbac.DelegatedActor(newSession(t, rbac.RoleStaffAdmin)))
		assert.Equal(t, rbac.RoleStaffAdmin, set.Role)
		assert.False(t, set.Can(rbac.PermTransactionDelete))
		assert.True(t, set.Can(rbac.PermStaffManage))
		assert.True(t, set.Can(rbac.PermSettingsAccess))
		assert.Len(t, set.Granted(), len(rbac.Permissions)-1)
		assert.True(t, set.DiscountCeiling.Equal(decimal.NewFromInt(50)))
	})

	t.Run("cashier template", func(t *testing.T) {
		t.Parallel()
		set := rbac.Resolve(rbac.DelegatedActor(newSession(t, rbac.RoleStaffCashier)))
		assert.Equal(t, []rbac.Permission{
			rbac.PermCashierAccess,
			rbac.PermCatalogView,
			rbac.PermTransactionView,
			rbac.PermCustomerView,
			rbac.PermDiscountGrant,
		}, set.Granted())
		assert.False(t, set.Can(rbac.PermStaffManage))
		assert.True(t, set.DiscountCeiling.Equal(decimal.NewFromInt(10)))
	})

	t.Run("session wins over principal", func(t *testing.T) {
		t.Parallel()
		actor := rbac.Actor{
			Principal: &rbac.Principal{ID: "someone-else"},
			Session:   newSession(t, rbac.RoleStaffCashier),
		}
		assert.Equal(t, rbac.ActorDelegated, actor.Kind())
		assert.Equal(t, rbac.RoleStaffCashier, rbac.Resolve(actor).Role)
		assert.Equal(t, "staff-1", actor.ID())
	})

	t.Run("session permissions snapshot is ignored", func(t *testing.T) {
		t.Parallel()
		s := newSession(t, rbac.RoleStaffCashier)
		s.Permissions = rbac.ResolveRole(rbac.RolePrincipal)
		set := rbac.Resolve(rbac.DelegatedActor(s))
		assert.False(t, set.Can(rbac.PermSettingsAccess))
	})

	t.Run("session cannot carry principal role", func(t *testing.T) {
		t.Parallel()
		s := &rbac.DelegatedSession{StaffID: "x", PrincipalID: "y", Role: rbac.RolePrincipal}
		assert.True(t, rbac.Resolve(rbac.DelegatedActor(s)).IsEmpty())
	})

	t.Run("no identity resolves to empty set", func(t *testing.T) {
		t.Parallel()
		set := rbac.Resolve(rbac.Actor{})
		assert.Equal(t, rbac.RoleNone, set.Role)
		assert.True(t, set.IsEmpty())
		assert.True(t, set.DiscountCeiling.IsZero())
		assert.Equal(t, rbac.ActorNone, rbac.Actor{Principal: &rbac.Principal{}}.Kind())
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		actor := rbac.DelegatedActor(newSession(t, rbac.RoleStaffAdmin))
		assert.True(t, rbac.Resolve(actor).Equal(rbac.Resolve(actor)))
	})
}

func TestResolveRole_Unknown(t *testing.T) {
	t.Parallel()
	set := rbac.ResolveRole("manager")
	assert.True(t, set.Equal(rbac.PermissionSet{}))
}

func TestCanGrantDiscount(t *testing.T) {
	t.Parallel()

	cashier := rbac.ResolveRole(rbac.RoleStaffCashier)
	assert.True(t, cashier.CanGrantDiscount(decimal.NewFromInt(10)))
	assert.True(t, cashier.CanGrantDiscount(decimal.RequireFromString("9.99")))
	assert.False(t, cashier.CanGrantDiscount(decimal.RequireFromString("10.01")))
	assert.False(t, cashier.CanGrantDiscount(decimal.NewFromInt(-1)))

	assert.True(t, rbac.ResolveRole(rbac.RolePrincipal).CanGrantDiscount(decimal.NewFromInt(100)))
	assert.False(t, rbac.PermissionSet{}.CanGrantDiscount(decimal.Zero))
}

func TestRequire(t *testing.T) {
	t.Parallel()

	cashier := rbac.DelegatedActor(newSession(t, rbac.RoleStaffCashier))

	require.NoError(t, rbac.Require(cashier, rbac.PermCashierAccess, rbac.PermCatalogView))

	err := rbac.Require(cashier, rbac.PermCatalogView, rbac.PermCatalogManage, rbac.PermReportsView)
	require.ErrorIs(t, err, rbac.ErrInsufficientPermissions)
	assert.Contains(t, err.Error(), "catalog_manage, reports_view")

	assert.ErrorIs(t, rbac.Require(rbac.Actor{}, rbac.PermCatalogView), rbac.ErrNoIdentity)
	assert.NoError(t, rbac.Require(rbac.PrincipalActor("owner"), rbac.Permissions...))
}

func TestNewDelegatedSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s, err := rbac.NewDelegatedSession(" staff ", "owner", rbac.RoleStaffAdmin, "", now)
	require.NoError(t, err)
	assert.Equal(t, "staff", s.StaffID)
	assert.Equal(t, rbac.LoginMethodCredential, s.Method)
	assert.Equal(t, now, s.StartedAt)
	assert.True(t, s.Permissions.Equal(rbac.ResolveRole(rbac.RoleStaffAdmin)))

	_, err = rbac.NewDelegatedSession("staff", "owner", rbac.RolePrincipal, rbac.LoginMethodToken, now)
	assert.ErrorIs(t, err, rbac.ErrInvalidRole)

	_, err = rbac.NewDelegatedSession("staff", "", rbac.RoleStaffCashier, rbac.LoginMethodToken, now)
	assert.ErrorIs(t, err, rbac.ErrInvalidSession)
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	r, err := rbac.ParseRole("Staff-Cashier")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleStaffCashier, r)

	_, err = rbac.ParseRole("owner")
	assert.ErrorIs(t, err, rbac.ErrInvalidRole)
	assert.Equal(t, "none", rbac.RoleNone.String())
}

func TestActor_Equal(t *testing.T) {
	t.Parallel()

	a := rbac.DelegatedActor(newSession(t, rbac.RoleStaffCashier))
	b := rbac.DelegatedActor(newSession(t, rbac.RoleStaffCashier))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(rbac.DelegatedActor(newSession(t, rbac.RoleStaffAdmin))))
	assert.True(t, rbac.PrincipalActor("p").Equal(rbac.PrincipalActor("p")))
	assert.False(t, rbac.PrincipalActor("p").Equal(rbac.PrincipalActor("q")))
	assert.True(t, rbac.Actor{}.Equal(rbac.Actor{}))
}
