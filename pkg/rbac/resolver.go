package rbac

import (
	"context"
	"fmt"
	"strings"
)

// staffTable is the fixed permission template per staff role.
// It is never derived from the subscription.
var staffTable = map[Role]PermissionSet{
	RoleStaffAdmin: setOf(RoleStaffAdmin, 50,
		PermCashierAccess,
		PermCatalogView,
		PermCatalogManage,
		PermTransactionView,
		PermCustomerView,
		PermCustomerManage,
		PermReportsView,
		PermSettingsAccess,
		PermStaffManage,
		PermDiscountGrant,
	),
	RoleStaffCashier: setOf(RoleStaffCashier, 10,
		PermCashierAccess,
		PermCatalogView,
		PermTransactionView,
		PermCustomerView,
		PermDiscountGrant,
	),
}

// ResolveRole returns the permission template of role.
// The principal gets every switch and a 100% ceiling; unknown roles get
// an empty set with the null role.
func ResolveRole(role Role) PermissionSet {
	if role == RolePrincipal {
		return setOf(RolePrincipal, 100, Permissions...)
	}
	if s, ok := staffTable[role]; ok {
		return s
	}
	return PermissionSet{}
}

// Resolve derives the effective permission set of the actor.
//
// A delegated session is resolved from its role alone, never from the
// Permissions snapshot it carries and never from the subscription. A staff
// session cannot escalate to the principal template. Without any identity the
// empty set is returned; callers must read that as "no access".
//
// Resolve does not consult the plan. Pair it with a feature check at the
// call site, or use entitlement.Engine.Authorize which does both.
func Resolve(a Actor) PermissionSet {
	switch a.Kind() {
	case ActorDelegated:
		if !a.Session.Role.IsStaff() {
			return PermissionSet{}
		}
		return ResolveRole(a.Session.Role)
	case ActorPrincipal:
		return ResolveRole(RolePrincipal)
	default:
		return PermissionSet{}
	}
}

// Require returns nil when the actor holds every permission in perms.
func Require(a Actor, perms ...Permission) error {
	if a.Kind() == ActorNone {
		return ErrNoIdentity
	}

	set := Resolve(a)
	var missing []string
	for _, p := range perms {
		if !set.Can(p) {
			missing = append(missing, string(p))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientPermissions, strings.Join(missing, ", "))
	}
	return nil
}

// RequireFromContext runs Require against the actor stored in ctx.
func RequireFromContext(ctx context.Context, perms ...Permission) error {
	a, ok := ActorFromContext(ctx)
	if !ok {
		return ErrActorNotInContext
	}
	return Require(a, perms...)
}
