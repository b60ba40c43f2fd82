// Package rbac resolves what an acting identity may do at the register.
//
// There are two kinds of identity. A Principal is the business owner and
// always receives every permission with a 100% discount ceiling. A
// DelegatedSession is a staff member working under a principal; its
// permissions come from a fixed table keyed by Role and cannot be
// overridden per session:
//
//	role           ceiling  switches
//	principal      100      all
//	staff_admin     50      all except transaction_delete
//	staff_cashier   10      cashier_access, catalog_view, transaction_view,
//	                        customer_view, discount_grant
//
// An Actor with neither identity resolves to an empty set. That is "no
// access", not an error.
//
// Basic usage:
//
//	sess, err := rbac.NewDelegatedSession(staffID, ownerID, rbac.RoleStaffCashier,
//	    rbac.LoginMethodToken, time.Now())
//	actor := rbac.DelegatedActor(sess)
//
//	set := rbac.Resolve(actor)
//	if set.CanGrantDiscount(decimal.NewFromInt(15)) {
//	    // never true for a cashier
//	}
//
//	if err := rbac.Require(actor, rbac.PermCatalogManage); err != nil {
//	    // errors.Is(err, rbac.ErrInsufficientPermissions)
//	}
//
// Role permissions say nothing about what the plan includes. staff_manage is
// useless on a plan without the staff_management feature; see the
// entitlement package for the combined check.
package rbac
