package rbac

import (
	"github.com/shopspring/decimal"
)

// Permission names a single capability switch.
type Permission string

const (
	PermCashierAccess     Permission = "cashier_access"
	PermCatalogView       Permission = "catalog_view"
	PermCatalogManage     Permission = "catalog_manage"
	PermTransactionView   Permission = "transaction_view"
	PermCustomerView      Permission = "customer_view"
	PermCustomerManage    Permission = "customer_manage"
	PermReportsView       Permission = "reports_view"
	PermSettingsAccess    Permission = "settings_access"
	PermStaffManage       Permission = "staff_manage"
	PermTransactionDelete Permission = "transaction_delete"
	PermDiscountGrant     Permission = "discount_grant"
)

// Permissions lists every capability switch in display order.
var Permissions = []Permission{
	PermCashierAccess,
	PermCatalogView,
	PermCatalogManage,
	PermTransactionView,
	PermCustomerView,
	PermCustomerManage,
	PermReportsView,
	PermSettingsAccess,
	PermStaffManage,
	PermTransactionDelete,
	PermDiscountGrant,
}

// PermissionSet is the effective capability vector of an actor.
// DiscountCeiling is a percentage in the range [0, 100].
type PermissionSet struct {
	Role              Role            `json:"role"`
	CashierAccess     bool            `json:"cashier_access"`
	CatalogView       bool            `json:"catalog_view"`
	CatalogManage     bool            `json:"catalog_manage"`
	TransactionView   bool            `json:"transaction_view"`
	CustomerView      bool            `json:"customer_view"`
	CustomerManage    bool            `json:"customer_manage"`
	ReportsView       bool            `json:"reports_view"`
	SettingsAccess    bool            `json:"settings_access"`
	StaffManage       bool            `json:"staff_manage"`
	TransactionDelete bool            `json:"transaction_delete"`
	DiscountGrant     bool            `json:"discount_grant"`
	DiscountCeiling   decimal.Decimal `json:"discount_ceiling"`
}

// Can reports whether the switch for p is on. Unknown permissions are denied.
func (s PermissionSet) Can(p Permission) bool {
	switch p {
	case PermCashierAccess:
		return s.CashierAccess
	case PermCatalogView:
		return s.CatalogView
	case PermCatalogManage:
		return s.CatalogManage
	case PermTransactionView:
		return s.TransactionView
	case PermCustomerView:
		return s.CustomerView
	case PermCustomerManage:
		return s.CustomerManage
	case PermReportsView:
		return s.ReportsView
	case PermSettingsAccess:
		return s.SettingsAccess
	case PermStaffManage:
		return s.StaffManage
	case PermTransactionDelete:
		return s.TransactionDelete
	case PermDiscountGrant:
		return s.DiscountGrant
	default:
		return false
	}
}

// CanGrantDiscount reports whether a discount of pct percent may be granted.
func (s PermissionSet) CanGrantDiscount(pct decimal.Decimal) bool {
	if !s.DiscountGrant || pct.IsNegative() {
		return false
	}
	return pct.LessThanOrEqual(s.DiscountCeiling)
}

// Granted returns the enabled switches in Permissions order.
func (s PermissionSet) Granted() []Permission {
	granted := make([]Permission, 0, len(Permissions))
	for _, p := range Permissions {
		if s.Can(p) {
			granted = append(granted, p)
		}
	}
	return granted
}

// IsEmpty reports whether no switch is on.
func (s PermissionSet) IsEmpty() bool {
	return len(s.Granted()) == 0
}

// Equal compares two sets, treating ceilings by numeric value.
func (s PermissionSet) Equal(o PermissionSet) bool {
	ceilingS, ceilingO := s.DiscountCeiling, o.DiscountCeiling
	s.DiscountCeiling, o.DiscountCeiling = decimal.Zero, decimal.Zero
	return s == o && ceilingS.Equal(ceilingO)
}

func setOf(role Role, ceiling int64, perms ...Permission) PermissionSet {
	s := PermissionSet{Role: role, DiscountCeiling: decimal.NewFromInt(ceiling)}
	for _, p := range perms {
		switch p {
		case PermCashierAccess:
			s.CashierAccess = true
		case PermCatalogView:
			s.CatalogView = true
		case PermCatalogManage:
			s.CatalogManage = true
		case PermTransactionView:
			s.TransactionView = true
		case PermCustomerView:
			s.CustomerView = true
		case PermCustomerManage:
			s.CustomerManage = true
		case PermReportsView:
			s.ReportsView = true
		case PermSettingsAccess:
			s.SettingsAccess = true
		case PermStaffManage:
			s.StaffManage = true
		case PermTransactionDelete:
			s.TransactionDelete = true
		case PermDiscountGrant:
			s.DiscountGrant = true
		}
	}
	return s
}
