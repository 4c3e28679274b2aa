package auth

import (
	"sort"

	"billing-backend/internal/billing"
	"billing-backend/internal/models"
)

// Roles known to the service
const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleEmployee   = "employee"
)

var roleDefaults = map[string][]string{
	RoleAdmin: {
		billing.PermInvoicesCreate, billing.PermInvoicesEdit, billing.PermInvoicesDelete,
		billing.PermInvoicesCancel, billing.PermInvoicesSend, billing.PermPaymentsRecord,
		billing.PermClientsManage, billing.PermTransactionsManage, billing.PermReportsView,
		billing.PermReconcile,
	},
	RoleAccountant: {
		billing.PermInvoicesCreate, billing.PermInvoicesEdit, billing.PermInvoicesSend,
		billing.PermPaymentsRecord, billing.PermTransactionsManage, billing.PermReportsView,
		billing.PermReconcile,
	},
	RoleEmployee: {
		billing.PermInvoicesCreate, billing.PermInvoicesEdit, billing.PermClientsManage,
		billing.PermReportsView,
	},
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	_, ok := roleDefaults[role]
	return ok
}

// EffectivePermissions is the union of the role defaults and the user's
// explicit grants, sorted.
func EffectivePermissions(user *models.User) []string {
	set := make(map[string]struct{})
	for _, p := range roleDefaults[user.Role] {
		set[p] = struct{}{}
	}
	for _, p := range user.Permissions {
		set[p] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
