package enums

// AdminRole is the permission level of a back-office user.
type AdminRole string

const (
	AdminRoleAdmin  AdminRole = "admin"
	AdminRoleDealer AdminRole = "dealer"
)

var AdminRoles = newSet("admin role", AdminRoleAdmin, AdminRoleDealer)

func (a AdminRole) String() string { return string(a) }

func (a AdminRole) IsValid() bool { return AdminRoles.has(a) }

func ParseAdminRole(value string) (AdminRole, error) {
	return AdminRoles.parse(value)
}

// Allows reports whether the role satisfies a route that requires the given
// role. Admins satisfy every route.
func (a AdminRole) Allows(required AdminRole) bool {
	return a == AdminRoleAdmin || a == required
}
