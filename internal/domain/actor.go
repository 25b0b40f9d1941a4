package domain

// Role is an actor's privilege level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleVendor  Role = "vendor"
	RoleShopper Role = "shopper"
)

// ValidRoles returns the roles a token may carry.
func ValidRoles() []Role {
	return []Role{RoleAdmin, RoleVendor, RoleShopper}
}

// IsValidRole checks whether r is a known role.
func IsValidRole(r string) bool {
	for _, v := range ValidRoles() {
		if string(v) == r {
			return true
		}
	}
	return false
}

// Actor is the caller on whose behalf a mutation runs. It is passed
// explicitly to every guard.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor holds the elevated role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanManage reports whether the actor may mutate a resource owned by ownerID.
func (a Actor) CanManage(ownerID string) bool {
	return a.IsAdmin() || (a.ID != "" && a.ID == ownerID)
}
