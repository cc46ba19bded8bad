package domain

// Role names an authority granted to an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Identity is the authenticated caller for a single request. Roles are
// resolved from the store at request time, never carried inside the token,
// so revoking a role takes effect without reissuing tokens.
type Identity struct {
	Subject string
	Roles   []Role
}

// HasRole reports whether the identity holds the given role.
func (i *Identity) HasRole(role Role) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}
