package domain

// RoleAdmin marks identities allowed to mutate platforms and titles.
const RoleAdmin = "admin"

// Identity is the authenticated caller extracted from a bearer token.
// A nil *Identity means the caller is anonymous.
type Identity struct {
	UserID   string
	Username string
	Role     string
}

// IsAdmin reports whether the identity carries the administrator role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
