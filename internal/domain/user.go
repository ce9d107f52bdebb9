package domain

// UserRole enumerates portal roles.
type UserRole string

const (
	RoleClient    UserRole = "CLIENT"
	RoleDeveloper UserRole = "DEVELOPER"
	RoleAdmin     UserRole = "ADMIN"
)

// Valid reports whether the role is a known value.
func (r UserRole) Valid() bool {
	switch r {
	case RoleClient, RoleDeveloper, RoleAdmin:
		return true
	}
	return false
}

// User models anyone who can sign in: a client, a developer, or an admin.
// Users are created at registration or by admin action and never deleted.
type User struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Role         UserRole `json:"role"`
	PasswordHash string   `json:"password_hash,omitempty"`
	CompanyName  string   `json:"company_name,omitempty"`
}
