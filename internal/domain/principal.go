package domain

// Role of an authenticated principal.
type Role string

const (
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// Principal is an authenticated user as stored in the session.
type Principal struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"user_type"`
}

// IsModerator reports whether the principal carries the elevated role.
func (p *Principal) IsModerator() bool {
	return p != nil && p.Role == RoleModerator
}
