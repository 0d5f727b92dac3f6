package model

// Role distinguishes administrative viewers from standard buyers.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Viewer identifies an authenticated actor. A nil *Viewer means anonymous.
type Viewer struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the viewer carries the admin role.
func (v *Viewer) IsAdmin() bool {
	return v != nil && v.Role == RoleAdmin
}
