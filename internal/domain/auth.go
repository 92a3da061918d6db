package domain

// Role is the organizational role carried by an authenticated actor.
type Role string

const (
	RoleStudent    Role = "student"
	RoleFaculty    Role = "faculty"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// IsRequester reports whether r files tickets rather than working them.
func (r Role) IsRequester() bool {
	return r == RoleStudent || r == RoleFaculty
}

// Actor is the already-authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}
