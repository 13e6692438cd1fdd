package domain

// ActorRole enumerates who may drive a transition.
type ActorRole string

const (
	RoleClient  ActorRole = "CLIENT"
	RoleSupport ActorRole = "SUPPORT"
	RoleAdmin   ActorRole = "ADMIN"
)

// Valid reports whether r is a known role.
func (r ActorRole) Valid() bool {
	switch r {
	case RoleClient, RoleSupport, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r can be assigned complaints.
func (r ActorRole) IsStaff() bool {
	return r == RoleSupport || r == RoleAdmin
}

// Actor identifies the caller of an operation. It is always passed
// explicitly; the core never reads identity from ambient state.
type Actor struct {
	ID   string
	Role ActorRole
}
