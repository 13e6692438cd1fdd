package domain

// StaffMember is the subset of the staff directory the core needs.
type StaffMember struct {
	ID     string
	Name   string
	Role   ActorRole
	Active bool
}

// Assignable reports whether the member may hold complaints at all.
func (s *StaffMember) Assignable() bool {
	return s != nil && s.Active && s.Role.IsStaff()
}
