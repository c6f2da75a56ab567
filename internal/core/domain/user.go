package domain

// Role is the function a user has in the helpdesk.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleTechnician Role = "Technician"
	RoleStaff      Role = "Staff"
)

// IsValid checks if the role is a known value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleStaff:
		return true
	}
	return false
}

type User struct {
	Name string
	Role Role
}

// IsTechnician reports whether the user resolves tickets.
func (u User) IsTechnician() bool {
	return u.Role == RoleTechnician
}

// TechnicianNames returns the names of all technicians in user order,
// skipping blanks and duplicates.
func TechnicianNames(users []User) []string {
	seen := make(map[string]bool, len(users))
	names := make([]string, 0, len(users))
	for _, u := range users {
		if !u.IsTechnician() || u.Name == "" || seen[u.Name] {
			continue
		}
		seen[u.Name] = true
		names = append(names, u.Name)
	}
	return names
}
