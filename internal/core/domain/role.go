package domain

// Role is a coarse-grained permission label attached to a user.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from roles, ignoring duplicates.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether r is a member of the set.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Intersect returns the roles present in both s and other.
func (s RoleSet) Intersect(other RoleSet) RoleSet {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	out := make(RoleSet)
	for r := range small {
		if large.Contains(r) {
			out[r] = struct{}{}
		}
	}
	return out
}

// Allows reports whether a user holding role r satisfies the set.
func (s RoleSet) Allows(r Role) bool {
	return len(NewRoleSet(r).Intersect(s)) > 0
}
