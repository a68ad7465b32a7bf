package domain

// Role is a user's access tier. Roles are ordered: member < editor < admin.
type Role string

const (
	RoleMember Role = "member"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

var roleRank = map[Role]int{
	RoleMember: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants everything min grants.
// Unknown roles never satisfy any minimum.
func (r Role) AtLeast(min Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	return have >= roleRank[min]
}

func (r Role) String() string { return string(r) }
