package enums

// MemberRole identifies the actor class carried in access tokens.
type MemberRole string

const (
	MemberRoleSeller MemberRole = "seller"
	MemberRoleAdmin  MemberRole = "admin"
)

var validMemberRoles = []MemberRole{
	MemberRoleSeller,
	MemberRoleAdmin,
}

// IsValid reports whether the value matches the canonical member role enum.
func (r MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == r {
			return true
		}
	}
	return false
}
