package models

// Role governs which cases a user can see and which mutations they may perform
type Role string

// Predefined Role values
const (
	RoleAdmin        Role = "admin"
	RoleInvestigator Role = "investigator"
	RoleAnalyst      Role = "analyst"
)

// ValidRoles returns all valid Role values
func ValidRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleInvestigator,
		RoleAnalyst,
	}
}

// IsValid checks if the Role value is one of the predefined constants
func (r Role) IsValid() bool {
	for _, validRole := range ValidRoles() {
		if r == validRole {
			return true
		}
	}
	return false
}
