// internal/models/user.go
package models

// Role values mirror the users.role column.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleRH         Role = "rh"
	RoleRecruteur  Role = "recruteur"
	RoleEmploye    Role = "employe"
	RoleStagiaire  Role = "stagiaire"
	RoleEntreprise Role = "entreprise"
	RoleCandidat   Role = "candidat"
	RoleConsultant Role = "consultant"
)

// IsRecruiting reports whether the role participates in hiring decisions.
// Pure function of the role value, no session or request state involved.
func (r Role) IsRecruiting() bool {
	return r == RoleAdmin || r == RoleRH || r == RoleRecruteur
}

// IsCandidate reports whether the role applies to job offers.
func (r Role) IsCandidate() bool {
	return r == RoleCandidat
}

// IsStaff reports whether the role belongs to an internal employee account.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleRH || r == RoleRecruteur ||
		r == RoleEmploye || r == RoleStagiaire || r == RoleConsultant
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Phone     string `json:"phone,omitempty"`
	Role      Role   `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
}
