package shared

import "errors"

var (
	ErrEmptyPartyID = errors.New("party id cannot be empty")
	ErrUnknownRole  = errors.New("unknown party role")
)

// Role classifies a caller for authorization decisions
type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole converts a string into a Role, rejecting unknown values
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleProvider, RoleAdmin:
		return Role(s), nil
	default:
		return "", ErrUnknownRole
	}
}

// Party is an authenticated caller identity as handed to the core by the
// identity collaborator. The core trusts the identity but re-checks role
// appropriateness for every transition.
type Party struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the party carries the administrator role
func (p Party) IsAdmin() bool {
	return p.Role == RoleAdmin
}
