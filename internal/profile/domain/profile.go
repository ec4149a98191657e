package domain

import (
	"errors"
	"strings"
	"time"
)

// Role is the marketplace role bound to a base profile.
type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

// ParseRole returns the role named by s (case-insensitive). ok is false for unknown names.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleClient, RoleFreelancer, RoleAdmin:
		return r, true
	}
	return "", false
}

// IsOnboarding reports whether r can be chosen through an onboarding route. Admin cannot.
func (r Role) IsOnboarding() bool {
	return r == RoleClient || r == RoleFreelancer
}

// Ptr returns a pointer to a copy of r.
func (r Role) Ptr() *Role {
	return &r
}

// BaseProfile binds one identity to a role and the common profile fields.
// At most one row exists per IdentityID.
type BaseProfile struct {
	ID          string
	IdentityID  string
	Email       string
	FullName    string
	AvatarURL   string
	Role        *Role // nil until the identity picks a role
	CompanyName *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasRole reports whether the profile is bound to role r.
func (p *BaseProfile) HasRole(r Role) bool {
	return p != nil && p.Role != nil && *p.Role == r
}

// Validate validates the profile for persistence.
func (p *BaseProfile) Validate() error {
	if p.ID == "" {
		return errors.New("profile id is required")
	}
	if p.IdentityID == "" {
		return errors.New("identity id is required")
	}
	if p.Role != nil {
		if _, ok := ParseRole(string(*p.Role)); !ok {
			return errors.New("unknown role")
		}
	}
	return nil
}

// ProvisionOutcome describes what Provision did to the base profile row.
type ProvisionOutcome int

const (
	// OutcomeExisting means the row already existed and was left untouched.
	OutcomeExisting ProvisionOutcome = iota
	// OutcomeCreated means a new row was inserted.
	OutcomeCreated
	// OutcomeClaimed means an existing row with no role had the role set.
	OutcomeClaimed
)

func (o ProvisionOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeClaimed:
		return "claimed"
	default:
		return "existing"
	}
}
