package domain

import "time"

// ClientProfile holds the client onboarding answers. One row per base profile.
type ClientProfile struct {
	ProfileID   string
	CompanyName string
	CompanySize string
	Industry    string
	Website     string
	Description string
	HiringNeeds []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FreelancerProfile holds the freelancer onboarding answers. One row per base profile.
type FreelancerProfile struct {
	ProfileID       string
	Title           string
	Bio             string
	Skills          []string
	HourlyRate      float64
	ExperienceLevel string
	Availability    string
	PortfolioURL    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ClientPatch carries a client onboarding submission. Nil fields are left unchanged on update.
type ClientPatch struct {
	CompanyName *string
	CompanySize *string
	Industry    *string
	Website     *string
	Description *string
	HiringNeeds []string
}

// FreelancerPatch carries a freelancer onboarding submission. Nil fields are left unchanged on update.
type FreelancerPatch struct {
	Title           *string
	Bio             *string
	Skills          []string
	HourlyRate      *float64
	ExperienceLevel *string
	Availability    *string
	PortfolioURL    *string
}

// RoleProfile is the role-specific half of a user's profile; exactly one of the fields is set.
type RoleProfile struct {
	Client     *ClientProfile
	Freelancer *FreelancerProfile
}

// Kind returns the role of the populated profile, or "" when empty.
func (p *RoleProfile) Kind() Role {
	switch {
	case p == nil:
		return ""
	case p.Client != nil:
		return RoleClient
	case p.Freelancer != nil:
		return RoleFreelancer
	}
	return ""
}
