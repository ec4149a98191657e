package domain

import (
	"errors"
	"strings"
	"time"
)

// Identity is an authenticated person as the identity provider knows them.
type Identity struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	AvatarURL string
	Metadata  Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Metadata is the provider-side metadata the onboarding flow reads and mirrors.
// Role is empty when the provider has no role for the identity.
type Metadata struct {
	Role string `json:"role,omitempty"`
}

// FullName joins first and last name.
func (i *Identity) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
}

// Validate validates the identity for persistence.
func (i *Identity) Validate() error {
	if i.ID == "" {
		return errors.New("identity id is required")
	}
	if strings.TrimSpace(i.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

// SplitDisplayName splits a provider display name into first and last name at the first space.
func SplitDisplayName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}
