package repository

import (
	"context"
	"errors"
	"time"

	"linkerai/backend/internal/profile/domain"
)

// ErrRoleNotBound is returned by the role-profile upserts when the base profile does not exist
// or is not bound to the matching role at write time. Nothing is written in that case.
var ErrRoleNotBound = errors.New("base profile is not bound to this role")

// Repository defines persistence for base profiles and role profiles.
type Repository interface {
	// GetByIdentityID returns the base profile for identityID, or nil if not found.
	GetByIdentityID(ctx context.Context, identityID string) (*domain.BaseProfile, error)
	// Provision atomically creates the base profile p (keyed on p.IdentityID) or, when a row already
	// exists with no role, sets its role to claim. An existing role is never changed.
	// It returns the stored row and what was done to it.
	Provision(ctx context.Context, p *domain.BaseProfile, claim domain.Role) (*domain.BaseProfile, domain.ProvisionOutcome, error)

	// GetClientProfile returns the client profile for profileID, or nil if not found.
	GetClientProfile(ctx context.Context, profileID string) (*domain.ClientProfile, error)
	// UpsertClientProfile inserts or merges the client profile in one statement keyed on profileID.
	// Nil patch fields keep the stored value. inserted is false when an existing row was merged.
	// Returns ErrRoleNotBound if the base profile is not a client.
	UpsertClientProfile(ctx context.Context, profileID string, patch *domain.ClientPatch, now time.Time) (p *domain.ClientProfile, inserted bool, err error)

	// GetFreelancerProfile returns the freelancer profile for profileID, or nil if not found.
	GetFreelancerProfile(ctx context.Context, profileID string) (*domain.FreelancerProfile, error)
	// UpsertFreelancerProfile inserts or merges the freelancer profile in one statement keyed on profileID.
	// Nil patch fields keep the stored value. inserted is false when an existing row was merged.
	// Returns ErrRoleNotBound if the base profile is not a freelancer.
	UpsertFreelancerProfile(ctx context.Context, profileID string, patch *domain.FreelancerPatch, now time.Time) (p *domain.FreelancerProfile, inserted bool, err error)
}
