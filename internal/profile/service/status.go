package service

import (
	"context"

	auditdomain "linkerai/backend/internal/audit/domain"
	"linkerai/backend/internal/profile/domain"
)

// Activity page size bounds.
const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// Status is the onboarding progress of one identity. It is read-only and never creates rows.
type Status struct {
	// Role is nil when no base profile exists or no role is bound yet.
	Role *domain.Role
	// HasBaseProfile reports whether a base profile row exists.
	HasBaseProfile bool
	// Completed reports whether the role profile for Role has been saved.
	Completed bool
}

// Profile is a base profile together with its role profile, if any.
type Profile struct {
	Base *domain.BaseProfile
	Role *domain.RoleProfile
}

// Reader answers read-only profile queries.
type Reader struct {
	deps Deps
}

// NewReader returns a Reader using d.
func NewReader(d Deps) *Reader {
	return &Reader{deps: d.withDefaults()}
}

// Status returns the identity's onboarding status.
func (r *Reader) Status(ctx context.Context, identityID string) (*Status, error) {
	if identityID == "" {
		return nil, unauthenticated("no authenticated identity")
	}
	base, err := r.deps.Profiles.GetByIdentityID(ctx, identityID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	if base == nil {
		return &Status{}, nil
	}
	st := &Status{Role: base.Role, HasBaseProfile: true}
	if base.Role == nil {
		return st, nil
	}
	rp, err := r.roleProfile(ctx, base)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	st.Completed = rp.Kind() != ""
	return st, nil
}

// GetProfile returns the identity's base and role profile. KindNotFound when no base profile exists.
func (r *Reader) GetProfile(ctx context.Context, identityID string) (*Profile, error) {
	if identityID == "" {
		return nil, unauthenticated("no authenticated identity")
	}
	base, err := r.deps.Profiles.GetByIdentityID(ctx, identityID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	if base == nil {
		return nil, &Error{Kind: KindNotFound, Message: "profile not found"}
	}
	rp, err := r.roleProfile(ctx, base)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	out := &Profile{Base: base}
	if rp.Kind() != "" {
		out.Role = rp
	}
	return out, nil
}

// Activity returns the identity's audit trail, newest first. limit is clamped to
// [1, MaxActivityLimit] with DefaultActivityLimit for zero or negative values.
func (r *Reader) Activity(ctx context.Context, identityID string, limit, offset int32) ([]*auditdomain.AuditLog, error) {
	if identityID == "" {
		return nil, unauthenticated("no authenticated identity")
	}
	if r.deps.Activity == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	if offset < 0 {
		offset = 0
	}
	logs, err := r.deps.Activity.ListByIdentity(ctx, identityID, limit, offset)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return logs, nil
}

func (r *Reader) roleProfile(ctx context.Context, base *domain.BaseProfile) (*domain.RoleProfile, error) {
	rp := &domain.RoleProfile{}
	switch {
	case base.HasRole(domain.RoleClient):
		p, err := r.deps.Profiles.GetClientProfile(ctx, base.ID)
		if err != nil {
			return nil, err
		}
		rp.Client = p
	case base.HasRole(domain.RoleFreelancer):
		p, err := r.deps.Profiles.GetFreelancerProfile(ctx, base.ID)
		if err != nil {
			return nil, err
		}
		rp.Freelancer = p
	}
	return rp, nil
}
