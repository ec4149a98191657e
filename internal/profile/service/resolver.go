package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkerai/backend/internal/audit"
	identitydomain "linkerai/backend/internal/identity/domain"
	"linkerai/backend/internal/policy/engine"
	"linkerai/backend/internal/profile/domain"
)

// Telemetry event types emitted by the resolver.
const (
	EventRoleResolved = "onboarding.role_resolved"
	EventRoleMismatch = "onboarding.role_mismatch"
)

// ResolveResult is the outcome of a successful ResolveRole.
type ResolveResult struct {
	Role    domain.Role
	Profile *domain.BaseProfile
	Outcome domain.ProvisionOutcome
}

// Resolver binds an identity to an onboarding role.
type Resolver struct {
	deps Deps
}

// NewResolver returns a Resolver using d.
func NewResolver(d Deps) *Resolver {
	return &Resolver{deps: d.withDefaults()}
}

// ResolveRole makes sure the identity has a base profile bound to a role and reports that role.
// A missing profile is created with the identity's metadata role, falling back to expected.
// A profile with no role is claimed for expected. A profile already bound to a different role
// yields a KindRoleMismatch error and is left unchanged. Store errors yield KindStoreUnavailable
// and are not retried here.
func (r *Resolver) ResolveRole(ctx context.Context, identityID string, expected domain.Role) (*ResolveResult, error) {
	if identityID == "" {
		return nil, unauthenticated("no authenticated identity")
	}
	dec, err := r.deps.Policy.Evaluate(ctx, engine.Input{RequestedRole: string(expected)})
	if err != nil {
		return nil, fmt.Errorf("evaluate onboarding policy: %w", err)
	}
	if !dec.ValidRole {
		return nil, validationFailed(map[string]string{"role": "must be client or freelancer"})
	}

	ident, err := r.deps.Identities.Lookup(ctx, identityID)
	if err != nil {
		return nil, &Error{Kind: KindStoreUnavailable, Message: "identity source unavailable", Err: err}
	}
	if ident == nil {
		return nil, unauthenticated("identity not found")
	}

	initial := expected
	if md, ok := domain.ParseRole(ident.Metadata.Role); ok && md.IsOnboarding() {
		initial = md
	}
	now := r.deps.Now()
	candidate := &domain.BaseProfile{
		ID:         uuid.New().String(),
		IdentityID: identityID,
		Email:      ident.Email,
		FullName:   ident.FullName(),
		AvatarURL:  ident.AvatarURL,
		Role:       initial.Ptr(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	stored, outcome, err := r.deps.Profiles.Provision(ctx, candidate, expected)
	if err != nil {
		r.deps.Logger.Error("provision base profile", zap.String("identity_id", identityID), zap.Error(err))
		return nil, storeError(err)
	}
	if stored == nil || stored.Role == nil {
		return nil, storeUnavailable(fmt.Errorf("provision returned no role for identity %s", identityID))
	}
	role := *stored.Role
	resource := "onboarding." + string(expected)

	if outcome == domain.OutcomeExisting && role != expected {
		md := map[string]string{"stored_role": string(role), "expected_role": string(expected)}
		r.deps.audit(ctx, identityID, audit.ActionRoleMismatch, resource, md)
		r.deps.emit(ctx, EventRoleMismatch, identityID, md)
		return nil, roleMismatch(role, expected)
	}

	// The store wins: metadata that disagrees with the stored role is rewritten.
	if ident.Metadata.Role != string(role) {
		r.mirror(ctx, identityID, ident.Metadata, role)
	}

	action := audit.ActionRoleResolved
	if outcome == domain.OutcomeClaimed {
		action = audit.ActionRoleClaimed
	}
	md := map[string]string{"role": string(role), "outcome": outcome.String()}
	r.deps.audit(ctx, identityID, action, resource, md)
	r.deps.emit(ctx, EventRoleResolved, identityID, md)
	if outcome != domain.OutcomeExisting {
		r.deps.Logger.Info("onboarding role bound",
			zap.String("identity_id", identityID),
			zap.String("role", string(role)),
			zap.Stringer("outcome", outcome))
	}
	return &ResolveResult{Role: role, Profile: stored, Outcome: outcome}, nil
}

// mirror copies the stored role into the identity provider's metadata. Best-effort.
func (r *Resolver) mirror(ctx context.Context, identityID string, md identitydomain.Metadata, role domain.Role) {
	md.Role = string(role)
	if err := r.deps.Identities.SetMetadata(ctx, identityID, md); err != nil {
		r.deps.Logger.Warn("mirror role to identity metadata",
			zap.String("identity_id", identityID),
			zap.String("role", string(role)),
			zap.Error(err))
	}
}
