package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"linkerai/backend/internal/audit"
	"linkerai/backend/internal/invalidation"
	"linkerai/backend/internal/policy/engine"
	"linkerai/backend/internal/profile/domain"
	"linkerai/backend/internal/profile/repository"
)

// Telemetry event types emitted by the writer.
const (
	EventProfileSaved = "onboarding.profile_saved"
	EventWriteDenied  = "onboarding.write_denied"
)

// invalidationReason tags the signal published after a successful save.
const invalidationReason = "onboarding_saved"

// SaveResult is the outcome of a successful SaveOnboarding.
type SaveResult struct {
	Profile *domain.RoleProfile
	// Created is true when this save inserted the role profile row.
	Created bool
}

// Writer persists role profiles for identities whose base profile is bound to that role.
type Writer struct {
	deps Deps
}

// NewWriter returns a Writer using d.
func NewWriter(d Deps) *Writer {
	return &Writer{deps: d.withDefaults()}
}

// SaveOnboarding validates form and writes it as the identity's role profile of kind.
// The first save must carry every required field; later saves merge only the submitted fields.
// Nothing is written unless the base profile is bound to kind. The write is a single upsert, so
// a KindStoreUnavailable failure is safe to retry.
func (w *Writer) SaveOnboarding(ctx context.Context, identityID string, kind domain.Role, form Form) (*SaveResult, error) {
	if identityID == "" {
		return nil, unauthenticated("no authenticated identity")
	}
	if form != nil && form.Role() != kind {
		return nil, validationFailed(map[string]string{"form": "does not match role " + string(kind)})
	}

	base, err := w.deps.Profiles.GetByIdentityID(ctx, identityID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	var profileRole string
	if base != nil {
		profileRole = roleString(base.Role)
	}
	dec, err := w.deps.Policy.Evaluate(ctx, engine.Input{RequestedRole: string(kind), ProfileRole: profileRole})
	if err != nil {
		return nil, fmt.Errorf("evaluate onboarding policy: %w", err)
	}
	if !dec.ValidRole {
		return nil, validationFailed(map[string]string{"role": "must be client or freelancer"})
	}
	if !dec.AllowWrite {
		return nil, w.deny(ctx, identityID, domain.Role(profileRole), kind, dec.Reason)
	}
	// The role binding holds whatever the loaded policy module decides.
	if base == nil || base.Role == nil {
		return nil, w.deny(ctx, identityID, "", kind, engine.ReasonNoRoleBound)
	}
	if *base.Role != kind {
		return nil, w.deny(ctx, identityID, *base.Role, kind, engine.ReasonRoleDiffers)
	}

	exists, err := w.roleProfileExists(ctx, base.ID, kind)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	if details := ValidateForm(form, !exists); len(details) > 0 {
		return nil, validationFailed(details)
	}

	saved, created, err := w.upsert(ctx, base.ID, form)
	if errors.Is(err, repository.ErrRoleNotBound) {
		// The role changed between the policy check and the write.
		return nil, w.deny(ctx, identityID, domain.Role(profileRole), kind, engine.ReasonRoleDiffers)
	}
	if err != nil {
		w.deps.Logger.Error("upsert role profile",
			zap.String("identity_id", identityID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return nil, storeError(err)
	}

	if err := w.deps.Publisher.Publish(ctx, invalidation.NewSignal(identityID, invalidationReason)); err != nil {
		w.deps.Logger.Warn("publish profile invalidation", zap.String("identity_id", identityID), zap.Error(err))
	}
	md := map[string]string{"kind": string(kind), "created": fmt.Sprint(created)}
	w.deps.audit(ctx, identityID, audit.ActionProfileSaved, "onboarding."+string(kind), md)
	w.deps.emit(ctx, EventProfileSaved, identityID, md)
	return &SaveResult{Profile: saved, Created: created}, nil
}

func (w *Writer) deny(ctx context.Context, identityID string, stored, requested domain.Role, reason string) error {
	md := map[string]string{"requested_role": string(requested), "profile_role": string(stored), "reason": reason}
	w.deps.audit(ctx, identityID, audit.ActionWriteDenied, "onboarding."+string(requested), md)
	w.deps.emit(ctx, EventWriteDenied, identityID, md)
	return roleForbidden(stored, requested, reason)
}

func (w *Writer) roleProfileExists(ctx context.Context, profileID string, kind domain.Role) (bool, error) {
	switch kind {
	case domain.RoleClient:
		p, err := w.deps.Profiles.GetClientProfile(ctx, profileID)
		return p != nil, err
	case domain.RoleFreelancer:
		p, err := w.deps.Profiles.GetFreelancerProfile(ctx, profileID)
		return p != nil, err
	}
	return false, fmt.Errorf("no role profile for kind %q", kind)
}

// upsert writes form and reports whether the row was inserted rather than merged.
func (w *Writer) upsert(ctx context.Context, profileID string, form Form) (*domain.RoleProfile, bool, error) {
	now := w.deps.Now()
	switch f := form.(type) {
	case *ClientForm:
		p, inserted, err := w.deps.Profiles.UpsertClientProfile(ctx, profileID, f.Patch(), now)
		if err != nil {
			return nil, false, err
		}
		return &domain.RoleProfile{Client: p}, inserted, nil
	case *FreelancerForm:
		p, inserted, err := w.deps.Profiles.UpsertFreelancerProfile(ctx, profileID, f.Patch(), now)
		if err != nil {
			return nil, false, err
		}
		return &domain.RoleProfile{Freelancer: p}, inserted, nil
	}
	return nil, false, fmt.Errorf("unsupported form %T", form)
}
