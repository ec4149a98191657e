// Package service implements onboarding role resolution and profile provisioning.
// Every failure is returned as an *Error carrying a Kind; callers branch on the kind.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"linkerai/backend/internal/audit"
	auditdomain "linkerai/backend/internal/audit/domain"
	"linkerai/backend/internal/identity"
	"linkerai/backend/internal/invalidation"
	"linkerai/backend/internal/policy/engine"
	"linkerai/backend/internal/profile/domain"
	"linkerai/backend/internal/telemetry"
)

// telemetrySource is the Source of every event emitted by this package.
const telemetrySource = "onboarding"

// ProfileRepo is the minimal profile repository needed by the onboarding services.
type ProfileRepo interface {
	GetByIdentityID(ctx context.Context, identityID string) (*domain.BaseProfile, error)
	Provision(ctx context.Context, p *domain.BaseProfile, claim domain.Role) (*domain.BaseProfile, domain.ProvisionOutcome, error)
	GetClientProfile(ctx context.Context, profileID string) (*domain.ClientProfile, error)
	UpsertClientProfile(ctx context.Context, profileID string, patch *domain.ClientPatch, now time.Time) (*domain.ClientProfile, bool, error)
	GetFreelancerProfile(ctx context.Context, profileID string) (*domain.FreelancerProfile, error)
	UpsertFreelancerProfile(ctx context.Context, profileID string, patch *domain.FreelancerPatch, now time.Time) (*domain.FreelancerProfile, bool, error)
}

// ActivityRepo lists an identity's audit trail.
type ActivityRepo interface {
	ListByIdentity(ctx context.Context, identityID string, limit, offset int32) ([]*auditdomain.AuditLog, error)
}

// Deps holds the collaborators of the onboarding services. Profiles, Identities and Policy are
// required; the rest may be nil.
type Deps struct {
	Profiles   ProfileRepo
	Identities identity.Source
	Policy     engine.Evaluator
	Audit      audit.AuditLogger
	Publisher  invalidation.Publisher
	Telemetry  telemetry.EventEmitter
	Activity   ActivityRepo
	Logger     *zap.Logger
	// Now defaults to time.Now().UTC.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Publisher == nil {
		d.Publisher = invalidation.Noop{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

func (d Deps) audit(ctx context.Context, identityID, action, resource string, md map[string]string) {
	if d.Audit != nil {
		d.Audit.LogEvent(ctx, identityID, action, resource, md)
	}
}

func (d Deps) emit(ctx context.Context, eventType, identityID string, md map[string]string) {
	if d.Telemetry == nil {
		return
	}
	ev := telemetry.NewEvent(eventType, identityID, telemetrySource, md)
	if p := identity.PrincipalFromContext(ctx); p != nil {
		ev.SessionID = p.SessionID
	}
	telemetry.EmitAsync(d.Telemetry, ev, d.Logger)
}

func roleString(r *domain.Role) string {
	if r == nil {
		return ""
	}
	return string(*r)
}
