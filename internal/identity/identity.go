// Package identity defines the identity source consumed by onboarding and the request principal.
package identity

import (
	"context"
	"errors"

	"linkerai/backend/internal/identity/domain"
)

// ErrInvalidCredential is returned by an Authenticator for a missing, malformed, or rejected credential.
var ErrInvalidCredential = errors.New("invalid credential")

// Source looks up identities and writes their provider metadata.
type Source interface {
	// Lookup returns the identity for id, or nil if the provider does not know it.
	Lookup(ctx context.Context, id string) (*domain.Identity, error)
	// SetMetadata replaces the onboarding fields of the identity's provider metadata.
	SetMetadata(ctx context.Context, id string, md domain.Metadata) error
}

// Principal is the authenticated caller of a request.
type Principal struct {
	IdentityID string
	SessionID  string
}

// Authenticator verifies a bearer credential.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*Principal, error)
}

type contextKey struct{ name string }

var principalKey = contextKey{"principal"}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal set by WithPrincipal, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// IdentityID returns the authenticated identity id from ctx and true if set; otherwise "", false.
func IdentityID(ctx context.Context) (string, bool) {
	p := PrincipalFromContext(ctx)
	if p == nil || p.IdentityID == "" {
		return "", false
	}
	return p.IdentityID, true
}
