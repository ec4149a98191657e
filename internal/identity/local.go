package identity

import (
	"context"

	"linkerai/backend/internal/identity/domain"
	"linkerai/backend/internal/security"
)

// IdentityRepo is the minimal identity repository needed by the local provider.
type IdentityRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	MergeMetadata(ctx context.Context, id string, md domain.Metadata) error
}

// LocalSource implements Source on the identities table.
type LocalSource struct {
	repo IdentityRepo
}

// NewLocalSource returns a Source backed by repo.
func NewLocalSource(repo IdentityRepo) *LocalSource {
	return &LocalSource{repo: repo}
}

// Lookup implements Source.
func (s *LocalSource) Lookup(ctx context.Context, id string) (*domain.Identity, error) {
	return s.repo.GetByID(ctx, id)
}

// SetMetadata implements Source.
func (s *LocalSource) SetMetadata(ctx context.Context, id string, md domain.Metadata) error {
	return s.repo.MergeMetadata(ctx, id, md)
}

// TokenAuthenticator verifies local access tokens issued by security.TokenProvider.
type TokenAuthenticator struct {
	tokens *security.TokenProvider
}

// NewTokenAuthenticator returns an Authenticator for local access tokens.
func NewTokenAuthenticator(tokens *security.TokenProvider) *TokenAuthenticator {
	return &TokenAuthenticator{tokens: tokens}
}

// Authenticate implements Authenticator.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, credential string) (*Principal, error) {
	if credential == "" || a.tokens == nil {
		return nil, ErrInvalidCredential
	}
	identityID, sessionID, err := a.tokens.ValidateAccess(credential)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	return &Principal{IdentityID: identityID, SessionID: sessionID}, nil
}
