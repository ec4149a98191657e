// Package firebase implements the identity source and authenticator on Firebase Authentication.
package firebase

import (
	"context"
	"fmt"
	"time"

	fb "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"linkerai/backend/internal/identity"
	"linkerai/backend/internal/identity/domain"
)

// roleClaim is the custom claim the onboarding role is mirrored to.
const roleClaim = "role"

// AuthClient is the subset of *auth.Client used here.
type AuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	GetUser(ctx context.Context, uid string) (*fbauth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
}

// Provider implements identity.Source and identity.Authenticator on Firebase Auth.
type Provider struct {
	client         AuthClient
	isUserNotFound func(error) bool
}

// NewAuthClient initializes the Firebase app for projectID and returns its Auth client.
// credentialsJSON may be empty to use application default credentials.
func NewAuthClient(ctx context.Context, projectID, credentialsJSON string) (*fbauth.Client, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: auth client: %w", err)
	}
	return client, nil
}

// NewProvider returns a Provider using client.
func NewProvider(client AuthClient) *Provider {
	return &Provider{client: client, isUserNotFound: fbauth.IsUserNotFound}
}

// Authenticate implements identity.Authenticator by verifying a Firebase ID token.
func (p *Provider) Authenticate(ctx context.Context, credential string) (*identity.Principal, error) {
	if credential == "" {
		return nil, identity.ErrInvalidCredential
	}
	tok, err := p.client.VerifyIDToken(ctx, credential)
	if err != nil || tok == nil || tok.UID == "" {
		return nil, identity.ErrInvalidCredential
	}
	sid, _ := tok.Claims["sid"].(string)
	return &identity.Principal{IdentityID: tok.UID, SessionID: sid}, nil
}

// Lookup implements identity.Source. A user Firebase does not know returns nil, nil.
func (p *Provider) Lookup(ctx context.Context, id string) (*domain.Identity, error) {
	u, err := p.client.GetUser(ctx, id)
	if err != nil {
		if p.isUserNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("firebase: get user: %w", err)
	}
	return userToDomain(u), nil
}

// SetMetadata implements identity.Source. Other custom claims are preserved.
func (p *Provider) SetMetadata(ctx context.Context, id string, md domain.Metadata) error {
	u, err := p.client.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("firebase: get user: %w", err)
	}
	claims := make(map[string]interface{}, len(u.CustomClaims)+1)
	for k, v := range u.CustomClaims {
		claims[k] = v
	}
	if md.Role == "" {
		delete(claims, roleClaim)
	} else {
		claims[roleClaim] = md.Role
	}
	if err := p.client.SetCustomUserClaims(ctx, id, claims); err != nil {
		return fmt.Errorf("firebase: set custom claims: %w", err)
	}
	return nil
}

func userToDomain(u *fbauth.UserRecord) *domain.Identity {
	i := &domain.Identity{}
	if u.UserInfo != nil {
		i.ID = u.UID
		i.Email = u.Email
		i.AvatarURL = u.PhotoURL
		i.FirstName, i.LastName = domain.SplitDisplayName(u.DisplayName)
	}
	if role, ok := u.CustomClaims[roleClaim].(string); ok {
		i.Metadata.Role = role
	}
	if u.UserMetadata != nil && u.UserMetadata.CreationTimestamp > 0 {
		i.CreatedAt = time.UnixMilli(u.UserMetadata.CreationTimestamp).UTC()
	}
	return i
}
