package firebase

import (
	"context"
	"errors"
	"sync"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"

	"linkerai/backend/internal/identity"
	"linkerai/backend/internal/identity/domain"
)

var errUserNotFound = errors.New("no user record found")

type memAuthClient struct {
	mu     sync.Mutex
	users  map[string]*fbauth.UserRecord
	tokens map[string]*fbauth.Token
	setErr error
}

func (c *memAuthClient) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tokens[idToken]; ok {
		return t, nil
	}
	return nil, errors.New("token rejected")
}

func (c *memAuthClient) GetUser(ctx context.Context, uid string) (*fbauth.UserRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u, ok := c.users[uid]; ok {
		return u, nil
	}
	return nil, errUserNotFound
}

func (c *memAuthClient) SetCustomUserClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.users[uid].CustomClaims = claims
	return nil
}

func newTestProvider(c *memAuthClient) *Provider {
	p := NewProvider(c)
	p.isUserNotFound = func(err error) bool { return errors.Is(err, errUserNotFound) }
	return p
}

func newClient() *memAuthClient {
	return &memAuthClient{
		users: map[string]*fbauth.UserRecord{
			"uid-1": {
				UserInfo: &fbauth.UserInfo{
					UID:         "uid-1",
					Email:       "grace@example.com",
					DisplayName: "Grace Hopper",
					PhotoURL:    "https://cdn.example.com/g.png",
				},
				CustomClaims: map[string]interface{}{"role": "freelancer", "beta": true},
				UserMetadata: &fbauth.UserMetadata{CreationTimestamp: 1700000000000},
			},
		},
		tokens: map[string]*fbauth.Token{
			"good-token": {UID: "uid-1", Claims: map[string]interface{}{"sid": "sess-9"}},
		},
	}
}

func TestProvider_Lookup(t *testing.T) {
	p := newTestProvider(newClient())

	got, err := p.Lookup(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.ID != "uid-1" || got.Email != "grace@example.com" {
		t.Errorf("identity = %+v", got)
	}
	if got.FirstName != "Grace" || got.LastName != "Hopper" {
		t.Errorf("name = %q %q", got.FirstName, got.LastName)
	}
	if got.Metadata.Role != "freelancer" {
		t.Errorf("role = %q, want freelancer", got.Metadata.Role)
	}
	if got.CreatedAt.UnixMilli() != 1700000000000 {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}

	if got, err := p.Lookup(context.Background(), "nobody"); err != nil || got != nil {
		t.Errorf("Lookup(unknown) = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestProvider_Lookup_ProviderError(t *testing.T) {
	p := NewProvider(newClient())
	p.isUserNotFound = func(error) bool { return false }
	if _, err := p.Lookup(context.Background(), "nobody"); err == nil {
		t.Fatal("provider errors other than not-found must surface")
	}
}

func TestProvider_SetMetadata_PreservesClaims(t *testing.T) {
	c := newClient()
	p := newTestProvider(c)

	if err := p.SetMetadata(context.Background(), "uid-1", domain.Metadata{Role: "client"}); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	claims := c.users["uid-1"].CustomClaims
	if claims["role"] != "client" || claims["beta"] != true {
		t.Errorf("claims = %v", claims)
	}

	if err := p.SetMetadata(context.Background(), "uid-1", domain.Metadata{}); err != nil {
		t.Fatalf("SetMetadata(clear): %v", err)
	}
	if _, ok := c.users["uid-1"].CustomClaims["role"]; ok {
		t.Error("empty role should remove the claim")
	}

	c.setErr = errors.New("quota exceeded")
	if err := p.SetMetadata(context.Background(), "uid-1", domain.Metadata{Role: "client"}); err == nil {
		t.Error("expected error from SetCustomUserClaims")
	}
}

func TestProvider_Authenticate(t *testing.T) {
	p := newTestProvider(newClient())

	pr, err := p.Authenticate(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if pr.IdentityID != "uid-1" || pr.SessionID != "sess-9" {
		t.Errorf("principal = %+v", pr)
	}
	for _, bad := range []string{"", "forged"} {
		if _, err := p.Authenticate(context.Background(), bad); !errors.Is(err, identity.ErrInvalidCredential) {
			t.Errorf("Authenticate(%q) = %v, want ErrInvalidCredential", bad, err)
		}
	}
}
