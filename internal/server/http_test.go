package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"linkerai/backend/internal/audit"
	"linkerai/backend/internal/identity"
	"linkerai/backend/internal/profile/domain"
	profilehandler "linkerai/backend/internal/profile/handler"
	"linkerai/backend/internal/profile/service"
	"linkerai/backend/internal/telemetry"
)

// emptyProfiles is a ProfileRepo with no rows.
type emptyProfiles struct{}

func (emptyProfiles) GetByIdentityID(context.Context, string) (*domain.BaseProfile, error) {
	return nil, nil
}

func (emptyProfiles) Provision(context.Context, *domain.BaseProfile, domain.Role) (*domain.BaseProfile, domain.ProvisionOutcome, error) {
	return nil, domain.OutcomeExisting, errors.New("not supported")
}

func (emptyProfiles) GetClientProfile(context.Context, string) (*domain.ClientProfile, error) {
	return nil, nil
}

func (emptyProfiles) UpsertClientProfile(context.Context, string, *domain.ClientPatch, time.Time) (*domain.ClientProfile, bool, error) {
	return nil, false, errors.New("not supported")
}

func (emptyProfiles) GetFreelancerProfile(context.Context, string) (*domain.FreelancerProfile, error) {
	return nil, nil
}

func (emptyProfiles) UpsertFreelancerProfile(context.Context, string, *domain.FreelancerPatch, time.Time) (*domain.FreelancerProfile, bool, error) {
	return nil, false, errors.New("not supported")
}

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(ctx context.Context, credential string) (*identity.Principal, error) {
	if credential == "good-token" {
		return &identity.Principal{IdentityID: "id-1", SessionID: "sess-1"}, nil
	}
	return nil, identity.ErrInvalidCredential
}

type auditCall struct {
	identityID, action, resource, ip string
}

type recordingAudit struct {
	mu    sync.Mutex
	calls []auditCall
}

func (a *recordingAudit) LogEvent(ctx context.Context, identityID, action, resource string, metadata map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, auditCall{identityID, action, resource, ClientIP(ctx)})
}

func (a *recordingAudit) get() []auditCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]auditCall(nil), a.calls...)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []*telemetry.Event
}

func (e *recordingEmitter) Emit(ctx context.Context, ev *telemetry.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *recordingEmitter) waitFor(n int) []*telemetry.Event {
	deadline := time.Now().Add(time.Second)
	for {
		e.mu.Lock()
		got := append([]*telemetry.Event(nil), e.events...)
		e.mu.Unlock()
		if len(got) >= n || time.Now().After(deadline) {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestRouter(a audit.AuditLogger, emitter telemetry.EventEmitter) http.Handler {
	deps := service.Deps{Profiles: emptyProfiles{}}
	h := profilehandler.New(service.NewResolver(deps), service.NewWriter(deps), service.NewReader(deps), nil)
	return NewRouter(Deps{
		Onboarding:    h,
		Authenticator: stubAuthenticator{},
		Audit:         a,
		Telemetry:     emitter,
		Timeout:       5 * time.Second,
	})
}

func TestRouter_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRouter_RejectsMissingOrBadCredential(t *testing.T) {
	for _, header := range []string{"", "Basic abc", "Bearer wrong-token"} {
		t.Run(header, func(t *testing.T) {
			a := &recordingAudit{}
			req := httptest.NewRequest(http.MethodPut, "/v1/onboarding/client", nil)
			req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			newTestRouter(a, nil).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			var body profilehandler.Response
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success || body.Code != "unauthenticated" {
				t.Errorf("body = %+v", body)
			}
			calls := a.get()
			if len(calls) != 1 {
				t.Fatalf("audit calls = %d, want 1", len(calls))
			}
			want := auditCall{"", audit.ActionAuthFailure, "onboarding.client", "203.0.113.7"}
			if calls[0] != want {
				t.Errorf("audit = %+v, want %+v", calls[0], want)
			}
		})
	}
}

func TestRouter_AuthenticatedRequestEmitsTelemetry(t *testing.T) {
	emitter := &recordingEmitter{}
	req := httptest.NewRequest(http.MethodGet, "/v1/onboarding/status", nil)
	req.Header.Set("Authorization", "bearer good-token")
	rec := httptest.NewRecorder()
	newTestRouter(nil, emitter).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	events := emitter.waitFor(1)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.EventType != EventHTTPRequest || ev.IdentityID != "id-1" || ev.SessionID != "sess-1" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Metadata["route"] != "/v1/onboarding/status" || ev.Metadata["status_code"] != "200" {
		t.Errorf("metadata = %v", ev.Metadata)
	}
	if ev.Metadata["action"] != "status" || ev.Metadata["resource"] != "onboarding" {
		t.Errorf("action/resource = %q/%q", ev.Metadata["action"], ev.Metadata["resource"])
	}
}

func TestExtractBearer(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"", ""},
		{"Bearer", ""},
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"BEARER abc", "abc"},
		{"Basic abc", ""},
		{"Bearerabc", ""},
	}
	for _, tc := range testCases {
		if got := extractBearer(tc.in); got != tc.want {
			t.Errorf("extractBearer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
