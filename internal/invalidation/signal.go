// Package invalidation tells readers of cached dashboard and profile views that an identity's
// profile changed. Publishing is best-effort: the profile store stays authoritative.
package invalidation

import (
	"context"
	"errors"
	"time"
)

// View names a cached read model keyed by identity.
type View string

const (
	ViewDashboard View = "dashboard"
	ViewProfile   View = "profile"
)

// Signal says the listed views of one identity are stale.
type Signal struct {
	IdentityID string    `json:"identityId"`
	Views      []View    `json:"views"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

// NewSignal returns a Signal for identityID stamped with the current UTC time.
// With no views it covers both the dashboard and profile views.
func NewSignal(identityID, reason string, views ...View) Signal {
	if len(views) == 0 {
		views = []View{ViewDashboard, ViewProfile}
	}
	return Signal{IdentityID: identityID, Views: views, Reason: reason, At: time.Now().UTC()}
}

// Validate checks the signal can be delivered.
func (s Signal) Validate() error {
	if s.IdentityID == "" {
		return errors.New("invalidation: identity id is required")
	}
	if len(s.Views) == 0 {
		return errors.New("invalidation: at least one view is required")
	}
	return nil
}

// Publisher delivers invalidation signals.
type Publisher interface {
	Publish(ctx context.Context, s Signal) error
}

// Fanout publishes to every non-nil publisher and joins their errors.
type Fanout []Publisher

// Publish implements Publisher.
func (f Fanout) Publish(ctx context.Context, s Signal) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop discards signals. Used when neither Redis nor Kafka is configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Signal) error { return nil }
