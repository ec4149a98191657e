package domain

import "time"

// AuditLog represents an audit event. IdentityID is empty for unauthenticated requests.
type AuditLog struct {
	ID         string
	IdentityID string
	Action     string
	Resource   string
	IP         string
	Metadata   []byte // JSON object, nil when absent
	CreatedAt  time.Time
}
