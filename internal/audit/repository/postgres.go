package repository

import (
	"context"
	"database/sql"

	"linkerai/backend/internal/audit/domain"
)

const (
	insertAuditLogSQL = `
		INSERT INTO audit_logs (id, identity_id, action, resource, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`

	listAuditLogsByIdentitySQL = `
		SELECT id, identity_id, action, resource, ip, metadata, created_at
		FROM audit_logs
		WHERE identity_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	identityID := sql.NullString{String: a.IdentityID, Valid: a.IdentityID != ""}
	var meta sql.NullString
	if len(a.Metadata) > 0 {
		meta = sql.NullString{String: string(a.Metadata), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, insertAuditLogSQL,
		a.ID, identityID, a.Action, a.Resource, a.IP, meta, a.CreatedAt)
	return err
}

// ListByIdentity returns the identity's audit logs, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByIdentity(ctx context.Context, identityID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, listAuditLogsByIdentitySQL, identityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a    domain.AuditLog
			id   sql.NullString
			meta []byte
		)
		if err := rows.Scan(&a.ID, &id, &a.Action, &a.Resource, &a.IP, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.IdentityID = id.String
		a.Metadata = meta
		out = append(out, &a)
	}
	return out, rows.Err()
}
