package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"linkerai/backend/internal/identity/domain"
)

const identityColumns = `id, email, first_name, last_name, avatar_url, metadata, created_at, updated_at`

const (
	selectIdentityByIDSQL    = `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	selectIdentityByEmailSQL = `SELECT ` + identityColumns + ` FROM identities WHERE lower(email) = lower($1)`

	insertIdentitySQL = `
		INSERT INTO identities (id, email, first_name, last_name, avatar_url, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $7)`

	// An empty role removes the key instead of storing "".
	mergeMetadataSQL = `
		UPDATE identities
		SET metadata = CASE WHEN $2::text = '' THEN metadata - 'role'
		                    ELSE metadata || jsonb_build_object('role', $2::text) END,
		    updated_at = now()
		WHERE id = $1`
)

// ErrNotFound is returned by MergeMetadata when no identity has the given id.
var ErrNotFound = errors.New("identity not found")

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the identity for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.getOne(ctx, selectIdentityByIDSQL, id)
}

// GetByEmail returns the identity with the given email (case-insensitive), or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.getOne(ctx, selectIdentityByEmailSQL, strings.TrimSpace(email))
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.Identity, error) {
	i, err := scanIdentity(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}

// Create persists the identity. The identity must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	if err := i.Validate(); err != nil {
		return err
	}
	meta, err := json.Marshal(i.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, insertIdentitySQL,
		i.ID, i.Email, nullString(i.FirstName), nullString(i.LastName), nullString(i.AvatarURL), string(meta), i.CreatedAt)
	return err
}

// MergeMetadata implements Repository.
func (r *PostgresRepository) MergeMetadata(ctx context.Context, id string, md domain.Metadata) error {
	res, err := r.db.ExecContext(ctx, mergeMetadataSQL, id, md.Role)
	if err != nil {
		return fmt.Errorf("merge identity metadata: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanIdentity(row *sql.Row) (*domain.Identity, error) {
	var (
		i                  domain.Identity
		first, last, photo sql.NullString
		meta               []byte
	)
	if err := row.Scan(&i.ID, &i.Email, &first, &last, &photo, &meta, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	i.FirstName, i.LastName, i.AvatarURL = first.String, last.String, photo.String
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &i.Metadata); err != nil {
			return nil, fmt.Errorf("decode identity metadata: %w", err)
		}
	}
	return &i, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
