package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"linkerai/backend/internal/db"
	"linkerai/backend/internal/profile/domain"
)

const profileColumns = `id, identity_id, email, full_name, avatar_url, role, company_name, created_at, updated_at`

const (
	selectProfileByIdentitySQL = `SELECT ` + profileColumns + ` FROM profiles WHERE identity_id = $1`

	// insertProfileSQL relies on the profiles_identity_id_key unique constraint: a concurrent or
	// earlier insert for the same identity makes this a no-op that returns no row.
	insertProfileSQL = `
		INSERT INTO profiles (id, identity_id, email, full_name, avatar_url, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (identity_id) DO NOTHING
		RETURNING ` + profileColumns

	// claimRoleSQL only matches rows whose role is still unset.
	claimRoleSQL = `
		UPDATE profiles SET role = $2, updated_at = $3
		WHERE identity_id = $1 AND role IS NULL
		RETURNING ` + profileColumns
)

const clientColumns = `profile_id, company_name, company_size, industry, website, description, hiring_needs, created_at, updated_at`

const (
	selectClientSQL = `SELECT ` + clientColumns + ` FROM client_profiles WHERE profile_id = $1`

	// upsertClientSQL takes the insert tuple from the current row so NOT NULL columns hold during a
	// partial merge; the join on profiles only yields a row when the base profile is a client.
	upsertClientSQL = `
		INSERT INTO client_profiles AS cp (profile_id, company_name, company_size, industry, website, description, hiring_needs, created_at, updated_at)
		SELECT p.id,
			COALESCE($2::text, cur.company_name),
			COALESCE($3::text, cur.company_size),
			COALESCE($4::text, cur.industry),
			COALESCE($5::text, cur.website),
			COALESCE($6::text, cur.description),
			COALESCE($7::text[], cur.hiring_needs, '{}'),
			COALESCE(cur.created_at, $8),
			$8
		FROM profiles p
		LEFT JOIN client_profiles cur ON cur.profile_id = p.id
		WHERE p.id = $1 AND p.role = 'client'
		ON CONFLICT (profile_id) DO UPDATE SET
			company_name = COALESCE($2::text, cp.company_name),
			company_size = COALESCE($3::text, cp.company_size),
			industry     = COALESCE($4::text, cp.industry),
			website      = COALESCE($5::text, cp.website),
			description  = COALESCE($6::text, cp.description),
			hiring_needs = COALESCE($7::text[], cp.hiring_needs),
			updated_at   = $8
		RETURNING ` + clientColumns + `, (xmax = 0) AS inserted`

	syncCompanyNameSQL = `UPDATE profiles SET company_name = $2, updated_at = $3 WHERE id = $1`
)

const freelancerColumns = `profile_id, title, bio, skills, hourly_rate::float8, experience_level, availability, portfolio_url, created_at, updated_at`

const (
	selectFreelancerSQL = `SELECT ` + freelancerColumns + ` FROM freelancer_profiles WHERE profile_id = $1`

	upsertFreelancerSQL = `
		INSERT INTO freelancer_profiles AS fp (profile_id, title, bio, skills, hourly_rate, experience_level, availability, portfolio_url, created_at, updated_at)
		SELECT p.id,
			COALESCE($2::text, cur.title),
			COALESCE($3::text, cur.bio),
			COALESCE($4::text[], cur.skills),
			COALESCE($5::numeric, cur.hourly_rate),
			COALESCE($6::text, cur.experience_level),
			COALESCE($7::text, cur.availability),
			COALESCE($8::text, cur.portfolio_url),
			COALESCE(cur.created_at, $9),
			$9
		FROM profiles p
		LEFT JOIN freelancer_profiles cur ON cur.profile_id = p.id
		WHERE p.id = $1 AND p.role = 'freelancer'
		ON CONFLICT (profile_id) DO UPDATE SET
			title            = COALESCE($2::text, fp.title),
			bio              = COALESCE($3::text, fp.bio),
			skills           = COALESCE($4::text[], fp.skills),
			hourly_rate      = COALESCE($5::numeric, fp.hourly_rate),
			experience_level = COALESCE($6::text, fp.experience_level),
			availability     = COALESCE($7::text, fp.availability),
			portfolio_url    = COALESCE($8::text, fp.portfolio_url),
			updated_at       = $9
		RETURNING ` + freelancerColumns + `, (xmax = 0) AS inserted`
)

// PostgresRepository implements Repository on the profiles, client_profiles and freelancer_profiles tables.
type PostgresRepository struct {
	db    *sql.DB
	types *pgtype.Map
}

// NewPostgresRepository returns a profile repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn, types: pgtype.NewMap()}
}

// GetByIdentityID returns the base profile for identityID, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByIdentityID(ctx context.Context, identityID string) (*domain.BaseProfile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, selectProfileByIdentitySQL, identityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Provision runs insert-if-absent, claim-if-unset and read-back in one transaction. Each step is a
// single statement guarded by the identity_id unique constraint or a role IS NULL predicate, so
// concurrent first visits for the same identity converge on one row and one role.
func (r *PostgresRepository) Provision(ctx context.Context, p *domain.BaseProfile, claim domain.Role) (*domain.BaseProfile, domain.ProvisionOutcome, error) {
	if err := p.Validate(); err != nil {
		return nil, domain.OutcomeExisting, err
	}
	now := p.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	var (
		stored  *domain.BaseProfile
		outcome = domain.OutcomeExisting
	)
	err := db.InTx(ctx, r.db, func(tx *sql.Tx) error {
		created, err := scanProfile(tx.QueryRowContext(ctx, insertProfileSQL,
			p.ID, p.IdentityID, p.Email, p.FullName, nullString(p.AvatarURL), nullRole(p.Role), now))
		if err == nil {
			stored, outcome = created, domain.OutcomeCreated
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("insert profile: %w", err)
		}

		claimed, err := scanProfile(tx.QueryRowContext(ctx, claimRoleSQL, p.IdentityID, string(claim), now))
		if err == nil {
			stored, outcome = claimed, domain.OutcomeClaimed
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("claim role: %w", err)
		}

		existing, err := scanProfile(tx.QueryRowContext(ctx, selectProfileByIdentitySQL, p.IdentityID))
		if err != nil {
			return fmt.Errorf("read profile: %w", err)
		}
		stored = existing
		return nil
	})
	if err != nil {
		return nil, domain.OutcomeExisting, err
	}
	return stored, outcome, nil
}

// GetClientProfile returns the client profile for profileID, or nil if not found.
func (r *PostgresRepository) GetClientProfile(ctx context.Context, profileID string) (*domain.ClientProfile, error) {
	c, err := r.scanClient(r.db.QueryRowContext(ctx, selectClientSQL, profileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// UpsertClientProfile merges patch into the client profile and mirrors company_name onto the base
// profile in the same transaction.
func (r *PostgresRepository) UpsertClientProfile(ctx context.Context, profileID string, patch *domain.ClientPatch, now time.Time) (*domain.ClientProfile, bool, error) {
	var (
		out      *domain.ClientProfile
		inserted bool
	)
	err := db.InTx(ctx, r.db, func(tx *sql.Tx) error {
		c, err := r.scanClient(tx.QueryRowContext(ctx, upsertClientSQL,
			profileID,
			nullStringPtr(patch.CompanyName),
			nullStringPtr(patch.CompanySize),
			nullStringPtr(patch.Industry),
			nullStringPtr(patch.Website),
			nullStringPtr(patch.Description),
			nullStrings(patch.HiringNeeds),
			now,
		), &inserted)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRoleNotBound
			}
			return fmt.Errorf("upsert client profile: %w", err)
		}
		if _, err := tx.ExecContext(ctx, syncCompanyNameSQL, profileID, c.CompanyName, now); err != nil {
			return fmt.Errorf("sync company name: %w", err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, inserted, nil
}

// GetFreelancerProfile returns the freelancer profile for profileID, or nil if not found.
func (r *PostgresRepository) GetFreelancerProfile(ctx context.Context, profileID string) (*domain.FreelancerProfile, error) {
	f, err := r.scanFreelancer(r.db.QueryRowContext(ctx, selectFreelancerSQL, profileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// UpsertFreelancerProfile merges patch into the freelancer profile in one statement.
func (r *PostgresRepository) UpsertFreelancerProfile(ctx context.Context, profileID string, patch *domain.FreelancerPatch, now time.Time) (*domain.FreelancerProfile, bool, error) {
	var (
		rate     sql.NullFloat64
		inserted bool
	)
	if patch.HourlyRate != nil {
		rate = sql.NullFloat64{Float64: *patch.HourlyRate, Valid: true}
	}
	f, err := r.scanFreelancer(r.db.QueryRowContext(ctx, upsertFreelancerSQL,
		profileID,
		nullStringPtr(patch.Title),
		nullStringPtr(patch.Bio),
		nullStrings(patch.Skills),
		rate,
		nullStringPtr(patch.ExperienceLevel),
		nullStringPtr(patch.Availability),
		nullStringPtr(patch.PortfolioURL),
		now,
	), &inserted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrRoleNotBound
		}
		return nil, false, fmt.Errorf("upsert freelancer profile: %w", err)
	}
	return f, inserted, nil
}

func scanProfile(row *sql.Row) (*domain.BaseProfile, error) {
	var (
		p       domain.BaseProfile
		avatar  sql.NullString
		role    sql.NullString
		company sql.NullString
	)
	if err := row.Scan(&p.ID, &p.IdentityID, &p.Email, &p.FullName, &avatar, &role, &company, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if avatar.Valid {
		p.AvatarURL = avatar.String
	}
	if role.Valid {
		p.Role = domain.Role(role.String).Ptr()
	}
	if company.Valid {
		s := company.String
		p.CompanyName = &s
	}
	return &p, nil
}

// scanClient scans clientColumns followed by any extra RETURNING columns.
func (r *PostgresRepository) scanClient(row *sql.Row, extra ...any) (*domain.ClientProfile, error) {
	var (
		c           domain.ClientProfile
		website     sql.NullString
		description sql.NullString
	)
	dest := []any{&c.ProfileID, &c.CompanyName, &c.CompanySize, &c.Industry, &website, &description,
		r.types.SQLScanner(&c.HiringNeeds), &c.CreatedAt, &c.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}
	c.Website = website.String
	c.Description = description.String
	return &c, nil
}

func (r *PostgresRepository) scanFreelancer(row *sql.Row, extra ...any) (*domain.FreelancerProfile, error) {
	var (
		f         domain.FreelancerProfile
		portfolio sql.NullString
	)
	dest := []any{&f.ProfileID, &f.Title, &f.Bio, r.types.SQLScanner(&f.Skills), &f.HourlyRate,
		&f.ExperienceLevel, &f.Availability, &portfolio, &f.CreatedAt, &f.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}
	f.PortfolioURL = portfolio.String
	return &f, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullRole(r *domain.Role) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}

// nullStrings returns nil for an absent list so COALESCE keeps the stored array.
func nullStrings(v []string) any {
	if v == nil {
		return nil
	}
	return v
}
