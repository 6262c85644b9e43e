package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/resumatch/apiserver/types"
)

const uniqueViolation = "23505"

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, password_hash, phone, location, linkedin, github, website,
	active_resume_id, analytics, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (types.User, error) {
	var user types.User
	var analyticsJSON []byte
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Phone,
		&user.Location,
		&user.LinkedIn,
		&user.GitHub,
		&user.Website,
		&user.ActiveResumeID,
		&analyticsJSON,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	_ = json.Unmarshal(analyticsJSON, &user.Analytics)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(email)))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.Email = strings.ToLower(user.Email)
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now

	analyticsJSON, err := json.Marshal(user.Analytics)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		INSERT INTO users (email, name, password_hash, phone, location, linkedin, github, website,
			analytics, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Phone,
		user.Location,
		user.LinkedIn,
		user.GitHub,
		user.Website,
		analyticsJSON,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateProfile updates display and contact fields only.
func (r *UserRepository) UpdateProfile(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET name = $1,
			phone = $2,
			location = $3,
			linkedin = $4,
			github = $5,
			website = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Phone,
		user.Location,
		user.LinkedIn,
		user.GitHub,
		user.Website,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementApplied bumps the applied counter inside the analytics
// aggregate. The arithmetic happens in the UPDATE itself, so concurrent
// applies on different matches cannot lose an increment.
func (r *UserRepository) IncrementApplied(ctx context.Context, id int) error {
	const query = `
		UPDATE users
		SET analytics = analytics || jsonb_build_object(
				'total_jobs_applied', COALESCE((analytics->>'total_jobs_applied')::int, 0) + 1,
				'last_updated', to_jsonb($1::timestamptz)),
			updated_at = $1
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordDiscovery folds a discovery batch into the analytics aggregate:
// the discovered counter, the running average match score and the
// replacement strength/gap lists. Counter and average are computed
// inside the UPDATE from the stored values, so concurrent discoveries
// serialize on the row instead of overwriting each other.
func (r *UserRepository) RecordDiscovery(ctx context.Context, id, discovered int, scoreSum float64, topStrengths, skillGaps []string) error {
	strengthsJSON, err := json.Marshal(topStrengths)
	if err != nil {
		return err
	}
	gapsJSON, err := json.Marshal(skillGaps)
	if err != nil {
		return err
	}

	const query = `
		UPDATE users
		SET analytics = analytics || jsonb_build_object(
				'total_jobs_discovered', COALESCE((analytics->>'total_jobs_discovered')::int, 0) + $1,
				'average_match_score',
					(COALESCE((analytics->>'average_match_score')::float, 0)
							* COALESCE((analytics->>'total_jobs_discovered')::int, 0) + $2)
						/ (COALESCE((analytics->>'total_jobs_discovered')::int, 0) + $1),
				'top_strengths', $3::jsonb,
				'skill_gaps', $4::jsonb,
				'last_updated', to_jsonb($5::timestamptz)),
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query,
		discovered, scoreSum, string(strengthsJSON), string(gapsJSON), time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
