package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/resumatch/apiserver/types"
)

// JobMatchRepository handles persistence for job matches.
type JobMatchRepository struct {
	db *sql.DB
}

func NewJobMatchRepository(db *sql.DB) *JobMatchRepository {
	return &JobMatchRepository{db: db}
}

// JobMatchFilter narrows List results.
type JobMatchFilter struct {
	Status        types.ApplicationStatus
	SavedOnly     bool
	IncludeHidden bool
}

const jobMatchColumns = `id, user_id, resume_id, title, company, location, description, url,
	source, salary, posted_at, requirements, match_score, match_reason, analysis, overall_fit,
	application_status, applied, applied_at, notes, saved, hidden, created_at, updated_at`

func scanJobMatch(row interface{ Scan(...any) error }) (types.JobMatch, error) {
	var match types.JobMatch
	var requirementsJSON, analysisJSON []byte
	err := row.Scan(
		&match.ID,
		&match.UserID,
		&match.ResumeID,
		&match.Title,
		&match.Company,
		&match.Location,
		&match.Description,
		&match.URL,
		&match.Source,
		&match.Salary,
		&match.PostedAt,
		&requirementsJSON,
		&match.MatchScore,
		&match.MatchReason,
		&analysisJSON,
		&match.OverallFit,
		&match.ApplicationStatus,
		&match.Applied,
		&match.AppliedAt,
		&match.Notes,
		&match.Saved,
		&match.Hidden,
		&match.CreatedAt,
		&match.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.JobMatch{}, ErrNotFound
		}
		return types.JobMatch{}, err
	}
	_ = json.Unmarshal(requirementsJSON, &match.Requirements)
	_ = json.Unmarshal(analysisJSON, &match.Analysis)
	return match, nil
}

// CreateBatch inserts matches one by one without a wrapping transaction.
// On failure the matches inserted so far stay persisted and are returned
// together with the error.
func (r *JobMatchRepository) CreateBatch(ctx context.Context, matches []types.JobMatch) ([]types.JobMatch, error) {
	now := time.Now()
	inserted := make([]types.JobMatch, 0, len(matches))

	const query = `
		INSERT INTO job_matches (user_id, resume_id, title, company, location, description, url,
			source, salary, posted_at, requirements, match_score, match_reason, analysis, overall_fit,
			application_status, applied, notes, saved, hidden, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id`

	for _, match := range matches {
		match.CreatedAt = now
		match.UpdatedAt = now
		if match.ApplicationStatus == "" {
			match.ApplicationStatus = types.StatusNotApplied
		}

		requirementsJSON, err := json.Marshal(match.Requirements)
		if err != nil {
			return inserted, err
		}
		analysisJSON, err := json.Marshal(match.Analysis)
		if err != nil {
			return inserted, err
		}

		if err := r.db.QueryRowContext(
			ctx,
			query,
			match.UserID,
			match.ResumeID,
			match.Title,
			match.Company,
			match.Location,
			match.Description,
			match.URL,
			match.Source,
			match.Salary,
			match.PostedAt,
			requirementsJSON,
			match.MatchScore,
			match.MatchReason,
			analysisJSON,
			match.OverallFit,
			match.ApplicationStatus,
			match.Applied,
			match.Notes,
			match.Saved,
			match.Hidden,
			match.CreatedAt,
			match.UpdatedAt,
		).Scan(&match.ID); err != nil {
			return inserted, fmt.Errorf("insert job match %q: %w", match.Title, err)
		}
		inserted = append(inserted, match)
	}

	return inserted, nil
}

func (r *JobMatchRepository) Get(ctx context.Context, id, userID int) (types.JobMatch, error) {
	query := `SELECT ` + jobMatchColumns + ` FROM job_matches WHERE id = $1 AND user_id = $2`
	return scanJobMatch(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *JobMatchRepository) List(ctx context.Context, userID int, filter JobMatchFilter, offset, limit int) ([]types.JobMatch, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	conditions := []string{"user_id = $1"}
	args := []any{userID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("application_status = $%d", len(args)))
	}
	if filter.SavedOnly {
		conditions = append(conditions, "saved")
	}
	if !filter.IncludeHidden {
		conditions = append(conditions, "NOT hidden")
	}
	where := strings.Join(conditions, " AND ")

	countQuery := `SELECT COUNT(1) FROM job_matches WHERE ` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM job_matches WHERE %s
		ORDER BY match_score DESC, id
		OFFSET $%d LIMIT $%d`, jobMatchColumns, where, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	matches := make([]types.JobMatch, 0, limit)
	for rows.Next() {
		match, err := scanJobMatch(rows)
		if err != nil {
			return nil, 0, err
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return matches, total, nil
}

// MarkApplied flips the applied flag and stamps applied_at, but only on
// the first transition: the conditional update leaves an already-applied
// row untouched, so applied_at keeps its first-set value. The status
// advances to applied only from not_applied; a row already moved
// further along (interviewing, offered, ...) keeps its status. It
// reports whether this call performed the transition.
func (r *JobMatchRepository) MarkApplied(ctx context.Context, id, userID int, notes string) (bool, error) {
	const query = `
		UPDATE job_matches
		SET applied = TRUE,
			applied_at = $1,
			application_status = CASE WHEN application_status = $2 THEN $3 ELSE application_status END,
			notes = CASE WHEN $4 = '' THEN notes ELSE $4 END,
			updated_at = $1
		WHERE id = $5 AND user_id = $6 AND NOT applied`
	result, err := r.db.ExecContext(ctx, query, time.Now(), types.StatusNotApplied, types.StatusApplied, notes, id, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return true, nil
	}

	// Nothing updated: distinguish an already-applied row from a missing one.
	var exists bool
	const check = `SELECT EXISTS (SELECT 1 FROM job_matches WHERE id = $1 AND user_id = $2)`
	if err := r.db.QueryRowContext(ctx, check, id, userID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *JobMatchRepository) UpdateStatus(ctx context.Context, id, userID int, status types.ApplicationStatus) error {
	const query = `
		UPDATE job_matches SET application_status = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id, userID)
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

// ToggleSaved flips the saved flag and returns its new value.
func (r *JobMatchRepository) ToggleSaved(ctx context.Context, id, userID int) (bool, error) {
	const query = `
		UPDATE job_matches SET saved = NOT saved, updated_at = $1
		WHERE id = $2 AND user_id = $3
		RETURNING saved`
	var saved bool
	if err := r.db.QueryRowContext(ctx, query, time.Now(), id, userID).Scan(&saved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return saved, nil
}

// Hide marks a match hidden. There is no unhide.
func (r *JobMatchRepository) Hide(ctx context.Context, id, userID int) error {
	const query = `
		UPDATE job_matches SET hidden = TRUE, updated_at = $1
		WHERE id = $2 AND user_id = $3`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, userID)
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
