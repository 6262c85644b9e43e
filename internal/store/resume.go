package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/resumatch/apiserver/types"
)

// ResumeRepository handles persistence for resumes.
type ResumeRepository struct {
	db *sql.DB
}

func NewResumeRepository(db *sql.DB) *ResumeRepository {
	return &ResumeRepository{db: db}
}

const resumeColumns = `id, user_id, object_key, file_name, content_type, raw_text,
	structured, skills, experience, education, parse_meta, is_active, created_at, updated_at`

func scanResume(row interface{ Scan(...any) error }) (types.Resume, error) {
	var resume types.Resume
	var structuredJSON, skillsJSON, experienceJSON, educationJSON, metaJSON []byte
	err := row.Scan(
		&resume.ID,
		&resume.UserID,
		&resume.ObjectKey,
		&resume.FileName,
		&resume.ContentType,
		&resume.RawText,
		&structuredJSON,
		&skillsJSON,
		&experienceJSON,
		&educationJSON,
		&metaJSON,
		&resume.IsActive,
		&resume.CreatedAt,
		&resume.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Resume{}, ErrNotFound
		}
		return types.Resume{}, err
	}
	_ = json.Unmarshal(structuredJSON, &resume.Structured)
	_ = json.Unmarshal(skillsJSON, &resume.Skills)
	_ = json.Unmarshal(experienceJSON, &resume.Experience)
	_ = json.Unmarshal(educationJSON, &resume.Education)
	_ = json.Unmarshal(metaJSON, &resume.ParseMeta)
	return resume, nil
}

// CreateActive inserts a resume as the user's active one. The entire
// sequence runs in one transaction: a conditional update deactivates
// whichever resume is currently active for the user, then the new row is
// inserted active and the user's active-resume reference is repointed.
// After any completed call exactly one resume remains active.
func (r *ResumeRepository) CreateActive(ctx context.Context, resume types.Resume) (types.Resume, error) {
	now := time.Now()
	resume.IsActive = true
	resume.CreatedAt = now
	resume.UpdatedAt = now

	structuredJSON, err := json.Marshal(resume.Structured)
	if err != nil {
		return types.Resume{}, err
	}
	skillsJSON, err := json.Marshal(resume.Structured.Skills)
	if err != nil {
		return types.Resume{}, err
	}
	experienceJSON, err := json.Marshal(resume.Structured.Experience)
	if err != nil {
		return types.Resume{}, err
	}
	educationJSON, err := json.Marshal(resume.Structured.Education)
	if err != nil {
		return types.Resume{}, err
	}
	metaJSON, err := json.Marshal(resume.ParseMeta)
	if err != nil {
		return types.Resume{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Resume{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const deactivate = `
		UPDATE resumes SET is_active = FALSE, updated_at = $1
		WHERE user_id = $2 AND is_active`
	if _, err := tx.ExecContext(ctx, deactivate, now, resume.UserID); err != nil {
		return types.Resume{}, err
	}

	const insert = `
		INSERT INTO resumes (user_id, object_key, file_name, content_type, raw_text,
			structured, skills, experience, education, parse_meta, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		insert,
		resume.UserID,
		resume.ObjectKey,
		resume.FileName,
		resume.ContentType,
		resume.RawText,
		structuredJSON,
		skillsJSON,
		experienceJSON,
		educationJSON,
		metaJSON,
		resume.IsActive,
		resume.CreatedAt,
		resume.UpdatedAt,
	).Scan(&resume.ID); err != nil {
		return types.Resume{}, err
	}

	const repoint = `UPDATE users SET active_resume_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, repoint, resume.ID, now, resume.UserID); err != nil {
		return types.Resume{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Resume{}, err
	}

	resume.Skills = resume.Structured.Skills
	resume.Experience = resume.Structured.Experience
	resume.Education = resume.Structured.Education
	return resume, nil
}

func (r *ResumeRepository) Get(ctx context.Context, id, userID int) (types.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1 AND user_id = $2`
	return scanResume(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *ResumeRepository) GetActiveForUser(ctx context.Context, userID int) (types.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE user_id = $1 AND is_active`
	return scanResume(r.db.QueryRowContext(ctx, query, userID))
}

func (r *ResumeRepository) ListForUser(ctx context.Context, userID int) ([]types.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resumes := make([]types.Resume, 0)
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, resume)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return resumes, nil
}

// ReplaceStructured overwrites the structured payload and its three
// denormalized copies in a single statement, all derived from the same
// source object so a subsequent read can never observe divergence.
func (r *ResumeRepository) ReplaceStructured(ctx context.Context, id, userID int, structured types.StructuredResume, meta types.ParseMetadata) error {
	structuredJSON, err := json.Marshal(structured)
	if err != nil {
		return err
	}
	skillsJSON, err := json.Marshal(structured.Skills)
	if err != nil {
		return err
	}
	experienceJSON, err := json.Marshal(structured.Experience)
	if err != nil {
		return err
	}
	educationJSON, err := json.Marshal(structured.Education)
	if err != nil {
		return err
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	const query = `
		UPDATE resumes
		SET structured = $1,
			skills = $2,
			experience = $3,
			education = $4,
			parse_meta = $5,
			updated_at = $6
		WHERE id = $7 AND user_id = $8`
	result, err := r.db.ExecContext(ctx, query,
		structuredJSON, skillsJSON, experienceJSON, educationJSON, metaJSON,
		time.Now(), id, userID)
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

// Delete removes the resume row and, when it was the active one, clears
// the user's active-resume reference in the same transaction.
func (r *ResumeRepository) Delete(ctx context.Context, id, userID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var wasActive bool
	const del = `DELETE FROM resumes WHERE id = $1 AND user_id = $2 RETURNING is_active`
	if err := tx.QueryRowContext(ctx, del, id, userID).Scan(&wasActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if wasActive {
		const clear = `UPDATE users SET active_resume_id = NULL, updated_at = $1 WHERE id = $2`
		if _, err := tx.ExecContext(ctx, clear, time.Now(), userID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
