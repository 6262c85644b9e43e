package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/resumatch/apiserver/types"
)

// InterviewPrepRepository handles persistence for interview preps.
type InterviewPrepRepository struct {
	db *sql.DB
}

func NewInterviewPrepRepository(db *sql.DB) *InterviewPrepRepository {
	return &InterviewPrepRepository{db: db}
}

const prepColumns = `id, user_id, job_match_id, company, role, technologies, experience_level,
	company_research, questions, question_stats, progress, practice_sessions, status,
	completed_at, created_at, updated_at`

func scanPrep(row interface{ Scan(...any) error }) (types.InterviewPrep, error) {
	var prep types.InterviewPrep
	var technologiesJSON, questionsJSON, statsJSON, progressJSON, sessionsJSON []byte
	err := row.Scan(
		&prep.ID,
		&prep.UserID,
		&prep.JobMatchID,
		&prep.Company,
		&prep.Role,
		&technologiesJSON,
		&prep.ExperienceLevel,
		&prep.CompanyResearch,
		&questionsJSON,
		&statsJSON,
		&progressJSON,
		&sessionsJSON,
		&prep.Status,
		&prep.CompletedAt,
		&prep.CreatedAt,
		&prep.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.InterviewPrep{}, ErrNotFound
		}
		return types.InterviewPrep{}, err
	}
	_ = json.Unmarshal(technologiesJSON, &prep.Technologies)
	_ = json.Unmarshal(questionsJSON, &prep.Questions)
	_ = json.Unmarshal(statsJSON, &prep.Stats)
	_ = json.Unmarshal(progressJSON, &prep.Progress)
	_ = json.Unmarshal(sessionsJSON, &prep.Sessions)
	return prep, nil
}

func (r *InterviewPrepRepository) Create(ctx context.Context, prep types.InterviewPrep) (types.InterviewPrep, error) {
	now := time.Now()
	prep.CreatedAt = now
	prep.UpdatedAt = now

	technologiesJSON, err := json.Marshal(prep.Technologies)
	if err != nil {
		return types.InterviewPrep{}, err
	}
	questionsJSON, err := json.Marshal(prep.Questions)
	if err != nil {
		return types.InterviewPrep{}, err
	}
	statsJSON, err := json.Marshal(prep.Stats)
	if err != nil {
		return types.InterviewPrep{}, err
	}
	progressJSON, err := json.Marshal(prep.Progress)
	if err != nil {
		return types.InterviewPrep{}, err
	}
	sessionsJSON, err := json.Marshal(prep.Sessions)
	if err != nil {
		return types.InterviewPrep{}, err
	}

	const query = `
		INSERT INTO interview_preps (user_id, job_match_id, company, role, technologies,
			experience_level, company_research, questions, question_stats, progress,
			practice_sessions, status, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		prep.UserID,
		prep.JobMatchID,
		prep.Company,
		prep.Role,
		technologiesJSON,
		prep.ExperienceLevel,
		prep.CompanyResearch,
		questionsJSON,
		statsJSON,
		progressJSON,
		sessionsJSON,
		prep.Status,
		prep.CompletedAt,
		prep.CreatedAt,
		prep.UpdatedAt,
	).Scan(&prep.ID); err != nil {
		return types.InterviewPrep{}, err
	}
	return prep, nil
}

func (r *InterviewPrepRepository) Get(ctx context.Context, id, userID int) (types.InterviewPrep, error) {
	query := `SELECT ` + prepColumns + ` FROM interview_preps WHERE id = $1 AND user_id = $2`
	return scanPrep(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *InterviewPrepRepository) ListForUser(ctx context.Context, userID int) ([]types.InterviewPrep, error) {
	query := `SELECT ` + prepColumns + ` FROM interview_preps WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	preps := make([]types.InterviewPrep, 0)
	for rows.Next() {
		prep, err := scanPrep(rows)
		if err != nil {
			return nil, err
		}
		preps = append(preps, prep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return preps, nil
}

// Update persists the mutable portion of a prep: question bank, derived
// projections, sessions, research, status and completion stamp.
func (r *InterviewPrepRepository) Update(ctx context.Context, prep types.InterviewPrep) (types.InterviewPrep, error) {
	prep.UpdatedAt = time.Now()

	questionsJSON, err := json.Marshal(prep.Questions)
	if err != nil {
		return types.InterviewPrep{}, err
	}
	statsJSON, err := json.Marshal(prep.Stats)
	if err != nil {
		return types.InterviewPrep{}, err
	}
	progressJSON, err := json.Marshal(prep.Progress)
	if err != nil {
		return types.InterviewPrep{}, err
	}
	sessionsJSON, err := json.Marshal(prep.Sessions)
	if err != nil {
		return types.InterviewPrep{}, err
	}

	const query = `
		UPDATE interview_preps
		SET company_research = $1,
			questions = $2,
			question_stats = $3,
			progress = $4,
			practice_sessions = $5,
			status = $6,
			completed_at = $7,
			updated_at = $8
		WHERE id = $9 AND user_id = $10`
	result, err := r.db.ExecContext(ctx, query,
		prep.CompanyResearch,
		questionsJSON,
		statsJSON,
		progressJSON,
		sessionsJSON,
		prep.Status,
		prep.CompletedAt,
		prep.UpdatedAt,
		prep.ID,
		prep.UserID,
	)
	if err != nil {
		return types.InterviewPrep{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.InterviewPrep{}, err
	}
	if affected == 0 {
		return types.InterviewPrep{}, ErrNotFound
	}
	return prep, nil
}

// UpdateStatus changes only the lifecycle status, used for the
// generating -> draft revert when question generation fails.
func (r *InterviewPrepRepository) UpdateStatus(ctx context.Context, id, userID int, status types.PrepStatus) error {
	const query = `
		UPDATE interview_preps SET status = $1, updated_at = $2
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

func (r *InterviewPrepRepository) Delete(ctx context.Context, id, userID int) error {
	const query = `DELETE FROM interview_preps WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
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
