package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/resumatch/apiserver/internal/ai"
	"github.com/resumatch/apiserver/types"
)

// InterviewPrepRepository defines persistence operations for preps.
type InterviewPrepRepository interface {
	Create(ctx context.Context, prep types.InterviewPrep) (types.InterviewPrep, error)
	Get(ctx context.Context, id, userID int) (types.InterviewPrep, error)
	ListForUser(ctx context.Context, userID int) ([]types.InterviewPrep, error)
	Update(ctx context.Context, prep types.InterviewPrep) (types.InterviewPrep, error)
	UpdateStatus(ctx context.Context, id, userID int, status types.PrepStatus) error
	Delete(ctx context.Context, id, userID int) error
}

// QuestionGenerator produces company research and a question bank.
type QuestionGenerator interface {
	GenerateInterview(ctx context.Context, req ai.InterviewRequest) (string, []types.Question, error)
}

// InterviewService encapsulates the interview prep lifecycle and keeps
// the derived stats/progress projections consistent with the question
// bank and session log on every mutation.
type InterviewService struct {
	repo      InterviewPrepRepository
	generator QuestionGenerator
}

func NewInterviewService(repo InterviewPrepRepository, generator QuestionGenerator) *InterviewService {
	return &InterviewService{
		repo:      repo,
		generator: generator,
	}
}

// GenerateRequest describes the target role for a new prep.
type GenerateRequest struct {
	JobMatchID      *int
	Company         string
	Role            string
	Technologies    []string
	ExperienceLevel string
	QuestionCount   int
}

// Generate creates the prep in generating status first so clients can
// observe the pending state, then populates it from the collaborator.
// On collaborator failure the prep reverts to draft rather than being
// deleted, leaving the failed attempt visible and retryable.
func (s *InterviewService) Generate(ctx context.Context, userID int, req GenerateRequest) (types.InterviewPrep, error) {
	prep := types.InterviewPrep{
		UserID:          userID,
		JobMatchID:      req.JobMatchID,
		Company:         req.Company,
		Role:            req.Role,
		Technologies:    req.Technologies,
		ExperienceLevel: req.ExperienceLevel,
		Status:          types.PrepGenerating,
	}
	prep, err := s.repo.Create(ctx, prep)
	if err != nil {
		return types.InterviewPrep{}, err
	}

	research, questions, err := s.generator.GenerateInterview(ctx, ai.InterviewRequest{
		Company:         req.Company,
		Role:            req.Role,
		Technologies:    req.Technologies,
		ExperienceLevel: req.ExperienceLevel,
		QuestionCount:   req.QuestionCount,
	})
	if err != nil {
		if revertErr := s.repo.UpdateStatus(ctx, prep.ID, userID, types.PrepDraft); revertErr != nil {
			log.Printf("failed to revert prep %d to draft: %v", prep.ID, revertErr)
		}
		prep.Status = types.PrepDraft
		return prep, fmt.Errorf("question generation failed: %w", err)
	}

	prep.CompanyResearch = research
	prep.Questions = questions
	prep.Status = types.PrepGenerated
	s.applyDerived(&prep, false, time.Now())

	return s.repo.Update(ctx, prep)
}

func (s *InterviewService) Get(ctx context.Context, id, userID int) (types.InterviewPrep, error) {
	return s.repo.Get(ctx, id, userID)
}

func (s *InterviewService) List(ctx context.Context, userID int) ([]types.InterviewPrep, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *InterviewService) Delete(ctx context.Context, id, userID int) error {
	return s.repo.Delete(ctx, id, userID)
}

// MarkQuestionPracticed records practice on one question and recomputes
// every derived projection.
func (s *InterviewService) MarkQuestionPracticed(ctx context.Context, id, userID int, questionID string, confidenceLevel int, notes string) (types.InterviewPrep, error) {
	prep, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return types.InterviewPrep{}, err
	}

	found := false
	for i := range prep.Questions {
		if prep.Questions[i].ID != questionID {
			continue
		}
		prep.Questions[i].Practiced = true
		prep.Questions[i].PracticeCount++
		if confidenceLevel > 0 {
			prep.Questions[i].ConfidenceLevel = confidenceLevel
		}
		if notes != "" {
			prep.Questions[i].UserNotes = notes
		}
		found = true
		break
	}
	if !found {
		return types.InterviewPrep{}, ErrQuestionNotFound
	}

	s.applyDerived(&prep, true, time.Now())
	return s.repo.Update(ctx, prep)
}

// RecordPracticeSession appends a session with a server-assigned
// timestamp and recomputes the session-derived aggregates in full.
func (s *InterviewService) RecordPracticeSession(ctx context.Context, id, userID int, attempted, durationMinutes int, averageConfidence float64, notes string) (types.InterviewPrep, error) {
	prep, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return types.InterviewPrep{}, err
	}

	now := time.Now()
	prep.Sessions = append(prep.Sessions, types.PracticeSession{
		Date:               now,
		QuestionsAttempted: attempted,
		DurationMinutes:    durationMinutes,
		AverageConfidence:  averageConfidence,
		Notes:              notes,
	})
	prep.Progress.LastPracticedAt = &now
	prep.Progress.TotalPracticeMinutes += durationMinutes
	prep.Progress.AverageConfidence = types.AverageSessionConfidence(prep.Sessions)

	s.applyDerived(&prep, true, now)
	return s.repo.Update(ctx, prep)
}

// applyDerived recomputes question stats, completion progress and the
// lifecycle status from the question bank. hasPractice reports whether
// this mutation represents practice activity.
func (s *InterviewService) applyDerived(prep *types.InterviewPrep, hasPractice bool, now time.Time) {
	prep.Stats = types.ComputeQuestionStats(prep.Questions)

	completed, total, percent := types.CompletionProgress(prep.Questions)
	prep.Progress.QuestionsCompleted = completed
	prep.Progress.TotalQuestions = total
	prep.Progress.PercentComplete = percent

	next := types.DeriveStatus(prep.Status, percent, hasPractice)
	if next == types.PrepCompleted && prep.Status != types.PrepCompleted {
		prep.CompletedAt = &now
	}
	prep.Status = next
}
