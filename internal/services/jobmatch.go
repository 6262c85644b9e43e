package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/resumatch/apiserver/internal/ai"
	"github.com/resumatch/apiserver/internal/jobsearch"
	"github.com/resumatch/apiserver/internal/store"
	"github.com/resumatch/apiserver/types"
)

const (
	defaultDiscoverLimit = 10
	maxDiscoverLimit     = 50
	topSkillCount        = 5
)

// JobMatchRepository defines persistence operations for job matches.
type JobMatchRepository interface {
	CreateBatch(ctx context.Context, matches []types.JobMatch) ([]types.JobMatch, error)
	Get(ctx context.Context, id, userID int) (types.JobMatch, error)
	List(ctx context.Context, userID int, filter store.JobMatchFilter, offset, limit int) ([]types.JobMatch, int, error)
	MarkApplied(ctx context.Context, id, userID int, notes string) (bool, error)
	UpdateStatus(ctx context.Context, id, userID int, status types.ApplicationStatus) error
	ToggleSaved(ctx context.Context, id, userID int) (bool, error)
	Hide(ctx context.Context, id, userID int) error
}

// JobSearcher fetches postings from the external search collaborator.
type JobSearcher interface {
	Search(ctx context.Context, skills []string, location string) ([]jobsearch.Posting, error)
}

// JobScorer scores one posting against a skill list.
type JobScorer interface {
	ScoreJob(ctx context.Context, title, description string, skills []string) (ai.JobScore, error)
}

// JobMatchService encapsulates job discovery and the application-status
// engine.
type JobMatchService struct {
	repo     JobMatchRepository
	users    UserRepository
	resumes  ResumeRepository
	searcher JobSearcher
	scorer   JobScorer
}

func NewJobMatchService(repo JobMatchRepository, users UserRepository, resumes ResumeRepository, searcher JobSearcher, scorer JobScorer) *JobMatchService {
	return &JobMatchService{
		repo:     repo,
		users:    users,
		resumes:  resumes,
		searcher: searcher,
		scorer:   scorer,
	}
}

// Discover searches for jobs matching the user's active resume, scores
// each posting, persists the top results and updates the user's
// analytics aggregate. A scoring failure degrades that posting to a
// zero score instead of dropping it. An empty search result is a valid
// outcome and returns an empty batch.
func (s *JobMatchService) Discover(ctx context.Context, userID int, location string, limit int) ([]types.JobMatch, error) {
	if limit <= 0 {
		limit = defaultDiscoverLimit
	}
	if limit > maxDiscoverLimit {
		limit = maxDiscoverLimit
	}

	resume, err := s.resumes.GetActiveForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoActiveResume
		}
		return nil, err
	}
	skills := resume.Skills
	if len(skills) == 0 {
		return nil, ErrNoActiveResume
	}

	postings, err := s.searcher.Search(ctx, skills, location)
	if err != nil {
		return nil, fmt.Errorf("job search failed: %w", err)
	}
	if len(postings) == 0 {
		return []types.JobMatch{}, nil
	}

	resumeID := resume.ID
	candidates := make([]types.JobMatch, 0, len(postings))
	for _, posting := range postings {
		score, err := s.scorer.ScoreJob(ctx, posting.Title, posting.Description, skills)
		if err != nil {
			log.Printf("job scoring failed for %q, keeping with zero score: %v", posting.Title, err)
			score = ai.JobScore{
				Score:  0,
				Reason: "match scoring unavailable for this job",
			}
		}

		match := types.JobMatch{
			UserID:      userID,
			ResumeID:    &resumeID,
			Title:       posting.Title,
			Company:     posting.Company,
			Location:    posting.Location,
			Description: posting.Description,
			URL:         posting.URL,
			Source:      posting.Source,
			Salary:      posting.Salary,
			PostedAt:    parsePostedAt(posting.PostedAt),
			MatchScore:  types.ClampScore(score.Score),
			MatchReason: score.Reason,
			Analysis: types.MatchAnalysis{
				MatchingSkills: score.MatchingSkills,
				MissingSkills:  score.MissingSkills,
				Strengths:      score.Strengths,
				Improvements:   score.Improvements,
			},
			ApplicationStatus: types.StatusNotApplied,
		}
		match.OverallFit = types.FitFromScore(match.MatchScore)
		candidates = append(candidates, match)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	inserted, insertErr := s.repo.CreateBatch(ctx, candidates)

	if len(inserted) > 0 {
		if err := s.recordDiscovery(ctx, userID, inserted); err != nil {
			log.Printf("failed to update analytics for user %d: %v", userID, err)
		}
	}
	if insertErr != nil {
		return inserted, insertErr
	}
	return inserted, nil
}

// recordDiscovery folds a discovery batch into the user's analytics:
// the discovered counter, the running average match score and the
// top-strength/skill-gap lists. The counter and average arithmetic
// happens in the repository's atomic update; only the batch summary is
// computed here.
func (s *JobMatchService) recordDiscovery(ctx context.Context, userID int, batch []types.JobMatch) error {
	var sum float64
	strengths := make(map[string]int)
	gaps := make(map[string]int)
	for _, match := range batch {
		sum += float64(match.MatchScore)
		for _, skill := range match.Analysis.MatchingSkills {
			strengths[skill]++
		}
		for _, skill := range match.Analysis.MissingSkills {
			gaps[skill]++
		}
	}

	return s.users.RecordDiscovery(ctx, userID, len(batch), sum,
		topSkills(strengths, topSkillCount), topSkills(gaps, topSkillCount))
}

func topSkills(counts map[string]int, n int) []string {
	skills := make([]string, 0, len(counts))
	for skill := range counts {
		skills = append(skills, skill)
	}
	sort.Slice(skills, func(i, j int) bool {
		if counts[skills[i]] != counts[skills[j]] {
			return counts[skills[i]] > counts[skills[j]]
		}
		return skills[i] < skills[j]
	})
	if len(skills) > n {
		skills = skills[:n]
	}
	return skills
}

func parsePostedAt(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func (s *JobMatchService) Get(ctx context.Context, id, userID int) (types.JobMatch, error) {
	return s.repo.Get(ctx, id, userID)
}

func (s *JobMatchService) List(ctx context.Context, userID int, filter store.JobMatchFilter, offset, limit int) ([]types.JobMatch, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, userID, filter, offset, limit)
}

// MarkApplied transitions a match to applied. The applied timestamp is
// set exactly once, on the first call, and the user's applied counter
// increments only on that first transition so repeated calls never
// double count.
func (s *JobMatchService) MarkApplied(ctx context.Context, id, userID int, notes string) (types.JobMatch, error) {
	appliedNow, err := s.repo.MarkApplied(ctx, id, userID, notes)
	if err != nil {
		return types.JobMatch{}, err
	}

	if appliedNow {
		if err := s.users.IncrementApplied(ctx, userID); err != nil {
			return types.JobMatch{}, err
		}
	}

	return s.repo.Get(ctx, id, userID)
}

// SetStatus updates the application status. All six values are
// reachable from any other; anything outside the set is rejected.
func (s *JobMatchService) SetStatus(ctx context.Context, id, userID int, status types.ApplicationStatus) (types.JobMatch, error) {
	if !status.Valid() {
		return types.JobMatch{}, ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, userID, status); err != nil {
		return types.JobMatch{}, err
	}
	return s.repo.Get(ctx, id, userID)
}

// ToggleSaved flips the saved flag and returns the new value.
func (s *JobMatchService) ToggleSaved(ctx context.Context, id, userID int) (bool, error) {
	return s.repo.ToggleSaved(ctx, id, userID)
}

// Hide hides a match from listings. There is no unhide.
func (s *JobMatchService) Hide(ctx context.Context, id, userID int) error {
	return s.repo.Hide(ctx, id, userID)
}
