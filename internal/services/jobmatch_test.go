package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resumatch/apiserver/internal/ai"
	"github.com/resumatch/apiserver/internal/jobsearch"
	"github.com/resumatch/apiserver/internal/store"
	"github.com/resumatch/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[int]types.User
}

func newFakeUserRepo(users ...types.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]types.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = len(r.users) + 1
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, user types.User) (types.User, error) {
	existing, ok := r.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	existing.Name = user.Name
	r.users[user.ID] = existing
	return existing, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) IncrementApplied(ctx context.Context, id int) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.Analytics.TotalJobsApplied++
	user.Analytics.LastUpdated = time.Now()
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) RecordDiscovery(ctx context.Context, id, discovered int, scoreSum float64, topStrengths, skillGaps []string) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	analytics := user.Analytics
	previous := analytics.TotalJobsDiscovered
	analytics.TotalJobsDiscovered = previous + discovered
	analytics.AverageMatchScore = (analytics.AverageMatchScore*float64(previous) + scoreSum) /
		float64(analytics.TotalJobsDiscovered)
	analytics.TopStrengths = topStrengths
	analytics.SkillGaps = skillGaps
	analytics.LastUpdated = time.Now()
	user.Analytics = analytics
	r.users[id] = user
	return nil
}

type fakeJobMatchRepo struct {
	nextID  int
	matches map[int]types.JobMatch
}

func newFakeJobMatchRepo() *fakeJobMatchRepo {
	return &fakeJobMatchRepo{nextID: 1, matches: make(map[int]types.JobMatch)}
}

func (r *fakeJobMatchRepo) CreateBatch(ctx context.Context, matches []types.JobMatch) ([]types.JobMatch, error) {
	out := make([]types.JobMatch, 0, len(matches))
	for _, match := range matches {
		match.ID = r.nextID
		r.nextID++
		r.matches[match.ID] = match
		out = append(out, match)
	}
	return out, nil
}

func (r *fakeJobMatchRepo) Get(ctx context.Context, id, userID int) (types.JobMatch, error) {
	match, ok := r.matches[id]
	if !ok || match.UserID != userID {
		return types.JobMatch{}, store.ErrNotFound
	}
	return match, nil
}

func (r *fakeJobMatchRepo) List(ctx context.Context, userID int, filter store.JobMatchFilter, offset, limit int) ([]types.JobMatch, int, error) {
	var out []types.JobMatch
	for _, match := range r.matches {
		if match.UserID != userID {
			continue
		}
		if match.Hidden && !filter.IncludeHidden {
			continue
		}
		if filter.SavedOnly && !match.Saved {
			continue
		}
		if filter.Status != "" && match.ApplicationStatus != filter.Status {
			continue
		}
		out = append(out, match)
	}
	return out, len(out), nil
}

func (r *fakeJobMatchRepo) MarkApplied(ctx context.Context, id, userID int, notes string) (bool, error) {
	match, ok := r.matches[id]
	if !ok || match.UserID != userID {
		return false, store.ErrNotFound
	}
	if match.Applied {
		return false, nil
	}
	now := time.Now()
	match.Applied = true
	match.AppliedAt = &now
	if match.ApplicationStatus == types.StatusNotApplied {
		match.ApplicationStatus = types.StatusApplied
	}
	if notes != "" {
		match.Notes = notes
	}
	r.matches[id] = match
	return true, nil
}

func (r *fakeJobMatchRepo) UpdateStatus(ctx context.Context, id, userID int, status types.ApplicationStatus) error {
	match, ok := r.matches[id]
	if !ok || match.UserID != userID {
		return store.ErrNotFound
	}
	match.ApplicationStatus = status
	r.matches[id] = match
	return nil
}

func (r *fakeJobMatchRepo) ToggleSaved(ctx context.Context, id, userID int) (bool, error) {
	match, ok := r.matches[id]
	if !ok || match.UserID != userID {
		return false, store.ErrNotFound
	}
	match.Saved = !match.Saved
	r.matches[id] = match
	return match.Saved, nil
}

func (r *fakeJobMatchRepo) Hide(ctx context.Context, id, userID int) error {
	match, ok := r.matches[id]
	if !ok || match.UserID != userID {
		return store.ErrNotFound
	}
	match.Hidden = true
	r.matches[id] = match
	return nil
}

type fakeSearcher struct {
	postings []jobsearch.Posting
	err      error
}

func (f *fakeSearcher) Search(ctx context.Context, skills []string, location string) ([]jobsearch.Posting, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.postings, nil
}

type fakeScorer struct {
	scores map[string]ai.JobScore
	err    error
}

func (f *fakeScorer) ScoreJob(ctx context.Context, title, description string, skills []string) (ai.JobScore, error) {
	if f.err != nil {
		return ai.JobScore{}, f.err
	}
	return f.scores[title], nil
}

func newTestJobMatchService(t *testing.T, searcher *fakeSearcher, scorer *fakeScorer) (*JobMatchService, *fakeJobMatchRepo, *fakeUserRepo, *fakeResumeRepo) {
	t.Helper()

	users := newFakeUserRepo(types.User{ID: 1, Email: "dev@example.com"})
	resumes := newFakeResumeRepo()
	_, err := resumes.CreateActive(context.Background(), types.Resume{
		UserID:     1,
		Structured: types.StructuredResume{Skills: []string{"go", "postgres"}},
	})
	require.NoError(t, err)

	repo := newFakeJobMatchRepo()
	return NewJobMatchService(repo, users, resumes, searcher, scorer), repo, users, resumes
}

func TestDiscoverScoresAndRanks(t *testing.T) {
	searcher := &fakeSearcher{postings: []jobsearch.Posting{
		{Title: "Junior Analyst", Company: "Acme", Description: "spreadsheets"},
		{Title: "Backend Engineer", Company: "Initech", Description: "go services"},
	}}
	scorer := &fakeScorer{scores: map[string]ai.JobScore{
		"Junior Analyst":   {Score: 35, Reason: "little overlap", MissingSkills: []string{"excel"}},
		"Backend Engineer": {Score: 90, Reason: "strong overlap", MatchingSkills: []string{"go"}},
	}}
	svc, _, users, _ := newTestJobMatchService(t, searcher, scorer)

	matches, err := svc.Discover(context.Background(), 1, "remote", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "Backend Engineer", matches[0].Title)
	assert.Equal(t, types.FitExcellent, matches[0].OverallFit)
	assert.Equal(t, "Junior Analyst", matches[1].Title)
	assert.Equal(t, types.FitLow, matches[1].OverallFit)
	assert.Equal(t, types.StatusNotApplied, matches[0].ApplicationStatus)

	user, err := users.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, user.Analytics.TotalJobsDiscovered)
	assert.InDelta(t, 62.5, user.Analytics.AverageMatchScore, 1e-9)
	assert.Equal(t, []string{"go"}, user.Analytics.TopStrengths)
	assert.Equal(t, []string{"excel"}, user.Analytics.SkillGaps)
}

func TestDiscoverScoringFailureKeepsPosting(t *testing.T) {
	searcher := &fakeSearcher{postings: []jobsearch.Posting{
		{Title: "Backend Engineer", Company: "Initech"},
	}}
	scorer := &fakeScorer{err: errors.New("model unavailable")}
	svc, _, _, _ := newTestJobMatchService(t, searcher, scorer)

	matches, err := svc.Discover(context.Background(), 1, "", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].MatchScore)
	assert.Equal(t, types.FitLow, matches[0].OverallFit)
}

func TestDiscoverNoActiveResume(t *testing.T) {
	svc := NewJobMatchService(newFakeJobMatchRepo(), newFakeUserRepo(types.User{ID: 1}), newFakeResumeRepo(), &fakeSearcher{}, &fakeScorer{})

	_, err := svc.Discover(context.Background(), 1, "", 0)
	assert.ErrorIs(t, err, ErrNoActiveResume)
}

func TestDiscoverEmptySearchResult(t *testing.T) {
	svc, _, users, _ := newTestJobMatchService(t, &fakeSearcher{}, &fakeScorer{})

	matches, err := svc.Discover(context.Background(), 1, "", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)

	user, err := users.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, user.Analytics.TotalJobsDiscovered)
}

func TestDiscoverHonorsLimit(t *testing.T) {
	postings := make([]jobsearch.Posting, 0, 15)
	scores := make(map[string]ai.JobScore, 15)
	for i := 0; i < 15; i++ {
		title := "Role " + string(rune('A'+i))
		postings = append(postings, jobsearch.Posting{Title: title, Company: "Acme"})
		scores[title] = ai.JobScore{Score: 50 + i}
	}
	svc, _, _, _ := newTestJobMatchService(t, &fakeSearcher{postings: postings}, &fakeScorer{scores: scores})

	matches, err := svc.Discover(context.Background(), 1, "", 0)
	require.NoError(t, err)
	require.Len(t, matches, 10)
	assert.Equal(t, 64, matches[0].MatchScore)
}

func TestMarkAppliedIsIdempotent(t *testing.T) {
	svc, repo, users, _ := newTestJobMatchService(t, &fakeSearcher{}, &fakeScorer{})
	created, err := repo.CreateBatch(context.Background(), []types.JobMatch{
		{UserID: 1, Title: "Backend Engineer", ApplicationStatus: types.StatusNotApplied},
	})
	require.NoError(t, err)
	id := created[0].ID

	first, err := svc.MarkApplied(context.Background(), id, 1, "applied via referral")
	require.NoError(t, err)
	require.True(t, first.Applied)
	require.NotNil(t, first.AppliedAt)
	assert.Equal(t, types.StatusApplied, first.ApplicationStatus)

	user, err := users.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, user.Analytics.TotalJobsApplied)

	second, err := svc.MarkApplied(context.Background(), id, 1, "again")
	require.NoError(t, err)
	assert.Equal(t, first.AppliedAt, second.AppliedAt)
	assert.Equal(t, "applied via referral", second.Notes)

	user, err = users.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, user.Analytics.TotalJobsApplied, "repeat apply must not double count")
}

func TestMarkAppliedKeepsAdvancedStatus(t *testing.T) {
	svc, repo, _, _ := newTestJobMatchService(t, &fakeSearcher{}, &fakeScorer{})
	created, err := repo.CreateBatch(context.Background(), []types.JobMatch{
		{UserID: 1, Title: "Backend Engineer", ApplicationStatus: types.StatusNotApplied},
	})
	require.NoError(t, err)
	id := created[0].ID

	_, err = svc.SetStatus(context.Background(), id, 1, types.StatusInterviewing)
	require.NoError(t, err)

	applied, err := svc.MarkApplied(context.Background(), id, 1, "")
	require.NoError(t, err)
	assert.True(t, applied.Applied)
	require.NotNil(t, applied.AppliedAt)
	assert.Equal(t, types.StatusInterviewing, applied.ApplicationStatus,
		"marking applied must not regress a further-along status")
}

func TestAppliedCounterCountsEachMatchOnce(t *testing.T) {
	svc, repo, users, _ := newTestJobMatchService(t, &fakeSearcher{}, &fakeScorer{})
	created, err := repo.CreateBatch(context.Background(), []types.JobMatch{
		{UserID: 1, Title: "Backend Engineer", ApplicationStatus: types.StatusNotApplied},
		{UserID: 1, Title: "Platform Engineer", ApplicationStatus: types.StatusNotApplied},
	})
	require.NoError(t, err)

	for _, match := range created {
		_, err := svc.MarkApplied(context.Background(), match.ID, 1, "")
		require.NoError(t, err)
	}

	user, err := users.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, user.Analytics.TotalJobsApplied)
}

func TestDiscoverAccumulatesRunningAverage(t *testing.T) {
	searcher := &fakeSearcher{postings: []jobsearch.Posting{
		{Title: "Backend Engineer", Company: "Initech"},
		{Title: "Junior Analyst", Company: "Acme"},
	}}
	scorer := &fakeScorer{scores: map[string]ai.JobScore{
		"Backend Engineer": {Score: 90},
		"Junior Analyst":   {Score: 35},
		"SRE":              {Score: 55},
	}}
	svc, _, users, _ := newTestJobMatchService(t, searcher, scorer)

	_, err := svc.Discover(context.Background(), 1, "", 0)
	require.NoError(t, err)

	searcher.postings = []jobsearch.Posting{{Title: "SRE", Company: "Initech"}}
	_, err = svc.Discover(context.Background(), 1, "", 0)
	require.NoError(t, err)

	user, err := users.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, user.Analytics.TotalJobsDiscovered)
	assert.InDelta(t, 60.0, user.Analytics.AverageMatchScore, 1e-9)
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	svc, repo, _, _ := newTestJobMatchService(t, &fakeSearcher{}, &fakeScorer{})
	created, err := repo.CreateBatch(context.Background(), []types.JobMatch{
		{UserID: 1, Title: "Backend Engineer", ApplicationStatus: types.StatusNotApplied},
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), created[0].ID, 1, types.ApplicationStatus("maybe"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	updated, err := svc.SetStatus(context.Background(), created[0].ID, 1, types.StatusInterviewing)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInterviewing, updated.ApplicationStatus)
}

func TestToggleSavedAndHide(t *testing.T) {
	svc, repo, _, _ := newTestJobMatchService(t, &fakeSearcher{}, &fakeScorer{})
	created, err := repo.CreateBatch(context.Background(), []types.JobMatch{
		{UserID: 1, Title: "Backend Engineer"},
	})
	require.NoError(t, err)
	id := created[0].ID

	saved, err := svc.ToggleSaved(context.Background(), id, 1)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = svc.ToggleSaved(context.Background(), id, 1)
	require.NoError(t, err)
	assert.False(t, saved)

	require.NoError(t, svc.Hide(context.Background(), id, 1))
	items, total, err := svc.List(context.Background(), 1, store.JobMatchFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)

	items, _, err = svc.List(context.Background(), 1, store.JobMatchFilter{IncludeHidden: true}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestParsePostedAt(t *testing.T) {
	assert.Nil(t, parsePostedAt(""))
	assert.Nil(t, parsePostedAt("next tuesday"))

	parsed := parsePostedAt("2026-08-01")
	require.NotNil(t, parsed)
	assert.Equal(t, 2026, parsed.Year())

	parsed = parsePostedAt("2026-08-01T12:30:00Z")
	require.NotNil(t, parsed)
	assert.Equal(t, 12, parsed.Hour())
}
