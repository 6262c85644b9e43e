package types

import (
	"math"
	"time"
)

// PrepStatus is the lifecycle state of an interview prep record.
type PrepStatus string

const (
	// PrepDraft is the initial state, and the state a prep reverts to
	// when question generation fails.
	PrepDraft PrepStatus = "draft"

	// PrepGenerating means a generation request is in flight.
	PrepGenerating PrepStatus = "generating"

	// PrepGenerated means questions exist but none have been practiced.
	PrepGenerated PrepStatus = "generated"

	// PrepInProgress means at least one question has been practiced.
	PrepInProgress PrepStatus = "in_progress"

	// PrepCompleted means every question has been practiced.
	PrepCompleted PrepStatus = "completed"
)

// Question types and difficulties accepted from the generation collaborator.
const (
	QuestionTechnical    = "technical"
	QuestionBehavioral   = "behavioral"
	QuestionSystemDesign = "system design"
	QuestionSituational  = "situational"
	QuestionCoding       = "coding"

	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question is one generated interview question with its practice state.
type Question struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Type        string   `json:"type"`
	Difficulty  string   `json:"difficulty"`
	Topic       string   `json:"topic,omitempty"`
	ModelAnswer string   `json:"model_answer,omitempty"`
	Hints       []string `json:"hints,omitempty"`
	KeyPoints   []string `json:"key_points,omitempty"`
	FollowUps   []string `json:"follow_ups,omitempty"`

	// Per-question practice state.
	Practiced       bool   `json:"practiced"`
	PracticeCount   int    `json:"practice_count"`
	ConfidenceLevel int    `json:"confidence_level,omitempty"`
	UserNotes       string `json:"user_notes,omitempty"`
}

// QuestionStats counts questions by type and difficulty. It is a pure
// projection of the question list and is recomputed on every mutation.
type QuestionStats struct {
	Total        int `json:"total"`
	Technical    int `json:"technical"`
	Behavioral   int `json:"behavioral"`
	SystemDesign int `json:"system_design"`
	Situational  int `json:"situational"`
	Coding       int `json:"coding"`
	Easy         int `json:"easy"`
	Medium       int `json:"medium"`
	Hard         int `json:"hard"`
}

// PrepProgress is the derived practice progress over a prep's questions
// and sessions. QuestionsCompleted, TotalQuestions and PercentComplete are
// projections of the question list; AverageConfidence is the mean of
// AverageConfidence over all recorded practice sessions.
type PrepProgress struct {
	QuestionsCompleted   int        `json:"questions_completed"`
	TotalQuestions       int        `json:"total_questions"`
	PercentComplete      int        `json:"percent_complete"`
	LastPracticedAt      *time.Time `json:"last_practiced_at,omitempty"`
	TotalPracticeMinutes int        `json:"total_practice_minutes"`
	AverageConfidence    float64    `json:"average_confidence"`
}

// PracticeSession is a discrete, timestamped practice record.
type PracticeSession struct {
	Date               time.Time `json:"date"`
	QuestionsAttempted int       `json:"questions_attempted"`
	DurationMinutes    int       `json:"duration_minutes"`
	AverageConfidence  float64   `json:"average_confidence"`
	Notes              string    `json:"notes,omitempty"`
}

// InterviewPrep is one interview preparation request and its question bank.
type InterviewPrep struct {
	// ID is the unique identifier of the prep.
	ID int `json:"id" db:"id"`

	// UserID identifies the owning user.
	UserID int `json:"user_id" db:"user_id"`

	// JobMatchID references the job match this prep targets, when known.
	JobMatchID *int `json:"job_match_id,omitempty" db:"job_match_id"`

	// Target role parameters supplied at generation time.
	Company         string   `json:"company" db:"company"`
	Role            string   `json:"role" db:"role"`
	Technologies    []string `json:"technologies,omitempty" db:"technologies"`
	ExperienceLevel string   `json:"experience_level,omitempty" db:"experience_level"`

	// CompanyResearch is collaborator-produced background on the company.
	CompanyResearch string `json:"company_research,omitempty" db:"company_research"`

	// Questions is the generated question bank with practice state.
	Questions []Question `json:"questions" db:"questions"`

	// Stats and Progress are derived projections of Questions and
	// Sessions. They are never independently authoritative.
	Stats    QuestionStats `json:"question_stats" db:"question_stats"`
	Progress PrepProgress  `json:"progress" db:"progress"`

	// Sessions are the recorded practice sessions.
	Sessions []PracticeSession `json:"practice_sessions" db:"practice_sessions"`

	// Status is the lifecycle state, derived on every mutation via
	// DeriveStatus.
	Status PrepStatus `json:"status" db:"status"`

	// CompletedAt is stamped when Status first reaches completed.
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// CreatedAt is the timestamp at which the prep was requested.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ComputeQuestionStats counts questions by type and difficulty.
func ComputeQuestionStats(questions []Question) QuestionStats {
	stats := QuestionStats{Total: len(questions)}
	for _, q := range questions {
		switch q.Type {
		case QuestionTechnical:
			stats.Technical++
		case QuestionBehavioral:
			stats.Behavioral++
		case QuestionSystemDesign:
			stats.SystemDesign++
		case QuestionSituational:
			stats.Situational++
		case QuestionCoding:
			stats.Coding++
		}
		switch q.Difficulty {
		case DifficultyEasy:
			stats.Easy++
		case DifficultyMedium:
			stats.Medium++
		case DifficultyHard:
			stats.Hard++
		}
	}
	return stats
}

// CompletionProgress returns the practiced count, total and completion
// percentage for a question list. Percent is 0 when the list is empty.
func CompletionProgress(questions []Question) (completed, total, percent int) {
	total = len(questions)
	for _, q := range questions {
		if q.Practiced {
			completed++
		}
	}
	if total > 0 {
		percent = int(math.Round(100 * float64(completed) / float64(total)))
	}
	return completed, total, percent
}

// DeriveStatus advances a prep's status from its completion percentage.
// Completion always wins; any practice moves a freshly generated prep to
// in_progress. Draft and generating states are untouched by practice-less
// recomputation, and a completed prep never regresses.
func DeriveStatus(current PrepStatus, percentComplete int, hasPractice bool) PrepStatus {
	if current == PrepCompleted {
		return PrepCompleted
	}
	if percentComplete >= 100 {
		return PrepCompleted
	}
	if current == PrepGenerated && (hasPractice || percentComplete > 0) {
		return PrepInProgress
	}
	return current
}

// AverageSessionConfidence is the arithmetic mean of AverageConfidence
// across all recorded sessions. It is recomputed in full on every append
// to avoid incremental drift.
func AverageSessionConfidence(sessions []PracticeSession) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sessions {
		sum += s.AverageConfidence
	}
	return sum / float64(len(sessions))
}
