package types

import "time"

// OverallFit is a qualitative bucket derived deterministically from a
// numeric match score.
type OverallFit string

const (
	FitExcellent OverallFit = "excellent"
	FitGood      OverallFit = "good"
	FitModerate  OverallFit = "moderate"
	FitLow       OverallFit = "low"
)

// FitFromScore maps a match score to its fit bucket:
// excellent >= 80, good >= 60, moderate >= 40, else low.
func FitFromScore(score int) OverallFit {
	switch {
	case score >= 80:
		return FitExcellent
	case score >= 60:
		return FitGood
	case score >= 40:
		return FitModerate
	default:
		return FitLow
	}
}

// ApplicationStatus tracks where a job match sits in the user's
// application process.
type ApplicationStatus string

const (
	StatusNotApplied   ApplicationStatus = "not_applied"
	StatusApplied      ApplicationStatus = "applied"
	StatusInterviewing ApplicationStatus = "interviewing"
	StatusOffered      ApplicationStatus = "offered"
	StatusRejected     ApplicationStatus = "rejected"
	StatusWithdrawn    ApplicationStatus = "withdrawn"
)

// Valid reports whether s is one of the six enumerated statuses.
// Any valid status is reachable from any other; no forward-only
// ordering is enforced.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusNotApplied, StatusApplied, StatusInterviewing,
		StatusOffered, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// JobMatch is one discovered job scored against a user's resume.
type JobMatch struct {
	// ID is the unique identifier of the match.
	ID int `json:"id" db:"id"`

	// UserID identifies the owning user.
	UserID int `json:"user_id" db:"user_id"`

	// ResumeID references the resume the score was computed against,
	// when known.
	ResumeID *int `json:"resume_id,omitempty" db:"resume_id"`

	// Job posting fields as returned by the search collaborator.
	Title       string `json:"title" db:"title"`
	Company     string `json:"company" db:"company"`
	Location    string `json:"location,omitempty" db:"location"`
	Description string `json:"description,omitempty" db:"description"`
	URL         string `json:"url,omitempty" db:"url"`
	Source      string `json:"source,omitempty" db:"source"`
	Salary      string `json:"salary,omitempty" db:"salary"`

	// PostedAt is the posting date reported by the source, if any.
	PostedAt *time.Time `json:"posted_at,omitempty" db:"posted_at"`

	// Requirements are structured requirement strings, if provided.
	Requirements []string `json:"requirements,omitempty" db:"requirements"`

	// MatchScore is the collaborator-assigned score, clamped to [0,100].
	MatchScore int `json:"match_score" db:"match_score"`

	// MatchReason is the free-text rationale for the score.
	MatchReason string `json:"match_reason,omitempty" db:"match_reason"`

	// Analysis is the structured breakdown behind the score.
	Analysis MatchAnalysis `json:"analysis" db:"analysis"`

	// OverallFit is derived from MatchScore via FitFromScore.
	OverallFit OverallFit `json:"overall_fit" db:"overall_fit"`

	// ApplicationStatus is the current application state.
	ApplicationStatus ApplicationStatus `json:"application_status" db:"application_status"`

	// Applied records whether the user has applied. AppliedAt is set
	// exactly once, on the first transition of Applied to true.
	Applied   bool       `json:"applied" db:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty" db:"applied_at"`

	// Notes are free-text notes attached when applying.
	Notes string `json:"notes,omitempty" db:"notes"`

	// Saved and Hidden are user-controlled flags. Hiding is one-way.
	Saved  bool `json:"saved" db:"saved"`
	Hidden bool `json:"hidden" db:"hidden"`

	// CreatedAt is the timestamp at which the match was persisted.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MatchAnalysis is the structured result of scoring a job against a
// skill list.
type MatchAnalysis struct {
	MatchingSkills []string `json:"matching_skills,omitempty"`
	MissingSkills  []string `json:"missing_skills,omitempty"`
	Strengths      []string `json:"strengths,omitempty"`
	Improvements   []string `json:"improvements,omitempty"`
}

// ClampScore bounds a collaborator-reported score to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
