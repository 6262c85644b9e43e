package types

import "time"

// User represents a registered account.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the unique login email, stored lowercase.
	Email string `json:"email" db:"email"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// PasswordHash is the bcrypt hash of the user's password.
	// It is never serialized in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Phone is an optional contact number.
	Phone string `json:"phone,omitempty" db:"phone"`

	// Location is an optional free-form location string.
	Location string `json:"location,omitempty" db:"location"`

	// LinkedIn, GitHub and Website are optional profile links.
	LinkedIn string `json:"linkedin,omitempty" db:"linkedin"`
	GitHub   string `json:"github,omitempty" db:"github"`
	Website  string `json:"website,omitempty" db:"website"`

	// ActiveResumeID references the user's currently active resume,
	// if one has been uploaded. At most one resume is active per user.
	ActiveResumeID *int `json:"active_resume_id,omitempty" db:"active_resume_id"`

	// Analytics is a denormalized aggregate over the user's job matches,
	// updated by job-discovery and apply actions.
	Analytics UserAnalytics `json:"analytics" db:"analytics"`

	// IsActive is a soft-delete flag. There is no hard-delete path.
	IsActive bool `json:"is_active" db:"is_active"`

	// CreatedAt is the timestamp at which the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserAnalytics holds denormalized counters and summaries derived from the
// user's job matches. The counters are bumped in single-statement updates
// gated by the job-match row transitions, so concurrent discoveries or
// applies on different matches do not lose increments and repeated apply
// calls on the same match do not double count.
type UserAnalytics struct {
	// TotalJobsDiscovered counts job matches ever persisted for the user.
	TotalJobsDiscovered int `json:"total_jobs_discovered"`

	// TotalJobsApplied counts matches the user has marked applied.
	TotalJobsApplied int `json:"total_jobs_applied"`

	// AverageMatchScore is the mean match score across discovered jobs.
	AverageMatchScore float64 `json:"average_match_score"`

	// TopStrengths are the most frequently matching skills across matches.
	TopStrengths []string `json:"top_strengths,omitempty"`

	// SkillGaps are the most frequently missing skills across matches.
	SkillGaps []string `json:"skill_gaps,omitempty"`

	// LastUpdated is when the aggregate was last recomputed.
	LastUpdated time.Time `json:"last_updated"`
}
