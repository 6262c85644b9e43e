package types

import "time"

// Resume represents one uploaded resume and its structured extraction.
// Exactly one resume per user carries IsActive=true at any time; uploading
// a new resume deactivates all previous ones for that user.
type Resume struct {
	// ID is the unique identifier of the resume.
	ID int `json:"id" db:"id"`

	// UserID identifies the owning user.
	UserID int `json:"user_id" db:"user_id"`

	// ObjectKey is the key of the original file in object storage.
	ObjectKey string `json:"object_key" db:"object_key"`

	// FileName is the original upload filename.
	FileName string `json:"file_name" db:"file_name"`

	// ContentType is the MIME type of the original file.
	ContentType string `json:"content_type" db:"content_type"`

	// RawText is the plain text extracted from the original file.
	RawText string `json:"raw_text" db:"raw_text"`

	// Structured is the AI-structured payload parsed from RawText.
	// It is the single source of truth for the denormalized copies below.
	Structured StructuredResume `json:"structured" db:"structured"`

	// Skills, Experience and Education are denormalized copies of the
	// corresponding Structured fields, kept for query convenience.
	// They are always written together with Structured from the same
	// source object and must never be set independently.
	Skills     []string          `json:"skills" db:"skills"`
	Experience []ExperienceEntry `json:"experience" db:"experience"`
	Education  []EducationEntry  `json:"education" db:"education"`

	// ParseMeta records how the structured payload was produced.
	ParseMeta ParseMetadata `json:"parse_meta" db:"parse_meta"`

	// IsActive marks the user's current authoritative resume.
	IsActive bool `json:"is_active" db:"is_active"`

	// CreatedAt is the timestamp at which the resume was uploaded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// StructuredResume is the structured payload extracted from resume text.
type StructuredResume struct {
	Name           string            `json:"name,omitempty"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Location       string            `json:"location,omitempty"`
	Summary        string            `json:"summary,omitempty"`
	Skills         []string          `json:"skills,omitempty"`
	Experience     []ExperienceEntry `json:"experience,omitempty"`
	Education      []EducationEntry  `json:"education,omitempty"`
	Projects       []Project         `json:"projects,omitempty"`
	Certifications []string          `json:"certifications,omitempty"`
	Languages      []string          `json:"languages,omitempty"`
}

// ExperienceEntry is one role in the work history.
type ExperienceEntry struct {
	Title       string   `json:"title,omitempty"`
	Company     string   `json:"company,omitempty"`
	Location    string   `json:"location,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
}

// EducationEntry is one degree or program.
type EducationEntry struct {
	Institution string `json:"institution,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartYear   string `json:"start_year,omitempty"`
	EndYear     string `json:"end_year,omitempty"`
}

// Project is one personal or professional project.
type Project struct {
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// ParseMetadata records provenance of the structured payload.
type ParseMetadata struct {
	// Model is the name of the model that produced the payload, or
	// "fallback" when the regex extractor substituted for it.
	Model string `json:"model,omitempty"`

	// Confidence is the parser's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence,omitempty"`

	// Version is the schema version of the structured payload.
	Version int `json:"version,omitempty"`
}
