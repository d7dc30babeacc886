// Package ai wraps the LLM used to extract structured job data from raw
// listings and to validate that a listing is a genuine remote job.
package ai

import (
	"context"
	"errors"
	"time"
)

// ErrMalformedResponse marks an LLM reply that could not be parsed into the
// expected structure. Callers treat it as a rejection of the listing, never
// as a pipeline failure.
var ErrMalformedResponse = errors.New("malformed model response")

// RawListing is a job posting exactly as a platform returned it, before any
// AI processing.
type RawListing struct {
	Platform    string
	URL         string
	Title       string
	Company     string
	Location    string
	Description string
	SalaryText  string
	Tags        []string
	PostedAt    *time.Time
}

// SkillsBreakdown is the model's read of the skills a posting asks for.
type SkillsBreakdown struct {
	TechnicalSkills []string `json:"technical_skills"`
	ExperienceLevel string   `json:"experience_level"`
	Summary         string   `json:"summary"`
}

// Extraction is the structured form of a listing produced by the model.
type Extraction struct {
	Title          string          `json:"title"`
	Company        string          `json:"company"`
	JobType        string          `json:"job_type"`
	Location       string          `json:"location"`
	URL            string          `json:"url"`
	Description    string          `json:"description"`
	Salary         string          `json:"salary"`
	Tags           []string        `json:"tags"`
	SkillsAnalysis SkillsBreakdown `json:"skills_analysis"`
}

// Validation is the model's verdict on an extracted listing.
type Validation struct {
	IsValid         bool     `json:"is_valid"`
	RemoteType      string   `json:"remote_type"`
	JobTypeCategory string   `json:"job_type_category"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	RedFlags        []string `json:"red_flags"`
}

// Client is the LLM surface the scrape pipeline depends on.
type Client interface {
	// ExtractJob turns a raw listing into structured job data.
	ExtractJob(ctx context.Context, listing RawListing) (*Extraction, error)

	// ValidateJob judges whether an extracted listing is a legitimate remote
	// job posting.
	ValidateJob(ctx context.Context, extraction *Extraction) (*Validation, error)
}
