// Package model defines the shared data structures for the aggregation platform.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// JobRecord is the canonical job row in the source store (SQLite `jobs` table).
// source_url is the natural key across every store.
type JobRecord struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Company         string     `json:"company"`
	Location        string     `json:"location"`
	SalaryMin       *float64   `json:"salary_min,omitempty"`
	SalaryMax       *float64   `json:"salary_max,omitempty"`
	SalaryCurrency  string     `json:"salary_currency"`
	SalaryPeriod    string     `json:"salary_period"`
	Description     string     `json:"description"`
	Requirements    string     `json:"requirements,omitempty"`
	Benefits        string     `json:"benefits,omitempty"`
	JobType         string     `json:"job_type,omitempty"`
	ExperienceLevel string     `json:"experience_level,omitempty"`
	RemoteType      string     `json:"remote_type"`
	SourceURL       string     `json:"source_url"`
	SourcePlatform  string     `json:"source_platform"`
	PostedDate      *time.Time `json:"posted_date,omitempty"`
	Skills          []string   `json:"skills,omitempty"`
	AISummary       string     `json:"ai_generated_summary,omitempty"`
	AIProcessed     bool       `json:"ai_processed"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// JobDocument is the denormalised mirror of a JobRecord in the secondary store.
// Owned exclusively by the sync engine; the API only reads it.
type JobDocument struct {
	Title           string            `bson:"title" json:"title"`
	Company         string            `bson:"company" json:"company"`
	Location        string            `bson:"location,omitempty" json:"location,omitempty"`
	SalaryMin       *float64          `bson:"salary_min,omitempty" json:"salary_min,omitempty"`
	SalaryMax       *float64          `bson:"salary_max,omitempty" json:"salary_max,omitempty"`
	SalaryCurrency  string            `bson:"salary_currency" json:"salary_currency"`
	SalaryPeriod    string            `bson:"salary_period" json:"salary_period"`
	Description     string            `bson:"description,omitempty" json:"description,omitempty"`
	Requirements    string            `bson:"requirements,omitempty" json:"requirements,omitempty"`
	Benefits        string            `bson:"benefits,omitempty" json:"benefits,omitempty"`
	JobType         string            `bson:"job_type,omitempty" json:"job_type,omitempty"`
	ExperienceLevel string            `bson:"experience_level,omitempty" json:"experience_level,omitempty"`
	RemoteType      string            `bson:"remote_type" json:"remote_type"`
	SourceURL       string            `bson:"source_url" json:"source_url"`
	SourcePlatform  string            `bson:"source_platform" json:"source_platform"`
	PostedDate      *time.Time        `bson:"posted_date,omitempty" json:"posted_date,omitempty"`
	Skills          []string          `bson:"skills_required,omitempty" json:"skills_required,omitempty"`
	AISummary       string            `bson:"ai_generated_summary,omitempty" json:"ai_generated_summary,omitempty"`
	AIProcessed     bool              `bson:"ai_processed" json:"ai_processed"`
	IsActive        bool              `bson:"is_active" json:"is_active"`
	CreatedAt       time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `bson:"updated_at" json:"updated_at"`
	Tags            []string          `bson:"tags,omitempty" json:"tags,omitempty"`
	Metadata        map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// SnapshotDoc is one denormalised per-job snapshot row in the secondary store,
// kept for point lookups alongside the compressed lake snapshot.
type SnapshotDoc struct {
	JobID        string            `bson:"job_id" json:"job_id"` // source_url of the job
	SnapshotDate time.Time         `bson:"snapshot_date" json:"snapshot_date"`
	JobData      JobDocument       `bson:"job_data" json:"job_data"`
	Metrics      map[string]string `bson:"metrics,omitempty" json:"metrics,omitempty"`
}

// AnalyticsDoc holds one logical metric per (date, metric_type) pair in the
// secondary store. Regeneration overwrites rather than appends.
type AnalyticsDoc struct {
	Date       time.Time `bson:"date" json:"date"`
	MetricType string    `bson:"metric_type" json:"metric_type"`
	Data       Metrics   `bson:"data" json:"data"`
}

// SnapshotEnvelope is the header + payload written to the cold store as one
// compressed blob. Never mutated after write.
type SnapshotEnvelope struct {
	SnapshotDate string          `json:"snapshot_date"`
	CreatedAt    time.Time       `json:"created_at"`
	DataType     string          `json:"data_type"`
	RecordCount  int             `json:"record_count"`
	Data         json.RawMessage `json:"data"`
}

// AnalyticsEnvelope is the uncompressed analytics blob in the cold store.
type AnalyticsEnvelope struct {
	MetricType string          `json:"metric_type"`
	Date       string          `json:"date"`
	CreatedAt  time.Time       `json:"created_at"`
	Data       json.RawMessage `json:"data"`
}

// ── Analytics metric shapes ────────────────────────────────────────────────

// Metrics bundles all daily aggregate metrics over the active-job set.
type Metrics struct {
	TotalJobs        int              `bson:"total_jobs" json:"total_jobs"`
	SalaryStats      SalaryStats      `bson:"salary_stats" json:"salary_stats"`
	ExperienceLevels map[string]int   `bson:"experience_level_distribution" json:"experience_level_distribution"`
	CompanyStats     CompanyStats     `bson:"company_stats" json:"company_stats"`
	SkillsAnalysis   SkillsAnalysis   `bson:"skills_analysis" json:"skills_analysis"`
	RemoteIndicators RemoteIndicators `bson:"remote_work_indicators" json:"remote_work_indicators"`
	AIStats          AIStats          `bson:"ai_processing_stats" json:"ai_processing_stats"`
}

type SalaryStats struct {
	Count   int     `bson:"count" json:"count"`
	Average float64 `bson:"average" json:"average"`
	Median  float64 `bson:"median" json:"median"`
	Min     float64 `bson:"min" json:"min"`
	Max     float64 `bson:"max" json:"max"`
}

type CompanyCount struct {
	Company string `bson:"company" json:"company"`
	Count   int    `bson:"count" json:"count"`
}

type CompanyStats struct {
	TotalCompanies int            `bson:"total_companies" json:"total_companies"`
	TopCompanies   []CompanyCount `bson:"top_companies" json:"top_companies"`
}

type SkillStat struct {
	Skill         string  `bson:"skill" json:"skill"`
	Count         int     `bson:"count" json:"count"`
	AverageSalary float64 `bson:"average_salary" json:"average_salary"`
}

type SkillsAnalysis struct {
	TotalUniqueSkills int         `bson:"total_unique_skills" json:"total_unique_skills"`
	MostDemanded      []SkillStat `bson:"most_demanded_skills" json:"most_demanded_skills"`
}

type RemoteIndicators struct {
	ExplicitlyRemote  int `bson:"explicitly_remote" json:"explicitly_remote"`
	HasRemoteKeywords int `bson:"has_remote_keywords" json:"has_remote_keywords"`
	LocationAgnostic  int `bson:"location_agnostic" json:"location_agnostic"`
}

type AIStats struct {
	TotalJobs      int     `bson:"total_jobs" json:"total_jobs"`
	AIProcessed    int     `bson:"ai_processed" json:"ai_processed"`
	ProcessingRate float64 `bson:"ai_processing_rate" json:"ai_processing_rate"`
}

// maxSkillTags caps how many skills contribute categorisation tags.
const maxSkillTags = 5

// DeriveTags computes the categorical labels stored on a JobDocument:
// level_<experience>, type_<job type>, skill_<skill> for the first five skills,
// and ai_verified when the record passed AI processing.
func DeriveTags(rec JobRecord) []string {
	var tags []string

	if rec.ExperienceLevel != "" {
		tags = append(tags, "level_"+rec.ExperienceLevel)
	}
	if rec.JobType != "" {
		tags = append(tags, "type_"+rec.JobType)
	}
	for i, skill := range rec.Skills {
		if i == maxSkillTags {
			break
		}
		normalized := strings.ReplaceAll(strings.ToLower(skill), " ", "_")
		tags = append(tags, "skill_"+normalized)
	}
	if rec.AIProcessed {
		tags = append(tags, "ai_verified")
	}

	return tags
}

// EffectiveSalary returns the single value a record contributes to salary
// aggregates: the midpoint when both bounds are set, otherwise the one bound
// that is set. ok is false when the record carries no salary at all.
func (r JobRecord) EffectiveSalary() (float64, bool) {
	return effectiveSalary(r.SalaryMin, r.SalaryMax)
}

// EffectiveSalary is the JobDocument counterpart of JobRecord.EffectiveSalary.
func (d JobDocument) EffectiveSalary() (float64, bool) {
	return effectiveSalary(d.SalaryMin, d.SalaryMax)
}

func effectiveSalary(min, max *float64) (float64, bool) {
	switch {
	case min != nil && max != nil:
		return (*min + *max) / 2, true
	case min != nil:
		return *min, true
	case max != nil:
		return *max, true
	}
	return 0, false
}
