// Package scraper fetches raw listings from remote-job platforms, runs them
// through AI extraction and validation, and ingests accepted jobs into the
// source store.
//
// Every listing moves through the pipeline stage machine:
//
//	FETCHED ──► EXTRACTED ──► VALIDATED ──► ACCEPTED ──► PERSISTED
//	    │            │             │
//	    └────────────┴─────────────┴──► REJECTED
//
// PERSISTED and REJECTED are terminal stages.
package scraper

// Stage is the position of a listing in the scrape pipeline.
type Stage string

const (
	StageFetched   Stage = "FETCHED"
	StageExtracted Stage = "EXTRACTED"
	StageValidated Stage = "VALIDATED"
	StageAccepted  Stage = "ACCEPTED"
	StagePersisted Stage = "PERSISTED"
	StageRejected  Stage = "REJECTED"
)

// validAdvances lists every allowed (from → to) pair.
var validAdvances = map[Stage][]Stage{
	StageFetched:   {StageExtracted, StageRejected},
	StageExtracted: {StageValidated, StageRejected},
	StageValidated: {StageAccepted, StageRejected},
	StageAccepted:  {StagePersisted},
	// PERSISTED and REJECTED are terminal — no outgoing advances
}

// IsAdvanceAllowed returns true when moving from → to is permitted by the
// stage machine.
func IsAdvanceAllowed(from, to Stage) bool {
	allowed, ok := validAdvances[from]
	if !ok {
		return false // terminal stage — no outgoing advances
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for stages a listing can never leave.
func IsTerminal(s Stage) bool {
	return s == StagePersisted || s == StageRejected
}
