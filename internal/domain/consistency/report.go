package consistency

import (
	"fmt"

	"github.com/google/uuid"
)

// Recommendation classifies the severity of a consistency finding
type Recommendation string

const (
	// RecommendationOK means derived data matches the content record
	RecommendationOK Recommendation = "OK"

	// RecommendationWarning means orphaned vectors exist (wasted storage,
	// stale data) but questions can still be answered
	RecommendationWarning Recommendation = "WARNING"

	// RecommendationCritical means vectors are missing and the content
	// cannot answer questions correctly
	RecommendationCritical Recommendation = "CRITICAL"
)

// Report is the result of auditing one content item against the vector
// store. Reports are ephemeral: recomputed on every check, never persisted.
type Report struct {
	ContentID           uuid.UUID      `json:"content_id"`
	ExpectedVectorCount int            `json:"expected_vector_count"`
	ActualVectorCount   int            `json:"actual_vector_count"`
	Missing             int            `json:"missing"`
	Orphaned            int            `json:"orphaned"`
	Recommendation      Recommendation `json:"recommendation"`
	Error               string         `json:"error,omitempty"` // set when the audit itself failed
}

// CleanupResult is the outcome of an orphan cleanup batch.
// Success means every requested ID was handled without error; a partial
// failure still returns a result with the per-item errors embedded.
type CleanupResult struct {
	Success      bool     `json:"success"`
	CleanedCount int      `json:"cleaned_count"`
	Errors       []string `json:"errors"`
}

// ScanSummary is the health score derived from one reconciliation pass
type ScanSummary struct {
	Scanned         int    `json:"scanned"`
	Inconsistent    int    `json:"inconsistent"`
	CriticalIssues  int    `json:"critical_issues"`
	Warnings        int    `json:"warnings"`
	ConsistencyRate string `json:"consistency_rate"`
}

// Summarize derives the health score for a sample of scanned items given the
// non-OK reports found among them.
func Summarize(scanned int, reports []*Report) ScanSummary {
	summary := ScanSummary{
		Scanned:      scanned,
		Inconsistent: len(reports),
	}

	for _, r := range reports {
		switch r.Recommendation {
		case RecommendationCritical:
			summary.CriticalIssues++
		case RecommendationWarning:
			summary.Warnings++
		}
	}

	rate := 1.0
	if scanned > 0 {
		rate = float64(scanned-len(reports)) / float64(scanned)
	}
	summary.ConsistencyRate = fmt.Sprintf("%.2f%%", rate*100)

	return summary
}
