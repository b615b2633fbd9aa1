package analyzer

import (
	"time"

	"github.com/replicatedhq/testlog-analyzer/pkg/analyze/remediation"
)

// AnalysisResult is the outcome of one analysis run. Summary and Metrics are the
// same snapshot; both keys are kept in the machine readable document.
type AnalysisResult struct {
	Summary         *Metrics                     `json:"summary"`
	Issues          []Issue                      `json:"issues"`
	Insights        []Insight                    `json:"insights"`
	Metrics         *Metrics                     `json:"metrics"`
	Timeline        []TimelineEvent              `json:"timeline"`
	Recommendations []remediation.Recommendation `json:"recommendations"`

	RunID       string    `json:"-"`
	GeneratedAt time.Time `json:"-"`
}

// Count returns the number of issues of a severity.
func (r *AnalysisResult) Count(severity Severity) int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			count++
		}
	}
	return count
}
