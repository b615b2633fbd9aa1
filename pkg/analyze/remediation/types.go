package remediation

// RemediationPriority defines the urgency of a recommendation
type RemediationPriority string

const (
	PriorityHigh   RemediationPriority = "high"
	PriorityMedium RemediationPriority = "medium"
	PriorityLow    RemediationPriority = "low"
)

// Recommendation is an actionable follow-up derived from the findings of a run
type Recommendation struct {
	Priority RemediationPriority `json:"priority"`
	Category string              `json:"category"`
	Message  string              `json:"message"`
	Action   string              `json:"action"`
}

// Findings is the part of an analysis run the recommendation rules look at
type Findings struct {
	TotalErrors int64
	// IssueCategories holds the category of every issue, in the order the issues were raised
	IssueCategories []string
}

// CountIssues returns the number of issues whose category satisfies match
func (f Findings) CountIssues(match func(category string) bool) int64 {
	var count int64
	for _, category := range f.IssueCategories {
		if match(category) {
			count++
		}
	}
	return count
}
