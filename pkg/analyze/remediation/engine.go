package remediation

import (
	"fmt"
	"strings"

	"k8s.io/klog/v2"
)

// RemediationEngine evaluates an ordered table of prioritization rules
type RemediationEngine struct {
	rules []PrioritizationRule
}

// PrioritizationRule emits one recommendation when its count exceeds the threshold
type PrioritizationRule struct {
	Name      string
	Priority  RemediationPriority
	Category  string
	Threshold int64
	// Count measures the findings the rule cares about
	Count func(Findings) int64
	// Message and Action are format strings receiving the count
	Message string
	Action  string
}

// NewRemediationEngine creates an engine with the built-in rules
func NewRemediationEngine() *RemediationEngine {
	return &RemediationEngine{
		rules: DefaultRules(),
	}
}

// NewRemediationEngineWithRules creates an engine evaluating rules in the given order
func NewRemediationEngineWithRules(rules []PrioritizationRule) *RemediationEngine {
	return &RemediationEngine{
		rules: rules,
	}
}

// DefaultRules returns the built-in rule table. Every rule is evaluated and the
// recommendations keep the table order.
func DefaultRules() []PrioritizationRule {
	return []PrioritizationRule{
		{
			Name:      "error-volume",
			Priority:  PriorityHigh,
			Category:  "errors",
			Threshold: 10,
			Count: func(f Findings) int64 {
				return f.TotalErrors
			},
			Message: "High number of errors detected (%d). Review error patterns and fix underlying issues.",
			Action:  "Investigate error patterns in log analysis",
		},
		{
			Name:     "container-issues",
			Priority: PriorityMedium,
			Category: "container",
			Count: func(f Findings) int64 {
				return f.CountIssues(func(category string) bool { return category == "container" })
			},
			Message: "Container issues detected (%d). Check container configuration and resources.",
			Action:  "Review container logs and resource allocation",
		},
		{
			Name:     "tailscale-issues",
			Priority: PriorityMedium,
			Category: "tailscale",
			Count: func(f Findings) int64 {
				return f.CountIssues(func(category string) bool { return category == "tailscale" })
			},
			Message: "Tailscale issues detected (%d). Verify authentication and network configuration.",
			Action:  "Check Tailscale status and configuration",
		},
		{
			Name:     "test-failures",
			Priority: PriorityHigh,
			Category: "testing",
			Count: func(f Findings) int64 {
				return f.CountIssues(func(category string) bool { return strings.Contains(category, "molecule") })
			},
			Message: "Test failures detected (%d). Review test configuration and role implementation.",
			Action:  "Debug Molecule test failures",
		},
	}
}

// GenerateRecommendations evaluates every rule against the findings
func (e *RemediationEngine) GenerateRecommendations(findings Findings) []Recommendation {
	recommendations := []Recommendation{}

	for _, rule := range e.rules {
		count := rule.Count(findings)
		if count <= rule.Threshold {
			continue
		}

		klog.V(2).Infof("recommendation rule %s fired with count %d", rule.Name, count)

		recommendations = append(recommendations, Recommendation{
			Priority: rule.Priority,
			Category: rule.Category,
			Message:  formatCount(rule.Message, count),
			Action:   formatCount(rule.Action, count),
		})
	}

	return recommendations
}

func formatCount(format string, count int64) string {
	if !strings.Contains(format, "%") {
		return format
	}
	return fmt.Sprintf(format, count)
}
