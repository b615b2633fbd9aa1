package analyzer

import (
	"github.com/replicatedhq/testlog-analyzer/pkg/analyze/remediation"
	"github.com/replicatedhq/testlog-analyzer/pkg/multitype"
)

// Run level metric facets. They have no category, so they render as-is.
const (
	FacetTotalIssues       = "total_issues"
	FacetTotalErrors       = "total_errors"
	FacetTotalWarnings     = "total_warnings"
	FacetTotalInsights     = "total_insights"
	FacetAnalysisTimestamp = "analysis_timestamp"
)

const analysisTimestampLayout = "2006-01-02T15:04:05.000000"

func generateSummary(collector *Collector) {
	var errorCount, warningCount int64
	issues := collector.Issues()
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityError:
			errorCount++
		case SeverityWarning:
			warningCount++
		}
	}

	collector.SetMetric("", FacetTotalIssues, multitype.FromInt(int64(len(issues))))
	collector.SetMetric("", FacetTotalErrors, multitype.FromInt(errorCount))
	collector.SetMetric("", FacetTotalWarnings, multitype.FromInt(warningCount))
	collector.SetMetric("", FacetTotalInsights, multitype.FromInt(int64(len(collector.Insights()))))
	collector.SetMetric("", FacetAnalysisTimestamp, multitype.FromString(collector.now().Format(analysisTimestampLayout)))
}

// findings must be taken after generateSummary.
func findings(collector *Collector) remediation.Findings {
	issues := collector.Issues()
	categories := make([]string, 0, len(issues))
	for _, issue := range issues {
		categories = append(categories, issue.Category)
	}

	return remediation.Findings{
		TotalErrors:     collector.Metrics().GetInt(MetricKey{Facet: FacetTotalErrors}),
		IssueCategories: categories,
	}
}
