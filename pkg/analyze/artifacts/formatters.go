package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/internal/util"
	analyzer "github.com/replicatedhq/testlog-analyzer/pkg/analyze"
	"github.com/replicatedhq/testlog-analyzer/pkg/analyze/remediation"
	"github.com/replicatedhq/testlog-analyzer/pkg/constants"
	"sigs.k8s.io/yaml"
)

const (
	reportTitle  = "macOS Test Log Analysis Report"
	summaryTitle = "macOS Test Log Analysis Summary"

	generatedLayout = "2006-01-02 15:04:05"

	summaryTopIssues          = 5
	summaryTopRecommendations = 3
)

// JSONFormatter writes the machine readable result document
type JSONFormatter struct{}

func (f *JSONFormatter) Format(result *analyzer.AnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal analysis result")
	}
	return append(data, '\n'), nil
}

func (f *JSONFormatter) FileName() string {
	return constants.RESULTS_JSON_FILENAME
}

// YAMLFormatter writes the same document as JSONFormatter in YAML
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(result *analyzer.AnalysisResult) ([]byte, error) {
	// sigs.k8s.io/yaml goes through encoding/json, so metric order is lost
	// but key names match the JSON document
	data, err := yaml.Marshal(result)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal analysis result")
	}
	return data, nil
}

func (f *YAMLFormatter) FileName() string {
	return constants.RESULTS_YAML_FILENAME
}

// MarkdownFormatter writes the human readable report
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(result *analyzer.AnalysisResult) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", reportTitle)
	fmt.Fprintf(&b, "Generated: %s\n\n", result.GeneratedAt.Format(generatedLayout))

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "- **Total Issues**: %s\n", metricValue(result, analyzer.FacetTotalIssues))
	fmt.Fprintf(&b, "- **Errors**: %s\n", metricValue(result, analyzer.FacetTotalErrors))
	fmt.Fprintf(&b, "- **Warnings**: %s\n", metricValue(result, analyzer.FacetTotalWarnings))
	fmt.Fprintf(&b, "- **Insights**: %s\n\n", metricValue(result, analyzer.FacetTotalInsights))

	if len(result.Issues) > 0 {
		b.WriteString("## Issues Found\n\n")
		for _, issue := range result.Issues {
			fmt.Fprintf(&b, "- %s **%s**: %s\n", severityIcon(issue.Severity), util.TitleCase(issue.Category), issue.Message)
		}
		b.WriteString("\n")
	}

	if len(result.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range result.Recommendations {
			fmt.Fprintf(&b, "### %s %s\n", priorityIcon(rec.Priority), util.TitleCase(rec.Category))
			fmt.Fprintf(&b, "%s\n", rec.Message)
			fmt.Fprintf(&b, "**Action**: %s\n\n", rec.Action)
		}
	}

	b.WriteString("## Detailed Metrics\n\n")
	for _, key := range result.Metrics.Keys() {
		value, _ := result.Metrics.Get(key)
		fmt.Fprintf(&b, "- **%s**: %s\n", util.HumanizeKey(key.String()), value.String())
	}

	return []byte(b.String()), nil
}

func (f *MarkdownFormatter) FileName() string {
	return constants.REPORT_MARKDOWN_FILENAME
}

// TextFormatter writes a short digest of the run
type TextFormatter struct{}

func (f *TextFormatter) Format(result *analyzer.AnalysisResult) ([]byte, error) {
	var b bytes.Buffer

	fmt.Fprintf(&b, "=== %s ===\n", summaryTitle)
	fmt.Fprintf(&b, "Generated: %s\n\n", result.GeneratedAt.Format(generatedLayout))

	fmt.Fprintf(&b, "Total Issues: %s\n", metricValue(result, analyzer.FacetTotalIssues))
	fmt.Fprintf(&b, "Errors: %s\n", metricValue(result, analyzer.FacetTotalErrors))
	fmt.Fprintf(&b, "Warnings: %s\n", metricValue(result, analyzer.FacetTotalWarnings))
	fmt.Fprintf(&b, "Insights: %s\n\n", metricValue(result, analyzer.FacetTotalInsights))

	issues := result.Issues
	if len(issues) > summaryTopIssues {
		issues = issues[:summaryTopIssues]
	}
	if len(issues) > 0 {
		b.WriteString("Top Issues:\n")
		for _, issue := range issues {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", strings.ToUpper(string(issue.Severity)), issue.Category, issue.Message)
		}
		b.WriteString("\n")
	}

	recommendations := result.Recommendations
	if len(recommendations) > summaryTopRecommendations {
		recommendations = recommendations[:summaryTopRecommendations]
	}
	if len(recommendations) > 0 {
		b.WriteString("Key Recommendations:\n")
		for _, rec := range recommendations {
			fmt.Fprintf(&b, "- %s\n", rec.Message)
		}
	}

	return b.Bytes(), nil
}

func (f *TextFormatter) FileName() string {
	return constants.SUMMARY_TEXT_FILENAME
}

func metricValue(result *analyzer.AnalysisResult, facet string) string {
	value, ok := result.Metrics.Get(analyzer.MetricKey{Facet: facet})
	if !ok {
		return "0"
	}
	return value.String()
}

func severityIcon(severity analyzer.Severity) string {
	if severity == analyzer.SeverityError {
		return "🔴"
	}
	return "🟡"
}

func priorityIcon(priority remediation.RemediationPriority) string {
	switch priority {
	case remediation.PriorityHigh:
		return "🔴"
	case remediation.PriorityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}
