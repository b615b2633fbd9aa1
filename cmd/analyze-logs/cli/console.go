package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-wordwrap"
	analyzer "github.com/replicatedhq/testlog-analyzer/pkg/analyze"
	"github.com/replicatedhq/testlog-analyzer/pkg/analyze/artifacts"
	"github.com/replicatedhq/testlog-analyzer/pkg/analyze/remediation"
)

const summaryWrapWidth = 76

var (
	headerTxt  = color.New(color.Bold)
	errorTxt   = color.New(color.FgHiRed)
	warningTxt = color.New(color.FgYellow)
	insightTxt = color.New(color.FgGreen)
	infoTxt    = color.New(color.FgCyan)
)

func printSummary(w io.Writer, result *analyzer.AnalysisResult, outputDir string, written []*artifacts.Artifact) {
	metric := func(facet string) int64 {
		return result.Metrics.GetInt(analyzer.MetricKey{Facet: facet})
	}

	headerTxt.Fprintf(w, "\n📊 Analysis Results:\n")
	fmt.Fprintf(w, "  Total Issues: %d\n", metric(analyzer.FacetTotalIssues))
	errorTxt.Fprintf(w, "  Errors: %d\n", metric(analyzer.FacetTotalErrors))
	warningTxt.Fprintf(w, "  Warnings: %d\n", metric(analyzer.FacetTotalWarnings))
	insightTxt.Fprintf(w, "  Insights: %d\n", metric(analyzer.FacetTotalInsights))
	fmt.Fprintf(w, "  Output: %s\n", outputDir)

	for _, artifact := range written {
		infoTxt.Fprintf(w, "    %s\n", artifact.Path)
	}

	if len(result.Recommendations) == 0 {
		return
	}

	headerTxt.Fprintf(w, "\n💡 Recommendations:\n")
	for _, rec := range result.Recommendations {
		c := infoTxt
		if rec.Priority == remediation.PriorityHigh {
			c = errorTxt
		}
		c.Fprintf(w, "  [%s] %s\n", rec.Priority, rec.Category)
		fmt.Fprintf(w, "%s\n", indent(wordwrap.WrapString(rec.Message, summaryWrapWidth), "    "))
		fmt.Fprintf(w, "%s\n", indent(wordwrap.WrapString("Action: "+rec.Action, summaryWrapWidth), "    "))
	}
}

func indent(text, prefix string) string {
	return prefix + strings.ReplaceAll(text, "\n", "\n"+prefix)
}
