package analyzer

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/pkg/multitype"
	"k8s.io/klog/v2"
)

// AnalyzeLogFile applies pattern rules to a free text log.
type AnalyzeLogFile struct {
	FileName string
	Category string
	Rules    PatternRules
}

func (a *AnalyzeLogFile) Title() string {
	return a.Category
}

func (a *AnalyzeLogFile) IsExcluded(bundle *LogBundle) bool {
	return !bundle.Has(a.FileName)
}

func (a *AnalyzeLogFile) Analyze(bundle *LogBundle, collector *Collector) error {
	body, err := bundle.GetFile(a.FileName)
	if err == nil {
		err = analyzeLogBody(body, a.Category, a.Rules, collector)
	}
	if err != nil {
		collector.AddIssue(a.Category, fmt.Sprintf("Failed to analyze log file %s: %v", bundle.Location(a.FileName), err), SeverityError)
		return err
	}
	return nil
}

// analyzeLogBody counts pattern matches in body and records the findings, the
// timeline and the lines/errors/warnings metrics of category.
func analyzeLogBody(body []byte, category string, rules PatternRules, collector *Collector) error {
	patterns, err := rules.compile()
	if err != nil {
		return errors.Wrap(err, "failed to compile rules")
	}

	lines := bytes.Count(body, []byte("\n")) + 1
	errorCount := 0
	warningCount := 0

	for _, p := range patterns {
		matches := len(p.re.FindAllIndex(body, -1))
		if matches == 0 {
			continue
		}

		klog.V(2).Infof("%s: %s pattern %q matched %d times", category, p.class, p.pattern, matches)

		switch p.class.outcome() {
		case outcomeError:
			errorCount += matches
			collector.AddIssue(category, fmt.Sprintf("Pattern '%s' found %d times", p.pattern, matches), SeverityError)
		case outcomeWarning:
			warningCount += matches
			collector.AddIssue(category, fmt.Sprintf("Pattern '%s' found %d times", p.pattern, matches), SeverityWarning)
		case outcomeInsight:
			collector.AddInsight(category, fmt.Sprintf("Success pattern '%s' found %d times", p.pattern, matches))
		}
	}

	for _, ts := range extractTimestamps(body) {
		collector.AddTimelineEvent(category, ts, "Log entry")
	}

	collector.SetMetric(category, FacetLines, multitype.FromInt(int64(lines)))
	collector.SetMetric(category, FacetErrors, multitype.FromInt(int64(errorCount)))
	collector.SetMetric(category, FacetWarnings, multitype.FromInt(int64(warningCount)))

	return nil
}
