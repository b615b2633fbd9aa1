package analyzer

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/replicatedhq/testlog-analyzer/pkg/multitype"
)

var (
	// the value may start on the line after the label
	memoryUsageRegex = regexp.MustCompile(`Memory usage:\s*(.+)`)
	diskUsageRegex   = regexp.MustCompile(`Disk usage:\s*(.+)`)
)

// AnalyzeSystemInfo reads a system information dump of the host or the container.
type AnalyzeSystemInfo struct {
	FileName string
	Category string
}

func (a *AnalyzeSystemInfo) Title() string {
	return fmt.Sprintf("System Info (%s)", a.Category)
}

func (a *AnalyzeSystemInfo) IsExcluded(bundle *LogBundle) bool {
	return !bundle.Has(a.FileName)
}

func (a *AnalyzeSystemInfo) Analyze(bundle *LogBundle, collector *Collector) error {
	content, err := bundle.GetFile(a.FileName)
	if err != nil {
		collector.AddIssue(a.Category, fmt.Sprintf("Failed to analyze system info: %v", err), SeverityError)
		return err
	}

	if value, ok := firstSubmatch(memoryUsageRegex, content); ok {
		collector.SetMetric(a.Category, "memory_info", multitype.FromString(value))
	}
	if value, ok := firstSubmatch(diskUsageRegex, content); ok {
		collector.SetMetric(a.Category, "disk_info", multitype.FromString(value))
	}

	if bytes.Contains(content, []byte("No space left")) {
		collector.AddIssue(a.Category, "Disk space full or insufficient", SeverityError)
	} else if bytes.Contains(content, []byte("Cannot allocate memory")) {
		collector.AddIssue(a.Category, "Memory allocation issues", SeverityError)
	}

	return nil
}

func firstSubmatch(re *regexp.Regexp, content []byte) (string, bool) {
	match := re.FindSubmatch(content)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(string(match[1])), true
}
