package collect

import (
	"time"

	"github.com/replicatedhq/testlog-analyzer/pkg/redact"
)

const resultTimestampLayout = "2006-01-02T15:04:05.000000"

// CollectorResult is what one source produced. Either Error is set, or the
// fields relevant to the source type are.
type CollectorResult struct {
	Command    string `json:"command,omitempty"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	ReturnCode *int   `json:"return_code,omitempty"`
	Content    string `json:"content,omitempty"`
	TotalLines *int   `json:"total_lines,omitempty"`
	Output     string `json:"output,omitempty"`
	Redactions int    `json:"redactions,omitempty"`
	Error      string `json:"error,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// primary is the text written to the source's output file.
func (r *CollectorResult) primary() string {
	if r.Content != "" {
		return r.Content
	}
	return r.Stdout
}

// redact masks sensitive values in every captured stream. Redactions are
// recorded under the source name.
func (r *CollectorResult) redact(set *redact.Set, name string) error {
	for _, field := range []*string{&r.Command, &r.Stdout, &r.Stderr, &r.Content} {
		if *field == "" {
			continue
		}
		clean, err := set.Redact([]byte(*field), name)
		if err != nil {
			return err
		}
		*field = string(clean)
	}
	r.Redactions = set.Count(name)
	return nil
}

func (r *CollectorResult) stamp(now time.Time) {
	r.Timestamp = now.Format(resultTimestampLayout)
}

func intPtr(i int) *int {
	return &i
}
