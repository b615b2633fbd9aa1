package collect

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
)

type CollectFileLogs struct {
	source LogSource
}

func (c *CollectFileLogs) Title() string {
	return c.source.title("File Logs")
}

func (c *CollectFileLogs) IsExcluded() bool {
	return c.source.Exclude
}

func (c *CollectFileLogs) Collect(ctx context.Context) (*CollectorResult, error) {
	data, err := os.ReadFile(c.source.Path)
	if os.IsNotExist(err) {
		return nil, errors.Errorf("File not found: %s", c.source.Path)
	}
	if err != nil {
		return nil, errors.Errorf("Error reading file: %v", err)
	}

	content, total := tailLines(string(data), linesOrDefault(c.source.Lines))
	return &CollectorResult{
		Content:    content,
		TotalLines: intPtr(total),
	}, nil
}

// tailLines returns the last n lines of the trimmed text and the total number
// of lines it holds. Empty text counts as one line.
func tailLines(text string, n int) (string, int) {
	all := strings.Split(strings.TrimSpace(text), "\n")
	recent := all
	if len(all) > n {
		recent = all[len(all)-n:]
	}
	return strings.Join(recent, "\n"), len(all)
}
