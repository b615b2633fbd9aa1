package collect

import (
	"context"

	"github.com/pkg/errors"
)

type CollectCommandLogs struct {
	source LogSource
	exec   execFunc
}

func (c *CollectCommandLogs) Title() string {
	return c.source.title("Command Output")
}

func (c *CollectCommandLogs) IsExcluded() bool {
	return c.source.Exclude
}

// Collect runs the command through sh. The command string is kept on the
// result even when the run fails.
func (c *CollectCommandLogs) Collect(ctx context.Context) (*CollectorResult, error) {
	result := &CollectorResult{Command: c.source.Command}
	timeout := timeoutOrDefault(c.source.Timeout)

	out, err := c.exec(ctx, timeout, "sh", "-c", c.source.Command)
	if errors.Is(err, errCommandTimedOut) {
		return result, errors.Errorf("Command timed out after %d seconds", int(timeout.Seconds()))
	}
	if err != nil {
		return result, errors.Errorf("Error executing command: %v", err)
	}

	result.Stdout = string(out.Stdout)
	result.Stderr = string(out.Stderr)
	result.ReturnCode = intPtr(out.ExitCode)
	return result, nil
}
