package collect

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/pkg/constants"
)

type CollectContainerLogs struct {
	source LogSource
	exec   execFunc
}

func (c *CollectContainerLogs) Title() string {
	return c.source.title("Container Logs")
}

func (c *CollectContainerLogs) IsExcluded() bool {
	return c.source.Exclude
}

func (c *CollectContainerLogs) containerName() string {
	if c.source.ContainerName == "" {
		return constants.DEFAULT_CONTAINER_NAME
	}
	return c.source.ContainerName
}

func (c *CollectContainerLogs) Collect(ctx context.Context) (*CollectorResult, error) {
	lines := linesOrDefault(c.source.Lines)

	out, err := c.exec(ctx, constants.DEFAULT_COLLECTOR_TIMEOUT, "docker", "logs", "--tail", strconv.Itoa(lines), c.containerName())
	if errors.Is(err, errCommandTimedOut) {
		return nil, errors.New("Timeout while collecting logs")
	}
	if err != nil {
		return nil, errors.Errorf("Error collecting logs: %v", err)
	}

	return &CollectorResult{
		Stdout:     string(out.Stdout),
		Stderr:     string(out.Stderr),
		ReturnCode: intPtr(out.ExitCode),
	}, nil
}
