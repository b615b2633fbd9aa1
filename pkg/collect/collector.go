package collect

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/pkg/constants"
)

// LogCollector gathers the logs of a single source. An error from Collect is
// recorded on the source's result; it does not stop the other collectors.
type LogCollector interface {
	Title() string
	IsExcluded() bool
	Collect(ctx context.Context) (*CollectorResult, error)
}

func GetLogCollector(source LogSource) (LogCollector, error) {
	switch source.Type {
	case SourceContainer:
		return &CollectContainerLogs{source: source, exec: runCommand}, nil
	case SourceFile:
		return &CollectFileLogs{source: source}, nil
	case SourceCommand:
		return &CollectCommandLogs{source: source, exec: runCommand}, nil
	case SourceSystem:
		return &CollectSystemInfo{source: source, stats: hostStats}, nil
	default:
		return nil, errors.Errorf("unknown source type %q", source.Type)
	}
}

func linesOrDefault(lines int) int {
	if lines <= 0 {
		return constants.DEFAULT_COLLECTOR_LINES
	}
	return lines
}

func timeoutOrDefault(seconds int) time.Duration {
	if seconds <= 0 {
		return constants.DEFAULT_COLLECTOR_TIMEOUT
	}
	return time.Duration(seconds) * time.Second
}
