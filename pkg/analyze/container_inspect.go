package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/pkg/multitype"
)

const containerCategory = "container"

type containerHealth struct {
	Status *string `json:"Status"`
}

type containerState struct {
	Status       *string          `json:"Status"`
	Health       *containerHealth `json:"Health"`
	RestartCount int64            `json:"RestartCount"`
}

type containerHostConfig struct {
	Memory   int64 `json:"Memory"`
	CpuQuota int64 `json:"CpuQuota"`
}

// containerInspect is the subset of "docker inspect" output that is analyzed.
type containerInspect struct {
	State      *containerState      `json:"State"`
	HostConfig *containerHostConfig `json:"HostConfig"`
}

// AnalyzeContainerInspect checks the state and resource limits of the test container.
type AnalyzeContainerInspect struct {
	FileName string
}

func (a *AnalyzeContainerInspect) Title() string {
	return "Container Inspection"
}

func (a *AnalyzeContainerInspect) IsExcluded(bundle *LogBundle) bool {
	return !bundle.Has(a.FileName)
}

func (a *AnalyzeContainerInspect) Analyze(bundle *LogBundle, collector *Collector) error {
	data, err := bundle.GetFile(a.FileName)
	if err != nil {
		collector.AddIssue(containerCategory, fmt.Sprintf("Failed to analyze container inspection: %v", err), SeverityError)
		return err
	}

	inspect, err := parseContainerInspect(data)
	if err != nil {
		collector.AddIssue(containerCategory, "Invalid JSON in container inspection", SeverityError)
		return err
	}

	if state := inspect.State; state != nil {
		status := valueOrUnknown(state.Status)
		if status != "running" {
			collector.AddIssue(containerCategory, fmt.Sprintf("Container not running: %s", status), SeverityError)
		}

		if state.Health != nil && state.Health.Status != nil && *state.Health.Status != "healthy" {
			collector.AddIssue(containerCategory, fmt.Sprintf("Container unhealthy: %s", *state.Health.Status), SeverityWarning)
		}

		if state.RestartCount > 0 {
			collector.AddIssue(containerCategory, fmt.Sprintf("Container restarted %d times", state.RestartCount), SeverityWarning)
		}
	}

	if hostConfig := inspect.HostConfig; hostConfig != nil {
		if hostConfig.Memory > 0 {
			collector.SetMetric(containerCategory, "memory_limit", multitype.FromInt(hostConfig.Memory))
		}
		if hostConfig.CpuQuota > 0 {
			collector.SetMetric(containerCategory, "cpu_limit", multitype.FromInt(hostConfig.CpuQuota))
		}
	}

	return nil
}

// parseContainerInspect accepts both a bare object and the array printed by "docker inspect".
func parseContainerInspect(data []byte) (*containerInspect, error) {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []containerInspect
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal container inspection list")
		}
		if len(list) == 0 {
			return &containerInspect{}, nil
		}
		return &list[0], nil
	}

	inspect := containerInspect{}
	if err := json.Unmarshal(trimmed, &inspect); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal container inspection")
	}
	return &inspect, nil
}

func valueOrUnknown(s *string) string {
	if s == nil || *s == "" {
		return "unknown"
	}
	return *s
}
