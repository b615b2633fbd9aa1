package analyzer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/replicatedhq/testlog-analyzer/pkg/analyze/remediation"
	"github.com/replicatedhq/testlog-analyzer/pkg/multitype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogTree = map[string]string{
	"container/container-recent.log":  "2024-01-15 10:00:00 macOS boot complete\n2024-01-15 10:00:02 kernel panic - not syncing\n",
	"container/container-inspect.json": `{"State": {"Status": "exited", "RestartCount": 3}, "HostConfig": {"Memory": 0}}`,
	"docker/docker-compose.log":        "Creating macos-test-local ... done\nWARNING: version is obsolete\n",
	"molecule/default.log":             "PLAY RECAP *** host : ok=5 changed=2 unreachable=0 failed=0\n",
	"molecule/macos-upgrade.log":       "fatal: [host]: FAILED! => {}\n",
	"tailscale/tailscale-status.json":  `{"BackendState": "Running", "AuthEnabled": false, "CurrentTailnet": "tailnet-1", "Peer": {"a": {}, "b": {}}}`,
	"system/host-system-info.txt":      "Memory usage: 8Gi/16Gi\n",
}

func TestAnalyzeLogs(t *testing.T) {
	req := require.New(t)

	dir := t.TempDir()
	writeLogTree(t, dir, testLogTree)

	bundle, err := NewBundleFromDir(dir)
	req.NoError(err)

	result, err := AnalyzeLogs(context.Background(), bundle, AnalyzeOptions{Now: testNow})
	req.NoError(err)

	assert.Equal(t, []Issue{
		{Category: "container", Message: "Pattern 'kernel.*panic' found 1 times", Severity: SeverityError, Timestamp: testNow()},
		{Category: "container", Message: "Container not running: exited", Severity: SeverityError, Timestamp: testNow()},
		{Category: "container", Message: "Container restarted 3 times", Severity: SeverityWarning, Timestamp: testNow()},
		{Category: "docker", Message: "Pattern 'warning' found 1 times", Severity: SeverityWarning, Timestamp: testNow()},
		{Category: "tailscale", Message: "Tailscale authentication not enabled", Severity: SeverityWarning, Timestamp: testNow()},
	}, result.Issues)

	assert.Equal(t, []Insight{
		{Category: "molecule_default", Message: "Success pattern 'PLAY RECAP.*ok=.*changed=.*unreachable=.*failed=0' found 1 times", Timestamp: testNow()},
		{Category: "tailscale", Message: "Connected to tailnet: tailnet-1", Timestamp: testNow()},
	}, result.Insights)

	assert.Len(t, result.Timeline, 2)

	names := []string{}
	for _, key := range result.Metrics.Keys() {
		names = append(names, key.String())
	}
	assert.Equal(t, []string{
		"container_lines", "container_errors", "container_warnings",
		"docker_lines", "docker_errors", "docker_warnings",
		"molecule_default_lines", "molecule_default_errors", "molecule_default_warnings",
		"molecule_macos_upgrade_lines", "molecule_macos_upgrade_errors", "molecule_macos_upgrade_warnings",
		"tailscale_peer_count",
		"host_memory_info",
		"total_issues", "total_errors", "total_warnings", "total_insights", "analysis_timestamp",
	}, names)

	summary := map[string]multitype.Value{
		"container_lines":  multitype.FromInt(3),
		"container_errors": multitype.FromInt(1),
		"docker_warnings":  multitype.FromInt(1),
		"host_memory_info": multitype.FromString("8Gi/16Gi"),
		"total_issues":     multitype.FromInt(5),
		"total_errors":     multitype.FromInt(2),
		"total_warnings":   multitype.FromInt(3),
		"total_insights":   multitype.FromInt(2),
	}
	for name, want := range summary {
		got, ok := result.Summary.Lookup(name)
		req.True(ok, name)
		assert.Equal(t, want, got, name)
	}

	assert.Equal(t, []remediation.Recommendation{
		{
			Priority: remediation.PriorityMedium,
			Category: "container",
			Message:  "Container issues detected (3). Check container configuration and resources.",
			Action:   "Review container logs and resource allocation",
		},
		{
			Priority: remediation.PriorityMedium,
			Category: "tailscale",
			Message:  "Tailscale issues detected (1). Verify authentication and network configuration.",
			Action:   "Check Tailscale status and configuration",
		},
	}, result.Recommendations)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, testNow(), result.GeneratedAt)
}

func TestAnalyzeLogs_EmptyBundle(t *testing.T) {
	req := require.New(t)

	bundle, err := NewBundleFromDir(t.TempDir())
	req.NoError(err)

	result, err := AnalyzeLogs(context.Background(), bundle, AnalyzeOptions{Now: testNow})
	req.NoError(err)

	req.Empty(result.Issues)
	req.Empty(result.Insights)
	req.Empty(result.Timeline)
	req.Empty(result.Recommendations)
	req.Equal(5, result.Metrics.Len())

	data, err := json.Marshal(result)
	req.NoError(err)

	doc := map[string]json.RawMessage{}
	req.NoError(json.Unmarshal(data, &doc))
	req.Len(doc, 6)
	for _, key := range []string{"issues", "insights", "timeline", "recommendations"} {
		req.Equal("[]", string(doc[key]), key)
	}
	req.Equal(
		`{"total_issues":0,"total_errors":0,"total_warnings":0,"total_insights":0,"analysis_timestamp":"2024-01-15T12:00:00.000000"}`,
		string(doc["summary"]),
	)
	req.Equal(string(doc["summary"]), string(doc["metrics"]))
}

func TestAnalyzeLogs_Idempotent(t *testing.T) {
	req := require.New(t)

	files := map[string][]byte{}
	for name, content := range testLogTree {
		files[name] = []byte(content)
	}
	bundle := NewBundleFromFiles(files)

	first, err := AnalyzeLogs(context.Background(), bundle, AnalyzeOptions{})
	req.NoError(err)
	time.Sleep(2 * time.Millisecond)
	second, err := AnalyzeLogs(context.Background(), bundle, AnalyzeOptions{})
	req.NoError(err)

	assert.Equal(t, withoutWallClock(first), withoutWallClock(second))
	assert.NotEqual(t, first.RunID, second.RunID)
}

type comparableResult struct {
	Issues          []Issue
	Insights        []Insight
	Metrics         map[string]multitype.Value
	Timeline        []TimelineEvent
	Recommendations []remediation.Recommendation
}

func withoutWallClock(result *AnalysisResult) comparableResult {
	c := comparableResult{
		Metrics:         map[string]multitype.Value{},
		Timeline:        result.Timeline,
		Recommendations: result.Recommendations,
	}
	for _, issue := range result.Issues {
		issue.Timestamp = time.Time{}
		c.Issues = append(c.Issues, issue)
	}
	for _, insight := range result.Insights {
		insight.Timestamp = time.Time{}
		c.Insights = append(c.Insights, insight)
	}
	for _, key := range result.Metrics.Keys() {
		if key.Facet == FacetAnalysisTimestamp {
			continue
		}
		value, _ := result.Metrics.Get(key)
		c.Metrics[key.String()] = value
	}
	return c
}

func TestAnalyzeLogs_CustomRules(t *testing.T) {
	req := require.New(t)

	rules, err := LoadRuleSet([]byte(`
sources:
  molecule:
    groups:
      - class: error
        patterns:
          - "FAILED! =>"
`))
	req.NoError(err)

	bundle := NewBundleFromFiles(map[string][]byte{
		"molecule/macos-upgrade.log": []byte("fatal: [host]: FAILED! => {}\n"),
	})

	result, err := AnalyzeLogs(context.Background(), bundle, AnalyzeOptions{Rules: rules, Now: testNow})
	req.NoError(err)

	req.Equal([]Issue{
		{Category: "molecule_macos_upgrade", Message: "Pattern 'FAILED! =>' found 1 times", Severity: SeverityError, Timestamp: testNow()},
	}, result.Issues)
	req.Len(result.Recommendations, 1)
	req.Equal("testing", result.Recommendations[0].Category)
	req.Equal(int64(1), result.Metrics.GetInt(MetricKey{Category: "molecule_macos_upgrade", Facet: FacetErrors}))
}
