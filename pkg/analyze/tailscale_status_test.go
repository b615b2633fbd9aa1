package analyzer

import (
	"testing"

	"github.com/replicatedhq/testlog-analyzer/pkg/multitype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTailscaleStatus(t *testing.T) {
	tests := []struct {
		name         string
		status       string
		wantIssues   []Issue
		wantInsights []Insight
		wantPeers    int64
	}{
		{
			name:         "connected with peers",
			status:       "100.64.0.1   macos-test   user@  macOS  -\n100.64.0.2   builder      user@  linux  active\n# Connected to tailnet\n",
			wantIssues:   []Issue{},
			wantInsights: []Insight{{Category: "tailscale", Message: "Tailscale is connected and running", Timestamp: testNow()}},
			wantPeers:    2,
		},
		{
			name:   "logged out wins over stopped",
			status: "Logged out.\nTailscale is stopped.\n",
			wantIssues: []Issue{
				{Category: "tailscale", Message: "Tailscale is logged out", Severity: SeverityError, Timestamp: testNow()},
			},
			wantInsights: []Insight{},
		},
		{
			name:   "stopped",
			status: "Tailscale is stopped.\n",
			wantIssues: []Issue{
				{Category: "tailscale", Message: "Tailscale service is stopped", Severity: SeverityError, Timestamp: testNow()},
			},
			wantInsights: []Insight{},
		},
		{
			name:         "unrecognized",
			status:       "starting...\n",
			wantIssues:   []Issue{},
			wantInsights: []Insight{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := require.New(t)

			bundle := NewBundleFromFiles(map[string][]byte{
				TailscaleStatusFile: []byte(test.status),
			})
			collector := NewCollector(testNow)

			err := (&AnalyzeTailscaleStatus{FileName: TailscaleStatusFile}).Analyze(bundle, collector)
			req.NoError(err)

			assert.Equal(t, test.wantIssues, collector.Issues())
			assert.Equal(t, test.wantInsights, collector.Insights())
			assert.Equal(t, test.wantPeers, collector.Metrics().GetInt(MetricKey{Category: "tailscale", Facet: "peer_count"}))
		})
	}
}

func TestAnalyzeTailscaleJSONStatus(t *testing.T) {
	tests := []struct {
		name         string
		status       string
		wantIssues   []Issue
		wantInsights []Insight
		wantMetrics  map[string]multitype.Value
		wantErr      bool
	}{
		{
			name:       "running without auth on a tailnet",
			status:     `{"BackendState": "Running", "AuthEnabled": false, "CurrentTailnet": "tailnet-1", "Peer": {"a": {}, "b": {}}}`,
			wantIssues: []Issue{{Category: "tailscale", Message: "Tailscale authentication not enabled", Severity: SeverityWarning, Timestamp: testNow()}},
			wantInsights: []Insight{
				{Category: "tailscale", Message: "Connected to tailnet: tailnet-1", Timestamp: testNow()},
			},
			wantMetrics: map[string]multitype.Value{
				"tailscale_peer_count": multitype.FromInt(2),
			},
		},
		{
			name:   "needs login with version object and tailnet object",
			status: `{"BackendState": "NeedsLogin", "AuthEnabled": true, "Version": {"Short": "1.56.1", "Long": "1.56.1-t1234"}, "CurrentTailnet": {"Name": "example.ts.net"}}`,
			wantIssues: []Issue{
				{Category: "tailscale", Message: "Tailscale backend state: NeedsLogin", Severity: SeverityError, Timestamp: testNow()},
			},
			wantInsights: []Insight{
				{Category: "tailscale", Message: "Connected to tailnet: example.ts.net", Timestamp: testNow()},
			},
			wantMetrics: map[string]multitype.Value{
				"tailscale_version":    multitype.FromString("1.56.1-t1234"),
				"tailscale_peer_count": multitype.FromInt(0),
			},
		},
		{
			name:   "version string and missing backend state",
			status: `{"AuthEnabled": true, "Version": "1.60.0-tabc"}`,
			wantIssues: []Issue{
				{Category: "tailscale", Message: "Tailscale backend state: unknown", Severity: SeverityError, Timestamp: testNow()},
			},
			wantInsights: []Insight{},
			wantMetrics: map[string]multitype.Value{
				"tailscale_version":    multitype.FromString("1.60.0-tabc"),
				"tailscale_peer_count": multitype.FromInt(0),
			},
		},
		{
			name:         "version object without long",
			status:       `{"BackendState": "Running", "AuthEnabled": true, "Version": {"Short": "1.56.1"}}`,
			wantIssues:   []Issue{},
			wantInsights: []Insight{},
			wantMetrics: map[string]multitype.Value{
				"tailscale_version":    multitype.FromString("unknown"),
				"tailscale_peer_count": multitype.FromInt(0),
			},
		},
		{
			name:         "odd field types fall back",
			status:       `{"BackendState": "Running", "AuthEnabled": "true", "Peer": [], "Version": 1, "CurrentTailnet": null}`,
			wantIssues:   []Issue{},
			wantInsights: []Insight{},
			wantMetrics: map[string]multitype.Value{
				"tailscale_version":    multitype.FromString("unknown"),
				"tailscale_peer_count": multitype.FromInt(0),
			},
		},
		{
			name:   "peer list and numeric state",
			status: `{"BackendState": 3, "AuthEnabled": 0, "Peer": [{"a": 1}, {"b": 2}], "CurrentTailnet": {"Name": 7}}`,
			wantIssues: []Issue{
				{Category: "tailscale", Message: "Tailscale backend state: 3", Severity: SeverityError, Timestamp: testNow()},
				{Category: "tailscale", Message: "Tailscale authentication not enabled", Severity: SeverityWarning, Timestamp: testNow()},
			},
			wantInsights: []Insight{
				{Category: "tailscale", Message: `Connected to tailnet: {"Name":7}`, Timestamp: testNow()},
			},
			wantMetrics: map[string]multitype.Value{
				"tailscale_peer_count": multitype.FromInt(2),
			},
		},
		{
			name:   "malformed",
			status: `{"BackendState": "Running",`,
			wantIssues: []Issue{
				{Category: "tailscale", Message: "Invalid JSON in Tailscale status", Severity: SeverityError, Timestamp: testNow()},
			},
			wantInsights: []Insight{},
			wantMetrics:  map[string]multitype.Value{},
			wantErr:      true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := require.New(t)

			bundle := NewBundleFromFiles(map[string][]byte{
				TailscaleStatusJSONFile: []byte(test.status),
			})
			collector := NewCollector(testNow)

			err := (&AnalyzeTailscaleJSONStatus{FileName: TailscaleStatusJSONFile}).Analyze(bundle, collector)
			if test.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}

			assert.Equal(t, test.wantIssues, collector.Issues())
			assert.Equal(t, test.wantInsights, collector.Insights())

			metrics := collector.Metrics()
			assert.Equal(t, len(test.wantMetrics), metrics.Len())
			for name, want := range test.wantMetrics {
				got, ok := metrics.Lookup(name)
				req.True(ok, name)
				assert.Equal(t, want, got, name)
			}
		})
	}
}
