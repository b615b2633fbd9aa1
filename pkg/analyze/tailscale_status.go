package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/pkg/multitype"
)

const tailscaleCategory = "tailscale"

var ipv4Regex = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)

// AnalyzeTailscaleStatus reads the output of "tailscale status".
type AnalyzeTailscaleStatus struct {
	FileName string
}

func (a *AnalyzeTailscaleStatus) Title() string {
	return "Tailscale Status"
}

func (a *AnalyzeTailscaleStatus) IsExcluded(bundle *LogBundle) bool {
	return !bundle.Has(a.FileName)
}

func (a *AnalyzeTailscaleStatus) Analyze(bundle *LogBundle, collector *Collector) error {
	content, err := bundle.GetFile(a.FileName)
	if err != nil {
		collector.AddIssue(tailscaleCategory, fmt.Sprintf("Failed to analyze status file: %v", err), SeverityError)
		return err
	}

	switch {
	case bytes.Contains(content, []byte("Logged out")):
		collector.AddIssue(tailscaleCategory, "Tailscale is logged out", SeverityError)
	case bytes.Contains(content, []byte("Tailscale is stopped")):
		collector.AddIssue(tailscaleCategory, "Tailscale service is stopped", SeverityError)
	case bytes.Contains(content, []byte("Connected to")):
		collector.AddInsight(tailscaleCategory, "Tailscale is connected and running")
	}

	// every dotted quad counts, including the local node's own address
	peers := len(ipv4Regex.FindAllIndex(content, -1))
	collector.SetMetric(tailscaleCategory, "peer_count", multitype.FromInt(int64(peers)))

	return nil
}

// tailscaleStatusJSON holds the fields of "tailscale status --json" undecoded, so a
// field of an unexpected type only affects the check that reads it.
type tailscaleStatusJSON struct {
	BackendState   json.RawMessage `json:"BackendState"`
	AuthEnabled    json.RawMessage `json:"AuthEnabled"`
	Version        json.RawMessage `json:"Version"`
	Peer           json.RawMessage `json:"Peer"`
	CurrentTailnet json.RawMessage `json:"CurrentTailnet"`
}

// backendState is the state string, the JSON text of any other value, or
// "unknown" when absent.
func (s tailscaleStatusJSON) backendState() string {
	if text, ok := rawText(s.BackendState); ok {
		return text
	}
	return "unknown"
}

// version is the Long field of a version object or a plain version string.
// The second return is false when no version is present.
func (s tailscaleStatusJSON) version() (string, bool) {
	if !rawTruthy(s.Version) {
		return "", false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(s.Version, &obj); err == nil {
		if long, ok := obj["Long"].(string); ok {
			return long, true
		}
		return "unknown", true
	}
	var str string
	if err := json.Unmarshal(s.Version, &str); err == nil {
		return str, true
	}
	return "unknown", true
}

// peerCount counts the entries of the Peer object, or of a list.
func (s tailscaleStatusJSON) peerCount() int {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(s.Peer, &obj); err == nil {
		return len(obj)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(s.Peer, &list); err == nil {
		return len(list)
	}
	return 0
}

// tailnet is the tailnet name, taken from a string or an object's Name field.
func (s tailscaleStatusJSON) tailnet() string {
	if !rawTruthy(s.CurrentTailnet) {
		return ""
	}
	var obj struct {
		Name string `json:"Name"`
	}
	if err := json.Unmarshal(s.CurrentTailnet, &obj); err == nil {
		return obj.Name
	}
	text, _ := rawText(s.CurrentTailnet)
	return text
}

// rawText returns a JSON string unquoted and any other non-null value as compact JSON.
func rawText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, true
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw), true
	}
	return buf.String(), true
}

// rawTruthy reports whether a JSON value is set: true, a non-zero number, or a
// non-empty string, list or object.
func rawTruthy(raw json.RawMessage) bool {
	var value interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &value) != nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	default:
		return false
	}
}

// AnalyzeTailscaleJSONStatus reads the output of "tailscale status --json".
type AnalyzeTailscaleJSONStatus struct {
	FileName string
}

func (a *AnalyzeTailscaleJSONStatus) Title() string {
	return "Tailscale JSON Status"
}

func (a *AnalyzeTailscaleJSONStatus) IsExcluded(bundle *LogBundle) bool {
	return !bundle.Has(a.FileName)
}

func (a *AnalyzeTailscaleJSONStatus) Analyze(bundle *LogBundle, collector *Collector) error {
	data, err := bundle.GetFile(a.FileName)
	if err != nil {
		collector.AddIssue(tailscaleCategory, fmt.Sprintf("Failed to analyze JSON status: %v", err), SeverityError)
		return err
	}

	status := tailscaleStatusJSON{}
	if err := json.Unmarshal(data, &status); err != nil {
		collector.AddIssue(tailscaleCategory, "Invalid JSON in Tailscale status", SeverityError)
		return errors.Wrap(err, "failed to unmarshal tailscale status")
	}

	backendState := status.backendState()
	if backendState != "Running" {
		collector.AddIssue(tailscaleCategory, fmt.Sprintf("Tailscale backend state: %s", backendState), SeverityError)
	}

	if !rawTruthy(status.AuthEnabled) {
		collector.AddIssue(tailscaleCategory, "Tailscale authentication not enabled", SeverityWarning)
	}

	if version, ok := status.version(); ok {
		if version == "" {
			version = "unknown"
		}
		collector.SetMetric(tailscaleCategory, "version", multitype.FromString(version))
	}

	collector.SetMetric(tailscaleCategory, "peer_count", multitype.FromInt(int64(status.peerCount())))

	if tailnet := status.tailnet(); tailnet != "" {
		collector.AddInsight(tailscaleCategory, fmt.Sprintf("Connected to tailnet: %s", tailnet))
	}

	return nil
}
