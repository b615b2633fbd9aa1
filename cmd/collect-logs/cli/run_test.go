package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/pkg/collect"
	"github.com/replicatedhq/testlog-analyzer/pkg/types"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCollection(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	specPath := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(`
sources:
  - type: command
    name: tailscale_status
    command: echo "Connected to tailnet 100.64.0.1"
    output: tailscale/status.txt
  - type: file
    name: molecule_log
    path: `+filepath.Join(dir, "missing.log")+`
`), 0644))

	v := viper.New()
	v.Set("spec", specPath)
	v.Set("log-dir", logDir)
	v.Set("concurrency", 2)

	out := &bytes.Buffer{}
	require.NoError(t, runCollection(context.Background(), v, out))

	results := map[string]collect.CollectorResult{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "Connected to tailnet 100.64.0.1\n", results["tailscale_status"].Stdout)
	assert.Equal(t, "tailscale/status.txt", results["tailscale_status"].Output)
	assert.Contains(t, results["molecule_log"].Error, "File not found: ")

	written, err := os.ReadFile(filepath.Join(logDir, "tailscale", "status.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Connected to tailnet 100.64.0.1\n", string(written))
}

func TestRunCollectionErrors(t *testing.T) {
	dir := t.TempDir()
	badSpec := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badSpec, []byte("- type: socket\n  name: s\n"), 0644))

	tests := []struct {
		name    string
		spec    string
		wantMsg string
	}{
		{name: "no spec", spec: "", wantMsg: "--spec is required"},
		{name: "missing spec", spec: filepath.Join(dir, "nope.yaml"), wantMsg: "failed to read source spec"},
		{name: "invalid spec", spec: badSpec, wantMsg: "invalid source spec"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v := viper.New()
			v.Set("spec", test.spec)

			err := runCollection(context.Background(), v, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.wantMsg)

			var exitErr types.ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, types.EXIT_CODE_USAGE, exitErr.ExitStatus())
		})
	}
}
