package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSourceSpec(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []LogSource
		wantErr string
	}{
		{
			name: "bare list",
			data: `
- type: container
  name: macos_container
  container_name: macos-test-local
  lines: 50
  output: container/container.log
- type: file
  name: molecule_log
  path: /tmp/molecule.log
`,
			want: []LogSource{
				{Type: SourceContainer, Name: "macos_container", ContainerName: "macos-test-local", Lines: 50, Output: "container/container.log"},
				{Type: SourceFile, Name: "molecule_log", Path: "/tmp/molecule.log"},
			},
		},
		{
			name: "sources key",
			data: `
sources:
  - type: command
    name: tailscale_status
    command: tailscale status
    timeout: 10
    output: tailscale/status.txt
  - type: system
    name: host
    output: host/system-info.txt
`,
			want: []LogSource{
				{Type: SourceCommand, Name: "tailscale_status", Command: "tailscale status", Timeout: 10, Output: "tailscale/status.txt"},
				{Type: SourceSystem, Name: "host", Output: "host/system-info.txt"},
			},
		},
		{
			name:    "empty",
			data:    "",
			wantErr: "source spec is empty",
		},
		{
			name:    "unknown type",
			data:    "- type: socket\n  name: s\n",
			wantErr: `unknown source type "socket"`,
		},
		{
			name:    "missing name",
			data:    "- type: system\n",
			wantErr: "name is required",
		},
		{
			name:    "file without path",
			data:    "- type: file\n  name: f\n",
			wantErr: "path is required",
		},
		{
			name:    "command without command",
			data:    "- type: command\n  name: c\n",
			wantErr: "command is required",
		},
		{
			name:    "duplicate names",
			data:    "- type: system\n  name: a\n- type: system\n  name: a\n",
			wantErr: `duplicate source name "a"`,
		},
		{
			name:    "output escapes log dir",
			data:    "- type: system\n  name: a\n  output: ../a.txt\n",
			wantErr: "must be a relative path",
		},
		{
			name:    "scalar document",
			data:    "hello",
			wantErr: "must be a list",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := LoadSourceSpec([]byte(test.data))
			if test.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}
