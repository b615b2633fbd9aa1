package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractTimestamps(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []time.Time
	}{
		{
			name: "no timestamps",
			body: "nothing to see here\n",
			want: []time.Time{},
		},
		{
			name: "space and T separators sorted ascending",
			body: "2024-01-15T10:00:05 second\n2024-01-15 10:00:00 first\n",
			want: []time.Time{
				time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 15, 10, 0, 5, 0, time.UTC),
			},
		},
		{
			name: "duplicates are kept",
			body: "2024-01-15 10:00:00 a\n2024-01-15 10:00:00 b\n",
			want: []time.Time{
				time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "slash dates and syslog stamps are dropped",
			body: "01/15/2024 10:00:00 slash\nJan 15 10:00:00 host syslog\n",
			want: []time.Time{},
		},
		{
			name: "out of range values are dropped",
			body: "2024-13-45 99:00:00 bogus\n2024-02-01 08:30:00 ok\n",
			want: []time.Time{
				time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC),
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := extractTimestamps([]byte(test.body))
			assert.Equal(t, test.want, got)
		})
	}
}
