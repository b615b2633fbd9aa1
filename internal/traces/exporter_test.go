package traces

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/replicatedhq/testlog-analyzer/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestExporter_GetSummary(t *testing.T) {
	start := time.Now()

	tests := []struct {
		name  string
		spans tracetest.SpanStubs
		want  string
	}{
		{
			name:  "with no spans",
			spans: tracetest.SpanStubs{},
			want:  "",
		},
		{
			name: "with root span only",
			spans: tracetest.SpanStubs{
				tracetest.SpanStub{
					Name:      constants.ANALYSIS_ROOT_SPAN_NAME,
					StartTime: start,
					EndTime:   start.Add(time.Second),
				},
			},
			want: "Duration: 1,000ms",
		},
		{
			name: "with analyzers",
			spans: tracetest.SpanStubs{
				tracetest.SpanStub{
					Name: "container", StartTime: start, EndTime: start.Add(time.Second),
					Attributes: []attribute.KeyValue{
						attribute.String("type", "*analyzer.AnalyzeLogFile"),
					},
				},
				tracetest.SpanStub{
					Name: "Tailscale JSON Status", StartTime: start, EndTime: start.Add(time.Millisecond * 2),
					Attributes: []attribute.KeyValue{
						attribute.String("type", "*analyzer.AnalyzeTailscaleJSONStatus"),
						attribute.Bool(constants.EXCLUDED, true),
					},
				},
				tracetest.SpanStub{
					Name: "Container Inspection", StartTime: start, EndTime: start.Add(time.Millisecond),
					Attributes: []attribute.KeyValue{
						attribute.String("type", "*analyzer.AnalyzeContainerInspect"),
					},
					Status: trace.Status{
						Code:        codes.Error,
						Description: "invalid json",
					},
				},
			},
			want: `
============= Analyzers summary =============
Succeeded (S), eXcluded (X), Failed (F)
container (S)             : 1,000ms
Tailscale JSON Status (X) : 2ms
Container Inspection (F)  : 1ms`,
		},
		{
			name: "with collectors",
			spans: tracetest.SpanStubs{
				tracetest.SpanStub{
					Name: "container-logs", StartTime: start, EndTime: start.Add(time.Minute),
					Attributes: []attribute.KeyValue{
						attribute.String("type", "*collect.CollectContainer"),
					},
				},
			},
			want: `
============= Collectors summary =============
Succeeded (S), eXcluded (X), Failed (F)
container-logs (S) : 60,000ms`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Exporter{}

			err := e.ExportSpans(context.Background(), tt.spans.Snapshots())
			require.NoError(t, err)

			assert.Contains(t, e.GetSummary(), strings.TrimSpace(tt.want))
		})
	}
}

func TestExporter_ExportSpansWithDoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Exporter{}
	spans := tracetest.SpanStubs{}

	assert.EqualError(t, e.ExportSpans(ctx, spans.Snapshots()), context.Canceled.Error())
}

func TestExporter_Shutdown(t *testing.T) {
	e := &Exporter{}

	ctx := context.Background()
	spans := tracetest.SpanStubs{}
	for i := 0; i < 5; i++ {
		spans = append(spans, tracetest.SpanStub{Name: fmt.Sprintf("span-%d", i)})
	}

	err := e.ExportSpans(ctx, spans.Snapshots())
	require.NoError(t, err)

	assert.Len(t, e.allSpans, 5)

	require.NoError(t, e.Shutdown(ctx))
	assert.Len(t, e.allSpans, 0)

	err = e.ExportSpans(ctx, spans.Snapshots())
	require.NoError(t, err)

	assert.Len(t, e.allSpans, 0)
}
