package traces

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/replicatedhq/testlog-analyzer/pkg/constants"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	_        trace.SpanExporter = (*Exporter)(nil)
	once     sync.Once
	exporter *Exporter
	printer  = message.NewPrinter(language.English)
)

// The span cache grows for the lifetime of the process, which is fine for
// one-shot CLI invocations only.

// GetExporterInstance creates a singleton exporter instance
func GetExporterInstance() *Exporter {
	once.Do(func() {
		exporter = &Exporter{
			allSpans: make([]trace.ReadOnlySpan, 0, 64),
		}
	})
	return exporter
}

// Exporter is an implementation of trace.SpanExporter that keeps spans in memory.
type Exporter struct {
	spansMu  sync.Mutex
	allSpans []trace.ReadOnlySpan

	stoppedMu sync.RWMutex
	stopped   bool
}

// ExportSpans writes spans to an in-memory cache.
// It is called on every span.End() at worst.
func (e *Exporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	e.stoppedMu.RLock()
	stopped := e.stopped
	e.stoppedMu.RUnlock()
	if stopped {
		return nil
	}

	if len(spans) == 0 {
		return nil
	}

	e.spansMu.Lock()
	defer e.spansMu.Unlock()

	e.allSpans = append(e.allSpans, spans...)

	return nil
}

type spanOutcome string

const (
	outcomeSucceeded spanOutcome = "S"
	outcomeExcluded  spanOutcome = "X"
	outcomeFailed    spanOutcome = "F"
)

type spanTiming struct {
	name     string
	outcome  spanOutcome
	duration time.Duration
}

func (s spanTiming) label() string {
	return s.name + " (" + string(s.outcome) + ")"
}

func isType(stub *tracetest.SpanStub, t string) bool {
	if stub == nil {
		return false
	}

	for _, attr := range stub.Attributes {
		if string(attr.Key) == "type" && strings.Contains(attr.Value.AsString(), t) {
			return true
		}
	}
	return false
}

func outcomeOf(stub *tracetest.SpanStub) spanOutcome {
	if stub.Status.Code == codes.Error {
		return outcomeFailed
	}
	for _, attr := range stub.Attributes {
		if string(attr.Key) == constants.EXCLUDED && attr.Value.AsBool() {
			return outcomeExcluded
		}
	}
	return outcomeSucceeded
}

// GetSummary returns the runtime summary of the execution so far.
// Call it after the root span has ended.
func (e *Exporter) GetSummary() string {
	e.spansMu.Lock()
	stubs := tracetest.SpanStubsFromReadOnlySpans(e.allSpans)
	e.spansMu.Unlock()

	if len(stubs) == 0 {
		return ""
	}

	collectors := []spanTiming{}
	analyzers := []spanTiming{}
	totalDuration := time.Duration(0)

	for i := range stubs {
		stub := &stubs[i]

		timing := spanTiming{
			name:     stub.Name,
			outcome:  outcomeOf(stub),
			duration: stub.EndTime.Sub(stub.StartTime),
		}
		switch {
		case stub.Name == constants.ANALYSIS_ROOT_SPAN_NAME, stub.Name == constants.COLLECTION_ROOT_SPAN_NAME:
			totalDuration += timing.duration
		case isType(stub, "collect."):
			collectors = append(collectors, timing)
		case isType(stub, "analyzer.Analyze"):
			analyzers = append(analyzers, timing)
		}
	}

	sb := strings.Builder{}

	if len(collectors) > 0 {
		writeSummary("Collectors", collectors, &sb)
	}
	if len(analyzers) > 0 {
		writeSummary("Analyzers", analyzers, &sb)
	}
	sb.WriteString(printer.Sprintf("\nDuration: %dms\n", totalDuration/time.Millisecond))

	return sb.String()
}

func writeSummary(title string, timings []spanTiming, sb *strings.Builder) {
	sort.SliceStable(timings, func(l, r int) bool {
		return timings[l].duration > timings[r].duration
	})

	padding := 0
	for _, t := range timings {
		if l := len(t.label()); l > padding {
			padding = l
		}
	}

	sb.WriteString(printer.Sprintf("\n============= %s summary =============\n", title))
	sb.WriteString("Succeeded (S), eXcluded (X), Failed (F)\n")
	for _, t := range timings {
		sb.WriteString(printer.Sprintf("%-*s : %dms\n", padding, t.label(), t.duration/time.Millisecond))
	}
}

// Shutdown stops the exporter and drops the cached spans.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.stoppedMu.Lock()
	e.stopped = true
	e.stoppedMu.Unlock()

	e.Reset()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return nil
}

func (e *Exporter) Reset() {
	e.spansMu.Lock()
	e.allSpans = e.allSpans[:0]
	e.spansMu.Unlock()
}

// MarshalLog is the marshaling function used by the logging system to represent this exporter.
func (e *Exporter) MarshalLog() interface{} {
	return struct {
		Type string
	}{
		Type: "testlog-analyzer",
	}
}
