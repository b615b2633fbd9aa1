package analyzer

import (
	"encoding/json"
	"time"

	"github.com/replicatedhq/testlog-analyzer/pkg/multitype"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a negative finding recorded against a category.
type Issue struct {
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Insight is a positive or confirmatory finding recorded against a category.
type Insight struct {
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// TimelineEvent marks one timestamp found in a category's log.
type TimelineEvent struct {
	Category  string  `json:"category"`
	Timestamp LogTime `json:"timestamp"`
	Event     string  `json:"event"`
}

// LogTime is a wall clock reading taken from a log line. Log timestamps carry no
// zone, so it is rendered without one.
type LogTime struct {
	time.Time
}

const logTimeLayout = "2006-01-02T15:04:05"

func (t LogTime) String() string {
	return t.Format(logTimeLayout)
}

func (t LogTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *LogTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(logTimeLayout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Collector accumulates everything the source analyzers find during one run.
// It is owned by a single run and is not safe for concurrent writers.
type Collector struct {
	issues   []Issue
	insights []Insight
	timeline []TimelineEvent
	metrics  *Metrics

	now func() time.Time
}

// NewCollector returns an empty collector. now stamps issues and insights;
// nil means time.Now.
func NewCollector(now func() time.Time) *Collector {
	if now == nil {
		now = time.Now
	}
	return &Collector{
		issues:   []Issue{},
		insights: []Insight{},
		timeline: []TimelineEvent{},
		metrics:  NewMetrics(),
		now:      now,
	}
}

func (c *Collector) AddIssue(category, message string, severity Severity) {
	c.issues = append(c.issues, Issue{
		Category:  category,
		Message:   message,
		Severity:  severity,
		Timestamp: c.now(),
	})
}

func (c *Collector) AddInsight(category, message string) {
	c.insights = append(c.insights, Insight{
		Category:  category,
		Message:   message,
		Timestamp: c.now(),
	})
}

func (c *Collector) AddTimelineEvent(category string, timestamp time.Time, event string) {
	c.timeline = append(c.timeline, TimelineEvent{
		Category:  category,
		Timestamp: LogTime{Time: timestamp},
		Event:     event,
	})
}

func (c *Collector) SetMetric(category, facet string, value multitype.Value) {
	c.metrics.Set(MetricKey{Category: category, Facet: facet}, value)
}

func (c *Collector) Issues() []Issue {
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)
	return out
}

func (c *Collector) Insights() []Insight {
	out := make([]Insight, len(c.insights))
	copy(out, c.insights)
	return out
}

func (c *Collector) Timeline() []TimelineEvent {
	out := make([]TimelineEvent, len(c.timeline))
	copy(out, c.timeline)
	return out
}

func (c *Collector) Metrics() *Metrics {
	return c.metrics
}
