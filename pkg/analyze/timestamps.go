package analyzer

import (
	"regexp"
	"sort"
	"time"
)

var timestampShapes = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}`),
	regexp.MustCompile(`\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2}`),
	regexp.MustCompile(`\w{3} \d{2} \d{2}:\d{2}:\d{2}`),
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// extractTimestamps returns every timestamp in body that parses with one of the
// supported layouts, sorted ascending. Matches of the slash-date and syslog shapes
// are found but have no layout, so they never appear in the result. Duplicates are kept.
func extractTimestamps(body []byte) []time.Time {
	timestamps := []time.Time{}
	for _, shape := range timestampShapes {
		for _, match := range shape.FindAll(body, -1) {
			if ts, ok := parseTimestamp(string(match)); ok {
				timestamps = append(timestamps, ts)
			}
		}
	}

	sort.SliceStable(timestamps, func(i, j int) bool {
		return timestamps[i].Before(timestamps[j])
	})

	return timestamps
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
