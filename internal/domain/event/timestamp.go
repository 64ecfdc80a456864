package event

import (
	"strconv"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an event timestamp. Integers are Unix milliseconds.
// Values that match none of the accepted layouts order as the Unix epoch and
// report ok=false.
func ParseTimestamp(ts string) (time.Time, bool) {
	if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, ts); err == nil {
			return parsed, true
		}
	}
	return time.Unix(0, 0).UTC(), false
}
