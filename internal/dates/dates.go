// Package dates turns the date strings that feeds actually publish into
// timestamps the sources table can hold.
package dates

import (
	"log/slog"
	"strings"
	"time"
)

// layouts is tried strictly in order; the first one that parses wins.
// Feeds disagree wildly on date formats, so the list covers ISO-8601 with and
// without zone and fractional seconds, plain datetimes, RFC-2822 variants,
// and the two slash-delimited regional orders (day-first tried first).
var layouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon, 02 Jan 2006 15:04:05 GMT",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 GMT",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
}

// Normalize parses a raw feed date into a timestamp. The zone offset is
// discarded rather than converted: the sources are too inconsistent about
// zones for absolute time to mean anything, and the database orders rows
// itself. Empty or unparseable input degrades to the current instant;
// Normalize never fails.
func Normalize(raw string, log *slog.Logger) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now()
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		return stripZone(t)
	}

	if log != nil {
		log.Warn("could not parse date, using current time", "raw", raw)
	}
	return time.Now()
}

// stripZone keeps the wall clock and drops the offset.
func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
