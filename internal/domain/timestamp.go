package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// explicitOffset matches a trailing numeric UTC offset such as +07:00, -0500 or +07.
var explicitOffset = regexp.MustCompile(`[+-]\d{2}(:?\d{2})?$`)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02Z07:00",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone
// designator are treated as UTC: a trailing "Z" is appended when neither "Z"
// nor an explicit offset is present. A bare date is midnight UTC. The result
// is always in UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if !hasZone(s) {
		s += "Z"
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

func hasZone(s string) bool {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return true
	}
	// the date part itself contains '-' separators, so only look after the time
	idx := strings.IndexAny(s, "T ")
	if idx < 0 {
		return false
	}
	return explicitOffset.MatchString(s[idx+1:])
}
