package assistant

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeTimePattern = regexp.MustCompile(`(?:last|past|during|this)\s+(\d+)?\s*(day|week|month|year)s?|(\d+)\s*(day|week|month|year)s?\s+ago`)

var dateKeywordPattern = regexp.MustCompile(`(?i)yesterday|today|this\s+week|last\s+week|this\s+month|last\s+month`)

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// emailDateRange resolves date language in an email query ("yesterday",
// "last 2 weeks", "3 days ago") into an open or closed received-at range.
// Both bounds are nil when the query has no date language.
func emailDateRange(query string, now time.Time) (after, before *time.Time) {
	q := strings.ToLower(query)

	if strings.Contains(q, "yesterday") {
		start := startOfDay(now.AddDate(0, 0, -1))
		end := endOfDay(start)
		return &start, &end
	}
	if strings.Contains(q, "today") {
		start := startOfDay(now)
		return &start, nil
	}

	m := relativeTimePattern.FindStringSubmatch(q)
	if m == nil {
		return nil, nil
	}
	numStr := m[1]
	if numStr == "" {
		numStr = m[3]
	}
	number, err := strconv.Atoi(numStr)
	if err != nil || number < 1 {
		number = 1
	}
	unit := m[2]
	if unit == "" {
		unit = m[4]
	}

	var start time.Time
	switch unit {
	case "day":
		start = now.AddDate(0, 0, -number)
	case "week":
		start = now.AddDate(0, 0, -number*7)
	case "month":
		start = now.AddDate(0, -number, 0)
	case "year":
		start = now.AddDate(-number, 0, 0)
	default:
		return nil, nil
	}
	return &start, nil
}

// stripDateKeywords removes resolved date language so the remainder can be
// used as a plain text filter.
func stripDateKeywords(query string) string {
	return strings.TrimSpace(dateKeywordPattern.ReplaceAllString(query, ""))
}

// calendarDateRange resolves date language in a calendar query into a
// start-time range. "This week" runs Sunday through Saturday.
func calendarDateRange(query string, now time.Time) (after, before *time.Time) {
	q := strings.ToLower(query)

	switch {
	case strings.Contains(q, "today"):
		start := startOfDay(now)
		end := endOfDay(now)
		return &start, &end
	case strings.Contains(q, "tomorrow"):
		start := startOfDay(now.AddDate(0, 0, 1))
		end := endOfDay(start)
		return &start, &end
	case strings.Contains(q, "this week"):
		start := startOfDay(now.AddDate(0, 0, -int(now.Weekday())))
		end := endOfDay(start.AddDate(0, 0, 6))
		return &start, &end
	case strings.Contains(q, "this month"):
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := endOfDay(start.AddDate(0, 1, -1))
		return &start, &end
	case strings.Contains(q, "upcoming"), strings.Contains(q, "future"), strings.Contains(q, "scheduled"):
		return &now, nil
	}
	return nil, nil
}

// parseBoundaryDate resolves an explicit tool-call date that may be a
// keyword ("today", "tomorrow") or a parseable timestamp. startOf selects
// which end of the day a keyword resolves to.
func parseBoundaryDate(value string, now time.Time, startOf bool) (time.Time, error) {
	switch strings.ToLower(value) {
	case "today":
		if startOf {
			return startOfDay(now), nil
		}
		return endOfDay(now), nil
	case "tomorrow":
		t := now.AddDate(0, 0, 1)
		if startOf {
			return startOfDay(t), nil
		}
		return endOfDay(t), nil
	}
	return parseTimestamp(value, now.Location())
}

// parseTimestamp accepts the formats models emit for event times.
func parseTimestamp(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %q", value)
}
