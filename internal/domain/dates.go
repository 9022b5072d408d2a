package domain

import "time"

// DateUnknown is the reserved recency-key sentinel for documents without a
// known date. Age-based deletion filters must exclude it explicitly.
const DateUnknown = 0

// DateNum converts a time to its YYYYMMDD integer recency key (UTC calendar day).
func DateNum(t time.Time) int {
	t = t.UTC()
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// DateNumFromISO converts an ISO "YYYY-MM-DD" date string to its YYYYMMDD
// integer. Returns DateUnknown for empty or malformed input.
func DateNumFromISO(iso string) int {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return DateUnknown
	}
	return DateNum(t)
}

// ISODate renders a time as an ISO "YYYY-MM-DD" calendar date (UTC).
func ISODate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// CutoffNum returns the YYYYMMDD recency key of `days` days before now.
func CutoffNum(now time.Time, days int) int {
	return DateNum(now.UTC().AddDate(0, 0, -days))
}
