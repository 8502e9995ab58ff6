// Package period derives billing period identifiers from timestamps.
package period

import "time"

// Layout is the canonical billing period format, one period per calendar
// month in UTC.
const Layout = "2006-01"

// FromTime returns the period identifier containing t.
func FromTime(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Previous returns the period identifier of the calendar month before t.
func Previous(t time.Time) string {
	year, month, _ := t.UTC().Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0).Format(Layout)
}

// NextBoundary returns the first instant of the next period after t.
func NextBoundary(t time.Time) time.Time {
	year, month, _ := t.UTC().Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
