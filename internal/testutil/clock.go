// Package testutil provides helpers shared by tests.
package testutil

import "time"

// FixedDate is the pinned evaluation date used across tests.
const FixedDate = "2026-08-01"

// FixedNow returns the pinned time corresponding to FixedDate.
// Commands take a now-function so tests get stable last_reviewed stamps
// and staleness math.
func FixedNow() time.Time {
	t, err := time.Parse("2006-01-02", FixedDate)
	if err != nil {
		panic(err)
	}
	return t
}

// DaysBefore returns the date n days before FixedDate, formatted the way
// the store writes last_reviewed.
func DaysBefore(n int) string {
	return FixedNow().AddDate(0, 0, -n).Format("2006-01-02")
}
