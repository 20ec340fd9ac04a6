package core

import "time"

// DayLayout matches the persisted reset-date format, e.g. "Mon Jan 01 2024".
const DayLayout = "Mon Jan 02 2006"

// Day is a system-local calendar date. Two days are the same day only when
// their string forms are equal.
type Day string

// DayOf returns the local calendar day of t.
func DayOf(t time.Time) Day {
	return Day(t.Local().Format(DayLayout))
}

func (d Day) String() string {
	return string(d)
}

func (d Day) IsZero() bool {
	return d == ""
}
