package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Period is a compound calendar increment. All units are applied together as
// one atomic step: first the date components (years, months, weeks, days),
// then the clock components. Calendar-dependent lengths (months, leap years)
// are resolved by the Calendar that applies the period.
type Period struct {
	Years  int
	Months int
	Weeks  int
	Days   int

	Hours   int
	Minutes int
	Seconds int
	Millis  int
}

// IsZero reports whether the period advances time by nothing at all.
func (p Period) IsZero() bool {
	return p == Period{}
}

// clock returns the fixed-length portion of the period.
func (p Period) clock() time.Duration {
	return time.Duration(p.Hours)*time.Hour +
		time.Duration(p.Minutes)*time.Minute +
		time.Duration(p.Seconds)*time.Second +
		time.Duration(p.Millis)*time.Millisecond
}

// valid reports whether every unit is non-negative and at least one is positive.
func (p Period) valid() bool {
	for _, v := range []int{p.Years, p.Months, p.Weeks, p.Days, p.Hours, p.Minutes, p.Seconds, p.Millis} {
		if v < 0 {
			return false
		}
	}
	return !p.IsZero()
}

// String renders the period in compact unit notation, e.g. "1y2mo5d30m".
func (p Period) String() string {
	if p.IsZero() {
		return "0"
	}
	var b strings.Builder
	units := []struct {
		v int
		u string
	}{
		{p.Years, "y"}, {p.Months, "mo"}, {p.Weeks, "w"}, {p.Days, "d"},
		{p.Hours, "h"}, {p.Minutes, "m"}, {p.Seconds, "s"}, {p.Millis, "ms"},
	}
	for _, u := range units {
		if u.v != 0 {
			fmt.Fprintf(&b, "%d%s", u.v, u.u)
		}
	}
	return b.String()
}

// Calendar applies a Period to an absolute instant. Implementations must be
// pure: no state, and identical inputs always produce the identical output.
type Calendar interface {
	// AddPeriod returns the instant one period after t.
	AddPeriod(t time.Time, p Period) time.Time
}

// StdCalendar applies periods with Go's proleptic Gregorian time arithmetic.
// Month and year addition normalizes overflow the way time.Time.AddDate does
// (Jan 31 + 1 month = Mar 2/3).
type StdCalendar struct{}

// Std is the default calendar used when none is supplied.
var Std Calendar = StdCalendar{}

// AddPeriod implements Calendar.
func (StdCalendar) AddPeriod(t time.Time, p Period) time.Time {
	t = t.AddDate(p.Years, p.Months, p.Weeks*7+p.Days)
	return t.Add(p.clock())
}
