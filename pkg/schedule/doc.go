/*
Package schedule defines the calendar data model for stepflow: recurrence
periods expressed in calendar units, schedule bounds, and the arithmetic
used to locate the Nth occurrence of a recurring schedule.

A Schedule anchors a recurrence to an absolute UTC start instant. The
recurrence is either a compound calendar Period (years through milliseconds,
applied atomically) or a cron expression, with a finite repeat count or
Forever. Occurrence instants are always derived from the start instant, never
from a previously computed occurrence, so repeated derivation cannot
accumulate rounding drift.

Basic usage:

	// Fire at start, then monthly, three occurrences total.
	s := schedule.Every(start, schedule.Period{Months: 1}, 3)

	// Same shape with an end bound.
	s = schedule.Every(start, schedule.Period{Weeks: 2}, schedule.Forever).Until(end)

	// Cron-driven recurrence anchored at start.
	s = schedule.FromCron(start, "0 9 * * MON", schedule.Forever)

	if err := s.Validate(); err != nil {
		// rejected: errors.Is(err, errors.ErrInvalidSchedule)
	}

	at, err := s.Occurrence(schedule.Std, 2) // instant of the third firing

Calendar arithmetic is pluggable through the Calendar interface; Std applies
Go's time package semantics for variable month lengths and leap days. Any
replacement must be pure and consistent: the same inputs must always produce
the same instant, since independent executors re-derive occurrence instants
and have to agree.
*/
package schedule
