package schedule

import (
	"time"

	"github.com/robfig/cron/v3"

	sferrors "github.com/stepflow/stepflow/pkg/common/errors"
)

// Forever marks a recurrence with no finite occurrence bound.
const Forever = -1

// cronParser accepts standard five-field crontab expressions, an optional
// leading seconds field, and @descriptors.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Schedule describes when an action should fire: an absolute UTC start
// instant, an optional end bound, and an optional recurrence. Exactly one of
// Period and Cron may be set; neither makes the schedule one-shot.
//
// Repeat is the total number of occurrences including the first, or Forever.
// One-shot schedules always have one occurrence regardless of Repeat.
type Schedule struct {
	Start  time.Time
	End    time.Time // zero value means no end bound
	Period Period
	Cron   string
	Repeat int

	parsed cron.Schedule // set by Validate for cron recurrences
}

// Once returns a one-shot schedule firing at the given instant.
func Once(at time.Time) Schedule {
	return Schedule{Start: at.UTC(), Repeat: 1}
}

// Every returns a schedule firing at start and then once per period, for
// repeat total occurrences (or Forever).
func Every(start time.Time, p Period, repeat int) Schedule {
	return Schedule{Start: start.UTC(), Period: p, Repeat: repeat}
}

// FromCron returns a schedule firing at start and then at each instant the
// cron expression matches after the previous occurrence, for repeat total
// occurrences (or Forever).
func FromCron(start time.Time, expr string, repeat int) Schedule {
	return Schedule{Start: start.UTC(), Cron: expr, Repeat: repeat}
}

// Until returns a copy of the schedule with an end bound. Occurrences whose
// instant falls after end are never fired.
func (s Schedule) Until(end time.Time) Schedule {
	s.End = end.UTC()
	return s
}

// Recurs reports whether the schedule has a recurrence.
func (s Schedule) Recurs() bool {
	return !s.Period.IsZero() || s.Cron != ""
}

// Occurrences returns the total occurrence bound: 1 for one-shot schedules,
// Forever for unbounded recurrences, the repeat count otherwise.
func (s Schedule) Occurrences() int {
	if !s.Recurs() {
		return 1
	}
	return s.Repeat
}

// Validate checks the schedule and prepares it for occurrence derivation.
// It must be called before Occurrence or NextAfter on schedules built by
// hand; the engine validates at registration. Violations unwrap to
// ErrInvalidSchedule.
func (s *Schedule) Validate() error {
	if s.Start.IsZero() {
		return sferrors.NewValidationError("schedule", "start", s.Start, "start instant required")
	}
	if !s.End.IsZero() && s.End.Before(s.Start) {
		return sferrors.NewValidationError("schedule", "end", s.End, "end precedes start")
	}
	if !s.Period.IsZero() && s.Cron != "" {
		return sferrors.NewValidationError("schedule", "recurrence", s.Cron, "period and cron are mutually exclusive")
	}
	if !s.Period.IsZero() && !s.Period.valid() {
		return sferrors.NewValidationError("schedule", "period", s.Period.String(), "period must advance time")
	}
	if s.Cron != "" {
		parsed, err := cronParser.Parse(s.Cron)
		if err != nil {
			return sferrors.NewValidationError("schedule", "cron", s.Cron, err.Error())
		}
		s.parsed = parsed
	}
	if s.Recurs() {
		if s.Repeat != Forever && s.Repeat < 1 {
			return sferrors.NewValidationError("schedule", "repeat", s.Repeat, "must be at least 1 or Forever")
		}
	} else {
		s.Repeat = 1
	}
	s.Start = s.Start.UTC()
	if !s.End.IsZero() {
		s.End = s.End.UTC()
	}
	return nil
}

// Occurrence returns the absolute instant of the 0-based nth occurrence,
// derived from the start instant. It returns ErrExhausted when n is past the
// repeat bound or the computed instant falls after the end bound.
func (s Schedule) Occurrence(cal Calendar, n int) (time.Time, error) {
	if n < 0 {
		return time.Time{}, sferrors.ErrExhausted
	}
	if bound := s.Occurrences(); bound != Forever && n >= bound {
		return time.Time{}, sferrors.ErrExhausted
	}
	t := s.Start
	for i := 0; i < n; i++ {
		var err error
		if t, err = s.advance(cal, t); err != nil {
			return time.Time{}, err
		}
	}
	return s.checkEnd(t)
}

// NextAfter returns the first occurrence index >= fromIdx whose instant is
// not before at, together with that instant. This is the fast-forward rule:
// occurrences already in the past are skipped, never fired in bulk. It
// returns ErrExhausted when no such occurrence exists.
func (s Schedule) NextAfter(cal Calendar, fromIdx int, at time.Time) (int, time.Time, error) {
	n := fromIdx
	if n < 0 {
		n = 0
	}
	t, err := s.Occurrence(cal, n)
	if err != nil {
		return 0, time.Time{}, err
	}
	bound := s.Occurrences()
	for t.Before(at) {
		n++
		if bound != Forever && n >= bound {
			return 0, time.Time{}, sferrors.ErrExhausted
		}
		if t, err = s.advance(cal, t); err != nil {
			return 0, time.Time{}, err
		}
		if t, err = s.checkEnd(t); err != nil {
			return 0, time.Time{}, err
		}
	}
	return n, t, nil
}

// advance applies the recurrence once to t.
func (s Schedule) advance(cal Calendar, t time.Time) (time.Time, error) {
	if cal == nil {
		cal = Std
	}
	if !s.Period.IsZero() {
		return cal.AddPeriod(t, s.Period), nil
	}
	sched := s.parsed
	if sched == nil {
		// Validate was skipped; parse on the fly so derivation stays total.
		parsed, err := cronParser.Parse(s.Cron)
		if err != nil {
			return time.Time{}, sferrors.NewValidationError("schedule", "cron", s.Cron, err.Error())
		}
		sched = parsed
	}
	next := sched.Next(t.UTC())
	if next.IsZero() {
		// robfig/cron gives up after ~5 years with no matching instant.
		return time.Time{}, sferrors.ErrExhausted
	}
	return next, nil
}

func (s Schedule) checkEnd(t time.Time) (time.Time, error) {
	if !s.End.IsZero() && t.After(s.End) {
		return time.Time{}, sferrors.ErrExhausted
	}
	return t, nil
}
