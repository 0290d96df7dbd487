package engine

import (
	"context"
	"errors"
	"time"

	"github.com/stepflow/stepflow/pkg/agenda"
	sferrors "github.com/stepflow/stepflow/pkg/common/errors"
	"github.com/stepflow/stepflow/pkg/schedule"
)

// correspondence is one snapshot of the step/time mapping. It is read fresh
// from the clock for every operation and thrown away afterwards: the step
// cadence is not guaranteed to hold, so a cached correspondence is exactly
// the drift Sync exists to correct.
type correspondence struct {
	step Step
	time time.Time
	dur  time.Duration
}

func (e *Engine) correspondence() correspondence {
	c := correspondence{
		step: e.clock.CurrentStep(),
		time: e.clock.CurrentTime(),
		dur:  e.clock.StepDuration(),
	}
	if c.dur <= 0 {
		c.dur = time.Second
	}
	return c
}

// stepFor maps an absolute instant to the smallest step whose time is not
// before it. Instants at or before the snapshot time map to the current step.
func (c correspondence) stepFor(at time.Time) Step {
	if !at.After(c.time) {
		return c.step
	}
	delta := at.Sub(c.time)
	steps := delta / c.dur
	if delta%c.dur != 0 {
		steps++
	}
	return c.step + Step(steps)
}

// firstTrigger derives the occurrence index and trigger step for a schedule
// at registration time: the first occurrence at or after now, mapped onto
// the current correspondence. A schedule whose occurrences all lie in the
// past is rejected rather than fired; catch-up firing is not a thing here.
func (e *Engine) firstTrigger(sched schedule.Schedule, corr correspondence) (int, Step, error) {
	occ, at, err := sched.NextAfter(e.cal, 0, corr.time)
	if err != nil {
		if errors.Is(err, sferrors.ErrExhausted) {
			return 0, 0, sferrors.NewValidationError("engine", "schedule", sched.Start, "no future occurrence")
		}
		return 0, 0, err
	}
	return occ, corr.stepFor(at), nil
}

// RunStep processes every entry due at step s: each fires in (priority,
// insertion order) sequence, then either moves to its next occurrence's
// step or retires. It returns the number of entries fired. The host calls
// this exactly once per execution step.
//
// The lock is released around each dispatcher invocation, so fired actions
// may re-enter the engine. A cancellation lands immediately: an entry
// cancelled mid-step never fires, even when it was already due.
func (e *Engine) RunStep(ctx context.Context, s Step) int {
	e.mu.Lock()

	// One correspondence snapshot for the whole pass keeps the step
	// deterministic even if the clock collaborator ticks mid-pass.
	corr := e.correspondence()
	fired := 0
	processed := make(map[Address]struct{})

	for {
		// Re-read the bucket every iteration; re-entrant operations may
		// have changed it.
		var entry *agenda.Entry
		for _, due := range e.store.Due(s) {
			if _, done := processed[due.Address]; !done {
				entry = due
				break
			}
		}
		if entry == nil {
			break
		}
		processed[entry.Address] = struct{}{}
		entry.State = agenda.Due

		e.mu.Unlock()
		e.fire(ctx, entry)
		e.mu.Lock()
		fired++

		// The action may have cancelled or rescheduled this very entry;
		// settle only if it still belongs to this step.
		if cur, live := e.store.Lookup(entry.Address); live && cur.NextStep == s {
			e.settle(entry, s, corr)
		}
	}

	if e.registry != nil {
		e.registry.LiveEntries.WithLabelValues(e.name).Set(float64(e.store.Len()))
	}
	e.mu.Unlock()
	return fired
}

// fire invokes the dispatch collaborator for one due entry. Failure is
// logged and counted; it never aborts the step and is never retried.
func (e *Engine) fire(ctx context.Context, entry *agenda.Entry) {
	started := time.Now()
	err := e.dispatcher.Dispatch(ctx, entry.Origin, entry.Action)
	entry.State = agenda.Fired

	if e.registry != nil {
		e.registry.EntriesFired.WithLabelValues(e.name).Inc()
		e.registry.DispatchDuration.WithLabelValues(e.name).Observe(time.Since(started).Seconds())
	}
	if err != nil {
		if e.registry != nil {
			e.registry.DispatchFailures.WithLabelValues(e.name).Inc()
		}
		e.log.Warn().
			Err(err).
			Stringer("addr", entry.Address).
			Str("name", entry.Name).
			Msg("dispatch failed")
	}
}

// settle decides Fired → Rescheduled or Fired → Retired for an entry that
// fired at step s.
func (e *Engine) settle(entry *agenda.Entry, s Step, corr correspondence) {
	occ, at, err := entry.Schedule.NextAfter(e.cal, entry.Occurrence+1, corr.time)
	if err != nil {
		// Exhausted: one-shot, repeat bound hit, or past the end bound.
		e.retire(entry)
		return
	}

	next := corr.stepFor(at)
	if next <= s {
		// The next occurrence is already overdue (stalled cadence); it
		// fires on the following step, one occurrence per step, no backfill.
		next = s + 1
	}
	entry.Occurrence = occ
	if err := e.store.Reschedule(entry.Address, next); err != nil {
		// Unreachable while the entry is live; retire rather than leave a
		// stale bucket reference.
		e.retire(entry)
		return
	}
	entry.State = agenda.Pending
}

func (e *Engine) retire(entry *agenda.Entry) {
	if _, err := e.store.Remove(entry.Address); err != nil {
		return
	}
	if e.registry != nil {
		e.registry.EntriesRetired.WithLabelValues(e.name).Inc()
	}
	e.log.Debug().
		Stringer("addr", entry.Address).
		Str("name", entry.Name).
		Msg("entry retired")
}

// Sync is the resync sweep: it re-derives every live entry's trigger step
// from its calendar semantics under the current step/time correspondence
// and reschedules the ones whose stored step no longer matches. It fires
// nothing, never changes occurrence counters, and is idempotent: a second
// sweep with no intervening step or time advance changes nothing. The host
// invokes it explicitly; the engine never runs it on its own.
func (e *Engine) Sync(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	corr := e.correspondence()

	type move struct {
		addr agenda.Address
		to   Step
	}
	var moves []move
	e.store.Walk(func(entry *agenda.Entry) bool {
		at, err := entry.Schedule.Occurrence(e.cal, entry.Occurrence)
		if err != nil {
			// A live entry always has a valid pending occurrence; nothing
			// to re-derive if the calendar disagrees.
			return true
		}
		if to := corr.stepFor(at); to != entry.NextStep {
			moves = append(moves, move{addr: entry.Address, to: to})
		}
		return true
	})

	for _, m := range moves {
		if err := e.store.Reschedule(m.addr, m.to); err != nil {
			continue
		}
		if e.registry != nil {
			e.registry.ResyncMoves.WithLabelValues(e.name).Inc()
		}
		e.log.Debug().
			Stringer("addr", m.addr).
			Uint64("step", uint64(m.to)).
			Msg("resync moved entry")
	}
	return len(moves)
}
