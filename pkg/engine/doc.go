/*
Package engine implements the calendar-aware scheduling engine for
deterministic, tick-driven host environments.

The host owns the engine and drives it: it calls RunStep exactly once per
execution step, registration and cancellation operations between steps, and
Sync whenever the step/time correspondence may have drifted. The engine has
no background goroutines, no timers, and no autonomous behavior of any kind;
every operation runs to completion before the next begins. That is what
makes it replayable: independent executors that feed the same operation
sequence to their own engine instance reach the identical firing order and
final state.

Basic usage:

	eng, err := engine.New(engine.Config{
		Clock:      hostClock, // StepClock collaborator
		Dispatcher: dispatcher,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Fire monthly from start, 12 occurrences, ordinary priority.
	addr, err := eng.Schedule(origin,
		schedule.Every(start, schedule.Period{Months: 1}, 12),
		128, action)

	// Host step loop.
	for {
		step := hostClock.CurrentStep()
		eng.RunStep(ctx, step)
		// ... host advances to the next step
	}

Trigger steps are derived, never authoritative: the schedule's start instant,
recurrence, and occurrence index are the source of truth, and the engine maps
the next occurrence instant onto a step using the clock's current step, time,
and nominal step duration. When the real cadence diverges from that nominal
rate, a Sync sweep re-derives every entry's trigger step from calendar truth;
it fires nothing, changes no occurrence counts, and is idempotent.

Dispatch failures are logged and counted but never abort a step and are
never retried; the worst case is one dropped action, never a corrupted
agenda.
*/
package engine
