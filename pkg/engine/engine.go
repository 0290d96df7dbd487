package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stepflow/stepflow/pkg/agenda"
	sferrors "github.com/stepflow/stepflow/pkg/common/errors"
	"github.com/stepflow/stepflow/pkg/common/validation"
	"github.com/stepflow/stepflow/pkg/dispatch"
	"github.com/stepflow/stepflow/pkg/metrics"
	"github.com/stepflow/stepflow/pkg/schedule"
)

// Re-exported agenda types, so most callers only import this package.
type (
	// Step is one discrete unit of forward progress in the host environment.
	Step = agenda.Step
	// Address identifies a schedule entry for its whole lifetime.
	Address = agenda.Address
	// Priority orders entries due at the same step; lower fires first.
	Priority = agenda.Priority
)

// HardDeadline is the conventional time-critical priority boundary.
const HardDeadline = agenda.HardDeadline

// StepClock exposes the host's current execution step and its absolute time.
// Both must be monotonically non-decreasing across the calls the engine
// makes within one operation. StepDuration is the host's current nominal
// wall time per step; the engine re-reads it on every operation and never
// caches a correspondence across operations.
type StepClock interface {
	CurrentStep() Step
	CurrentTime() time.Time
	StepDuration() time.Duration
}

// Config holds configuration for an Engine.
type Config struct {
	// Clock is the host's step clock collaborator. Required.
	Clock StepClock

	// Dispatcher receives fired actions (default: dispatch.Discard).
	Dispatcher dispatch.Dispatcher

	// Calendar applies recurrence periods (default: schedule.Std). Must be
	// identical across executors that need to agree on firing steps.
	Calendar schedule.Calendar

	// Logger receives structured dispatch-failure and resync events
	// (default: disabled).
	Logger zerolog.Logger

	// Name labels this engine in metrics (default: "default").
	Name string

	// Metrics configures optional Prometheus instrumentation.
	Metrics metrics.Config
}

// Engine is the scheduling engine. All methods are safe for use from a
// single host goroutine; an internal mutex additionally serializes misuse
// from concurrent callers, but no method ever blocks on anything except
// that mutex.
type Engine struct {
	mu         sync.Mutex
	clock      StepClock
	dispatcher dispatch.Dispatcher
	cal        schedule.Calendar
	log        zerolog.Logger
	name       string
	registry   *metrics.Registry
	store      *agenda.Store
}

// New creates an Engine with the given configuration.
func New(cfg Config) (*Engine, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("engine requires a step clock")
	}
	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = dispatch.Discard
	}
	cal := cfg.Calendar
	if cal == nil {
		cal = schedule.Std
	}
	name := cfg.Name
	if name == "" {
		name = "default"
	}
	return &Engine{
		clock:      cfg.Clock,
		dispatcher: dispatcher,
		cal:        cal,
		log:        cfg.Logger, // zero value discards output
		name:       name,
		registry:   cfg.Metrics.Resolve(),
		store:      agenda.NewStore(),
	}, nil
}

// Schedule registers an anonymous entry and returns its address. The first
// trigger step is derived from the schedule under the current step/time
// correspondence; occurrences already in the past are skipped. Fails with
// ErrInvalidSchedule when the schedule is malformed or has no future
// occurrence; no state is mutated on failure.
func (e *Engine) Schedule(origin interface{}, sched schedule.Schedule, priority Priority, action interface{}) (Address, error) {
	return e.ScheduleNamed("", origin, sched, priority, action)
}

// ScheduleNamed registers an entry under a unique name. In addition to the
// Schedule failure modes it fails with ErrDuplicateName when the name is
// already live.
func (e *Engine) ScheduleNamed(name string, origin interface{}, sched schedule.Schedule, priority Priority, action interface{}) (Address, error) {
	if err := validation.ValidateNotNil("engine", "action", action); err != nil {
		return Address{}, err
	}
	if err := sched.Validate(); err != nil {
		return Address{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	corr := e.correspondence()
	occ, step, err := e.firstTrigger(sched, corr)
	if err != nil {
		return Address{}, err
	}

	entry := &agenda.Entry{
		Name:       name,
		Priority:   priority,
		Origin:     origin,
		Action:     action,
		Schedule:   sched,
		Occurrence: occ,
		NextStep:   step,
	}
	addr, err := e.store.Insert(entry)
	if err != nil {
		return Address{}, err
	}

	if e.registry != nil {
		e.registry.EntriesScheduled.WithLabelValues(e.name).Inc()
		e.registry.LiveEntries.WithLabelValues(e.name).Set(float64(e.store.Len()))
	}
	e.log.Debug().
		Stringer("addr", addr).
		Str("name", name).
		Uint64("step", uint64(step)).
		Int("occurrence", occ).
		Msg("entry scheduled")
	return addr, nil
}

// Cancel removes the entry at addr from all indices. Fails with ErrNotFound
// when no such entry is live; cancellation takes effect immediately.
func (e *Engine) Cancel(addr Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.store.Remove(addr); err != nil {
		return err
	}
	e.noteCancelled()
	return nil
}

// CancelNamed removes the entry registered under name. The name becomes
// reusable immediately.
func (e *Engine) CancelNamed(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.store.RemoveNamed(name); err != nil {
		return err
	}
	e.noteCancelled()
	return nil
}

func (e *Engine) noteCancelled() {
	if e.registry != nil {
		e.registry.EntriesCancelled.WithLabelValues(e.name).Inc()
		e.registry.LiveEntries.WithLabelValues(e.name).Set(float64(e.store.Len()))
	}
}

// Reschedule replaces the schedule of a pending entry, resetting its
// occurrence counter and recomputing its trigger step. The entry keeps its
// address, name, priority, origin, and action. Returns the new trigger step.
func (e *Engine) Reschedule(addr Address, sched schedule.Schedule) (Step, error) {
	if err := sched.Validate(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.store.Lookup(addr)
	if !ok {
		return 0, fmt.Errorf("reschedule %s: %w", addr, sferrors.ErrNotFound)
	}

	corr := e.correspondence()
	occ, step, err := e.firstTrigger(sched, corr)
	if err != nil {
		return 0, err
	}

	if err := e.store.Reschedule(addr, step); err != nil {
		return 0, err
	}
	entry.Schedule = sched
	entry.Occurrence = occ
	return step, nil
}

// RescheduleNamed is Reschedule addressed by name.
func (e *Engine) RescheduleNamed(name string, sched schedule.Schedule) (Step, error) {
	e.mu.Lock()
	entry, ok := e.store.LookupNamed(name)
	e.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("reschedule named %q: %w", name, sferrors.ErrNotFound)
	}
	return e.Reschedule(entry.Address, sched)
}

// NextDispatchStep returns the step the entry is currently due to fire at.
func (e *Engine) NextDispatchStep(addr Address) (Step, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.store.Lookup(addr)
	if !ok {
		return 0, fmt.Errorf("lookup %s: %w", addr, sferrors.ErrNotFound)
	}
	return entry.NextStep, nil
}

// NextDispatchStepNamed is NextDispatchStep addressed by name.
func (e *Engine) NextDispatchStepNamed(name string) (Step, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.store.LookupNamed(name)
	if !ok {
		return 0, fmt.Errorf("lookup named %q: %w", name, sferrors.ErrNotFound)
	}
	return entry.NextStep, nil
}

// Len returns the number of live entries.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Len()
}

// EntryInfo is a read-only snapshot of one live entry.
type EntryInfo struct {
	Address    Address
	Name       string
	Priority   Priority
	NextStep   Step
	Occurrence int
	Start      time.Time
	End        time.Time
}

// List returns snapshots of all live entries ordered by trigger step, then
// priority, then insertion order.
func (e *Engine) List() []EntryInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]EntryInfo, 0, e.store.Len())
	e.store.Walk(func(entry *agenda.Entry) bool {
		out = append(out, EntryInfo{
			Address:    entry.Address,
			Name:       entry.Name,
			Priority:   entry.Priority,
			NextStep:   entry.NextStep,
			Occurrence: entry.Occurrence,
			Start:      entry.Schedule.Start,
			End:        entry.Schedule.End,
		})
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NextStep != out[j].NextStep {
			return out[i].NextStep < out[j].NextStep
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}
