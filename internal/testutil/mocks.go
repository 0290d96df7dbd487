package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stepflow/stepflow/pkg/agenda"
)

// MockStepClock implements the engine's StepClock interface with manually
// controlled step and time progression. Tests drive it explicitly, so the
// step/time correspondence can be made to drift on purpose.
type MockStepClock struct {
	mu   sync.Mutex
	step agenda.Step
	now  time.Time
	dur  time.Duration
}

// NewMockStepClock creates a clock at step 0 with the given start instant
// and nominal step duration.
func NewMockStepClock(start time.Time, stepDuration time.Duration) *MockStepClock {
	return &MockStepClock{now: start.UTC(), dur: stepDuration}
}

// CurrentStep returns the current execution step.
func (m *MockStepClock) CurrentStep() agenda.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// CurrentTime returns the current absolute instant.
func (m *MockStepClock) CurrentTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// StepDuration returns the nominal wall time per step.
func (m *MockStepClock) StepDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dur
}

// AdvanceSteps moves n steps forward, advancing time by n step durations.
func (m *MockStepClock) AdvanceSteps(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step += agenda.Step(n)
	m.now = m.now.Add(time.Duration(n) * m.dur)
}

// AdvanceTime moves only the wall clock, leaving the step untouched. This
// simulates a stalled step cadence.
func (m *MockStepClock) AdvanceTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// SetStepDuration changes the nominal step duration, simulating a cadence
// change between registration and resync.
func (m *MockStepClock) SetStepDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dur = d
}

// Dispatched records one dispatch observed by a RecordingDispatcher.
type Dispatched struct {
	Origin interface{}
	Action interface{}
}

// RecordingDispatcher captures every dispatch in order and optionally fails
// actions matched by FailWhen.
type RecordingDispatcher struct {
	mu    sync.Mutex
	calls []Dispatched

	// FailWhen, if set, returns a non-nil error for dispatches that should
	// fail. Set before use; not synchronized.
	FailWhen func(origin, action interface{}) error
}

// NewRecordingDispatcher creates an empty recorder.
func NewRecordingDispatcher() *RecordingDispatcher {
	return &RecordingDispatcher{}
}

// Dispatch implements the dispatch.Dispatcher interface.
func (r *RecordingDispatcher) Dispatch(_ context.Context, origin, action interface{}) error {
	r.mu.Lock()
	r.calls = append(r.calls, Dispatched{Origin: origin, Action: action})
	r.mu.Unlock()

	if r.FailWhen != nil {
		return r.FailWhen(origin, action)
	}
	return nil
}

// Calls returns a copy of the recorded dispatches in call order.
func (r *RecordingDispatcher) Calls() []Dispatched {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Dispatched, len(r.calls))
	copy(out, r.calls)
	return out
}

// Actions returns just the recorded actions in call order.
func (r *RecordingDispatcher) Actions() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interface{}, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Action
	}
	return out
}

// Reset clears the recorded dispatches.
func (r *RecordingDispatcher) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
