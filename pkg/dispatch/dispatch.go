package dispatch

import "context"

// Dispatcher executes a fired action under its origin's authority. The
// scheduling engine treats failures as logged-and-continue: an error never
// aborts the step and is never retried by the engine.
type Dispatcher interface {
	Dispatch(ctx context.Context, origin, action interface{}) error
}

// Func adapts a function to the Dispatcher interface.
type Func func(ctx context.Context, origin, action interface{}) error

// Dispatch implements Dispatcher.
func (f Func) Dispatch(ctx context.Context, origin, action interface{}) error {
	return f(ctx, origin, action)
}

// Discard drops every action. Useful as a default and in tests.
var Discard Dispatcher = Func(func(context.Context, interface{}, interface{}) error {
	return nil
})
