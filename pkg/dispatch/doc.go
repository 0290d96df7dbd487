/*
Package dispatch defines the collaborator the scheduling engine hands fired
actions to, and adapters for common dispatch arrangements.

The engine never interprets origins or actions; it invokes the Dispatcher
once per firing, in deterministic order, and treats any error as non-fatal.
Authorization filtering, decoding, and retries all belong on the dispatcher
side of this boundary.

Func adapts a plain function. Async decouples action execution from the
step-processing path with a bounded worker queue: the engine's dispatch call
still happens synchronously (preserving firing order), only the work runs in
the background. For cross-process execution see the redisq subpackage, which
publishes firings to a Redis Stream.
*/
package dispatch
