/*
Package agenda holds the authoritative set of pending schedule entries and
the two indexes used to answer "what fires at step S" and "which entry is
called N" without scanning everything.

The Store is an arena: entries are owned by the arena and addressed by a
stable Address assigned at insertion. The per-step buckets and the name
index refer to entries by address only, so there are no ownership cycles
between the three views. All mutating operations update the three views
together or not at all.

Within a bucket, entries are ordered by priority (lower first) and then by
insertion sequence, which keeps firing order deterministic across replays.

The Store is not safe for concurrent use; the scheduling engine serializes
access, matching the single-threaded step-processing model it lives in.
*/
package agenda
