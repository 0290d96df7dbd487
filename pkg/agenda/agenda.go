package agenda

import (
	"fmt"
	"sort"

	sferrors "github.com/stepflow/stepflow/pkg/common/errors"
	"github.com/stepflow/stepflow/pkg/schedule"
)

// Step is one discrete unit of forward progress in the host environment,
// e.g. a block number. It is the only granularity at which entries fire.
type Step uint64

// Priority orders entries due at the same step; lower values dispatch first.
type Priority = uint8

// HardDeadline is the conventional boundary below which an entry is
// considered time-critical by outer frameworks. The agenda itself treats it
// as an ordinary priority value.
const HardDeadline Priority = 63

// Address identifies an entry for its whole lifetime. Step is the bucket the
// entry was first scheduled into and Index its slot within that bucket; the
// pair stays fixed even after the entry is rescheduled to later steps.
type Address struct {
	Step  Step
	Index uint32
}

func (a Address) String() string {
	return fmt.Sprintf("%d/%d", a.Step, a.Index)
}

// State is the transient lifecycle position of an entry within one step's
// processing. Entries at rest are always Pending.
type State uint8

const (
	// Pending means the entry sits in a future bucket waiting to fire.
	Pending State = iota
	// Due means the entry's bucket is being processed this step.
	Due
	// Fired means the dispatch collaborator has been invoked this step.
	Fired
	// Rescheduled means a further occurrence remains and the entry has
	// moved to a later bucket.
	Rescheduled
	// Retired means the entry fired for the last time and left the store.
	Retired
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Due:
		return "due"
	case Fired:
		return "fired"
	case Rescheduled:
		return "rescheduled"
	case Retired:
		return "retired"
	default:
		return "unknown"
	}
}

// Entry is one pending, possibly repeating, scheduled action.
type Entry struct {
	Address  Address
	Name     string // empty for anonymous entries
	Priority Priority
	Origin   interface{} // opaque, passed through to dispatch
	Action   interface{} // opaque, passed through to dispatch

	// Schedule and Occurrence are the source of truth for when the entry
	// fires next; NextStep is derived from them and recomputable.
	Schedule   schedule.Schedule
	Occurrence int
	NextStep   Step

	State State

	seq uint64 // insertion order, tiebreak within a priority
}

// Store is the arena of live entries plus the step-bucket and name indexes.
type Store struct {
	entries map[Address]*Entry
	buckets map[Step][]Address
	names   map[string]Address
	issued  map[Step]uint32
	seq     uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[Address]*Entry),
		buckets: make(map[Step][]Address),
		names:   make(map[string]Address),
		issued:  make(map[Step]uint32),
	}
}

// Len returns the number of live entries.
func (st *Store) Len() int {
	return len(st.entries)
}

// Insert assigns the entry an address from its NextStep bucket, places it in
// the bucket ordered by (priority, insertion order), and registers its name
// if present. Nothing is mutated when the name is already live.
func (st *Store) Insert(e *Entry) (Address, error) {
	if e.Name != "" {
		if _, live := st.names[e.Name]; live {
			return Address{}, fmt.Errorf("insert %q: %w", e.Name, sferrors.ErrDuplicateName)
		}
	}

	addr := Address{Step: e.NextStep, Index: st.issued[e.NextStep]}
	st.issued[e.NextStep]++
	st.seq++
	e.seq = st.seq
	e.Address = addr
	e.State = Pending

	st.entries[addr] = e
	st.buckets[e.NextStep] = st.placeOrdered(st.buckets[e.NextStep], addr)
	if e.Name != "" {
		st.names[e.Name] = addr
	}
	return addr, nil
}

// Remove deletes the entry from the arena, its bucket, and the name index.
func (st *Store) Remove(addr Address) (*Entry, error) {
	e, ok := st.entries[addr]
	if !ok {
		return nil, fmt.Errorf("remove %s: %w", addr, sferrors.ErrNotFound)
	}
	delete(st.entries, addr)
	st.dropFromBucket(e.NextStep, addr)
	if e.Name != "" {
		delete(st.names, e.Name)
	}
	e.State = Retired
	return e, nil
}

// RemoveNamed removes the entry registered under name. The name becomes
// immediately reusable.
func (st *Store) RemoveNamed(name string) (*Entry, error) {
	addr, ok := st.names[name]
	if !ok {
		return nil, fmt.Errorf("remove named %q: %w", name, sferrors.ErrNotFound)
	}
	return st.Remove(addr)
}

// Reschedule moves the entry's bucket membership to newStep and updates its
// stored trigger step in the same operation. The entry's address is
// unchanged.
func (st *Store) Reschedule(addr Address, newStep Step) error {
	e, ok := st.entries[addr]
	if !ok {
		return fmt.Errorf("reschedule %s: %w", addr, sferrors.ErrNotFound)
	}
	if e.NextStep == newStep {
		return nil
	}
	st.dropFromBucket(e.NextStep, addr)
	e.NextStep = newStep
	st.buckets[newStep] = st.placeOrdered(st.buckets[newStep], addr)
	return nil
}

// Due returns the entries in the bucket for exactly the given step, in
// firing order. The slice is a snapshot; mutating the store afterwards does
// not affect it.
func (st *Store) Due(step Step) []*Entry {
	bucket := st.buckets[step]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]*Entry, len(bucket))
	for i, addr := range bucket {
		out[i] = st.entries[addr]
	}
	return out
}

// Lookup returns the entry at addr, if live.
func (st *Store) Lookup(addr Address) (*Entry, bool) {
	e, ok := st.entries[addr]
	return e, ok
}

// LookupNamed returns the entry registered under name, if live.
func (st *Store) LookupNamed(name string) (*Entry, bool) {
	addr, ok := st.names[name]
	if !ok {
		return nil, false
	}
	return st.Lookup(addr)
}

// Walk visits every live entry in insertion order. The visit function may
// not mutate the store; collect addresses first if removal or rescheduling
// is needed. Iteration stops early when fn returns false.
func (st *Store) Walk(fn func(*Entry) bool) {
	all := make([]*Entry, 0, len(st.entries))
	for _, e := range st.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
	for _, e := range all {
		if !fn(e) {
			return
		}
	}
}

// placeOrdered inserts addr into a bucket keeping (priority, seq) order.
func (st *Store) placeOrdered(bucket []Address, addr Address) []Address {
	e := st.entries[addr]
	i := sort.Search(len(bucket), func(i int) bool {
		o := st.entries[bucket[i]]
		if o.Priority != e.Priority {
			return o.Priority > e.Priority
		}
		return o.seq > e.seq
	})
	bucket = append(bucket, Address{})
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = addr
	return bucket
}

func (st *Store) dropFromBucket(step Step, addr Address) {
	bucket := st.buckets[step]
	for i, a := range bucket {
		if a == addr {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(st.buckets, step)
	} else {
		st.buckets[step] = bucket
	}
}
