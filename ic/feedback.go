package ic

import "github.com/chazu/icache/shape"

// Entry is one (shape, handler) pair of a feedback record. Transitioned is
// set for keyed stores whose handler moves the receiver to another shape.
type Entry struct {
	Shape        shape.Descriptor
	Handler      *Handler
	Transitioned shape.Descriptor
}

// Feedback is the mutable IC state of one call site. It progresses through
// Uninitialized -> PreMonomorphic -> Monomorphic -> Polymorphic ->
// Megamorphic, or jumps to Generic, and only moves back through Clear.
type Feedback struct {
	access AccessDescriptor

	state      State
	savedState State // state to return to while RecomputeHandler

	entries []Entry

	// Keyed sites remember whether they have seen element indices or a
	// property name, and which one.
	keyType KeyType
	name    string

	// storeMode is shared by every handler of a keyed store record.
	storeMode StoreMode

	// Statistics for profiling
	Hits   uint64
	Misses uint64
}

func (f *Feedback) Access() AccessDescriptor { return f.access }
func (f *Feedback) State() State             { return f.state }

// SavedState returns the state the record will resume once a handler
// recomputation completes; outside RecomputeHandler it is State().
func (f *Feedback) SavedState() State {
	if f.state == RecomputeHandler {
		return f.savedState
	}
	return f.state
}

// Len is the number of call-site local entries.
func (f *Feedback) Len() int { return len(f.entries) }

// Entries returns a copy of the call-site local entries.
func (f *Feedback) Entries() []Entry {
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Shapes returns the receiver shapes of the local entries.
func (f *Feedback) Shapes() []shape.Descriptor {
	out := make([]shape.Descriptor, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Shape
	}
	return out
}

// Name returns the property name a keyed site has specialized on.
func (f *Feedback) Name() (string, bool) {
	return f.name, f.keyType == PropertyKey && f.name != ""
}

// StoreMode returns the store mode of a keyed store record.
func (f *Feedback) StoreMode() StoreMode { return f.storeMode }

func (f *Feedback) find(s shape.Descriptor) int {
	for i, e := range f.entries {
		if shape.Same(e.Shape, s) {
			return i
		}
	}
	return -1
}

// lookup returns the local handler for s.
func (f *Feedback) lookup(s shape.Descriptor) *Handler {
	switch f.state {
	case Monomorphic, Polymorphic:
		if i := f.find(s); i >= 0 {
			return f.entries[i].Handler
		}
	}
	return nil
}

func (f *Feedback) setMonomorphic(e Entry) {
	f.entries = append(f.entries[:0], e)
	f.state = Monomorphic
}

// Clear resets the record to Uninitialized. It is idempotent.
func (f *Feedback) Clear() {
	f.state = Uninitialized
	f.savedState = Uninitialized
	f.entries = f.entries[:0]
	f.keyType = ElementKey
	f.name = ""
	f.storeMode = StandardStore
}

// IsCleared reports whether the record carries no specialization.
func (f *Feedback) IsCleared() bool {
	return f.state == Uninitialized || f.state == PreMonomorphic
}

// HitRate returns the hit rate as a percentage (0-100).
func (f *Feedback) HitRate() float64 {
	total := f.Hits + f.Misses
	if total == 0 {
		return 0
	}
	return float64(f.Hits) * 100 / float64(total)
}

// Slot is the stable logical handle of a call site: its index in the
// feedback vector of the enclosing function. Slots stay valid when the
// function's code moves.
type Slot int

// Vector holds the feedback records of every call site in one function.
type Vector struct {
	name  string
	slots []*Feedback
}

// NewVector creates a vector with one slot per descriptor.
func NewVector(name string, descs ...AccessDescriptor) *Vector {
	v := &Vector{name: name}
	for _, d := range descs {
		v.Add(d)
	}
	return v
}

// Add appends a slot for a new call site.
func (v *Vector) Add(desc AccessDescriptor) Slot {
	check(desc.Validate() == nil, "invalid descriptor %s", desc)
	v.slots = append(v.slots, &Feedback{access: desc})
	return Slot(len(v.slots) - 1)
}

func (v *Vector) Name() string { return v.name }
func (v *Vector) Len() int     { return len(v.slots) }

// At returns the record of slot s, or nil if s is out of range.
func (v *Vector) At(s Slot) *Feedback {
	if s < 0 || int(s) >= len(v.slots) {
		return nil
	}
	return v.slots[s]
}

// Reset clears every record in the vector.
func (v *Vector) Reset() {
	for _, f := range v.slots {
		f.Clear()
	}
}
