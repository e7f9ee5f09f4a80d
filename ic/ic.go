package ic

import (
	"fmt"

	"github.com/chazu/icache/shape"
)

// IC is the controller of one call site. It addresses its feedback record
// through the (vector, slot) handle and re-reads it after every step that
// may compile code, so it never holds on to record internals across a
// compilation.
type IC struct {
	iso    *Isolate
	vector *Vector
	slot   Slot
}

func (ic *IC) record() *Feedback { return ic.vector.At(ic.slot) }

func (ic *IC) Slot() Slot          { return ic.slot }
func (ic *IC) Vector() *Vector     { return ic.vector }
func (ic *IC) Feedback() *Feedback { return ic.record() }
func (ic *IC) State() State        { return ic.record().state }

// IsCleared reports whether the site carries no specialization. With ICs
// disabled every site counts as cleared.
func (ic *IC) IsCleared() bool {
	return !ic.iso.cfg.Enabled || ic.record().IsCleared()
}

// Clear resets the site to Uninitialized.
func (ic *IC) Clear() {
	t := ic.begin(Key{})
	ic.record().Clear()
	ic.end(t)
}

// MarkRecomputeHandler signals that the handler cached for receiver may no
// longer hold. The next UpdateOnAccess for that shape rebuilds it in place.
func (ic *IC) MarkRecomputeHandler(receiver shape.Descriptor) bool {
	f := ic.record()
	if f.state != Monomorphic && f.state != Polymorphic {
		return false
	}
	if f.find(receiver) < 0 {
		return false
	}
	f.savedState = f.state
	f.state = RecomputeHandler
	return true
}

// Lookup is the fast-path check of the call site: it returns the handler
// that serves an access of key on a receiver of the given shape, or false
// on a miss. A miss must be followed by UpdateOnAccess.
func (ic *IC) Lookup(receiver shape.Descriptor, key Key) (*Handler, bool) {
	f := ic.record()
	h := ic.lookup(f, receiver, key)
	if h == nil || h.IsStale() {
		f.Misses++
		return nil, false
	}
	f.Hits++
	return h, true
}

func (ic *IC) lookup(f *Feedback, receiver shape.Descriptor, key Key) *Handler {
	if !ic.iso.cfg.Enabled {
		return ic.slowHandler(f.access)
	}
	switch f.state {
	case Monomorphic, Polymorphic:
		if !f.keyMatches(key) {
			return nil
		}
		return f.lookup(receiver)
	case Megamorphic:
		if f.access.Kind.IsStore() {
			h, err := ic.iso.compiler.ComputeMegamorphicStoreHandler(f.access.Language)
			if err != nil {
				return nil
			}
			return h
		}
		h, _ := ic.iso.mega.Lookup(receiver, key.Name(), MegamorphicFlags(f.access, key))
		return h
	case Generic:
		return ic.slowHandler(f.access)
	}
	return nil
}

// keyMatches reports whether the local entries of a record apply to key:
// element entries serve only indices, name entries only their name. Named
// sites always hold name entries.
func (f *Feedback) keyMatches(key Key) bool {
	if key.IsIndex() {
		return f.keyType == ElementKey
	}
	return f.keyType == PropertyKey && f.name == key.Name()
}

// IsStale reports whether a handler's guarded assumptions were invalidated.
func (h *Handler) IsStale() bool {
	var cell ValidityCell
	switch s := h.Strategy().(type) {
	case LoadPrototypeField:
		cell = s.Cell
	case LoadConstant:
		cell = s.Cell
	case LoadAccessor:
		cell = s.Cell
	case LoadNonexistent:
		cell = s.Cell
	case StoreTransition:
		cell = s.Cell
	case StoreAccessor:
		cell = s.Cell
	}
	return cell != nil && !cell.Valid()
}

// MegamorphicFlags is the flags component of the stub-table key for an
// access of key.
func MegamorphicFlags(d AccessDescriptor, key Key) Flags {
	return ComputeFlags(d.Kind, Megamorphic, d.WithStoreMode(StandardStore).extraState(key.Type()), CacheOnReceiver)
}

func (ic *IC) slowHandler(d AccessDescriptor) *Handler {
	h, err := ic.iso.compiler.SlowHandler(d.Kind, d.WithStoreMode(StandardStore).extraState(ElementKey))
	if err != nil {
		// The emitter refusing the runtime path leaves nothing to run.
		panic(fmt.Errorf("%w: no slow handler for %s: %v", ErrInvalidDescriptor, d.Kind, err))
	}
	return h
}

// UpdateOnAccess advances the site's feedback after a fast-path miss of an
// access of key on a receiver of the given shape. desc is the access as
// performed, including the store mode of a keyed store. It returns the
// handler the site now uses for this access, or nil when none was
// committed.
//
// Nothing here fails observably: shapes that cannot be specialized send the
// site to Generic and capacity overflow sends it to Megamorphic.
func (ic *IC) UpdateOnAccess(receiver shape.Descriptor, desc AccessDescriptor, key Key) *Handler {
	f := ic.record()
	check(desc.Validate() == nil, "invalid descriptor %s", desc)
	check(desc.compatible(f.access), "%s access on %s site", desc, f.access)
	check(f.access.Kind.IsKeyed() || !key.IsIndex(), "element key %s on %s", key, f.access.Kind)

	t := ic.begin(key)
	defer func() { ic.end(t) }()

	if !ic.iso.cfg.Enabled {
		f.entries = f.entries[:0]
		f.state = Generic
		return ic.slowHandler(desc)
	}
	if f.state == RecomputeHandler && f.find(receiver) < 0 {
		f.state = f.savedState
	}

	switch f.state {
	case Generic:
		return ic.slowHandler(desc)
	case Uninitialized:
		f.state = PreMonomorphic
		return nil
	}
	if receiver.IsDeprecated() {
		// The object migrates on the slow path and comes back with its new
		// shape.
		return nil
	}
	if f.state == Megamorphic {
		return ic.updateMegamorphic(&t, receiver, desc, key)
	}
	if desc.Kind == KeyedStoreIC && key.IsIndex() {
		return ic.updateStoreElement(&t, receiver, desc, key)
	}
	return ic.updateLocal(&t, receiver, desc, key)
}

// computeHandler builds the handler for an access that is not an element
// store.
func (ic *IC) computeHandler(receiver shape.Descriptor, desc AccessDescriptor, key Key) (*Handler, error) {
	c := ic.iso.compiler
	if desc.Kind == KeyedLoadIC && key.IsIndex() {
		return c.computeKeyedLoad(receiver, desc.extraState(ElementKey), key.String())
	}
	if ic.iso.resolver == nil {
		return nil, fmt.Errorf("%w: no property resolver", ErrUnspecializable)
	}
	var l Lookup
	if desc.Kind.IsLoad() {
		l = ic.iso.resolver.ResolveLoad(receiver, key.Name())
	} else {
		l = ic.iso.resolver.ResolveStore(receiver, key.Name())
	}
	return c.ComputeNamedHandler(desc.Kind, desc.extraState(PropertyKey), receiver, key.Name(), l)
}

// updateLocal handles the PreMonomorphic, Monomorphic, RecomputeHandler and
// Polymorphic states for every access except element stores.
func (ic *IC) updateLocal(t *transition, receiver shape.Descriptor, desc AccessDescriptor, key Key) *Handler {
	f := ic.record()
	if f.state != PreMonomorphic && !f.keyMatches(key) {
		if f.keyType == PropertyKey && !key.IsIndex() {
			return ic.goMegamorphic(t, receiver, desc, key, errNameMismatch)
		}
		return ic.goMegamorphic(t, receiver, desc, key, errMixedKeys)
	}

	// A shape already present means its handler went stale.
	if i := f.find(receiver); i >= 0 && f.state != PreMonomorphic {
		return ic.recompute(t, i, receiver, desc, key)
	}

	h, err := ic.computeHandler(receiver, desc, key)
	if err != nil {
		return ic.goGeneric(t, desc, err)
	}
	f = ic.record()
	ic.checkConsistent(f, h)
	e := Entry{Shape: receiver, Handler: h}

	switch f.state {
	case PreMonomorphic:
		f.keyType = key.Type()
		f.name = key.Name()
		f.setMonomorphic(e)
		return h
	case Monomorphic:
		prev := f.entries[0].Shape
		if prev.IsDeprecated() || (desc.Kind == KeyedLoadIC && key.IsIndex() &&
			shape.IsMoreGeneralElementsKindTransition(prev.ElementsKind(), receiver.ElementsKind())) {
			// Assume the more general shape replaces the old one for good.
			f.setMonomorphic(e)
			return h
		}
	}

	for i, old := range f.entries {
		if old.Shape.IsDeprecated() {
			f.entries[i] = e
			return h
		}
	}
	if len(f.entries) >= ic.iso.cfg.PolymorphicCapacity {
		return ic.goMegamorphic(t, receiver, desc, key, ErrCapacityExceeded)
	}
	f.entries = append(f.entries, e)
	if len(f.entries) > 1 {
		f.state = Polymorphic
	}
	return h
}

// recompute rebuilds the handler of entry i in place. The prior state is
// restored afterwards whether or not the handler changed.
func (ic *IC) recompute(t *transition, i int, receiver shape.Descriptor, desc AccessDescriptor, key Key) *Handler {
	f := ic.record()
	if f.state != RecomputeHandler {
		f.savedState = f.state
		f.state = RecomputeHandler
	}
	t.from = RecomputeHandler
	t.reason = ErrHandlerStale

	h, err := ic.computeHandler(receiver, desc, key)
	if err != nil {
		return ic.goGeneric(t, desc, err)
	}
	f = ic.record()
	ic.checkConsistent(f, h)
	f.state = f.savedState
	if f.entries[i].Handler == h {
		t.reason = errHandlerUnchanged
		return h
	}
	f.entries[i].Handler = h
	return h
}

func (ic *IC) updateMegamorphic(t *transition, receiver shape.Descriptor, desc AccessDescriptor, key Key) *Handler {
	c := ic.iso.compiler
	if desc.Kind.IsStore() && key.IsIndex() {
		h, err := c.ComputeMegamorphicStoreHandler(desc.Language)
		if err != nil {
			return ic.goGeneric(t, desc, err)
		}
		return h
	}
	h, err := ic.computeHandler(receiver, desc, key)
	if err != nil {
		return ic.goGeneric(t, desc, err)
	}
	ic.iso.mega.Insert(receiver, key.Name(), MegamorphicFlags(desc, key), h)
	return h
}

// goMegamorphic abandons call-site local feedback. For name-keyed and
// load sites the local entries and the current access move into the
// megamorphic stub table.
func (ic *IC) goMegamorphic(t *transition, receiver shape.Descriptor, desc AccessDescriptor, key Key, reason error) *Handler {
	f := ic.record()
	t.reason = reason
	if f.access.Kind.IsLoad() || f.keyType == PropertyKey {
		ic.copyToMegamorphicCache(f, desc)
	}
	f.entries = f.entries[:0]
	f.state = Megamorphic
	return ic.updateMegamorphic(t, receiver, desc, key)
}

func (ic *IC) copyToMegamorphicCache(f *Feedback, desc AccessDescriptor) {
	key := IndexKey(0)
	if f.keyType == PropertyKey {
		key = NameKey(f.name)
	}
	flags := MegamorphicFlags(desc, key)
	for _, e := range f.entries {
		if e.Shape.IsDeprecated() {
			continue
		}
		ic.iso.mega.Insert(e.Shape, key.Name(), flags, e.Handler)
	}
}

func (ic *IC) goGeneric(t *transition, desc AccessDescriptor, err error) *Handler {
	f := ic.record()
	t.reason = err
	f.entries = f.entries[:0]
	f.state = Generic
	return ic.slowHandler(desc)
}

// checkConsistent panics when h was built for a different access mode than
// the record's.
func (ic *IC) checkConsistent(f *Feedback, h *Handler) {
	if !DebugChecks {
		return
	}
	flags := h.Flags()
	check(flags.Kind() == f.access.Kind, "%s handler in %s record", flags.Kind(), f.access.Kind)
	if f.access.Kind.IsStore() {
		lang := flags.ExtraState().LanguageMode()
		check(lang == f.access.Language, "%s handler in %s record", lang, f.access.Language)
	}
}
