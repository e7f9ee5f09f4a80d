package ic

import "github.com/chazu/icache/shape"

// ComputeTransitionedShape returns the shape a receiver moves to under a
// transitioning store mode. When the transition has not been created yet,
// or the mode does not transition, receiver itself is returned.
func ComputeTransitionedShape(receiver shape.Descriptor, mode StoreMode) shape.Descriptor {
	var kind shape.ElementsKind
	holey := receiver.ElementsKind().IsHoley()
	switch mode {
	case StoreTransitionToObject, StoreAndGrowTransitionToObject:
		kind = shape.FastElements
		if holey {
			kind = shape.FastHoleyElements
		}
	case StoreTransitionToDouble, StoreAndGrowTransitionToDouble:
		kind = shape.FastDoubleElements
		if holey {
			kind = shape.FastHoleyDoubleElements
		}
	case StoreTransitionHoleyToObject, StoreAndGrowTransitionHoleyToObject:
		kind = shape.FastHoleyElements
	case StoreTransitionHoleyToDouble, StoreAndGrowTransitionHoleyToDouble:
		kind = shape.FastHoleyDoubleElements
	default:
		return receiver
	}
	if kind == receiver.ElementsKind() {
		return receiver
	}
	if t := receiver.ElementsTransition(kind); t != nil {
		return t
	}
	return receiver
}

// isTransitionOfMonomorphicTarget reports whether receiver is what target
// becomes after an elements-kind generalization.
func isTransitionOfMonomorphicTarget(target, receiver shape.Descriptor) bool {
	if !shape.IsMoreGeneralElementsKindTransition(target.ElementsKind(), receiver.ElementsKind()) {
		return false
	}
	t := target.FindTransitionedShape([]shape.Descriptor{receiver})
	return t != nil && shape.Same(t, receiver)
}

// mergeStoreMode combines the store mode of a record with the one of a new
// access. All handlers of a keyed store record share one mode, so two
// different non-standard modes cannot be merged.
func mergeStoreMode(old, mode StoreMode) (StoreMode, bool) {
	if old == StandardStore || mode == old {
		return mode, true
	}
	if mode == StandardStore {
		return old, true
	}
	return mode, false
}

// updateStoreElement advances a keyed store record after an element store
// missed.
func (ic *IC) updateStoreElement(t *transition, receiver shape.Descriptor, desc AccessDescriptor, key Key) *Handler {
	c := ic.iso.compiler
	f := ic.record()
	lang := desc.Language
	index := key.String()

	if f.state != PreMonomorphic && f.keyType == PropertyKey {
		return ic.goMegamorphic(t, receiver, desc, IndexKey(0), errMixedKeys)
	}

	var transitioned shape.Descriptor
	if desc.StoreMode.IsTransition() {
		if ts := ComputeTransitionedShape(receiver, desc.StoreMode); !shape.Same(ts, receiver) {
			transitioned = ts
		}
	}
	mode := desc.StoreMode.NonTransitioning()

	if f.state == PreMonomorphic {
		h, err := c.computeKeyedStore(receiver, transitioned, lang, mode, index)
		if err != nil {
			return ic.goGeneric(t, desc, err)
		}
		f = ic.record()
		ic.checkConsistent(f, h)
		f.keyType = ElementKey
		f.storeMode = mode
		f.setMonomorphic(Entry{Shape: receiver, Handler: h, Transitioned: transitioned})
		return h
	}

	merged, ok := mergeStoreMode(f.storeMode, mode)
	if !ok {
		return ic.goMegamorphic(t, receiver, desc, IndexKey(0), errStoreMode)
	}

	if f.state == Monomorphic || (f.state == RecomputeHandler && f.savedState == Monomorphic) {
		prev := f.entries[0]
		target := receiver
		if transitioned != nil {
			target = transitioned
		}
		same := shape.Same(prev.Shape, receiver)
		if same || isTransitionOfMonomorphicTarget(prev.Shape, target) || prev.Shape.IsDeprecated() {
			if same && f.state != RecomputeHandler {
				f.savedState = f.state
				f.state = RecomputeHandler
			}
			if same {
				t.from = RecomputeHandler
			}
			h, err := c.computeKeyedStore(receiver, transitioned, lang, merged, index)
			if err != nil {
				return ic.goGeneric(t, desc, err)
			}
			f = ic.record()
			ic.checkConsistent(f, h)
			if f.state == RecomputeHandler {
				f.state = f.savedState
			}
			if same && prev.Handler == h && shape.Same(prev.Transitioned, transitioned) {
				t.reason = errHandlerUnchanged
				return h
			}
			f.storeMode = merged
			f.setMonomorphic(Entry{Shape: receiver, Handler: h, Transitioned: transitioned})
			return h
		}
	}

	if f.state == RecomputeHandler {
		f.state = f.savedState
	}
	shapes := make([]shape.Descriptor, 0, len(f.entries)+2)
	for _, e := range f.entries {
		if !e.Shape.IsDeprecated() {
			shapes = append(shapes, e.Shape)
		}
	}
	shapes, added := addShapeIfMissing(shapes, receiver)
	if transitioned != nil {
		var more bool
		shapes, more = addShapeIfMissing(shapes, transitioned)
		added = added || more
	}
	if len(shapes) > ic.iso.cfg.PolymorphicCapacity {
		return ic.goMegamorphic(t, receiver, desc, IndexKey(0), ErrCapacityExceeded)
	}
	if merged != StandardStore {
		external := 0
		for _, s := range shapes {
			if s.HasFixedTypedArrayElements() {
				external++
			}
		}
		if external != 0 && external != len(shapes) {
			return ic.goMegamorphic(t, receiver, desc, IndexKey(0), errMixedExternal)
		}
	}

	if !added {
		f.savedState = f.state
		f.state = RecomputeHandler
		t.from = RecomputeHandler
	}
	handlers, trans, err := c.keyedStorePolymorphic(shapes, merged, lang, index)
	if err != nil {
		return ic.goGeneric(t, desc, err)
	}
	f = ic.record()
	if f.state == RecomputeHandler {
		f.state = f.savedState
	}

	entries := make([]Entry, len(shapes))
	unchanged := len(shapes) == len(f.entries)
	for i, s := range shapes {
		ic.checkConsistent(f, handlers[i])
		entries[i] = Entry{Shape: s, Handler: handlers[i], Transitioned: trans[i]}
		if unchanged && (!shape.Same(f.entries[i].Shape, s) || f.entries[i].Handler != handlers[i] ||
			!shape.Same(f.entries[i].Transitioned, trans[i])) {
			unchanged = false
		}
	}
	served := handlers[indexOfShape(shapes, receiver)]
	if unchanged {
		t.reason = errHandlerUnchanged
		return served
	}
	f.entries = append(f.entries[:0], entries...)
	f.storeMode = merged
	if len(f.entries) > 1 {
		f.state = Polymorphic
	}
	return served
}

func addShapeIfMissing(list []shape.Descriptor, s shape.Descriptor) ([]shape.Descriptor, bool) {
	if indexOfShape(list, s) >= 0 {
		return list, false
	}
	return append(list, s), true
}

func indexOfShape(list []shape.Descriptor, s shape.Descriptor) int {
	for i, d := range list {
		if shape.Same(d, s) {
			return i
		}
	}
	return -1
}
