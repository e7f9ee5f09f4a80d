package object

import (
	"github.com/chazu/icache/ic"
	"github.com/chazu/icache/shape"
)

// MaxElementsGap is the largest gap an element store may open past the end
// of a fast backing store before the object goes to dictionary elements.
const MaxElementsGap = 1024

// ---------------------------------------------------------------------------
// Generic element loads
// ---------------------------------------------------------------------------

// GetElement is the fully generic keyed load of receiver[index].
func (r *Realm) GetElement(receiver Value, index uint32) (Value, error) {
	switch x := receiver.(type) {
	case *Object:
		r.Migrate(x)
		return r.getElement(x, index), nil
	case string:
		if int(index) < len(x) {
			return x[index : index+1], nil
		}
		return Undefined, nil
	case *Oddball:
		if x == Undefined || x == Null {
			return nil, typeError("cannot read element %d of %s", index, x)
		}
	}
	return Undefined, nil
}

func (r *Realm) getElement(o *Object, index uint32) Value {
	for o != nil {
		if o.target != nil {
			o = o.target
			continue
		}
		if o.interceptor != nil && o.interceptor.GetIndexed != nil {
			if v, ok := o.interceptor.GetIndexed(index); ok {
				return v
			}
		}
		if v, ok := ownElement(o, index); ok {
			return v
		}
		if o.m.HasFixedTypedArrayElements() {
			// Typed arrays never consult the prototype chain for indices.
			return Undefined
		}
		o = o.Prototype()
	}
	return Undefined
}

// ownElement returns an own indexed property, normalized for loading.
func ownElement(o *Object, index uint32) (Value, bool) {
	kind := o.m.ElementsKind()
	switch {
	case kind.IsDictionary():
		v, ok := o.dict[index]
		return v, ok
	case kind.IsStringWrapper() && int(index) < len(o.str):
		return o.str[index : index+1], true
	}
	if int64(index) >= int64(len(o.elements)) {
		return nil, false
	}
	v := o.elements[index]
	if v == Hole {
		return nil, false
	}
	if kind.IsDouble() || kind == shape.Float64Elements {
		v = NormalizeNumber(v)
	}
	return v, true
}

// ---------------------------------------------------------------------------
// Generic element stores
// ---------------------------------------------------------------------------

// SetElement is the fully generic keyed store receiver[index] = v.
func (r *Realm) SetElement(receiver Value, index uint32, v Value, lang ic.LanguageMode) error {
	o, ok := receiver.(*Object)
	if !ok {
		return r.primitiveStore(receiver, lang, "element")
	}
	for o.target != nil {
		o = o.target
	}
	r.Migrate(o)
	if o.interceptor != nil && o.interceptor.SetIndexed != nil && o.interceptor.SetIndexed(index, v) {
		return nil
	}

	kind := o.m.ElementsKind()
	switch {
	case kind.IsFixedTypedArray():
		if int64(index) < int64(len(o.elements)) {
			o.elements[index] = ElementValue(kind, v)
		}
		return nil
	case kind.IsStringWrapper() && int(index) < len(o.str):
		if lang == ic.Strict {
			return typeError("cannot assign to read only index %d of string", index)
		}
		return nil
	case kind.IsDictionary():
		o.SetDictElement(index, v)
		r.prototypeElementsChanged(o)
		return nil
	case kind == shape.NoElements:
		return typeError("cannot store element %d on %s", index, o.m)
	}

	o.Unshare()
	length := uint32(len(o.elements))
	if index >= length && index-length >= MaxElementsGap {
		r.normalizeElements(o)
		o.SetDictElement(index, v)
		r.prototypeElementsChanged(o)
		return nil
	}
	if kind.IsFast() {
		to := generalizedKind(kind, v, index > length)
		if to != kind {
			r.transitionElements(o, to)
			kind = to
		}
	}
	for uint32(len(o.elements)) < index {
		o.elements = append(o.elements, Hole)
	}
	sv := ElementValue(kind, v)
	if index == uint32(len(o.elements)) {
		o.elements = append(o.elements, sv)
	} else {
		o.elements[index] = sv
	}
	r.prototypeElementsChanged(o)
	return nil
}

func (r *Realm) primitiveStore(receiver Value, lang ic.LanguageMode, what string) error {
	if receiver == Undefined || receiver == Null {
		return typeError("cannot set %s of %v", what, receiver)
	}
	if lang == ic.Strict {
		return typeError("cannot create %s on primitive %v", what, receiver)
	}
	return nil
}

// generalizedKind is the fast kind needed to hold v, and holes when
// makesHole is set, starting from kind.
func generalizedKind(kind shape.ElementsKind, v Value, makesHole bool) shape.ElementsKind {
	to := kind
	switch {
	case kind.IsSmi() && IsHeapNumber(v):
		to = shape.FastDoubleElements
	case (kind.IsSmi() || kind.IsDouble()) && !IsNumber(v):
		to = shape.FastElements
	}
	if kind.IsHoley() || makesHole {
		to = to.Holey()
	}
	return to
}

// transitionElements moves o to the map for kind, converting the backing
// store representation.
func (r *Realm) transitionElements(o *Object, kind shape.ElementsKind) {
	from := o.m.ElementsKind()
	o.m = r.table.TransitionElements(o.m, kind)
	if from.IsDouble() == kind.IsDouble() {
		return
	}
	for i, v := range o.elements {
		if v == Hole {
			continue
		}
		if kind.IsDouble() {
			o.elements[i] = toFloat(v)
		} else {
			o.elements[i] = NormalizeNumber(v)
		}
	}
}

// TransitionElements is transitionElements for handler code that has
// already checked the store can proceed.
func (r *Realm) TransitionElements(o *Object, kind shape.ElementsKind) {
	o.Unshare()
	r.transitionElements(o, kind)
}

// normalizeElements moves a fast backing store into a dictionary.
func (r *Realm) normalizeElements(o *Object) {
	dict := make(map[uint32]Value, len(o.elements))
	for i, v := range o.elements {
		if v == Hole {
			continue
		}
		if o.m.ElementsKind().IsDouble() {
			v = NormalizeNumber(v)
		}
		dict[uint32(i)] = v
	}
	length := uint32(len(o.elements))
	o.m = r.table.TransitionElements(o.m, shape.DictionaryElements)
	o.elements = nil
	o.dict = dict
	o.length = length
}

// ---------------------------------------------------------------------------
// Store modes
// ---------------------------------------------------------------------------

// StoreModeFor classifies the keyed store o[index] = v. For transitioning
// modes the target map is created, so the inline cache can find it.
func (r *Realm) StoreModeFor(o *Object, index uint32, v Value) ic.StoreMode {
	kind := o.m.ElementsKind()
	holey := kind.IsHoley()
	length := uint32(len(o.elements))
	oob := index >= length
	if kind.IsDictionary() {
		oob = index >= o.length
	}
	wouldNormalize := oob && index-length >= MaxElementsGap
	grow := o.m.IsJSArray() && oob && !wouldNormalize

	var mode ic.StoreMode
	switch {
	case kind.IsSmi() && IsHeapNumber(v):
		mode = pick(grow, holey, ic.StoreAndGrowTransitionToDouble, ic.StoreAndGrowTransitionHoleyToDouble,
			ic.StoreTransitionToDouble, ic.StoreTransitionHoleyToDouble)
	case (kind.IsSmi() || kind.IsDouble()) && !IsNumber(v):
		mode = pick(grow, holey, ic.StoreAndGrowTransitionToObject, ic.StoreAndGrowTransitionHoleyToObject,
			ic.StoreTransitionToObject, ic.StoreTransitionHoleyToObject)
	case grow:
		return ic.StoreAndGrowNoTransition
	case o.m.HasFixedTypedArrayElements() && oob:
		return ic.StoreNoTransitionIgnoreOutOfBounds
	case o.cow:
		return ic.StoreNoTransitionHandleCOW
	default:
		return ic.StandardStore
	}
	r.table.TransitionElements(o.m, targetKind(mode, holey))
	return mode
}

func pick(grow, holey bool, growPacked, growHoley, packed, holeyMode ic.StoreMode) ic.StoreMode {
	switch {
	case grow && holey:
		return growHoley
	case grow:
		return growPacked
	case holey:
		return holeyMode
	}
	return packed
}

// targetKind is the elements kind a transitioning store mode moves to.
func targetKind(mode ic.StoreMode, holey bool) shape.ElementsKind {
	switch mode {
	case ic.StoreTransitionToDouble, ic.StoreAndGrowTransitionToDouble:
		if holey {
			return shape.FastHoleyDoubleElements
		}
		return shape.FastDoubleElements
	case ic.StoreTransitionHoleyToDouble, ic.StoreAndGrowTransitionHoleyToDouble:
		return shape.FastHoleyDoubleElements
	case ic.StoreTransitionHoleyToObject, ic.StoreAndGrowTransitionHoleyToObject:
		return shape.FastHoleyElements
	}
	if holey {
		return shape.FastHoleyElements
	}
	return shape.FastElements
}
