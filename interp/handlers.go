package interp

import (
	"github.com/chazu/icache/ic"
	"github.com/chazu/icache/object"
	"github.com/chazu/icache/shape"
)

// miss is the result of handler code whose fast path does not apply.
func miss() (object.Value, bool, error) { return nil, false, nil }

func done(v object.Value) (object.Value, bool, error) { return v, true, nil }

// ---------------------------------------------------------------------------
// Shape-independent paths
// ---------------------------------------------------------------------------

// Generic performs an access on the fully generic path.
func Generic(env *Env, a *Access) (object.Value, error) {
	r := env.Realm
	if a.Desc.Kind.IsLoad() {
		if a.Key.IsIndex() {
			return r.GetElement(a.Receiver, a.Key.Index())
		}
		return r.GetNamed(a.Receiver, a.Key.Name())
	}
	if a.Key.IsIndex() {
		return nil, r.SetElement(a.Receiver, a.Key.Index(), a.Value, a.Desc.Language)
	}
	return nil, r.SetNamed(a.Receiver, a.Key.Name(), a.Value, a.Desc.Language)
}

func loadGeneric(env *Env, a *Access) (object.Value, bool, error) {
	v, err := Generic(env, a)
	return v, true, err
}

var (
	loadGenericElement = loadGeneric
	loadGenericNamed   = loadGeneric
	storeGeneric       = loadGeneric
)

// storeMegamorphic runs element stores generically and named stores
// through the megamorphic stub table.
func storeMegamorphic(env *Env, a *Access) (object.Value, bool, error) {
	if a.Key.IsIndex() {
		return loadGeneric(env, a)
	}
	h, ok := env.Mega.Lookup(env.Realm.ShapeOf(a.Receiver), a.Key.Name(), ic.MegamorphicFlags(a.Desc, a.Key))
	if !ok || h.IsStale() {
		return miss()
	}
	return CodeOf(h)(env, a)
}

// ---------------------------------------------------------------------------
// Element loads
// ---------------------------------------------------------------------------

func loadIndexedString(env *Env, a *Access) (object.Value, bool, error) {
	s, ok := a.Receiver.(string)
	if !ok || int64(a.Key.Index()) >= int64(len(s)) {
		return miss()
	}
	i := a.Key.Index()
	return done(s[i : i+1])
}

func loadSloppyArguments(env *Env, a *Access) (object.Value, bool, error) {
	o := a.Receiver.(*object.Object)
	v, ok := o.Element(a.Key.Index())
	if !ok || v == object.Hole {
		return miss()
	}
	return done(v)
}

func loadFastElement(s ic.LoadFastElement) Code {
	normalize := s.Kind.IsDouble() || s.Kind == shape.Float64Elements
	return func(env *Env, a *Access) (object.Value, bool, error) {
		o := a.Receiver.(*object.Object)
		v, ok := o.Element(a.Key.Index())
		switch {
		case !ok && s.Kind.IsFixedTypedArray():
			return done(object.Undefined)
		case !ok || v == object.Hole:
			// Only a canonical array can skip the prototype chain, and only
			// while no prototype has elements.
			if s.ConvertHoleToUndefined && env.Realm.NoElementsOnPrototypes() {
				return done(object.Undefined)
			}
			return miss()
		}
		if normalize {
			v = object.NormalizeNumber(v)
		}
		return done(v)
	}
}

func loadDictionaryElement(env *Env, a *Access) (object.Value, bool, error) {
	o := a.Receiver.(*object.Object)
	v, ok := o.DictElement(a.Key.Index())
	if !ok {
		return miss()
	}
	return done(v)
}

// ---------------------------------------------------------------------------
// Element stores
// ---------------------------------------------------------------------------

// fits reports whether kind can hold v without a transition.
func fits(kind shape.ElementsKind, v object.Value) bool {
	switch {
	case kind.IsSmi():
		return object.IsSmi(v)
	case kind.IsDouble(), kind.IsFixedTypedArray():
		return object.IsNumber(v)
	}
	return true
}

// storeInBounds writes v at index, growing by one when grow allows it.
// The caller has checked that kind fits v.
func storeInBounds(o *object.Object, kind shape.ElementsKind, index uint32, v object.Value, grow bool) bool {
	n := uint32(o.ElementsLen())
	switch {
	case index < n:
		o.Unshare()
		o.SetElementRaw(index, object.ElementValue(kind, v))
	case index == n && grow:
		o.Unshare()
		o.AppendElement(object.ElementValue(kind, v))
	default:
		return false
	}
	return true
}

func storeFastElement(s ic.StoreFastElement) Code {
	grow := s.Mode.IsGrow() && s.IsJSArray
	return func(env *Env, a *Access) (object.Value, bool, error) {
		o := a.Receiver.(*object.Object)
		if o.IsPrototype() || !fits(s.Kind, a.Value) {
			return miss()
		}
		index := a.Key.Index()
		if s.Kind.IsFixedTypedArray() {
			if int64(index) >= int64(o.ElementsLen()) {
				if s.Mode == ic.StoreNoTransitionIgnoreOutOfBounds {
					return done(nil)
				}
				return miss()
			}
			o.SetElementRaw(index, object.ElementValue(s.Kind, a.Value))
			return done(nil)
		}
		if o.IsCOW() && s.Mode != ic.StoreNoTransitionHandleCOW {
			return miss()
		}
		if !storeInBounds(o, s.Kind, index, a.Value, grow) {
			return miss()
		}
		return done(nil)
	}
}

func elementsTransitionAndStore(s ic.ElementsTransitionAndStore) Code {
	grow := s.Mode.IsGrow() && s.IsJSArray
	return func(env *Env, a *Access) (object.Value, bool, error) {
		o := a.Receiver.(*object.Object)
		if o.IsPrototype() || !fits(s.To, a.Value) {
			return miss()
		}
		if o.IsCOW() && s.Mode != ic.StoreNoTransitionHandleCOW {
			return miss()
		}
		index := a.Key.Index()
		n := uint32(o.ElementsLen())
		if index > n || (index == n && !grow) {
			return miss()
		}
		env.Realm.TransitionElements(o, s.To)
		storeInBounds(o, s.To, index, a.Value, grow)
		return done(nil)
	}
}

func storeSloppyArguments(env *Env, a *Access) (object.Value, bool, error) {
	o := a.Receiver.(*object.Object)
	index := a.Key.Index()
	v, ok := o.Element(index)
	if o.IsPrototype() || !ok || v == object.Hole || o.IsCOW() {
		return miss()
	}
	o.SetElementRaw(index, a.Value)
	return done(nil)
}

func storeElement(s ic.StoreElement) Code {
	return func(env *Env, a *Access) (object.Value, bool, error) {
		o := a.Receiver.(*object.Object)
		if !s.Kind.IsDictionary() || o.IsPrototype() {
			return miss()
		}
		o.SetDictElement(a.Key.Index(), a.Value)
		return done(nil)
	}
}

// ---------------------------------------------------------------------------
// Named accesses
// ---------------------------------------------------------------------------

func holderOr(holder any, a *Access) *object.Object {
	if h, ok := holder.(*object.Object); ok {
		return h
	}
	return a.Receiver.(*object.Object)
}

func loadField(s ic.LoadField) Code {
	return func(env *Env, a *Access) (object.Value, bool, error) {
		return done(a.Receiver.(*object.Object).Field(s.Index))
	}
}

func loadPrototypeField(s ic.LoadPrototypeField) Code {
	return func(env *Env, a *Access) (object.Value, bool, error) {
		return done(s.Holder.(*object.Object).Field(s.Index))
	}
}

func loadConstant(s ic.LoadConstant) Code {
	return func(env *Env, a *Access) (object.Value, bool, error) {
		p, ok := holderOr(s.Holder, a).Map().Lookup(s.Name)
		if !ok || !p.Const {
			return miss()
		}
		return done(s.Value)
	}
}

func loadAccessor(s ic.LoadAccessor) Code {
	return func(env *Env, a *Access) (object.Value, bool, error) {
		acc := holderOr(s.Holder, a).Accessor(s.Name)
		if acc == nil || acc.Get == nil {
			return done(object.Undefined)
		}
		return done(acc.Get(a.Receiver))
	}
}

func loadNonexistent(env *Env, a *Access) (object.Value, bool, error) {
	return done(object.Undefined)
}

func storeField(s ic.StoreField) Code {
	return func(env *Env, a *Access) (object.Value, bool, error) {
		a.Receiver.(*object.Object).SetField(s.Index, a.Value)
		return done(nil)
	}
}

func storeTransition(s ic.StoreTransition) Code {
	target := s.Target.(*shape.Map)
	return func(env *Env, a *Access) (object.Value, bool, error) {
		o := a.Receiver.(*object.Object)
		if o.IsPrototype() || !o.AppendField(target, s.Index, a.Value) {
			return miss()
		}
		return done(nil)
	}
}

func storeAccessor(s ic.StoreAccessor) Code {
	return func(env *Env, a *Access) (object.Value, bool, error) {
		acc := holderOr(s.Holder, a).Accessor(s.Name)
		if acc == nil || acc.Set == nil {
			return miss()
		}
		acc.Set(a.Receiver, a.Value)
		return done(nil)
	}
}
