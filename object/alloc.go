package object

import "github.com/chazu/icache/shape"

// ---------------------------------------------------------------------------
// Object creation
// ---------------------------------------------------------------------------

var plainSpec = shape.Spec{InstanceType: shape.JSObjectType, ElementsKind: shape.FastHoleyElements}

// NewObject creates an empty plain object inheriting from Object.prototype.
func (r *Realm) NewObject() *Object {
	return r.newObject(r.root(r.ObjectPrototype, plainSpec))
}

// NewObjectWithPrototype creates an empty plain object with the given
// prototype, which may be nil.
func (r *Realm) NewObjectWithPrototype(proto *Object) *Object {
	return r.newObject(r.root(proto, plainSpec))
}

// NewDictionaryObject creates an empty object in dictionary mode. Its named
// properties never cause map transitions.
func (r *Realm) NewDictionaryObject() *Object {
	spec := plainSpec
	spec.DictionaryMap = true
	o := r.newObject(r.root(r.ObjectPrototype, spec))
	o.props = make(map[string]Value)
	return o
}

// ElementValue is the backing-store representation of v under kind.
func ElementValue(kind shape.ElementsKind, v Value) Value {
	switch {
	case kind.IsDouble():
		if v == Hole {
			return v
		}
		return toFloat(v)
	case kind == shape.Uint8Elements:
		return toUint8(ToNumber(v))
	case kind == shape.Int32Elements:
		return toInt32(ToNumber(v))
	case kind == shape.Float64Elements:
		return ToNumber(v)
	}
	return v
}

// NewArray creates a JS array on the canonical initial map for kind. Values
// must fit kind: smis for smi kinds, numbers for double kinds. Hole may be
// used in holey kinds.
func (r *Realm) NewArray(kind shape.ElementsKind, values ...Value) *Object {
	m := r.table.InitialJSArrayMap(kind).(*shape.Map)
	return r.newArray(m, values)
}

// NewArrayWithPrototype creates a JS array whose prototype is not
// Array.prototype. Its map is never canonical.
func (r *Realm) NewArrayWithPrototype(proto *Object, kind shape.ElementsKind, values ...Value) *Object {
	m := r.root(proto, shape.Spec{InstanceType: shape.JSArrayType, ElementsKind: kind})
	return r.newArray(m, values)
}

func (r *Realm) newArray(m *shape.Map, values []Value) *Object {
	o := r.newObject(m)
	o.elements = make([]Value, len(values))
	for i, v := range values {
		o.elements[i] = ElementValue(m.ElementsKind(), v)
	}
	return o
}

// NewDictionaryArray creates a JS array with dictionary elements.
func (r *Realm) NewDictionaryArray() *Object {
	m := r.table.TransitionElements(r.table.InitialJSArrayMap(shape.FastHoleyElements).(*shape.Map), shape.DictionaryElements)
	o := r.newObject(m)
	o.dict = make(map[uint32]Value)
	return o
}

// CloneCOW returns a new array sharing the backing store of a, both marked
// copy-on-write.
func (r *Realm) CloneCOW(a *Object) *Object {
	a.cow = true
	o := r.newObject(a.m)
	o.elements = a.elements
	o.cow = true
	o.fields = append([]Value(nil), a.fields...)
	return o
}

// NewTypedArray creates a zero-filled fixed-length typed array.
func (r *Realm) NewTypedArray(kind shape.ElementsKind, length int) *Object {
	o := r.newObject(r.root(r.ObjectPrototype, shape.Spec{InstanceType: shape.JSTypedArrayType, ElementsKind: kind}))
	o.elements = make([]Value, length)
	for i := range o.elements {
		o.elements[i] = ElementValue(kind, 0)
	}
	return o
}

// NewArguments creates a sloppy-mode arguments object.
func (r *Realm) NewArguments(values ...Value) *Object {
	o := r.newObject(r.root(r.ObjectPrototype, shape.Spec{InstanceType: shape.JSArgumentsType, ElementsKind: shape.FastSloppyArgumentsElements}))
	o.elements = append([]Value(nil), values...)
	return o
}

// NewStringWrapper creates a String object wrapping s.
func (r *Realm) NewStringWrapper(s string) *Object {
	o := r.newObject(r.root(r.ObjectPrototype, shape.Spec{InstanceType: shape.JSValueType, ElementsKind: shape.FastStringWrapperElements}))
	o.str = s
	return o
}

// NewProxy creates a proxy forwarding every access to target.
func (r *Realm) NewProxy(target *Object) *Object {
	o := r.newObject(r.root(nil, shape.Spec{InstanceType: shape.JSProxyType, ElementsKind: shape.NoElements}))
	o.target = target
	return o
}

// NewGlobalProxy creates a global proxy forwarding to target.
func (r *Realm) NewGlobalProxy(target *Object) *Object {
	o := r.newObject(r.root(nil, shape.Spec{InstanceType: shape.JSGlobalProxyType, ElementsKind: shape.NoElements}))
	o.target = target
	return o
}

// NewInterceptedObject creates a plain object whose accesses go through icpt
// first.
func (r *Realm) NewInterceptedObject(icpt *Interceptor) *Object {
	spec := plainSpec
	spec.NamedInterceptor = icpt.GetNamed != nil || icpt.SetNamed != nil
	spec.IndexedInterceptor = icpt.GetIndexed != nil || icpt.SetIndexed != nil
	o := r.newObject(r.table.NewMap(withProto(spec, r.ObjectPrototype)))
	o.interceptor = icpt
	return o
}

// NewAccessCheckedObject creates a plain object that requires access checks.
func (r *Realm) NewAccessCheckedObject() *Object {
	spec := plainSpec
	spec.AccessCheckNeeded = true
	return r.newObject(r.root(r.ObjectPrototype, spec))
}

func withProto(spec shape.Spec, proto *Object) shape.Spec {
	spec.Prototype = proto
	return spec
}

// DefineConst adds a constant data property. Stores to it generalize the
// field for every object on the map.
func (r *Realm) DefineConst(o *Object, name string, v Value) {
	r.addField(o, name, v, true)
}

// DefineAccessor installs an accessor property.
func (r *Realm) DefineAccessor(o *Object, name string, acc *Accessor) {
	if o.accessors == nil {
		o.accessors = make(map[string]*Accessor)
	}
	o.accessors[name] = acc
	if _, ok := o.m.Lookup(name); !ok {
		o.m = r.table.AddAccessor(o.m, name)
	}
	r.prototypeChanged(o)
}

func (r *Realm) addField(o *Object, name string, v Value, constant bool) {
	o.m = r.table.AddField(o.m, name, constant)
	o.fields = append(o.fields, v)
	r.prototypeChanged(o)
}
