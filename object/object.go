package object

import (
	"fmt"

	"github.com/chazu/icache/shape"
)

// Accessor is a getter/setter pair installed as a named property. Either
// function may be nil.
type Accessor struct {
	Get func(receiver Value) Value
	Set func(receiver Value, v Value)
}

// Interceptor intercepts accesses before the ordinary lookup. A function
// returning false lets the ordinary lookup proceed.
type Interceptor struct {
	GetNamed   func(name string) (Value, bool)
	SetNamed   func(name string, v Value) bool
	GetIndexed func(index uint32) (Value, bool)
	SetIndexed func(index uint32, v Value) bool
}

// Object is a heap object of the reference language.
//
// Named data properties live in fields, indexed by the field index recorded
// in the object's map. Dictionary-mode objects keep them in props instead.
// Indexed properties live in elements unless the map has dictionary
// elements, in which case they live in dict.
type Object struct {
	m *shape.Map

	fields    []Value
	props     map[string]Value
	accessors map[string]*Accessor

	elements []Value
	dict     map[uint32]Value
	length   uint32 // array length with dictionary elements
	cow      bool   // elements shared copy-on-write

	str         string  // string wrappers
	target      *Object // proxies
	interceptor *Interceptor

	// isPrototype is set once the object is installed as a prototype.
	isPrototype bool
}

// Map returns the object's current shape.
func (o *Object) Map() *shape.Map { return o.m }

// Prototype returns the next object on the prototype chain, or nil.
func (o *Object) Prototype() *Object {
	p, _ := o.m.Prototype().(*Object)
	return p
}

func (o *Object) IsPrototype() bool { return o.isPrototype }
func (o *Object) IsCOW() bool       { return o.cow }
func (o *Object) Target() *Object   { return o.target }

func (o *Object) String() string {
	return fmt.Sprintf("Object(%s)", o.m)
}

// Length is the array length of a JS array, or the backing store length
// of any other object with elements.
func (o *Object) Length() uint32 {
	switch {
	case o.m.ElementsKind().IsDictionary():
		return o.length
	case o.m.ElementsKind().IsStringWrapper() && len(o.elements) < len(o.str):
		return uint32(len(o.str))
	}
	return uint32(len(o.elements))
}

// Field returns the value of data field i.
func (o *Object) Field(i int) Value { return o.fields[i] }

// SetField overwrites data field i.
func (o *Object) SetField(i int, v Value) { o.fields[i] = v }

// AppendField adds the value of a new data field after a map transition to
// m. The field index must be the next free one.
func (o *Object) AppendField(m *shape.Map, index int, v Value) bool {
	if index != len(o.fields) {
		return false
	}
	o.m = m
	o.fields = append(o.fields, v)
	return true
}

// Accessor returns the accessor pair installed under name, if any.
func (o *Object) Accessor(name string) *Accessor { return o.accessors[name] }

// Element returns the raw backing-store value at index, which may be Hole.
func (o *Object) Element(index uint32) (Value, bool) {
	if int64(index) >= int64(len(o.elements)) {
		return nil, false
	}
	return o.elements[index], true
}

// ElementsLen is the backing store length.
func (o *Object) ElementsLen() int { return len(o.elements) }

// SetElementRaw overwrites an in-bounds slot of the backing store.
func (o *Object) SetElementRaw(index uint32, v Value) { o.elements[index] = v }

// AppendElement grows the backing store by one.
func (o *Object) AppendElement(v Value) { o.elements = append(o.elements, v) }

// DictElement returns the value of a dictionary element.
func (o *Object) DictElement(index uint32) (Value, bool) {
	v, ok := o.dict[index]
	return v, ok
}

// SetDictElement stores a dictionary element, updating the array length.
func (o *Object) SetDictElement(index uint32, v Value) {
	if o.dict == nil {
		o.dict = make(map[uint32]Value)
	}
	o.dict[index] = v
	if o.m.IsJSArray() && index >= o.length {
		o.length = index + 1
	}
}

// Str returns the string a wrapper object wraps.
func (o *Object) Str() string { return o.str }

// Unshare gives the object a private copy of a copy-on-write backing store.
func (o *Object) Unshare() {
	if !o.cow {
		return
	}
	o.elements = append([]Value(nil), o.elements...)
	o.cow = false
}
