// Package shape defines the object-layout descriptors ("maps") consumed by
// the inline cache system.
//
// The IC code only ever reads a Descriptor; it never creates, mutates or
// transitions one. Table and Map are a small reference implementation of the
// descriptor side, used by the reference runtime in package object and by
// tests.
package shape

import "fmt"

// ID identifies one object layout. IDs are unique within a Table.
type ID uint32

// InstanceType classifies what kind of heap object a shape describes.
// Ordering matters: every type at or above FirstJSReceiverType is a JS
// receiver (something that can carry properties of its own).
type InstanceType uint16

const (
	StringType InstanceType = iota
	SymbolType
	HeapNumberType
	OddballType
	JSProxyType
	JSValueType
	JSObjectType
	JSArgumentsType
	JSArrayType
	JSTypedArrayType
	JSGlobalProxyType
)

// FirstJSReceiverType is the lowest instance type that is a JS receiver.
const FirstJSReceiverType = JSProxyType

// FirstNonstringType is the first instance type that is not a string.
const FirstNonstringType = SymbolType

var instanceTypeNames = map[InstanceType]string{
	StringType:        "STRING_TYPE",
	SymbolType:        "SYMBOL_TYPE",
	HeapNumberType:    "HEAP_NUMBER_TYPE",
	OddballType:       "ODDBALL_TYPE",
	JSProxyType:       "JS_PROXY_TYPE",
	JSValueType:       "JS_VALUE_TYPE",
	JSObjectType:      "JS_OBJECT_TYPE",
	JSArgumentsType:   "JS_ARGUMENTS_TYPE",
	JSArrayType:       "JS_ARRAY_TYPE",
	JSTypedArrayType:  "JS_TYPED_ARRAY_TYPE",
	JSGlobalProxyType: "JS_GLOBAL_PROXY_TYPE",
}

func (t InstanceType) String() string {
	if name, ok := instanceTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("INSTANCE_TYPE(%d)", uint16(t))
}

// IsJSReceiver reports whether t is at or above the receiver threshold.
func (t InstanceType) IsJSReceiver() bool {
	return t >= FirstJSReceiverType
}

// Descriptor is the read-only view of a shape the IC system relies on.
// Implementations must return stable answers for the lifetime of the shape,
// except for IsDeprecated, which may flip from false to true once.
type Descriptor interface {
	ID() ID
	ElementsKind() ElementsKind
	InstanceType() InstanceType

	IsJSArray() bool
	IsStringMap() bool
	IsDictionaryMap() bool
	IsDeprecated() bool
	HasIndexedInterceptor() bool
	HasNamedInterceptor() bool
	IsAccessCheckNeeded() bool

	HasFastElements() bool
	HasFixedTypedArrayElements() bool
	HasSloppyArgumentsElements() bool
	HasDictionaryElements() bool

	// ElementsTransition returns the shape this one transitions to when its
	// elements kind changes to kind, or nil if no such transition exists.
	ElementsTransition(kind ElementsKind) Descriptor

	// FindTransitionedShape returns the most general shape among candidates
	// that this shape can reach through elements-kind transitions, or nil.
	FindTransitionedShape(candidates []Descriptor) Descriptor
}

// InitialArrayMaps exposes the engine's canonical initial JS array shape
// for each fast elements kind. Arrays whose shape is canonical are known to
// have the pristine array prototype chain.
type InitialArrayMaps interface {
	InitialJSArrayMap(kind ElementsKind) Descriptor
}

// Same reports whether two descriptors name the same layout. A nil
// descriptor is only ever the same as another nil.
func Same(a, b Descriptor) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}
