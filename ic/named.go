package ic

import (
	"fmt"

	"github.com/chazu/icache/shape"
)

// LookupState classifies the result of a named property lookup.
type LookupState uint8

const (
	LookupNotFound LookupState = iota
	LookupField
	LookupConstant
	LookupAccessor
	LookupInterceptor
	LookupTransition // store adds a new own property
	LookupProxy
	LookupAccessCheck
	LookupSlow // found, but only the runtime can handle it
)

// Lookup is what a PropertyResolver reports for one (shape, name) pair.
type Lookup struct {
	State LookupState
	// Holder is the object owning the property, nil for the receiver.
	Holder any
	Index  int
	Value  any // constant value for LookupConstant
	// Target is the post-transition shape for LookupTransition.
	Target shape.Descriptor
	// Cell guards the prototype chain when the result depends on it.
	Cell ValidityCell
}

// PropertyResolver performs named property lookups on behalf of the IC
// system. It is implemented by the object model.
type PropertyResolver interface {
	ResolveLoad(receiver shape.Descriptor, name string) Lookup
	ResolveStore(receiver shape.Descriptor, name string) Lookup
}

// SelectNamed maps a lookup result to a strategy and a cache holder.
func SelectNamed(kind Kind, receiver shape.Descriptor, name string, l Lookup) (Strategy, CacheHolder, error) {
	if err := specializable(receiver); err != nil {
		return nil, 0, err
	}
	holder := CacheOnReceiver
	if l.Holder != nil {
		holder = CacheOnPrototype
		if receiver.IsDictionaryMap() {
			holder = CacheOnPrototypeReceiverIsDictionary
		}
	}
	if !receiver.InstanceType().IsJSReceiver() {
		holder = CacheOnPrimitive
	}
	switch l.State {
	case LookupProxy:
		return nil, 0, fmt.Errorf("%w: proxy on lookup path", ErrUnspecializable)
	case LookupAccessCheck:
		return nil, 0, fmt.Errorf("%w: access check on lookup path", ErrUnspecializable)
	case LookupInterceptor:
		if kind.IsLoad() {
			return LoadInterceptor{Name: name}, holder, nil
		}
		return StoreInterceptor{Name: name}, holder, nil
	case LookupSlow:
		return Slow{Kind: kind}, holder, nil
	}
	if kind.IsLoad() {
		switch l.State {
		case LookupField:
			if l.Holder == nil {
				return LoadField{Index: l.Index}, holder, nil
			}
			return LoadPrototypeField{Holder: l.Holder, Index: l.Index, Cell: l.Cell}, holder, nil
		case LookupConstant:
			return LoadConstant{Holder: l.Holder, Name: name, Value: l.Value, Cell: l.Cell}, holder, nil
		case LookupAccessor:
			return LoadAccessor{Holder: l.Holder, Name: name, Cell: l.Cell}, holder, nil
		case LookupNotFound:
			return LoadNonexistent{Cell: l.Cell}, holder, nil
		}
		return nil, 0, fmt.Errorf("%w: lookup state %d for load", ErrUnspecializable, l.State)
	}
	switch l.State {
	case LookupField:
		if l.Holder == nil {
			return StoreField{Index: l.Index}, holder, nil
		}
	case LookupTransition:
		if l.Target != nil {
			return StoreTransition{Target: l.Target, Index: l.Index, Cell: l.Cell}, holder, nil
		}
	case LookupAccessor:
		return StoreAccessor{Holder: l.Holder, Name: name, Cell: l.Cell}, holder, nil
	}
	return Slow{Kind: kind}, holder, nil
}

// ComputeNamedHandler compiles or retrieves the handler for a named access.
// Keyed sites reaching here use a property name key.
func (c *Compiler) ComputeNamedHandler(kind Kind, extra ExtraState, receiver shape.Descriptor, name string, l Lookup) (*Handler, error) {
	s, holder, err := SelectNamed(kind, receiver, name, l)
	if err != nil {
		return nil, err
	}
	if slow, ok := s.(Slow); ok {
		return c.SlowHandler(slow.Kind, extra)
	}
	fp := Fingerprint{Flags: ComputeFlags(kind, Monomorphic, extra, holder), Strategy: s}
	return c.getOrCreate(fp, name)
}
