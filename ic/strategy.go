package ic

import (
	"fmt"

	"github.com/chazu/icache/shape"
)

// Strategy describes one concrete access strategy a handler implements.
// Every variant is a comparable value; two structurally equal strategies
// describe the same code.
type Strategy interface {
	fmt.Stringer
	strategy()
}

// Keyed loads.
type (
	LoadIndexedInterceptor   struct{}
	LoadIndexedString        struct{}
	KeyedLoadSloppyArguments struct{}

	LoadFastElement struct {
		IsJSArray bool
		Kind      shape.ElementsKind
		// ConvertHoleToUndefined lets the handler return undefined for holes
		// without consulting the prototype chain.
		ConvertHoleToUndefined bool
	}

	LoadDictionaryElement struct {
		Extra ExtraState
	}
)

// Keyed stores.
type (
	ElementsTransitionAndStore struct {
		From, To  shape.ElementsKind
		IsJSArray bool
		Mode      StoreMode
	}

	KeyedStoreSloppyArguments struct {
		Mode StoreMode
	}

	StoreFastElement struct {
		IsJSArray bool
		Kind      shape.ElementsKind
		Mode      StoreMode
	}

	StoreElement struct {
		Kind shape.ElementsKind
		Mode StoreMode
	}

	StoreMegamorphic struct {
		Language LanguageMode
	}
)

// ValidityCell guards assumptions a handler makes about objects other than
// the receiver, such as the prototype chain. Cells are compared by identity.
type ValidityCell interface {
	Valid() bool
}

// Named accesses. Holder is the object the property lives on when that is
// not the receiver itself.
type (
	LoadField struct {
		Index int
	}

	LoadPrototypeField struct {
		Holder any
		Index  int
		Cell   ValidityCell
	}

	// LoadConstant embeds the value of a constant data property. The handler
	// becomes stale once the property is generalized to a mutable field.
	LoadConstant struct {
		Holder any // nil when the receiver holds the constant
		Name   string
		Value  any
		Cell   ValidityCell
	}

	LoadAccessor struct {
		Holder any
		Name   string
		Cell   ValidityCell
	}

	LoadInterceptor struct {
		Name string
	}

	LoadNonexistent struct {
		Cell ValidityCell
	}

	StoreField struct {
		Index int
	}

	StoreTransition struct {
		Target shape.Descriptor
		Index  int
		Cell   ValidityCell
	}

	StoreAccessor struct {
		Holder any
		Name   string
		Cell   ValidityCell
	}

	StoreInterceptor struct {
		Name string
	}
)

// Slow is the shape-independent runtime path for one access kind.
type Slow struct {
	Kind Kind
}

func (LoadIndexedInterceptor) strategy()     {}
func (LoadIndexedString) strategy()          {}
func (KeyedLoadSloppyArguments) strategy()   {}
func (LoadFastElement) strategy()            {}
func (LoadDictionaryElement) strategy()      {}
func (ElementsTransitionAndStore) strategy() {}
func (KeyedStoreSloppyArguments) strategy()  {}
func (StoreFastElement) strategy()           {}
func (StoreElement) strategy()               {}
func (StoreMegamorphic) strategy()           {}
func (LoadField) strategy()                  {}
func (LoadPrototypeField) strategy()         {}
func (LoadConstant) strategy()               {}
func (LoadAccessor) strategy()               {}
func (LoadInterceptor) strategy()            {}
func (LoadNonexistent) strategy()            {}
func (StoreField) strategy()                 {}
func (StoreTransition) strategy()            {}
func (StoreAccessor) strategy()              {}
func (StoreInterceptor) strategy()           {}
func (Slow) strategy()                       {}

func (LoadIndexedInterceptor) String() string   { return "LoadIndexedInterceptor" }
func (LoadIndexedString) String() string        { return "LoadIndexedString" }
func (KeyedLoadSloppyArguments) String() string { return "KeyedLoadSloppyArguments" }

func (s LoadFastElement) String() string {
	return fmt.Sprintf("LoadFastElement(array=%t, %s, hole->undefined=%t)", s.IsJSArray, s.Kind, s.ConvertHoleToUndefined)
}

func (s LoadDictionaryElement) String() string {
	return fmt.Sprintf("LoadDictionaryElement(extra=%#x)", uint32(s.Extra))
}

func (s ElementsTransitionAndStore) String() string {
	return fmt.Sprintf("ElementsTransitionAndStore(%s->%s, array=%t, %s)", s.From, s.To, s.IsJSArray, s.Mode)
}

func (s KeyedStoreSloppyArguments) String() string {
	return fmt.Sprintf("KeyedStoreSloppyArguments(%s)", s.Mode)
}

func (s StoreFastElement) String() string {
	return fmt.Sprintf("StoreFastElement(array=%t, %s, %s)", s.IsJSArray, s.Kind, s.Mode)
}

func (s StoreElement) String() string {
	return fmt.Sprintf("StoreElement(%s, %s)", s.Kind, s.Mode)
}

func (s StoreMegamorphic) String() string {
	return fmt.Sprintf("StoreMegamorphic(%s)", s.Language)
}

func (s LoadField) String() string          { return fmt.Sprintf("LoadField(%d)", s.Index) }
func (s LoadPrototypeField) String() string { return fmt.Sprintf("LoadPrototypeField(%d)", s.Index) }
func (s LoadConstant) String() string       { return fmt.Sprintf("LoadConstant(%s)", s.Name) }
func (s LoadAccessor) String() string       { return fmt.Sprintf("LoadAccessor(%s)", s.Name) }
func (s LoadInterceptor) String() string    { return fmt.Sprintf("LoadInterceptor(%s)", s.Name) }
func (LoadNonexistent) String() string      { return "LoadNonexistent" }
func (s StoreField) String() string         { return fmt.Sprintf("StoreField(%d)", s.Index) }
func (s StoreAccessor) String() string      { return fmt.Sprintf("StoreAccessor(%s)", s.Name) }
func (s StoreInterceptor) String() string   { return fmt.Sprintf("StoreInterceptor(%s)", s.Name) }
func (s Slow) String() string               { return s.Kind.String() + "_Slow" }

func (s StoreTransition) String() string {
	return fmt.Sprintf("StoreTransition(%d -> map %d)", s.Index, s.Target.ID())
}
