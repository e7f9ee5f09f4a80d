package ic

import "fmt"

// Kind is the access kind of a call site.
type Kind uint8

const (
	LoadIC Kind = iota
	KeyedLoadIC
	StoreIC
	KeyedStoreIC
	kindEnd
)

var kindNames = [...]string{
	LoadIC:       "LoadIC",
	KeyedLoadIC:  "KeyedLoadIC",
	StoreIC:      "StoreIC",
	KeyedStoreIC: "KeyedStoreIC",
}

func (k Kind) String() string {
	if k < kindEnd {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) IsKeyed() bool { return k == KeyedLoadIC || k == KeyedStoreIC }
func (k Kind) IsLoad() bool  { return k == LoadIC || k == KeyedLoadIC }
func (k Kind) IsStore() bool { return k == StoreIC || k == KeyedStoreIC }

// State is the specialization state of one feedback record.
type State uint8

const (
	Uninitialized State = iota
	PreMonomorphic
	Monomorphic
	RecomputeHandler
	Polymorphic
	Megamorphic
	Generic
	stateEnd
)

var stateNames = [...]string{
	Uninitialized:    "UNINITIALIZED",
	PreMonomorphic:   "PREMONOMORPHIC",
	Monomorphic:      "MONOMORPHIC",
	RecomputeHandler: "RECOMPUTE_HANDLER",
	Polymorphic:      "POLYMORPHIC",
	Megamorphic:      "MEGAMORPHIC",
	Generic:          "GENERIC",
}

func (s State) String() string {
	if s < stateEnd {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Mark is the one-character trace mark for s.
func (s State) Mark() byte {
	switch s {
	case Uninitialized:
		return '0'
	case PreMonomorphic:
		return '.'
	case Monomorphic:
		return '1'
	case RecomputeHandler:
		return '^'
	case Polymorphic:
		return 'P'
	case Megamorphic:
		return 'N'
	case Generic:
		return 'G'
	}
	return '?'
}

// rank orders states by generality. RecomputeHandler is transient and
// ranks with the state it was entered from.
func (s State) rank() int {
	switch s {
	case Uninitialized:
		return 0
	case PreMonomorphic:
		return 1
	case Monomorphic:
		return 2
	case Polymorphic:
		return 3
	case Megamorphic:
		return 4
	case Generic:
		return 5
	}
	return -1
}

// LanguageMode is the strictness of the code containing the call site.
type LanguageMode uint8

const (
	Sloppy LanguageMode = iota
	Strict
	languageEnd
)

func (m LanguageMode) String() string {
	if m == Strict {
		return "strict"
	}
	return "sloppy"
}

// StoreMode describes how a keyed store treats the elements backing store.
type StoreMode uint8

const (
	StandardStore StoreMode = iota
	StoreTransitionToObject
	StoreTransitionToDouble
	StoreTransitionHoleyToObject
	StoreTransitionHoleyToDouble
	StoreAndGrowNoTransition
	StoreAndGrowTransitionToObject
	StoreAndGrowTransitionToDouble
	StoreAndGrowTransitionHoleyToObject
	StoreAndGrowTransitionHoleyToDouble
	StoreNoTransitionIgnoreOutOfBounds
	StoreNoTransitionHandleCOW
	storeModeEnd
)

var storeModeNames = [...]string{
	StandardStore:                       "STANDARD_STORE",
	StoreTransitionToObject:             "STORE_TRANSITION_TO_OBJECT",
	StoreTransitionToDouble:             "STORE_TRANSITION_TO_DOUBLE",
	StoreTransitionHoleyToObject:        "STORE_TRANSITION_HOLEY_TO_OBJECT",
	StoreTransitionHoleyToDouble:        "STORE_TRANSITION_HOLEY_TO_DOUBLE",
	StoreAndGrowNoTransition:            "STORE_AND_GROW_NO_TRANSITION",
	StoreAndGrowTransitionToObject:      "STORE_AND_GROW_TRANSITION_TO_OBJECT",
	StoreAndGrowTransitionToDouble:      "STORE_AND_GROW_TRANSITION_TO_DOUBLE",
	StoreAndGrowTransitionHoleyToObject: "STORE_AND_GROW_TRANSITION_HOLEY_TO_OBJECT",
	StoreAndGrowTransitionHoleyToDouble: "STORE_AND_GROW_TRANSITION_HOLEY_TO_DOUBLE",
	StoreNoTransitionIgnoreOutOfBounds:  "STORE_NO_TRANSITION_IGNORE_OUT_OF_BOUNDS",
	StoreNoTransitionHandleCOW:          "STORE_NO_TRANSITION_HANDLE_COW",
}

func (m StoreMode) String() string {
	if m < storeModeEnd {
		return storeModeNames[m]
	}
	return fmt.Sprintf("StoreMode(%d)", uint8(m))
}

// IsTransition reports whether m changes the receiver's elements kind.
func (m StoreMode) IsTransition() bool {
	switch m {
	case StoreTransitionToObject, StoreTransitionToDouble,
		StoreTransitionHoleyToObject, StoreTransitionHoleyToDouble,
		StoreAndGrowTransitionToObject, StoreAndGrowTransitionToDouble,
		StoreAndGrowTransitionHoleyToObject, StoreAndGrowTransitionHoleyToDouble:
		return true
	}
	return false
}

// IsGrow reports whether m may append past the end of the backing store.
func (m StoreMode) IsGrow() bool {
	return m >= StoreAndGrowNoTransition && m <= StoreAndGrowTransitionHoleyToDouble
}

// NonTransitioning strips the elements-kind transition from m.
func (m StoreMode) NonTransitioning() StoreMode {
	switch {
	case m == StoreNoTransitionIgnoreOutOfBounds, m == StoreNoTransitionHandleCOW:
		return m
	case m.IsGrow():
		return StoreAndGrowNoTransition
	}
	return StandardStore
}

// IsHandlerMode reports whether m may parameterize a compiled handler. Only
// the non-transitioning modes qualify.
func (m StoreMode) IsHandlerMode() bool {
	switch m {
	case StandardStore, StoreAndGrowNoTransition,
		StoreNoTransitionIgnoreOutOfBounds, StoreNoTransitionHandleCOW:
		return true
	}
	return false
}

// KeyType records whether a keyed site has seen property names or element
// indices.
type KeyType uint8

const (
	ElementKey KeyType = iota
	PropertyKey
)

// TypeofMode distinguishes `typeof x` global loads, which must not throw.
type TypeofMode uint8

const (
	NotInsideTypeof TypeofMode = iota
	InsideTypeof
)

// CacheHolder records where a named handler's assumptions are anchored.
type CacheHolder uint8

const (
	CacheOnReceiver CacheHolder = iota
	CacheOnPrototype
	CacheOnPrototypeReceiverIsDictionary
	CacheOnPrimitive
)

// ExtraState carries the access-kind specific bits of Flags.
//
// Store layout: bits 0-2 language mode, bits 3-5 store mode (keyed only,
// the transitioning modes above 7 never appear in handler flags), bit 6 key
// type. Load layout: bit 0 typeof mode, bit 1 key type.
type ExtraState uint32

const (
	storeLanguageShift = 0
	storeLanguageMask  = 0x7
	storeModeShift     = 3
	storeModeMask      = 0x7
	storeKeyTypeShift  = 6

	loadTypeofShift  = 0
	loadKeyTypeShift = 1
)

// handler store modes are packed densely into the 3-bit field.
var storeModeCodes = map[StoreMode]uint32{
	StandardStore:                      0,
	StoreAndGrowNoTransition:           1,
	StoreNoTransitionIgnoreOutOfBounds: 2,
	StoreNoTransitionHandleCOW:         3,
}

var storeModeDecodes = [...]StoreMode{
	StandardStore,
	StoreAndGrowNoTransition,
	StoreNoTransitionIgnoreOutOfBounds,
	StoreNoTransitionHandleCOW,
}

// StoreExtraState encodes a named store's extra state.
func StoreExtraState(mode LanguageMode) ExtraState {
	check(mode < languageEnd, "invalid language mode %d", mode)
	return ExtraState(uint32(mode) << storeLanguageShift)
}

// KeyedStoreExtraState encodes a keyed store's extra state. The store mode
// must be one of the non-transitioning handler modes.
func KeyedStoreExtraState(mode LanguageMode, store StoreMode) ExtraState {
	check(store.IsHandlerMode(), "unsupported store mode %s", store)
	return StoreExtraState(mode) |
		ExtraState(storeModeCodes[store]<<storeModeShift) |
		ExtraState(uint32(ElementKey)<<storeKeyTypeShift)
}

// LoadExtraState encodes a load's extra state.
func LoadExtraState(typeof TypeofMode, key KeyType) ExtraState {
	return ExtraState(uint32(typeof)<<loadTypeofShift | uint32(key)<<loadKeyTypeShift)
}

func (e ExtraState) LanguageMode() LanguageMode {
	return LanguageMode((uint32(e) >> storeLanguageShift) & storeLanguageMask)
}

func (e ExtraState) StoreMode() StoreMode {
	code := (uint32(e) >> storeModeShift) & storeModeMask
	if int(code) < len(storeModeDecodes) {
		return storeModeDecodes[code]
	}
	return storeModeEnd
}

func (e ExtraState) TypeofMode() TypeofMode {
	return TypeofMode((uint32(e) >> loadTypeofShift) & 1)
}

func (e ExtraState) LoadKeyType() KeyType {
	return KeyType((uint32(e) >> loadKeyTypeShift) & 1)
}

// Flags is the compact fingerprint of a handler's kind, state and extra
// state: bits 0-3 kind, 4-6 state, 7-8 cache holder, 9 and up extra state.
type Flags uint32

const (
	flagsKindShift   = 0
	flagsKindMask    = 0xf
	flagsStateShift  = 4
	flagsStateMask   = 0x7
	flagsHolderShift = 7
	flagsHolderMask  = 0x3
	flagsExtraShift  = 9
)

// ComputeFlags packs the handler fingerprint bits.
func ComputeFlags(kind Kind, state State, extra ExtraState, holder CacheHolder) Flags {
	check(kind < kindEnd, "invalid kind %d", kind)
	check(state < stateEnd, "invalid state %d", state)
	return Flags(uint32(kind)<<flagsKindShift |
		uint32(state)<<flagsStateShift |
		uint32(holder)<<flagsHolderShift |
		uint32(extra)<<flagsExtraShift)
}

func (f Flags) Kind() Kind { return Kind((uint32(f) >> flagsKindShift) & flagsKindMask) }
func (f Flags) State() State {
	return State((uint32(f) >> flagsStateShift) & flagsStateMask)
}
func (f Flags) CacheHolder() CacheHolder {
	return CacheHolder((uint32(f) >> flagsHolderShift) & flagsHolderMask)
}
func (f Flags) ExtraState() ExtraState { return ExtraState(uint32(f) >> flagsExtraShift) }

func (f Flags) String() string {
	return fmt.Sprintf("%s/%s/extra=%#x/holder=%d", f.Kind(), f.State(), uint32(f.ExtraState()), f.CacheHolder())
}
