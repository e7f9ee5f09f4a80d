package shape

// ElementsKind describes how an object's indexed properties are stored.
type ElementsKind uint8

const (
	FastSmiElements ElementsKind = iota
	FastHoleySmiElements
	FastElements
	FastHoleyElements
	FastDoubleElements
	FastHoleyDoubleElements

	DictionaryElements
	FastSloppyArgumentsElements
	SlowSloppyArgumentsElements
	FastStringWrapperElements
	SlowStringWrapperElements

	Uint8Elements
	Int32Elements
	Float64Elements

	// NoElements is used for shapes without an elements backing store.
	NoElements
)

const (
	firstFastKind       = FastSmiElements
	lastFastKind        = FastHoleyDoubleElements
	firstTypedArrayKind = Uint8Elements
	lastTypedArrayKind  = Float64Elements
)

var elementsKindNames = [...]string{
	FastSmiElements:             "FAST_SMI_ELEMENTS",
	FastHoleySmiElements:        "FAST_HOLEY_SMI_ELEMENTS",
	FastElements:                "FAST_ELEMENTS",
	FastHoleyElements:           "FAST_HOLEY_ELEMENTS",
	FastDoubleElements:          "FAST_DOUBLE_ELEMENTS",
	FastHoleyDoubleElements:     "FAST_HOLEY_DOUBLE_ELEMENTS",
	DictionaryElements:          "DICTIONARY_ELEMENTS",
	FastSloppyArgumentsElements: "FAST_SLOPPY_ARGUMENTS_ELEMENTS",
	SlowSloppyArgumentsElements: "SLOW_SLOPPY_ARGUMENTS_ELEMENTS",
	FastStringWrapperElements:   "FAST_STRING_WRAPPER_ELEMENTS",
	SlowStringWrapperElements:   "SLOW_STRING_WRAPPER_ELEMENTS",
	Uint8Elements:               "UINT8_ELEMENTS",
	Int32Elements:               "INT32_ELEMENTS",
	Float64Elements:             "FLOAT64_ELEMENTS",
	NoElements:                  "NO_ELEMENTS",
}

func (k ElementsKind) String() string {
	if int(k) < len(elementsKindNames) {
		return elementsKindNames[k]
	}
	return "UNKNOWN_ELEMENTS"
}

// IsFast reports whether k is one of the six fast (smi/object/double) kinds.
func (k ElementsKind) IsFast() bool {
	return k >= firstFastKind && k <= lastFastKind
}

// IsHoley reports whether a fast kind may contain holes.
func (k ElementsKind) IsHoley() bool {
	switch k {
	case FastHoleySmiElements, FastHoleyElements, FastHoleyDoubleElements:
		return true
	}
	return false
}

func (k ElementsKind) IsSmi() bool {
	return k == FastSmiElements || k == FastHoleySmiElements
}

func (k ElementsKind) IsDouble() bool {
	return k == FastDoubleElements || k == FastHoleyDoubleElements
}

func (k ElementsKind) IsFixedTypedArray() bool {
	return k >= firstTypedArrayKind && k <= lastTypedArrayKind
}

func (k ElementsKind) IsSloppyArguments() bool {
	return k == FastSloppyArgumentsElements || k == SlowSloppyArgumentsElements
}

func (k ElementsKind) IsStringWrapper() bool {
	return k == FastStringWrapperElements || k == SlowStringWrapperElements
}

func (k ElementsKind) IsDictionary() bool {
	return k == DictionaryElements
}

// Holey returns the holey counterpart of a packed fast kind. Other kinds are
// returned unchanged.
func (k ElementsKind) Holey() ElementsKind {
	switch k {
	case FastSmiElements:
		return FastHoleySmiElements
	case FastElements:
		return FastHoleyElements
	case FastDoubleElements:
		return FastHoleyDoubleElements
	}
	return k
}

// generality orders the fast kinds along the elements-kind lattice:
// smi < double < object, packed < holey.
func generality(k ElementsKind) (rank int, holey bool) {
	switch k {
	case FastSmiElements:
		return 0, false
	case FastHoleySmiElements:
		return 0, true
	case FastDoubleElements:
		return 1, false
	case FastHoleyDoubleElements:
		return 1, true
	case FastElements:
		return 2, false
	case FastHoleyElements:
		return 2, true
	}
	return -1, false
}

// IsMoreGeneralElementsKindTransition reports whether moving from one fast
// kind to another only ever generalizes the representation. Transitions from
// double to object are generalizing; transitions out of double into smi are
// not, and nothing transitions away from the non-fast kinds.
func IsMoreGeneralElementsKindTransition(from, to ElementsKind) bool {
	if from == to {
		return false
	}
	fr, fh := generality(from)
	tr, th := generality(to)
	if fr < 0 || tr < 0 {
		return false
	}
	if fh && !th {
		return false
	}
	return tr >= fr
}

// IsTransitionableFastElementsKind reports whether an elements-kind
// transition may start from k.
func IsTransitionableFastElementsKind(k ElementsKind) bool {
	return k.IsFast() && k != FastHoleyElements
}
