package ic

import "fmt"

// Code is whatever executable unit a CodeEmitter produces. The IC system
// never looks inside it.
type Code any

// StubDescriptor is what the compiler asks a CodeEmitter to build.
type StubDescriptor struct {
	Flags    Flags
	Strategy Strategy
}

// CodeEmitter turns a chosen strategy into executable code.
type CodeEmitter interface {
	Emit(desc StubDescriptor) (Code, error)
}

// LogTag names the kind of code reported to a Profiler.
type LogTag uint8

const (
	LoadICTag LogTag = iota
	KeyedLoadICTag
	StoreICTag
	KeyedStoreICTag
	StoreMegamorphicTag
	SlowTag
)

var logTagNames = [...]string{
	LoadICTag:           "LOAD_IC",
	KeyedLoadICTag:      "KEYED_LOAD_IC",
	StoreICTag:          "STORE_IC",
	KeyedStoreICTag:     "KEYED_STORE_IC",
	StoreMegamorphicTag: "STORE_MEGAMORPHIC",
	SlowTag:             "SLOW",
}

func (t LogTag) String() string {
	if int(t) < len(logTagNames) {
		return logTagNames[t]
	}
	return fmt.Sprintf("LogTag(%d)", uint8(t))
}

func logTagFor(fp Fingerprint) LogTag {
	switch fp.Strategy.(type) {
	case StoreMegamorphic:
		return StoreMegamorphicTag
	case Slow:
		return SlowTag
	}
	switch fp.Flags.Kind() {
	case KeyedLoadIC:
		return KeyedLoadICTag
	case StoreIC:
		return StoreICTag
	case KeyedStoreIC:
		return KeyedStoreICTag
	}
	return LoadICTag
}

// Profiler is notified every time a new handler is synthesized. It must not
// call back into the IC system.
type Profiler interface {
	HandlerCreated(tag LogTag, h *Handler, nameOrIndex string)
}

// Fingerprint identifies structurally identical handlers.
type Fingerprint struct {
	Flags    Flags
	Strategy Strategy
}

func (fp Fingerprint) String() string {
	return fmt.Sprintf("%s %s", fp.Flags, fp.Strategy)
}

// Handler is one interned, immutable access strategy with its code.
type Handler struct {
	fp     Fingerprint
	code   Code
	serial uint32
}

func (h *Handler) Fingerprint() Fingerprint { return h.fp }
func (h *Handler) Flags() Flags             { return h.fp.Flags }
func (h *Handler) Strategy() Strategy       { return h.fp.Strategy }
func (h *Handler) Code() Code               { return h.code }

// Serial is the creation order of h within its compiler. It is stable for
// the lifetime of the isolate.
func (h *Handler) Serial() uint32 { return h.serial }

func (h *Handler) String() string {
	if h == nil {
		return "<no handler>"
	}
	return fmt.Sprintf("#%d %s", h.serial, h.fp)
}
