package ic

import (
	"fmt"
	"math"

	"github.com/tliron/commonlog"

	"github.com/chazu/icache/shape"
)

var compilerLog = commonlog.GetLogger("icache.ic.compiler")

// Compiler selects access strategies and interns the resulting handlers.
//
// Two requests with structurally equal fingerprints always return the same
// *Handler, so the number of handlers is bounded by the number of distinct
// (flags, strategy) combinations rather than by call sites or shapes.
type Compiler struct {
	emitter   CodeEmitter
	profiler  Profiler
	arrayMaps shape.InitialArrayMaps
	mega      *MegamorphicCache

	handlers map[Fingerprint]*Handler
	serial   uint32
}

// NewCompiler creates a compiler. profiler may be nil.
func NewCompiler(emitter CodeEmitter, profiler Profiler, arrayMaps shape.InitialArrayMaps, mega *MegamorphicCache) *Compiler {
	return &Compiler{
		emitter:   emitter,
		profiler:  profiler,
		arrayMaps: arrayMaps,
		mega:      mega,
		handlers:  make(map[Fingerprint]*Handler),
	}
}

// Len is the number of distinct handlers synthesized so far.
func (c *Compiler) Len() int { return len(c.handlers) }

// floatBits stands in for a float64 constant in an intern key, so NaN
// constants compare equal to themselves.
type floatBits uint64

// internKey is fp with float constants replaced by their bit patterns.
func internKey(fp Fingerprint) Fingerprint {
	if s, ok := fp.Strategy.(LoadConstant); ok {
		if f, isFloat := s.Value.(float64); isFloat {
			s.Value = floatBits(math.Float64bits(f))
			fp.Strategy = s
		}
	}
	return fp
}

func (c *Compiler) getOrCreate(fp Fingerprint, nameOrIndex string) (*Handler, error) {
	key := internKey(fp)
	if h, ok := c.handlers[key]; ok {
		return h, nil
	}
	code, err := c.emitter.Emit(StubDescriptor{Flags: fp.Flags, Strategy: fp.Strategy})
	if err != nil {
		return nil, fmt.Errorf("%w: emit %s: %v", ErrUnspecializable, fp.Strategy, err)
	}
	// Emission may have interned other handlers; re-probe before inserting.
	if h, ok := c.handlers[key]; ok {
		return h, nil
	}
	c.serial++
	h := &Handler{fp: fp, code: code, serial: c.serial}
	c.handlers[key] = h
	compilerLog.Debugf("compiled %s", h)
	if c.profiler != nil {
		c.profiler.HandlerCreated(logTagFor(fp), h, nameOrIndex)
	}
	return h, nil
}

// isCanonicalHoleyArray reports whether receiver is exactly the engine's
// initial JS array shape for FAST_HOLEY_ELEMENTS. Holey smi and double
// arrays never convert holes, even on their initial shape.
func (c *Compiler) isCanonicalHoleyArray(receiver shape.Descriptor) bool {
	const kind = shape.FastHoleyElements
	if !receiver.IsJSArray() || receiver.ElementsKind() != kind || c.arrayMaps == nil {
		return false
	}
	return shape.Same(receiver, c.arrayMaps.InitialJSArrayMap(kind))
}

// specializable rejects receivers that always need the full runtime path.
func specializable(receiver shape.Descriptor) error {
	switch {
	case receiver.IsAccessCheckNeeded():
		return fmt.Errorf("%w: access check needed", ErrUnspecializable)
	case receiver.InstanceType() == shape.JSProxyType:
		return fmt.Errorf("%w: proxy receiver", ErrUnspecializable)
	case receiver.InstanceType() == shape.JSGlobalProxyType:
		return fmt.Errorf("%w: global proxy receiver", ErrUnspecializable)
	}
	return nil
}

// SelectKeyedLoad is the keyed-load decision tree. Earlier rules win.
func (c *Compiler) SelectKeyedLoad(receiver shape.Descriptor, extra ExtraState) (Strategy, error) {
	if err := specializable(receiver); err != nil {
		return nil, err
	}
	switch {
	case receiver.HasIndexedInterceptor():
		return LoadIndexedInterceptor{}, nil
	case receiver.IsStringMap():
		return LoadIndexedString{}, nil
	case receiver.HasSloppyArgumentsElements():
		return KeyedLoadSloppyArguments{}, nil
	case receiver.HasFastElements() || receiver.HasFixedTypedArrayElements():
		return LoadFastElement{
			IsJSArray:              receiver.IsJSArray(),
			Kind:                   receiver.ElementsKind(),
			ConvertHoleToUndefined: c.isCanonicalHoleyArray(receiver),
		}, nil
	case receiver.HasDictionaryElements():
		return LoadDictionaryElement{Extra: extra}, nil
	}
	return nil, fmt.Errorf("%w: %s elements", ErrUnspecializable, receiver.ElementsKind())
}

// SelectKeyedStore is the keyed-store decision tree. transitioned is the
// shape the store moves the receiver to, or nil. mode must be a handler
// store mode.
func (c *Compiler) SelectKeyedStore(receiver, transitioned shape.Descriptor, mode StoreMode) (Strategy, error) {
	check(mode.IsHandlerMode(), "unsupported store mode %s", mode)
	if err := specializable(receiver); err != nil {
		return nil, err
	}
	if receiver.HasIndexedInterceptor() {
		return nil, fmt.Errorf("%w: indexed interceptor", ErrUnspecializable)
	}
	kind := receiver.ElementsKind()
	isJSArray := receiver.IsJSArray()
	switch {
	case transitioned != nil && !shape.Same(receiver, transitioned):
		return ElementsTransitionAndStore{
			From:      kind,
			To:        transitioned.ElementsKind(),
			IsJSArray: isJSArray,
			Mode:      mode,
		}, nil
	case !receiver.InstanceType().IsJSReceiver():
		return Slow{Kind: KeyedStoreIC}, nil
	case receiver.HasSloppyArgumentsElements():
		return KeyedStoreSloppyArguments{Mode: mode}, nil
	case receiver.HasFastElements() || receiver.HasFixedTypedArrayElements():
		return StoreFastElement{IsJSArray: isJSArray, Kind: kind, Mode: mode}, nil
	}
	return StoreElement{Kind: kind, Mode: mode}, nil
}

// ComputeKeyedLoadMonomorphicHandler returns the element load handler for
// receiver.
func (c *Compiler) ComputeKeyedLoadMonomorphicHandler(receiver shape.Descriptor, extra ExtraState) (*Handler, error) {
	return c.computeKeyedLoad(receiver, extra, "")
}

// computeKeyedLoad is ComputeKeyedLoadMonomorphicHandler reporting index to
// the profiler when the handler is new.
func (c *Compiler) computeKeyedLoad(receiver shape.Descriptor, extra ExtraState, index string) (*Handler, error) {
	s, err := c.SelectKeyedLoad(receiver, extra)
	if err != nil {
		return nil, err
	}
	if _, ok := s.(LoadIndexedInterceptor); ok {
		// Shared across every shape; the flags carry no per-site state.
		extra = 0
	}
	fp := Fingerprint{Flags: ComputeFlags(KeyedLoadIC, Monomorphic, extra, CacheOnReceiver), Strategy: s}
	return c.getOrCreate(fp, index)
}

// ComputeKeyedStoreMonomorphicHandler returns the element store handler for
// receiver under a non-transitioning store mode.
func (c *Compiler) ComputeKeyedStoreMonomorphicHandler(receiver shape.Descriptor, lang LanguageMode, mode StoreMode) (*Handler, error) {
	return c.computeKeyedStore(receiver, nil, lang, mode, "")
}

func (c *Compiler) computeKeyedStore(receiver, transitioned shape.Descriptor, lang LanguageMode, mode StoreMode, index string) (*Handler, error) {
	s, err := c.SelectKeyedStore(receiver, transitioned, mode)
	if err != nil {
		return nil, err
	}
	if slow, ok := s.(Slow); ok {
		return c.SlowHandler(slow.Kind, KeyedStoreExtraState(lang, StandardStore))
	}
	fp := Fingerprint{
		Flags:    ComputeFlags(KeyedStoreIC, Monomorphic, KeyedStoreExtraState(lang, mode), CacheOnReceiver),
		Strategy: s,
	}
	return c.getOrCreate(fp, index)
}

// ComputeKeyedStorePolymorphicHandlers builds one handler per receiver.
// For every receiver that some other receiver in the list is an
// elements-kind transition of, the handler transitions and the
// post-transition shape is reported at the same index; otherwise that
// index holds nil.
func (c *Compiler) ComputeKeyedStorePolymorphicHandlers(receivers []shape.Descriptor, mode StoreMode, lang LanguageMode) ([]*Handler, []shape.Descriptor, error) {
	return c.keyedStorePolymorphic(receivers, mode, lang, "")
}

func (c *Compiler) keyedStorePolymorphic(receivers []shape.Descriptor, mode StoreMode, lang LanguageMode, index string) ([]*Handler, []shape.Descriptor, error) {
	check(mode.IsHandlerMode(), "unsupported store mode %s", mode)
	handlers := make([]*Handler, 0, len(receivers))
	transitioned := make([]shape.Descriptor, 0, len(receivers))
	for _, r := range receivers {
		t := r.FindTransitionedShape(receivers)
		h, err := c.computeKeyedStore(r, t, lang, mode, index)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, h)
		transitioned = append(transitioned, t)
	}
	return handlers, transitioned, nil
}

// ComputeMegamorphicStoreHandler returns the shared, shape-checked-at-runtime
// store handler for lang, compiling it on first use.
func (c *Compiler) ComputeMegamorphicStoreHandler(lang LanguageMode) (*Handler, error) {
	flags := ComputeFlags(StoreIC, Megamorphic, StoreExtraState(lang), CacheOnReceiver)
	if h, ok := c.mega.LookupCode(flags); ok {
		return h, nil
	}
	h, err := c.getOrCreate(Fingerprint{Flags: flags, Strategy: StoreMegamorphic{Language: lang}}, "")
	if err != nil {
		return nil, err
	}
	c.mega.fillCode(h)
	return h, nil
}

// SlowHandler returns the shared runtime-path handler for kind.
func (c *Compiler) SlowHandler(kind Kind, extra ExtraState) (*Handler, error) {
	fp := Fingerprint{Flags: ComputeFlags(kind, Generic, extra, CacheOnReceiver), Strategy: Slow{Kind: kind}}
	return c.getOrCreate(fp, "")
}
