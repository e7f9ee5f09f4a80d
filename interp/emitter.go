// Package interp turns handler strategies into interpretable Go closures
// and simulates the call sites that run them.
package interp

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/icache/ic"
	"github.com/chazu/icache/object"
)

var log = commonlog.GetLogger("icache.interp")

// Env is what handler code runs against.
type Env struct {
	Realm *object.Realm
	Mega  *ic.MegamorphicCache
}

// Access is one execution of a call site.
type Access struct {
	Desc     ic.AccessDescriptor
	Receiver object.Value
	Key      ic.Key
	Value    object.Value // stores only
}

// Code is the executable form of a handler. ok is false when the fast
// path does not apply; the access must then take the miss path, and
// nothing has been mutated.
type Code func(env *Env, a *Access) (result object.Value, ok bool, err error)

// Emitter implements ic.CodeEmitter.
type Emitter struct {
	emitted int
}

func NewEmitter() *Emitter { return &Emitter{} }

// Emitted is the number of code objects produced so far.
func (e *Emitter) Emitted() int { return e.emitted }

// Emit implements ic.CodeEmitter.
func (e *Emitter) Emit(desc ic.StubDescriptor) (ic.Code, error) {
	code, err := e.emit(desc)
	if err != nil {
		return nil, err
	}
	e.emitted++
	log.Debugf("emitted %s", desc.Strategy)
	return code, nil
}

func (e *Emitter) emit(desc ic.StubDescriptor) (Code, error) {
	switch s := desc.Strategy.(type) {
	case ic.LoadIndexedInterceptor:
		return loadGenericElement, nil
	case ic.LoadIndexedString:
		return loadIndexedString, nil
	case ic.KeyedLoadSloppyArguments:
		return loadSloppyArguments, nil
	case ic.LoadFastElement:
		return loadFastElement(s), nil
	case ic.LoadDictionaryElement:
		return loadDictionaryElement, nil

	case ic.ElementsTransitionAndStore:
		return elementsTransitionAndStore(s), nil
	case ic.KeyedStoreSloppyArguments:
		return storeSloppyArguments, nil
	case ic.StoreFastElement:
		return storeFastElement(s), nil
	case ic.StoreElement:
		return storeElement(s), nil
	case ic.StoreMegamorphic:
		return storeMegamorphic, nil

	case ic.LoadField:
		return loadField(s), nil
	case ic.LoadPrototypeField:
		return loadPrototypeField(s), nil
	case ic.LoadConstant:
		return loadConstant(s), nil
	case ic.LoadAccessor:
		return loadAccessor(s), nil
	case ic.LoadInterceptor:
		return loadGenericNamed, nil
	case ic.LoadNonexistent:
		return loadNonexistent, nil
	case ic.StoreField:
		return storeField(s), nil
	case ic.StoreTransition:
		return storeTransition(s), nil
	case ic.StoreAccessor:
		return storeAccessor(s), nil
	case ic.StoreInterceptor:
		return storeGeneric, nil

	case ic.Slow:
		if s.Kind.IsLoad() {
			return loadGeneric, nil
		}
		return storeGeneric, nil
	}
	return nil, fmt.Errorf("no code for strategy %s", desc.Strategy)
}

// CodeOf returns the executable code of a handler.
func CodeOf(h *ic.Handler) Code {
	return h.Code().(Code)
}
