package ic

import (
	"fmt"
	"testing"

	"github.com/chazu/icache/shape"
)

// testEmitter produces the strategy's string as code.
type testEmitter struct {
	emitted []Strategy
	fail    bool
}

func (e *testEmitter) Emit(d StubDescriptor) (Code, error) {
	if e.fail {
		return nil, fmt.Errorf("emitter disabled")
	}
	e.emitted = append(e.emitted, d.Strategy)
	return d.Strategy.String(), nil
}

// testResolver answers every lookup with an own field whose index is the
// shape id, unless a result is registered for the name.
type testResolver struct {
	loads  map[string]Lookup
	stores map[string]Lookup
}

func (r *testResolver) ResolveLoad(s shape.Descriptor, name string) Lookup {
	if l, ok := r.loads[name]; ok {
		return l
	}
	return Lookup{State: LookupField, Index: int(s.ID())}
}

func (r *testResolver) ResolveStore(s shape.Descriptor, name string) Lookup {
	if l, ok := r.stores[name]; ok {
		return l
	}
	return Lookup{State: LookupField, Index: int(s.ID())}
}

type testCell struct{ invalid bool }

func (c *testCell) Valid() bool { return !c.invalid }

type fixture struct {
	iso      *Isolate
	table    *shape.Table
	emitter  *testEmitter
	resolver *testResolver
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	fx := &fixture{
		table:    shape.NewTable(),
		emitter:  &testEmitter{},
		resolver: &testResolver{loads: map[string]Lookup{}, stores: map[string]Lookup{}},
	}
	iso, err := NewIsolate(cfg, Options{Emitter: fx.emitter, ArrayMaps: fx.table, Resolver: fx.resolver})
	if err != nil {
		t.Fatalf("NewIsolate: %v", err)
	}
	fx.iso = iso
	return fx
}

// object mints a fresh plain-object shape.
func (fx *fixture) object() *shape.Map {
	return fx.table.NewMap(shape.Spec{InstanceType: shape.JSObjectType, ElementsKind: shape.FastHoleyElements})
}

func (fx *fixture) array(kind shape.ElementsKind) shape.Descriptor {
	return fx.table.InitialJSArrayMap(kind)
}

func (fx *fixture) site(desc AccessDescriptor) *IC {
	v := fx.iso.NewVector("test", desc)
	return fx.iso.IC(v, 0)
}

// expectPanic runs f and reports whether it panicked.
func expectPanic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("Expected panic, got none")
		}
	}()
	f()
}
