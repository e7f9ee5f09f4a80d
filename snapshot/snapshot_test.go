package snapshot

import (
	"bytes"
	"testing"

	"github.com/chazu/icache/ic"
	"github.com/chazu/icache/interp"
	"github.com/chazu/icache/object"
	"github.com/chazu/icache/shape"
)

// run builds a fresh isolate and drives the same accesses through it.
func run(t *testing.T) (*ic.Isolate, *ic.Vector) {
	t.Helper()
	realm := object.NewRealm()
	iso, err := ic.NewIsolate(ic.DefaultConfig(), ic.Options{
		Emitter:   interp.NewEmitter(),
		ArrayMaps: realm.Table(),
		Resolver:  realm.Resolver(),
	})
	if err != nil {
		t.Fatalf("NewIsolate: %v", err)
	}
	env := &interp.Env{Realm: realm, Mega: iso.Megamorphic()}
	v := iso.NewVector("main", ic.KeyedLoad(), ic.KeyedStore(ic.Strict, ic.StandardStore), ic.NamedLoad())
	load := interp.NewSite(env, iso, v, 0)
	store := interp.NewSite(env, iso, v, 1)
	named := interp.NewSite(env, iso, v, 2)

	arrays := []*object.Object{
		realm.NewArray(shape.FastElements, "a"),
		realm.NewArray(shape.FastDoubleElements, 1.5),
		realm.NewArray(shape.FastSmiElements, 1, 2),
	}
	o := realm.NewObject()
	realm.SetNamed(o, "x", 1, ic.Sloppy)

	for i := 0; i < 3; i++ {
		for _, a := range arrays {
			if _, err := load.Load(a, ic.IndexKey(0)); err != nil {
				t.Fatal(err)
			}
		}
		if err := store.Store(arrays[0], ic.IndexKey(arrays[0].Length()), 3); err != nil {
			t.Fatal(err)
		}
		if _, err := named.Load(o, ic.NameKey("x")); err != nil {
			t.Fatal(err)
		}
	}
	return iso, v
}

func TestCaptureIsDeterministic(t *testing.T) {
	iso1, _ := run(t)
	iso2, _ := run(t)

	s1, s2 := Capture(iso1), Capture(iso2)
	if s1.IsolateID == s2.IsolateID {
		t.Errorf("Expected distinct isolate IDs, got %s twice", s1.IsolateID)
	}
	s1.IsolateID, s2.IsolateID = "", ""

	b1, err := Marshal(s1)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b2, err := Marshal(s2)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Error("Expected identical encodings for identical feedback")
	}
	again, _ := Marshal(s1)
	if !bytes.Equal(b1, again) {
		t.Error("Expected repeated encoding to be stable")
	}
}

func TestRoundTrip(t *testing.T) {
	iso, v := run(t)
	data, err := Marshal(Capture(iso, v))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s.IsolateID != iso.ID() {
		t.Errorf("Expected isolate %s, got %s", iso.ID(), s.IsolateID)
	}
	if s.Handlers != iso.Compiler().Len() {
		t.Errorf("Expected %d handlers, got %d", iso.Compiler().Len(), s.Handlers)
	}

	load, ok := s.Site("main", 0)
	if !ok {
		t.Fatal("Expected slot 0 of main")
	}
	if load.Kind != ic.KeyedLoadIC.String() || load.State != ic.Polymorphic.String() {
		t.Errorf("Expected polymorphic keyed load, got %s %s", load.Kind, load.State)
	}
	if len(load.Entries) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(load.Entries))
	}
	if load.Hits != 5 || load.Misses != 4 {
		t.Errorf("Expected 5 hits and 4 misses, got %d and %d", load.Hits, load.Misses)
	}

	store, _ := s.Site("main", 1)
	if store.Language != ic.Strict.String() || store.StoreMode != ic.StoreAndGrowNoTransition.String() {
		t.Errorf("Expected strict grow store, got %s %s", store.Language, store.StoreMode)
	}

	named, _ := s.Site("main", 2)
	if named.State != ic.Monomorphic.String() || len(named.Entries) != 1 {
		t.Errorf("Expected monomorphic named load, got %s with %d entries", named.State, len(named.Entries))
	}
	if named.Entries[0].Handler != (ic.LoadField{Index: 0}).String() {
		t.Errorf("Expected LoadField(0), got %s", named.Entries[0].Handler)
	}

	if _, ok := s.Site("main", 3); ok {
		t.Error("Expected no slot 3")
	}
	if _, ok := s.Site("other", 0); ok {
		t.Error("Expected no vector other")
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0xff, 0x00}); err == nil {
		t.Error("Expected error decoding garbage")
	}
}
