package object

import (
	"errors"
	"testing"

	"github.com/chazu/icache/ic"
	"github.com/chazu/icache/shape"
)

func mustGet(t *testing.T, r *Realm, o Value, index uint32) Value {
	t.Helper()
	v, err := r.GetElement(o, index)
	if err != nil {
		t.Fatalf("GetElement(%d): %v", index, err)
	}
	return v
}

func mustSet(t *testing.T, r *Realm, o Value, index uint32, v Value) {
	t.Helper()
	if err := r.SetElement(o, index, v, ic.Sloppy); err != nil {
		t.Fatalf("SetElement(%d): %v", index, err)
	}
}

func TestElementKindTransitions(t *testing.T) {
	r := NewRealm()
	a := r.NewArray(shape.FastSmiElements, 1, 2)

	mustSet(t, r, a, 0, 1.5)
	if a.Map().ElementsKind() != shape.FastDoubleElements {
		t.Fatalf("Expected double elements, got %s", a.Map().ElementsKind())
	}
	if v := mustGet(t, r, a, 1); v != 2 {
		t.Errorf("Expected 2 as a smi, got %#v", v)
	}

	mustSet(t, r, a, 1, "x")
	if a.Map().ElementsKind() != shape.FastElements {
		t.Fatalf("Expected object elements, got %s", a.Map().ElementsKind())
	}
	if v := mustGet(t, r, a, 0); v != 1.5 {
		t.Errorf("Expected 1.5, got %#v", v)
	}
	if !shape.Same(a.Map(), r.Table().InitialJSArrayMap(shape.FastElements)) {
		t.Error("Expected the canonical object-elements array map")
	}
}

func TestElementGrowAndNormalize(t *testing.T) {
	r := NewRealm()
	a := r.NewArray(shape.FastSmiElements, 1)

	mustSet(t, r, a, 3, 2)
	if a.Map().ElementsKind() != shape.FastHoleySmiElements {
		t.Errorf("Expected holey smi elements, got %s", a.Map().ElementsKind())
	}
	if a.Length() != 4 {
		t.Errorf("Expected length 4, got %d", a.Length())
	}
	if v := mustGet(t, r, a, 1); v != Undefined {
		t.Errorf("Expected undefined for a hole, got %v", v)
	}

	mustSet(t, r, a, 3+MaxElementsGap+1, 9)
	if !a.Map().HasDictionaryElements() {
		t.Fatalf("Expected dictionary elements, got %s", a.Map().ElementsKind())
	}
	if a.Length() != 3+MaxElementsGap+2 {
		t.Errorf("Expected length %d, got %d", 3+MaxElementsGap+2, a.Length())
	}
	if v := mustGet(t, r, a, 0); v != 1 {
		t.Errorf("Expected 1 to survive normalization, got %v", v)
	}
	if v := mustGet(t, r, a, 1); v != Undefined {
		t.Errorf("Expected holes to stay missing, got %v", v)
	}
}

func TestHoleLoadsConsultPrototype(t *testing.T) {
	r := NewRealm()
	proto := r.NewObject()
	a := r.NewArrayWithPrototype(proto, shape.FastHoleySmiElements, 1, Hole, 3)
	if !r.NoElementsOnPrototypes() {
		t.Fatal("Expected prototypes free of elements")
	}
	mustSet(t, r, proto, 1, "p")
	if r.NoElementsOnPrototypes() {
		t.Error("Expected the prototype element to be noticed")
	}
	if v := mustGet(t, r, a, 1); v != "p" {
		t.Errorf("Expected the prototype's element, got %v", v)
	}
	if v := mustGet(t, r, a, 2); v != 3 {
		t.Errorf("Expected own element 3, got %v", v)
	}
}

func TestTypedArrays(t *testing.T) {
	r := NewRealm()
	tests := []struct {
		kind shape.ElementsKind
		in   Value
		want Value
	}{
		{shape.Uint8Elements, 300, 44},
		{shape.Uint8Elements, -1, 255},
		{shape.Uint8Elements, "x", 0},
		{shape.Int32Elements, 1 << 31, -1 << 31},
		{shape.Int32Elements, 2.9, 2},
		{shape.Float64Elements, 1.5, 1.5},
		{shape.Float64Elements, 4, 4},
	}
	for _, tt := range tests {
		ta := r.NewTypedArray(tt.kind, 2)
		mustSet(t, r, ta, 0, tt.in)
		if v := mustGet(t, r, ta, 0); v != tt.want {
			t.Errorf("%s[0] = %#v: expected %#v, got %#v", tt.kind, tt.in, tt.want, v)
		}
	}

	ta := r.NewTypedArray(shape.Uint8Elements, 2)
	mustSet(t, r, ta, 5, 1)
	if ta.ElementsLen() != 2 {
		t.Errorf("Expected out of bounds store to be ignored, got length %d", ta.ElementsLen())
	}
	if v := mustGet(t, r, ta, 5); v != Undefined {
		t.Errorf("Expected undefined out of bounds, got %v", v)
	}
}

func TestCopyOnWrite(t *testing.T) {
	r := NewRealm()
	a := r.NewArray(shape.FastSmiElements, 1, 2)
	b := r.CloneCOW(a)
	if !a.IsCOW() || !b.IsCOW() {
		t.Fatal("Expected both arrays copy-on-write")
	}
	mustSet(t, r, b, 0, 9)
	if v := mustGet(t, r, a, 0); v != 1 {
		t.Errorf("Expected original untouched, got %v", v)
	}
	if v := mustGet(t, r, b, 0); v != 9 {
		t.Errorf("Expected 9, got %v", v)
	}
	if b.IsCOW() {
		t.Error("Expected the written array to own its elements")
	}
}

func TestStrictModeErrors(t *testing.T) {
	r := NewRealm()
	arr := r.NewArray(shape.FastSmiElements)
	wrapper := r.NewStringWrapper("abc")
	tests := []struct {
		name   string
		op     func(lang ic.LanguageMode) error
		sloppy bool // whether sloppy mode succeeds
	}{
		{"named store on number", func(l ic.LanguageMode) error { return r.SetNamed(1, "x", 2, l) }, true},
		{"element store on string", func(l ic.LanguageMode) error { return r.SetElement("s", 0, 2, l) }, true},
		{"store to string wrapper index", func(l ic.LanguageMode) error { return r.SetElement(wrapper, 1, "z", l) }, true},
		{"array length", func(l ic.LanguageMode) error { return r.SetNamed(arr, "length", 0, l) }, true},
		{"store on undefined", func(l ic.LanguageMode) error { return r.SetNamed(Undefined, "x", 2, l) }, false},
		{"element store on null", func(l ic.LanguageMode) error { return r.SetElement(Null, 0, 2, l) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(ic.Strict); !errors.Is(err, ErrTypeError) {
				t.Errorf("strict: expected TypeError, got %v", err)
			}
			err := tt.op(ic.Sloppy)
			if tt.sloppy && err != nil {
				t.Errorf("sloppy: expected success, got %v", err)
			}
			if !tt.sloppy && !errors.Is(err, ErrTypeError) {
				t.Errorf("sloppy: expected TypeError, got %v", err)
			}
		})
	}

	if _, err := r.GetNamed(Null, "x"); !errors.Is(err, ErrTypeError) {
		t.Errorf("Expected TypeError reading from null, got %v", err)
	}
	if v, _ := r.GetElement(wrapper, 1); v != "b" {
		t.Errorf("Expected wrapper index to read b, got %v", v)
	}
}

func TestStoreModeFor(t *testing.T) {
	r := NewRealm()
	smi := func() *Object { return r.NewArray(shape.FastSmiElements, 1, 2) }
	tests := []struct {
		name  string
		o     *Object
		index uint32
		v     Value
		want  ic.StoreMode
	}{
		{"smi to double", smi(), 0, 1.5, ic.StoreTransitionToDouble},
		{"smi grow to double", smi(), 2, 1.5, ic.StoreAndGrowTransitionToDouble},
		{"holey smi to double", r.NewArray(shape.FastHoleySmiElements, 1), 0, 1.5, ic.StoreTransitionHoleyToDouble},
		{"smi to object", smi(), 1, "x", ic.StoreTransitionToObject},
		{"double grow to object", r.NewArray(shape.FastDoubleElements, 1.5), 1, "x", ic.StoreAndGrowTransitionToObject},
		{"holey double grow to object", r.NewArray(shape.FastHoleyDoubleElements, 1.5), 1, "x", ic.StoreAndGrowTransitionHoleyToObject},
		{"grow", smi(), 2, 3, ic.StoreAndGrowNoTransition},
		{"far store", smi(), 2 + MaxElementsGap, 3, ic.StandardStore},
		{"typed out of bounds", r.NewTypedArray(shape.Int32Elements, 1), 4, 1, ic.StoreNoTransitionIgnoreOutOfBounds},
		{"copy on write", r.CloneCOW(smi()), 0, 3, ic.StoreNoTransitionHandleCOW},
		{"plain object", r.NewObject(), 0, 1, ic.StandardStore},
		{"object elements", r.NewArray(shape.FastElements, "a"), 0, 1.5, ic.StandardStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.StoreModeFor(tt.o, tt.index, tt.v); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestStoreModeForCreatesTransition(t *testing.T) {
	r := NewRealm()
	a := r.NewArrayWithPrototype(r.NewObject(), shape.FastSmiElements, 1)
	if a.Map().ElementsTransition(shape.FastDoubleElements) != nil {
		t.Fatal("Expected no transition before classification")
	}
	mode := r.StoreModeFor(a, 0, 0.5)
	if mode != ic.StoreTransitionToDouble {
		t.Fatalf("Expected %s, got %s", ic.StoreTransitionToDouble, mode)
	}
	target := ic.ComputeTransitionedShape(a.Map(), mode)
	if target.ElementsKind() != shape.FastDoubleElements {
		t.Errorf("Expected the double map to be reachable, got %v", target)
	}

	mustSet(t, r, a, 0, 0.5)
	if !shape.Same(a.Map(), target) {
		t.Errorf("Expected the generic store to land on %v, got %v", target, a.Map())
	}
}

func TestNamedProperties(t *testing.T) {
	r := NewRealm()
	proto := r.NewObject()
	o := r.NewObjectWithPrototype(proto)
	if err := r.SetNamed(o, "x", 1, ic.Strict); err != nil {
		t.Fatal(err)
	}
	r.DefineConst(proto, "k", 7)

	var got Value
	r.DefineAccessor(proto, "acc", &Accessor{
		Get: func(recv Value) Value { return recv },
		Set: func(recv Value, v Value) { got = v },
	})

	for _, tt := range []struct {
		name string
		want Value
	}{
		{"x", 1},
		{"k", 7},
		{"acc", o},
		{"missing", Undefined},
	} {
		if v, err := r.GetNamed(o, tt.name); err != nil || v != tt.want {
			t.Errorf("%s: expected %v, got %v (%v)", tt.name, tt.want, v, err)
		}
	}

	if err := r.SetNamed(o, "acc", 5, ic.Strict); err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("Expected setter to receive 5, got %v", got)
	}
	if _, ok := o.Map().Lookup("acc"); ok {
		t.Error("Expected the setter to prevent an own property")
	}

	ro := r.NewObject()
	r.DefineAccessor(ro, "ro", &Accessor{Get: func(Value) Value { return 1 }})
	if err := r.SetNamed(ro, "ro", 2, ic.Strict); !errors.Is(err, ErrTypeError) {
		t.Errorf("Expected TypeError for getter-only property, got %v", err)
	}

	if v, _ := r.GetNamed("abc", "length"); v != 3 {
		t.Errorf("Expected string length 3, got %v", v)
	}
	if v, _ := r.GetNamed(r.NewArray(shape.FastSmiElements, 1, 2), "length"); v != 2 {
		t.Errorf("Expected array length 2, got %v", v)
	}
}

func TestDictionaryAndProxyObjects(t *testing.T) {
	r := NewRealm()
	d := r.NewDictionaryObject()
	m := d.Map()
	for i, name := range []string{"a", "b", "c"} {
		if err := r.SetNamed(d, name, i, ic.Sloppy); err != nil {
			t.Fatal(err)
		}
	}
	if d.Map() != m {
		t.Error("Expected dictionary stores to keep the map")
	}
	if v, _ := r.GetNamed(d, "b"); v != 1 {
		t.Errorf("Expected 1, got %v", v)
	}

	target := r.NewObject()
	p := r.NewProxy(target)
	if err := r.SetNamed(p, "x", 4, ic.Sloppy); err != nil {
		t.Fatal(err)
	}
	mustSet(t, r, p, 0, "e")
	if v, _ := r.GetNamed(target, "x"); v != 4 {
		t.Errorf("Expected the store to reach the target, got %v", v)
	}
	if v := mustGet(t, r, p, 0); v != "e" {
		t.Errorf("Expected e through the proxy, got %v", v)
	}
}

func TestMigrateDeprecated(t *testing.T) {
	r := NewRealm()
	o := r.NewObject()
	r.SetNamed(o, "x", 1, ic.Sloppy)
	r.SetNamed(o, "y", 2, ic.Sloppy)
	old := o.Map()
	r.Deprecate(o)
	if err := r.SetNamed(o, "x", 3, ic.Sloppy); err != nil {
		t.Fatal(err)
	}
	if o.Map() == old || o.Map().IsDeprecated() {
		t.Fatal("Expected the object to migrate to a live map")
	}
	if v, _ := r.GetNamed(o, "y"); v != 2 {
		t.Errorf("Expected y to survive migration, got %v", v)
	}

	loaded := &Object{m: old, fields: []Value{7, 8}}
	if v := mustGet(t, r, loaded, 0); v != Undefined {
		t.Errorf("Expected no element 0, got %v", v)
	}
	if loaded.Map() != o.Map() {
		t.Error("Expected a generic element load to migrate the receiver")
	}
	named := &Object{m: old, fields: []Value{7, 8}}
	if v, _ := r.GetNamed(named, "y"); v != 8 {
		t.Errorf("Expected y = 8 after migration, got %v", v)
	}
	if named.Map() != o.Map() {
		t.Error("Expected a generic named load to migrate the receiver")
	}

	other := &Object{m: old, fields: []Value{5, 6}}
	r.Migrate(other)
	if other.Map() != o.Map() {
		t.Error("Expected objects on the same deprecated map to share the migration target")
	}
}

func TestResolver(t *testing.T) {
	r := NewRealm()
	res := r.Resolver()
	proto := r.NewObject()
	o := r.NewObjectWithPrototype(proto)
	r.SetNamed(o, "own", 1, ic.Sloppy)
	r.DefineConst(proto, "k", 7)
	r.SetNamed(proto, "f", 8, ic.Sloppy)

	if l := res.ResolveLoad(o.Map(), "own"); l.State != ic.LookupField || l.Holder != nil || l.Index != 0 {
		t.Errorf("own: expected receiver field 0, got %+v", l)
	}
	l := res.ResolveLoad(o.Map(), "k")
	if l.State != ic.LookupConstant || l.Holder != proto || l.Value != 7 || l.Cell != r.Cell() {
		t.Errorf("k: expected prototype constant 7 guarded by the current cell, got %+v", l)
	}
	if l := res.ResolveLoad(o.Map(), "f"); l.State != ic.LookupField || l.Holder != proto || l.Index != 1 {
		t.Errorf("f: expected prototype field 1, got %+v", l)
	}
	if l := res.ResolveLoad(o.Map(), "nope"); l.State != ic.LookupNotFound || l.Cell == nil {
		t.Errorf("nope: expected nonexistent with a cell, got %+v", l)
	}

	cell := r.Cell()
	r.SetNamed(proto, "k", 9, ic.Sloppy)
	if cell.Valid() {
		t.Error("Expected generalizing a prototype constant to invalidate the cell")
	}
	if l := res.ResolveLoad(o.Map(), "k"); l.State != ic.LookupField {
		t.Errorf("k: expected a plain field after generalization, got %+v", l)
	}

	for _, tt := range []struct {
		name string
		m    *shape.Map
		want ic.LookupState
	}{
		{"proxy", r.NewProxy(o).Map(), ic.LookupProxy},
		{"access check", r.NewAccessCheckedObject().Map(), ic.LookupAccessCheck},
		{"dictionary", r.NewDictionaryObject().Map(), ic.LookupSlow},
		{"interceptor", r.NewInterceptedObject(&Interceptor{GetNamed: func(string) (Value, bool) { return nil, false }}).Map(), ic.LookupInterceptor},
		{"array length", r.NewArray(shape.FastSmiElements).Map(), ic.LookupSlow},
	} {
		name := "x"
		if tt.name == "array length" {
			name = "length"
		}
		if l := res.ResolveLoad(tt.m, name); l.State != tt.want {
			t.Errorf("%s: expected lookup state %d, got %d", tt.name, tt.want, l.State)
		}
	}

	st := res.ResolveStore(o.Map(), "fresh")
	if st.State != ic.LookupTransition || st.Index != 1 {
		t.Fatalf("fresh: expected transition to field 1, got %+v", st)
	}
	if p, ok := st.Target.(*shape.Map).Lookup("fresh"); !ok || p.Index != 1 {
		t.Errorf("Expected the target map to lay out fresh at 1, got %+v", p)
	}
	if st := res.ResolveStore(o.Map(), "own"); st.State != ic.LookupField || st.Index != 0 {
		t.Errorf("own: expected field store, got %+v", st)
	}

	r.DefineAccessor(proto, "set", &Accessor{Set: func(Value, Value) {}})
	if st := res.ResolveStore(o.Map(), "set"); st.State != ic.LookupAccessor || st.Holder != proto {
		t.Errorf("set: expected prototype setter, got %+v", st)
	}
	c := r.NewObject()
	r.DefineConst(c, "k", 1)
	if st := res.ResolveStore(c.Map(), "k"); st.State != ic.LookupSlow {
		t.Errorf("const: expected slow store, got %+v", st)
	}
}
