package ic

import "testing"

func TestComputeFlags(t *testing.T) {
	tests := []struct {
		kind   Kind
		state  State
		extra  ExtraState
		holder CacheHolder
	}{
		{LoadIC, Monomorphic, LoadExtraState(InsideTypeof, PropertyKey), CacheOnPrototype},
		{KeyedLoadIC, Megamorphic, LoadExtraState(NotInsideTypeof, ElementKey), CacheOnReceiver},
		{StoreIC, Generic, StoreExtraState(Strict), CacheOnPrimitive},
		{KeyedStoreIC, Monomorphic, KeyedStoreExtraState(Strict, StoreNoTransitionHandleCOW), CacheOnPrototypeReceiverIsDictionary},
	}
	for _, tt := range tests {
		f := ComputeFlags(tt.kind, tt.state, tt.extra, tt.holder)
		if f.Kind() != tt.kind {
			t.Errorf("%s: expected kind %s, got %s", f, tt.kind, f.Kind())
		}
		if f.State() != tt.state {
			t.Errorf("%s: expected state %s, got %s", f, tt.state, f.State())
		}
		if f.ExtraState() != tt.extra {
			t.Errorf("%s: expected extra %#x, got %#x", f, tt.extra, f.ExtraState())
		}
		if f.CacheHolder() != tt.holder {
			t.Errorf("%s: expected holder %d, got %d", f, tt.holder, f.CacheHolder())
		}
	}
}

func TestExtraState(t *testing.T) {
	for _, mode := range []StoreMode{StandardStore, StoreAndGrowNoTransition, StoreNoTransitionIgnoreOutOfBounds, StoreNoTransitionHandleCOW} {
		e := KeyedStoreExtraState(Strict, mode)
		if e.StoreMode() != mode {
			t.Errorf("Expected store mode %s, got %s", mode, e.StoreMode())
		}
		if e.LanguageMode() != Strict {
			t.Errorf("Expected strict, got %s", e.LanguageMode())
		}
	}

	l := LoadExtraState(InsideTypeof, PropertyKey)
	if l.TypeofMode() != InsideTypeof || l.LoadKeyType() != PropertyKey {
		t.Errorf("Expected typeof/property, got %d/%d", l.TypeofMode(), l.LoadKeyType())
	}
	if StoreExtraState(Sloppy) == StoreExtraState(Strict) {
		t.Error("Expected language modes to differ in extra state")
	}
}

func TestKeyedStoreExtraStateRejectsTransitions(t *testing.T) {
	if !DebugChecks {
		t.Skip("debug checks compiled out")
	}
	expectPanic(t, func() { KeyedStoreExtraState(Sloppy, StoreTransitionToDouble) })
	expectPanic(t, func() { KeyedStoreExtraState(Sloppy, StoreAndGrowTransitionHoleyToObject) })
}

func TestStoreModePredicates(t *testing.T) {
	tests := []struct {
		mode         StoreMode
		transition   bool
		grow         bool
		nonTransit   StoreMode
		handlerUsage bool
	}{
		{StandardStore, false, false, StandardStore, true},
		{StoreTransitionToObject, true, false, StandardStore, false},
		{StoreTransitionHoleyToDouble, true, false, StandardStore, false},
		{StoreAndGrowNoTransition, false, true, StoreAndGrowNoTransition, true},
		{StoreAndGrowTransitionToDouble, true, true, StoreAndGrowNoTransition, false},
		{StoreAndGrowTransitionHoleyToObject, true, true, StoreAndGrowNoTransition, false},
		{StoreNoTransitionIgnoreOutOfBounds, false, false, StoreNoTransitionIgnoreOutOfBounds, true},
		{StoreNoTransitionHandleCOW, false, false, StoreNoTransitionHandleCOW, true},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			if tt.mode.IsTransition() != tt.transition {
				t.Errorf("Expected IsTransition %v", tt.transition)
			}
			if tt.mode.IsGrow() != tt.grow {
				t.Errorf("Expected IsGrow %v", tt.grow)
			}
			if got := tt.mode.NonTransitioning(); got != tt.nonTransit {
				t.Errorf("Expected non-transitioning %s, got %s", tt.nonTransit, got)
			}
			if tt.mode.IsHandlerMode() != tt.handlerUsage {
				t.Errorf("Expected IsHandlerMode %v", tt.handlerUsage)
			}
		})
	}
}

func TestMergeStoreMode(t *testing.T) {
	tests := []struct {
		old, mode StoreMode
		want      StoreMode
		ok        bool
	}{
		{StandardStore, StandardStore, StandardStore, true},
		{StandardStore, StoreAndGrowNoTransition, StoreAndGrowNoTransition, true},
		{StoreAndGrowNoTransition, StandardStore, StoreAndGrowNoTransition, true},
		{StoreNoTransitionHandleCOW, StoreNoTransitionHandleCOW, StoreNoTransitionHandleCOW, true},
		{StoreAndGrowNoTransition, StoreNoTransitionHandleCOW, StoreNoTransitionHandleCOW, false},
	}
	for _, tt := range tests {
		got, ok := mergeStoreMode(tt.old, tt.mode)
		if got != tt.want || ok != tt.ok {
			t.Errorf("mergeStoreMode(%s, %s): expected %s/%v, got %s/%v", tt.old, tt.mode, tt.want, tt.ok, got, ok)
		}
	}
}

func TestStateMarks(t *testing.T) {
	want := map[State]byte{
		Uninitialized: '0', PreMonomorphic: '.', Monomorphic: '1', RecomputeHandler: '^',
		Polymorphic: 'P', Megamorphic: 'N', Generic: 'G',
	}
	for s, m := range want {
		if s.Mark() != m {
			t.Errorf("%s: expected mark %c, got %c", s, m, s.Mark())
		}
	}
}

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		name  string
		desc  AccessDescriptor
		valid bool
	}{
		{"named load", NamedLoad(), true},
		{"keyed store grow", KeyedStore(Strict, StoreAndGrowTransitionToObject), true},
		{"store mode on load", AccessDescriptor{Kind: KeyedLoadIC, StoreMode: StoreAndGrowNoTransition}, false},
		{"strict load", AccessDescriptor{Kind: LoadIC, Language: Strict}, false},
		{"typeof store", AccessDescriptor{Kind: StoreIC, Typeof: InsideTypeof}, false},
		{"bad kind", AccessDescriptor{Kind: kindEnd}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if (err == nil) != tt.valid {
				t.Errorf("Expected valid=%v, got %v", tt.valid, err)
			}
		})
	}
}
