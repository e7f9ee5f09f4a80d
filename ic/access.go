package ic

import (
	"fmt"
	"strconv"
)

// AccessDescriptor is the static description of a call site's access,
// plus the store mode of the store currently being performed.
type AccessDescriptor struct {
	Kind      Kind
	Language  LanguageMode
	StoreMode StoreMode // keyed stores only
	Typeof    TypeofMode
}

func NamedLoad() AccessDescriptor { return AccessDescriptor{Kind: LoadIC} }
func KeyedLoad() AccessDescriptor { return AccessDescriptor{Kind: KeyedLoadIC} }

func NamedStore(lang LanguageMode) AccessDescriptor {
	return AccessDescriptor{Kind: StoreIC, Language: lang}
}

func KeyedStore(lang LanguageMode, mode StoreMode) AccessDescriptor {
	return AccessDescriptor{Kind: KeyedStoreIC, Language: lang, StoreMode: mode}
}

// WithStoreMode returns a copy of d with a different store mode.
func (d AccessDescriptor) WithStoreMode(mode StoreMode) AccessDescriptor {
	d.StoreMode = mode
	return d
}

// Validate reports malformed flag combinations.
func (d AccessDescriptor) Validate() error {
	if d.Kind >= kindEnd {
		return fmt.Errorf("%w: kind %d", ErrInvalidDescriptor, d.Kind)
	}
	if d.Language >= languageEnd {
		return fmt.Errorf("%w: language mode %d", ErrInvalidDescriptor, d.Language)
	}
	if d.StoreMode >= storeModeEnd {
		return fmt.Errorf("%w: store mode %d", ErrInvalidDescriptor, d.StoreMode)
	}
	if d.Kind != KeyedStoreIC && d.StoreMode != StandardStore {
		return fmt.Errorf("%w: store mode %s on %s", ErrInvalidDescriptor, d.StoreMode, d.Kind)
	}
	if d.Kind.IsLoad() && d.Language != Sloppy {
		return fmt.Errorf("%w: language mode on %s", ErrInvalidDescriptor, d.Kind)
	}
	if d.Kind.IsStore() && d.Typeof != NotInsideTypeof {
		return fmt.Errorf("%w: typeof mode on %s", ErrInvalidDescriptor, d.Kind)
	}
	return nil
}

// compatible reports whether handlers built for d may share a record with
// handlers built for o. Store modes may differ between accesses.
func (d AccessDescriptor) compatible(o AccessDescriptor) bool {
	return d.Kind == o.Kind && d.Language == o.Language && d.Typeof == o.Typeof
}

// extraState is the handler extra state for d with key type kt.
func (d AccessDescriptor) extraState(kt KeyType) ExtraState {
	switch d.Kind {
	case KeyedStoreIC:
		if kt == PropertyKey {
			return StoreExtraState(d.Language) | ExtraState(uint32(PropertyKey)<<storeKeyTypeShift)
		}
		return KeyedStoreExtraState(d.Language, d.StoreMode.NonTransitioning())
	case StoreIC:
		return StoreExtraState(d.Language)
	}
	return LoadExtraState(d.Typeof, kt)
}

func (d AccessDescriptor) String() string {
	switch d.Kind {
	case KeyedStoreIC:
		return fmt.Sprintf("%s(%s, %s)", d.Kind, d.Language, d.StoreMode)
	case StoreIC:
		return fmt.Sprintf("%s(%s)", d.Kind, d.Language)
	}
	return d.Kind.String()
}

// Key is the property name or element index of one access.
type Key struct {
	name    string
	index   uint32
	isIndex bool
}

func NameKey(name string) Key   { return Key{name: name} }
func IndexKey(index uint32) Key { return Key{index: index, isIndex: true} }

func (k Key) IsIndex() bool { return k.isIndex }
func (k Key) Name() string  { return k.name }
func (k Key) Index() uint32 { return k.index }
func (k Key) Type() KeyType {
	if k.isIndex {
		return ElementKey
	}
	return PropertyKey
}

func (k Key) String() string {
	if k.isIndex {
		return strconv.FormatUint(uint64(k.index), 10)
	}
	return k.name
}
