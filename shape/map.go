package shape

import "fmt"

// PropertyKind distinguishes data fields from accessor pairs.
type PropertyKind uint8

const (
	DataProperty PropertyKind = iota
	AccessorProperty
)

// Property describes one named property of a Map.
type Property struct {
	Name  string
	Kind  PropertyKind
	Const bool // value never changes after initialization
	Index int  // field index for data properties
}

// Spec holds the attributes of a freshly created Map.
type Spec struct {
	InstanceType       InstanceType
	ElementsKind       ElementsKind
	Prototype          any // opaque prototype object
	DictionaryMap      bool
	IndexedInterceptor bool
	NamedInterceptor   bool
	AccessCheckNeeded  bool
}

// Map is the reference Descriptor implementation.
type Map struct {
	id   ID
	spec Spec

	properties []Property
	deprecated bool

	elementsTransitions map[ElementsKind]*Map
	fieldTransitions    map[string]*Map
}

func (m *Map) ID() ID                     { return m.id }
func (m *Map) ElementsKind() ElementsKind { return m.spec.ElementsKind }
func (m *Map) InstanceType() InstanceType { return m.spec.InstanceType }
func (m *Map) Prototype() any             { return m.spec.Prototype }

func (m *Map) IsJSArray() bool             { return m.spec.InstanceType == JSArrayType }
func (m *Map) IsStringMap() bool           { return m.spec.InstanceType < FirstNonstringType }
func (m *Map) IsDictionaryMap() bool       { return m.spec.DictionaryMap }
func (m *Map) IsDeprecated() bool          { return m.deprecated }
func (m *Map) HasIndexedInterceptor() bool { return m.spec.IndexedInterceptor }
func (m *Map) HasNamedInterceptor() bool   { return m.spec.NamedInterceptor }
func (m *Map) IsAccessCheckNeeded() bool   { return m.spec.AccessCheckNeeded }

func (m *Map) HasFastElements() bool            { return m.spec.ElementsKind.IsFast() }
func (m *Map) HasFixedTypedArrayElements() bool { return m.spec.ElementsKind.IsFixedTypedArray() }
func (m *Map) HasSloppyArgumentsElements() bool { return m.spec.ElementsKind.IsSloppyArguments() }
func (m *Map) HasDictionaryElements() bool      { return m.spec.ElementsKind.IsDictionary() }

// Spec returns the attributes m was created with.
func (m *Map) Spec() Spec { return m.spec }

func (m *Map) String() string {
	return fmt.Sprintf("Map#%d(%s, %s)", m.id, m.spec.InstanceType, m.spec.ElementsKind)
}

// ElementsTransition implements Descriptor.
func (m *Map) ElementsTransition(kind ElementsKind) Descriptor {
	if t, ok := m.elementsTransitions[kind]; ok {
		return t
	}
	return nil
}

// FindTransitionedShape implements Descriptor. It walks the elements-kind
// transition tree rooted at m and returns the most general reachable map
// that appears in candidates.
func (m *Map) FindTransitionedShape(candidates []Descriptor) Descriptor {
	if !IsTransitionableFastElementsKind(m.spec.ElementsKind) {
		return nil
	}
	var best *Map
	bestRank := -1
	seen := map[*Map]bool{m: true}
	queue := []*Map{m}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range cur.elementsTransitions {
			if seen[next] || !IsMoreGeneralElementsKindTransition(m.spec.ElementsKind, next.spec.ElementsKind) {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
			if !containsShape(candidates, next) {
				continue
			}
			rank, holey := generality(next.spec.ElementsKind)
			score := rank * 2
			if holey {
				score++
			}
			if score > bestRank {
				best, bestRank = next, score
			}
		}
	}
	if best == nil {
		return nil
	}
	return best
}

func containsShape(list []Descriptor, m *Map) bool {
	for _, d := range list {
		if d != nil && d.ID() == m.id {
			return true
		}
	}
	return false
}

// Lookup returns the named property descriptor, if present.
func (m *Map) Lookup(name string) (Property, bool) {
	for _, p := range m.properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// FieldCount is the number of data fields laid out by this map.
func (m *Map) FieldCount() int {
	n := 0
	for _, p := range m.properties {
		if p.Kind == DataProperty {
			n++
		}
	}
	return n
}

// Properties returns a copy of the property descriptors.
func (m *Map) Properties() []Property {
	out := make([]Property, len(m.properties))
	copy(out, m.properties)
	return out
}

// Deprecate marks m as stale. Objects still using it must migrate.
func (m *Map) Deprecate() { m.deprecated = true }

// GeneralizeConst clears the Const bit of a data property in place. Handlers
// that embedded the constant value become stale.
func (m *Map) GeneralizeConst(name string) bool {
	for i := range m.properties {
		if m.properties[i].Name == name && m.properties[i].Const {
			m.properties[i].Const = false
			return true
		}
	}
	return false
}

// Table mints Maps for one VM instance and owns the canonical initial array
// maps. It is not safe for concurrent use.
type Table struct {
	nextID      ID
	maps        map[ID]*Map
	initialJSAM map[ElementsKind]*Map
}

// NewTable creates a table with canonical JS array maps for every fast
// elements kind, linked by elements-kind transitions.
func NewTable() *Table {
	t := &Table{
		nextID:      1,
		maps:        make(map[ID]*Map),
		initialJSAM: make(map[ElementsKind]*Map),
	}
	root := t.NewMap(Spec{InstanceType: JSArrayType, ElementsKind: FastSmiElements})
	t.initialJSAM[FastSmiElements] = root
	for _, k := range []ElementsKind{FastHoleySmiElements, FastDoubleElements, FastHoleyDoubleElements, FastElements, FastHoleyElements} {
		t.initialJSAM[k] = t.TransitionElements(root, k)
	}
	// Link the rest of the lattice so every canonical map reaches its more
	// general siblings directly.
	for _, from := range t.initialJSAM {
		for _, to := range t.initialJSAM {
			if IsMoreGeneralElementsKindTransition(from.spec.ElementsKind, to.spec.ElementsKind) {
				from.elementsTransitions[to.spec.ElementsKind] = to
			}
		}
	}
	return t
}

// NewMap creates a root map with the given attributes.
func (t *Table) NewMap(spec Spec) *Map {
	m := &Map{
		id:                  t.nextID,
		spec:                spec,
		elementsTransitions: make(map[ElementsKind]*Map),
		fieldTransitions:    make(map[string]*Map),
	}
	t.nextID++
	t.maps[m.id] = m
	return m
}

// Get returns the map with the given id.
func (t *Table) Get(id ID) (*Map, bool) {
	m, ok := t.maps[id]
	return m, ok
}

// Len is the number of maps minted so far.
func (t *Table) Len() int { return len(t.maps) }

// InitialJSArrayMap implements InitialArrayMaps.
func (t *Table) InitialJSArrayMap(kind ElementsKind) Descriptor {
	if m, ok := t.initialJSAM[kind]; ok {
		return m
	}
	return nil
}

// SetArrayPrototype installs proto on every canonical array map.
func (t *Table) SetArrayPrototype(proto any) {
	for _, m := range t.initialJSAM {
		m.spec.Prototype = proto
	}
}

func (t *Table) derive(from *Map) *Map {
	m := t.NewMap(from.spec)
	m.properties = from.Properties()
	return m
}

// TransitionElements returns the map reached from m by changing its
// elements kind, creating and linking it on first use.
func (t *Table) TransitionElements(m *Map, kind ElementsKind) *Map {
	if m.spec.ElementsKind == kind {
		return m
	}
	if next, ok := m.elementsTransitions[kind]; ok {
		return next
	}
	next := t.derive(m)
	next.spec.ElementsKind = kind
	m.elementsTransitions[kind] = next
	return next
}

// AddField returns the map reached from m by appending a data property.
func (t *Table) AddField(m *Map, name string, constant bool) *Map {
	if next, ok := m.fieldTransitions[name]; ok {
		return next
	}
	next := t.derive(m)
	next.properties = append(next.properties, Property{
		Name:  name,
		Kind:  DataProperty,
		Const: constant,
		Index: m.FieldCount(),
	})
	m.fieldTransitions[name] = next
	return next
}

// AddAccessor returns the map reached from m by appending an accessor pair.
func (t *Table) AddAccessor(m *Map, name string) *Map {
	key := "accessor:" + name
	if next, ok := m.fieldTransitions[key]; ok {
		return next
	}
	next := t.derive(m)
	next.properties = append(next.properties, Property{Name: name, Kind: AccessorProperty, Index: -1})
	m.fieldTransitions[key] = next
	return next
}

// WithPrototype returns a fresh root map like m but with a different
// prototype. The result is never a canonical array map.
func (t *Table) WithPrototype(m *Map, proto any) *Map {
	next := t.derive(m)
	next.spec.Prototype = proto
	return next
}
