package object

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/icache/shape"
)

var log = commonlog.GetLogger("icache.object")

// Cell is a prototype validity cell. Handlers whose result depends on the
// prototype chain hold the cell that was current when they were built; any
// change to a prototype object invalidates it.
type Cell struct {
	invalid bool
}

func (c *Cell) Valid() bool { return !c.invalid }

type rootKey struct {
	proto *Object
	spec  shape.Spec
}

// Realm owns the shape table and the intrinsic objects of one VM instance.
type Realm struct {
	table *shape.Table

	ObjectPrototype *Object
	ArrayPrototype  *Object

	stringMap  *shape.Map
	numberMap  *shape.Map
	oddballMap *shape.Map

	roots      map[rootKey]*shape.Map
	migrations map[*shape.Map]*shape.Map

	cell *Cell
	// noElementsOnPrototypes holds while no prototype object carries
	// indexed properties of its own.
	noElementsOnPrototypes bool
}

// NewRealm creates a realm with Object.prototype and Array.prototype.
func NewRealm() *Realm {
	r := &Realm{
		table:                  shape.NewTable(),
		roots:                  make(map[rootKey]*shape.Map),
		migrations:             make(map[*shape.Map]*shape.Map),
		cell:                   &Cell{},
		noElementsOnPrototypes: true,
	}
	r.stringMap = r.table.NewMap(shape.Spec{InstanceType: shape.StringType, ElementsKind: shape.NoElements})
	r.numberMap = r.table.NewMap(shape.Spec{InstanceType: shape.HeapNumberType, ElementsKind: shape.NoElements})
	r.oddballMap = r.table.NewMap(shape.Spec{InstanceType: shape.OddballType, ElementsKind: shape.NoElements})

	r.ObjectPrototype = r.newObject(r.root(nil, shape.Spec{InstanceType: shape.JSObjectType, ElementsKind: shape.FastHoleyElements}))
	r.ObjectPrototype.isPrototype = true
	r.ArrayPrototype = r.NewObject()
	r.ArrayPrototype.isPrototype = true
	r.table.SetArrayPrototype(r.ArrayPrototype)
	return r
}

// Table returns the realm's shape table.
func (r *Realm) Table() *shape.Table { return r.table }

// Cell returns the current prototype validity cell.
func (r *Realm) Cell() *Cell { return r.cell }

// NoElementsOnPrototypes reports whether every prototype object is free of
// indexed properties, which lets hole loads on canonical arrays skip the
// prototype chain.
func (r *Realm) NoElementsOnPrototypes() bool { return r.noElementsOnPrototypes }

// invalidatePrototypes retires the current validity cell.
func (r *Realm) invalidatePrototypes() {
	r.cell.invalid = true
	r.cell = &Cell{}
	log.Debug("prototype validity cell invalidated")
}

func (r *Realm) prototypeChanged(o *Object) {
	if o.isPrototype {
		r.invalidatePrototypes()
	}
}

func (r *Realm) prototypeElementsChanged(o *Object) {
	if o.isPrototype && r.noElementsOnPrototypes {
		r.noElementsOnPrototypes = false
		log.Debug("prototype gained elements")
	}
}

// ShapeOf returns the shape of any value.
func (r *Realm) ShapeOf(v Value) shape.Descriptor {
	switch x := v.(type) {
	case *Object:
		return x.m
	case string:
		return r.stringMap
	case int, float64:
		return r.numberMap
	}
	return r.oddballMap
}

// root returns the shared root map for objects with the given prototype
// and attributes.
func (r *Realm) root(proto *Object, spec shape.Spec) *shape.Map {
	if proto != nil {
		spec.Prototype = proto
	}
	key := rootKey{proto: proto, spec: spec}
	if m, ok := r.roots[key]; ok {
		return m
	}
	m := r.table.NewMap(spec)
	r.roots[key] = m
	if proto != nil && !proto.isPrototype {
		proto.isPrototype = true
		if len(proto.elements) > 0 || len(proto.dict) > 0 {
			r.noElementsOnPrototypes = false
		}
	}
	return m
}

func (r *Realm) newObject(m *shape.Map) *Object {
	return &Object{m: m}
}

// Migrate moves an object off a deprecated map onto an equivalent live one.
func (r *Realm) Migrate(o *Object) {
	if !o.m.IsDeprecated() {
		return
	}
	to, ok := r.migrations[o.m]
	if !ok {
		to = r.table.NewMap(o.m.Spec())
		for _, p := range o.m.Properties() {
			if p.Kind == shape.AccessorProperty {
				to = r.table.AddAccessor(to, p.Name)
			} else {
				to = r.table.AddField(to, p.Name, p.Const)
			}
		}
		r.migrations[o.m] = to
	}
	log.Debugf("migrating %s to %s", o.m, to)
	o.m = to
}

// Deprecate marks the object's map as deprecated. Every object on that map
// migrates on its next generic load or store.
func (r *Realm) Deprecate(o *Object) {
	o.m.Deprecate()
}
