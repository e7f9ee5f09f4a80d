package object

import (
	"github.com/chazu/icache/ic"
	"github.com/chazu/icache/shape"
)

// Resolver answers the inline cache system's named lookups against the
// realm's maps.
type Resolver struct {
	realm *Realm
}

// Resolver returns the property resolver of the realm.
func (r *Realm) Resolver() *Resolver { return &Resolver{realm: r} }

// obstacle classifies receiver maps the lookup cannot see through.
func obstacle(m *shape.Map) (ic.LookupState, bool) {
	switch {
	case m.InstanceType() == shape.JSProxyType || m.InstanceType() == shape.JSGlobalProxyType:
		return ic.LookupProxy, true
	case m.IsAccessCheckNeeded():
		return ic.LookupAccessCheck, true
	case m.HasNamedInterceptor():
		return ic.LookupInterceptor, true
	case m.IsDictionaryMap() || !m.InstanceType().IsJSReceiver():
		return ic.LookupSlow, true
	}
	return 0, false
}

// ResolveLoad implements ic.PropertyResolver.
func (res *Resolver) ResolveLoad(receiver shape.Descriptor, name string) ic.Lookup {
	m, ok := receiver.(*shape.Map)
	if !ok {
		return ic.Lookup{State: ic.LookupSlow}
	}
	if state, ok := obstacle(m); ok {
		return ic.Lookup{State: state}
	}
	if m.IsJSArray() && name == "length" {
		return ic.Lookup{State: ic.LookupSlow}
	}
	if p, ok := m.Lookup(name); ok {
		if p.Kind == shape.AccessorProperty {
			return ic.Lookup{State: ic.LookupAccessor}
		}
		return ic.Lookup{State: ic.LookupField, Index: p.Index}
	}

	cell := res.realm.cell
	for h, _ := m.Prototype().(*Object); h != nil; h = h.Prototype() {
		if _, ok := obstacle(h.m); ok || (h.m.IsJSArray() && name == "length") {
			return ic.Lookup{State: ic.LookupSlow}
		}
		p, ok := h.m.Lookup(name)
		if !ok {
			continue
		}
		switch {
		case p.Kind == shape.AccessorProperty:
			return ic.Lookup{State: ic.LookupAccessor, Holder: h, Cell: cell}
		case p.Const:
			return ic.Lookup{State: ic.LookupConstant, Holder: h, Index: p.Index, Value: h.fields[p.Index], Cell: cell}
		}
		return ic.Lookup{State: ic.LookupField, Holder: h, Index: p.Index, Cell: cell}
	}
	return ic.Lookup{State: ic.LookupNotFound, Cell: cell}
}

// ResolveStore implements ic.PropertyResolver. A store that adds a property
// creates the map transition it needs.
func (res *Resolver) ResolveStore(receiver shape.Descriptor, name string) ic.Lookup {
	m, ok := receiver.(*shape.Map)
	if !ok {
		return ic.Lookup{State: ic.LookupSlow}
	}
	if state, ok := obstacle(m); ok {
		return ic.Lookup{State: state}
	}
	if m.IsJSArray() && name == "length" {
		return ic.Lookup{State: ic.LookupSlow}
	}
	if p, ok := m.Lookup(name); ok {
		switch {
		case p.Kind == shape.AccessorProperty:
			return ic.Lookup{State: ic.LookupAccessor}
		case p.Const:
			// The runtime generalizes the field first.
			return ic.Lookup{State: ic.LookupSlow}
		}
		return ic.Lookup{State: ic.LookupField, Index: p.Index}
	}

	cell := res.realm.cell
	for h, _ := m.Prototype().(*Object); h != nil; h = h.Prototype() {
		if h.target != nil || h.m.IsDictionaryMap() {
			return ic.Lookup{State: ic.LookupSlow}
		}
		if p, ok := h.m.Lookup(name); ok {
			if p.Kind == shape.AccessorProperty {
				return ic.Lookup{State: ic.LookupAccessor, Holder: h, Cell: cell}
			}
			break
		}
	}
	target := res.realm.table.AddField(m, name, false)
	p, _ := target.Lookup(name)
	return ic.Lookup{State: ic.LookupTransition, Target: target, Index: p.Index, Cell: cell}
}
