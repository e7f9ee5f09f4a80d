package object

import (
	"github.com/chazu/icache/ic"
	"github.com/chazu/icache/shape"
)

// ---------------------------------------------------------------------------
// Generic named loads
// ---------------------------------------------------------------------------

// GetNamed is the fully generic named load receiver.name.
func (r *Realm) GetNamed(receiver Value, name string) (Value, error) {
	switch x := receiver.(type) {
	case *Object:
		r.Migrate(x)
		return r.getNamed(x, x, name), nil
	case string:
		if name == "length" {
			return len(x), nil
		}
		return Undefined, nil
	case *Oddball:
		if x == Undefined || x == Null {
			return nil, typeError("cannot read property %q of %s", name, x)
		}
	}
	return Undefined, nil
}

func (r *Realm) getNamed(receiver Value, o *Object, name string) Value {
	for o != nil {
		if o.target != nil {
			o = o.target
			continue
		}
		if v, ok := r.ownNamed(receiver, o, name); ok {
			return v
		}
		o = o.Prototype()
	}
	return Undefined
}

// ownNamed looks up an own property, running getters against receiver.
func (r *Realm) ownNamed(receiver Value, o *Object, name string) (Value, bool) {
	if o.interceptor != nil && o.interceptor.GetNamed != nil {
		if v, ok := o.interceptor.GetNamed(name); ok {
			return v, true
		}
	}
	if o.m.IsJSArray() && name == "length" {
		return int(o.Length()), true
	}
	if o.m.IsDictionaryMap() {
		v, ok := o.props[name]
		return v, ok
	}
	p, ok := o.m.Lookup(name)
	if !ok {
		return nil, false
	}
	if p.Kind == shape.AccessorProperty {
		if acc := o.accessors[name]; acc != nil && acc.Get != nil {
			return acc.Get(receiver), true
		}
		return Undefined, true
	}
	return o.fields[p.Index], true
}

// ---------------------------------------------------------------------------
// Generic named stores
// ---------------------------------------------------------------------------

// SetNamed is the fully generic named store receiver.name = v.
func (r *Realm) SetNamed(receiver Value, name string, v Value, lang ic.LanguageMode) error {
	o, ok := receiver.(*Object)
	if !ok {
		return r.primitiveStore(receiver, lang, "property "+name)
	}
	for o.target != nil {
		o = o.target
	}
	r.Migrate(o)
	if o.interceptor != nil && o.interceptor.SetNamed != nil && o.interceptor.SetNamed(name, v) {
		return nil
	}
	if o.m.IsJSArray() && name == "length" {
		if lang == ic.Strict {
			return typeError("cannot assign to read only property length")
		}
		return nil
	}
	if o.m.IsDictionaryMap() {
		o.props[name] = v
		r.prototypeChanged(o)
		return nil
	}

	if p, ok := o.m.Lookup(name); ok {
		if p.Kind == shape.AccessorProperty {
			return r.callSetter(o, o, name, v, lang)
		}
		if p.Const {
			o.m.GeneralizeConst(name)
			r.invalidatePrototypes()
		}
		o.fields[p.Index] = v
		return nil
	}

	// Setters on the prototype chain take precedence over adding a property.
	for h := o.Prototype(); h != nil; h = h.Prototype() {
		if h.target != nil || h.m.IsDictionaryMap() {
			break
		}
		if p, ok := h.m.Lookup(name); ok {
			if p.Kind == shape.AccessorProperty {
				return r.callSetter(o, h, name, v, lang)
			}
			break
		}
	}
	r.addField(o, name, v, false)
	return nil
}

func (r *Realm) callSetter(receiver, holder *Object, name string, v Value, lang ic.LanguageMode) error {
	acc := holder.accessors[name]
	if acc == nil || acc.Set == nil {
		if lang == ic.Strict {
			return typeError("cannot set property %q which has only a getter", name)
		}
		return nil
	}
	acc.Set(receiver, v)
	return nil
}
