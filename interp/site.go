package interp

import (
	"github.com/chazu/icache/ic"
	"github.com/chazu/icache/object"
)

// Site simulates one property access site of interpreted code: it checks
// the site's feedback, runs the cached handler, and on a miss updates the
// feedback before completing the access generically.
type Site struct {
	ic   *ic.IC
	env  *Env
	desc ic.AccessDescriptor
}

// NewSite binds the call site in slot of vector to env.
func NewSite(env *Env, iso *ic.Isolate, vector *ic.Vector, slot ic.Slot) *Site {
	c := iso.IC(vector, slot)
	return &Site{ic: c, env: env, desc: c.Feedback().Access()}
}

// IC returns the controller of the site.
func (s *Site) IC() *ic.IC { return s.ic }

// Load performs receiver[key] or receiver.key.
func (s *Site) Load(receiver object.Value, key ic.Key) (object.Value, error) {
	return s.run(&Access{Desc: s.desc, Receiver: receiver, Key: key})
}

// Store performs receiver[key] = v or receiver.key = v.
func (s *Site) Store(receiver object.Value, key ic.Key, v object.Value) error {
	a := &Access{Desc: s.desc, Receiver: receiver, Key: key, Value: v}
	if o, ok := receiver.(*object.Object); ok && s.desc.Kind == ic.KeyedStoreIC && key.IsIndex() {
		a.Desc = s.desc.WithStoreMode(s.env.Realm.StoreModeFor(o, key.Index(), v))
	}
	_, err := s.run(a)
	return err
}

func (s *Site) run(a *Access) (object.Value, error) {
	receiver := s.env.Realm.ShapeOf(a.Receiver)
	if h, ok := s.ic.Lookup(receiver, a.Key); ok {
		v, ok, err := CodeOf(h)(s.env, a)
		if ok || err != nil {
			return v, err
		}
		log.Debugf("%s bailed out in slot %d", h.Strategy(), s.ic.Slot())
	}
	s.ic.UpdateOnAccess(receiver, a.Desc, a.Key)
	return Generic(s.env, a)
}
