// Package snapshot captures the feedback state of an isolate in a canonical
// CBOR encoding. Two isolates that saw the same accesses produce the same
// bytes, apart from the isolate identity.
package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/icache/ic"
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Snapshot is the feedback state of a set of vectors.
type Snapshot struct {
	IsolateID   string      `cbor:"1,keyasint"`
	Vectors     []Vector    `cbor:"2,keyasint"`
	Megamorphic Megamorphic `cbor:"3,keyasint"`
	Handlers    int         `cbor:"4,keyasint"`
}

// Vector is the state of one feedback vector.
type Vector struct {
	Name  string `cbor:"1,keyasint"`
	Sites []Site `cbor:"2,keyasint"`
}

// Site is the state of one feedback record.
type Site struct {
	Slot      int     `cbor:"1,keyasint"`
	Kind      string  `cbor:"2,keyasint"`
	Language  string  `cbor:"3,keyasint,omitempty"`
	State     string  `cbor:"4,keyasint"`
	Name      string  `cbor:"5,keyasint,omitempty"` // keyed sites specialized on a name
	StoreMode string  `cbor:"6,keyasint,omitempty"`
	Entries   []Entry `cbor:"7,keyasint,omitempty"`
	Hits      uint64  `cbor:"8,keyasint"`
	Misses    uint64  `cbor:"9,keyasint"`
}

// Entry is one (shape, handler) pair.
type Entry struct {
	ShapeID        uint32 `cbor:"1,keyasint"`
	Handler        string `cbor:"2,keyasint"`
	Flags          uint32 `cbor:"3,keyasint"`
	TransitionedID uint32 `cbor:"4,keyasint,omitempty"`
}

// Megamorphic summarizes the global megamorphic cache.
type Megamorphic struct {
	Stubs int `cbor:"1,keyasint"`
	Code  int `cbor:"2,keyasint"`
}

// Capture records the state of the given vectors, or of every vector of
// the isolate when none is given.
func Capture(iso *ic.Isolate, vectors ...*ic.Vector) *Snapshot {
	if len(vectors) == 0 {
		vectors = iso.Vectors()
	}
	s := &Snapshot{
		IsolateID: iso.ID(),
		Handlers:  iso.Compiler().Len(),
	}
	s.Megamorphic.Stubs, s.Megamorphic.Code = iso.Megamorphic().Len()
	for _, v := range vectors {
		s.Vectors = append(s.Vectors, captureVector(v))
	}
	return s
}

func captureVector(v *ic.Vector) Vector {
	out := Vector{Name: v.Name()}
	for i := 0; i < v.Len(); i++ {
		f := v.At(ic.Slot(i))
		d := f.Access()
		site := Site{
			Slot:   i,
			Kind:   d.Kind.String(),
			State:  f.SavedState().String(),
			Hits:   f.Hits,
			Misses: f.Misses,
		}
		if d.Kind.IsStore() {
			site.Language = d.Language.String()
		}
		if d.Kind == ic.KeyedStoreIC && f.Len() > 0 {
			site.StoreMode = f.StoreMode().String()
		}
		if name, ok := f.Name(); ok {
			site.Name = name
		}
		for _, e := range f.Entries() {
			entry := Entry{
				ShapeID: uint32(e.Shape.ID()),
				Handler: e.Handler.Strategy().String(),
				Flags:   uint32(e.Handler.Flags()),
			}
			if e.Transitioned != nil {
				entry.TransitionedID = uint32(e.Transitioned.ID())
			}
			site.Entries = append(site.Entries, entry)
		}
		out.Sites = append(out.Sites, site)
	}
	return out
}

// Marshal serializes a Snapshot to canonical CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return encMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return &s, nil
}

// Site returns the recorded site in slot of the named vector.
func (s *Snapshot) Site(vector string, slot int) (Site, bool) {
	for _, v := range s.Vectors {
		if v.Name != vector {
			continue
		}
		for _, site := range v.Sites {
			if site.Slot == slot {
				return site, true
			}
		}
	}
	return Site{}, false
}
