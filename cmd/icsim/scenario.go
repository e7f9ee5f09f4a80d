package main

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/chazu/icache/ic"
	"github.com/chazu/icache/interp"
	"github.com/chazu/icache/object"
	"github.com/chazu/icache/shape"
)

// Scenario is a replayable sequence of accesses against one call site.
type Scenario struct {
	Site     SiteSpec     `toml:"site"`
	Objects  []ObjectSpec `toml:"objects"`
	Accesses []AccessSpec `toml:"access"`
}

// SiteSpec describes the call site.
type SiteSpec struct {
	Kind     string `toml:"kind"`     // load, keyed-load, store, keyed-store
	Language string `toml:"language"` // sloppy (default) or strict
}

// ObjectSpec describes one receiver.
type ObjectSpec struct {
	Name   string         `toml:"name"`
	Type   string         `toml:"type"` // object, array, typed-array, arguments, dictionary, string, proxy
	Kind   string         `toml:"kind"` // elements kind name for arrays
	Values []any          `toml:"values"`
	Fields map[string]any `toml:"fields"`
	Length int            `toml:"length"` // typed arrays
	String string         `toml:"string"`
}

// AccessSpec is one access. A Name selects a named key, otherwise Index is
// used.
type AccessSpec struct {
	Object string `toml:"object"`
	Name   string `toml:"name"`
	Index  uint32 `toml:"index"`
	Value  any    `toml:"value"`
	Repeat int    `toml:"repeat"`
}

// LoadScenario parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var s Scenario
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return &s, nil
}

func (s *SiteSpec) descriptor() (ic.AccessDescriptor, error) {
	lang := ic.Sloppy
	switch s.Language {
	case "", "sloppy":
	case "strict":
		lang = ic.Strict
	default:
		return ic.AccessDescriptor{}, fmt.Errorf("unknown language mode %q", s.Language)
	}
	switch s.Kind {
	case "load":
		return ic.NamedLoad(), nil
	case "keyed-load":
		return ic.KeyedLoad(), nil
	case "store":
		return ic.NamedStore(lang), nil
	case "keyed-store":
		return ic.KeyedStore(lang, ic.StandardStore), nil
	}
	return ic.AccessDescriptor{}, fmt.Errorf("unknown site kind %q", s.Kind)
}

func elementsKind(name string, def shape.ElementsKind) (shape.ElementsKind, error) {
	if name == "" {
		return def, nil
	}
	for k := shape.FastSmiElements; k <= shape.NoElements; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown elements kind %q", name)
}

// value converts decoded TOML numbers to the runtime's representations.
func value(v any) object.Value {
	switch x := v.(type) {
	case nil:
		return object.Undefined
	case int64:
		return int(x)
	case float64:
		return object.NormalizeNumber(x)
	}
	return v
}

func values(vs []any) []object.Value {
	out := make([]object.Value, len(vs))
	for i, v := range vs {
		out[i] = value(v)
	}
	return out
}

func build(r *object.Realm, spec ObjectSpec) (object.Value, error) {
	var o *object.Object
	switch spec.Type {
	case "", "object":
		o = r.NewObject()
	case "array":
		kind, err := elementsKind(spec.Kind, shape.FastSmiElements)
		if err != nil {
			return nil, err
		}
		o = r.NewArray(kind, values(spec.Values)...)
	case "typed-array":
		kind, err := elementsKind(spec.Kind, shape.Uint8Elements)
		if err != nil {
			return nil, err
		}
		if !kind.IsFixedTypedArray() {
			return nil, fmt.Errorf("%s is not a typed array kind", kind)
		}
		o = r.NewTypedArray(kind, spec.Length)
	case "arguments":
		o = r.NewArguments(values(spec.Values)...)
	case "dictionary":
		o = r.NewDictionaryArray()
	case "string":
		return spec.String, nil
	case "string-wrapper":
		o = r.NewStringWrapper(spec.String)
	case "proxy":
		o = r.NewProxy(r.NewObject())
	default:
		return nil, fmt.Errorf("unknown object type %q", spec.Type)
	}
	for name, v := range spec.Fields {
		if err := r.SetNamed(o, name, value(v), ic.Sloppy); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Run replays the scenario, writing one line per access to w.
func (s *Scenario) Run(iso *ic.Isolate, realm *object.Realm, w io.Writer) (*ic.Vector, error) {
	desc, err := s.Site.descriptor()
	if err != nil {
		return nil, err
	}
	objects := make(map[string]object.Value, len(s.Objects))
	for _, spec := range s.Objects {
		o, err := build(realm, spec)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", spec.Name, err)
		}
		objects[spec.Name] = o
	}

	vector := iso.NewVector("scenario", desc)
	site := interp.NewSite(&interp.Env{Realm: realm, Mega: iso.Megamorphic()}, iso, vector, 0)
	n := 0
	for _, a := range s.Accesses {
		receiver, ok := objects[a.Object]
		if !ok {
			return nil, fmt.Errorf("access %d: unknown object %q", n+1, a.Object)
		}
		key := ic.IndexKey(a.Index)
		if a.Name != "" {
			key = ic.NameKey(a.Name)
		}
		repeat := max(a.Repeat, 1)
		for i := 0; i < repeat; i++ {
			n++
			from := site.IC().State()
			var result object.Value
			if desc.Kind.IsLoad() {
				result, err = site.Load(receiver, key)
			} else {
				err = site.Store(receiver, key, value(a.Value))
			}
			to := site.IC().State()
			switch {
			case err != nil:
				fmt.Fprintf(w, "%3d %s[%s] %c->%c error: %v\n", n, a.Object, key, from.Mark(), to.Mark(), err)
			case desc.Kind.IsLoad():
				fmt.Fprintf(w, "%3d %s[%s] %c->%c = %v\n", n, a.Object, key, from.Mark(), to.Mark(), result)
			default:
				fmt.Fprintf(w, "%3d %s[%s] %c->%c\n", n, a.Object, key, from.Mark(), to.Mark())
			}
		}
	}
	return vector, nil
}
