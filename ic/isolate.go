package ic

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/icache/shape"
)

var isolateLog = commonlog.GetLogger("icache.ic")

// DefaultPolymorphicCapacity is the number of shapes a site may hold before
// it goes megamorphic.
const DefaultPolymorphicCapacity = 4

// MaxPolymorphicCapacity bounds Config.PolymorphicCapacity.
const MaxPolymorphicCapacity = 16

// Config holds the tunables of one isolate.
type Config struct {
	Enabled             bool
	PolymorphicCapacity int
	Trace               bool
	// MegamorphicMaxEntries bounds the megamorphic stub table. Zero means
	// unbounded.
	MegamorphicMaxEntries int
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{Enabled: true, PolymorphicCapacity: DefaultPolymorphicCapacity}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.PolymorphicCapacity < 1 || c.PolymorphicCapacity > MaxPolymorphicCapacity {
		return fmt.Errorf("polymorphic capacity %d out of range 1..%d", c.PolymorphicCapacity, MaxPolymorphicCapacity)
	}
	if c.MegamorphicMaxEntries < 0 {
		return fmt.Errorf("megamorphic max entries %d is negative", c.MegamorphicMaxEntries)
	}
	return nil
}

// Options are the collaborators an isolate is built from.
type Options struct {
	Emitter   CodeEmitter
	Profiler  Profiler // optional
	ArrayMaps shape.InitialArrayMaps
	Resolver  PropertyResolver // required for named accesses
}

// Isolate owns everything the IC system shares between call sites within
// one VM instance: the handler cache, the megamorphic cache and the
// feedback vectors of every function.
type Isolate struct {
	id       string
	cfg      Config
	resolver PropertyResolver
	compiler *Compiler
	mega     *MegamorphicCache
	vectors  []*Vector
}

// NewIsolate creates an isolate.
func NewIsolate(cfg Config, opts Options) (*Isolate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Emitter == nil {
		return nil, fmt.Errorf("no code emitter")
	}
	mega, err := NewMegamorphicCache(cfg.MegamorphicMaxEntries)
	if err != nil {
		return nil, fmt.Errorf("megamorphic cache: %w", err)
	}
	iso := &Isolate{
		id:       uuid.New().String(),
		cfg:      cfg,
		resolver: opts.Resolver,
		mega:     mega,
	}
	iso.compiler = NewCompiler(opts.Emitter, opts.Profiler, opts.ArrayMaps, mega)
	isolateLog.Debugf("isolate %s: capacity %d, ic enabled %t", iso.id, cfg.PolymorphicCapacity, cfg.Enabled)
	return iso, nil
}

// ID is the unique identity of this isolate.
func (iso *Isolate) ID() string { return iso.id }

func (iso *Isolate) Config() Config                 { return iso.cfg }
func (iso *Isolate) Compiler() *Compiler            { return iso.compiler }
func (iso *Isolate) Megamorphic() *MegamorphicCache { return iso.mega }
func (iso *Isolate) Vectors() []*Vector             { return iso.vectors }

// NewVector creates and registers the feedback vector of one function.
func (iso *Isolate) NewVector(name string, sites ...AccessDescriptor) *Vector {
	v := NewVector(name, sites...)
	iso.vectors = append(iso.vectors, v)
	return v
}

// IC returns the controller of one call site.
func (iso *Isolate) IC(v *Vector, s Slot) *IC {
	check(v.At(s) != nil, "slot %d out of range for %s", s, v.Name())
	return &IC{iso: iso, vector: v, slot: s}
}

// SetEnabled turns IC collection on or off. Either way every record and
// the megamorphic cache are flushed.
func (iso *Isolate) SetEnabled(enabled bool) {
	iso.cfg.Enabled = enabled
	iso.ClearAll()
}

// ClearAll resets every feedback record to Uninitialized and empties the
// megamorphic cache. Interned handlers survive.
func (iso *Isolate) ClearAll() {
	for _, v := range iso.vectors {
		v.Reset()
	}
	iso.mega.Clear()
	isolateLog.Debugf("isolate %s: cleared all inline caches", iso.id)
}
