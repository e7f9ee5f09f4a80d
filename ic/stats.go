package ic

// VectorStats holds aggregate inline cache statistics for one vector or a
// whole isolate.
type VectorStats struct {
	TotalCallSites  int     // Total number of call sites with feedback
	Uninitialized   int     // Call sites never used
	PreMonomorphic  int     // Call sites seen exactly once
	Monomorphic     int     // Call sites in monomorphic state
	Polymorphic     int     // Call sites in polymorphic state
	Megamorphic     int     // Call sites in megamorphic state
	Generic         int     // Call sites that gave up on specialization
	TotalHits       uint64  // Total fast-path hits
	TotalMisses     uint64  // Total fast-path misses
	HitRate         float64 // Overall hit rate percentage
	MonomorphicRate float64 // Percentage of used call sites that are monomorphic
}

func (s *VectorStats) add(f *Feedback) {
	s.TotalCallSites++
	switch f.SavedState() {
	case Uninitialized:
		s.Uninitialized++
	case PreMonomorphic:
		s.PreMonomorphic++
	case Monomorphic:
		s.Monomorphic++
	case Polymorphic:
		s.Polymorphic++
	case Megamorphic:
		s.Megamorphic++
	case Generic:
		s.Generic++
	}
	s.TotalHits += f.Hits
	s.TotalMisses += f.Misses
}

func (s *VectorStats) finish() {
	total := s.TotalHits + s.TotalMisses
	if total > 0 {
		s.HitRate = float64(s.TotalHits) * 100 / float64(total)
	}
	used := s.TotalCallSites - s.Uninitialized
	if used > 0 {
		s.MonomorphicRate = float64(s.Monomorphic) * 100 / float64(used)
	}
}

// Stats returns aggregate statistics for all records in the vector.
func (v *Vector) Stats() VectorStats {
	var s VectorStats
	for _, f := range v.slots {
		s.add(f)
	}
	s.finish()
	return s
}

// ICStats holds isolate-wide statistics.
type ICStats struct {
	VectorStats
	Vectors          int
	Handlers         int     // distinct interned handlers
	MegamorphicStubs int     // entries in the megamorphic stub table
	MegamorphicCode  int     // entries in the megamorphic code table
	MegamorphicHits  float64 // megamorphic stub-table hit rate percentage
}

// Stats gathers inline cache statistics from every vector of the isolate.
func (iso *Isolate) Stats() ICStats {
	var stats ICStats
	for _, v := range iso.vectors {
		stats.Vectors++
		for _, f := range v.slots {
			stats.add(f)
		}
	}
	stats.finish()
	stats.Handlers = iso.compiler.Len()
	stats.MegamorphicStubs, stats.MegamorphicCode = iso.mega.Len()
	stats.MegamorphicHits = iso.mega.HitRate()
	return stats
}
