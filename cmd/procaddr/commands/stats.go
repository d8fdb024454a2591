package commands

import (
	"fmt"
	"io"

	"github.com/procaddr/procaddr-go/pkg/artifact"
	"github.com/procaddr/procaddr-go/pkg/entrypoint"
)

// Stats holds aggregate statistics about a layout.
type Stats struct {
	Entries     int
	HashSize    int
	Load        float64
	MaxProbe    int
	Collisions  [entrypoint.CollisionBuckets]int
	ByCondition map[entrypoint.ConditionKind]int
	ByOwner     map[entrypoint.OwnerKind]int
	Guarded     int
	Extensions  map[string]int
}

// CollectStats computes statistics for l.
func CollectStats(l *artifact.Layout) Stats {
	c := l.Compiled
	s := Stats{
		Entries:     len(c.Entries),
		HashSize:    int(c.HashSize),
		MaxProbe:    c.MaxProbe,
		Collisions:  c.Collisions,
		ByCondition: make(map[entrypoint.ConditionKind]int),
		ByOwner:     make(map[entrypoint.OwnerKind]int),
		Extensions:  make(map[string]int),
	}
	if s.HashSize > 0 {
		s.Load = float64(s.Entries) / float64(s.HashSize)
	}
	for _, e := range c.Entries {
		s.ByCondition[e.Condition.Kind]++
		s.ByOwner[e.Owner]++
		if e.Guard != "" {
			s.Guarded++
		}
		if e.Condition.Kind == entrypoint.Extension {
			s.Extensions[e.Condition.Extension]++
		}
	}
	return s
}

// RunStats prints statistics about the layout.
func RunStats(l *artifact.Layout, w io.Writer) error {
	if err := l.Verify(); err != nil {
		return fmt.Errorf("layout %s: %w", l.BuildID, err)
	}
	s := CollectStats(l)

	fmt.Fprintf(w, "Build:       %s\n", l.BuildID)
	if l.Generator != "" {
		fmt.Fprintf(w, "Generator:   %s\n", l.Generator)
	}
	for _, src := range l.Sources {
		fmt.Fprintf(w, "Source:      %s\n", src)
	}
	fmt.Fprintf(w, "Created:     %s\n", l.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Fingerprint: %s\n", l.FingerprintHex())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Entry points: %d in %d slots (load %.2f)\n", s.Entries, s.HashSize, s.Load)
	fmt.Fprintf(w, "Prime factor: %d, step %d\n", l.Compiled.PrimeFactor, l.Compiled.PrimeStep)
	fmt.Fprintf(w, "Longest chain: %d\n", s.MaxProbe)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Collisions:")
	for i, n := range s.Collisions {
		label := fmt.Sprintf("%d", i)
		if i == len(s.Collisions)-1 {
			label += "+"
		}
		fmt.Fprintf(w, "  %-4s %d\n", label, n)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Conditions:")
	for _, k := range []entrypoint.ConditionKind{entrypoint.Always, entrypoint.CoreVersion, entrypoint.Extension} {
		if n := s.ByCondition[k]; n > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", k, n)
		}
	}
	fmt.Fprintln(w, "Owners:")
	for _, o := range []entrypoint.OwnerKind{entrypoint.OwnerNone, entrypoint.OwnerDevice, entrypoint.OwnerCommandBuffer} {
		if n := s.ByOwner[o]; n > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", o, n)
		}
	}
	if s.Guarded > 0 {
		fmt.Fprintf(w, "Guarded:       %d\n", s.Guarded)
	}
	return nil
}
