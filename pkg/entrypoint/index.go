package entrypoint

import "fmt"

// Stats describes how well the entry points spread over the table.
type Stats struct {
	// Size is the number of table slots.
	Size int
	// Entries is the number of placed entry points.
	Entries int
	// Collisions[n] counts entry points placed after n extra probes. The last
	// bucket counts CollisionBuckets-1 probes or more.
	Collisions [CollisionBuckets]int
	// MaxProbe is the longest collision chain.
	MaxProbe int
}

// Load returns the fraction of occupied slots.
func (s Stats) Load() float64 {
	if s.Size == 0 {
		return 0
	}
	return float64(s.Entries) / float64(s.Size)
}

// Index maps entry point names to ids through a fixed open-addressing table.
// It is immutable once built.
type Index struct {
	entries []EntryPoint
	pool    *StringPool
	table   []uint16
	mask    uint32
	factor  uint32
	step    uint32
	stats   Stats
}

// BuildTable places every entry id into a table of size slots. Entries are
// placed in order; on a collision the probe position advances by step until
// a free slot is found. The result is deterministic.
func BuildTable(entries []EntryPoint, size int, step uint32, maxProbe int) ([]uint16, Stats, error) {
	if size <= 0 || size&(size-1) != 0 || size > 1<<16 {
		return nil, Stats{}, fmt.Errorf("%w: %d", ErrHashSizeNotPowerOfTwo, size)
	}
	if step%2 == 0 {
		return nil, Stats{}, fmt.Errorf("%w: %d", ErrEvenPrimeStep, step)
	}
	// Keep a quarter of the table free so probe chains stay short.
	if len(entries)*4 > size*3 {
		return nil, Stats{}, fmt.Errorf("%w: %d entry points in %d slots", ErrCapacityExceeded, len(entries), size)
	}
	if maxProbe <= 0 {
		maxProbe = size
	}

	table := make([]uint16, size)
	for i := range table {
		table[i] = None
	}
	stats := Stats{Size: size, Entries: len(entries)}
	mask := uint32(size - 1)

	for _, e := range entries {
		h := e.Hash
		level := 0
		for table[h&mask] != None {
			h += step
			level++
			if level > maxProbe {
				return nil, Stats{}, fmt.Errorf("%w: %s needs more than %d probes", ErrProbeChainTooLong, e.Name, maxProbe)
			}
		}
		stats.Collisions[min(level, CollisionBuckets-1)]++
		stats.MaxProbe = max(stats.MaxProbe, level)
		table[h&mask] = uint16(e.ID)
	}
	return table, stats, nil
}

// BuildIndex builds the hash table for entries, whose names must already be
// interned in pool and whose ids must equal their positions. Stored hashes
// must match the prime factor the index is built with.
func BuildIndex(entries []EntryPoint, pool *StringPool, opts ...Option) (*Index, error) {
	o := newOptions(opts)
	for i, e := range entries {
		if e.ID != i {
			return nil, fmt.Errorf("%w: entry %s at position %d has id %d", ErrCorruptLayout, e.Name, i, e.ID)
		}
		if !pool.Equal(e.NameOffset, e.Name) {
			return nil, fmt.Errorf("%w: %s not found at offset %d", ErrCorruptLayout, e.Name, e.NameOffset)
		}
		if h := HashWith(e.Name, o.primeFactor); e.Hash != h {
			return nil, fmt.Errorf("%w: %s hash %#08x, want %#08x", ErrCorruptLayout, e.Name, e.Hash, h)
		}
	}
	table, stats, err := BuildTable(entries, o.hashSize, o.primeStep, o.maxProbe)
	if err != nil {
		return nil, err
	}
	return &Index{
		entries: entries,
		pool:    pool,
		table:   table,
		mask:    uint32(len(table) - 1),
		factor:  o.primeFactor,
		step:    o.primeStep,
		stats:   stats,
	}, nil
}

// IndexOf returns the id of name. Unknown names are not an error: ok is
// false and id is -1.
//
// A slot is accepted only when both the full 32-bit hash and the name bytes
// match; otherwise probing continues until an empty slot ends the chain.
func (x *Index) IndexOf(name string) (id int, ok bool) {
	hash := HashWith(name, x.factor)
	h := hash
	for range x.table {
		i := x.table[h&x.mask]
		if i == None {
			return -1, false
		}
		e := &x.entries[i]
		if e.Hash == hash && x.pool.Equal(e.NameOffset, name) {
			return int(i), true
		}
		h += x.step
	}
	return -1, false
}

// Trace describes the probe sequence of one lookup.
type Trace struct {
	Name  string
	Hash  uint32
	Slots []int
	ID    int
	Found bool
}

// Trace repeats the IndexOf probe sequence and records every visited slot.
// It allocates and is meant for diagnostics only.
func (x *Index) Trace(name string) Trace {
	t := Trace{Name: name, Hash: HashWith(name, x.factor), ID: -1}
	h := t.Hash
	for range x.table {
		slot := h & x.mask
		t.Slots = append(t.Slots, int(slot))
		i := x.table[slot]
		if i == None {
			return t
		}
		e := &x.entries[i]
		if e.Hash == t.Hash && x.pool.Equal(e.NameOffset, name) {
			t.ID = int(i)
			t.Found = true
			return t
		}
		h += x.step
	}
	return t
}

// Len returns the number of entry points.
func (x *Index) Len() int {
	return len(x.entries)
}

// Entry returns the entry point with the given id.
func (x *Index) Entry(id int) (EntryPoint, bool) {
	if id < 0 || id >= len(x.entries) {
		return EntryPoint{}, false
	}
	return x.entries[id], true
}

// Entries returns a copy of the entry list in id order.
func (x *Index) Entries() []EntryPoint {
	out := make([]EntryPoint, len(x.entries))
	copy(out, x.entries)
	return out
}

// Name returns the name of id from the string pool.
func (x *Index) Name(id int) string {
	if id < 0 || id >= len(x.entries) {
		return ""
	}
	return x.pool.String(x.entries[id].NameOffset)
}

// Table returns a copy of the slot table.
func (x *Index) Table() []uint16 {
	out := make([]uint16, len(x.table))
	copy(out, x.table)
	return out
}

// Pool returns the string pool. Callers must not modify it.
func (x *Index) Pool() *StringPool {
	return x.pool
}

// Stats returns the collision statistics gathered while building.
func (x *Index) Stats() Stats {
	return x.stats
}

// HashSize returns the number of table slots.
func (x *Index) HashSize() int {
	return len(x.table)
}

// PrimeFactor returns the hash multiplier the index was built with.
func (x *Index) PrimeFactor() uint32 {
	return x.factor
}

// PrimeStep returns the probe step the index was built with.
func (x *Index) PrimeStep() uint32 {
	return x.step
}
