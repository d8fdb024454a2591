package entrypoint

import "fmt"

// CompiledEntry is the serialized form of an EntryPoint. The name lives in
// Compiled.Strings at NameOffset.
type CompiledEntry struct {
	NameOffset uint32    `cbor:"1,keyasint"`
	Hash       uint32    `cbor:"2,keyasint"`
	Condition  Condition `cbor:"3,keyasint"`
	Guard      string    `cbor:"4,keyasint,omitempty"`
	Owner      OwnerKind `cbor:"5,keyasint,omitempty"`
	ReturnType string    `cbor:"6,keyasint,omitempty"`
	Params     []Param   `cbor:"7,keyasint,omitempty"`
}

// Compiled is the complete, self-describing output of the build phase: the
// tuning constants, the string blob, the entry table and the slot map.
type Compiled struct {
	HashSize    uint32                `cbor:"1,keyasint"`
	PrimeFactor uint32                `cbor:"2,keyasint"`
	PrimeStep   uint32                `cbor:"3,keyasint"`
	Strings     []byte                `cbor:"4,keyasint"`
	Entries     []CompiledEntry       `cbor:"5,keyasint"`
	Map         []uint16              `cbor:"6,keyasint"`
	Collisions  [CollisionBuckets]int `cbor:"7,keyasint"`
	MaxProbe    int                   `cbor:"8,keyasint"`
}

// Compiled exports the index in its serializable form.
func (x *Index) Compiled() Compiled {
	c := Compiled{
		HashSize:    uint32(len(x.table)),
		PrimeFactor: x.factor,
		PrimeStep:   x.step,
		Strings:     append([]byte(nil), x.pool.Bytes()...),
		Entries:     make([]CompiledEntry, len(x.entries)),
		Map:         x.Table(),
		Collisions:  x.stats.Collisions,
		MaxProbe:    x.stats.MaxProbe,
	}
	for i, e := range x.entries {
		c.Entries[i] = CompiledEntry{
			NameOffset: e.NameOffset,
			Hash:       e.Hash,
			Condition:  e.Condition,
			Guard:      e.Guard,
			Owner:      e.Owner,
			ReturnType: e.ReturnType,
			Params:     e.Params,
		}
	}
	return c
}

// Restore rebuilds an Index from a compiled layout without re-running the
// placement. Every stored hash is recomputed with the embedded factor and
// every entry must be reachable through the stored map, so a layout produced
// with different constants is rejected.
func Restore(c Compiled) (*Index, error) {
	size := int(c.HashSize)
	if size <= 0 || size&(size-1) != 0 || size > 1<<16 {
		return nil, fmt.Errorf("%w: %d", ErrHashSizeNotPowerOfTwo, size)
	}
	if c.PrimeStep%2 == 0 {
		return nil, fmt.Errorf("%w: %d", ErrEvenPrimeStep, c.PrimeStep)
	}
	if len(c.Map) != size {
		return nil, fmt.Errorf("%w: map has %d slots, want %d", ErrCorruptLayout, len(c.Map), size)
	}

	pool := NewStringPoolFrom(c.Strings)
	entries := make([]EntryPoint, len(c.Entries))
	for i, ce := range c.Entries {
		name := pool.String(ce.NameOffset)
		if name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrCorruptLayout, i)
		}
		if h := HashWith(name, c.PrimeFactor); h != ce.Hash {
			return nil, fmt.Errorf("%w: %s hash %#08x, want %#08x", ErrCorruptLayout, name, ce.Hash, h)
		}
		entries[i] = EntryPoint{
			Descriptor: Descriptor{
				Name:       name,
				ReturnType: ce.ReturnType,
				Params:     ce.Params,
				Condition:  ce.Condition,
				Guard:      ce.Guard,
			},
			ID:         i,
			Hash:       ce.Hash,
			NameOffset: ce.NameOffset,
			Owner:      ce.Owner,
		}
	}

	seen := make([]bool, len(entries))
	for slot, id := range c.Map {
		if id == None {
			continue
		}
		if int(id) >= len(entries) || seen[id] {
			return nil, fmt.Errorf("%w: slot %d holds id %d", ErrCorruptLayout, slot, id)
		}
		seen[id] = true
	}

	x := &Index{
		entries: entries,
		pool:    pool,
		table:   append([]uint16(nil), c.Map...),
		mask:    uint32(size - 1),
		factor:  c.PrimeFactor,
		step:    c.PrimeStep,
		stats: Stats{
			Size:       size,
			Entries:    len(entries),
			Collisions: c.Collisions,
			MaxProbe:   c.MaxProbe,
		},
	}
	for _, e := range entries {
		if id, ok := x.IndexOf(e.Name); !ok || id != e.ID {
			return nil, fmt.Errorf("%w: %s is not reachable", ErrCorruptLayout, e.Name)
		}
	}
	return x, nil
}
