package entrypoint

// Hash table tuning. The primes were picked experimentally for a catalog of a
// few hundred names in a 256-slot table.
const (
	// HashSize is the default number of slots in the index table.
	HashSize = 256

	// PrimeFactor is the multiplier of the rolling name hash.
	PrimeFactor uint32 = 5024183

	// PrimeStep is the probe increment. It must be odd.
	PrimeStep uint32 = 19

	// None marks an empty slot.
	None uint16 = 0xffff

	// CollisionBuckets is the size of the probe-length histogram. The last
	// bucket counts every chain of CollisionBuckets-1 probes or more.
	CollisionBuckets = 10
)

// Hash returns the 32-bit rolling hash of name using PrimeFactor.
func Hash(name string) uint32 {
	return HashWith(name, PrimeFactor)
}

// HashWith returns the rolling hash of name using the given factor.
func HashWith(name string, factor uint32) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*factor + uint32(name[i])
	}
	return h
}
