package entrypoint

import "errors"

// Build-time errors. All of them make the compiled index unusable.
var (
	// ErrDuplicateName is returned when two descriptors share a name.
	ErrDuplicateName = errors.New("entrypoint: duplicate entry point name")

	// ErrUnknownEntryPoint is returned when a condition names an undeclared entry point.
	ErrUnknownEntryPoint = errors.New("entrypoint: unknown entry point")

	// ErrConflictingCondition is returned when an entry point is claimed by
	// more than one enabling condition.
	ErrConflictingCondition = errors.New("entrypoint: entry point enabled by more than one condition")

	// ErrEmptyName is returned for a descriptor without a name.
	ErrEmptyName = errors.New("entrypoint: empty entry point name")

	// ErrHashSizeNotPowerOfTwo is returned for an invalid table size.
	ErrHashSizeNotPowerOfTwo = errors.New("entrypoint: hash size must be a power of two")

	// ErrEvenPrimeStep is returned when the probe step would not visit every slot.
	ErrEvenPrimeStep = errors.New("entrypoint: prime step must be odd")

	// ErrCapacityExceeded is returned when the catalog is too large for the table.
	ErrCapacityExceeded = errors.New("entrypoint: catalog exceeds hash table capacity")

	// ErrProbeChainTooLong is returned when a collision chain grows past the
	// configured bound. The table size needs revisiting.
	ErrProbeChainTooLong = errors.New("entrypoint: probe chain too long")

	// ErrCorruptLayout is returned when a compiled layout fails validation.
	ErrCorruptLayout = errors.New("entrypoint: corrupt compiled layout")
)
