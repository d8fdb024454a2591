package dispatch

import "errors"

var (
	// ErrUnsupportedGeneration is the panic value for a device generation
	// with no dispatch layer.
	ErrUnsupportedGeneration = errors.New("dispatch: unsupported device generation")

	// ErrMissingNamespace is returned when an entry point name lacks the
	// namespace prefix that symbol names are derived from.
	ErrMissingNamespace = errors.New("dispatch: entry point name lacks namespace prefix")

	// ErrTrampolineLayer is returned when a caller tries to register into the
	// trampoline layer, which the builder generates.
	ErrTrampolineLayer = errors.New("dispatch: trampoline layer is generated")

	// ErrUnknownLayer is returned for a layer outside the known set.
	ErrUnknownLayer = errors.New("dispatch: unknown layer")

	// ErrAlreadyBuilt is returned when a builder is used after Build.
	ErrAlreadyBuilt = errors.New("dispatch: tables already built")
)
