package log

import "time"

// Event is one entry of the build or lookup trace.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// BuildID correlates all events of one generator run (UUID).
	BuildID string `cbor:"2,keyasint,omitempty"`

	// Stage that produced the event.
	Stage Stage `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	Catalog *CatalogEvent   `cbor:"10,keyasint,omitempty"`
	Index   *IndexEvent     `cbor:"11,keyasint,omitempty"`
	Lookup  *LookupEvent    `cbor:"12,keyasint,omitempty"`
	Error   *ErrorEventData `cbor:"13,keyasint,omitempty"`
}

// Stage identifies the pipeline step that emitted an event.
type Stage uint8

const (
	// StageIngest turns registry documents into a catalog.
	StageIngest Stage = 0
	// StageBuild assigns ids and places names in the hash table.
	StageBuild Stage = 1
	// StageResolve serves run-time lookups.
	StageResolve Stage = 2
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageIngest:
		return "INGEST"
	case StageBuild:
		return "BUILD"
	case StageResolve:
		return "RESOLVE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryCatalog summarizes an ingested catalog.
	CategoryCatalog Category = 0
	// CategoryIndex summarizes a compiled hash index.
	CategoryIndex Category = 1
	// CategoryLookup records one name resolution.
	CategoryLookup Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCatalog:
		return "CATALOG"
	case CategoryIndex:
		return "INDEX"
	case CategoryLookup:
		return "LOOKUP"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// CatalogEvent summarizes registry ingestion.
type CatalogEvent struct {
	// Source names the registry document (file path or "builtin").
	Source string `cbor:"1,keyasint"`

	// Declared is the number of commands the registry declares.
	Declared int `cbor:"2,keyasint"`

	// Enabled is the number of entry points that received an id.
	Enabled int `cbor:"3,keyasint"`

	// Legacy is the number of manually appended entry points.
	Legacy int `cbor:"4,keyasint,omitempty"`

	// Skipped lists features and extensions left out of the build.
	Skipped []string `cbor:"5,keyasint,omitempty"`
}

// IndexEvent captures the hash table layout statistics.
type IndexEvent struct {
	HashSize    int    `cbor:"1,keyasint"`
	Entries     int    `cbor:"2,keyasint"`
	PrimeFactor uint32 `cbor:"3,keyasint"`
	PrimeStep   uint32 `cbor:"4,keyasint"`

	// Collisions[n] counts names placed after n extra probes.
	Collisions []int `cbor:"5,keyasint"`

	// MaxProbe is the longest collision chain.
	MaxProbe int `cbor:"6,keyasint"`
}

// LookupEvent captures one name resolution.
type LookupEvent struct {
	// Name is the requested entry point name.
	Name string `cbor:"1,keyasint"`

	// ID is the resolved id, -1 when the name is unknown.
	ID int `cbor:"2,keyasint"`

	// Found reports whether the name is in the index.
	Found bool `cbor:"3,keyasint,omitempty"`

	// Enabled reports whether the gating predicate allowed the entry point.
	Enabled bool `cbor:"4,keyasint,omitempty"`

	// Layer is the dispatch layer whose slot was returned.
	Layer string `cbor:"5,keyasint,omitempty"`

	// Fallback is set when a generation slot was empty and the base slot was used.
	Fallback bool `cbor:"6,keyasint,omitempty"`
}

// ErrorEventData captures errors at any stage.
type ErrorEventData struct {
	// Stage where the error occurred.
	Stage Stage `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
