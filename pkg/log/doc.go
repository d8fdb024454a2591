// Package log provides structured event logging for entry point builds and
// lookups.
//
// This package defines the Logger interface and Event types for capturing
// what happened while a registry was ingested, an index was compiled and
// names were resolved. It is separate from operational logging (slog): the
// event log is a machine-readable trace that the procaddr CLI can replay.
//
// # Basic Usage
//
// Components accept a Logger through their config:
//
//	// For development: log to console via slog
//	r := dispatch.NewResolver(idx, tables, dispatch.ResolverConfig{
//		EventLogger: log.NewSlogAdapter(slog.Default()),
//	})
//
//	// For builds: write to binary file
//	l, _ := log.NewFileLogger("build/entrypoints.plog")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), l)
//
// # Event Types
//
// Events are captured at three stages:
//   - Ingest: registry documents turned into a catalog (CatalogEvent)
//   - Build: hash table placement and collision statistics (IndexEvent)
//   - Resolve: name lookups and generation fallback (LookupEvent)
//
// Errors at any stage use ErrorEventData.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .plog extension.
package log
