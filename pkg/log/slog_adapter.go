package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("stage", event.Stage.String()),
		slog.String("category", event.Category.String()),
	}
	if event.BuildID != "" {
		attrs = append(attrs, slog.String("build_id", event.BuildID))
	}

	switch {
	case event.Catalog != nil:
		attrs = append(attrs,
			slog.String("source", event.Catalog.Source),
			slog.Int("declared", event.Catalog.Declared),
			slog.Int("enabled", event.Catalog.Enabled),
		)
		if event.Catalog.Legacy > 0 {
			attrs = append(attrs, slog.Int("legacy", event.Catalog.Legacy))
		}
		if len(event.Catalog.Skipped) > 0 {
			attrs = append(attrs, slog.Any("skipped", event.Catalog.Skipped))
		}
	case event.Index != nil:
		attrs = append(attrs,
			slog.Int("hash_size", event.Index.HashSize),
			slog.Int("entries", event.Index.Entries),
			slog.Int("max_probe", event.Index.MaxProbe),
			slog.Any("collisions", event.Index.Collisions),
		)
	case event.Lookup != nil:
		attrs = append(attrs,
			slog.String("name", event.Lookup.Name),
			slog.Int("id", event.Lookup.ID),
			slog.Bool("found", event.Lookup.Found),
			slog.Bool("enabled", event.Lookup.Enabled),
		)
		if event.Lookup.Layer != "" {
			attrs = append(attrs, slog.String("layer", event.Lookup.Layer))
		}
		if event.Lookup.Fallback {
			attrs = append(attrs, slog.Bool("fallback", true))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_stage", event.Error.Stage.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "procaddr", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
