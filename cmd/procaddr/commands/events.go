package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/procaddr/procaddr-go/pkg/log"
)

// RunEvents prints the events of a log file that match filter.
func RunEvents(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [build:%s] %-7s %s\n", ts, shortenID(event.BuildID), event.Stage, event.Category)

	switch {
	case event.Catalog != nil:
		c := event.Catalog
		fmt.Fprintf(w, "  Source: %s\n", c.Source)
		fmt.Fprintf(w, "  Declared: %d  Enabled: %d  Legacy: %d\n", c.Declared, c.Enabled, c.Legacy)
		if len(c.Skipped) > 0 {
			fmt.Fprintf(w, "  Skipped: %s\n", strings.Join(c.Skipped, ", "))
		}
	case event.Index != nil:
		x := event.Index
		fmt.Fprintf(w, "  Entries: %d  Slots: %d  Factor: %d  Step: %d\n", x.Entries, x.HashSize, x.PrimeFactor, x.PrimeStep)
		fmt.Fprintf(w, "  Collisions: %v  Longest chain: %d\n", x.Collisions, x.MaxProbe)
	case event.Lookup != nil:
		formatLookupEvent(w, event.Lookup)
	case event.Error != nil:
		fmt.Fprintf(w, "  Stage: %s\n", event.Error.Stage)
		fmt.Fprintf(w, "  Error: %s\n", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, "  Context: %s\n", event.Error.Context)
		}
	}

	fmt.Fprintln(w)
}

func formatLookupEvent(w io.Writer, l *log.LookupEvent) {
	switch {
	case !l.Found:
		fmt.Fprintf(w, "  %s: unknown\n", l.Name)
	case l.Layer == "":
		fmt.Fprintf(w, "  %s (id %d): not enabled\n", l.Name, l.ID)
	default:
		fmt.Fprintf(w, "  %s (id %d) -> %s", l.Name, l.ID, l.Layer)
		if l.Fallback {
			fmt.Fprint(w, " (fallback)")
		}
		fmt.Fprintln(w)
	}
}

// shortenID returns the first 8 characters of a build ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// ParseStageFlag parses a stage string from a command-line flag (case-insensitive).
func ParseStageFlag(s string) (log.Stage, error) {
	switch strings.ToLower(s) {
	case "ingest":
		return log.StageIngest, nil
	case "build":
		return log.StageBuild, nil
	case "resolve":
		return log.StageResolve, nil
	default:
		return 0, fmt.Errorf("invalid stage: %s (must be ingest, build, or resolve)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "catalog":
		return log.CategoryCatalog, nil
	case "index":
		return log.CategoryIndex, nil
	case "lookup":
		return log.CategoryLookup, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be catalog, index, lookup, or error)", s)
	}
}
