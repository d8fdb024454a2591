package commands

import (
	"fmt"
	"io"

	"github.com/procaddr/procaddr-go/pkg/history"
)

// RunHistory lists the most recent builds recorded in the database at path.
func RunHistory(path string, limit int, w io.Writer) error {
	store, err := history.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	total, err := store.CountBuilds()
	if err != nil {
		return err
	}
	builds, err := store.ListBuilds(limit, 0)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d builds\n", total)
	for _, b := range builds {
		fmt.Fprintf(w, "%s  %s  %-9s", b.StartedAt.UTC().Format("2006-01-02 15:04:05"), shortenID(b.ID), b.Status)
		switch b.Status {
		case history.StatusCompleted:
			fp := b.Fingerprint
			if len(fp) > 16 {
				fp = fp[:16]
			}
			fmt.Fprintf(w, "  %d entries  chain %d  %s", b.Entries, b.MaxProbe, fp)
		case history.StatusFailed:
			fmt.Fprintf(w, "  %s", b.Error)
		}
		fmt.Fprintln(w)

		outputs, err := store.GetOutputs(b.ID)
		if err != nil {
			return err
		}
		for _, o := range outputs {
			fmt.Fprintf(w, "    %-8s %s (%d bytes)\n", o.Kind, o.Path, o.Size)
		}
	}
	return nil
}
