package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/procaddr/procaddr-go/pkg/artifact"
	"github.com/procaddr/procaddr-go/pkg/dispatch"
	"github.com/procaddr/procaddr-go/pkg/entrypoint"
)

// LookupOptions select the device and gating context of a lookup.
type LookupOptions struct {
	// Device is nil for an instance-level lookup.
	Device *dispatch.DeviceInfo

	// Context gates the lookup. Nil skips gating.
	Context *dispatch.Context
}

// RunLookup resolves each name against r and prints where it dispatches.
func RunLookup(r *dispatch.Resolver, names []string, opts LookupOptions, w io.Writer) error {
	if opts.Device != nil {
		if err := opts.Device.Validate(); err != nil {
			return err
		}
	}
	for i, name := range names {
		if i > 0 {
			fmt.Fprintln(w)
		}
		formatLookup(w, r, name, opts)
	}
	return nil
}

func formatLookup(w io.Writer, r *dispatch.Resolver, name string, opts LookupOptions) {
	id, ok := r.IndexOf(name)
	if !ok {
		// Still goes through the resolver so the miss is logged.
		r.Lookup(name, opts.Device)
		fmt.Fprintf(w, "%s: unknown entry point\n", name)
		return
	}
	e, _ := r.Index().Entry(id)

	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "  ID:        %d\n", id)
	fmt.Fprintf(w, "  Hash:      0x%08x\n", e.Hash)
	fmt.Fprintf(w, "  Condition: %s\n", e.Condition)
	if e.Guard != "" {
		fmt.Fprintf(w, "  Guard:     %s\n", e.Guard)
	}
	if e.Owner != entrypoint.OwnerNone {
		fmt.Fprintf(w, "  Owner:     %s\n", e.Owner)
	}
	if sig := signature(e); sig != "" {
		fmt.Fprintf(w, "  Signature: %s\n", sig)
	}

	var p dispatch.Proc
	if opts.Context != nil {
		if !r.Enabled(id, *opts.Context) {
			r.LookupEnabled(name, opts.Device, *opts.Context)
			fmt.Fprintln(w, "  Enabled:   no")
			return
		}
		fmt.Fprintln(w, "  Enabled:   yes")
		p = r.LookupEnabled(name, opts.Device, *opts.Context)
	} else {
		p = r.Lookup(name, opts.Device)
	}

	target := "none"
	if opts.Device != nil {
		target = opts.Device.String()
	}
	if p == nil {
		fmt.Fprintf(w, "  Dispatch:  %s -> (not provided)\n", target)
		return
	}
	fmt.Fprintf(w, "  Dispatch:  %s -> %v\n", target, p())
	if t := r.Trampoline(name); t != nil {
		fmt.Fprintln(w, "  Trampoline: yes")
	}
}

func signature(e entrypoint.EntryPoint) string {
	if e.ReturnType == "" && len(e.Params) == 0 {
		return ""
	}
	ret := e.ReturnType
	if ret == "" {
		ret = "void"
	}
	return fmt.Sprintf("%s %s(%s)", ret, e.Name, e.DeclParams())
}

// RunTrace prints the probe sequence of each name.
func RunTrace(l *artifact.Layout, names []string, w io.Writer) error {
	idx, err := l.Index()
	if err != nil {
		return err
	}
	for _, name := range names {
		t := idx.Trace(name)
		slots := make([]string, len(t.Slots))
		for i, s := range t.Slots {
			slots[i] = fmt.Sprintf("%d", s)
		}
		fmt.Fprintf(w, "%s hash=0x%08x slot=%d probes=%s", name, t.Hash, t.Hash&uint32(idx.HashSize()-1), strings.Join(slots, ","))
		if t.Found {
			fmt.Fprintf(w, " -> id %d\n", t.ID)
		} else {
			fmt.Fprintln(w, " -> not found")
		}
	}
	return nil
}
