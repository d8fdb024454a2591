package dispatch

import "github.com/procaddr/procaddr-go/pkg/entrypoint"

// Proc is an entry point implementation. A nil Proc marks an absent slot.
type Proc func(args ...any) any

// Table is a fixed array of procs indexed by entry point id.
type Table struct {
	procs []Proc
}

// NewTable wraps procs, which must be indexed by id. The slice is copied.
func NewTable(procs []Proc) *Table {
	return &Table{procs: append([]Proc(nil), procs...)}
}

// Len returns the number of slots.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.procs)
}

// Get returns the proc in slot id, or nil if the slot is empty or out of range.
func (t *Table) Get(id int) Proc {
	if t == nil || id < 0 || id >= len(t.procs) {
		return nil
	}
	return t.procs[id]
}

// Has reports whether slot id is populated.
func (t *Table) Has(id int) bool {
	return t.Get(id) != nil
}

// Populated returns the number of non-nil slots.
func (t *Table) Populated() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, p := range t.procs {
		if p != nil {
			n++
		}
	}
	return n
}

// Tables is the full set of dispatch tables for one index.
type Tables struct {
	index  *entrypoint.Index
	layers [numLayers]*Table
}

// Index returns the index the tables were built for.
func (ts *Tables) Index() *entrypoint.Index {
	return ts.index
}

// Layer returns the table of layer l. Every layer has a table, possibly empty.
func (ts *Tables) Layer(l Layer) *Table {
	if int(l) >= numLayers {
		return nil
	}
	return ts.layers[l]
}

// Base returns the base layer table.
func (ts *Tables) Base() *Table {
	return ts.layers[LayerBase]
}

// Trampolines returns the trampoline table.
func (ts *Tables) Trampolines() *Table {
	return ts.layers[LayerTrampoline]
}
