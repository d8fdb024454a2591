package dispatch

import (
	"fmt"

	"github.com/procaddr/procaddr-go/pkg/entrypoint"
)

// SymbolSource resolves implementation symbols by name. It stands in for the
// linker: any symbol it does not know leaves its slot empty.
type SymbolSource interface {
	Symbol(name string) (Proc, bool)
}

// Symbols is a SymbolSource backed by a map.
type Symbols map[string]Proc

// Symbol returns the proc registered under name.
func (s Symbols) Symbol(name string) (Proc, bool) {
	p, ok := s[name]
	return p, ok && p != nil
}

var _ SymbolSource = Symbols(nil)

// TableBuilder fills the dispatch tables of one index. It is not safe for
// concurrent use; the Tables it builds are.
type TableBuilder struct {
	index     *entrypoint.Index
	namespace string
	layers    [numLayers][]Proc
	built     bool
}

// NewTableBuilder creates a builder with one empty table per layer.
func NewTableBuilder(index *entrypoint.Index) *TableBuilder {
	b := &TableBuilder{index: index, namespace: DefaultNamespace}
	for l := range b.layers {
		b.layers[l] = make([]Proc, index.Len())
	}
	return b
}

// SetNamespace changes the name prefix stripped when deriving symbol names.
func (b *TableBuilder) SetNamespace(ns string) *TableBuilder {
	b.namespace = ns
	return b
}

// Register installs p in the slot of the named entry point. Registering over
// an existing proc replaces it.
func (b *TableBuilder) Register(layer Layer, name string, p Proc) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	if layer == LayerTrampoline {
		return ErrTrampolineLayer
	}
	if int(layer) >= numLayers {
		return fmt.Errorf("%w: %d", ErrUnknownLayer, layer)
	}
	id, ok := b.index.IndexOf(name)
	if !ok {
		return fmt.Errorf("%w: %s", entrypoint.ErrUnknownEntryPoint, name)
	}
	b.layers[layer][id] = p
	return nil
}

// Populate links every empty slot of every non-trampoline layer against src
// by its symbol name. Symbols src does not provide stay empty. It returns the
// number of slots filled.
func (b *TableBuilder) Populate(src SymbolSource) (int, error) {
	if b.built {
		return 0, ErrAlreadyBuilt
	}
	filled := 0
	for id := 0; id < b.index.Len(); id++ {
		name := b.index.Name(id)
		for l := LayerBase; l < LayerTrampoline; l++ {
			if b.layers[l][id] != nil {
				continue
			}
			sym, err := l.Symbol(name, b.namespace)
			if err != nil {
				return filled, err
			}
			if p, ok := src.Symbol(sym); ok {
				b.layers[l][id] = p
				filled++
			}
		}
	}
	return filled, nil
}

// Build installs the trampolines and freezes the tables. The builder cannot
// be used afterwards.
func (b *TableBuilder) Build() (*Tables, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true

	tramp := b.layers[LayerTrampoline]
	for _, e := range b.index.Entries() {
		if e.Owner != entrypoint.OwnerNone {
			tramp[e.ID] = trampoline(e.ID, e.Name, e.Owner)
		}
	}

	ts := &Tables{index: b.index}
	for l := range b.layers {
		ts.layers[l] = &Table{procs: b.layers[l]}
		b.layers[l] = nil
	}
	return ts, nil
}
