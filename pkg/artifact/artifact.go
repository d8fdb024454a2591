// Package artifact persists the output of an index build.
//
// A Layout carries everything the run-time side needs to answer lookups
// without re-running the build: the compiled index, the symbol name of every
// slot in every dispatch layer, and provenance. Layouts are CBOR encoded with
// integer keys and sealed with a BLAKE2b-256 fingerprint over the compiled
// index and symbol tables.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/procaddr/procaddr-go/pkg/dispatch"
	"github.com/procaddr/procaddr-go/pkg/entrypoint"
)

// FormatVersion is bumped on incompatible layout changes.
const FormatVersion = 1

var (
	// ErrFingerprintMismatch is returned when a layout was modified after it
	// was sealed.
	ErrFingerprintMismatch = errors.New("artifact: fingerprint mismatch")

	// ErrUnsupportedFormat is returned for a layout written by an
	// incompatible version.
	ErrUnsupportedFormat = errors.New("artifact: unsupported format version")

	// ErrLayerMismatch is returned when the symbol tables do not match the
	// compiled index.
	ErrLayerMismatch = errors.New("artifact: symbol tables do not match index")
)

// Layout is the persisted build output.
type Layout struct {
	Format    int       `cbor:"1,keyasint"`
	BuildID   string    `cbor:"2,keyasint"`
	Generator string    `cbor:"3,keyasint,omitempty"`
	Sources   []string  `cbor:"4,keyasint,omitempty"`
	CreatedAt time.Time `cbor:"5,keyasint"`

	// Namespace is the prefix stripped from names to form symbols.
	Namespace string              `cbor:"6,keyasint"`
	Compiled  entrypoint.Compiled `cbor:"7,keyasint"`
	Layers    []LayerSymbols      `cbor:"8,keyasint"`

	// Fingerprint is the BLAKE2b-256 digest of Namespace, Compiled and Layers.
	Fingerprint []byte `cbor:"9,keyasint"`
}

// LayerSymbols lists the symbol name of every slot of one layer, by id.
type LayerSymbols struct {
	Layer   string   `cbor:"1,keyasint"`
	Symbols []string `cbor:"2,keyasint"`
}

// Options describe provenance recorded in a layout.
type Options struct {
	Generator string
	Sources   []string
	Namespace string
	// BuildID is generated when empty.
	BuildID string
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create artifact CBOR encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create artifact CBOR decoder mode: %v", err))
	}
}

// FromIndex builds a sealed layout for idx. Every slot of every layer gets
// the symbol name the linker step resolves it by; trampolines are listed too
// so generated code can name them.
func FromIndex(idx *entrypoint.Index, opts Options) (*Layout, error) {
	ns := opts.Namespace
	if ns == "" {
		ns = dispatch.DefaultNamespace
	}
	id := opts.BuildID
	if id == "" {
		id = uuid.New().String()
	}

	l := &Layout{
		Format:    FormatVersion,
		BuildID:   id,
		Generator: opts.Generator,
		Sources:   opts.Sources,
		CreatedAt: time.Now().UTC(),
		Namespace: ns,
		Compiled:  idx.Compiled(),
	}

	for _, layer := range dispatch.Layers() {
		syms := make([]string, idx.Len())
		for i := range syms {
			s, err := layer.Symbol(idx.Name(i), ns)
			if err != nil {
				return nil, err
			}
			syms[i] = s
		}
		l.Layers = append(l.Layers, LayerSymbols{Layer: layer.String(), Symbols: syms})
	}

	fp, err := l.digest()
	if err != nil {
		return nil, err
	}
	l.Fingerprint = fp
	return l, nil
}

// digest hashes the parts of the layout that determine lookup results.
func (l *Layout) digest() ([]byte, error) {
	data, err := encMode.Marshal(struct {
		Namespace string              `cbor:"1,keyasint"`
		Compiled  entrypoint.Compiled `cbor:"2,keyasint"`
		Layers    []LayerSymbols      `cbor:"3,keyasint"`
	}{l.Namespace, l.Compiled, l.Layers})
	if err != nil {
		return nil, fmt.Errorf("artifact: encoding digest input: %w", err)
	}
	sum := blake2b.Sum256(data)
	return sum[:], nil
}

// Verify checks the format version, the fingerprint and that the compiled
// index restores with every symbol table sized to it.
func (l *Layout) Verify() error {
	if l.Format != FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedFormat, l.Format)
	}
	fp, err := l.digest()
	if err != nil {
		return err
	}
	if !bytes.Equal(fp, l.Fingerprint) {
		return ErrFingerprintMismatch
	}
	n := len(l.Compiled.Entries)
	for _, ls := range l.Layers {
		if _, err := dispatch.ParseLayer(ls.Layer); err != nil {
			return fmt.Errorf("%w: %v", ErrLayerMismatch, err)
		}
		if len(ls.Symbols) != n {
			return fmt.Errorf("%w: layer %s has %d symbols, index has %d entries", ErrLayerMismatch, ls.Layer, len(ls.Symbols), n)
		}
	}
	_, err = entrypoint.Restore(l.Compiled)
	return err
}

// FingerprintHex returns the fingerprint as lowercase hex.
func (l *Layout) FingerprintHex() string {
	return fmt.Sprintf("%x", l.Fingerprint)
}

// Index restores the compiled index.
func (l *Layout) Index() (*entrypoint.Index, error) {
	return entrypoint.Restore(l.Compiled)
}

// Symbols returns the symbol table of layer, or nil if the layout has none.
func (l *Layout) Symbols(layer dispatch.Layer) []string {
	name := layer.String()
	for _, ls := range l.Layers {
		if ls.Layer == name {
			return ls.Symbols
		}
	}
	return nil
}

// Tables links the stored symbol names against src and builds the dispatch
// tables. Trampolines are generated, not linked.
func (l *Layout) Tables(idx *entrypoint.Index, src dispatch.SymbolSource) (*dispatch.Tables, error) {
	b := dispatch.NewTableBuilder(idx)
	for _, ls := range l.Layers {
		layer, err := dispatch.ParseLayer(ls.Layer)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLayerMismatch, err)
		}
		if layer == dispatch.LayerTrampoline {
			continue
		}
		for id, sym := range ls.Symbols {
			p, ok := src.Symbol(sym)
			if !ok {
				continue
			}
			if err := b.Register(layer, idx.Name(id), p); err != nil {
				return nil, err
			}
		}
	}
	return b.Build()
}

// Resolver verifies the layout and returns a resolver whose tables are
// linked against src.
func (l *Layout) Resolver(src dispatch.SymbolSource, config dispatch.ResolverConfig) (*dispatch.Resolver, error) {
	if err := l.Verify(); err != nil {
		return nil, err
	}
	idx, err := l.Index()
	if err != nil {
		return nil, err
	}
	tables, err := l.Tables(idx, src)
	if err != nil {
		return nil, err
	}
	if config.BuildID == "" {
		config.BuildID = l.BuildID
	}
	return dispatch.NewResolver(idx, tables, config), nil
}

// Encode returns the CBOR encoding of the layout.
func (l *Layout) Encode() ([]byte, error) {
	return encMode.Marshal(l)
}

// Decode parses a CBOR-encoded layout. It does not verify it.
func Decode(data []byte) (*Layout, error) {
	var l Layout
	if err := decMode.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("artifact: decoding layout: %w", err)
	}
	return &l, nil
}

// WriteFile encodes the layout to path.
func (l *Layout) WriteFile(path string) error {
	data, err := l.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile reads, decodes and verifies the layout at path.
func ReadFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := l.Verify(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}
