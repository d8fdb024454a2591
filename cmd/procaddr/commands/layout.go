// Package commands implements the procaddr CLI commands.
package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/procaddr/procaddr-go/pkg/artifact"
	"github.com/procaddr/procaddr-go/pkg/dispatch"
	"github.com/procaddr/procaddr-go/pkg/registry"
	"github.com/procaddr/procaddr-go/pkg/registry/builtin"
	"github.com/procaddr/procaddr-go/pkg/version"
)

// BuiltinLayout names the layout compiled from the embedded registry.
const BuiltinLayout = "builtin"

// OpenLayout reads and verifies the artifact at path. An empty path or
// BuiltinLayout compiles the embedded registry instead.
func OpenLayout(path string) (*artifact.Layout, error) {
	if path != "" && path != BuiltinLayout {
		return artifact.ReadFile(path)
	}
	idx, err := builtin.Index()
	if err != nil {
		return nil, fmt.Errorf("compiling builtin registry: %w", err)
	}
	return artifact.FromIndex(idx, artifact.Options{
		Generator: "procaddr",
		Sources:   []string{builtin.Source},
		Namespace: registry.DefaultConfig().NamePrefix,
	})
}

// SymbolSet is the set of implementation symbols a binary provides. A nil
// set provides every symbol.
type SymbolSet map[string]struct{}

// Symbol links name to a Proc that returns the symbol name.
func (s SymbolSet) Symbol(name string) (dispatch.Proc, bool) {
	if s != nil {
		if _, ok := s[name]; !ok {
			return nil, false
		}
	}
	return func(...any) any { return name }, true
}

var _ dispatch.SymbolSource = SymbolSet(nil)

// ReadSymbols reads a symbol list, one per line. Only the last field of a
// line is used so nm output works unchanged. Blank lines and lines starting
// with # are ignored.
func ReadSymbols(path string) (SymbolSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set := SymbolSet{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		set[fields[len(fields)-1]] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return set, nil
}

// ParseDeviceFlag parses "none", "7", "75", "8", "9" or "10", with an
// optional "gen" prefix. "none" returns nil.
func ParseDeviceFlag(s string) (*dispatch.DeviceInfo, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "gen")
	var info dispatch.DeviceInfo
	switch s {
	case "", "none":
		return nil, nil
	case "7":
		info.Gen = 7
	case "75", "7.5", "hsw":
		info = dispatch.DeviceInfo{Gen: 7, IsHaswell: true}
	case "8":
		info.Gen = 8
	case "9":
		info.Gen = 9
	case "10":
		info.Gen = 10
	default:
		return nil, fmt.Errorf("invalid device: %s (must be none, 7, 75, 8, 9 or 10)", s)
	}
	return &info, nil
}

// ContextFlags are the raw gating flags of a command.
type ContextFlags struct {
	Version          string
	InstanceExts     string
	DeviceExts       string
	AllDeviceEnabled bool
}

// Context builds a gating context. An empty device extension list with
// AllDeviceEnabled set leaves Device nil.
func (f ContextFlags) Context() (dispatch.Context, error) {
	v := f.Version
	if v == "" {
		v = version.Current
	}
	core, err := version.Parse(v)
	if err != nil {
		return dispatch.Context{}, err
	}
	ctx := dispatch.Context{
		CoreVersion: uint32(core),
		Instance:    dispatch.NewExtensionSet(splitList(f.InstanceExts)...),
	}
	if !f.AllDeviceEnabled || f.DeviceExts != "" {
		dev := dispatch.NewExtensionSet(splitList(f.DeviceExts)...)
		ctx.Device = &dev
	}
	return ctx, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
