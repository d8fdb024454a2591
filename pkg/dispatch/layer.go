package dispatch

import (
	"fmt"
	"strings"
)

// Layer identifies one dispatch table.
type Layer uint8

const (
	// LayerBase holds the generation-independent implementations.
	LayerBase Layer = iota
	LayerGen7
	LayerGen75
	LayerGen8
	LayerGen9
	LayerGen10
	// LayerTrampoline forwards owner-scoped calls through the owner's table.
	LayerTrampoline

	numLayers = int(LayerTrampoline) + 1
)

// DefaultNamespace is the prefix every entry point name carries.
const DefaultNamespace = "vk"

var layerPrefixes = [numLayers]string{
	LayerBase:       "anv",
	LayerGen7:       "gen7",
	LayerGen75:      "gen75",
	LayerGen8:       "gen8",
	LayerGen9:       "gen9",
	LayerGen10:      "gen10",
	LayerTrampoline: "anv_tramp",
}

// Layers returns every layer in table order.
func Layers() []Layer {
	out := make([]Layer, numLayers)
	for i := range out {
		out[i] = Layer(i)
	}
	return out
}

// Prefix returns the symbol prefix of the layer.
func (l Layer) Prefix() string {
	if int(l) >= numLayers {
		return ""
	}
	return layerPrefixes[l]
}

// String returns the layer prefix, which doubles as its name.
func (l Layer) String() string {
	if p := l.Prefix(); p != "" {
		return p
	}
	return fmt.Sprintf("Layer(%d)", uint8(l))
}

// IsGeneration reports whether l is a per-generation layer.
func (l Layer) IsGeneration() bool {
	return l >= LayerGen7 && l <= LayerGen10
}

// ParseLayer returns the layer with the given name.
func ParseLayer(s string) (Layer, error) {
	for i, p := range layerPrefixes {
		if p == s {
			return Layer(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, s)
}

// Symbol returns the implementation symbol of name in this layer: the layer
// prefix, an underscore, and name without namespace.
func (l Layer) Symbol(name, namespace string) (string, error) {
	if int(l) >= numLayers {
		return "", fmt.Errorf("%w: %d", ErrUnknownLayer, l)
	}
	rest, ok := strings.CutPrefix(name, namespace)
	if !ok || rest == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingNamespace, name)
	}
	return layerPrefixes[l] + "_" + rest, nil
}

// SymbolName is Symbol with the default namespace, e.g.
// SymbolName(LayerGen9, "vkCreateDevice") is "gen9_CreateDevice".
func SymbolName(l Layer, name string) (string, error) {
	return l.Symbol(name, DefaultNamespace)
}
