package dispatch

import "fmt"

// DeviceInfo describes the hardware a device runs on.
type DeviceInfo struct {
	// Gen is the hardware generation number.
	Gen int
	// IsHaswell selects the 7.5 variant of generation 7.
	IsHaswell bool
}

// Validate returns ErrUnsupportedGeneration for a generation without a layer.
func (d DeviceInfo) Validate() error {
	switch d.Gen {
	case 7, 8, 9, 10:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedGeneration, d.Gen)
	}
}

// String returns "gen<N>", or "gen75" for Haswell.
func (d DeviceInfo) String() string {
	if d.Gen == 7 && d.IsHaswell {
		return "gen75"
	}
	return fmt.Sprintf("gen%d", d.Gen)
}

// LayerFor selects the generation layer for a device. A generation outside
// the supported set is a programming error and panics.
func LayerFor(d DeviceInfo) Layer {
	switch d.Gen {
	case 10:
		return LayerGen10
	case 9:
		return LayerGen9
	case 8:
		return LayerGen8
	case 7:
		if d.IsHaswell {
			return LayerGen75
		}
		return LayerGen7
	default:
		panic(fmt.Errorf("%w: %d", ErrUnsupportedGeneration, d.Gen))
	}
}
