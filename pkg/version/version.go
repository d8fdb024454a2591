// Package version provides packed core API version parsing, formatting and
// comparison. A version packs into 32 bits as major<<22 | minor<<12 | patch.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the highest core version the builtin registry enables.
const Current = "1.0.57"

// APIVersion is a packed major.minor.patch version.
type APIVersion uint32

// Make packs a version. Components are truncated to their field widths
// (10 bits major/minor, 12 bits patch).
func Make(major, minor, patch uint32) APIVersion {
	return APIVersion((major&0x3ff)<<22 | (minor&0x3ff)<<12 | patch&0xfff)
}

// Parse parses a "major.minor" or "major.minor.patch" version string.
func Parse(s string) (APIVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid version %q: expected major.minor[.patch]", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 10)
	if err != nil || parts[0] == "" {
		return 0, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 10)
	if err != nil || parts[1] == "" {
		return 0, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	var patch uint64
	if len(parts) == 3 {
		patch, err = strconv.ParseUint(parts[2], 10, 12)
		if err != nil || parts[2] == "" {
			return 0, fmt.Errorf("invalid version %q: bad patch component", s)
		}
	}

	return Make(uint32(major), uint32(minor), uint32(patch)), nil
}

// MustParse is like Parse but panics on error. Use for constants.
func MustParse(s string) APIVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major component.
func (v APIVersion) Major() uint32 { return uint32(v) >> 22 }

// Minor returns the minor component.
func (v APIVersion) Minor() uint32 { return uint32(v) >> 12 & 0x3ff }

// Patch returns the patch component.
func (v APIVersion) Patch() uint32 { return uint32(v) & 0xfff }

// String returns the version as "major.minor.patch".
func (v APIVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// AtLeast reports whether v is the same as or newer than min.
func (v APIVersion) AtLeast(min APIVersion) bool {
	return v >= min
}

// WithoutPatch drops the patch component. Features are keyed by major.minor
// only, so patch releases never change which entry points are enabled.
func (v APIVersion) WithoutPatch() APIVersion {
	return v &^ 0xfff
}
