package dispatch

import (
	"slices"

	"github.com/procaddr/procaddr-go/pkg/entrypoint"
)

// ExtensionSet is a set of enabled extension names. The zero value is empty
// and ready to use.
type ExtensionSet struct {
	names map[string]struct{}
}

// NewExtensionSet returns a set holding names.
func NewExtensionSet(names ...string) ExtensionSet {
	var s ExtensionSet
	for _, n := range names {
		s.Enable(n)
	}
	return s
}

// Enable adds name to the set.
func (s *ExtensionSet) Enable(name string) {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	s.names[name] = struct{}{}
}

// Has reports whether name is enabled.
func (s ExtensionSet) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Len returns the number of enabled extensions.
func (s ExtensionSet) Len() int {
	return len(s.names)
}

// Names returns the enabled extensions in sorted order.
func (s ExtensionSet) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Context carries the gating inputs of one instance, and optionally one
// device.
type Context struct {
	// CoreVersion is the packed core API version the instance was created with.
	CoreVersion uint32

	// Instance holds the enabled instance extensions.
	Instance ExtensionSet

	// Device holds the enabled device extensions. Nil means no device is
	// known yet; every device extension then counts as enabled so that
	// instance-level queries can hand out device entry points.
	Device *ExtensionSet
}

// Enabled reports whether cond holds in this context.
func (c Context) Enabled(cond entrypoint.Condition) bool {
	switch cond.Kind {
	case entrypoint.CoreVersion:
		return cond.Version <= c.CoreVersion
	case entrypoint.Extension:
		if cond.Scope == entrypoint.ScopeInstance {
			return c.Instance.Has(cond.Extension)
		}
		return c.Device == nil || c.Device.Has(cond.Extension)
	default:
		return true
	}
}
