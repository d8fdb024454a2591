package entrypoint

import (
	"fmt"
	"strings"

	"github.com/procaddr/procaddr-go/pkg/version"
)

// ConditionKind says what enables an entry point.
type ConditionKind uint8

const (
	// Always means the entry point has no enabling condition.
	Always ConditionKind = 0
	// CoreVersion means a minimum core API version enables the entry point.
	CoreVersion ConditionKind = 1
	// Extension means a named optional extension enables the entry point.
	Extension ConditionKind = 2
)

// String returns the condition kind name.
func (k ConditionKind) String() string {
	switch k {
	case Always:
		return "ALWAYS"
	case CoreVersion:
		return "CORE_VERSION"
	case Extension:
		return "EXTENSION"
	default:
		return "UNKNOWN"
	}
}

// Scope is the object an extension is enabled on.
type Scope uint8

const (
	// ScopeInstance extensions are enabled on the instance.
	ScopeInstance Scope = 0
	// ScopeDevice extensions are enabled on a device.
	ScopeDevice Scope = 1
)

// String returns the scope name as used in registry documents.
func (s Scope) String() string {
	switch s {
	case ScopeInstance:
		return "instance"
	case ScopeDevice:
		return "device"
	default:
		return "unknown"
	}
}

// ParseScope parses "instance" or "device".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(s) {
	case "instance":
		return ScopeInstance, nil
	case "device":
		return ScopeDevice, nil
	default:
		return 0, fmt.Errorf("unknown extension scope %q", s)
	}
}

// Condition is the enabling condition of an entry point. Exactly one of
// Version or Extension is meaningful, selected by Kind.
type Condition struct {
	Kind      ConditionKind `cbor:"1,keyasint"`
	Version   uint32        `cbor:"2,keyasint,omitempty"`
	Extension string        `cbor:"3,keyasint,omitempty"`
	Scope     Scope         `cbor:"4,keyasint,omitempty"`
}

// RequireVersion returns a condition enabled from the packed core version v.
func RequireVersion(v uint32) Condition {
	return Condition{Kind: CoreVersion, Version: v}
}

// RequireExtension returns a condition enabled by the named extension.
func RequireExtension(name string, scope Scope) Condition {
	return Condition{Kind: Extension, Extension: name, Scope: scope}
}

// String renders the condition for diagnostics and generated comments.
func (c Condition) String() string {
	switch c.Kind {
	case CoreVersion:
		return "core " + version.APIVersion(c.Version).String()
	case Extension:
		return fmt.Sprintf("%s extension %s", c.Scope, c.Extension)
	default:
		return "always"
	}
}

// Param is one formal parameter of an entry point.
type Param struct {
	Type string `cbor:"1,keyasint" yaml:"type"`
	Name string `cbor:"2,keyasint" yaml:"name"`
	// Decl is the full declaration text, e.g. "const VkAllocationCallbacks* pAllocator".
	Decl string `cbor:"3,keyasint,omitempty" yaml:"decl"`
}

// Descriptor describes one entry point as ingested from a registry.
type Descriptor struct {
	Name       string
	ReturnType string
	Params     []Param
	Condition  Condition
	// Guard is an optional conditional-inclusion tag such as a platform define.
	Guard string
}

// DeclParams joins the parameter declarations with ", ".
func (d Descriptor) DeclParams() string {
	decls := make([]string, len(d.Params))
	for i, p := range d.Params {
		decls[i] = p.Decl
		if decls[i] == "" {
			decls[i] = p.Type + " " + p.Name
		}
	}
	return strings.Join(decls, ", ")
}

// CallParams joins the parameter names with ", ".
func (d Descriptor) CallParams() string {
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// OwnerKind classifies entry points by the object their first parameter names.
type OwnerKind uint8

const (
	// OwnerNone entry points get no trampoline.
	OwnerNone OwnerKind = 0
	// OwnerDevice entry points take an execution-context object first.
	OwnerDevice OwnerKind = 1
	// OwnerCommandBuffer entry points take a recording object first.
	OwnerCommandBuffer OwnerKind = 2
)

// String returns the owner kind name.
func (o OwnerKind) String() string {
	switch o {
	case OwnerNone:
		return "NONE"
	case OwnerDevice:
		return "DEVICE"
	case OwnerCommandBuffer:
		return "COMMAND_BUFFER"
	default:
		return "UNKNOWN"
	}
}

// EntryPoint is an enabled descriptor with its dense id assigned.
type EntryPoint struct {
	Descriptor

	// ID indexes every dispatch table. It is the only identifier used after
	// resolution.
	ID int

	// Hash is the rolling hash of Name.
	Hash uint32

	// NameOffset locates Name in the catalog's StringPool.
	NameOffset uint32

	// Owner is derived from the first parameter's type.
	Owner OwnerKind
}
