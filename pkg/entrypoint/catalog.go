package entrypoint

import "fmt"

// Catalog is the ordered, de-duplicated set of entry points known to the build.
// Descriptors are declared first and enabled by a condition afterwards, which
// mirrors how registries list commands separately from the features and
// extensions that require them. Only enabled descriptors receive an id.
//
// A Catalog is not safe for concurrent mutation.
type Catalog struct {
	entries []catalogEntry
	byName  map[string]int
	legacy  []Descriptor
}

type catalogEntry struct {
	desc    Descriptor
	enabled bool
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]int)}
}

// Declare registers a descriptor without enabling it.
func (c *Catalog) Declare(desc Descriptor) error {
	if desc.Name == "" {
		return ErrEmptyName
	}
	if c.has(desc.Name) {
		return fmt.Errorf("%w: %s", ErrDuplicateName, desc.Name)
	}
	c.byName[desc.Name] = len(c.entries)
	c.entries = append(c.entries, catalogEntry{desc: desc})
	return nil
}

// Require enables a declared entry point under cond. An entry point can be
// claimed by only one condition.
func (c *Catalog) Require(name string, cond Condition) error {
	i, ok := c.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntryPoint, name)
	}
	e := &c.entries[i]
	if e.enabled {
		return fmt.Errorf("%w: %s (%s, %s)", ErrConflictingCondition, name, e.desc.Condition, cond)
	}
	e.desc.Condition = cond
	e.enabled = true
	return nil
}

// Add declares desc and enables it with desc.Condition.
func (c *Catalog) Add(desc Descriptor) error {
	if err := c.Declare(desc); err != nil {
		return err
	}
	return c.Require(desc.Name, desc.Condition)
}

// AppendLegacy injects a descriptor that no registry describes. Legacy
// entries are always enabled and always receive the highest ids, in the
// order they were appended.
func (c *Catalog) AppendLegacy(desc Descriptor) error {
	if desc.Name == "" {
		return ErrEmptyName
	}
	if c.has(desc.Name) {
		return fmt.Errorf("%w: %s", ErrDuplicateName, desc.Name)
	}
	c.legacy = append(c.legacy, desc)
	return nil
}

// Declared returns the number of declared descriptors, enabled or not,
// including legacy ones.
func (c *Catalog) Declared() int {
	return len(c.entries) + len(c.legacy)
}

// Enabled returns the number of entry points that will receive an id.
func (c *Catalog) Enabled() int {
	n := len(c.legacy)
	for _, e := range c.entries {
		if e.enabled {
			n++
		}
	}
	return n
}

// Lookup returns the descriptor declared under name and whether it is enabled.
func (c *Catalog) Lookup(name string) (Descriptor, bool, bool) {
	if i, ok := c.byName[name]; ok {
		return c.entries[i].desc, c.entries[i].enabled, true
	}
	for _, d := range c.legacy {
		if d.Name == name {
			return d, true, true
		}
	}
	return Descriptor{}, false, false
}

func (c *Catalog) has(name string) bool {
	if _, ok := c.byName[name]; ok {
		return true
	}
	for _, d := range c.legacy {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Finalize assigns dense ids to the enabled entry points in catalog order,
// legacy entries last, and interns every name into a new StringPool.
func (c *Catalog) Finalize(opts ...Option) ([]EntryPoint, *StringPool, error) {
	o := newOptions(opts)
	pool := &StringPool{}
	out := make([]EntryPoint, 0, c.Enabled())

	add := func(d Descriptor) {
		out = append(out, EntryPoint{
			Descriptor: d,
			ID:         len(out),
			Hash:       HashWith(d.Name, o.primeFactor),
			NameOffset: pool.Add(d.Name),
			Owner:      o.ownerOf(d),
		})
	}

	for _, e := range c.entries {
		if e.enabled {
			add(e.desc)
		}
	}
	for _, d := range c.legacy {
		add(d)
	}

	if len(out) >= int(None) {
		return nil, nil, fmt.Errorf("%w: %d entry points", ErrCapacityExceeded, len(out))
	}
	return out, pool, nil
}

// Compile finalizes the catalog and builds its index.
func Compile(c *Catalog, opts ...Option) (*Index, error) {
	entries, pool, err := c.Finalize(opts...)
	if err != nil {
		return nil, err
	}
	return BuildIndex(entries, pool, opts...)
}
