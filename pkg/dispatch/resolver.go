package dispatch

import (
	"log/slog"
	"time"

	"github.com/procaddr/procaddr-go/pkg/entrypoint"
	"github.com/procaddr/procaddr-go/pkg/log"
)

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// EventLogger receives a LookupEvent for every name lookup.
	// If nil, no events are produced.
	EventLogger log.Logger

	// BuildID is stamped on every event.
	BuildID string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Resolver answers name, gating and dispatch queries against one compiled
// index and its tables. It is immutable and safe for concurrent use.
type Resolver struct {
	index  *entrypoint.Index
	tables *Tables

	events  log.Logger
	buildID string
	logger  *slog.Logger
}

// NewResolver creates a resolver over index and tables. A nil tables value
// gives a resolver whose tables are all empty, which is enough for name and
// gating queries.
func NewResolver(index *entrypoint.Index, tables *Tables, config ResolverConfig) *Resolver {
	if tables == nil {
		tables, _ = NewTableBuilder(index).Build()
	}
	return &Resolver{
		index:   index,
		tables:  tables,
		events:  config.EventLogger,
		buildID: config.BuildID,
		logger:  config.Logger,
	}
}

// Index returns the compiled name index.
func (r *Resolver) Index() *entrypoint.Index {
	return r.index
}

// Tables returns the dispatch tables.
func (r *Resolver) Tables() *Tables {
	return r.tables
}

// IndexOf returns the id of name, or -1 and false if the name is unknown.
func (r *Resolver) IndexOf(name string) (int, bool) {
	return r.index.IndexOf(name)
}

// IsEnabled reports whether entry point id is usable with the given core
// version and extension sets. A nil device set means every device extension
// is assumed enabled. Ids out of range are never enabled.
func (r *Resolver) IsEnabled(id int, coreVersion uint32, instance ExtensionSet, device *ExtensionSet) bool {
	return r.Enabled(id, Context{CoreVersion: coreVersion, Instance: instance, Device: device})
}

// Enabled is IsEnabled with the inputs grouped in a Context.
func (r *Resolver) Enabled(id int, ctx Context) bool {
	e, ok := r.index.Entry(id)
	if !ok {
		return false
	}
	return ctx.Enabled(e.Condition)
}

// Resolve returns the implementation of id for a device. Without a device
// the base slot is returned. Otherwise the device generation's slot wins and
// an empty generation slot falls back to the base slot.
func (r *Resolver) Resolve(id int, dev *DeviceInfo) Proc {
	p, _, _ := r.resolve(id, dev)
	return p
}

func (r *Resolver) resolve(id int, dev *DeviceInfo) (Proc, Layer, bool) {
	if dev == nil {
		return r.tables.Base().Get(id), LayerBase, false
	}
	layer := LayerFor(*dev)
	if p := r.tables.Layer(layer).Get(id); p != nil {
		return p, layer, false
	}
	return r.tables.Base().Get(id), LayerBase, true
}

// Lookup resolves name for a device. It returns nil for unknown names.
func (r *Resolver) Lookup(name string, dev *DeviceInfo) Proc {
	id, ok := r.index.IndexOf(name)
	if !ok {
		r.logLookup(log.LookupEvent{Name: name, ID: -1})
		r.debugLog("unknown entry point", "name", name)
		return nil
	}
	p, layer, fallback := r.resolve(id, dev)
	r.logLookup(log.LookupEvent{Name: name, ID: id, Found: true, Layer: layer.String(), Fallback: fallback})
	return p
}

// LookupEnabled is Lookup restricted to entry points enabled in ctx. A
// disabled entry point yields nil, the same as an unknown one.
func (r *Resolver) LookupEnabled(name string, dev *DeviceInfo, ctx Context) Proc {
	id, ok := r.index.IndexOf(name)
	if !ok {
		r.logLookup(log.LookupEvent{Name: name, ID: -1})
		r.debugLog("unknown entry point", "name", name)
		return nil
	}
	if !r.Enabled(id, ctx) {
		r.logLookup(log.LookupEvent{Name: name, ID: id, Found: true})
		r.debugLog("entry point not enabled", "name", name, "id", id)
		return nil
	}
	p, layer, fallback := r.resolve(id, dev)
	r.logLookup(log.LookupEvent{Name: name, ID: id, Found: true, Enabled: true, Layer: layer.String(), Fallback: fallback})
	return p
}

// Trampoline returns the trampoline of name, or nil if the name is unknown or
// the entry point is not owned by a device or command buffer.
func (r *Resolver) Trampoline(name string) Proc {
	id, ok := r.index.IndexOf(name)
	if !ok {
		return nil
	}
	return r.tables.Trampolines().Get(id)
}

// NewDevice builds the per-device dispatch table for a device of the given
// generation. Slots of entry points disabled in ctx stay empty.
func (r *Resolver) NewDevice(info DeviceInfo, ctx Context) *DeviceHandle {
	layer := LayerFor(info)
	procs := make([]Proc, r.index.Len())
	for id := range procs {
		if r.Enabled(id, ctx) {
			procs[id] = r.Resolve(id, &info)
		}
	}
	r.debugLog("device table built", "device", info.String(), "populated", countProcs(procs))
	return &DeviceHandle{
		info:  info,
		layer: layer,
		ctx:   ctx,
		table: &Table{procs: procs},
	}
}

func (r *Resolver) logLookup(ev log.LookupEvent) {
	if r.events == nil {
		return
	}
	r.events.Log(log.Event{
		Timestamp: time.Now(),
		BuildID:   r.buildID,
		Stage:     log.StageResolve,
		Category:  log.CategoryLookup,
		Lookup:    &ev,
	})
}

// debugLog logs a debug message if logging is enabled.
func (r *Resolver) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func countProcs(procs []Proc) int {
	n := 0
	for _, p := range procs {
		if p != nil {
			n++
		}
	}
	return n
}
