// Package dispatch maps entry point ids to implementations.
//
// A Tables value holds one Table per Layer: the base implementation, one
// table per hardware generation and a trampoline table. Tables are filled
// once through a TableBuilder, either by explicit Register calls or by
// Populate, which links every slot by its symbol name, and are immutable
// afterwards.
//
// A Resolver combines the compiled entrypoint.Index with the tables. It
// answers three questions, all in constant time:
//
//	id, ok := r.IndexOf("vkCmdDraw")      // name to id
//	r.Enabled(id, ctx)                    // version and extension gating
//	proc := r.Resolve(id, &DeviceInfo{Gen: 9}) // generation slot or base fallback
//
// Unknown names are not errors. Lookup returns nil for them.
package dispatch
