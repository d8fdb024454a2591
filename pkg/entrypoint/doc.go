// Package entrypoint compiles an ordered set of entry-point descriptors into a
// static, read-only name index.
//
// The build phase runs once:
//
//	cat := entrypoint.NewCatalog()
//	_ = cat.Add(entrypoint.Descriptor{Name: "vkCreateDevice", ...})
//	idx, err := entrypoint.Compile(cat)
//
// Compile assigns every enabled entry point a dense id (catalog order, legacy
// entries last), interns all names into a single StringPool blob and places
// each id into a fixed power-of-two open-addressing table keyed by a rolling
// multiply-add hash of the name.
//
// At run time Index.IndexOf turns a name back into its id in O(1) expected
// time without allocating. The Index is immutable and safe for concurrent use.
//
// # Hashing
//
// The hash is hash = hash*PrimeFactor + byte over the name's bytes with 32-bit
// wraparound, starting from 0. Collisions are resolved by stepping the probe
// position by PrimeStep, an odd constant, so every slot of the table is
// eventually visited. Both constants, together with HashSize, are embedded in
// every Compiled layout so that build-time and run-time hashing agree.
package entrypoint
