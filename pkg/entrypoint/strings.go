package entrypoint

// StringPool stores names back to back in one NUL-separated blob so the
// entry table only carries integer offsets. It is append-only while the
// catalog is compiled and read-only afterwards.
type StringPool struct {
	blob []byte
}

// NewStringPoolFrom wraps an existing blob, e.g. one restored from an artifact.
// The blob is not copied.
func NewStringPoolFrom(blob []byte) *StringPool {
	return &StringPool{blob: blob}
}

// Add appends name and returns its offset.
func (p *StringPool) Add(name string) uint32 {
	off := uint32(len(p.blob))
	p.blob = append(p.blob, name...)
	p.blob = append(p.blob, 0)
	return off
}

// String returns the name stored at off, or "" if off is out of range.
func (p *StringPool) String(off uint32) string {
	if int(off) >= len(p.blob) {
		return ""
	}
	end := int(off)
	for end < len(p.blob) && p.blob[end] != 0 {
		end++
	}
	return string(p.blob[off:end])
}

// Equal reports whether the name stored at off is exactly name.
// It does not allocate.
func (p *StringPool) Equal(off uint32, name string) bool {
	start := int(off)
	if start+len(name) >= len(p.blob) {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == 0 || p.blob[start+i] != c {
			return false
		}
	}
	return p.blob[start+len(name)] == 0
}

// Bytes returns the underlying blob. Callers must not modify it.
func (p *StringPool) Bytes() []byte {
	return p.blob
}

// Len returns the blob size in bytes.
func (p *StringPool) Len() int {
	return len(p.blob)
}
