package dnsmsg

// maxPointerOffset is the largest offset a 14-bit compression pointer can
// represent (RFC 1035 §4.1.4).
const maxPointerOffset = 0x3fff

// decompressContext tracks EDNS-derived decompression policy while parsing
// (spec.md §4.4). It starts in the "no EDNS seen" state (ednsVersion == -1).
type decompressContext struct {
	ednsVersion int
	allowGlobal bool // true once global (anywhere-in-packet) compression is permitted
}

func newDecompressContext() *decompressContext {
	return &decompressContext{ednsVersion: -1}
}

// setMethods computes the compression discipline from the reported EDNS
// version and whether strict mode is enabled: EDNS version > 1, or strict
// mode disabled, allows global compression from anywhere in the packet;
// otherwise the standard pre-EDNS discipline (pointers only to strictly
// earlier, already-decoded positions) applies.
func (d *decompressContext) setMethods(ednsVersion int, strictMode bool) {
	d.ednsVersion = ednsVersion
	d.allowGlobal = ednsVersion > 1 || !strictMode
}

// pointerAllowed reports whether a compression pointer at readPos may target
// offset, given the current discipline. Both disciplines forbid pointers
// that do not strictly precede the current read position (which would admit
// loops); the engine does not otherwise distinguish "global" from "standard"
// targets (doing so would require tracking section boundaries the
// decompression context does not keep), so allowGlobal currently only gates
// whether setMethods widened the policy, not pointerAllowed's own check.
func (d *decompressContext) pointerAllowed(target, readPos int) bool {
	return target < readPos
}

// compressContext is the renderer's name-compression table: a map from a
// canonicalized wire name (and its suffixes) to the first offset at which it
// was written. It is rolled back in lock-step with the output buffer on a
// partial render failure (spec.md §4.5).
type compressContext struct {
	table map[string]uint16
}

func newCompressContext() *compressContext {
	return &compressContext{table: make(map[string]uint16)}
}

// invalidate clears the table entirely.
func (c *compressContext) invalidate() {
	c.table = make(map[string]uint16)
}

// offsetFor returns a previously recorded offset for wireName, if any.
func (c *compressContext) offsetFor(wireName []byte) (uint16, bool) {
	off, ok := c.table[canonKey(wireName)]
	return off, ok
}

// recordAt remembers one suffix (wireName, starting at offset) as a future
// compression target, if not already present and still pointer-representable.
func (c *compressContext) recordAt(wireName []byte, offset uint16) {
	if offset > maxPointerOffset || len(wireName) <= 1 {
		return
	}
	key := canonKey(wireName)
	if _, exists := c.table[key]; !exists {
		c.table[key] = offset
	}
}

// rollback discards every compression entry at or past usedOffset, matching
// the renderer's buffer rollback to a checkpoint.
func (c *compressContext) rollback(usedOffset uint16) {
	for k, off := range c.table {
		if off >= usedOffset {
			delete(c.table, k)
		}
	}
}

// canonKey lowercases a wire-form name for case-insensitive table lookup.
func canonKey(wire []byte) string {
	buf := make([]byte, len(wire))
	for i, b := range wire {
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		buf[i] = b
	}
	return string(buf)
}
