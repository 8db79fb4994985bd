package dnsmsg

import "github.com/jengyic/bind-utils/common/buf"

// scratchDefaultSize is the default size of a freshly appended scratchpad
// buffer (spec.md §4.2).
const scratchDefaultSize = 512

// rdataMaxLen mirrors the 16-bit rdata length field; scratchpad growth for
// record data never retries past this size (spec.md §4.2).
const rdataMaxLen = 65535

// scratchpad is an append-only list of owned byte buffers, supplying working
// storage for decoded names and record payloads. It grows on demand and is
// released as a unit.
type scratchpad struct {
	buffers []*buf.Buffer
}

func newScratchpad() *scratchpad {
	s := &scratchpad{}
	s.buffers = append(s.buffers, buf.New())
	return s
}

// current returns the tail buffer.
func (s *scratchpad) current() *buf.Buffer {
	return s.buffers[len(s.buffers)-1]
}

// grow appends a new buffer sized at least n bytes (or the scratchpad's
// default size, whichever is larger) and returns it.
func (s *scratchpad) grow(n int32) *buf.Buffer {
	size := int32(scratchDefaultSize)
	if n > size {
		size = n
	}
	nb := buf.NewWithSize(size)
	s.buffers = append(s.buffers, nb)
	return nb
}

// alloc reserves n contiguous bytes, growing the scratchpad with the default
// (name-decode) growth policy if the tail buffer has no room.
func (s *scratchpad) alloc(n int32) []byte {
	cur := s.current()
	if cur.Available() < n {
		cur = s.grow(n)
	}
	return cur.Extend(n)
}

// allocRData reserves n contiguous bytes for a record's rdata using the
// sized-growth rule: the first retry is at max(default, 2*wireLen), and each
// subsequent retry doubles the previous try, refusing once the next try
// would exceed rdataMaxLen.
func (s *scratchpad) allocRData(n int32, wireLen int32) ([]byte, error) {
	cur := s.current()
	if cur.Available() >= n {
		return cur.Extend(n), nil
	}

	try := int32(scratchDefaultSize)
	if 2*wireLen > try {
		try = 2 * wireLen
	}
	for {
		if try > rdataMaxLen {
			return nil, errNoSpace("rdata scratchpad growth exceeds 65535 cap")
		}
		cur = s.grow(try)
		if cur.Available() >= n {
			return cur.Extend(n), nil
		}
		try *= 2
	}
}

// reset releases every buffer but the first (which is cleared and kept as a
// fast-path cache), or releases all of them when keepOne is false.
func (s *scratchpad) reset(keepOne bool) {
	if keepOne && len(s.buffers) > 0 {
		head := s.buffers[0]
		head.Clear()
		for _, b := range s.buffers[1:] {
			b.Release()
		}
		s.buffers = append(s.buffers[:0], head)
		return
	}
	for _, b := range s.buffers {
		b.Release()
	}
	s.buffers = s.buffers[:0]
	s.buffers = append(s.buffers, buf.New())
}

// destroy releases every buffer.
func (s *scratchpad) destroy() {
	for _, b := range s.buffers {
		b.Release()
	}
	s.buffers = nil
}
