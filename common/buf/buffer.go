// Package buf provides a recyclable, checkpoint-able byte buffer. It backs
// both the scratchpad (working storage for decoded names and rdata) and the
// renderer's output window, where writes must be rolled back in lock-step
// with the compression context on a partial failure.
package buf

import (
	"github.com/jengyic/bind-utils/common/bytespool"
)

const (
	// Size of a regular buffer handed out by New.
	Size = 512
)

var pool = bytespool.GetPool(Size)

// ownership represents the data owner of the buffer.
type ownership uint8

const (
	managed ownership = iota
	unmanaged
	bytespools
)

// Buffer is a recyclable allocation of a byte array. Buffer.Release()
// recycles the buffer into an internal buffer pool, in order to recreate a
// buffer more quickly.
type Buffer struct {
	v         []byte
	start     int32
	end       int32
	ownership ownership
	reserved  int32 // bytes held back from the writable tail; see ReserveTail
}

// New creates a Buffer with 0 length and default capacity, managed.
func New() *Buffer {
	buf := pool.Get().([]byte)
	if cap(buf) >= Size {
		buf = buf[:Size]
	} else {
		buf = make([]byte, Size)
	}
	return &Buffer{v: buf}
}

// NewWithSize creates a Buffer with 0 length and capacity at least size,
// pulled from the size-tiered bytespool.
func NewWithSize(size int32) *Buffer {
	return &Buffer{
		v:         bytespool.Alloc(size),
		ownership: bytespools,
	}
}

// FromBytes wraps an existing, externally owned byte slice. Release is a
// no-op for such a Buffer: it is the caller's render target, not ours.
func FromBytes(b []byte) *Buffer {
	return &Buffer{
		v:         b,
		end:       int32(len(b)),
		ownership: unmanaged,
	}
}

// Release recycles the buffer into an internal buffer pool.
func (b *Buffer) Release() {
	if b == nil || b.v == nil || b.ownership == unmanaged {
		return
	}
	p := b.v
	b.v = nil
	b.Clear()
	switch b.ownership {
	case managed:
		if cap(p) == Size {
			pool.Put(p)
		}
	case bytespools:
		bytespool.Free(p)
	}
}

// Clear empties the buffer content and any tail reservation, without
// releasing its storage.
func (b *Buffer) Clear() {
	b.start = 0
	b.end = 0
	b.reserved = 0
}

// Bytes returns the content bytes of this Buffer.
func (b *Buffer) Bytes() []byte {
	return b.v[b.start:b.end]
}

// Extend increases the buffer size by n bytes and returns the extended part.
// It panics if the result would exceed the underlying storage; callers that
// need graceful failure should check Available first.
func (b *Buffer) Extend(n int32) []byte {
	end := b.end + n
	if end > int32(len(b.v)) {
		panic("extending out of bound")
	}
	ext := b.v[b.end:end]
	b.end = end
	clear(ext)
	return ext
}

// Len returns the length of the buffer content.
func (b *Buffer) Len() int32 {
	if b == nil {
		return 0
	}
	return b.end - b.start
}

// Cap returns the capacity of the underlying storage.
func (b *Buffer) Cap() int32 {
	if b == nil {
		return 0
	}
	return int32(len(b.v))
}

// Available returns the writable room left in the underlying storage, net of
// any tail reservation (see ReserveTail).
func (b *Buffer) Available() int32 {
	if b == nil {
		return 0
	}
	a := int32(len(b.v)) - b.end - b.reserved
	if a < 0 {
		return 0
	}
	return a
}

// ReserveTail holds back n additional bytes from Available, without
// consuming them. A renderer uses this to keep room at the tail of the
// buffer for content (an OPT record, a TSIG record) written after the
// section currently being rendered.
func (b *Buffer) ReserveTail(n int32) {
	b.reserved += n
}

// UnreserveTail gives back n bytes of a previous ReserveTail.
func (b *Buffer) UnreserveTail(n int32) {
	b.reserved -= n
}

// ReservedTail returns the buffer's current tail reservation.
func (b *Buffer) ReservedTail() int32 {
	return b.reserved
}

// Checkpoint is an opaque, comparable snapshot of a Buffer's used-offset.
// The renderer takes one before attempting to write a RecordSet and rolls
// back to it on codec failure.
type Checkpoint struct {
	end int32
}

// Mark returns a Checkpoint for the buffer's current used-offset.
func (b *Buffer) Mark() Checkpoint {
	return Checkpoint{end: b.end}
}

// Rollback restores the buffer to a previously taken Checkpoint, discarding
// anything written since. It is the buffer half of the renderer's
// "restore buffer state and roll back the compression context" contract.
func (b *Buffer) Rollback(c Checkpoint) {
	if c.end >= b.start && c.end <= b.end {
		b.end = c.end
	}
}
