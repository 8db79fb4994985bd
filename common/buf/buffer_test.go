package buf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtendAdvancesLenAndAvailable(t *testing.T) {
	b := New()
	defer b.Release()

	startAvail := b.Available()
	got := b.Extend(10)
	assert.Len(t, got, 10)
	assert.Equal(t, int32(10), b.Len())
	assert.Equal(t, startAvail-10, b.Available())
}

func TestReserveTailShrinksAvailable(t *testing.T) {
	b := New()
	defer b.Release()

	before := b.Available()
	b.ReserveTail(100)
	assert.Equal(t, before-100, b.Available())
	assert.Equal(t, int32(100), b.ReservedTail())

	b.UnreserveTail(100)
	assert.Equal(t, before, b.Available())
	assert.Equal(t, int32(0), b.ReservedTail())
}

func TestClearResetsReservation(t *testing.T) {
	b := New()
	defer b.Release()

	b.Extend(50)
	b.ReserveTail(20)
	b.Clear()
	assert.Equal(t, int32(0), b.Len())
	assert.Equal(t, int32(0), b.ReservedTail())
	assert.Equal(t, b.Cap(), b.Available())
}

func TestMarkRollbackDiscardsWrites(t *testing.T) {
	b := New()
	defer b.Release()

	b.Extend(10)
	cp := b.Mark()
	b.Extend(40)
	assert.Equal(t, int32(50), b.Len())

	b.Rollback(cp)
	assert.Equal(t, int32(10), b.Len())
}

func TestRollbackIgnoresCheckpointAheadOfCurrent(t *testing.T) {
	b := New()
	defer b.Release()

	b.Extend(10)
	cp := b.Mark()
	b.Rollback(Checkpoint{end: cp.end + 1000})
	assert.Equal(t, int32(10), b.Len())
}

func TestFromBytesReleaseIsNoOp(t *testing.T) {
	raw := make([]byte, 16)
	b := FromBytes(raw)
	require.Equal(t, int32(16), b.Len())
	b.Release()
	assert.Equal(t, int32(16), b.Len())
}
