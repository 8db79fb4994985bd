package dnsmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOPTTTLEncodeDecodeRoundTrip(t *testing.T) {
	ttl := encodeOPTTTL(0x12, 0x00, 0x8000)
	extRcode, version, flags := decodeOPTTTL(ttl)
	assert.Equal(t, uint8(0x12), extRcode)
	assert.Equal(t, uint8(0x00), version)
	assert.Equal(t, uint16(0x8000), flags)
}

func TestBuildOPTThenOPTInfoRoundTrip(t *testing.T) {
	m := New(IntentRender)
	defer m.Destroy()

	info := OPTInfo{
		UDPSize:       4096,
		ExtendedRcode: 1,
		Version:       0,
		Flags:         0x8000,
		Options:       []EDNSOption{{Code: 8, Data: []byte{0, 1, 0, 4, 192, 0, 2, 0}}},
	}
	rs, err := m.BuildOPT(info)
	require.NoError(t, err)
	m.opt = rs

	got, ok := m.OPTInfo()
	require.True(t, ok)
	assert.Equal(t, info.UDPSize, got.UDPSize)
	assert.Equal(t, info.ExtendedRcode, got.ExtendedRcode)
	assert.Equal(t, info.Flags, got.Flags)
	require.Len(t, got.Options, 1)
	assert.Equal(t, info.Options[0].Code, got.Options[0].Code)
	assert.Equal(t, info.Options[0].Data, got.Options[0].Data)
}

func TestOPTInfoFalseWhenNoOPT(t *testing.T) {
	m := New(IntentRender)
	defer m.Destroy()
	_, ok := m.OPTInfo()
	assert.False(t, ok)
}

func TestDecodeOPTOptionsRejectsTruncatedOption(t *testing.T) {
	_, err := decodeOPTOptions([]byte{0, 8, 0, 10, 1, 2})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindFormatError))
}
