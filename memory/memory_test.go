package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWrite32RoundTrip(t *testing.T) {
	m := New(DefaultSize)

	addrs := []uint32{0, 1, 3, 0x1000, uint32(DefaultSize - 4)}
	values := []uint32{0, 1, 0xDEADBEEF, 0x12345678, 0xFFFFFFFF}

	for _, addr := range addrs {
		for _, v := range values {
			require.NoError(t, m.Write32(addr, v))
			got, err := m.Read32(addr)
			require.NoError(t, err)
			assert.Equal(t, v, got, "addr=0x%X v=0x%X", addr, v)
		}
	}
}

func TestReadWrite16RoundTrip(t *testing.T) {
	m := New(DefaultSize)

	require.NoError(t, m.Write16(10, 0xABCD))
	got, err := m.Read16(10)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xABCD), got)
}

func TestLittleEndianByteOrder(t *testing.T) {
	m := New(16)
	require.NoError(t, m.Write16(0, 0x1234))

	lo, _ := m.Read8(0)
	hi, _ := m.Read8(1)
	assert.Equal(t, byte(0x34), lo)
	assert.Equal(t, byte(0x12), hi)
}

func TestOutOfRangeDeterministic(t *testing.T) {
	m := New(16)

	_, err := m.Read8(16)
	assert.Error(t, err)

	_, err = m.Read16(15)
	assert.Error(t, err)

	_, err = m.Read32(13)
	assert.Error(t, err)

	err = m.Write8(100, 1)
	assert.Error(t, err)
}

func TestNoPartialWriteOnOutOfRange(t *testing.T) {
	m := New(4)
	require.NoError(t, m.Write32(0, 0xAAAAAAAA))

	err := m.Write32(2, 0xBBBBBBBB)
	require.Error(t, err)

	got, err := m.Read32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAAAAAAAA), got, "out-of-range write must not mutate memory")
}

func TestWriteTruncatesToAccessWidth(t *testing.T) {
	m := New(16)
	require.NoError(t, m.Write16(0, 0x1FFFF&0xFFFF))
	got, err := m.Read16(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xFFFF), got)
}

func TestFramebufferViewToleratesAccess(t *testing.T) {
	m := New(DefaultSize)
	require.NoError(t, m.Write8(0xA0000, 7))

	view := m.FramebufferView(0xA0000, 320*200)
	require.NotNil(t, view)
	assert.Equal(t, byte(7), view[0])
}
