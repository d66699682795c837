package disk

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry() Geometry {
	return Geometry{Cylinders: 16, Heads: 16, Sectors: 63}
}

func TestCHSToLBA(t *testing.T) {
	g := testGeometry()
	assert.Equal(t, 1136, g.LBA(1, 2, 3))
}

func TestOpenCreatesImageWithBootSector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := Open(path, testGeometry())
	require.NoError(t, err)

	sector, err := d.ReadSector(0)
	require.NoError(t, err)
	assert.Equal(t, byte(0xB8), sector[0])
	assert.Equal(t, byte(0xEB), sector[16])
	assert.Equal(t, byte(0xFE), sector[17])
}

func setSectorSelector(d *Disk, cyl, head, sector int) {
	d.WritePort(PortCylinderLow, byte(cyl))
	d.WritePort(PortCylinderHigh, byte(cyl>>8))
	d.WritePort(PortDriveHead, byte(head))
	d.WritePort(PortSectorNumber, byte(sector))
}

func TestWriteThenReadSectorRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := Open(path, testGeometry())
	require.NoError(t, err)

	setSectorSelector(d, 0, 0, 1)
	d.WritePort(PortStatusCommand, cmdWriteSectors)
	assert.Equal(t, byte(statusDataReady), d.ReadPort(PortStatusCommand))

	payload := make([]byte, bytesPerSector)
	for i := range payload {
		payload[i] = byte(i * 7 % 256)
	}
	for _, b := range payload {
		d.WritePort(PortData, b)
	}
	assert.Equal(t, byte(statusIdle), d.ReadPort(PortStatusCommand))

	setSectorSelector(d, 0, 0, 1)
	d.WritePort(PortStatusCommand, cmdReadSectors)
	assert.Equal(t, byte(statusDataReady), d.ReadPort(PortStatusCommand))

	got := make([]byte, bytesPerSector)
	for i := range got {
		got[i] = d.ReadPort(PortData)
	}
	assert.Equal(t, payload, got)
	assert.Equal(t, byte(statusIdle), d.ReadPort(PortStatusCommand), "status must idle after last byte")
}

func TestUnsupportedCommandSetsAbort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := Open(path, testGeometry())
	require.NoError(t, err)

	d.WritePort(PortStatusCommand, 0xFF)

	assert.Equal(t, byte(errorABRT), d.ReadPort(PortError))
	assert.Equal(t, byte(statusError), d.ReadPort(PortStatusCommand))
}

func TestMalformedBufferAccessReturnsZeroAndDropsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := Open(path, testGeometry())
	require.NoError(t, err)

	assert.Equal(t, byte(0), d.ReadPort(PortData))
	assert.NotPanics(t, func() { d.WritePort(PortData, 0x42) })
}
