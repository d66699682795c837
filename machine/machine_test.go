package machine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-bob/disk"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		DiskPath: filepath.Join(t.TempDir(), "disk.img"),
		Geometry: disk.Geometry{Cylinders: 16, Heads: 16, Sectors: 63},
		MemSize:  memoryDefaultSizeForTest,
		TimerHz:  1000,
	}
}

const memoryDefaultSizeForTest = 0x0100_0000

func TestResetBootsToFarJumpStub(t *testing.T) {
	m, err := New(testConfig(t))
	require.NoError(t, err)

	require.NoError(t, m.Memory.WriteBytes(0x7C00, []byte{0x90, 0xC3}))

	require.NoError(t, m.Step()) // far jump at FFFF0 -> CS:IP = 0000:7C00
	snap := m.CPU.Snapshot()
	assert.Equal(t, uint16(0), snap.CS)
	assert.Equal(t, uint16(0x7C00), snap.IP)

	require.NoError(t, m.Step()) // NOP at 7C00
	snap = m.CPU.Snapshot()
	assert.Equal(t, uint16(0x7C01), snap.IP)
}

func TestUnimplementedOpcodeStopsRunLoop(t *testing.T) {
	m, err := New(testConfig(t))
	require.NoError(t, err)

	m.CPU.SetCS(0)
	m.CPU.SetIP(0)
	require.NoError(t, m.Memory.WriteBytes(0, []byte{0x0F}))

	m.Start()
	m.Run()

	require.Error(t, m.LastFault)
	assert.False(t, m.Running())
}

func TestDiskIOErrorDuringInt13IsRecoveredByRun(t *testing.T) {
	cfg := testConfig(t)
	m, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, os.Remove(cfg.DiskPath))

	m.CPU.SetCS(0)
	m.CPU.SetIP(0)
	m.CPU.SetWord(0, 0x0201) // AH=0x02, AL=1 sector
	m.CPU.SetWord(1, 0x0001) // CL=1 sector, CH=0 cylinder
	m.CPU.SetWord(2, 0x0000) // DH=0 head
	m.CPU.SetWord(3, 0x0000) // BX=0
	m.CPU.SetES(0x2000)
	require.NoError(t, m.Memory.WriteBytes(0, []byte{0xCD, 0x13}))

	m.Start()
	m.Run()

	require.Error(t, m.LastFault)
	var ioErr *disk.IOError
	assert.ErrorAs(t, m.LastFault, &ioErr)
}
