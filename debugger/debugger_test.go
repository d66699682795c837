package debugger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-bob/disk"
	"github.com/valerio/go-bob/machine"
)

func newTestMachine(t *testing.T) *machine.Machine {
	t.Helper()
	cfg := machine.Config{
		DiskPath: filepath.Join(t.TempDir(), "disk.img"),
		Geometry: disk.Geometry{Cylinders: 16, Heads: 16, Sectors: 63},
		MemSize:  0x0100_0000,
		TimerHz:  1000,
	}
	m, err := machine.New(cfg)
	require.NoError(t, err)
	return m
}

func TestStepTransitionsStepToPaused(t *testing.T) {
	m := newTestMachine(t)
	require.NoError(t, m.Memory.WriteBytes(0x7C00, []byte{0x90, 0x90}))
	m.CPU.SetCS(0)
	m.CPU.SetIP(0x7C00)

	d := New(m)
	d.Next()
	assert.Equal(t, Step, d.State())

	require.NoError(t, d.Tick())
	assert.Equal(t, Paused, d.State())

	before := d.Snapshot().IP
	require.NoError(t, d.Tick()) // paused: no-op
	assert.Equal(t, before, d.Snapshot().IP)
}

func TestGoResumesRunning(t *testing.T) {
	m := newTestMachine(t)
	d := New(m)
	d.Stop()
	assert.Equal(t, Paused, d.State())
	d.Go()
	assert.Equal(t, Running, d.State())
}

func TestSnapshotReflectsRegisterFile(t *testing.T) {
	m := newTestMachine(t)
	m.CPU.SetWord(0, 0x1234)
	d := New(m)
	assert.Equal(t, uint32(0x1234), d.Snapshot().A)
}
