package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-bob/memory"
)

func TestDefaultPaletteIsGrayscaleGradient(t *testing.T) {
	p := DefaultPalette()
	assert.Equal(t, Color{0, 0, 0}, p[0])
	assert.Equal(t, Color{255, 255, 255}, p[255])
	assert.Equal(t, Color{128, 128, 128}, p[128])
}

func TestReadFrameReturnsFramebufferRegion(t *testing.T) {
	mem := memory.New(memory.DefaultSize)
	pixel := make([]byte, Width*Height)
	for i := range pixel {
		pixel[i] = byte(i % 256)
	}
	require.NoError(t, mem.WriteBytes(Base, pixel))

	fb := New(mem)
	frame, err := fb.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, pixel, frame)
}

func TestColorAtUsesConfiguredPalette(t *testing.T) {
	mem := memory.New(memory.DefaultSize)
	fb := New(mem)

	var custom Palette
	custom[42] = Color{R: 1, G: 2, B: 3}
	fb.SetPalette(custom)

	assert.Equal(t, Color{1, 2, 3}, fb.ColorAt(42))
}
