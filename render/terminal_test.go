package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShadeForQuantizesFullRange(t *testing.T) {
	assert.Equal(t, shadeChars[0], shadeFor(0))
	assert.Equal(t, shadeChars[len(shadeChars)-1], shadeFor(255))
}

func TestShadeForMonotonic(t *testing.T) {
	prev := shadeFor(0)
	prevIdx := 0
	for v := 1; v <= 255; v++ {
		s := shadeFor(uint8(v))
		idx := 0
		for i, c := range shadeChars {
			if c == s {
				idx = i
			}
		}
		assert.GreaterOrEqual(t, idx, prevIdx)
		prevIdx = idx
		_ = prev
		prev = s
	}
}
