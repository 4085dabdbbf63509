package viewport

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
)

func TestSnapStep(t *testing.T) {
	assert.InDelta(t, 0.25, snapStep(0.37, 0.25), 1e-5)
	assert.InDelta(t, 0.5, snapStep(0.38, 0.25), 1e-5)
	assert.InDelta(t, -0.25, snapStep(-0.3, 0.25), 1e-5)
	assert.InDelta(t, 3, snapStep(3.4, 1), 1e-5)
}

func TestIndexOf(t *testing.T) {
	list := []string{"wood-birch", "paint-white", "steel-brushed"}
	assert.Equal(t, 1, indexOf(list, "paint-white"))
	assert.Equal(t, -1, indexOf(list, "velvet-red"))
	assert.Equal(t, -1, indexOf(nil, "anything"))
}

func TestPointIn(t *testing.T) {
	assert.True(t, pointIn(rl.NewVector2(15, 25), 10, 20, 10, 10))
	assert.True(t, pointIn(rl.NewVector2(10, 20), 10, 20, 10, 10))
	assert.True(t, pointIn(rl.NewVector2(20, 30), 10, 20, 10, 10))
	assert.False(t, pointIn(rl.NewVector2(9, 25), 10, 20, 10, 10))
	assert.False(t, pointIn(rl.NewVector2(15, 31), 10, 20, 10, 10))
}
