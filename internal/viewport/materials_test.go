package viewport

import (
	"image"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
)

func TestModulate(t *testing.T) {
	base := rl.NewColor(200, 100, 50, 255)

	assert.Equal(t, base, modulate(base, rl.NewColor(255, 255, 255, 255)))
	assert.Equal(t, rl.NewColor(0, 0, 0, 0), modulate(base, rl.NewColor(0, 0, 0, 0)))

	half := modulate(rl.NewColor(200, 200, 200, 255), rl.NewColor(128, 128, 128, 255))
	assert.Equal(t, uint8(100), half.R)
	assert.Equal(t, uint8(100), half.G)
	assert.Equal(t, uint8(100), half.B)
	assert.Equal(t, uint8(255), half.A)
}

func TestCapSizePassesSmallImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	got := capSize(img, 512)
	assert.Same(t, img, got)
}

func TestCapSizeScalesDownPreservingAspect(t *testing.T) {
	wide := capSize(image.NewRGBA(image.Rect(0, 0, 1024, 512)), 512)
	assert.Equal(t, 512, wide.Bounds().Dx())
	assert.Equal(t, 256, wide.Bounds().Dy())

	tall := capSize(image.NewRGBA(image.Rect(0, 0, 200, 1000)), 512)
	assert.Equal(t, 102, tall.Bounds().Dx())
	assert.Equal(t, 512, tall.Bounds().Dy())
}
