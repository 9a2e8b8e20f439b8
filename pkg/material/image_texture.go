package material

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// ImageTexture provides color from a 2D image with repeat wrapping
type ImageTexture struct {
	Width    int
	Height   int
	Pixels   []core.Vec3 // Row-major: Pixels[y*Width + x], row 0 at the top
	Bilinear bool        // interpolate between texel centers instead of nearest lookup
}

// NewImageTexture creates a new nearest-neighbor image texture
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	return &ImageTexture{Width: width, Height: height, Pixels: pixels}
}

// texel returns a pixel with repeat wrapping on both axes
func (t *ImageTexture) texel(x, y int) core.Vec3 {
	x %= t.Width
	if x < 0 {
		x += t.Width
	}
	y %= t.Height
	if y < 0 {
		y += t.Height
	}
	return t.Pixels[y*t.Width+x]
}

// Evaluate samples the texture at given UV coordinates.
// V=0 is the bottom of the image, V=1 the top.
func (t *ImageTexture) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	if t.Width == 0 || t.Height == 0 {
		return core.Vec3{}
	}

	fx := uv.X * float64(t.Width)
	fy := (1.0 - uv.Y) * float64(t.Height)

	if !t.Bilinear {
		return t.texel(int(math.Floor(fx)), int(math.Floor(fy)))
	}

	// Shift to texel centers
	fx -= 0.5
	fy -= 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	dx := fx - float64(x0)
	dy := fy - float64(y0)

	top := t.texel(x0, y0).Multiply(1 - dx).Add(t.texel(x0+1, y0).Multiply(dx))
	bottom := t.texel(x0, y0+1).Multiply(1 - dx).Add(t.texel(x0+1, y0+1).Multiply(dx))
	return top.Multiply(1 - dy).Add(bottom.Multiply(dy))
}
