package material

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// ColorSource provides spatially-varying colors for BSDF parameters
type ColorSource interface {
	// Evaluate returns color at given UV coordinates and 3D point
	// UV is used for image textures, point for procedural textures
	Evaluate(uv core.Vec2, point core.Vec3) core.Vec3
}

// SolidColor provides a uniform color
type SolidColor struct {
	Color core.Vec3
}

// NewSolidColor creates a new solid color source
func NewSolidColor(color core.Vec3) *SolidColor {
	return &SolidColor{Color: color}
}

// Evaluate returns the solid color regardless of UV or position
func (s *SolidColor) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	return s.Color
}

// Checker alternates two colors in a 3D grid of cubes with edge Scale
type Checker struct {
	Even  core.Vec3
	Odd   core.Vec3
	Scale float64
}

// NewChecker creates a solid checker pattern
func NewChecker(even, odd core.Vec3, scale float64) *Checker {
	return &Checker{Even: even, Odd: odd, Scale: scale}
}

// Evaluate picks the color of the cube containing point
func (c *Checker) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	x := int(math.Floor(point.X / c.Scale))
	y := int(math.Floor(point.Y / c.Scale))
	z := int(math.Floor(point.Z / c.Scale))
	if (x+y+z)&1 == 0 {
		return c.Even
	}
	return c.Odd
}
