package geometry

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// CameraConfig contains all parameters needed to create a camera
type CameraConfig struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera is looking at
	Up            core.Vec3 // Up direction (usually (0,1,0))
	Width         int       // Image width in pixels
	AspectRatio   float64   // Width / height
	VFov          float64   // Vertical field of view in degrees
	Aperture      float64   // Lens diameter, 0 for a pinhole
	FocusDistance float64   // Distance to the focal plane, 0 means |LookAt - Center|
}

// Camera is a perspective camera with an optional thin lens
type Camera struct {
	config      CameraConfig
	origin      core.Vec3
	upperLeft   core.Vec3
	horizontal  core.Vec3
	vertical    core.Vec3
	u, v, w     core.Vec3
	lensRadius  float64
	imageWidth  int
	imageHeight int
}

// NewCamera creates a camera from the given configuration
func NewCamera(config CameraConfig) *Camera {
	if config.AspectRatio <= 0 {
		config.AspectRatio = 1
	}
	if config.Up.IsZero() {
		config.Up = core.NewVec3(0, 1, 0)
	}

	theta := config.VFov * math.Pi / 180.0
	viewportHeight := 2.0 * math.Tan(theta/2)
	viewportWidth := config.AspectRatio * viewportHeight

	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	focus := config.FocusDistance
	if focus <= 0 {
		focus = config.LookAt.Subtract(config.Center).Length()
	}

	horizontal := u.Multiply(viewportWidth * focus)
	vertical := v.Multiply(viewportHeight * focus)
	upperLeft := config.Center.
		Subtract(horizontal.Multiply(0.5)).
		Add(vertical.Multiply(0.5)).
		Subtract(w.Multiply(focus))

	height := int(math.Round(float64(config.Width) / config.AspectRatio))
	if height < 1 {
		height = 1
	}

	return &Camera{
		config:      config,
		origin:      config.Center,
		upperLeft:   upperLeft,
		horizontal:  horizontal,
		vertical:    vertical,
		u:           u,
		v:           v,
		w:           w,
		lensRadius:  config.Aperture / 2,
		imageWidth:  config.Width,
		imageHeight: height,
	}
}

// MergeCameraConfig overlays the non-zero fields of override onto base
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if !override.Center.IsZero() {
		result.Center = override.Center
	}
	if !override.LookAt.IsZero() {
		result.LookAt = override.LookAt
	}
	if !override.Up.IsZero() {
		result.Up = override.Up
	}
	if override.Width > 0 {
		result.Width = override.Width
	}
	if override.AspectRatio > 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.VFov > 0 {
		result.VFov = override.VFov
	}
	if override.Aperture > 0 {
		result.Aperture = override.Aperture
	}
	if override.FocusDistance > 0 {
		result.FocusDistance = override.FocusDistance
	}
	return result
}

// GetRay generates a jittered ray through pixel (i, j); row 0 is the top of the image
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	jitter := sampler.Get2D()
	s := (float64(i) + jitter.X) / float64(c.imageWidth)
	t := (float64(j) + jitter.Y) / float64(c.imageHeight)

	target := c.upperLeft.Add(c.horizontal.Multiply(s)).Subtract(c.vertical.Multiply(t))

	origin := c.origin
	if c.lensRadius > 0 {
		disk := core.SquareToUniformDisk(sampler.Get2D()).Multiply(c.lensRadius)
		origin = origin.Add(c.u.Multiply(disk.X)).Add(c.v.Multiply(disk.Y))
	}
	return core.NewRay(origin, target.Subtract(origin))
}

// GetCameraForward returns the viewing direction
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.w.Negate()
}

// Resolution returns the image size in pixels
func (c *Camera) Resolution() (int, int) {
	return c.imageWidth, c.imageHeight
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}
