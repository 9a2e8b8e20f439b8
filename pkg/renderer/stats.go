package renderer

import "github.com/df07/go-light-transport/pkg/core"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int     // Total number of pixels rendered
	TotalSamples   int     // Total number of samples taken
	AverageSamples float64 // Average samples per pixel
	MaxSamples     int     // Maximum samples allowed per pixel
	MinSamples     int     // Minimum samples taken per pixel
	MaxSamplesUsed int     // Maximum samples actually used by any pixel
	TilesRendered  int     // Tiles completed before the render finished or was cancelled
}

// merge folds the statistics of one tile into s
func (s *RenderStats) merge(tile RenderStats) {
	if s.TilesRendered == 0 {
		s.MinSamples = tile.MinSamples
	} else {
		s.MinSamples = min(s.MinSamples, tile.MinSamples)
	}
	s.TotalPixels += tile.TotalPixels
	s.TotalSamples += tile.TotalSamples
	s.MaxSamples = max(s.MaxSamples, tile.MaxSamples)
	s.MaxSamplesUsed = max(s.MaxSamplesUsed, tile.MaxSamplesUsed)
	s.TilesRendered++
	if s.TotalPixels > 0 {
		s.AverageSamples = float64(s.TotalSamples) / float64(s.TotalPixels)
	}
}

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	ColorAccum       core.Vec3 // RGB accumulator for final result
	LuminanceAccum   float64   // Luminance accumulator for convergence
	LuminanceSqAccum float64   // Luminance squared for variance
	SampleCount      int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics. Non-finite samples still
// count toward the sample total but contribute nothing.
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.SampleCount++
	if !color.IsValid() {
		return
	}
	ps.ColorAccum = ps.ColorAccum.Add(color)
	luminance := color.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// Film is the linear radiance estimate of a render, stored row-major with row 0 at the top
type Film struct {
	Width  int
	Height int
	Pixels []core.Vec3
}

// NewFilm creates a black film
func NewFilm(width, height int) *Film {
	return &Film{Width: width, Height: height, Pixels: make([]core.Vec3, width*height)}
}

// Size returns the film resolution
func (f *Film) Size() (int, int) {
	return f.Width, f.Height
}

// At returns the radiance estimate of pixel (x, y)
func (f *Film) At(x, y int) core.Vec3 {
	return f.Pixels[y*f.Width+x]
}

// Set stores the radiance estimate of pixel (x, y)
func (f *Film) Set(x, y int, c core.Vec3) {
	f.Pixels[y*f.Width+x] = c
}

// CalculateAverageLuminance returns the mean luminance over all pixels
func (f *Film) CalculateAverageLuminance() float64 {
	if len(f.Pixels) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range f.Pixels {
		total += c.Luminance()
	}
	return total / float64(len(f.Pixels))
}
