package output

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"github.com/df07/go-light-transport/pkg/core"
)

// ErrUnsupportedFormat is returned when an output path has no known image extension
var ErrUnsupportedFormat = errors.New("unsupported output format")

// DisplayGamma is the gamma applied when converting linear radiance to 8-bit color
const DisplayGamma = 2.0

// HDR is a linear radiance image with row 0 at the top
type HDR interface {
	Size() (width, height int)
	At(x, y int) core.Vec3
}

// ToImage scales radiance by exposure, applies gamma correction and clamps to 8 bits
func ToImage(hdr HDR, exposure float64) *image.RGBA {
	width, height := hdr.Size()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, toRGBA(hdr.At(x, y).Multiply(exposure)))
		}
	}
	return img
}

// toRGBA converts one linear color; non-finite values are shown black
func toRGBA(c core.Vec3) color.RGBA {
	if !c.IsValid() {
		return color.RGBA{A: 255}
	}
	c = c.Clamp(0, 1).GammaCorrect(DisplayGamma)
	return color.RGBA{
		R: uint8(255*c.X + 0.5),
		G: uint8(255*c.Y + 0.5),
		B: uint8(255*c.Z + 0.5),
		A: 255,
	}
}

// Downsample scales a supersampled render to width x height with CatmullRom filtering.
// Renders are opaque, so no alpha premultiplication is needed.
func Downsample(img *image.RGBA, width, height int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Save encodes img to path, choosing PNG or lossless WebP from the extension and
// creating parent directories as needed
func Save(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".webp" {
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	switch ext {
	case ".png":
		err = png.Encode(file, img)
	case ".webp":
		err = nativewebp.Encode(file, img, nil)
	}
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", ext[1:], err)
	}
	return file.Close()
}
