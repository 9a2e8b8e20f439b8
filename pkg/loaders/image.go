package loaders

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/webp"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/lights"
	"github.com/df07/go-light-transport/pkg/material"
)

// ErrUnsupported is returned for files and scene entries of an unknown kind
var ErrUnsupported = errors.New("unsupported")

// imageDecoders maps file extensions to decoders. TGA has no magic number, so formats
// are chosen by extension rather than sniffed.
var imageDecoders = map[string]struct {
	format string
	decode func(io.Reader) (image.Image, error)
}{
	".png":  {"png", png.Decode},
	".jpg":  {"jpeg", jpeg.Decode},
	".jpeg": {"jpeg", jpeg.Decode},
	".tga":  {"tga", tga.Decode},
	".webp": {"webp", webp.Decode},
}

// ImageData contains loaded image data as Vec3 color array
type ImageData struct {
	Width  int
	Height int
	Pixels []core.Vec3
	Format string // Decoder that read the file: png, jpeg, tga or webp
}

// LoadImage loads a PNG, JPEG, TGA or WebP image and converts it to Vec3 color array
func LoadImage(filename string) (*ImageData, error) {
	decoder, ok := imageDecoders[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return nil, fmt.Errorf("image %s: %w", filename, ErrUnsupported)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, err := decoder.decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filename, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535], convert to [0, 1]
			pixels[y*width+x] = core.NewVec3(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			)
		}
	}

	return &ImageData{
		Width:  width,
		Height: height,
		Pixels: pixels,
		Format: decoder.format,
	}, nil
}

// Texture wraps the image as a color source for textured BSDFs
func (d *ImageData) Texture() *material.ImageTexture {
	return material.NewImageTexture(d.Width, d.Height, d.Pixels)
}

// EnvironmentMap wraps the image as a latitude-longitude environment emitter
func (d *ImageData) EnvironmentMap(scale float64) *lights.EnvironmentMap {
	return lights.NewEnvironmentMap(d.Width, d.Height, d.Pixels, scale)
}
