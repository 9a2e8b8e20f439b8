package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/integrator"
	"github.com/df07/go-light-transport/pkg/scene"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Config contains configuration for a render
type Config struct {
	TileSize           int     // Size of each tile in pixels
	SamplesPerPixel    int     // Samples per pixel, 0 uses the scene's setting
	Workers            int     // Number of parallel workers (0 = use CPU count)
	Seed               int64   // Base seed for the per-tile samplers
	AdaptiveMinSamples float64 // Fraction of SamplesPerPixel taken before a pixel may stop early
	AdaptiveThreshold  float64 // Relative error at which a pixel stops sampling, 0 disables
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		TileSize:           32,
		SamplesPerPixel:    0,
		Workers:            0,
		Seed:               1,
		AdaptiveMinSamples: 0.1,
		AdaptiveThreshold:  0,
	}
}

// Renderer drives an integrator over every pixel of a scene's camera
type Renderer struct {
	scene      *scene.Scene
	integrator integrator.Integrator
	config     Config
	logger     core.Logger
	prepared   bool
}

// NewRenderer creates a renderer; a nil logger discards output
func NewRenderer(s *scene.Scene, integratorInst integrator.Integrator, config Config, logger core.Logger) *Renderer {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Renderer{
		scene:      s,
		integrator: integratorInst,
		config:     config,
		logger:     logger,
	}
}

// samplesPerPixel resolves the sample count from the config, then the scene
func (r *Renderer) samplesPerPixel() int {
	if r.config.SamplesPerPixel > 0 {
		return r.config.SamplesPerPixel
	}
	if r.scene.SamplingConfig.SamplesPerPixel > 0 {
		return r.scene.SamplingConfig.SamplesPerPixel
	}
	return 1
}

// prepare builds the scene and runs the integrator's pre-pass, once per renderer
func (r *Renderer) prepare() error {
	if r.prepared {
		return nil
	}
	if r.scene.BVH == nil || r.scene.Camera == nil {
		if err := r.scene.Preprocess(); err != nil {
			return fmt.Errorf("preparing scene: %w", err)
		}
	}
	if p, ok := r.integrator.(integrator.Preprocessor); ok {
		if err := p.Preprocess(r.scene); err != nil {
			return fmt.Errorf("preprocessing integrator: %w", err)
		}
	}
	r.prepared = true
	return nil
}

// Render estimates every pixel. On cancellation it returns ctx's error together with
// the film accumulated so far; tiles that were not rendered stay black.
func (r *Renderer) Render(ctx context.Context) (*Film, RenderStats, error) {
	if err := r.prepare(); err != nil {
		return nil, RenderStats{}, err
	}

	start := time.Now()
	width, height := r.scene.Camera.Resolution()
	spp := r.samplesPerPixel()

	pixelStats := make([][]PixelStats, height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, width)
	}

	tiles := NewTileGrid(width, height, r.config.TileSize)
	pool := NewWorkerPool(r.scene, r.integrator, r.config, len(tiles))

	r.logger.Printf("Rendering %dx%d at %d spp (%d tiles, %d workers)...\n",
		width, height, spp, len(tiles), pool.GetNumWorkers())

	pool.Start(ctx)
	for _, tile := range tiles {
		pool.SubmitTask(TileTask{
			Tile:          tile,
			TargetSamples: spp,
			Seed:          tileSeed(r.config.Seed, tile.ID),
			PixelStats:    pixelStats,
		})
	}

	var stats RenderStats
	var renderErr error
	nextReport := 1
	for done := 0; done < len(tiles); done++ {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil {
			if renderErr == nil {
				renderErr = result.Error
			}
			continue
		}
		stats.merge(result.Stats)

		if progress := stats.TilesRendered * 10 / len(tiles); progress >= nextReport {
			r.logger.Printf("  %d%% (%d/%d tiles)\n", progress*10, stats.TilesRendered, len(tiles))
			nextReport = progress + 1
		}
	}
	pool.Stop()

	film := NewFilm(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			film.Set(x, y, pixelStats[y][x].GetColor())
		}
	}

	if renderErr != nil {
		r.logger.Printf("Render stopped after %d/%d tiles: %v\n", stats.TilesRendered, len(tiles), renderErr)
		return film, stats, renderErr
	}

	r.logger.Printf("Rendered %d samples in %v (%.1f spp average)\n",
		stats.TotalSamples, time.Since(start), stats.AverageSamples)
	return film, stats, nil
}
