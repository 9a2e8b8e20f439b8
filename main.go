package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/geometry"
	"github.com/df07/go-light-transport/pkg/integrator"
	"github.com/df07/go-light-transport/pkg/loaders"
	"github.com/df07/go-light-transport/pkg/output"
	"github.com/df07/go-light-transport/pkg/renderer"
	"github.com/df07/go-light-transport/pkg/scene"
)

// defaultIntegrator is used when neither the flags nor the scene name one
const defaultIntegrator = "path_mis"

// options holds the parsed command line
type options struct {
	Scene       string
	SceneFile   string
	ScenesDir   string
	Integrator  string
	SPP         int
	Width       int
	Height      int
	Photons     int
	Radius      float64
	Index       string
	Workers     int
	Seed        int64
	Supersample int
	Exposure    float64
	Out         string
	List        bool
	Help        bool
}

// parseFlags parses args (without the program name)
func parseFlags(args []string, stderr io.Writer) (options, *flag.FlagSet, error) {
	var opts options
	fs := flag.NewFlagSet("light-transport", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.Scene, "scene", "cornell", "Built-in scene name, or file:<name> for a file in -scenes-dir")
	fs.StringVar(&opts.SceneFile, "scene-file", "", "Path to a JSON scene description (overrides -scene)")
	fs.StringVar(&opts.ScenesDir, "scenes-dir", "scenes", "Directory searched for JSON scene files")
	fs.StringVar(&opts.Integrator, "integrator", "", "Integrator: "+strings.Join(integrator.Names(), ", ")+" (default: the scene's)")
	fs.IntVar(&opts.SPP, "spp", 0, "Samples per pixel (default: the scene's)")
	fs.IntVar(&opts.Width, "width", 0, "Image width in pixels (default: the scene's)")
	fs.IntVar(&opts.Height, "height", 0, "Image height in pixels (default: from the scene's aspect ratio)")
	fs.IntVar(&opts.Photons, "photons", 0, "Photons to emit for the photon mapper (default 1000000)")
	fs.Float64Var(&opts.Radius, "radius", 0, "Photon gather radius (default: scene diagonal / 500)")
	fs.StringVar(&opts.Index, "index", "", "Photon index: kdtree or rtree (default kdtree)")
	fs.IntVar(&opts.Workers, "workers", 0, "Parallel workers (0 = number of CPUs)")
	fs.Int64Var(&opts.Seed, "seed", 1, "Random seed")
	fs.IntVar(&opts.Supersample, "supersample", 1, "Render at N times the resolution and downsample")
	fs.Float64Var(&opts.Exposure, "exposure", 1, "Linear exposure applied before gamma correction")
	fs.StringVar(&opts.Out, "out", "", "Output .png or .webp path (default output/<scene>/render_<timestamp>.png)")
	fs.BoolVar(&opts.List, "list", false, "List available scenes and exit")
	fs.BoolVar(&opts.Help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return opts, fs, err
	}
	if opts.Supersample < 1 {
		return opts, fs, fmt.Errorf("-supersample must be at least 1, got %d", opts.Supersample)
	}
	if opts.Width < 0 || opts.Height < 0 || opts.SPP < 0 || opts.Photons < 0 {
		return opts, fs, fmt.Errorf("-width, -height, -spp and -photons must not be negative")
	}
	return opts, fs, nil
}

// createScene builds the scene selected by the options together with the integrator
// settings a scene file carries
func createScene(opts options) (*scene.Scene, loaders.IntegratorSettings, error) {
	path := opts.SceneFile
	if path == "" {
		if name, ok := strings.CutPrefix(opts.Scene, "file:"); ok {
			path = filepath.Join(opts.ScenesDir, name+".json")
		}
	}

	if path != "" {
		file, err := loaders.LoadSceneFile(path)
		if err != nil {
			return nil, loaders.IntegratorSettings{}, err
		}
		return file.Scene, file.Integrator, nil
	}

	s, err := scene.NewSceneByName(opts.Scene)
	if err != nil {
		return nil, loaders.IntegratorSettings{}, err
	}
	return s, loaders.IntegratorSettings{Name: s.SamplingConfig.Integrator}, nil
}

// sceneLabel names the output directory for a render
func sceneLabel(opts options) string {
	if opts.SceneFile != "" {
		base := filepath.Base(opts.SceneFile)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.TrimPrefix(opts.Scene, "file:")
}

// configureCamera applies the resolution flags and returns the final image size
func configureCamera(s *scene.Scene, opts options) (int, int) {
	override := geometry.CameraConfig{Width: opts.Width}
	if opts.Height > 0 {
		width := opts.Width
		if width == 0 {
			width = s.CameraConfig.Width
		}
		override.AspectRatio = float64(width) / float64(opts.Height)
	}
	config := geometry.MergeCameraConfig(s.CameraConfig, override)
	width, height := geometry.NewCamera(config).Resolution()

	if opts.Supersample > 1 {
		config.Width = width * opts.Supersample
		config.AspectRatio = float64(width) / float64(height)
	}
	s.CameraConfig = config
	s.Camera = nil
	return width, height
}

// run renders one image and returns the path it was written to
func run(ctx context.Context, opts options, logger core.Logger) (string, error) {
	s, settings, err := createScene(opts)
	if err != nil {
		return "", err
	}
	width, height := configureCamera(s, opts)

	name := opts.Integrator
	if name == "" {
		name = settings.Name
	}
	if name == "" {
		name = defaultIntegrator
	}

	config := settings.Apply(integrator.DefaultConfig())
	if opts.Photons > 0 {
		config.PhotonCount = opts.Photons
	}
	if opts.Radius > 0 {
		config.PhotonRadius = opts.Radius
	}
	if opts.Index != "" {
		config.PhotonIndex = opts.Index
	}
	config.Workers = opts.Workers
	config.Seed = opts.Seed
	config.Logger = logger

	integratorInst, err := integrator.New(name, config)
	if err != nil {
		return "", err
	}

	if err := s.Preprocess(); err != nil {
		return "", fmt.Errorf("preparing scene: %w", err)
	}

	renderConfig := renderer.DefaultConfig()
	renderConfig.SamplesPerPixel = opts.SPP
	renderConfig.Workers = opts.Workers
	renderConfig.Seed = opts.Seed

	logger.Printf("Scene %s with %s, %d primitives and %d lights\n",
		sceneLabel(opts), name, s.GetPrimitiveCount(), len(s.GetLights()))

	startTime := time.Now()
	film, stats, err := renderer.NewRenderer(s, integratorInst, renderConfig, logger).Render(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return "", err
	}
	logger.Printf("Render completed in %v\n", time.Since(startTime))
	logger.Printf("Samples per pixel: %.1f (range %d - %d), average luminance %.4f\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed, film.CalculateAverageLuminance())

	img := output.Downsample(output.ToImage(film, opts.Exposure), width, height)

	path := opts.Out
	if path == "" {
		timestamp := time.Now().Format("20060102_150405")
		path = filepath.Join("output", sceneLabel(opts), fmt.Sprintf("render_%s.png", timestamp))
	}
	if saveErr := output.Save(path, img); saveErr != nil {
		return "", saveErr
	}
	// A cancelled render still saves what it has
	return path, err
}

// listScenes prints the built-in scenes and the scene files in dir
func listScenes(w io.Writer, dir string) error {
	response, err := scene.ListAllScenes(dir)
	if err != nil {
		return err
	}
	for _, group := range response.Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Fprintf(w, "  %-16s %-14s %s\n", info.ID, info.Integrator, info.Description)
		}
	}
	return nil
}

func printHelp(fs *flag.FlagSet) {
	fmt.Println("Light Transport Renderer")
	fmt.Println("Usage: light-transport [options]")
	fmt.Println()
	fmt.Println("Options:")
	fs.SetOutput(os.Stdout)
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("Use -list to see the available scenes.")
}

func main() {
	opts, fs, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if opts.Help {
		printHelp(fs)
		return
	}
	if opts.List {
		if err := listScenes(os.Stdout, opts.ScenesDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing scenes: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := renderer.NewDefaultLogger()
	path, err := run(ctx, opts, logger)
	if path != "" {
		fmt.Printf("Render saved as %s\n", path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
