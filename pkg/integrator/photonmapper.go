package integrator

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/photonmap"
	"github.com/df07/go-light-transport/pkg/scene"
)

// photonBatchSize is the number of photons traced by one pre-pass task. Each batch has
// its own sampler seeded from its index, so the photon map does not depend on the
// number of workers.
const photonBatchSize = 10000

// photonRadiusScale derives the default gather radius from the scene bounds diagonal
const photonRadiusScale = 1.0 / 500.0

// PhotonMapperIntegrator traces photons from the lights in a pre-pass, then renders by
// following camera paths through specular surfaces and gathering photons at the first
// diffuse surface
type PhotonMapperIntegrator struct {
	config  Config
	radius  float64
	emitted int
	index   photonmap.Index
}

// NewPhotonMapperIntegrator creates a photon mapper; the photon map is built by Preprocess
func NewPhotonMapperIntegrator(config Config) *PhotonMapperIntegrator {
	if config.Logger == nil {
		config.Logger = core.NopLogger{}
	}
	return &PhotonMapperIntegrator{config: config}
}

// Index returns the photon map, or nil before Preprocess
func (pm *PhotonMapperIntegrator) Index() photonmap.Index {
	return pm.index
}

// Radius returns the gather radius chosen by Preprocess
func (pm *PhotonMapperIntegrator) Radius() float64 {
	return pm.radius
}

// Preprocess traces the configured number of photons across worker goroutines and
// builds the photon index
func (pm *PhotonMapperIntegrator) Preprocess(s *scene.Scene) error {
	start := time.Now()

	index, err := photonmap.NewIndex(pm.config.PhotonIndex)
	if err != nil {
		return fmt.Errorf("photonmapper: %w", err)
	}
	if pm.config.PhotonCount < 0 {
		return fmt.Errorf("photonmapper: invalid photon count %d", pm.config.PhotonCount)
	}

	pm.radius = pm.config.PhotonRadius
	if pm.radius <= 0 {
		pm.radius = s.GetBoundingBox().Diagonal() * photonRadiusScale
	}
	pm.emitted = pm.config.PhotonCount

	pm.config.Logger.Printf("Gathering %d photons (radius %.4f)...\n", pm.emitted, pm.radius)

	batches := (pm.emitted + photonBatchSize - 1) / photonBatchSize
	results := make([][]photonmap.Photon, batches)

	workers := pm.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for b := 0; b < batches; b++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			count := min(photonBatchSize, pm.emitted-b*photonBatchSize)
			sampler := core.NewSeededSampler(pm.config.Seed*1000003 + int64(b))
			results[b] = tracePhotons(s, sampler, count, make([]photonmap.Photon, 0, count))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("photonmapper: %w", err)
	}

	stored := 0
	for _, batch := range results {
		stored += len(batch)
	}
	index.Reserve(stored)
	for _, batch := range results {
		for _, p := range batch {
			index.Push(p)
		}
	}
	index.Build()
	pm.index = index

	pm.config.Logger.Printf("Stored %d photons in %v\n", stored, time.Since(start))
	return nil
}

// tracePhotons emits count photon paths and returns the photons deposited on diffuse surfaces
func tracePhotons(s *scene.Scene, sampler core.Sampler, count int, photons []photonmap.Photon) []photonmap.Photon {
	n := len(s.GetLights())
	if n == 0 {
		return photons
	}

	for i := 0; i < count; i++ {
		emitter := s.GetRandomEmitter(sampler.Get1D())
		ray, power := emitter.SamplePhoton(sampler.Get2D(), sampler.Get2D())
		if power.IsZero() || !power.IsValid() {
			continue
		}
		photons = tracePhoton(s, sampler, ray, power.Multiply(float64(n)), photons)
	}
	return photons
}

// tracePhoton follows one photon path, depositing at every diffuse hit. Russian roulette
// acts on the path throughput relative to the emitted power.
func tracePhoton(s *scene.Scene, sampler core.Sampler, ray core.Ray, power core.Vec3, photons []photonmap.Photon) []photonmap.Photon {
	throughput := core.NewVec3(1, 1, 1)
	for {
		its, hit := s.RayIntersect(ray)
		if !hit {
			return photons
		}

		bsdf := its.BSDF()
		if bsdf.IsDiffuse() {
			photons = append(photons, photonmap.Photon{
				Position:  its.Point,
				Direction: ray.Direction.Negate(),
				Power:     power.MultiplyVec(throughput),
			})
		}

		survive, scale := core.RussianRoulette(throughput, sampler.Get1D(), core.RouletteCap)
		if !survive {
			return photons
		}
		throughput = throughput.Multiply(scale)

		bq := sampleQuery(&its, its.ToLocal(ray.Direction.Negate()))
		f := bsdf.Sample(&bq, sampler.Get2D())
		if f.IsZero() {
			return photons
		}
		throughput = throughput.MultiplyVec(f)
		ray = core.NewRay(its.Point, its.ToWorld(bq.Wo))
	}
}

// Li follows specular bounces to the first diffuse surface and returns the photon
// density estimate there plus any emission seen on the way
func (pm *PhotonMapperIntegrator) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	if pm.index == nil {
		panic(photonmap.ErrNotBuilt)
	}

	result := core.Vec3{}
	throughput := core.NewVec3(1, 1, 1)

	for {
		its, hit := s.RayIntersect(ray)
		if !hit {
			return result.Add(throughput.MultiplyVec(environmentRadiance(s, ray)))
		}
		result = result.Add(throughput.MultiplyVec(emittedRadiance(&its, ray)))

		wi := its.ToLocal(ray.Direction.Negate())
		bsdf := its.BSDF()
		if bsdf.IsDiffuse() {
			return result.Add(throughput.MultiplyVec(pm.Density(&its, wi, pm.radius)))
		}

		survive, scale := core.RussianRoulette(throughput, sampler.Get1D(), pathRouletteCap)
		if !survive {
			return result
		}
		throughput = throughput.Multiply(scale)

		bq := sampleQuery(&its, wi)
		f := bsdf.Sample(&bq, sampler.Get2D())
		if f.IsZero() {
			return result
		}
		throughput = throughput.MultiplyVec(f)
		ray = core.NewRay(its.Point, its.ToWorld(bq.Wo))
	}
}

// Density estimates the radiance reflected toward wi at a diffuse hit from the photons
// within radius: the sum of BSDF-weighted photon powers over pi r^2 and the number of
// emitted photon paths
func (pm *PhotonMapperIntegrator) Density(its *scene.Intersection, wi core.Vec3, radius float64) core.Vec3 {
	if radius <= 0 || pm.emitted == 0 {
		return core.Vec3{}
	}

	var buf [128]int
	found := pm.index.Search(its.Point, radius, buf[:0])
	if len(found) == 0 {
		return core.Vec3{}
	}

	bsdf := its.BSDF()
	sum := core.Vec3{}
	for _, i := range found {
		photon := pm.index.Photon(i)
		f := bsdf.Eval(evalQuery(its, wi, its.ToLocal(photon.Direction)))
		sum = sum.Add(f.MultiplyVec(photon.Power))
	}
	return sum.Multiply(1.0 / (math.Pi * radius * radius * float64(pm.emitted)))
}
