package renderer

import (
	"image"
	"image/color"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbova/photongi/pkg/core"
	"github.com/rbova/photongi/pkg/photon"
)

// renderSeedOffset separates the render workers' PRNG streams from the
// photon-tracing workers'.
const renderSeedOffset = 1 << 16

// Renderer drives the pixel-parallel render of a scene against its
// precomputed photon maps.
type Renderer struct {
	scene core.Scene
	cfg   *core.Config
	maps  *photon.Maps
	log   core.Logger

	// Modes requested by configuration but left without photons are
	// disabled for the remainder of the render
	indirectOn  bool
	causticOn   bool
	photonVizOn bool

	stats Stats
}

// noopLogger discards renderer output when no logger is supplied.
type noopLogger struct{}

func (noopLogger) Printf(format string, args ...interface{}) {}

// New creates a renderer. maps may hold nil entries; the corresponding
// illumination modes are disabled.
func New(scene core.Scene, cfg *core.Config, maps *photon.Maps, log core.Logger) *Renderer {
	if maps == nil {
		maps = &photon.Maps{}
	}
	if log == nil {
		log = noopLogger{}
	}
	return &Renderer{
		scene:       scene,
		cfg:         cfg,
		maps:        maps,
		log:         log,
		indirectOn:  cfg.Indirect && maps.Global != nil,
		causticOn:   cfg.Caustic && maps.Caustic != nil,
		photonVizOn: (cfg.PhotonViz || cfg.FastGlobal) && maps.Global != nil,
	}
}

// RenderImage renders the configured frame: a supersampled buffer is filled
// by stride-assigned worker goroutines and box-downsampled into the output.
func (r *Renderer) RenderImage() *image.RGBA {
	startTime := time.Now()

	// Anti-aliasing: 4^aa primary rays per pixel on a scaled grid
	aaFactor := 1 << r.cfg.AA
	boxWeight := 1.0 / float64(aaFactor) / float64(aaFactor)
	scaledWidth := r.cfg.Width * aaFactor
	scaledHeight := r.cfg.Height * aaFactor

	r.scene.SetViewport(scaledWidth, scaledHeight)
	eye := r.scene.Eye()

	if r.cfg.Verbose {
		r.log.Printf("Rendering image ...\n")
	}

	buffer := make([]core.Vec3, scaledWidth*scaledHeight)
	threads := r.cfg.Threads
	if threads < 1 {
		threads = 1
	}

	var columnsDone int64
	var wg sync.WaitGroup
	for id := 0; id < threads; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w := &worker{
				id:  id,
				rng: rand.New(rand.NewSource(r.cfg.Seed + renderSeedOffset + int64(id))),
			}

			lastValue := -1
			for i := 0; i < scaledWidth; i++ {
				if w.id == 0 && i%2 == 0 {
					progress := float64(atomic.LoadInt64(&columnsDone)) / float64(scaledWidth)
					if nextValue := int(progress * 100.0); nextValue != lastValue {
						core.PrintProgress(progress, core.ProgressBarWidth)
						lastValue = nextValue
					}
				}
				// Each worker handles every threads-th column
				if i%threads != w.id {
					continue
				}

				for j := 0; j < scaledHeight; j++ {
					ray := r.scene.Ray(i, j)
					if hit, ok := r.scene.Intersect(ray); ok {
						buffer[i*scaledHeight+j] = r.shade(hit, eye, w)
						w.counters.primary++
					} else {
						buffer[i*scaledHeight+j] = r.scene.Background()
					}
				}

				atomic.AddInt64(&columnsDone, 1)
			}

			// Fold counts into the shared totals once; atomic operations are
			// slow in the pixel loop
			r.flushCounters(w)
		}(id)
	}
	wg.Wait()

	core.PrintProgress(1.0, core.ProgressBarWidth)
	r.log.Printf("\n")

	// Box-filter downsample of the supersampled buffer
	img := image.NewRGBA(image.Rect(0, 0, r.cfg.Width, r.cfg.Height))
	downSample := make([]core.Vec3, r.cfg.Width*r.cfg.Height)
	for j := 0; j < scaledHeight; j++ {
		for i := 0; i < scaledWidth; i++ {
			u := i / aaFactor
			v := j / aaFactor
			c := buffer[i*scaledHeight+j].Clamp(0.0, 1.0)
			downSample[u*r.cfg.Height+v] = downSample[u*r.cfg.Height+v].Add(c)
		}
	}
	for j := 0; j < r.cfg.Height; j++ {
		for i := 0; i < r.cfg.Width; i++ {
			c := downSample[i*r.cfg.Height+j].Multiply(boxWeight)
			img.SetRGBA(i, j, color.RGBA{
				R: uint8(255.0*c.X + 0.5),
				G: uint8(255.0*c.Y + 0.5),
				B: uint8(255.0*c.Z + 0.5),
				A: 255,
			})
		}
	}

	if r.cfg.Verbose {
		stats := r.Stats()
		total := stats.PrimaryRays
		r.log.Printf("Rendered image ...\n")
		r.log.Printf("  Time = %.2f seconds\n", time.Since(startTime).Seconds())
		r.log.Printf("  # Screen Rays = %d\n", stats.PrimaryRays)
		if r.cfg.Shadows {
			r.log.Printf("  # Shadow Rays = %d\n", stats.ShadowRays)
			total += stats.ShadowRays
		}
		if r.cfg.MonteCarlo {
			r.log.Printf("  # Monte Carlo Rays = %d\n", stats.MonteCarloRays)
			total += stats.MonteCarloRays
		}
		if r.cfg.Transmissive {
			r.log.Printf("  # Transmissive Samples = %d\n", stats.TransmissiveRays)
			total += stats.TransmissiveRays
		}
		if r.cfg.Specular {
			r.log.Printf("  # Specular Samples = %d\n", stats.SpecularRays)
			total += stats.SpecularRays
		}
		if r.indirectOn || r.photonVizOn {
			r.log.Printf("  # Indirect Samples = %d\n", stats.IndirectRays)
			total += stats.IndirectRays
		}
		if r.causticOn {
			r.log.Printf("  # Caustic Samples = %d\n", stats.CausticRays)
			total += stats.CausticRays
		}
		r.log.Printf("Total Rays: %d\n", total)
	}

	return img
}
