package photon

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbova/photongi/pkg/core"
)

// Tracer emits photons from the scene's lights, scatters them through the
// scene, and builds the global and caustic photon maps.
type Tracer struct {
	scene core.Scene
	cfg   *core.Config
	log   core.Logger
}

// noopLogger discards tracer output when no logger is supplied.
type noopLogger struct{}

func (noopLogger) Printf(format string, args ...interface{}) {}

// NewTracer creates a photon tracer for the given scene and configuration.
func NewTracer(scene core.Scene, cfg *core.Config, log core.Logger) *Tracer {
	if log == nil {
		log = noopLogger{}
	}
	return &Tracer{scene: scene, cfg: cfg, log: log}
}

// tracerWorker is the state owned by a single emission goroutine: its PRNG
// and, per map phase, a local photon buffer.
type tracerWorker struct {
	id  int
	rng *rand.Rand
}

// BuildMaps runs the full photon-mapping preprocess: adaptive emission into
// the two maps, power normalization, and spatial-index construction. Maps
// that end up empty are returned nil, disabling the corresponding mode.
func (t *Tracer) BuildMaps() *Maps {
	maps := &Maps{}
	needGlobal := t.cfg.Indirect || t.cfg.PhotonViz || t.cfg.FastGlobal
	needCaustic := t.cfg.Caustic
	if !needGlobal && !needCaustic {
		return maps
	}

	lights := t.scene.Lights()
	if len(lights) == 0 {
		return maps
	}

	// Power distribution across lights; photons are apportioned by each
	// light's share of the total emitted power
	powers := make([]float64, len(lights))
	totalPower := 0.0
	for i, light := range lights {
		if !light.Active {
			continue
		}
		powers[i] = light.Power(t.scene.Radius())
		totalPower += powers[i]
	}
	if totalPower <= 0 {
		return maps
	}

	totalStart := time.Now()
	store := &Store{}
	var globalEmitted, causticEmitted int64

	// Static division of the photon targets across workers; the remainder
	// goes to worker zero
	threads := t.cfg.Threads
	if threads < 1 {
		threads = 1
	}
	globalTarget, causticTarget := 0, 0
	if needGlobal {
		globalTarget = t.cfg.GlobalPhotons
	}
	if needCaustic {
		causticTarget = t.cfg.CausticPhotons
	}
	globalPerThread := globalTarget / threads
	causticPerThread := causticTarget / threads

	var wg sync.WaitGroup
	for id := 0; id < threads; id++ {
		globalShare := globalPerThread
		causticShare := causticPerThread
		if id == 0 {
			globalShare = globalTarget - (threads-1)*globalPerThread
			causticShare = causticTarget - (threads-1)*causticPerThread
		}

		wg.Add(1)
		go func(id, globalShare, causticShare int) {
			defer wg.Done()
			w := &tracerWorker{
				id:  id,
				rng: rand.New(rand.NewSource(t.cfg.Seed + int64(id))),
			}
			if needGlobal {
				if t.cfg.Verbose && id == 0 {
					t.log.Printf("Building global photon map ...\n")
				}
				emitted := t.tracePhase(w, store, Global, globalShare, lights, powers, totalPower)
				atomic.AddInt64(&globalEmitted, int64(emitted))
			}
			if needCaustic {
				if t.cfg.Verbose && id == 0 {
					t.log.Printf("Building caustic photon map ...\n")
				}
				emitted := t.tracePhase(w, store, Caustic, causticShare, lights, powers, totalPower)
				atomic.AddInt64(&causticEmitted, int64(emitted))
			}
		}(id, globalShare, causticShare)
	}
	wg.Wait()
	photonDur := time.Since(totalStart)
	maps.GlobalEmitted = globalEmitted
	maps.CausticEmitted = causticEmitted

	// Normalize stored powers by the emission totals and build the trees
	if t.cfg.Verbose {
		t.log.Printf("Building kdtrees ...\n")
	}
	kdStart := time.Now()
	if globalPhotons := store.Take(Global); needGlobal && len(globalPhotons) > 0 {
		m := &Map{Photons: globalPhotons}
		m.Scale(totalPower / float64(globalEmitted))
		m.Build()
		maps.Global = m
	}
	if causticPhotons := store.Take(Caustic); needCaustic && len(causticPhotons) > 0 {
		m := &Map{Photons: causticPhotons}
		m.Scale(totalPower / float64(causticEmitted))
		m.Build()
		maps.Caustic = m
	}

	if t.cfg.Verbose {
		totalCount := 0
		t.log.Printf("Built photon map ...\n")
		t.log.Printf("  Total Time = %.2f seconds\n", time.Since(totalStart).Seconds())
		t.log.Printf("  Photon Tracing = %.2f seconds\n", photonDur.Seconds())
		t.log.Printf("  KdTree Construction = %.2f seconds\n", time.Since(kdStart).Seconds())
		if maps.Global != nil {
			t.log.Printf("  # Global Photons Stored = %d\n", len(maps.Global.Photons))
			totalCount += len(maps.Global.Photons)
		}
		if maps.Caustic != nil {
			t.log.Printf("  # Caustic Photons Stored = %d\n", len(maps.Caustic.Photons))
			totalCount += len(maps.Caustic.Photons)
		}
		t.log.Printf("Total Photons Stored: %d\n", totalCount)
	}

	return maps
}

// tracePhase runs the adaptive emission loop for one map until the worker's
// stored-photon target is met or the loop exhausts its attempts. Returns the
// number of photons emitted.
func (t *Tracer) tracePhase(w *tracerWorker, store *Store, mapType MapType,
	target int, lights []*core.Light, powers []float64, totalPower float64) int {

	if target <= 0 {
		return 0
	}

	buf := newBuffer(store, mapType)

	// Initialize with an overestimate (depends on scene)
	averageBounceRate := 4.0
	if mapType == Caustic {
		averageBounceRate = float64(t.cfg.MaxPhotonDepth)
	}
	slowdownFactor := 1.0
	attemptsLeft := 10
	emitted := 0

	for buf.stored < target && attemptsLeft > 0 {
		// Approach the goal based on how we've done thus far
		emitGoal := int(float64(target-buf.stored)/averageBounceRate/slowdownFactor) + 1

		storedBefore := buf.stored
		for i, light := range lights {
			if powers[i] <= 0 {
				continue
			}
			n := int(math.Ceil(float64(emitGoal) * powers[i] / totalPower))
			t.emitPhotons(w, buf, n, light, mapType)
			emitted += n
		}

		if buf.stored > storedBefore && emitted > 0 {
			averageBounceRate = float64(buf.stored) / float64(emitted)

			// Approach slower while fewer than 75% of emitted photons are
			// stored, to avoid shooting over
			if float64(buf.stored)/float64(emitted) < 0.75 {
				slowdownFactor = 2.0
			} else {
				slowdownFactor = 1.0
			}
			attemptsLeft = 10
		} else {
			// A round with no new photons: halve the estimate and count the
			// consecutive failure
			averageBounceRate /= 2.0
			attemptsLeft--
		}

		if t.cfg.Verbose && w.id == 0 {
			core.PrintProgress(min(1.0, float64(buf.stored)/float64(target)), core.ProgressBarWidth)
		}
	}

	buf.flush()
	if t.cfg.Verbose && w.id == 0 {
		core.PrintProgress(min(1.0, float64(buf.stored)/float64(target)), core.ProgressBarWidth)
		t.log.Printf("\n")
	}
	return emitted
}

// emitPhotons emits n photons from a light using its variant's emission
// geometry, tracing each through the scene.
func (t *Tracer) emitPhotons(w *tracerWorker, buf *buffer, n int, light *core.Light, mapType MapType) {
	if !light.Active || n == 0 {
		return
	}

	// Unit-power photon carrier; absolute power is reintroduced by the
	// normalization pass after tracing
	power := light.Color.NormalizeL1()

	switch light.Type {
	case core.LightDirectional:
		// Emit from a large disk outside the scene
		lightNorm := light.Direction
		radius := t.scene.Radius()
		center := t.scene.Centroid().Subtract(lightNorm.Multiply(radius * 3.0))
		u, v := core.PlaneAxes(lightNorm)
		u = u.Multiply(radius)
		v = v.Multiply(radius)

		for i := 0; i < n; i++ {
			r1, r2 := core.SampleUnitDisk(w.rng)
			point := u.Multiply(r1).Add(v.Multiply(r2)).Add(center).Add(lightNorm.Multiply(core.Epsilon))
			t.photonTrace(w, buf, core.NewRay(point, lightNorm), power, mapType)
		}

	case core.LightPoint:
		// Spherical point picking for the emission direction
		for i := 0; i < n; i++ {
			direction := core.SampleUnitSphere(w.rng)
			t.photonTrace(w, buf, core.NewRay(light.Position, direction), power, mapType)
		}

	case core.LightSpot:
		// Specular importance sampling about the spot axis
		lightNorm := light.Direction
		dropOff := light.DropOffRate
		cutoff := math.Abs(math.Cos(light.CutoffAngle))

		for i := 0; i < n; i++ {
			attemptsLeft := 20
			direction := core.SpecularImportanceSample(lightNorm, dropOff, 1.0, w.rng)
			for direction.Dot(lightNorm) < cutoff && attemptsLeft > 0 {
				direction = core.SpecularImportanceSample(lightNorm, dropOff, 1.0, w.rng)
				attemptsLeft--
			}

			// Cheat the dropoff
			if attemptsLeft == 0 {
				direction = core.SpecularImportanceSample(lightNorm, dropOff, cutoff, w.rng)
			}

			t.photonTrace(w, buf, core.NewRay(light.Position, direction), power, mapType)
		}

	case core.LightAreaDisk:
		// Uniform point on the disk, diffuse direction about the normal
		lightNorm := light.Direction
		u, v := core.PlaneAxes(lightNorm)
		u = u.Multiply(light.Radius)
		v = v.Multiply(light.Radius)

		for i := 0; i < n; i++ {
			r1, r2 := core.SampleUnitDisk(w.rng)
			point := u.Multiply(r1).Add(v.Multiply(r2)).Add(light.Position).Add(lightNorm.Multiply(core.Epsilon))
			direction := core.DiffuseImportanceSample(lightNorm, 1.0, w.rng)
			t.photonTrace(w, buf, core.NewRay(point, direction), power, mapType)
		}

	case core.LightAreaRect:
		// Uniform point on the parallelogram, diffuse direction about the normal
		lightNorm := light.Direction
		a1, a2 := light.ScaledAxes()

		for i := 0; i < n; i++ {
			r1 := w.rng.Float64() - 0.5
			r2 := w.rng.Float64() - 0.5
			point := a1.Multiply(r1).Add(a2.Multiply(r2)).Add(light.Position).Add(lightNorm.Multiply(core.Epsilon))
			direction := core.DiffuseImportanceSample(lightNorm, 1.0, w.rng)
			t.photonTrace(w, buf, core.NewRay(point, direction), power, mapType)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unrecognized light type: %d\n", light.Type)
	}

	buf.flush()
}

// photonTrace scatters one photon through the scene, depositing it at
// diffuse surfaces according to the map's deposit discipline and bouncing by
// Russian roulette until absorption or the depth cap.
func (t *Tracer) photonTrace(w *tracerWorker, buf *buffer, ray core.Ray, power core.Vec3, mapType MapType) {
	// Global maps store at every diffuse surface; caustic paths may only
	// store after a non-diffuse bounce
	store := mapType == Global && !t.cfg.FastGlobal

	rayStart := ray.Origin
	for iter := 0; iter < t.cfg.MaxPhotonDepth; iter++ {
		hit, ok := t.scene.Intersect(ray)
		if !ok {
			return
		}
		brdf := hit.Brdf
		if brdf == nil {
			brdf = &core.DefaultBrdf
		}

		view := hit.Point.Subtract(rayStart).Normalize()
		cosTheta := hit.Normal.Dot(view.Negate())

		if brdf.IsDiffuse() && store {
			buf.storePhoton(power, view, hit.Point)
		}

		// Fresnel reflection carries a portion of the transmission
		// probability over to specular
		rCoeff := 0.0
		if t.cfg.Fresnel && brdf.IsTransparent() {
			rCoeff = core.ReflectionCoeff(cosTheta, brdf.IndexOfRefraction, t.cfg.IRAir)
		}

		maxChannel := power.MaxChannel()
		if maxChannel <= 0 {
			return
		}
		probDiffuse := brdf.Diffuse.MultiplyVec(power).MaxChannel() / maxChannel
		probTransmission := brdf.Transmission.MultiplyVec(power).MaxChannel() / maxChannel
		probSpecular := brdf.Specular.MultiplyVec(power).MaxChannel()/maxChannel + rCoeff*probTransmission
		probTransmission *= 1.0 - rCoeff
		probTotal := probDiffuse + probTransmission + probSpecular + t.cfg.ProbAbsorb

		// Scale the draw up rather than normalizing the probabilities; the
		// implicit absorption tail must be preserved when the total is small
		u := w.rng.Float64()
		if probTotal > 1.0 {
			u *= probTotal
		}

		var sampled core.Vec3
		refracted := false
		switch {
		case u < probDiffuse:
			// Caustic paths terminate at the diffuse deposit
			if mapType == Caustic {
				return
			}

			// Fast global maps can store after the first diffuse bounce
			store = true

			sampled = core.DiffuseImportanceSample(hit.Normal, cosTheta, w.rng)
			power = power.MultiplyVec(brdf.Diffuse).Multiply(1.0 / probDiffuse)

		case u < probDiffuse+probTransmission:
			exact := core.TransmissiveBounce(hit.Normal, view, cosTheta, brdf.IndexOfRefraction, t.cfg.IRAir)
			// Caustics can now store after a non-diffuse bounce
			if mapType == Caustic {
				store = true
			}
			if t.cfg.DistribTransmissive {
				sampled = core.SpecularImportanceSample(exact, brdf.Shininess, cosTheta, w.rng)
			} else {
				sampled = exact
			}
			power = power.MultiplyVec(brdf.Transmission).Multiply(1.0 / probTransmission)
			refracted = true

		case u < probDiffuse+probTransmission+probSpecular:
			exact := core.ReflectiveBounce(hit.Normal, view, cosTheta)
			if mapType == Caustic {
				store = true
			}
			if t.cfg.DistribSpecular {
				sampled = core.SpecularImportanceSample(exact, brdf.Shininess, cosTheta, w.rng)
			} else {
				sampled = exact
			}
			power = power.MultiplyVec(brdf.Specular).Multiply(1.0 / probSpecular)

		default:
			// Photon absorbed; terminate trace
			return
		}

		rayStart = hit.Point.Add(sampled.Multiply(core.Epsilon))
		ray = core.Ray{Origin: rayStart, Direction: sampled, Refracted: refracted}
	}
}
