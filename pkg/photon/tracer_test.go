package photon

import (
	"math"
	"testing"

	"github.com/rbova/photongi/pkg/core"
	"github.com/rbova/photongi/pkg/scene"
)

// grayBox builds a closed unit cube with matte gray walls and a rect light
// in the ceiling.
func grayBox() *scene.Scene {
	camera := scene.NewCamera(core.NewVec3(0.5, 0.1, 0.5), core.NewVec3(0.5, 1, 0.5), core.NewVec3(0, 0, 1), math.Pi/3)
	s := scene.New(camera)

	gray := &core.Brdf{
		Diffuse:           core.NewVec3(0.8, 0.8, 0.8),
		Shininess:         1,
		IndexOfRefraction: 1,
	}
	for _, wall := range scene.BoxWalls(core.Vec3{}, core.NewVec3(1, 1, 1), gray) {
		s.AddShape(wall)
	}

	s.AddLight(&core.Light{
		Type:                core.LightAreaRect,
		Color:               core.NewVec3(1, 1, 1),
		Intensity:           1,
		Active:              true,
		ConstantAttenuation: 1,
		Direction:           core.NewVec3(0, 0, -1),
		Position:            core.NewVec3(0.5, 0.5, 0.98),
		PrimaryAxis:         core.NewVec3(1, 0, 0),
		SecondaryAxis:       core.NewVec3(0, 1, 0),
		PrimaryLength:       0.4,
		SecondaryLength:     0.4,
	})
	return s
}

// glassSphereBox adds a glass sphere under an overhead point light, the
// classic caustic scenario.
func glassSphereBox() *scene.Scene {
	s := grayBox()

	glass := &core.Brdf{
		Transmission:      core.NewVec3(1, 1, 1),
		Shininess:         1e6,
		IndexOfRefraction: 1.5,
	}
	s.AddShape(&scene.Sphere{Center: core.NewVec3(0.5, 0.5, 0.45), Radius: 0.2, Brdf: glass})

	s.AddLight(&core.Light{
		Type:                core.LightPoint,
		Color:               core.NewVec3(1, 1, 1),
		Intensity:           1,
		Active:              true,
		ConstantAttenuation: 1,
		Position:            core.NewVec3(0.5, 0.5, 0.9),
	})
	return s
}

func testConfig() *core.Config {
	cfg := core.DefaultConfig()
	cfg.Threads = 1
	cfg.Seed = 42
	cfg.GlobalPhotons = 2000
	cfg.CausticPhotons = 2000
	cfg.MaxPhotonDepth = 32
	return cfg
}

func TestBuildMapsReachesGlobalTarget(t *testing.T) {
	cfg := testConfig()
	cfg.Caustic = false

	maps := NewTracer(grayBox(), cfg, nil).BuildMaps()
	if maps.Global == nil {
		t.Fatal("global map missing")
	}
	stored := len(maps.Global.Photons)
	if stored < cfg.GlobalPhotons {
		t.Errorf("stored %d global photons, want at least %d", stored, cfg.GlobalPhotons)
	}
	// The adaptive loop should not wildly overshoot
	if stored > cfg.GlobalPhotons*4 {
		t.Errorf("stored %d global photons, far past the %d target", stored, cfg.GlobalPhotons)
	}
	if maps.GlobalEmitted == 0 {
		t.Error("emitted count not recorded")
	}
}

func TestPhotonPowerNormalization(t *testing.T) {
	cfg := testConfig()
	cfg.Caustic = false

	s := grayBox()
	maps := NewTracer(s, cfg, nil).BuildMaps()
	if maps.Global == nil {
		t.Fatal("global map missing")
	}

	// In a uniform gray box the roulette reweighting is exactly one, so
	// after normalization every photon carries totalPower/emitted and the
	// stored sum accounts for the light's power times the deposit rate
	totalPower := s.Lights()[0].Power(s.Radius())
	sum := 0.0
	for i := range maps.Global.Photons {
		p := maps.Global.Photons[i].Power()
		sum += p.X + p.Y + p.Z
	}

	want := float64(len(maps.Global.Photons)) / float64(maps.GlobalEmitted) * totalPower
	if relErr := math.Abs(sum-want) / want; relErr > 0.02 {
		t.Errorf("stored power sum %f, want %f (rel err %f)", sum, want, relErr)
	}
}

func TestBuildMapsThreadInvariance(t *testing.T) {
	lengths := map[int]int{}
	for _, threads := range []int{1, 2, 8} {
		cfg := testConfig()
		cfg.Caustic = false
		cfg.Threads = threads

		maps := NewTracer(grayBox(), cfg, nil).BuildMaps()
		if maps.Global == nil {
			t.Fatalf("threads=%d: global map missing", threads)
		}
		lengths[threads] = len(maps.Global.Photons)
		if lengths[threads] < cfg.GlobalPhotons {
			t.Errorf("threads=%d: stored %d photons, want at least %d", threads, lengths[threads], cfg.GlobalPhotons)
		}
	}

	// Array lengths agree up to the rounding of the adaptive loop
	for _, a := range []int{1, 2, 8} {
		for _, b := range []int{1, 2, 8} {
			ratio := float64(lengths[a]) / float64(lengths[b])
			if ratio < 0.5 || ratio > 2.0 {
				t.Errorf("photon counts diverge across thread counts: %v", lengths)
			}
		}
	}
}

func TestCausticMapNeedsSpecularPaths(t *testing.T) {
	cfg := testConfig()
	cfg.Indirect = false
	cfg.CausticPhotons = 500

	// An all-diffuse box can produce no caustic photons; the mode must be
	// disabled rather than looping forever
	maps := NewTracer(grayBox(), cfg, nil).BuildMaps()
	if maps.Caustic != nil {
		t.Errorf("caustic map should be nil for an all-diffuse scene, got %d photons", len(maps.Caustic.Photons))
	}
}

func TestCausticMapConcentratesUnderGlassSphere(t *testing.T) {
	cfg := testConfig()
	cfg.Indirect = false

	maps := NewTracer(glassSphereBox(), cfg, nil).BuildMaps()
	if maps.Caustic == nil {
		t.Fatal("caustic map missing for glass sphere scene")
	}
	if len(maps.Caustic.Photons) < 100 {
		t.Fatalf("only %d caustic photons stored", len(maps.Caustic.Photons))
	}

	// The refracted cone lands under the sphere: the photon centroid stays
	// near the floor beneath it
	mean := core.Vec3{}
	for i := range maps.Caustic.Photons {
		mean = mean.Add(maps.Caustic.Photons[i].Position)
	}
	mean = mean.Multiply(1.0 / float64(len(maps.Caustic.Photons)))

	if mean.Z > 0.5 {
		t.Errorf("caustic centroid %v too high, expected photons near the floor", mean)
	}
	horizontal := math.Hypot(mean.X-0.5, mean.Y-0.5)
	if horizontal > 0.35 {
		t.Errorf("caustic centroid %v drifted from beneath the sphere", mean)
	}
}
