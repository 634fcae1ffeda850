package renderer

import (
	"image"
	"math"
	"testing"

	"github.com/rbova/photongi/pkg/core"
	"github.com/rbova/photongi/pkg/scene"
)

// emptyScene has no geometry: every primary ray escapes to the background.
func emptyScene(background core.Vec3) *scene.Scene {
	camera := scene.NewCamera(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 1), math.Pi/3)
	s := scene.New(camera)
	s.SetBackground(background)
	return s
}

func quickConfig() *core.Config {
	cfg := core.DefaultConfig()
	cfg.Threads = 2
	cfg.Seed = 42
	cfg.Width = 8
	cfg.Height = 8
	cfg.AA = 0
	cfg.Indirect = false
	cfg.Caustic = false
	cfg.LightTest = 4
	cfg.ShadowTest = 0
	cfg.TransmissiveTest = 2
	cfg.SpecularTest = 2
	cfg.IndirectTest = 2
	cfg.MaxMonteDepth = 16
	return cfg
}

func TestSupersamplingConstantScene(t *testing.T) {
	background := core.NewVec3(0.5, 0.25, 0.75)
	wantR := uint8(255.0*background.X + 0.5)
	wantG := uint8(255.0*background.Y + 0.5)
	wantB := uint8(255.0*background.Z + 0.5)

	for _, aa := range []int{0, 1, 2} {
		cfg := quickConfig()
		cfg.AA = aa

		img := New(emptyScene(background), cfg, nil, nil).RenderImage()
		bounds := img.Bounds()
		if bounds != image.Rect(0, 0, cfg.Width, cfg.Height) {
			t.Fatalf("aa=%d: image bounds %v", aa, bounds)
		}

		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := img.RGBAAt(x, y)
				if c.R != wantR || c.G != wantG || c.B != wantB {
					t.Fatalf("aa=%d: pixel (%d,%d) = %v, want (%d,%d,%d)", aa, x, y, c, wantR, wantG, wantB)
				}
			}
		}
	}
}

func TestRenderCountsPrimaryRays(t *testing.T) {
	cfg := quickConfig()
	cfg.MonteCarlo = false

	s := emptyScene(core.Vec3{})
	floor := &core.Brdf{Diffuse: core.NewVec3(0.8, 0.8, 0.8), Shininess: 1, IndexOfRefraction: 1}
	s.AddShape(&scene.Plane{Point: core.NewVec3(0, 5, 0), Normal: core.NewVec3(0, -1, 0), Brdf: floor})

	r := New(s, cfg, nil, nil)
	r.RenderImage()

	stats := r.Stats()
	if stats.PrimaryRays == 0 {
		t.Error("no primary rays counted")
	}
	if stats.PrimaryRays > uint64(cfg.Width*cfg.Height) {
		t.Errorf("counted %d primary rays for %d pixels", stats.PrimaryRays, cfg.Width*cfg.Height)
	}
}

// shadowScene is a floor under a rect light, with an optional occluder
// between them.
func shadowScene(occluded bool) *scene.Scene {
	camera := scene.NewCamera(core.NewVec3(0, -2, 2), core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1), math.Pi/3)
	s := scene.New(camera)

	matte := &core.Brdf{Diffuse: core.NewVec3(0.8, 0.8, 0.8), Shininess: 1, IndexOfRefraction: 1}
	s.AddShape(scene.NewQuad(core.NewVec3(-5, -5, 0), core.NewVec3(10, 0, 0), core.NewVec3(0, 10, 0), matte))
	if occluded {
		s.AddShape(scene.NewQuad(core.NewVec3(-5, -5, 1), core.NewVec3(10, 0, 0), core.NewVec3(0, 10, 0), matte))
	}

	s.AddLight(&core.Light{
		Type:                core.LightAreaRect,
		Color:               core.NewVec3(1, 1, 1),
		Intensity:           1,
		Active:              true,
		ConstantAttenuation: 1,
		Direction:           core.NewVec3(0, 0, -1),
		Position:            core.NewVec3(0, 0, 2),
		PrimaryAxis:         core.NewVec3(1, 0, 0),
		SecondaryAxis:       core.NewVec3(0, 1, 0),
		PrimaryLength:       0.5,
		SecondaryLength:     0.5,
	})
	return s
}

func TestSoftShadowVisibilityFraction(t *testing.T) {
	cfg := quickConfig()
	cfg.LightTest = 64
	cfg.ShadowTest = 64

	point := core.NewVec3(0, 0, 0)
	normal := core.NewVec3(0, 0, 1)
	eye := core.NewVec3(0, -2, 2)
	matte := &core.Brdf{Diffuse: core.NewVec3(0.8, 0.8, 0.8), Shininess: 1, IndexOfRefraction: 1}

	// Unoccluded: full visibility, positive reflectance
	r := New(shadowScene(false), cfg, nil, nil)
	w := newTestWorker()
	lit := core.Vec3{}
	r.computeIllumination(&lit, r.scene.Lights()[0], matte, eye, point, normal, false, w)
	if lit.X <= 0 {
		t.Fatalf("unoccluded point got no light: %v", lit)
	}

	// A plane between light and floor blocks every shadow ray
	r = New(shadowScene(true), cfg, nil, nil)
	dark := core.Vec3{}
	r.computeIllumination(&dark, r.scene.Lights()[0], matte, eye, point, normal, false, w)
	if dark.X > lit.X*1e-6 {
		t.Errorf("occluded point still lit: %v vs %v", dark, lit)
	}
	if w.counters.shadow == 0 {
		t.Error("no shadow rays counted")
	}
}

func TestShadowRayTest(t *testing.T) {
	cfg := quickConfig()

	r := New(shadowScene(false), cfg, nil, nil)
	w := newTestWorker()
	if !r.rayIlluminationTest(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 2), w) {
		t.Error("unoccluded shadow ray reported blocked")
	}

	r = New(shadowScene(true), cfg, nil, nil)
	if r.rayIlluminationTest(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 2), w) {
		t.Error("occluded shadow ray reported visible")
	}
}

func TestEmissiveSurfaceDetection(t *testing.T) {
	light := &core.Light{
		Type:            core.LightAreaRect,
		Active:          true,
		Direction:       core.NewVec3(0, 0, -1),
		Position:        core.NewVec3(0, 0, 2),
		PrimaryAxis:     core.NewVec3(1, 0, 0),
		SecondaryAxis:   core.NewVec3(0, 1, 0),
		PrimaryLength:   1,
		SecondaryLength: 1,
	}

	// Seen from below (the emissive side given the downward normal)
	onLight := core.NewVec3(0.2, 0.1, 2)
	if got := testLightIntersection(onLight, core.NewVec3(0, 0, 0), light); got != 1 {
		t.Errorf("emissive side returned %d, want 1", got)
	}
	// Seen from above, the back face
	if got := testLightIntersection(onLight, core.NewVec3(0, 0, 5), light); got != -1 {
		t.Errorf("back side returned %d, want -1", got)
	}
	// A point off the light plane
	if got := testLightIntersection(core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 0), light); got != 0 {
		t.Errorf("detached point returned %d, want 0", got)
	}
	// On the plane but outside the rectangle
	if got := testLightIntersection(core.NewVec3(3, 0, 2), core.NewVec3(0, 0, 0), light); got != 0 {
		t.Errorf("point outside rect returned %d, want 0", got)
	}
}
