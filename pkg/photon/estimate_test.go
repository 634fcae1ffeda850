package photon

import (
	"math"
	"testing"

	"github.com/rbova/photongi/pkg/core"
)

// singlePhotonMap builds a map holding one photon of unit white power at the
// origin, arriving straight down.
func singlePhotonMap() *Map {
	m := &Map{Photons: []Photon{{
		Position:  core.Vec3{},
		RGBE:      PackRGBE(core.NewVec3(1, 1, 1)),
		Direction: PackDirection(core.NewVec3(0, 0, -1)),
	}}}
	m.Build()
	return m
}

func TestEstimateRadianceDiskFilter(t *testing.T) {
	m := singlePhotonMap()
	brdf := &core.Brdf{Diffuse: core.NewVec3(0.5, 0.5, 0.5), Shininess: 1}

	normal := core.NewVec3(0, 0, 1)
	exactBounce := core.NewVec3(0, 0, 1)
	const radius = 0.5

	got := m.EstimateRadiance(core.Vec3{}, normal, brdf, exactBounce, 1.0, 10, radius, core.FilterDisk)

	// One diffuse photon: power * |N·L| * kd / (pi r^2), with the search
	// radius as the estimate radius since the map is under-full
	want := 0.5 / (math.Pi * radius * radius)
	if math.Abs(got.X-want)/want > 0.01 {
		t.Errorf("disk estimate %v, want %f per channel", got, want)
	}
	if got.X != got.Y || got.Y != got.Z {
		t.Errorf("gray input should give gray estimate, got %v", got)
	}
}

func TestEstimateRadianceWrongSideDiscard(t *testing.T) {
	m := singlePhotonMap()
	brdf := &core.Brdf{Diffuse: core.NewVec3(0.5, 0.5, 0.5), Shininess: 1}
	normal := core.NewVec3(0, 0, 1)

	// Viewed from below the surface the photon is on the wrong side
	got := m.EstimateRadiance(core.Vec3{}, normal, brdf, core.NewVec3(0, 0, -1), -1.0, 10, 0.5, core.FilterDisk)
	if got != (core.Vec3{}) {
		t.Errorf("wrong-side photon contributed %v", got)
	}
}

func TestEstimateRadianceOutOfRange(t *testing.T) {
	m := singlePhotonMap()
	brdf := &core.Brdf{Diffuse: core.NewVec3(0.5, 0.5, 0.5), Shininess: 1}

	got := m.EstimateRadiance(core.NewVec3(10, 0, 0), core.NewVec3(0, 0, 1), brdf,
		core.NewVec3(0, 0, 1), 1.0, 10, 0.5, core.FilterDisk)
	if got != (core.Vec3{}) {
		t.Errorf("distant query should find nothing, got %v", got)
	}
}

func TestEstimateRadianceFilterNormalization(t *testing.T) {
	// A dense uniform cluster: cone and gauss filters should land near the
	// disk estimate, not off by orders of magnitude
	photons := make([]Photon, 0, 200)
	for i := 0; i < 200; i++ {
		angle := float64(i) * 2.0 * math.Pi / 200.0
		r := 0.1 * math.Sqrt(float64(i)/200.0)
		photons = append(photons, Photon{
			Position:  core.NewVec3(r*math.Cos(angle), r*math.Sin(angle), 0),
			RGBE:      PackRGBE(core.NewVec3(1, 1, 1)),
			Direction: PackDirection(core.NewVec3(0, 0, -1)),
		})
	}
	m := &Map{Photons: photons}
	m.Build()

	brdf := &core.Brdf{Diffuse: core.NewVec3(1, 1, 1), Shininess: 1}
	normal := core.NewVec3(0, 0, 1)
	bounce := core.NewVec3(0, 0, 1)

	disk := m.EstimateRadiance(core.Vec3{}, normal, brdf, bounce, 1.0, 100, 0.2, core.FilterDisk)
	cone := m.EstimateRadiance(core.Vec3{}, normal, brdf, bounce, 1.0, 100, 0.2, core.FilterCone)
	gauss := m.EstimateRadiance(core.Vec3{}, normal, brdf, bounce, 1.0, 100, 0.2, core.FilterGauss)

	if disk.X <= 0 {
		t.Fatalf("disk estimate empty")
	}
	for name, est := range map[string]core.Vec3{"cone": cone, "gauss": gauss} {
		ratio := est.X / disk.X
		if ratio < 0.3 || ratio > 3.0 {
			t.Errorf("%s filter estimate %f diverges from disk %f", name, est.X, disk.X)
		}
	}
}

func TestEstimateCachedRadiance(t *testing.T) {
	m := singlePhotonMap()
	brdf := &core.Brdf{Diffuse: core.NewVec3(0.5, 0.5, 0.5), Shininess: 1}
	normal := core.NewVec3(0, 0, 1)

	got := m.EstimateCachedRadiance(core.NewVec3(0.1, 0, 0), normal, brdf, core.NewVec3(0, 0, 1), 1.0, 0.5)

	// The nearest correct-side photon contributes power * |N·L| * kd
	want := 0.5
	if math.Abs(got.X-want)/want > 0.01 {
		t.Errorf("cached estimate %v, want %f per channel", got, want)
	}

	// No photon in range
	if got := m.EstimateCachedRadiance(core.NewVec3(10, 0, 0), normal, brdf, core.NewVec3(0, 0, 1), 1.0, 0.5); got != (core.Vec3{}) {
		t.Errorf("distant cached estimate should be empty, got %v", got)
	}
}
