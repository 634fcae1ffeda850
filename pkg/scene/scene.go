package scene

import (
	"math"

	"github.com/rbova/photongi/pkg/core"
)

// tMin is the minimum hit parameter accepted by the intersector; secondary
// rays are additionally biased off their surface by the caller.
const tMin = 1e-9

// Scene is the built-in implementation of the core.Scene oracle: a list of
// analytic shapes, lights, and a camera. The query methods are safe for
// concurrent use; SetViewport and the setup methods (AddShape, AddLight,
// SetAmbient, SetBackground) are not.
type Scene struct {
	camera     *Camera
	shapes     []Shape
	lights     []*core.Light
	ambient    core.Vec3
	background core.Vec3

	// Cached bounds
	centroid core.Vec3
	radius   float64
}

// New creates an empty scene with the given camera.
func New(camera *Camera) *Scene {
	return &Scene{camera: camera, radius: 1.0}
}

// SetAmbient sets the scene-wide ambient color.
func (s *Scene) SetAmbient(ambient core.Vec3) { s.ambient = ambient }

// SetBackground sets the color returned for escaping rays.
func (s *Scene) SetBackground(background core.Vec3) { s.background = background }

// AddShape appends a shape and extends the cached scene bounds.
func (s *Scene) AddShape(shape Shape) {
	s.shapes = append(s.shapes, shape)
	s.recomputeBounds()
}

// AddLight appends a light.
func (s *Scene) AddLight(light *core.Light) {
	s.lights = append(s.lights, light)
}

func (s *Scene) recomputeBounds() {
	first := true
	var lo, hi core.Vec3
	for _, shape := range s.shapes {
		slo, shi, ok := shape.Bounds()
		if !ok {
			continue
		}
		if first {
			lo, hi = slo, shi
			first = false
			continue
		}
		lo = core.NewVec3(min(lo.X, slo.X), min(lo.Y, slo.Y), min(lo.Z, slo.Z))
		hi = core.NewVec3(max(hi.X, shi.X), max(hi.Y, shi.Y), max(hi.Z, shi.Z))
	}
	if first {
		s.centroid = core.Vec3{}
		s.radius = 1.0
		return
	}
	s.centroid = lo.Add(hi).Multiply(0.5)
	s.radius = hi.Subtract(lo).Length() / 2.0
	if s.radius <= 0 {
		s.radius = 1.0
	}
}

// Intersect returns the closest hit along the ray, if any.
func (s *Scene) Intersect(ray core.Ray) (core.Hit, bool) {
	closest := math.Inf(1)
	var hit core.Hit
	found := false

	for _, shape := range s.shapes {
		t, normal, ok := shape.Intersect(ray, tMin)
		if ok && t < closest {
			closest = t
			hit = core.Hit{
				Point:  ray.At(t),
				Normal: normal,
				T:      t,
				Brdf:   shape.Material(),
			}
			found = true
		}
	}

	return hit, found
}

// Ambient returns the scene-wide ambient color.
func (s *Scene) Ambient() core.Vec3 { return s.ambient }

// Background returns the color for rays that escape the scene.
func (s *Scene) Background() core.Vec3 { return s.background }

// Lights returns the scene's light list.
func (s *Scene) Lights() []*core.Light { return s.lights }

// Centroid returns the center of the scene bounding box.
func (s *Scene) Centroid() core.Vec3 { return s.centroid }

// Radius returns the diagonal radius of the scene bounding box.
func (s *Scene) Radius() float64 { return s.radius }

// Eye returns the camera origin.
func (s *Scene) Eye() core.Vec3 { return s.camera.Eye }

// SetViewport sets the pixel dimensions primary rays are generated for.
func (s *Scene) SetViewport(width, height int) { s.camera.SetViewport(width, height) }

// Ray returns the primary ray through pixel (i, j).
func (s *Scene) Ray(i, j int) core.Ray { return s.camera.Ray(i, j) }
