package scene

import (
	"math"
	"testing"

	"github.com/rbova/photongi/pkg/core"
)

var testBrdf = &core.Brdf{Diffuse: core.NewVec3(0.5, 0.5, 0.5), Shininess: 1, IndexOfRefraction: 1}

func TestSphereIntersect(t *testing.T) {
	sphere := &Sphere{Center: core.NewVec3(0, 0, 5), Radius: 1, Brdf: testBrdf}

	// Head-on hit at the near surface
	ray := core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1))
	tHit, normal, ok := sphere.Intersect(ray, 1e-9)
	if !ok {
		t.Fatal("head-on ray missed the sphere")
	}
	if math.Abs(tHit-4.0) > 1e-9 {
		t.Errorf("hit at t=%f, want 4", tHit)
	}
	if normal.Subtract(core.NewVec3(0, 0, -1)).Length() > 1e-9 {
		t.Errorf("normal %v, want (0,0,-1)", normal)
	}

	// Ray starting inside hits the far surface
	inside := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, 1))
	tHit, _, ok = sphere.Intersect(inside, 1e-9)
	if !ok || math.Abs(tHit-1.0) > 1e-9 {
		t.Errorf("inside ray: t=%f ok=%v, want t=1", tHit, ok)
	}

	// Miss
	if _, _, ok := sphere.Intersect(core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0)), 1e-9); ok {
		t.Error("perpendicular ray should miss")
	}
}

func TestPlaneIntersect(t *testing.T) {
	plane := &Plane{Point: core.NewVec3(0, 0, -1), Normal: core.NewVec3(0, 0, 1), Brdf: testBrdf}

	tHit, normal, ok := plane.Intersect(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), 1e-9)
	if !ok || math.Abs(tHit-1.0) > 1e-9 {
		t.Fatalf("plane hit t=%f ok=%v, want t=1", tHit, ok)
	}
	if normal != core.NewVec3(0, 0, 1) {
		t.Errorf("plane normal %v", normal)
	}

	// Parallel ray misses
	if _, _, ok := plane.Intersect(core.NewRay(core.Vec3{}, core.NewVec3(1, 0, 0)), 1e-9); ok {
		t.Error("parallel ray should miss the plane")
	}
}

func TestQuadIntersect(t *testing.T) {
	quad := NewQuad(core.NewVec3(-1, -1, 2), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0), testBrdf)

	// Through the center
	tHit, _, ok := quad.Intersect(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)), 1e-9)
	if !ok || math.Abs(tHit-2.0) > 1e-9 {
		t.Fatalf("quad hit t=%f ok=%v, want t=2", tHit, ok)
	}

	// Within the plane but outside the parallelogram
	miss := core.NewRay(core.NewVec3(5, 5, 0), core.NewVec3(0, 0, 1))
	if _, _, ok := quad.Intersect(miss, 1e-9); ok {
		t.Error("ray outside quad bounds should miss")
	}
}

func TestBoxWallsEnclose(t *testing.T) {
	walls := BoxWalls(core.Vec3{}, core.NewVec3(1, 1, 1), testBrdf)
	if len(walls) != 6 {
		t.Fatalf("box has %d walls", len(walls))
	}

	// Every ray from the center must hit a wall, with the normal facing
	// back inward
	center := core.NewVec3(0.5, 0.5, 0.5)
	directions := []core.Vec3{
		{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
		core.NewVec3(1, 1, 1).Normalize(),
		core.NewVec3(-1, 0.5, -0.25).Normalize(),
	}
	for _, dir := range directions {
		closest := math.Inf(1)
		var hitNormal core.Vec3
		for _, wall := range walls {
			if tHit, normal, ok := wall.Intersect(core.NewRay(center, dir), 1e-9); ok && tHit < closest {
				closest = tHit
				hitNormal = normal
			}
		}
		if math.IsInf(closest, 1) {
			t.Fatalf("ray %v escaped the closed box", dir)
		}
		if hitNormal.Dot(dir) >= 0 {
			t.Errorf("wall normal %v faces away from interior ray %v", hitNormal, dir)
		}
	}
}

func TestSceneClosestHit(t *testing.T) {
	camera := NewCamera(core.Vec3{}, core.NewVec3(0, 0, 1), core.NewVec3(0, 1, 0), math.Pi/3)
	s := New(camera)

	near := &Sphere{Center: core.NewVec3(0, 0, 3), Radius: 1, Brdf: testBrdf}
	far := &Sphere{Center: core.NewVec3(0, 0, 10), Radius: 1, Brdf: &core.Brdf{Shininess: 1, IndexOfRefraction: 1}}
	s.AddShape(far)
	s.AddShape(near)

	hit, ok := s.Intersect(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)))
	if !ok {
		t.Fatal("ray missed both spheres")
	}
	if hit.Brdf != testBrdf {
		t.Error("intersector did not return the closest shape")
	}
	if math.Abs(hit.T-2.0) > 1e-9 {
		t.Errorf("closest hit at t=%f, want 2", hit.T)
	}
}

func TestSceneBounds(t *testing.T) {
	camera := NewCamera(core.Vec3{}, core.NewVec3(0, 0, 1), core.NewVec3(0, 1, 0), math.Pi/3)
	s := New(camera)
	s.AddShape(&Sphere{Center: core.NewVec3(2, 0, 0), Radius: 1, Brdf: testBrdf})
	s.AddShape(&Sphere{Center: core.NewVec3(-2, 0, 0), Radius: 1, Brdf: testBrdf})

	if got := s.Centroid(); got.Length() > 1e-9 {
		t.Errorf("centroid %v, want origin", got)
	}
	// Bounding box spans x in [-3,3], y and z in [-1,1]
	want := core.NewVec3(3, 1, 1).Length()
	if math.Abs(s.Radius()-want) > 1e-9 {
		t.Errorf("radius %f, want %f", s.Radius(), want)
	}

	// Unbounded shapes leave the cached bounds alone
	s.AddShape(&Plane{Point: core.Vec3{}, Normal: core.NewVec3(0, 0, 1), Brdf: testBrdf})
	if math.Abs(s.Radius()-want) > 1e-9 {
		t.Errorf("plane changed scene radius to %f", s.Radius())
	}
}
