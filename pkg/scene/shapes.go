// Package scene provides the built-in scene oracle: analytic shapes, a
// pinhole camera, and a JSON scene description loader. The light-transport
// engine only depends on the core.Scene interface, so richer scene backends
// can replace this package wholesale.
package scene

import (
	"math"

	"github.com/rbova/photongi/pkg/core"
)

// Shape is analytic geometry that can intersect a ray and report its bounds.
type Shape interface {
	// Intersect returns the nearest hit parameter t > tMin along the ray,
	// the surface normal there, and whether a hit exists. Spheres report the
	// outward normal; planes and quads report their fixed orientation normal
	// whichever side the ray arrives from.
	Intersect(ray core.Ray, tMin float64) (float64, core.Vec3, bool)

	// Bounds returns the axis-aligned bounding box of the shape. Unbounded
	// shapes return ok false and are excluded from the scene bounds.
	Bounds() (lo, hi core.Vec3, ok bool)

	// Material returns the shape's reflectance model.
	Material() *core.Brdf
}

// Sphere is a world-space sphere.
type Sphere struct {
	Center core.Vec3
	Radius float64
	Brdf   *core.Brdf
}

// Intersect solves the quadratic for the nearest forward hit.
func (s *Sphere) Intersect(ray core.Ray, tMin float64) (float64, core.Vec3, bool) {
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, core.Vec3{}, false
	}

	sqrtD := math.Sqrt(discriminant)
	t := (-halfB - sqrtD) / a
	if t <= tMin {
		t = (-halfB + sqrtD) / a
		if t <= tMin {
			return 0, core.Vec3{}, false
		}
	}

	normal := ray.At(t).Subtract(s.Center).Multiply(1.0 / s.Radius)
	return t, normal, true
}

func (s *Sphere) Bounds() (core.Vec3, core.Vec3, bool) {
	r := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return s.Center.Subtract(r), s.Center.Add(r), true
}

func (s *Sphere) Material() *core.Brdf { return s.Brdf }

// Plane is an infinite plane through a point.
type Plane struct {
	Point  core.Vec3
	Normal core.Vec3 // unit
	Brdf   *core.Brdf
}

func (p *Plane) Intersect(ray core.Ray, tMin float64) (float64, core.Vec3, bool) {
	denom := p.Normal.Dot(ray.Direction)
	if math.Abs(denom) < core.Epsilon {
		return 0, core.Vec3{}, false
	}
	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denom
	if t <= tMin {
		return 0, core.Vec3{}, false
	}
	return t, p.Normal, true
}

func (p *Plane) Bounds() (core.Vec3, core.Vec3, bool) {
	return core.Vec3{}, core.Vec3{}, false
}

func (p *Plane) Material() *core.Brdf { return p.Brdf }

// Quad is a parallelogram spanned by two edge vectors from a corner.
type Quad struct {
	Corner core.Vec3
	U, V   core.Vec3
	Brdf   *core.Brdf

	normal core.Vec3
}

// NewQuad precomputes the quad's unit normal.
func NewQuad(corner, u, v core.Vec3, brdf *core.Brdf) *Quad {
	return &Quad{
		Corner: corner,
		U:      u,
		V:      v,
		Brdf:   brdf,
		normal: u.Cross(v).Normalize(),
	}
}

func (q *Quad) Intersect(ray core.Ray, tMin float64) (float64, core.Vec3, bool) {
	denom := q.normal.Dot(ray.Direction)
	if math.Abs(denom) < core.Epsilon {
		return 0, core.Vec3{}, false
	}
	t := q.Corner.Subtract(ray.Origin).Dot(q.normal) / denom
	if t <= tMin {
		return 0, core.Vec3{}, false
	}

	// Solve hit = corner + alpha*U + beta*V within the unit square
	toHit := ray.At(t).Subtract(q.Corner)
	uu := q.U.Dot(q.U)
	vv := q.V.Dot(q.V)
	uv := q.U.Dot(q.V)
	det := uu*vv - uv*uv
	if math.Abs(det) < core.Epsilon {
		return 0, core.Vec3{}, false
	}
	tu := toHit.Dot(q.U)
	tv := toHit.Dot(q.V)
	alpha := (vv*tu - uv*tv) / det
	beta := (uu*tv - uv*tu) / det
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return 0, core.Vec3{}, false
	}

	return t, q.normal, true
}

func (q *Quad) Bounds() (core.Vec3, core.Vec3, bool) {
	corners := []core.Vec3{
		q.Corner,
		q.Corner.Add(q.U),
		q.Corner.Add(q.V),
		q.Corner.Add(q.U).Add(q.V),
	}
	lo, hi := corners[0], corners[0]
	for _, c := range corners[1:] {
		lo = core.NewVec3(min(lo.X, c.X), min(lo.Y, c.Y), min(lo.Z, c.Z))
		hi = core.NewVec3(max(hi.X, c.X), max(hi.Y, c.Y), max(hi.Z, c.Z))
	}
	return lo, hi, true
}

func (q *Quad) Material() *core.Brdf { return q.Brdf }

// BoxWalls returns the six inward-facing quads of an axis-aligned box. Used
// for enclosed room scenes.
func BoxWalls(lo, hi core.Vec3, brdf *core.Brdf) []*Quad {
	dx := core.NewVec3(hi.X-lo.X, 0, 0)
	dy := core.NewVec3(0, hi.Y-lo.Y, 0)
	dz := core.NewVec3(0, 0, hi.Z-lo.Z)

	return []*Quad{
		NewQuad(lo, dx, dy, brdf),                             // floor, normal +z
		NewQuad(core.NewVec3(lo.X, lo.Y, hi.Z), dy, dx, brdf), // ceiling, normal -z
		NewQuad(lo, dy, dz, brdf),                             // left wall, normal +x
		NewQuad(core.NewVec3(hi.X, lo.Y, lo.Z), dz, dy, brdf), // right wall, normal -x
		NewQuad(core.NewVec3(lo.X, hi.Y, lo.Z), dx, dz, brdf), // back wall, normal -y
		NewQuad(lo, dz, dx, brdf),                             // front wall, normal +y
	}
}
