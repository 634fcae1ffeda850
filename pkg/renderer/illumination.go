package renderer

import (
	"fmt"
	"math"
	"os"

	"github.com/rbova/photongi/pkg/core"
)

// rayIlluminationTest casts a shadow ray from a point on a light to a point
// in the scene and reports whether nothing intervenes.
func (r *Renderer) rayIlluminationTest(pointInScene, pointOnLight core.Vec3, w *worker) bool {
	toScene := pointInScene.Subtract(pointOnLight)
	unoccludedLen := toScene.Length()
	if unoccludedLen == 0 {
		return true
	}

	ray := core.NewRay(pointOnLight, toScene.Multiply(1.0/unoccludedLen))
	w.counters.shadow++

	hit, ok := r.scene.Intersect(ray)
	if !ok {
		return false
	}
	return math.Abs(hit.T-unoccludedLen) < shadowEpsilon
}

// shadowEpsilon is the distance tolerance for deciding a shadow ray reached
// its target surface rather than an occluder.
const shadowEpsilon = 1e-4

// testLightIntersection reports whether a point lies on an area or rect
// light's surface: 1 on the emissive side, -1 on the back side, 0 otherwise.
func testLightIntersection(point, eye core.Vec3, light *core.Light) int {
	switch light.Type {
	case core.LightAreaDisk:
		v := point.Subtract(light.Position)
		vLen := v.Length()
		v = v.Normalize()

		norm := light.Direction
		if math.Abs(v.Dot(norm)) < core.Epsilon && vLen <= light.Radius {
			if norm.Dot(eye.Subtract(point)) <= 0 {
				return -1
			}
			return 1
		}

	case core.LightAreaRect:
		v := point.Subtract(light.Position)
		a1Component := v.Dot(light.PrimaryAxis)
		a2Component := v.Dot(light.SecondaryAxis)
		v = v.Normalize()

		norm := light.Direction
		if math.Abs(v.Dot(norm)) < core.Epsilon &&
			math.Abs(a1Component*2.0) <= light.PrimaryLength &&
			math.Abs(a2Component*2.0) <= light.SecondaryLength {
			if norm.Dot(eye.Subtract(point)) <= 0 {
				return -1
			}
			return 1
		}
	}

	return 0
}

// computeIllumination adds one light's contribution (with occlusion when
// shadows are enabled) to color.
func (r *Renderer) computeIllumination(color *core.Vec3, light *core.Light, brdf *core.Brdf,
	eye, point, normal core.Vec3, inMonteCarlo bool, w *worker) {

	if !light.Active {
		return
	}

	computeShadows := r.cfg.Shadows && (!inMonteCarlo || r.cfg.RecursiveShadows)

	// Reduced sampling budget inside a Monte Carlo recursion
	numLightSamples := r.cfg.LightTest
	numExtraShadowSamples := r.cfg.ShadowTest
	if inMonteCarlo {
		numLightSamples = 2
		numExtraShadowSamples = 0
	}

	// Skip extra work if possible
	if !computeShadows {
		*color = color.Add(r.lightReflection(light, brdf, eye, point, normal, numLightSamples, w))
		return
	}

	var pointOnLight core.Vec3
	switch light.Type {
	case core.LightDirectional:
		pointOnLight = point.Subtract(light.Direction.Multiply(r.scene.Radius() * 3.0))
	case core.LightPoint, core.LightSpot:
		pointOnLight = light.Position
	case core.LightAreaDisk:
		if r.cfg.SoftShadows {
			*color = color.Add(r.areaLightReflection(light, brdf, eye, point, normal,
				numLightSamples, numExtraShadowSamples, true, w))
			return
		}
		pointOnLight = light.Position.Add(light.Direction.Multiply(core.Epsilon))
	case core.LightAreaRect:
		if r.cfg.SoftShadows {
			*color = color.Add(r.rectLightReflection(light, brdf, eye, point, normal,
				numLightSamples, numExtraShadowSamples, true, w))
			return
		}
		pointOnLight = light.Position.Add(light.Direction.Multiply(core.Epsilon))
	default:
		fmt.Fprintf(os.Stderr, "Unrecognized light type: %d\n", light.Type)
		return
	}

	if r.rayIlluminationTest(point, pointOnLight, w) {
		*color = color.Add(r.lightReflection(light, brdf, eye, point, normal, numLightSamples, w))
	}
}

// lightReflection returns the unoccluded reflectance from a light at a point.
func (r *Renderer) lightReflection(light *core.Light, brdf *core.Brdf,
	eye, point, normal core.Vec3, numLightSamples int, w *worker) core.Vec3 {

	switch light.Type {
	case core.LightDirectional:
		return phongReflection(brdf, eye, point, normal, light.Direction.Negate(), light.Intensity, light.Color)

	case core.LightPoint:
		toLight := light.Position.Subtract(point)
		intensity := light.Attenuate(toLight.Length())
		return phongReflection(brdf, eye, point, normal, toLight.Normalize(), intensity, light.Color)

	case core.LightSpot:
		toLight := light.Position.Subtract(point)
		intensity := light.Attenuate(toLight.Length())
		l := toLight.Normalize()
		cosDir := light.Direction.Dot(l.Negate())
		if cosDir < math.Cos(light.CutoffAngle) {
			return core.Vec3{}
		}
		intensity *= math.Pow(cosDir, light.DropOffRate)
		return phongReflection(brdf, eye, point, normal, l, intensity, light.Color)

	case core.LightAreaDisk:
		return r.areaLightReflection(light, brdf, eye, point, normal, numLightSamples, 0, false, w)

	case core.LightAreaRect:
		return r.rectLightReflection(light, brdf, eye, point, normal, numLightSamples, 0, false, w)
	}

	return core.Vec3{}
}

// phongReflection evaluates the diffuse and specular reflectance terms for a
// single light direction.
func phongReflection(brdf *core.Brdf, eye, point, normal, l core.Vec3,
	intensity float64, lightColor core.Vec3) core.Vec3 {

	color := core.Vec3{}
	nl := normal.Dot(l)
	if brdf.IsDiffuse() {
		color = color.Add(brdf.Diffuse.Multiply(intensity * math.Abs(nl)))
	}
	if brdf.IsSpecular() {
		reflection := normal.Multiply(2.0 * nl).Subtract(l)
		v := eye.Subtract(point).Normalize()
		vr := v.Dot(reflection)
		if vr > 0 {
			color = color.Add(brdf.Specular.Multiply(intensity * math.Pow(vr, brdf.Shininess)))
		}
	}
	return color.MultiplyVec(lightColor)
}

// areaLightReflection accumulates soft-shadowed reflectance from a disk area
// light by sampling points on its surface. With testOcclusion false every
// sample counts as visible (used on the shadow-free path).
func (r *Renderer) areaLightReflection(light *core.Light, brdf *core.Brdf,
	eye, point, normal core.Vec3, numLightSamples, numExtraShadowSamples int,
	testOcclusion bool, w *worker) core.Vec3 {

	center := light.Position
	lightNorm := light.Direction
	area := math.Pi * light.Radius * light.Radius

	// Non-emissive back side
	if lightNorm.Dot(point.Subtract(center)) < 0 {
		return core.Vec3{}
	}

	u, v := core.PlaneAxes(lightNorm)
	u = u.Multiply(light.Radius)
	v = v.Multiply(light.Radius)

	samplePoint := func() core.Vec3 {
		r1, r2 := core.SampleUnitDisk(w.rng)
		return u.Multiply(r1).Add(v.Multiply(r2)).Add(center).Add(lightNorm.Multiply(core.Epsilon))
	}

	return r.sampledLightReflection(light, brdf, eye, point, normal, area,
		numLightSamples, numExtraShadowSamples, testOcclusion, samplePoint, w)
}

// rectLightReflection is the parallelogram analogue of areaLightReflection.
func (r *Renderer) rectLightReflection(light *core.Light, brdf *core.Brdf,
	eye, point, normal core.Vec3, numLightSamples, numExtraShadowSamples int,
	testOcclusion bool, w *worker) core.Vec3 {

	center := light.Position
	lightNorm := light.Direction

	if lightNorm.Dot(point.Subtract(center)) < 0 {
		return core.Vec3{}
	}

	a1, a2 := light.ScaledAxes()
	area := a1.Cross(a2).Length()

	samplePoint := func() core.Vec3 {
		r1 := w.rng.Float64() - 0.5
		r2 := w.rng.Float64() - 0.5
		return a1.Multiply(r1).Add(a2.Multiply(r2)).Add(center).Add(lightNorm.Multiply(core.Epsilon))
	}

	return r.sampledLightReflection(light, brdf, eye, point, normal, area,
		numLightSamples, numExtraShadowSamples, testOcclusion, samplePoint, w)
}

// sampledLightReflection draws light-surface samples and accumulates the
// diffuse and specular reflectance of the visible ones, then reweights by
// the overall visibility fraction.
func (r *Renderer) sampledLightReflection(light *core.Light, brdf *core.Brdf,
	eye, point, normal core.Vec3, area float64,
	numLightSamples, numExtraShadowSamples int, testOcclusion bool,
	samplePoint func() core.Vec3, w *worker) core.Vec3 {

	lightNorm := light.Direction
	color := core.Vec3{}
	totalSamples := 0
	totalHits := 0

	// Intensity at the shaded point from one visible light sample, weighted
	// by the cosine emission falloff of the light surface
	sampleIntensity := func(sample core.Vec3) (float64, core.Vec3) {
		intensity := light.Attenuate(point.Subtract(sample).Length())
		l := sample.Subtract(point).Normalize()
		intensity *= lightNorm.Dot(l.Negate()) * 2.0
		return intensity, l
	}

	// Diffuse sampling
	if brdf.IsDiffuse() {
		weight := 0.0
		hits := 0
		for i := 0; i < numLightSamples; i++ {
			sample := samplePoint()
			if !testOcclusion || r.rayIlluminationTest(point, sample, w) {
				hits++
				intensity, l := sampleIntensity(sample)
				weight += intensity * math.Abs(normal.Dot(l))
			}
		}
		if hits > 0 {
			color = color.Add(brdf.Diffuse.MultiplyVec(light.Color).
				Multiply(weight * area / float64(hits) / math.Pi))
		}
		totalHits += hits
		totalSamples += numLightSamples
	}

	// Specular sampling (double budget)
	if brdf.IsSpecular() {
		weight := 0.0
		hits := 0
		numSpecularSamples := numLightSamples * 2
		v := eye.Subtract(point).Normalize()
		for i := 0; i < numSpecularSamples; i++ {
			sample := samplePoint()
			if !testOcclusion || r.rayIlluminationTest(point, sample, w) {
				hits++
				intensity, l := sampleIntensity(sample)

				nl := normal.Dot(l)
				reflection := normal.Multiply(2.0 * nl).Subtract(l)
				vr := v.Dot(reflection)
				if vr <= 0 {
					continue
				}
				weight += intensity * math.Pow(vr, brdf.Shininess)
			}
		}
		if hits > 0 {
			// The (n+2)/2pi normalization heavily increases variance, so it
			// is omitted
			color = color.Add(brdf.Specular.MultiplyVec(light.Color).
				Multiply(weight * area / float64(hits)))
		}
		totalHits += hits
		totalSamples += numSpecularSamples
	}

	// Additional shadow-only samples refine the visibility fraction
	if testOcclusion {
		hits := 0
		for i := 0; i < numExtraShadowSamples; i++ {
			if r.rayIlluminationTest(point, samplePoint(), w) {
				hits++
			}
		}
		totalHits += hits
		totalSamples += numExtraShadowSamples

		if totalSamples > 0 {
			color = color.Multiply(float64(totalHits) / float64(totalSamples))
		}
	}

	return color
}
