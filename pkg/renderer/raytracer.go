package renderer

import (
	"math"

	"github.com/rbova/photongi/pkg/core"
)

// shade evaluates the rendering equation at a primary-ray hit: ambient,
// direct, transmissive, specular, indirect and caustic terms, each gated by
// configuration and material predicates.
func (r *Renderer) shade(hit core.Hit, eye core.Vec3, w *worker) core.Vec3 {
	color := core.Vec3{}

	if r.cfg.Ambient {
		// Global contribution (ambience from scene)
		color = color.Add(r.scene.Ambient())
	}

	brdf := hit.Brdf
	if brdf == nil {
		brdf = &core.DefaultBrdf
	}

	view := hit.Point.Subtract(eye).Normalize()
	cosTheta := hit.Normal.Dot(view.Negate())

	// Fresnel reflection coefficient for transmission (approximated)
	rCoeff := 0.0

	if r.cfg.Ambient && brdf.IsAmbient() {
		// Local ambient contribution (ambience from material)
		color = color.Add(brdf.Ambient)
	}
	if r.cfg.Direct && (brdf.IsDiffuse() || brdf.IsSpecular()) {
		color = color.Add(r.directIllumination(hit.Point, hit.Normal, eye, brdf, false, w))
	}
	if r.cfg.Transmissive && brdf.IsTransparent() {
		// Carry the reflected portion of the transmission over to specular
		if r.cfg.Specular && r.cfg.Fresnel {
			rCoeff = core.ReflectionCoeff(cosTheta, brdf.IndexOfRefraction, r.cfg.IRAir)
		}
		if rCoeff < 1.0 {
			color = color.Add(r.transmissiveIllumination(hit.Point, hit.Normal, brdf, view, cosTheta, 1.0-rCoeff, w))
		}
	}
	if r.cfg.Specular && (brdf.IsSpecular() || rCoeff > 0) {
		color = color.Add(r.specularIllumination(hit.Point, hit.Normal, brdf, view, cosTheta, rCoeff, w))
	}
	if r.indirectOn && brdf.IsDiffuse() {
		color = color.Add(r.indirectIllumination(hit.Point, hit.Normal, brdf, cosTheta, w))
	}
	if r.causticOn && brdf.IsDiffuse() {
		color = color.Add(r.causticIllumination(hit.Point, hit.Normal, brdf, view, cosTheta, w))
	}
	if r.photonVizOn && brdf.IsDiffuse() {
		// Sample the global photon map directly for global illumination
		color = color.Add(r.estimateGlobalIllumination(hit.Point, hit.Normal, brdf, view, cosTheta, w))
	}

	return color
}

// directIllumination sums the reflectance from every light, handling points
// that lie on an emissive light surface.
func (r *Renderer) directIllumination(point, normal, eye core.Vec3, brdf *core.Brdf,
	inMonteCarlo bool, w *worker) core.Vec3 {

	color := core.Vec3{}
	shouldEmit := true

	for _, light := range r.scene.Lights() {
		// A point on a 2D light's surface reflects nothing from that light;
		// it emits instead, unless seen from the non-emissive back
		lightIntersection := testLightIntersection(point, eye, light)
		if lightIntersection != 0 {
			if lightIntersection == -1 {
				shouldEmit = false
			}
			continue
		}

		r.computeIllumination(&color, light, brdf, eye, point, normal, inMonteCarlo, w)
	}

	if shouldEmit {
		color = color.Add(brdf.Emission)
	}
	return color
}

// sampleCount scales a base sample budget by the contribution of the term to
// the final pixel color.
func sampleCount(base int, weight core.Vec3) int {
	return int(math.Ceil((float64(base)*weight.MaxChannel() + float64(base)) / 2.0))
}

// transmissiveIllumination gathers the transmitted radiance through the
// surface by distributing rays about the exact refraction direction.
func (r *Renderer) transmissiveIllumination(point, normal core.Vec3, brdf *core.Brdf,
	view core.Vec3, cosTheta, tCoeff float64, w *worker) core.Vec3 {

	// Might be a reflection if total internal reflection
	exactBounce := core.TransmissiveBounce(normal, view, cosTheta, brdf.IndexOfRefraction, r.cfg.IRAir)

	totalWeight := brdf.Transmission.Multiply(tCoeff)
	numSamples := sampleCount(r.cfg.TransmissiveTest, totalWeight)

	buffer := core.Vec3{}
	for i := 0; i < numSamples; i++ {
		sampled := exactBounce
		if r.cfg.DistribTransmissive {
			sampled = core.SpecularImportanceSample(exactBounce, brdf.Shininess, cosTheta, w.rng)
		}
		ray := core.Ray{
			Origin:    point.Add(sampled.Multiply(core.Epsilon)),
			Direction: sampled,
			Refracted: true,
		}
		buffer = buffer.Add(r.PathTrace(ray, w))
		w.counters.transmissive++
	}
	return buffer.Multiply(1.0 / float64(numSamples)).MultiplyVec(totalWeight)
}

// specularIllumination gathers the mirrored radiance off the surface by
// distributing rays about the exact reflection direction.
func (r *Renderer) specularIllumination(point, normal core.Vec3, brdf *core.Brdf,
	view core.Vec3, cosTheta, rCoeff float64, w *worker) core.Vec3 {

	exactBounce := core.ReflectiveBounce(normal, view, cosTheta)

	totalWeight := brdf.Transmission.Multiply(rCoeff).Add(brdf.Specular)
	numSamples := sampleCount(r.cfg.SpecularTest, totalWeight)

	buffer := core.Vec3{}
	for i := 0; i < numSamples; i++ {
		sampled := exactBounce
		if r.cfg.DistribSpecular {
			sampled = core.SpecularImportanceSample(exactBounce, brdf.Shininess, cosTheta, w.rng)
		}
		ray := core.NewRay(point.Add(sampled.Multiply(core.Epsilon)), sampled)
		buffer = buffer.Add(r.PathTrace(ray, w))
		w.counters.specular++
	}
	return buffer.Multiply(1.0 / float64(numSamples)).MultiplyVec(totalWeight)
}

// indirectIllumination estimates diffuse interreflection by shooting
// importance-sampled rays that terminate into the global photon map.
func (r *Renderer) indirectIllumination(point, normal core.Vec3, brdf *core.Brdf,
	cosTheta float64, w *worker) core.Vec3 {

	if !brdf.IsDiffuse() {
		return core.Vec3{}
	}

	totalWeight := brdf.Diffuse
	numSamples := sampleCount(r.cfg.IndirectTest, totalWeight)

	buffer := core.Vec3{}
	for i := 0; i < numSamples; i++ {
		sampled := core.DiffuseImportanceSample(normal, cosTheta, w.rng)
		ray := core.NewRay(point.Add(sampled.Multiply(core.Epsilon)), sampled)
		buffer = buffer.Add(r.IndirectSample(ray, w))
		w.counters.indirect++
	}
	return buffer.Multiply(1.0 / float64(numSamples)).MultiplyVec(totalWeight)
}

// causticIllumination estimates caustic radiance from the caustic photon map.
func (r *Renderer) causticIllumination(point, normal core.Vec3, brdf *core.Brdf,
	view core.Vec3, cosTheta float64, w *worker) core.Vec3 {

	if !brdf.IsDiffuse() {
		return core.Vec3{}
	}
	exactBounce := core.ReflectiveBounce(normal, view, cosTheta)
	w.counters.caustic++
	return r.maps.Caustic.EstimateRadiance(point, normal, brdf, exactBounce, cosTheta,
		r.cfg.CausticEstimateSize, r.cfg.CausticEstimateDist, r.cfg.CausticFilter)
}

// estimateGlobalIllumination samples the global photon map directly at a
// diffuse hit, for visualization and fast-global approximation.
func (r *Renderer) estimateGlobalIllumination(point, normal core.Vec3, brdf *core.Brdf,
	view core.Vec3, cosTheta float64, w *worker) core.Vec3 {

	if !brdf.IsDiffuse() {
		return core.Vec3{}
	}
	exactBounce := core.ReflectiveBounce(normal, view, cosTheta)

	if r.cfg.IrradianceCache {
		return r.maps.Global.EstimateCachedRadiance(point, normal, brdf, exactBounce,
			cosTheta, r.cfg.GlobalEstimateDist)
	}
	w.counters.indirect++
	return r.maps.Global.EstimateRadiance(point, normal, brdf, exactBounce, cosTheta,
		r.cfg.GlobalEstimateSize, r.cfg.GlobalEstimateDist, r.cfg.GlobalFilter)
}
