package renderer

import (
	"github.com/rbova/photongi/pkg/core"
)

// PathTrace bounces a ray through the scene by Russian roulette, sampling
// direct and caustic illumination at every hit scaled by the path's current
// throughput. Diffuse bounces terminate into an indirect-illumination
// estimate; transmissive and specular bounces continue the path.
func (r *Renderer) PathTrace(ray core.Ray, w *worker) core.Vec3 {
	if !r.cfg.MonteCarlo {
		return core.Vec3{}
	}

	color := core.Vec3{}
	totalWeight := core.NewVec3(1, 1, 1)
	rayStart := ray.Origin

	for iter := 0; iter < r.cfg.MaxMonteDepth; iter++ {
		hit, ok := r.scene.Intersect(ray)
		if !ok {
			// Intersect with background and break
			color = color.Add(totalWeight.MultiplyVec(r.scene.Background()))
			break
		}
		w.counters.monte++

		brdf := hit.Brdf
		if brdf == nil {
			brdf = &core.DefaultBrdf
		}

		// Immediate sampling (always compute)
		buffer := core.Vec3{}
		if r.cfg.Ambient {
			buffer = buffer.Add(r.scene.Ambient())
		}

		view := hit.Point.Subtract(rayStart).Normalize()
		cosTheta := hit.Normal.Dot(view.Negate())

		if brdf.IsDiffuse() || brdf.IsSpecular() {
			buffer = buffer.Add(r.directIllumination(hit.Point, hit.Normal, rayStart, brdf, true, w))
		}
		if r.causticOn && brdf.IsDiffuse() {
			buffer = buffer.Add(r.causticIllumination(hit.Point, hit.Normal, brdf, view, cosTheta, w))
		}
		color = color.Add(buffer.MultiplyVec(totalWeight))

		// Bounced sampling (monte carlo)
		rCoeff := 0.0
		if r.cfg.Specular && r.cfg.Transmissive && r.cfg.Fresnel && brdf.IsTransparent() {
			rCoeff = core.ReflectionCoeff(cosTheta, brdf.IndexOfRefraction, r.cfg.IRAir)
		}

		probDiffuse := brdf.Diffuse.MaxChannel()
		probTransmission := brdf.Transmission.MaxChannel()
		probSpecular := brdf.Specular.MaxChannel() + rCoeff*probTransmission
		probTransmission *= 1.0 - rCoeff
		probTerminate := brdf.Emission.MaxChannel() + r.cfg.ProbAbsorb
		probTotal := probDiffuse + probTransmission + probSpecular + probTerminate

		// Scale the draw up rather than normalizing the probabilities so the
		// implicit absorption tail survives
		u := w.rng.Float64()
		if probTotal > 1.0 {
			u *= probTotal
		}

		var sampled core.Vec3
		refracted := false
		switch {
		case u < probDiffuse:
			if r.indirectOn {
				// Terminate into the photon map through one indirect sample
				sampled = core.DiffuseImportanceSample(hit.Normal, cosTheta, w.rng)
				indirectRay := core.NewRay(hit.Point.Add(sampled.Multiply(core.Epsilon)), sampled)
				w.counters.indirect++
				estimate := r.IndirectSample(indirectRay, w)
				color = color.Add(estimate.MultiplyVec(brdf.Diffuse).MultiplyVec(totalWeight).Multiply(1.0 / probDiffuse))
			} else if r.photonVizOn {
				estimate := r.estimateGlobalIllumination(hit.Point, hit.Normal, brdf, view, cosTheta, w)
				color = color.Add(estimate.MultiplyVec(brdf.Diffuse).MultiplyVec(totalWeight).Multiply(1.0 / probDiffuse))
			}
			return color

		case u < probDiffuse+probTransmission:
			if !r.cfg.Transmissive {
				return color
			}
			exact := core.TransmissiveBounce(hit.Normal, view, cosTheta, brdf.IndexOfRefraction, r.cfg.IRAir)
			if r.cfg.DistribTransmissive {
				sampled = core.SpecularImportanceSample(exact, brdf.Shininess, cosTheta, w.rng)
			} else {
				sampled = exact
			}
			w.counters.transmissive++
			totalWeight = totalWeight.MultiplyVec(brdf.Transmission).Multiply((1.0 - rCoeff) / probTransmission)
			refracted = true

		case u < probDiffuse+probTransmission+probSpecular:
			if !r.cfg.Specular {
				return color
			}
			exact := core.ReflectiveBounce(hit.Normal, view, cosTheta)
			if r.cfg.DistribSpecular {
				sampled = core.SpecularImportanceSample(exact, brdf.Shininess, cosTheta, w.rng)
			} else {
				sampled = exact
			}
			w.counters.specular++
			totalWeight = totalWeight.MultiplyVec(
				brdf.Specular.Add(brdf.Transmission.Multiply(rCoeff))).Multiply(1.0 / probSpecular)

		default:
			// Path absorbed; terminate trace
			return color
		}

		rayStart = hit.Point.Add(sampled.Multiply(core.Epsilon))
		ray = core.Ray{Origin: rayStart, Direction: sampled, Refracted: refracted}
	}

	return color
}

// IndirectSample bounces through specular and transmissive surfaces only
// until the first diffuse interaction, then queries the global photon map
// there. This keeps the photon map out of the directly visible image while
// still capturing multi-bounce diffuse transport.
func (r *Renderer) IndirectSample(ray core.Ray, w *worker) core.Vec3 {
	color := core.Vec3{}
	totalWeight := core.NewVec3(1, 1, 1)
	rayStart := ray.Origin

	for iter := 0; iter < r.cfg.MaxMonteDepth; iter++ {
		hit, ok := r.scene.Intersect(ray)
		if !ok {
			color = color.Add(totalWeight.MultiplyVec(r.scene.Background()))
			break
		}
		w.counters.monte++

		brdf := hit.Brdf
		if brdf == nil {
			brdf = &core.DefaultBrdf
		}

		view := hit.Point.Subtract(rayStart).Normalize()
		cosTheta := hit.Normal.Dot(view.Negate())

		rCoeff := 0.0
		if r.cfg.Fresnel && brdf.IsTransparent() {
			rCoeff = core.ReflectionCoeff(cosTheta, brdf.IndexOfRefraction, r.cfg.IRAir)
		}

		probDiffuse := brdf.Diffuse.MaxChannel()
		probTransmission := brdf.Transmission.MaxChannel()
		probSpecular := brdf.Specular.MaxChannel() + rCoeff*probTransmission
		probTransmission *= 1.0 - rCoeff
		probTerminate := brdf.Emission.MaxChannel() + r.cfg.ProbAbsorb
		probTotal := probDiffuse + probTransmission + probSpecular + probTerminate

		u := w.rng.Float64()
		if probTotal > 1.0 {
			u *= probTotal
		}

		var sampled core.Vec3
		refracted := false
		switch {
		case u < probDiffuse:
			// Sample the photon map directly
			exact := core.ReflectiveBounce(hit.Normal, view, cosTheta)
			var estimate core.Vec3
			if r.cfg.IrradianceCache {
				estimate = r.maps.Global.EstimateCachedRadiance(hit.Point, hit.Normal, brdf,
					exact, cosTheta, r.cfg.GlobalEstimateDist)
			} else {
				estimate = r.maps.Global.EstimateRadiance(hit.Point, hit.Normal, brdf,
					exact, cosTheta, r.cfg.GlobalEstimateSize, r.cfg.GlobalEstimateDist, r.cfg.GlobalFilter)
			}
			color = color.Add(estimate.MultiplyVec(brdf.Diffuse).MultiplyVec(totalWeight).Multiply(1.0 / probDiffuse))
			return color

		case u < probDiffuse+probTransmission:
			exact := core.TransmissiveBounce(hit.Normal, view, cosTheta, brdf.IndexOfRefraction, r.cfg.IRAir)
			if r.cfg.DistribTransmissive {
				sampled = core.SpecularImportanceSample(exact, brdf.Shininess, cosTheta, w.rng)
			} else {
				sampled = exact
			}
			w.counters.transmissive++
			totalWeight = totalWeight.MultiplyVec(brdf.Transmission).Multiply((1.0 - rCoeff) / probTransmission)
			refracted = true

		case u < probDiffuse+probTransmission+probSpecular:
			exact := core.ReflectiveBounce(hit.Normal, view, cosTheta)
			if r.cfg.DistribSpecular {
				sampled = core.SpecularImportanceSample(exact, brdf.Shininess, cosTheta, w.rng)
			} else {
				sampled = exact
			}
			w.counters.specular++
			totalWeight = totalWeight.MultiplyVec(
				brdf.Specular.Add(brdf.Transmission.Multiply(rCoeff))).Multiply(1.0 / probSpecular)

		default:
			return color
		}

		rayStart = hit.Point.Add(sampled.Multiply(core.Epsilon))
		ray = core.Ray{Origin: rayStart, Direction: sampled, Refracted: refracted}
	}

	return color
}
