package photon

import (
	"math"

	"github.com/rbova/photongi/pkg/core"
)

// Filter kernel constants (Jensen). coneFilterK shapes the cone falloff;
// gaussFilterA and gaussFilterB shape the gaussian.
const (
	coneFilterK  = 1.1
	gaussFilterA = 0.918
	gaussFilterB = 1.953
)

// wrongSide reports whether a photon's incoming direction lies on the wrong
// side of the surface normal relative to the viewing side.
func wrongSide(cosTheta, perpComponent float64) bool {
	return (cosTheta < 0 && perpComponent < 0) || (cosTheta > 0 && perpComponent > 0)
}

// EstimateRadiance density-estimates the radiance leaving point toward the
// viewer from up to estimateSize photons within estimateDist, weighting each
// photon by a Phong-style BRDF and the selected filter kernel.
func (m *Map) EstimateRadiance(point, normal core.Vec3, brdf *core.Brdf,
	exactBounce core.Vec3, cosTheta float64, estimateSize int,
	estimateDist float64, filter core.Filter) core.Vec3 {

	nearby := m.KNearestWithin(point, estimateDist, estimateSize, nil)
	if len(nearby) == 0 {
		return core.Vec3{}
	}

	// Actual radius of the estimate: the query radius when under-full,
	// otherwise the farthest returned photon
	maxDistSq := core.Epsilon
	if len(nearby) < estimateSize {
		maxDistSq = estimateDist * estimateDist
	} else {
		for i := range nearby {
			if nearby[i].DistSq > maxDistSq {
				maxDistSq = nearby[i].DistSq
			}
		}
	}

	// Filter weights that depend on the radius alone
	fweightC1 := 1.0
	fweightC2 := 1.0
	totalFweight := 0.0
	switch filter {
	case core.FilterCone:
		fweightC1 = 1.0 / (coneFilterK * math.Sqrt(maxDistSq))
	case core.FilterGauss:
		fweightC1 = math.Exp(-gaussFilterB)
		fweightC2 = 1.0 / (2.0 * maxDistSq)
	}

	estimate := core.Vec3{}
	for i := range nearby {
		photon := nearby[i].Photon
		incident := photon.IncomingDirection()

		perpComponent := normal.Dot(incident)
		if wrongSide(cosTheta, perpComponent) {
			continue
		}

		// Phong BRDF applied to the stored flux
		photonColor := photon.Power()
		cosAlpha := exactBounce.Dot(incident.Negate())
		if cosAlpha < 0 {
			cosAlpha = 0
		}
		photonColor = photonColor.MultiplyVec(
			brdf.Diffuse.Multiply(math.Abs(perpComponent)).
				Add(brdf.Specular.Multiply(math.Pow(cosAlpha, brdf.Shininess))))

		switch filter {
		case core.FilterCone:
			photonColor = photonColor.Multiply(1.0 - fweightC1*math.Sqrt(nearby[i].DistSq))
		case core.FilterGauss:
			weight := 1.0 - (1.0-math.Pow(fweightC1, fweightC2*nearby[i].DistSq))/(1.0-fweightC1)
			photonColor = photonColor.Multiply(weight)
			totalFweight += weight
		}
		estimate = estimate.Add(photonColor)
	}

	switch filter {
	case core.FilterDisk:
		estimate = estimate.Multiply(1.0 / (math.Pi * maxDistSq))
	case core.FilterCone:
		estimate = estimate.Multiply(1.0 / ((1.0 - 2.0/3.0/coneFilterK) * math.Pi * maxDistSq))
	case core.FilterGauss:
		if totalFweight > 0 {
			estimate = estimate.Multiply(gaussFilterA * (float64(len(nearby)) / totalFweight) / (math.Pi * maxDistSq))
		}
	}

	return estimate
}

// EstimateCachedRadiance returns the BRDF-weighted power of the single
// nearest photon whose incoming direction is on the viewing side. Fast and
// noisy; used for irradiance-cache previews.
func (m *Map) EstimateCachedRadiance(point, normal core.Vec3, brdf *core.Brdf,
	exactBounce core.Vec3, cosTheta, estimateDist float64) core.Vec3 {

	closestDist := 0.0
	for {
		photon, dist, ok := m.ClosestBeyond(point, closestDist+core.Epsilon, estimateDist)
		if !ok {
			return core.Vec3{}
		}
		closestDist = dist

		incident := photon.IncomingDirection()
		perpComponent := normal.Dot(incident)
		if wrongSide(cosTheta, perpComponent) {
			continue
		}

		photonColor := photon.Power()
		cosAlpha := exactBounce.Dot(incident.Negate())
		if cosAlpha < 0 {
			cosAlpha = 0
		}
		return photonColor.MultiplyVec(
			brdf.Diffuse.Multiply(math.Abs(perpComponent)).
				Add(brdf.Specular.Multiply(math.Pow(cosAlpha, brdf.Shininess))))
	}
}

// EstimateIrradiance roughly samples the irradiance at a point with a plain
// disk estimate, ignoring surface orientation. Diagnostic use only.
func (m *Map) EstimateIrradiance(point core.Vec3, estimateSize int, estimateDist float64) core.Vec3 {
	nearby := m.KNearestWithin(point, estimateDist, estimateSize, nil)
	if len(nearby) == 0 {
		return core.Vec3{}
	}

	maxDistSq := core.Epsilon
	if len(nearby) < estimateSize {
		maxDistSq = estimateDist * estimateDist
	} else {
		for i := range nearby {
			if nearby[i].DistSq > maxDistSq {
				maxDistSq = nearby[i].DistSq
			}
		}
	}

	estimate := core.Vec3{}
	for i := range nearby {
		estimate = estimate.Add(nearby[i].Photon.Power())
	}
	return estimate.Multiply(1.0 / (math.Pi * maxDistSq))
}
