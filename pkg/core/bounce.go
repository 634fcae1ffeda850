package core

import "math"

// ReflectiveBounce returns the direction of a perfect mirror bounce.
// view is the unit vector from the eye into the surface and cosTheta is
// normal·(-view); the normal is flipped to the incident side if needed.
func ReflectiveBounce(normal, view Vec3, cosTheta float64) Vec3 {
	if cosTheta < 0 {
		normal = normal.Negate()
		cosTheta = -cosTheta
	}

	// Perpendicular component (cosTheta is defined from the flip of view)
	return view.Add(normal.Multiply(cosTheta * 2.0)).Normalize()
}

// TransmissiveBounce returns the direction of a refracted bounce through a
// surface with material index irMat in a medium with index irAir. Beyond the
// critical angle the reflective bounce is returned instead.
func TransmissiveBounce(normal, view Vec3, cosTheta, irMat, irAir float64) Vec3 {
	// Index ratio according to whether we are entering or leaving the object
	var eta float64
	if cosTheta < 0 {
		// Leaving
		eta = irMat / irAir
		normal = normal.Negate()
		cosTheta = -cosTheta
	} else {
		// Entering
		eta = irAir / irMat
	}

	theta := math.Acos(min(cosTheta, 1.0))
	sinPhi := eta * math.Sin(theta)

	// Total internal reflection
	if sinPhi < -1.0 || sinPhi > 1.0 {
		return ReflectiveBounce(normal, view, cosTheta)
	}

	phi := math.Asin(sinPhi)
	parallel := view.Add(normal.Multiply(cosTheta)).Normalize()
	return parallel.Multiply(math.Tan(phi)).Subtract(normal).Normalize()
}

// ReflectionCoeff returns the Fresnel reflection coefficient between media
// using Schlick's approximation.
func ReflectionCoeff(cosTheta, irMat, irAir float64) float64 {
	r0 := (irAir - irMat) / (irAir + irMat)
	r0 *= r0
	return r0 + (1.0-r0)*math.Pow(1.0-math.Abs(cosTheta), 5)
}
