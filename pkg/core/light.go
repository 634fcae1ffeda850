package core

import "math"

// LightType tags the variant carried by a Light.
type LightType int

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
	LightAreaDisk
	LightAreaRect
)

// Light is a tagged variant over the five supported light geometries.
// Only the fields relevant to the tagged type are meaningful.
type Light struct {
	Type      LightType
	Color     Vec3
	Intensity float64
	Active    bool

	// Attenuation coefficients (point, spot, area, rect)
	ConstantAttenuation  float64
	LinearAttenuation    float64
	QuadraticAttenuation float64

	Direction Vec3 // directional, spot; surface normal for area/rect
	Position  Vec3 // point, spot; center for area/rect

	Radius float64 // area disk

	PrimaryAxis     Vec3 // rect, unit length
	SecondaryAxis   Vec3 // rect, unit length
	PrimaryLength   float64
	SecondaryLength float64

	CutoffAngle float64 // spot, radians
	DropOffRate float64 // spot, phong exponent
}

// Attenuate returns the light intensity after distance attenuation.
func (l *Light) Attenuate(distance float64) float64 {
	denom := l.ConstantAttenuation +
		distance*l.LinearAttenuation +
		distance*distance*l.QuadraticAttenuation
	if denom > Epsilon {
		return l.Intensity / denom
	}
	return l.Intensity
}

// Power returns the total emitted power of the light: the sum of its color
// channels scaled by emitting area and the flux of its emission distribution.
// Used to apportion photons across the scene's lights.
func (l *Light) Power(sceneRadius float64) float64 {
	area := 1.0
	// Flux through a closed gaussian surface is 4pi
	flux := 4.0 * math.Pi
	switch l.Type {
	case LightDirectional:
		area = math.Pi * sceneRadius * sceneRadius
		flux = 1.0
	case LightAreaDisk:
		area = math.Pi * l.Radius * l.Radius
		// Flux through hemisphere is 2pi
		flux /= 2.0
	case LightAreaRect:
		a1 := l.PrimaryAxis.Multiply(l.PrimaryLength)
		a2 := l.SecondaryAxis.Multiply(l.SecondaryLength)
		area = a1.Cross(a2).Length()
		flux /= 2.0
	case LightSpot:
		s := l.DropOffRate
		c := l.CutoffAngle
		flux = 2.0 * math.Pi / (s + 1.0) * (1.0 - math.Pow(math.Cos(c), s+1.0))
	}

	return (l.Color.X + l.Color.Y + l.Color.Z) * area * flux
}

// ScaledAxes returns the primary and secondary axes of a rect light scaled
// by their lengths.
func (l *Light) ScaledAxes() (Vec3, Vec3) {
	return l.PrimaryAxis.Multiply(l.PrimaryLength), l.SecondaryAxis.Multiply(l.SecondaryLength)
}
