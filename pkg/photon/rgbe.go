package photon

import (
	"math"

	"github.com/rbova/photongi/pkg/core"
)

// PackRGBE compresses a linear RGB color into Ward's shared-exponent RGBE
// format. Colors with no positive channel encode as exact black (0,0,0,0).
func PackRGBE(color core.Vec3) [4]byte {
	var rgbe [4]byte
	m := color.MaxChannel()
	if m < 1e-32 {
		return rgbe
	}

	mantissa, exponent := math.Frexp(m)
	rgbe[0] = byte(256.0 * color.X / m * mantissa)
	rgbe[1] = byte(256.0 * color.Y / m * mantissa)
	rgbe[2] = byte(256.0 * color.Z / m * mantissa)
	rgbe[3] = byte(exponent + 128)
	return rgbe
}

// UnpackRGBE decompresses an RGBE value back to linear RGB.
func UnpackRGBE(rgbe [4]byte) core.Vec3 {
	// Exponent byte zero denotes exact black
	if rgbe[3] == 0 {
		return core.Vec3{}
	}

	scale := math.Ldexp(1.0, int(rgbe[3])-128-8)
	return core.NewVec3(float64(rgbe[0]), float64(rgbe[1]), float64(rgbe[2])).Multiply(scale)
}
