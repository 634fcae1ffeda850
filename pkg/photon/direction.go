package photon

import (
	"math"

	"github.com/rbova/photongi/pkg/core"
)

// directionTable maps every packed 16-bit spherical index back to a unit
// vector so decoding needs no trigonometry.
var directionTable [65536]core.Vec3

func init() {
	for phi := 0; phi < 256; phi++ {
		for theta := 0; theta < 256; theta++ {
			truePhi := float64(phi)*2.0*math.Pi/255.0 - math.Pi
			trueTheta := float64(theta) * math.Pi / 255.0
			v := core.NewVec3(
				math.Sin(trueTheta)*math.Cos(truePhi),
				math.Sin(trueTheta)*math.Sin(truePhi),
				math.Cos(trueTheta),
			)
			// Normalize to absorb quantization error
			directionTable[phi*256+theta] = v.Normalize()
		}
	}
}

// PackDirection compresses a unit vector into a 16-bit spherical index:
// an 8-bit azimuth and an 8-bit polar angle.
func PackDirection(v core.Vec3) uint16 {
	phi := byte(math.Round(255.0 * (math.Atan2(v.Y, v.X) + math.Pi) / (2.0 * math.Pi)))
	z := max(-1.0, min(1.0, v.Z))
	theta := byte(math.Round(255.0 * math.Acos(z) / math.Pi))
	return uint16(phi)*256 + uint16(theta)
}

// UnpackDirection returns the unit vector for a packed spherical index.
func UnpackDirection(d uint16) core.Vec3 {
	return directionTable[d]
}
