// Package photon implements the photon-mapping preprocess: photon emission
// and scattering, compact photon storage, the spatial index used for
// k-nearest queries, and radiance estimation from the stored photons.
package photon

import "github.com/rbova/photongi/pkg/core"

// MapType selects one of the two logical photon maps.
type MapType int

const (
	Global MapType = iota
	Caustic
)

func (t MapType) String() string {
	if t == Caustic {
		return "caustic"
	}
	return "global"
}

// Photon is a stored bounce record: a world position, power packed into
// shared-exponent RGBE, and the arrival direction packed into a 16-bit
// spherical index.
type Photon struct {
	Position  core.Vec3
	RGBE      [4]byte
	Direction uint16
}

// Power returns the photon power as a linear RGB triple.
func (p *Photon) Power() core.Vec3 {
	return UnpackRGBE(p.RGBE)
}

// IncomingDirection returns the unit vector along which the photon arrived.
func (p *Photon) IncomingDirection() core.Vec3 {
	return UnpackDirection(p.Direction)
}
