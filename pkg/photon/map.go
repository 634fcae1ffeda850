package photon

import "github.com/rbova/photongi/pkg/core"

// Map owns one of the two photon arrays and, after Build, the spatial index
// over it. Once built, the array and index are read-only and safe to share
// across workers.
type Map struct {
	Photons []Photon
	tree    *KdTree
}

// Build constructs the spatial index. Must be called after the photon array
// is frozen and before any query.
func (m *Map) Build() {
	m.tree = NewKdTree(m.Photons)
}

// Scale multiplies every stored photon power by the given factor, repacking
// in place. Applied once after emission to reintroduce absolute light power.
func (m *Map) Scale(power float64) {
	for i := range m.Photons {
		color := UnpackRGBE(m.Photons[i].RGBE).Multiply(power)
		m.Photons[i].RGBE = PackRGBE(color)
	}
}

// KNearestWithin returns up to k photons within maxDist of point in
// arbitrary order, appending to out.
func (m *Map) KNearestWithin(point core.Vec3, maxDist float64, k int, out []Neighbor) []Neighbor {
	return m.tree.KNearestWithin(point, maxDist, k, out)
}

// ClosestBeyond returns the closest photon whose distance from point lies in
// [minDist, maxDist].
func (m *Map) ClosestBeyond(point core.Vec3, minDist, maxDist float64) (*Photon, float64, bool) {
	return m.tree.ClosestBeyond(point, minDist, maxDist)
}

// Maps holds the built photon maps. A nil map means the corresponding
// illumination mode ended up with no photons and is disabled. The emitted
// counts record how many photons left the lights for each map.
type Maps struct {
	Global  *Map
	Caustic *Map

	GlobalEmitted  int64
	CausticEmitted int64
}
