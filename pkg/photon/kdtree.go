package photon

import (
	"math"
	"sort"

	"github.com/rbova/photongi/pkg/core"
)

// Neighbor is a photon returned from a proximity query along with its
// squared distance to the query point.
type Neighbor struct {
	Photon *Photon
	DistSq float64
}

type kdNode struct {
	photon      int32
	axis        int8
	left, right int32
}

// KdTree is a static k-d tree over a frozen photon array. Queries are
// read-only and safe from arbitrary concurrent goroutines.
type KdTree struct {
	photons []Photon
	nodes   []kdNode
	root    int32
}

func axisValue(p core.Vec3, axis int8) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	}
	return p.Z
}

// NewKdTree builds a tree over the given photons. The slice must not be
// mutated afterwards.
func NewKdTree(photons []Photon) *KdTree {
	t := &KdTree{
		photons: photons,
		nodes:   make([]kdNode, 0, len(photons)),
	}
	indices := make([]int32, len(photons))
	for i := range indices {
		indices[i] = int32(i)
	}
	t.root = t.build(indices)
	return t
}

// build partitions indices at the median of the widest axis and recurses.
func (t *KdTree) build(indices []int32) int32 {
	if len(indices) == 0 {
		return -1
	}

	// Find widest axis of the bounding box
	lo := t.photons[indices[0]].Position
	hi := lo
	for _, idx := range indices[1:] {
		p := t.photons[idx].Position
		lo = core.NewVec3(min(lo.X, p.X), min(lo.Y, p.Y), min(lo.Z, p.Z))
		hi = core.NewVec3(max(hi.X, p.X), max(hi.Y, p.Y), max(hi.Z, p.Z))
	}
	span := hi.Subtract(lo)
	axis := int8(0)
	if span.Y > span.X && span.Y >= span.Z {
		axis = 1
	} else if span.Z > span.X && span.Z >= span.Y {
		axis = 2
	}

	sort.Slice(indices, func(i, j int) bool {
		return axisValue(t.photons[indices[i]].Position, axis) <
			axisValue(t.photons[indices[j]].Position, axis)
	})

	median := len(indices) / 2
	node := kdNode{photon: indices[median], axis: axis}
	id := int32(len(t.nodes))
	t.nodes = append(t.nodes, node)

	left := t.build(indices[:median])
	right := t.build(indices[median+1:])
	t.nodes[id].left = left
	t.nodes[id].right = right
	return id
}

// KNearestWithin collects up to k photons within maxDist of point, appending
// them to out (in arbitrary order) and returning the result.
func (t *KdTree) KNearestWithin(point core.Vec3, maxDist float64, k int, out []Neighbor) []Neighbor {
	if k <= 0 {
		return out
	}
	q := knnQuery{
		tree:      t,
		point:     point,
		k:         k,
		maxDistSq: maxDist * maxDist,
		found:     out,
	}
	q.search(t.root)
	return q.found
}

type knnQuery struct {
	tree      *KdTree
	point     core.Vec3
	k         int
	maxDistSq float64 // shrinks to the k-th best once the set is full
	found     []Neighbor
}

func (q *knnQuery) search(id int32) {
	if id < 0 {
		return
	}
	node := &q.tree.nodes[id]
	photon := &q.tree.photons[node.photon]

	diff := axisValue(q.point, node.axis) - axisValue(photon.Position, node.axis)
	near, far := node.left, node.right
	if diff > 0 {
		near, far = far, near
	}

	q.search(near)

	distSq := photon.Position.Subtract(q.point).LengthSquared()
	if distSq <= q.maxDistSq {
		q.insert(Neighbor{Photon: photon, DistSq: distSq})
	}

	if diff*diff <= q.maxDistSq {
		q.search(far)
	}
}

// insert keeps found bounded at k entries, evicting the farthest. With a full
// set the search radius tightens to the current worst distance.
func (q *knnQuery) insert(n Neighbor) {
	if len(q.found) < q.k {
		q.found = append(q.found, n)
		if len(q.found) == q.k {
			q.maxDistSq = q.worst()
		}
		return
	}
	worstIdx := 0
	for i := 1; i < len(q.found); i++ {
		if q.found[i].DistSq > q.found[worstIdx].DistSq {
			worstIdx = i
		}
	}
	if n.DistSq < q.found[worstIdx].DistSq {
		q.found[worstIdx] = n
		q.maxDistSq = q.worst()
	}
}

func (q *knnQuery) worst() float64 {
	worst := 0.0
	for _, n := range q.found {
		if n.DistSq > worst {
			worst = n.DistSq
		}
	}
	return worst
}

// ClosestBeyond returns the closest photon whose distance from point lies in
// [minDist, maxDist], or false if none exists.
func (t *KdTree) ClosestBeyond(point core.Vec3, minDist, maxDist float64) (*Photon, float64, bool) {
	q := closestQuery{
		tree:      t,
		point:     point,
		minDistSq: minDist * minDist,
		bestSq:    maxDist * maxDist,
	}
	q.search(t.root)
	if q.best == nil {
		return nil, 0, false
	}
	return q.best, math.Sqrt(q.bestSq), true
}

type closestQuery struct {
	tree      *KdTree
	point     core.Vec3
	minDistSq float64
	bestSq    float64
	best      *Photon
}

func (q *closestQuery) search(id int32) {
	if id < 0 {
		return
	}
	node := &q.tree.nodes[id]
	photon := &q.tree.photons[node.photon]

	diff := axisValue(q.point, node.axis) - axisValue(photon.Position, node.axis)
	near, far := node.left, node.right
	if diff > 0 {
		near, far = far, near
	}

	q.search(near)

	distSq := photon.Position.Subtract(q.point).LengthSquared()
	if distSq >= q.minDistSq && (distSq < q.bestSq || (q.best == nil && distSq <= q.bestSq)) {
		q.best = photon
		q.bestSq = distSq
	}

	if diff*diff <= q.bestSq {
		q.search(far)
	}
}
