package photon

import (
	"sync"

	"github.com/rbova/photongi/pkg/core"
)

// LocalStorageSize is the capacity of a worker's local photon buffer.
// Workers take the shared lock when a buffer this large fills up and once at
// the end of each emission job, so the amortized synchronization cost per
// photon is negligible.
const LocalStorageSize = 100000

// Store accumulates photons from all workers into the two shared arrays.
// Writers hold the mutex only during bulk flushes; after emission joins the
// arrays are frozen and read without synchronization.
type Store struct {
	mu      sync.Mutex
	global  []Photon
	caustic []Photon
}

// Flush bulk-copies a worker's local photons into the destination array and
// truncates the local buffer.
func (s *Store) Flush(local *[]Photon, mapType MapType) {
	if len(*local) == 0 {
		return
	}
	s.mu.Lock()
	if mapType == Global {
		s.global = append(s.global, *local...)
	} else {
		s.caustic = append(s.caustic, *local...)
	}
	s.mu.Unlock()
	*local = (*local)[:0]
}

// Take freezes and returns the accumulated array for a map. Callers must
// ensure all workers have joined.
func (s *Store) Take(mapType MapType) []Photon {
	if mapType == Global {
		return s.global
	}
	return s.caustic
}

// buffer is the worker-owned side of photon storage.
type buffer struct {
	store   *Store
	mapType MapType
	local   []Photon
	stored  int // photons stored by this worker for the current map
}

func newBuffer(store *Store, mapType MapType) *buffer {
	return &buffer{
		store:   store,
		mapType: mapType,
		local:   make([]Photon, 0, LocalStorageSize),
	}
}

// storePhoton packs and appends a photon, flushing to the shared store when
// the local buffer is full.
func (b *buffer) storePhoton(power core.Vec3, incident core.Vec3, point core.Vec3) {
	if len(b.local) >= LocalStorageSize {
		b.store.Flush(&b.local, b.mapType)
	}
	b.local = append(b.local, Photon{
		Position:  point,
		RGBE:      PackRGBE(power),
		Direction: PackDirection(incident),
	})
	b.stored++
}

// flush drains any remaining local photons into the shared store.
func (b *buffer) flush() {
	b.store.Flush(&b.local, b.mapType)
}
