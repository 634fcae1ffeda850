package photon

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rbova/photongi/pkg/core"
)

func TestDirectionRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	// Maximum angular quantization error of the 8-bit azimuth
	maxError := 2.0 * math.Pi / 255.0

	check := func(v core.Vec3) {
		t.Helper()
		got := UnpackDirection(PackDirection(v))
		if math.Abs(got.Length()-1.0) > 1e-9 {
			t.Fatalf("decoded direction not unit length: %f", got.Length())
		}
		cos := max(-1.0, min(1.0, got.Dot(v)))
		if angle := math.Acos(cos); angle > maxError {
			t.Fatalf("angular error %f for %v -> %v", angle, v, got)
		}
	}

	for i := 0; i < 2000; i++ {
		check(core.SampleUnitSphere(rng))
	}

	// Axis directions and the poles where the azimuth degenerates
	for _, v := range []core.Vec3{
		core.NewVec3(1, 0, 0),
		core.NewVec3(-1, 0, 0),
		core.NewVec3(0, 1, 0),
		core.NewVec3(0, -1, 0),
		core.NewVec3(0, 0, 1),
		core.NewVec3(0, 0, -1),
	} {
		check(v)
	}
}

func TestDirectionTableIsUnit(t *testing.T) {
	for i := 0; i < 65536; i += 97 {
		v := UnpackDirection(uint16(i))
		if math.Abs(v.Length()-1.0) > 1e-12 {
			t.Fatalf("table entry %d not normalized: %f", i, v.Length())
		}
	}
}
