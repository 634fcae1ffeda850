package scene

import (
	"math"

	"github.com/rbova/photongi/pkg/core"
)

// Camera is a pinhole camera generating primary rays through viewport
// pixel centers.
type Camera struct {
	Eye    core.Vec3
	LookAt core.Vec3
	Up     core.Vec3
	FOV    float64 // vertical field of view, radians

	width  int
	height int

	// Basis and viewport geometry derived on SetViewport
	forward    core.Vec3
	right      core.Vec3
	up         core.Vec3
	halfHeight float64
	halfWidth  float64
}

// NewCamera creates a camera; SetViewport must be called before Ray.
func NewCamera(eye, lookAt, up core.Vec3, fov float64) *Camera {
	return &Camera{Eye: eye, LookAt: lookAt, Up: up, FOV: fov}
}

// SetViewport fixes the pixel dimensions primary rays are generated for.
func (c *Camera) SetViewport(width, height int) {
	c.width = width
	c.height = height

	c.forward = c.LookAt.Subtract(c.Eye).Normalize()
	c.right = c.forward.Cross(c.Up).Normalize()
	c.up = c.right.Cross(c.forward)

	c.halfHeight = math.Tan(c.FOV / 2.0)
	c.halfWidth = c.halfHeight * float64(width) / float64(height)
}

// Ray returns the primary ray through the center of pixel (i, j), with
// j = 0 at the top of the image.
func (c *Camera) Ray(i, j int) core.Ray {
	u := (float64(i)+0.5)/float64(c.width)*2.0 - 1.0
	v := 1.0 - (float64(j)+0.5)/float64(c.height)*2.0

	direction := c.forward.
		Add(c.right.Multiply(u * c.halfWidth)).
		Add(c.up.Multiply(v * c.halfHeight)).
		Normalize()
	return core.NewRay(c.Eye, direction)
}
