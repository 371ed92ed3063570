// Package camera provides an orbit camera for viewing the simulation volume.
package camera

import "math"

// Camera orbits a fixed target point at a controllable distance and angle.
// Angles are radians; pitch is clamped short of the poles so the view never
// flips.
type Camera struct {
	// Target is the point the camera looks at, in world coordinates.
	TargetX, TargetY, TargetZ float32

	// Orbit angles
	Yaw   float32
	Pitch float32

	// Distance from target to eye
	Distance float32

	// Distance constraints
	MinDistance, MaxDistance float32
}

const maxPitch = float32(math.Pi/2) * 0.99

// New creates a camera orbiting the origin at a distance suited to a domain
// of the given half-width.
func New(scale float32) *Camera {
	return &Camera{
		Yaw:         math.Pi / 4,
		Pitch:       math.Pi / 8,
		Distance:    3 * scale,
		MinDistance: scale * 0.2,
		MaxDistance: scale * 10,
	}
}

// Rotate adjusts yaw and pitch by the given deltas, wrapping yaw and
// clamping pitch.
func (c *Camera) Rotate(dYaw, dPitch float32) {
	c.Yaw += dYaw
	for c.Yaw > math.Pi {
		c.Yaw -= 2 * math.Pi
	}
	for c.Yaw < -math.Pi {
		c.Yaw += 2 * math.Pi
	}

	c.Pitch += dPitch
	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	} else if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}
}

// Dolly scales the orbit distance by the given factor, clamped to the
// configured range.
func (c *Camera) Dolly(factor float32) {
	c.Distance *= factor
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	} else if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// Eye returns the camera position in world coordinates.
func (c *Camera) Eye() (x, y, z float32) {
	cosPitch := float32(math.Cos(float64(c.Pitch)))
	x = c.TargetX + c.Distance*cosPitch*float32(math.Cos(float64(c.Yaw)))
	y = c.TargetY + c.Distance*float32(math.Sin(float64(c.Pitch)))
	z = c.TargetZ + c.Distance*cosPitch*float32(math.Sin(float64(c.Yaw)))
	return x, y, z
}

// Reset returns the camera to its initial framing of a domain with the
// given half-width.
func (c *Camera) Reset(scale float32) {
	c.TargetX, c.TargetY, c.TargetZ = 0, 0, 0
	c.Yaw = math.Pi / 4
	c.Pitch = math.Pi / 8
	c.Distance = 3 * scale
}
