package flock

import "math"

// Vec3 is a position or velocity in simulation space.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Length returns the magnitude of v.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X)*float64(v.X) + float64(v.Y)*float64(v.Y) + float64(v.Z)*float64(v.Z)))
}

// distSq returns the squared distance between a and b in float64.
// All strategies use this for the radius test so that neighbor sets are
// identical regardless of enumeration order.
func distSq(a, b Vec3) float64 {
	dx := float64(a.X) - float64(b.X)
	dy := float64(a.Y) - float64(b.Y)
	dz := float64(a.Z) - float64(b.Z)
	return dx*dx + dy*dy + dz*dz
}
