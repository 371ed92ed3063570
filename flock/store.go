package flock

import "math/rand"

// randomize scatters the population uniformly through the domain cube with
// uniform random velocities no faster than maxSpeed per axis. Agent state
// lives in parallel arrays indexed by agent id; there is no per-agent object.
func (s *Simulation) randomize(rng *rand.Rand, maxSpeed float32) {
	for i := 0; i < s.n; i++ {
		s.pos[i] = Vec3{
			X: (rng.Float32()*2 - 1) * s.scale,
			Y: (rng.Float32()*2 - 1) * s.scale,
			Z: (rng.Float32()*2 - 1) * s.scale,
		}
		s.vel[i] = Vec3{
			X: (rng.Float32()*2 - 1) * maxSpeed,
			Y: (rng.Float32()*2 - 1) * maxSpeed,
			Z: (rng.Float32()*2 - 1) * maxSpeed,
		}
	}
}
