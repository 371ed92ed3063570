package flock

// integrate advances positions from the frame's freshly swapped velocities
// and wraps each coordinate at the domain boundary, preserving the overflow
// offset. Runs only after the velocity stage barrier; purely numeric, no
// error conditions.
func (s *Simulation) integrate(dt float32) {
	scale := s.scale
	width := 2 * scale

	s.pool.run(s.n, func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			p := s.pos[i]
			v := s.vel[i]

			p.X += v.X * dt
			p.Y += v.Y * dt
			p.Z += v.Z * dt

			// One step never moves an agent more than maxSpeed*dt, far less
			// than the domain width, so a single wrap per axis suffices.
			if p.X >= scale {
				p.X -= width
			} else if p.X < -scale {
				p.X += width
			}
			if p.Y >= scale {
				p.Y -= width
			} else if p.Y < -scale {
				p.Y += width
			}
			if p.Z >= scale {
				p.Z -= width
			} else if p.Z < -scale {
				p.Z += width
			}

			s.pos[i] = p
		}
	})
}
