package flock

// StepNaive advances the simulation one frame with the all-pairs strategy:
// every agent scans every other agent. O(N²) per frame; the correctness
// baseline the grid strategies are tested against, not a production path.
func (s *Simulation) StepNaive(dt float32) error {
	if err := s.checkStep(dt); err != nil {
		return err
	}

	p := s.params
	s.stage("velocity")
	s.pool.run(s.n, func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			selfPos := s.pos[i]
			var acc accumulator
			for j := 0; j < s.n; j++ {
				if j == i {
					continue
				}
				acc.add(&p, selfPos, s.pos[j], s.vel[j])
			}
			s.velNext[i] = acc.finish(&p, selfPos, s.vel[i])
		}
	})

	s.swapVelocities()
	s.stage("integrate")
	s.integrate(dt)
	return nil
}
