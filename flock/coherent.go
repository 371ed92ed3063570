package flock

// StepCoherent advances the simulation one frame using the uniform grid
// with physically reordered agent data: after the index build, a gather
// pass permutes positions and velocities into sorted order so the neighbor
// scan reads contiguous memory with no per-candidate indirection. New
// velocities are scattered back to original agent-id order through the same
// permutation, so the store stays in original order between frames and the
// strategies remain swappable frame-to-frame.
func (s *Simulation) StepCoherent(dt float32) error {
	if err := s.checkStep(dt); err != nil {
		return err
	}

	g := s.grid
	s.stage("grid_build")
	g.build(s.pool, s.pos)

	// Gather into sorted order. Must complete before the scan below reads
	// the reordered buffers.
	s.stage("gather")
	s.pool.run(s.n, func(i0, i1 int) {
		for p := i0; p < i1; p++ {
			j := g.sorted[p]
			s.posSorted[p] = s.pos[j]
			s.velSorted[p] = s.vel[j]
		}
	})

	prm := s.params
	s.stage("velocity")
	s.pool.run(s.n, func(i0, i1 int) {
		for p := i0; p < i1; p++ {
			selfPos := s.posSorted[p]
			var acc accumulator

			x0, x1, y0, y1, z0, z1 := g.scanBounds(selfPos)
			for z := z0; z <= z1; z++ {
				for y := y0; y <= y1; y++ {
					for x := x0; x <= x1; x++ {
						c := g.cellID(x, y, z)
						start := g.cellStart[c]
						if start == emptyCell {
							continue
						}
						for q := start; q < g.cellEnd[c]; q++ {
							if q == int32(p) {
								continue
							}
							acc.add(&prm, selfPos, s.posSorted[q], s.velSorted[q])
						}
					}
				}
			}

			// Scatter back: sorted position p belongs to agent g.sorted[p],
			// and sorted is a permutation, so writes never collide.
			s.velNext[g.sorted[p]] = acc.finish(&prm, selfPos, s.velSorted[p])
		}
	})

	s.swapVelocities()
	s.stage("integrate")
	s.integrate(dt)
	return nil
}
