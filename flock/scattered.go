package flock

// StepScattered advances the simulation one frame using the uniform grid
// with indirect agent access: candidates come from the neighbor cells'
// sorted ranges, and every candidate is dereferenced through the sorted
// index array back to its original id before its state is read. Agent
// state itself stays in original order.
func (s *Simulation) StepScattered(dt float32) error {
	if err := s.checkStep(dt); err != nil {
		return err
	}

	g := s.grid
	s.stage("grid_build")
	g.build(s.pool, s.pos)

	p := s.params
	s.stage("velocity")
	s.pool.run(s.n, func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			selfPos := s.pos[i]
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
							j := g.sorted[q]
							if int(j) == i {
								continue
							}
							acc.add(&p, selfPos, s.pos[j], s.vel[j])
						}
					}
				}
			}

			s.velNext[i] = acc.finish(&p, selfPos, s.vel[i])
		}
	})

	s.swapVelocities()
	s.stage("integrate")
	s.integrate(dt)
	return nil
}
