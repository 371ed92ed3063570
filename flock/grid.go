package flock

import (
	"cmp"
	"fmt"
	"math/rand"
	"slices"

	"github.com/pthm-cable/flock3d/config"
)

// emptyCell marks a cell with no agents in the cellStart array.
const emptyCell = int32(-1)

// gridIndex is the per-frame spatial index: agent ids grouped by grid cell,
// with contiguous [start, end) ranges per cell into the sorted id array.
// All scratch is allocated once at init and rebuilt in place every frame,
// since agents may move arbitrarily far within one timestep.
type gridIndex struct {
	res          int     // cells per axis
	cellWidth    float32 // constant for the whole run
	gridMin      float32 // minimum domain coordinate on every axis
	invCellWidth float32
	neighborhood int // 27 or 8, fixed at init together with cellWidth

	cellIDs   []int32 // linearized cell id per original agent id
	sorted    []int32 // agent ids, ids sharing a cell contiguous
	cellStart []int32 // per cell id: first offset into sorted, emptyCell if none
	cellEnd   []int32 // per cell id: one past the last offset
}

func newGridIndex(cfg *config.Config, n int) *gridIndex {
	d := &cfg.Derived
	return &gridIndex{
		res:          d.GridRes,
		cellWidth:    d.CellWidth32,
		gridMin:      d.GridMin32,
		invCellWidth: 1 / d.CellWidth32,
		neighborhood: cfg.Grid.Neighborhood,
		cellIDs:      make([]int32, n),
		sorted:       make([]int32, n),
		cellStart:    make([]int32, d.CellCount),
		cellEnd:      make([]int32, d.CellCount),
	}
}

// cellCoord maps a position to integer cell coordinates, clamped to the grid
// extent. A pure function of position and the fixed cell width.
func (g *gridIndex) cellCoord(p Vec3) (int, int, int) {
	x := g.clampAxis(int((p.X - g.gridMin) * g.invCellWidth))
	y := g.clampAxis(int((p.Y - g.gridMin) * g.invCellWidth))
	z := g.clampAxis(int((p.Z - g.gridMin) * g.invCellWidth))
	return x, y, z
}

func (g *gridIndex) clampAxis(c int) int {
	if c < 0 {
		return 0
	}
	if c >= g.res {
		return g.res - 1
	}
	return c
}

// cellID linearizes cell coordinates into a scalar id: x + y*res + z*res².
func (g *gridIndex) cellID(x, y, z int) int32 {
	return int32(x + y*g.res + z*g.res*g.res)
}

// build rebuilds the full index for the given positions: per-agent cell ids,
// the cell-grouped id ordering, and per-cell start/end ranges. The caller
// must not scan the index until build returns (pool.run is the barrier).
func (g *gridIndex) build(pool *workerPool, pos []Vec3) {
	n := len(pos)

	// Label each agent with its cell and reset the ordering to identity.
	pool.run(n, func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			x, y, z := g.cellCoord(pos[i])
			g.cellIDs[i] = g.cellID(x, y, z)
			g.sorted[i] = int32(i)
		}
	})

	// Group ids by cell. Ordering within a cell is don't-care, so an
	// unstable sort is fine.
	slices.SortFunc(g.sorted, func(a, b int32) int {
		return cmp.Compare(g.cellIDs[a], g.cellIDs[b])
	})

	pool.run(len(g.cellStart), func(i0, i1 int) {
		for c := i0; c < i1; c++ {
			g.cellStart[c] = emptyCell
		}
	})

	// Boundary detection over the sorted sequence. Each cell's start and end
	// are written by exactly one position, so chunks never conflict.
	pool.run(n, func(i0, i1 int) {
		for p := i0; p < i1; p++ {
			c := g.cellIDs[g.sorted[p]]
			if p == 0 || c != g.cellIDs[g.sorted[p-1]] {
				g.cellStart[c] = int32(p)
			}
			if p == n-1 || c != g.cellIDs[g.sorted[p+1]] {
				g.cellEnd[c] = int32(p + 1)
			}
		}
	})
}

// scanBounds returns the inclusive cell-coordinate block to search for
// neighbors of an agent at p. With the 27-cell policy this is the 3x3x3
// block around the agent's cell; with the 8-cell policy (doubled cell
// width) it is the 2x2x2 block nearest the agent's position within its
// cell. Bounds are clamped to the grid extent; the domain wrap never
// aliases neighborhoods because distances stay Euclidean.
func (g *gridIndex) scanBounds(p Vec3) (x0, x1, y0, y1, z0, z1 int) {
	cx, cy, cz := g.cellCoord(p)

	if g.neighborhood == 8 {
		x0, x1 = g.halfBounds(p.X, cx)
		y0, y1 = g.halfBounds(p.Y, cy)
		z0, z1 = g.halfBounds(p.Z, cz)
		return
	}

	x0, x1 = g.clampAxis(cx-1), g.clampAxis(cx+1)
	y0, y1 = g.clampAxis(cy-1), g.clampAxis(cy+1)
	z0, z1 = g.clampAxis(cz-1), g.clampAxis(cz+1)
	return
}

// halfBounds picks the two cells along one axis whose union covers the
// interaction radius: the agent's own cell plus the one on the side the
// agent is nearer to. Valid only because the 8-cell policy sets cell width
// to twice the largest rule radius.
func (g *gridIndex) halfBounds(coord float32, c int) (int, int) {
	center := g.gridMin + (float32(c)+0.5)*g.cellWidth
	if coord < center {
		return g.clampAxis(c - 1), c
	}
	return c, g.clampAxis(c + 1)
}

// SelfCheck exercises the sort and cell-range derivation in isolation, with
// no rule semantics: a deterministic scattering of agents is indexed and the
// resulting structure verified. Intended as a startup sanity check; the
// driver runs it behind a flag.
func SelfCheck(cfg *config.Config) error {
	const n = 256
	rng := rand.New(rand.NewSource(42))

	pos := make([]Vec3, n)
	scale := cfg.Derived.Scale32
	for i := range pos {
		pos[i] = Vec3{
			X: (rng.Float32()*2 - 1) * scale,
			Y: (rng.Float32()*2 - 1) * scale,
			Z: (rng.Float32()*2 - 1) * scale,
		}
	}

	g := newGridIndex(cfg, n)
	pool := newWorkerPool()
	defer pool.stop()
	g.build(pool, pos)

	return g.verify(n)
}

// verify checks the structural invariants of a built index: the sorted array
// is a permutation of 0..n-1, ids within each [start, end) range share that
// range's cell, and the non-empty ranges partition the array with no gaps
// or overlaps.
func (g *gridIndex) verify(n int) error {
	seen := make([]bool, n)
	for p, id := range g.sorted {
		if id < 0 || int(id) >= n {
			return fmt.Errorf("flock: sorted[%d] = %d out of range", p, id)
		}
		if seen[id] {
			return fmt.Errorf("flock: agent %d appears twice in sorted order", id)
		}
		seen[id] = true
	}

	next := int32(0)
	for c := range g.cellStart {
		start := g.cellStart[c]
		if start == emptyCell {
			continue
		}
		if start != next {
			return fmt.Errorf("flock: cell %d starts at %d, expected %d", c, start, next)
		}
		end := g.cellEnd[c]
		if end <= start || end > int32(n) {
			return fmt.Errorf("flock: cell %d has invalid range [%d, %d)", c, start, end)
		}
		for p := start; p < end; p++ {
			if g.cellIDs[g.sorted[p]] != int32(c) {
				return fmt.Errorf("flock: agent %d at offset %d is in cell %d, range belongs to %d",
					g.sorted[p], p, g.cellIDs[g.sorted[p]], c)
			}
		}
		next = end
	}
	if next != int32(n) {
		return fmt.Errorf("flock: cell ranges cover %d of %d agents", next, n)
	}
	return nil
}
