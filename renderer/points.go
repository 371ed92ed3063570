// Package renderer draws the flock as a 3-D point cloud with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock3d/camera"
	"github.com/pthm-cable/flock3d/flock"
)

// PointRenderer owns the interop buffers the simulation copies into each
// frame and draws them as colored points inside the domain wireframe.
type PointRenderer struct {
	n          int
	scale      float32
	maxSpeed   float32
	positions  []float32
	velocities []float32
}

// New creates a renderer with interop buffers sized for n agents.
func New(n int, scale, maxSpeed float32) *PointRenderer {
	return &PointRenderer{
		n:          n,
		scale:      scale,
		maxSpeed:   maxSpeed,
		positions:  make([]float32, 3*n),
		velocities: make([]float32, 3*n),
	}
}

// Sync copies the simulation's current state into the renderer's buffers.
func (r *PointRenderer) Sync(sim *flock.Simulation) error {
	return sim.CopyToRender(r.positions, r.velocities)
}

// Draw renders the current buffer contents from the given camera.
func (r *PointRenderer) Draw(cam *camera.Camera) {
	ex, ey, ez := cam.Eye()
	rlCam := rl.Camera3D{
		Position:   rl.Vector3{X: ex, Y: ey, Z: ez},
		Target:     rl.Vector3{X: cam.TargetX, Y: cam.TargetY, Z: cam.TargetZ},
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       50,
		Projection: rl.CameraPerspective,
	}

	rl.BeginMode3D(rlCam)

	// Domain outline
	width := 2 * r.scale
	rl.DrawCubeWires(rl.Vector3{}, width, width, width, rl.Gray)

	pointSize := r.scale / 200
	if pointSize < 0.25 {
		pointSize = 0.25
	}

	for i := 0; i < r.n; i++ {
		p := rl.Vector3{
			X: r.positions[3*i],
			Y: r.positions[3*i+1],
			Z: r.positions[3*i+2],
		}
		rl.DrawCube(p, pointSize, pointSize, pointSize, r.velocityColor(i))
	}

	rl.EndMode3D()
}

// velocityColor maps an agent's velocity direction to RGB so the flock's
// local alignment is visible: each axis component contributes one channel.
func (r *PointRenderer) velocityColor(i int) rl.Color {
	return rl.Color{
		R: channel(r.velocities[3*i], r.maxSpeed),
		G: channel(r.velocities[3*i+1], r.maxSpeed),
		B: channel(r.velocities[3*i+2], r.maxSpeed),
		A: 255,
	}
}

func channel(v, maxSpeed float32) uint8 {
	if v < 0 {
		v = -v
	}
	c := v / maxSpeed
	if c > 1 {
		c = 1
	}
	// Keep a floor so slow agents stay visible against the background
	return uint8(64 + c*191)
}
