// Package ui provides the viewer's parameter panel.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// State holds the live-tunable viewer settings the panel edits.
type State struct {
	Strategy         int32 // 0 = naive, 1 = scattered, 2 = coherent
	Paused           bool
	CohesionWeight   float32
	SeparationWeight float32
	AlignmentWeight  float32
}

// StrategyNames indexes State.Strategy.
var StrategyNames = []string{"naive", "scattered", "coherent"}

// Panel renders the parameter panel and mutates State from user input.
type Panel struct {
	x, y    int32
	width   int32
	visible bool
}

// NewPanel creates a panel anchored at the given screen position.
func NewPanel(x, y, width int32) *Panel {
	return &Panel{x: x, y: y, width: width, visible: true}
}

// Toggle switches panel visibility.
func (p *Panel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// Draw renders the panel and applies any user edits to st. Returns true if
// a setting changed this frame.
func (p *Panel) Draw(st *State) bool {
	if !p.visible {
		return false
	}

	const rowH = 24
	const pad = 8
	x := float32(p.x + pad)
	w := float32(p.width - 2*pad)
	y := float32(p.y + pad)

	gui.Panel(rl.Rectangle{X: float32(p.x), Y: float32(p.y), Width: float32(p.width), Height: 6*rowH + 4*pad}, "Simulation")
	y += rowH

	before := *st

	st.Strategy = gui.ToggleGroup(rl.Rectangle{X: x, Y: y, Width: w / 3, Height: rowH - 4}, "NAIVE;SCATTERED;COHERENT", st.Strategy)
	y += rowH

	st.Paused = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: rowH - 8, Height: rowH - 8}, "paused", st.Paused)
	y += rowH

	st.CohesionWeight = gui.Slider(rl.Rectangle{X: x + 80, Y: y, Width: w - 140, Height: rowH - 8},
		"cohesion", fmt.Sprintf("%.3f", st.CohesionWeight), st.CohesionWeight, 0, 0.1)
	y += rowH

	st.SeparationWeight = gui.Slider(rl.Rectangle{X: x + 80, Y: y, Width: w - 140, Height: rowH - 8},
		"separation", fmt.Sprintf("%.3f", st.SeparationWeight), st.SeparationWeight, 0, 0.5)
	y += rowH

	st.AlignmentWeight = gui.Slider(rl.Rectangle{X: x + 80, Y: y, Width: w - 140, Height: rowH - 8},
		"alignment", fmt.Sprintf("%.3f", st.AlignmentWeight), st.AlignmentWeight, 0, 0.5)

	return *st != before
}
