package flock

import (
	"math"

	"github.com/pthm-cable/flock3d/config"
)

// ruleParams holds the per-frame flocking constants. Radii are squared and
// everything is float64: accumulation runs in double precision so that the
// different summation orders of the three strategies agree to well below
// test tolerance.
type ruleParams struct {
	cohesionRadiusSq   float64
	separationRadiusSq float64
	alignmentRadiusSq  float64
	cohesionWeight     float64
	separationWeight   float64
	alignmentWeight    float64
	maxSpeed           float64
}

func newRuleParams(cfg *config.Config) ruleParams {
	return ruleParams{
		cohesionRadiusSq:   cfg.Rules.CohesionRadius * cfg.Rules.CohesionRadius,
		separationRadiusSq: cfg.Rules.SeparationRadius * cfg.Rules.SeparationRadius,
		alignmentRadiusSq:  cfg.Rules.AlignmentRadius * cfg.Rules.AlignmentRadius,
		cohesionWeight:     cfg.Rules.CohesionWeight,
		separationWeight:   cfg.Rules.SeparationWeight,
		alignmentWeight:    cfg.Rules.AlignmentWeight,
		maxSpeed:           cfg.Physics.MaxSpeed,
	}
}

// accumulator gathers the three rule sums for a single agent over whatever
// neighbor candidates a strategy enumerates. Self must not be added.
type accumulator struct {
	centerX, centerY, centerZ float64
	cohesionCount             int

	sepX, sepY, sepZ float64

	alignX, alignY, alignZ float64
	alignmentCount         int
}

// add folds one candidate neighbor into the rule sums. Candidates outside
// every rule radius contribute nothing, so strategies may pass any superset
// of the true neighbor set.
func (a *accumulator) add(p *ruleParams, selfPos, otherPos, otherVel Vec3) {
	d := distSq(selfPos, otherPos)

	if d < p.cohesionRadiusSq {
		a.centerX += float64(otherPos.X)
		a.centerY += float64(otherPos.Y)
		a.centerZ += float64(otherPos.Z)
		a.cohesionCount++
	}
	if d < p.separationRadiusSq {
		a.sepX += float64(selfPos.X) - float64(otherPos.X)
		a.sepY += float64(selfPos.Y) - float64(otherPos.Y)
		a.sepZ += float64(selfPos.Z) - float64(otherPos.Z)
	}
	if d < p.alignmentRadiusSq {
		a.alignX += float64(otherVel.X)
		a.alignY += float64(otherVel.Y)
		a.alignZ += float64(otherVel.Z)
		a.alignmentCount++
	}
}

// finish applies the weighted rule contributions to the agent's previous
// velocity and clamps the result to maxSpeed, preserving direction. Rules
// with zero neighbors contribute nothing.
func (a *accumulator) finish(p *ruleParams, selfPos, selfVel Vec3) Vec3 {
	vx := float64(selfVel.X)
	vy := float64(selfVel.Y)
	vz := float64(selfVel.Z)

	if a.cohesionCount > 0 {
		inv := 1 / float64(a.cohesionCount)
		vx += (a.centerX*inv - float64(selfPos.X)) * p.cohesionWeight
		vy += (a.centerY*inv - float64(selfPos.Y)) * p.cohesionWeight
		vz += (a.centerZ*inv - float64(selfPos.Z)) * p.cohesionWeight
	}

	vx += a.sepX * p.separationWeight
	vy += a.sepY * p.separationWeight
	vz += a.sepZ * p.separationWeight

	if a.alignmentCount > 0 {
		inv := 1 / float64(a.alignmentCount)
		vx += a.alignX * inv * p.alignmentWeight
		vy += a.alignY * inv * p.alignmentWeight
		vz += a.alignZ * inv * p.alignmentWeight
	}

	speed := math.Sqrt(vx*vx + vy*vy + vz*vz)
	if speed > p.maxSpeed {
		s := p.maxSpeed / speed
		vx *= s
		vy *= s
		vz *= s
	}

	return Vec3{float32(vx), float32(vy), float32(vz)}
}
