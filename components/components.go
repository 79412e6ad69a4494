// Package components defines ECS components for the tracer particles.
package components

import "github.com/go-gl/mathgl/mgl32"

// Tracer tags a particle entity with its pool slot. Slots are stable for
// the life of the pool; releases re-seed the same entities.
type Tracer struct {
	Slot int32
}

// Position is a tracer position in dataset voxel coordinates.
type Position struct {
	X, Y, Z float32
}

// Vec3 returns the position as a vector.
func (p *Position) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{p.X, p.Y, p.Z}
}

// Set overwrites the position from a vector.
func (p *Position) Set(v mgl32.Vec3) {
	p.X, p.Y, p.Z = v[0], v[1], v[2]
}

// Lifecycle drives a tracer through release, delayed start, advection and
// stalling. Valid is false for dormant tracers. DelayMs counts down before
// the first step; StallMs counts down while parked in stagnant flow, and
// running past it retires the tracer.
type Lifecycle struct {
	DelayMs    int32
	StallMs    int32
	LastSample int64 // wall clock of the previous advection step, unix ms
	Valid      bool
}

// Phase labels one stage of a tracer lifecycle.
type Phase uint8

const (
	PhaseDormant Phase = iota
	PhaseDelayed
	PhaseStalled
	PhaseActive
)

// Phase classifies the current lifecycle state.
func (l *Lifecycle) Phase() Phase {
	switch {
	case !l.Valid:
		return PhaseDormant
	case l.DelayMs > 0:
		return PhaseDelayed
	case l.StallMs > 0:
		return PhaseStalled
	default:
		return PhaseActive
	}
}

func (p Phase) String() string {
	switch p {
	case PhaseDormant:
		return "dormant"
	case PhaseDelayed:
		return "delayed"
	case PhaseStalled:
		return "stalled"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}
