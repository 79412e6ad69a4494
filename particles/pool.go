// Package particles owns the tracer pool and advects it through the
// velocity field.
package particles

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/oviz-lab/fluidlab/components"
	"github.com/oviz-lab/fluidlab/dataset"
	"github.com/oviz-lab/fluidlab/space"
)

// Params configures a tracer pool.
type Params struct {
	PoolSize          int
	ReleaseDurationMs int     // staggered start window for one release
	StallDurationMs   int     // grace period in stagnant flow before retiring
	StepSize          float32 // velocity multiplier per 1 ms sub-step
	SpeedThreshold    float32 // flow below this magnitude counts as stagnant
	JitterScale       float32
	SwapVelocityXY    bool // dataset convention correction, see config corrections
}

// TracerState is a copy of one tracer's state for rendering and telemetry.
type TracerState struct {
	Slot    int32
	Pos     mgl32.Vec3
	Phase   components.Phase
	DelayMs int32
	StallMs int32
}

// Pool is a fixed set of tracer entities. Entities are created once and
// never removed; releases re-seed them and expiry only flips their phase.
// All public methods take the pool lock, so the update and render contexts
// can call in concurrently.
type Pool struct {
	mu     sync.Mutex
	world  *ecs.World
	mapper *ecs.Map3[components.Tracer, components.Position, components.Lifecycle]
	filter *ecs.Filter3[components.Tracer, components.Position, components.Lifecycle]
	params Params
	rng    *rand.Rand
}

// NewPool creates the tracer entities up front. A non-positive pool size is
// clamped to one so the release stagger division stays defined.
func NewPool(params Params, seed int64) *Pool {
	if params.PoolSize < 1 {
		params.PoolSize = 1
	}
	world := ecs.NewWorld()

	p := &Pool{
		world: world,
		mapper: ecs.NewMap3[
			components.Tracer,
			components.Position,
			components.Lifecycle,
		](world),
		filter: ecs.NewFilter3[
			components.Tracer,
			components.Position,
			components.Lifecycle,
		](world),
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
	}

	for i := 0; i < params.PoolSize; i++ {
		tracer := components.Tracer{Slot: int32(i)}
		pos := components.Position{}
		life := components.Lifecycle{}
		p.mapper.NewEntity(&tracer, &pos, &life)
	}
	return p
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return p.params.PoolSize
}

// jitter spreads tracers of one release across a unit cell.
func (p *Pool) jitter() mgl32.Vec3 {
	return mgl32.Vec3{
		p.rng.Float32(),
		p.rng.Float32(),
		p.rng.Float32(),
	}.Mul(p.params.JitterScale)
}

// Release seeds the whole pool around an eye-space seed point. Start delays
// are staggered across the release window so tracers form a streak instead
// of a blob. Returns false without touching any tracer when the seed falls
// outside the dataset.
func (p *Pool) Release(frame space.Frame, field *dataset.Field, seedEye mgl32.Vec3, nowMs int64) bool {
	dataPos := frame.ToData(seedEye)
	if dataPos.X() < 0 || dataPos.Y() < 0 || dataPos.Z() < 0 ||
		dataPos.X() >= float32(field.Dims[0]) ||
		dataPos.Y() >= float32(field.Dims[1]) ||
		dataPos.Z() >= float32(field.Dims[2]) {
		return false
	}
	base := mgl32.Vec3{
		float32(int32(dataPos.X())),
		float32(int32(dataPos.Y())),
		float32(int32(dataPos.Z())),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	step := int32(p.params.ReleaseDurationMs / p.params.PoolSize)
	delay := int32(0)
	query := p.filter.Query()
	for query.Next() {
		_, pos, life := query.Get()
		pos.Set(base.Add(p.jitter()))
		life.LastSample = nowMs
		life.DelayMs = delay
		delay += step
		life.StallMs = 0
		life.Valid = true
	}
	return true
}

// Reset retires every tracer immediately.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	query := p.filter.Query()
	for query.Next() {
		_, pos, life := query.Get()
		pos.Set(mgl32.Vec3{})
		life.StallMs = 0
		life.Valid = false
	}
}

// RetireCause says why a tracer left the active set.
type RetireCause uint8

const (
	RetireNone RetireCause = iota
	RetireBounds
	RetireStalled
)

// AdvanceStats summarizes one advance pass.
type AdvanceStats struct {
	Steps          int
	RetiredBounds  int
	RetiredStalled int
}

// Advance steps every tracer up to nowMs. Advection integrates the velocity
// field in 1 ms Euler sub-steps, so a tracer's path does not depend on the
// frame rate. While the tangible is hidden nothing moves and clocks are not
// read, which freezes elapsed time accounting at the last visible frame.
func (p *Pool) Advance(field *dataset.Field, nowMs int64, tangibleVisible bool) AdvanceStats {
	var st AdvanceStats
	if !field.HasVectors() {
		return st
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	query := p.filter.Query()
	for query.Next() {
		_, pos, life := query.Get()
		steps, cause := p.advanceOne(field, pos, life, nowMs, tangibleVisible)
		st.Steps += steps
		switch cause {
		case RetireBounds:
			st.RetiredBounds++
		case RetireStalled:
			st.RetiredStalled++
		}
	}
	return st
}

// advanceOne is the per-tracer state machine: drain the start delay, sit
// out or expire a stall, then integrate whole milliseconds of motion.
func (p *Pool) advanceOne(field *dataset.Field, pos *components.Position, life *components.Lifecycle, nowMs int64, tangibleVisible bool) (int, RetireCause) {
	if !life.Valid {
		return 0, RetireNone
	}
	if !tangibleVisible {
		return 0, RetireNone
	}

	elapsed := int32(nowMs - life.LastSample)
	if elapsed < 0 {
		elapsed = 0
	}
	life.LastSample = nowMs

	if life.DelayMs > 0 {
		life.DelayMs -= elapsed
		if life.DelayMs < 0 {
			// The delay ran out mid-frame; the remainder becomes motion.
			elapsed = -life.DelayMs
		} else {
			return 0, RetireNone
		}
	}

	if life.StallMs > 0 {
		life.StallMs -= elapsed
		if life.StallMs < 0 {
			life.Valid = false
			return 0, RetireStalled
		}
		return 0, RetireNone
	}

	steps := 0
	dims := field.Dims
	for elapsed > 0 {
		elapsed--

		x := int(int32(pos.X))
		y := int(int32(pos.Y))
		z := int(int32(pos.Z))
		if x < 0 || y < 0 || z < 0 || x >= dims[0] || y >= dims[1] || z >= dims[2] {
			life.Valid = false
			return steps, RetireBounds
		}

		i := (z*(dims[0]*dims[1]) + y*dims[0] + x) * 3
		var vel mgl32.Vec3
		if p.params.SwapVelocityXY {
			vel = mgl32.Vec3{field.Vectors[i+1], field.Vectors[i], field.Vectors[i+2]}
		} else {
			vel = mgl32.Vec3{field.Vectors[i], field.Vectors[i+1], field.Vectors[i+2]}
		}

		if vel.Len() > p.params.SpeedThreshold {
			step := vel.Mul(p.params.StepSize)
			pos.X += step[0]
			pos.Y += step[1]
			pos.Z += step[2]
			steps++
		} else {
			life.StallMs = int32(p.params.StallDurationMs)
			break
		}
	}
	return steps, RetireNone
}

// Snapshot returns eye-space positions of the tracers that should be drawn:
// released ones whose start delay has run out.
func (p *Pool) Snapshot(frame space.Frame) []mgl32.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]mgl32.Vec3, 0, p.params.PoolSize)
	query := p.filter.Query()
	for query.Next() {
		_, pos, life := query.Get()
		if !life.Valid || life.DelayMs > 0 {
			continue
		}
		out = append(out, frame.ToEye(pos.Vec3()))
	}
	return out
}

// States returns a copy of every tracer's state, ordered by slot.
func (p *Pool) States() []TracerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]TracerState, 0, p.params.PoolSize)
	query := p.filter.Query()
	for query.Next() {
		tracer, pos, life := query.Get()
		out = append(out, TracerState{
			Slot:    tracer.Slot,
			Pos:     pos.Vec3(),
			Phase:   life.Phase(),
			DelayMs: life.DelayMs,
			StallMs: life.StallMs,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// AliveCount returns the number of released, not yet expired tracers.
func (p *Pool) AliveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	query := p.filter.Query()
	for query.Next() {
		_, _, life := query.Get()
		if life.Valid {
			n++
		}
	}
	return n
}
