package app

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/oviz-lab/fluidlab/slicing"
	"github.com/oviz-lab/fluidlab/space"
	"github.com/oviz-lab/fluidlab/telemetry"
)

// step runs one pass of the update pipeline: snapshot the pose, refresh the
// probe and effector caches, recompute the clip plane, advance the tracers.
// It runs on the update context only.
func (a *App) step() {
	now := a.clock()
	a.rec.StartFrame()

	a.rec.StartPhase(telemetry.PhasePose)
	model, stylus, zoom, tangible, stylusVis, have := a.snapshotPose()
	if !have {
		a.rec.DropFrame()
		return
	}
	frame, ok := space.NewFrame(model, zoom, a.field.Dims, a.field.Spacing)
	if !ok {
		// Degenerate model pose. Keep last frame's outputs on screen.
		slog.Debug("pose dropped", "reason", "degenerate model matrix")
		a.rec.RecordPoseDrop()
		a.rec.DropFrame()
		return
	}

	a.rec.StartPhase(telemetry.PhaseProbe)
	a.updateEffector(frame, stylus, stylusVis)
	a.updateProbe(frame, stylus, stylusVis)

	a.rec.StartPhase(telemetry.PhaseClip)
	a.engineMu.Lock()
	mode := a.mode
	var res slicing.Result
	if mode != slicing.ModeOff {
		res = a.engine.Compute(mode, slicing.Input{
			Frame:           frame,
			Stylus:          stylus,
			TangibleVisible: tangible,
			StylusVisible:   stylusVis,
		})
	}
	a.engineMu.Unlock()

	a.sliceMu.Lock()
	a.slice = res
	a.sliceMu.Unlock()

	a.rec.StartPhase(telemetry.PhaseAdvect)
	stats := a.pool.Advance(a.field, now, tangible)
	a.rec.RecordAdvance(stats)

	a.rec.StartPhase(telemetry.PhaseEmit)
	a.frameID.Add(1)
	a.rec.FrameDone(a, now, mode, res)
}

// effectorPoint is the stylus tip in eye space, offset along the stylus
// forward axis.
func (a *App) effectorPoint(stylus mgl32.Mat4) mgl32.Vec3 {
	tip := space.Forward.Mul(float32(a.cfg.Probe.EffectorPad))
	return mgl32.TransformCoordinate(tip, stylus)
}

// updateEffector recomputes the cached stylus ray / volume intersection.
// The ray is cast in voxel space against the dataset box; the exit point is
// the reported hit, matching a stylus that is pushed into the volume.
func (a *App) updateEffector(frame space.Frame, stylus mgl32.Mat4, stylusVis bool) {
	hit := EffectorHit{}
	if stylusVis && stylus.Det() != 0 {
		origin := frame.ToData(mgl32.TransformCoordinate(mgl32.Vec3{}, stylus))
		fwdEye := stylus.Mat3().Mul3x1(space.Forward)
		dir := frame.DirToData(fwdEye)

		boxMax := mgl32.Vec3{
			float32(frame.Dims[0]) * frame.Spacing[0],
			float32(frame.Dims[1]) * frame.Spacing[1],
			float32(frame.Dims[2]) * frame.Spacing[2],
		}
		if _, tmax, ok := space.IntersectAABB(origin, dir, mgl32.Vec3{}, boxMax); ok && tmax > 0 {
			hit = EffectorHit{
				Point: frame.ToEye(origin.Add(dir.Mul(tmax))),
				Valid: true,
			}
		}
	}

	a.effectorMu.Lock()
	a.effector = hit
	a.effectorMu.Unlock()
}

// updateProbe samples the scalar field at the effector while the button
// gesture is active, low-passing the value against the previous sample.
func (a *App) updateProbe(frame space.Frame, stylus mgl32.Mat4, stylusVis bool) {
	a.probeMu.Lock()
	probing := a.probing
	prev := a.probeValue
	seen := a.probeSeen
	a.probeMu.Unlock()

	if !probing || !stylusVis {
		return
	}

	dataPos := frame.ToData(a.effectorPoint(stylus))
	v, err := a.field.SampleScalar(dataPos)
	if err != nil {
		// Outside the volume is a defined miss, not an error.
		return
	}
	if seen {
		v = space.LowPass(v, prev, float32(a.cfg.Probe.FilterWeight))
	}

	var pct float64
	if span := a.field.Max - a.field.Min; span > 0 {
		pct = float64((v - a.field.Min) / span)
	}

	a.probeMu.Lock()
	a.probeValue = v
	a.probeSeen = true
	a.probePct = pct
	a.probeData = dataPos
	a.probeMu.Unlock()
}

// FrameState is everything the render path needs for one drawn frame,
// copied out entity by entity so the renderer never holds a live reference
// into the update path's state.
type FrameState struct {
	FrameID int64

	Model           mgl32.Mat4
	Stylus          mgl32.Mat4
	Zoom            float32
	TangibleVisible bool
	StylusVisible   bool

	// Volume outline, eye space, one segment per box edge.
	Outline [12][2]mgl32.Vec3

	// Clip plane coefficients for the slice and isosurface renderables.
	// ClipActive false means "clear clip plane". VolumeClip extends the
	// plane to the volume renderable; it clears while tracers are drawn so
	// the streaks read against the whole volume.
	ClipActive bool
	VolumeClip bool
	ClipNormal mgl32.Vec3
	ClipOffset float32
	PlaneDepth float32
	Mode       slicing.Mode
	Axis       slicing.Axis

	// Slice quad placement and outline.
	Quad     mgl32.Mat4
	HasQuad  bool
	Boundary []mgl32.Vec3
	Guides   [][2]mgl32.Vec3

	// Tracer positions in eye space.
	Particles []mgl32.Vec3

	Effector       EffectorHit
	Probing        bool
	SurfacePct     float64
	HasVectors     bool
	ShowIsosurface bool
	VolumeOpacity  float32
}

// boxEdges lists the unit box edges as corner index pairs into the corner
// bit pattern (x bit 0, y bit 1, z bit 2).
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// FrameState snapshots the shared state for the render path. Locks are
// taken one at a time and never nested.
func (a *App) FrameState() FrameState {
	model, stylus, zoom, tangible, stylusVis, have := a.snapshotPose()

	fs := FrameState{
		FrameID:         a.frameID.Load(),
		Model:           model,
		Stylus:          stylus,
		Zoom:            zoom,
		TangibleVisible: tangible && have,
		StylusVisible:   stylusVis && have,
		HasVectors:      a.field.HasVectors(),
		ShowIsosurface:  a.ShowIsosurface(),
		VolumeOpacity:   1,
	}

	if frame, ok := space.NewFrame(model, zoom, a.field.Dims, a.field.Spacing); ok {
		ext := frame.Extent()
		var corners [8]mgl32.Vec3
		for i := range corners {
			corners[i] = frame.ToEye(mgl32.Vec3{
				float32(i&1) * ext.X(),
				float32(i>>1&1) * ext.Y(),
				float32(i>>2&1) * ext.Z(),
			})
		}
		for i, e := range boxEdges {
			fs.Outline[i] = [2]mgl32.Vec3{corners[e[0]], corners[e[1]]}
		}
		fs.Particles = a.pool.Snapshot(frame)
	}
	if len(fs.Particles) > 0 {
		fs.VolumeOpacity = float32(a.cfg.Volume.OpacityWithTracers)
	}

	a.sliceMu.Lock()
	res := a.slice
	a.sliceMu.Unlock()
	if res.OK {
		fs.ClipActive = true
		n := res.Plane.Normal
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		fs.ClipNormal = n
		fs.ClipOffset = -n.Dot(res.Plane.Point)
		fs.PlaneDepth = res.Depth
		fs.Quad = res.Quad
		fs.HasQuad = res.HasQuad
		fs.Axis = res.Axis
		fs.Boundary = append([]mgl32.Vec3(nil), res.Boundary...)
		fs.Guides = append([][2]mgl32.Vec3(nil), res.Guides...)
	}
	fs.VolumeClip = fs.ClipActive && len(fs.Particles) == 0

	a.engineMu.Lock()
	fs.Mode = a.mode
	a.engineMu.Unlock()

	fs.Effector = a.Effector()

	a.probeMu.Lock()
	fs.Probing = a.probing
	fs.SurfacePct = a.probePct
	a.probeMu.Unlock()

	return fs
}
