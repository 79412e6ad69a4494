package slicing

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/oviz-lab/fluidlab/space"
)

// Params collects the tuning constants of the plane engine.
type Params struct {
	// ClipDistance is where the camera plane sits, in eye units in front of
	// the viewer. The axis plane passes through the same depth.
	ClipDistance float32
	// CameraFilterWeight smooths camera plane motion along the view
	// direction. 1 disables smoothing.
	CameraFilterWeight float32
	// HysteresisMargin is how decisively a volume axis must beat the
	// current one before the axis plane reorients.
	HysteresisMargin float32
	// GuideEpsilon is the data-space tolerance for two boundary points to
	// count as lying on the same volume face.
	GuideEpsilon float32
	// MaxBoundaryPoints caps the slice outline size.
	MaxBoundaryPoints int
	// StylusPlanePad widens the stylus slice quad beyond the volume extent.
	StylusPlanePad float32
}

// Input is one frame of tracking state.
type Input struct {
	Frame           space.Frame
	Stylus          mgl32.Mat4
	TangibleVisible bool
	StylusVisible   bool
}

// Result is the plane computed for one frame. When OK is false the
// renderables stay unclipped and every other field is meaningless.
type Result struct {
	OK bool
	// Plane is in eye space. The normal is unit length in camera mode only;
	// axis and stylus planes carry the raw rotated axis.
	Plane space.Plane
	// Depth is the filtered plane distance, camera mode only.
	Depth float32
	// Quad positions a unit slice quad in eye space, axis and stylus modes.
	Quad    mgl32.Mat4
	HasQuad bool
	// Axis is the axis in effect, axis mode only.
	Axis Axis
	// Boundary holds the eye-space points where the plane crosses the
	// volume edges. Guides joins the pairs that share a volume face.
	Boundary []mgl32.Vec3
	Guides   [][2]mgl32.Vec3
}

// Engine turns tracking state into a cutting plane. Smoothing and axis lock
// state live on the instance, so independent volumes need independent
// engines. Not safe for concurrent use.
type Engine struct {
	params Params
	proj   mgl32.Mat4

	// camera plane smoothing
	camPrev    mgl32.Vec3
	camVisible bool

	// axis plane selection
	axis   Axis
	locked Axis
	forced Axis
}

func NewEngine(params Params, proj mgl32.Mat4) *Engine {
	return &Engine{params: params, proj: proj}
}

// SetProjection swaps the projection matrix, typically after a viewport
// change.
func (e *Engine) SetProjection(proj mgl32.Mat4) { e.proj = proj }

// SetForcedAxis pins the axis strategy to one axis, bypassing best-fit
// selection and locking. AxisNone returns control to the classifier.
func (e *Engine) SetForcedAxis(a Axis) { e.forced = a }

func (e *Engine) ForcedAxis() Axis { return e.forced }

// Candidate is the best-fit axis from the last classification.
func (e *Engine) Candidate() Axis { return e.axis }

// Locked is the axis the plane is currently held to, AxisNone when free.
func (e *Engine) Locked() Axis { return e.locked }

// Reset drops the smoothing and lock state, typically on a dataset change.
// The forced axis is a user setting and survives.
func (e *Engine) Reset() {
	e.camVisible = false
	e.camPrev = mgl32.Vec3{}
	e.axis = AxisNone
	e.locked = AxisNone
}

// Compute runs the strategy for mode and intersects the resulting plane
// with the volume. In axis mode a slice that still crosses the volume locks
// the chosen axis in place; one that misses releases the lock.
func (e *Engine) Compute(mode Mode, in Input) Result {
	var res Result
	switch mode {
	case ModeCamera:
		res = e.camera(in)
	case ModeAxis:
		res = e.axisPlane(in)
	case ModeStylus:
		res = e.stylus(in)
	default:
		return Result{}
	}
	if !res.OK {
		return res
	}
	res.Boundary = e.boundary(in.Frame, res.Plane)
	res.Guides = e.pairGuides(in.Frame, res.Boundary)
	if mode == ModeAxis && e.forced == AxisNone {
		if len(res.Boundary) > 0 {
			e.locked = res.Axis
		} else {
			e.locked = AxisNone
		}
	}
	return res
}

// camera keeps the plane at a fixed distance in front of the viewer. Motion
// of the volume along the view direction is low-pass filtered so the slice
// does not flicker with tracking noise, while lateral motion passes through
// untouched.
func (e *Engine) camera(in Input) Result {
	if !in.TangibleVisible {
		e.camVisible = false
		return Result{}
	}
	f := in.Frame

	// Screen center at the clip distance, in object space.
	obj := mgl32.TransformCoordinate(space.Forward.Mul(e.params.ClipDistance), f.Inv())

	// View direction in object space.
	n := f.DirToData(space.Forward).Normalize()

	// Replace the along-view component with its filtered history.
	if e.camVisible {
		smoothed := space.LowPassVec3(obj, e.camPrev, e.params.CameraFilterWeight)
		obj = obj.Sub(space.ProjectOn(obj, n)).Add(space.ProjectOn(smoothed, n))
	}
	e.camVisible = true
	e.camPrev = obj

	depth := -mgl32.TransformCoordinate(obj, f.Model).Z()
	pt := space.UnprojectDepth(e.proj, space.DepthAt(e.proj, depth))

	return Result{
		OK:    true,
		Plane: space.Plane{Point: pt, Normal: space.Back},
		Depth: depth,
	}
}

// axisPlane holds the plane against whichever volume face is turned toward
// the viewer.
func (e *Engine) axisPlane(in Input) Result {
	f := in.Frame

	ca := e.forced
	if ca == AxisNone {
		if in.TangibleVisible {
			e.classify(f)
		} else {
			e.axis = AxisNone
			e.locked = AxisNone
		}
		if e.locked != AxisNone {
			ca = e.locked
		} else {
			ca = e.axis
		}
	} else if !in.TangibleVisible {
		return Result{}
	}
	if ca == AxisNone {
		return Result{}
	}

	axisVec := ca.Vec()

	// Project the clip-distance point onto the chosen axis in object space,
	// so the plane stays axis-aligned while tracking screen depth.
	eyePt := space.UnprojectDepth(e.proj, space.DepthAt(e.proj, e.params.ClipDistance))
	ptObj := mgl32.TransformCoordinate(eyePt, f.Inv())
	absAxis := mgl32.Vec3{
		mgl32.Abs(axisVec.X()),
		mgl32.Abs(axisVec.Y()),
		mgl32.Abs(axisVec.Z()),
	}
	pt2Obj := absAxis.Mul(absAxis.Dot(ptObj))
	pt2 := mgl32.TransformCoordinate(pt2Obj, f.Model)

	size := 0.5 * f.MaxExtent()
	scale := mgl32.Vec3{f.Zoom * size, f.Zoom * size, 0}
	quad := f.Model.Mul4(space.Compose(pt2Obj, quadRot(ca), scale))

	return Result{
		OK:      true,
		Plane:   space.Plane{Point: pt2, Normal: f.DirToEye(axisVec)},
		Quad:    quad,
		HasQuad: true,
		Axis:    ca,
	}
}

// classify picks the volume axis most aligned with the view direction. A
// standing choice only yields once a competitor dominates by the hysteresis
// margin, and a locked axis flips to its negation when the volume is turned
// around.
func (e *Engine) classify(f space.Frame) {
	xDot := f.DirToEye(mgl32.Vec3{1, 0, 0}).Normalize().Dot(space.Forward)
	yDot := f.DirToEye(mgl32.Vec3{0, 1, 0}).Normalize().Dot(space.Forward)
	zDot := f.DirToEye(mgl32.Vec3{0, 0, 1}).Normalize().Dot(space.Forward)

	var margin float32
	if e.axis != AxisNone {
		margin = e.params.HysteresisMargin
	}
	ax := mgl32.Abs(xDot)
	ay := mgl32.Abs(yDot)
	az := mgl32.Abs(zDot)
	switch {
	case ax > ay+margin && ax > az+margin:
		e.axis = signedAxis(AxisX, xDot)
	case ay > ax+margin && ay > az+margin:
		e.axis = signedAxis(AxisY, yDot)
	case az > ax+margin && az > ay+margin:
		e.axis = signedAxis(AxisZ, zDot)
	}

	if e.locked != AxisNone {
		if f.DirToEye(e.locked.Vec()).Normalize().Dot(space.Forward) < 0 {
			e.locked = e.locked.Negate()
		}
	}
}

// signedAxis orients a towards the viewer.
func signedAxis(a Axis, dot float32) Axis {
	if dot > 0 {
		return a
	}
	return a.Negate()
}

// quadRot orients a z-flat unit quad to face along the axis. The extra half
// turn around z keeps the slice texture upright.
func quadRot(a Axis) mgl32.Quat {
	halfTurn := mgl32.QuatRotate(math.Pi, mgl32.Vec3{0, 0, 1})
	switch a {
	case AxisX:
		return mgl32.QuatRotate(-math.Pi/2, mgl32.Vec3{0, 1, 0}).Mul(halfTurn)
	case AxisY:
		return mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{1, 0, 0}).Mul(halfTurn)
	case AxisZ:
		return mgl32.QuatIdent()
	case AxisNegX:
		return mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0}).Mul(halfTurn)
	case AxisNegY:
		return mgl32.QuatRotate(-math.Pi/2, mgl32.Vec3{1, 0, 0}).Mul(halfTurn)
	case AxisNegZ:
		return mgl32.QuatRotate(math.Pi, mgl32.Vec3{1, 0, 0})
	default:
		return mgl32.QuatIdent()
	}
}

// stylus carries the plane on the stylus, slid within its own plane so it
// stays centered on the volume even when the stylus is held off to the
// side.
func (e *Engine) stylus(in Input) Result {
	if !in.StylusVisible {
		return Result{}
	}
	f := in.Frame
	// Tracking glitches occasionally deliver a degenerate stylus pose.
	if in.Stylus.Det() == 0 {
		return Result{}
	}
	smmInv := in.Stylus.Inv()

	size := 0.5 * (e.params.StylusPlanePad + f.MaxExtent())

	volCenter := mgl32.TransformCoordinate(mgl32.Vec3{}, f.Model)
	inStylus := mgl32.TransformCoordinate(volCenter, smmInv)
	offset := space.RejectFrom(inStylus, mgl32.Vec3{0, 0, 1})

	planeMat := in.Stylus.Mul4(mgl32.Translate3D(offset.X(), offset.Y(), offset.Z()))
	pt2 := mgl32.TransformCoordinate(mgl32.Vec3{}, planeMat)

	scale := mgl32.Vec3{f.Zoom * size, f.Zoom * size, 0}
	quad := planeMat.Mul4(space.Compose(mgl32.Vec3{}, mgl32.QuatIdent(), scale))

	normal := smmInv.Transpose().Mat3().Mul3x1(mgl32.Vec3{0, 0, 1})

	return Result{
		OK:      true,
		Plane:   space.Plane{Point: pt2, Normal: normal},
		Quad:    quad,
		HasQuad: true,
	}
}

// boundary intersects the plane with the twelve volume edges. Corners are
// data-space, hits are eye-space. Edge directions cross into eye space
// without the zoom scale, so the edge parameter runs to the zoom factor
// rather than 1.
func (e *Engine) boundary(f space.Frame, pl space.Plane) []mgl32.Vec3 {
	ext := f.Extent()
	pts := make([]mgl32.Vec3, 0, e.params.MaxBoundaryPoints)

	edges := [3]struct {
		dir     mgl32.Vec3
		corners [4]mgl32.Vec3
	}{
		{
			dir: mgl32.Vec3{ext.X(), 0, 0},
			corners: [4]mgl32.Vec3{
				{0, 0, 0},
				{0, ext.Y(), 0},
				{0, 0, ext.Z()},
				{0, ext.Y(), ext.Z()},
			},
		},
		{
			dir: mgl32.Vec3{0, ext.Y(), 0},
			corners: [4]mgl32.Vec3{
				{0, 0, 0},
				{ext.X(), 0, 0},
				{0, 0, ext.Z()},
				{ext.X(), 0, ext.Z()},
			},
		},
		{
			dir: mgl32.Vec3{0, 0, ext.Z()},
			corners: [4]mgl32.Vec3{
				{0, 0, 0},
				{ext.X(), 0, 0},
				{0, ext.Y(), 0},
				{ext.X(), ext.Y(), 0},
			},
		},
	}

	for _, edge := range edges {
		dir := f.DirToEye(edge.dir)
		for _, corner := range edge.corners {
			if len(pts) == cap(pts) {
				return pts
			}
			origin := f.ToEye(corner)
			t, ok := pl.IntersectRay(origin, dir)
			if ok && t >= 0 && t <= f.Zoom {
				pts = append(pts, origin.Add(dir.Mul(t)))
			}
		}
	}
	return pts
}

// pairGuides joins boundary points that lie on a common volume face, giving
// the on-surface outline of the cut. Faces are axis-aligned in data space,
// so sharing a face means sharing a data coordinate.
func (e *Engine) pairGuides(f space.Frame, pts []mgl32.Vec3) [][2]mgl32.Vec3 {
	if len(pts) < 2 {
		return nil
	}
	data := make([]mgl32.Vec3, len(pts))
	for i, p := range pts {
		data[i] = f.ToData(p)
	}
	eps := e.params.GuideEpsilon
	segs := make([][2]mgl32.Vec3, 0, len(pts))
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if mgl32.Abs(data[i].X()-data[j].X()) < eps ||
				mgl32.Abs(data[i].Y()-data[j].Y()) < eps ||
				mgl32.Abs(data[i].Z()-data[j].Z()) < eps {
				segs = append(segs, [2]mgl32.Vec3{pts[i], pts[j]})
			}
		}
	}
	return segs
}
