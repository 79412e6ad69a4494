package slicing

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/oviz-lab/fluidlab/space"
)

func testParams() Params {
	return Params{
		ClipDistance:       300,
		CameraFilterWeight: 0.8,
		HysteresisMargin:   0.1,
		GuideEpsilon:       0.1,
		MaxBoundaryPoints:  6,
		StylusPlanePad:     60,
	}
}

func testProj() mgl32.Mat4 {
	return space.Projection(mgl32.DegToRad(35), 800.0/900.0, 50, 2500)
}

// testFrame wraps a 10x10x10 unit-spacing volume in the given pose.
func testFrame(t *testing.T, model mgl32.Mat4, zoom float32) space.Frame {
	t.Helper()
	f, ok := space.NewFrame(model, zoom, [3]int{10, 10, 10}, mgl32.Vec3{1, 1, 1})
	if !ok {
		t.Fatalf("test pose rejected")
	}
	return f
}

func visible(f space.Frame) Input {
	return Input{Frame: f, TangibleVisible: true}
}

func TestAxisSelectionFacesViewer(t *testing.T) {
	testCases := []struct {
		name  string
		model mgl32.Mat4
		want  Axis
	}{
		// Identity pose: the volume's +z points away from the viewer, so
		// the face turned toward the screen is -z.
		{"identity", mgl32.Translate3D(0, 0, -300), AxisNegZ},
		// Quarter turn about y brings +x toward the viewer.
		{"quarter y", mgl32.Translate3D(0, 0, -300).Mul4(mgl32.HomogRotate3D(math.Pi/2, mgl32.Vec3{0, 1, 0})), AxisX},
		{"quarter y back", mgl32.Translate3D(0, 0, -300).Mul4(mgl32.HomogRotate3D(-math.Pi/2, mgl32.Vec3{0, 1, 0})), AxisNegX},
		// Quarter turn about x sends +y away from the viewer.
		{"quarter x", mgl32.Translate3D(0, 0, -300).Mul4(mgl32.HomogRotate3D(math.Pi/2, mgl32.Vec3{1, 0, 0})), AxisNegY},
	}
	for _, tc := range testCases {
		e := NewEngine(testParams(), testProj())
		res := e.Compute(ModeAxis, visible(testFrame(t, tc.model, 1)))
		if !res.OK {
			t.Errorf("%s: expected a plane", tc.name)
			continue
		}
		if res.Axis != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, res.Axis)
		}
		if !res.HasQuad {
			t.Errorf("%s: expected a slice quad", tc.name)
		}
	}
}

func TestAxisHysteresisHoldsNearTies(t *testing.T) {
	e := NewEngine(testParams(), testProj())
	pose := func(deg float32) Input {
		m := mgl32.Translate3D(0, 0, -300).Mul4(mgl32.HomogRotate3D(mgl32.DegToRad(deg), mgl32.Vec3{0, 1, 0}))
		return visible(testFrame(t, m, 1))
	}

	// At 50 degrees |x.dot| = 0.77 beats |z.dot| = 0.64.
	e.Compute(ModeAxis, pose(50))
	if e.Candidate() != AxisX {
		t.Fatalf("expected candidate +x, got %v", e.Candidate())
	}

	// At 43 degrees z wins by only 0.05, within the 0.1 margin.
	e.Compute(ModeAxis, pose(43))
	if e.Candidate() != AxisX {
		t.Errorf("expected candidate to hold at +x, got %v", e.Candidate())
	}

	// At 20 degrees z dominates decisively, but the plane itself is still
	// held by the lock acquired while slicing.
	res := e.Compute(ModeAxis, pose(20))
	if e.Candidate() != AxisNegZ {
		t.Errorf("expected candidate -z, got %v", e.Candidate())
	}
	if res.Axis != AxisX {
		t.Errorf("expected locked plane to stay +x, got %v", res.Axis)
	}
}

func TestAxisLockFlipsWhenTurnedAround(t *testing.T) {
	e := NewEngine(testParams(), testProj())

	res := e.Compute(ModeAxis, visible(testFrame(t, mgl32.Translate3D(0, 0, -300), 1)))
	if res.Axis != AxisNegZ || e.Locked() != AxisNegZ {
		t.Fatalf("expected -z lock, got axis %v lock %v", res.Axis, e.Locked())
	}

	// Half turn about y: the locked face now points away, so the lock
	// must follow to its negation.
	m := mgl32.Translate3D(0, 0, -300).Mul4(mgl32.HomogRotate3D(math.Pi, mgl32.Vec3{0, 1, 0}))
	res = e.Compute(ModeAxis, visible(testFrame(t, m, 1)))
	if res.Axis != AxisZ {
		t.Errorf("expected flipped axis +z, got %v", res.Axis)
	}
	if e.Locked() != AxisZ {
		t.Errorf("expected lock to follow to +z, got %v", e.Locked())
	}
}

func TestAxisLockReleasesOffVolume(t *testing.T) {
	e := NewEngine(testParams(), testProj())

	e.Compute(ModeAxis, visible(testFrame(t, mgl32.Translate3D(0, 0, -300), 1)))
	if e.Locked() != AxisNegZ {
		t.Fatalf("expected -z lock, got %v", e.Locked())
	}

	// Pushed well past the clip distance the plane no longer crosses the
	// volume, which releases the lock.
	res := e.Compute(ModeAxis, visible(testFrame(t, mgl32.Translate3D(0, 0, -800), 1)))
	if !res.OK {
		t.Fatalf("expected a plane even off the volume")
	}
	if len(res.Boundary) != 0 {
		t.Errorf("expected empty boundary, got %d points", len(res.Boundary))
	}
	if e.Locked() != AxisNone {
		t.Errorf("expected lock released, got %v", e.Locked())
	}
}

func TestAxisHiddenClearsSelection(t *testing.T) {
	e := NewEngine(testParams(), testProj())

	e.Compute(ModeAxis, visible(testFrame(t, mgl32.Translate3D(0, 0, -300), 1)))
	if e.Locked() == AxisNone {
		t.Fatalf("expected a lock before hiding")
	}

	in := Input{Frame: testFrame(t, mgl32.Translate3D(0, 0, -300), 1)}
	res := e.Compute(ModeAxis, in)
	if res.OK {
		t.Errorf("expected no plane while hidden")
	}
	if e.Candidate() != AxisNone || e.Locked() != AxisNone {
		t.Errorf("expected selection cleared, got candidate %v lock %v", e.Candidate(), e.Locked())
	}
}

func TestForcedAxisBypassesSelection(t *testing.T) {
	e := NewEngine(testParams(), testProj())
	e.SetForcedAxis(AxisY)

	res := e.Compute(ModeAxis, visible(testFrame(t, mgl32.Translate3D(0, 0, -300), 1)))
	if !res.OK || res.Axis != AxisY {
		t.Fatalf("expected forced +y, got ok=%v axis=%v", res.OK, res.Axis)
	}
	if e.Candidate() != AxisNone || e.Locked() != AxisNone {
		t.Errorf("expected classifier untouched, got candidate %v lock %v", e.Candidate(), e.Locked())
	}
	if len(res.Boundary) != 4 {
		t.Errorf("expected 4 boundary points, got %d", len(res.Boundary))
	}

	// Hiding the tangible still suppresses the plane.
	res = e.Compute(ModeAxis, Input{Frame: testFrame(t, mgl32.Translate3D(0, 0, -300), 1)})
	if res.OK {
		t.Errorf("expected no plane while hidden")
	}
}

func TestCameraDepthFiltersAlongViewOnly(t *testing.T) {
	e := NewEngine(testParams(), testProj())

	res := e.Compute(ModeCamera, visible(testFrame(t, mgl32.Translate3D(0, 0, -300), 1)))
	if !res.OK {
		t.Fatalf("expected a plane")
	}
	// First visible frame passes through unfiltered.
	if mgl32.Abs(res.Depth-300) > 0.01 {
		t.Errorf("expected depth 300, got %f", res.Depth)
	}
	if res.Plane.Normal != space.Back {
		t.Errorf("expected screen normal %v, got %v", space.Back, res.Plane.Normal)
	}

	// The volume jumps 100 units deeper. With weight 0.8 the plane covers
	// only 80 of them this frame.
	res = e.Compute(ModeCamera, visible(testFrame(t, mgl32.Translate3D(0, 0, -400), 1)))
	if mgl32.Abs(res.Depth-320) > 0.01 {
		t.Errorf("expected filtered depth 320, got %f", res.Depth)
	}
}

func TestCameraLateralMotionUnfiltered(t *testing.T) {
	e := NewEngine(testParams(), testProj())

	e.Compute(ModeCamera, visible(testFrame(t, mgl32.Translate3D(0, 0, -300), 1)))
	res := e.Compute(ModeCamera, visible(testFrame(t, mgl32.Translate3D(50, 0, -300), 1)))
	// A sideways jump has no component along the view direction, so the
	// depth must not lag.
	if mgl32.Abs(res.Depth-300) > 0.01 {
		t.Errorf("expected depth 300, got %f", res.Depth)
	}
}

func TestCameraHiddenDropsFilterHistory(t *testing.T) {
	e := NewEngine(testParams(), testProj())

	e.Compute(ModeCamera, visible(testFrame(t, mgl32.Translate3D(0, 0, -300), 1)))
	res := e.Compute(ModeCamera, Input{Frame: testFrame(t, mgl32.Translate3D(0, 0, -300), 1)})
	if res.OK {
		t.Fatalf("expected no plane while hidden")
	}

	// Reappearing at a new depth starts fresh: the unfiltered plane sits at
	// the clip distance again. Blending with the stale history would land
	// at 340 instead.
	res = e.Compute(ModeCamera, visible(testFrame(t, mgl32.Translate3D(0, 0, -500), 1)))
	if mgl32.Abs(res.Depth-300) > 0.01 {
		t.Errorf("expected unfiltered depth 300, got %f", res.Depth)
	}
}

func TestStylusPlaneRecentersOnVolume(t *testing.T) {
	e := NewEngine(testParams(), testProj())
	f := testFrame(t, mgl32.Translate3D(0, 0, -300), 1)

	// Stylus held 20 units to the side, axes parallel to the eye. The
	// plane slides within itself back to the volume center.
	in := Input{
		Frame:           f,
		Stylus:          mgl32.Translate3D(20, 0, -300),
		TangibleVisible: true,
		StylusVisible:   true,
	}
	res := e.Compute(ModeStylus, in)
	if !res.OK {
		t.Fatalf("expected a plane")
	}
	want := mgl32.Vec3{0, 0, -300}
	if res.Plane.Point.Sub(want).Len() > 0.01 {
		t.Errorf("expected plane point %v, got %v", want, res.Plane.Point)
	}
	if res.Plane.Normal.Sub(mgl32.Vec3{0, 0, 1}).Len() > 0.01 {
		t.Errorf("expected stylus z normal, got %v", res.Plane.Normal)
	}
	if !res.HasQuad {
		t.Fatalf("expected a slice quad")
	}
	// Quad half-size is (pad + extent) / 2 = 35 at zoom 1.
	sx := mgl32.Vec3{res.Quad.At(0, 0), res.Quad.At(1, 0), res.Quad.At(2, 0)}.Len()
	if mgl32.Abs(sx-35) > 0.01 {
		t.Errorf("expected quad half-size 35, got %f", sx)
	}
	if len(res.Boundary) != 4 {
		t.Errorf("expected 4 boundary points, got %d", len(res.Boundary))
	}
}

func TestStylusPlaneRejectsBadPoses(t *testing.T) {
	e := NewEngine(testParams(), testProj())
	f := testFrame(t, mgl32.Translate3D(0, 0, -300), 1)

	res := e.Compute(ModeStylus, Input{Frame: f, TangibleVisible: true})
	if res.OK {
		t.Errorf("expected no plane with the stylus hidden")
	}

	// A degenerate tracking matrix must not produce a plane.
	res = e.Compute(ModeStylus, Input{
		Frame:           f,
		Stylus:          mgl32.Mat4{},
		TangibleVisible: true,
		StylusVisible:   true,
	})
	if res.OK {
		t.Errorf("expected no plane from a singular stylus pose")
	}
}

func TestBoundaryQuadAndGuides(t *testing.T) {
	e := NewEngine(testParams(), testProj())

	// Volume face-on at the clip distance, zoom 2: the plane cuts a
	// 20x20 square through the middle.
	res := e.Compute(ModeCamera, visible(testFrame(t, mgl32.Translate3D(0, 0, -300), 2)))
	if len(res.Boundary) != 4 {
		t.Fatalf("expected 4 boundary points, got %d", len(res.Boundary))
	}
	for _, p := range res.Boundary {
		if mgl32.Abs(p.Z()+300) > 0.01 {
			t.Errorf("expected boundary at z -300, got %v", p)
		}
		if mgl32.Abs(mgl32.Abs(p.X())-10) > 0.01 || mgl32.Abs(mgl32.Abs(p.Y())-10) > 0.01 {
			t.Errorf("expected corner at +-10, got %v", p)
		}
	}
	// All four points share the same data z, so every pair qualifies as a
	// guide.
	if len(res.Guides) != 6 {
		t.Errorf("expected 6 guide segments, got %d", len(res.Guides))
	}
}

func TestOffModeComputesNothing(t *testing.T) {
	e := NewEngine(testParams(), testProj())
	res := e.Compute(ModeOff, visible(testFrame(t, mgl32.Translate3D(0, 0, -300), 1)))
	if res.OK || res.HasQuad || len(res.Boundary) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}
