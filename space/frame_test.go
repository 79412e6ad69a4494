package space

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func vecNear(a, b mgl32.Vec3, tol float32) bool {
	return a.Sub(b).Len() <= tol
}

func TestNewFrameRejectsDegenerate(t *testing.T) {
	dims := [3]int{10, 10, 10}
	spacing := mgl32.Vec3{1, 1, 1}

	if _, ok := NewFrame(mgl32.Mat4{}, 1, dims, spacing); ok {
		t.Error("expected singular matrix to be rejected")
	}
	if _, ok := NewFrame(mgl32.Ident4(), 0, dims, spacing); ok {
		t.Error("expected zero zoom to be rejected")
	}
	if _, ok := NewFrame(mgl32.Ident4(), 1, dims, spacing); !ok {
		t.Error("expected identity frame to be accepted")
	}
}

func TestToDataMapsOriginToCenter(t *testing.T) {
	// With an identity model matrix and zoom 1, the eye origin must land on
	// the center voxel (integer halving: 11/2 = 5).
	f, ok := NewFrame(mgl32.Ident4(), 1, [3]int{11, 8, 20}, mgl32.Vec3{1, 2, 0.5})
	if !ok {
		t.Fatal("frame construction failed")
	}

	d := f.ToData(mgl32.Vec3{0, 0, 0})
	want := mgl32.Vec3{5, 8, 5}
	if !vecNear(d, want, 1e-3) {
		t.Errorf("expected center %v, got %v", want, d)
	}
}

func TestEyeDataRoundtrip(t *testing.T) {
	dims := [3]int{64, 48, 32}
	spacing := mgl32.Vec3{1, 1.5, 2}

	models := []mgl32.Mat4{
		mgl32.Ident4(),
		mgl32.Translate3D(10, -40, -300),
		mgl32.Translate3D(0, 0, -350).Mul4(mgl32.HomogRotate3D(0.7, mgl32.Vec3{0, 1, 0})),
		mgl32.Translate3D(25, 5, -420).Mul4(mgl32.HomogRotate3D(1.2, mgl32.Vec3{1, 1, 0}.Normalize())),
	}
	points := []mgl32.Vec3{
		{0, 0, 0},
		{12, 7, 3},
		{63, 47, 31},
		{31.5, 20.25, 10.75},
	}

	for mi, m := range models {
		f, ok := NewFrame(m, 1.8, dims, spacing)
		if !ok {
			t.Fatalf("model %d rejected", mi)
		}
		for _, p := range points {
			eye := f.ToEye(p)
			back := f.ToData(eye)
			if !vecNear(back, p, 0.01) {
				t.Errorf("model %d: roundtrip %v -> %v -> %v", mi, p, eye, back)
			}
		}
	}
}

func TestDirTransformsIgnoreTranslation(t *testing.T) {
	f, ok := NewFrame(mgl32.Translate3D(100, 200, -300), 2, [3]int{10, 10, 10}, mgl32.Vec3{1, 1, 1})
	if !ok {
		t.Fatal("frame construction failed")
	}

	d := f.DirToEye(mgl32.Vec3{1, 0, 0})
	if !vecNear(d, mgl32.Vec3{1, 0, 0}, 1e-4) {
		t.Errorf("expected direction unchanged under pure translation, got %v", d)
	}
	d = f.DirToData(mgl32.Vec3{0, 1, 0})
	if !vecNear(d, mgl32.Vec3{0, 1, 0}, 1e-4) {
		t.Errorf("expected direction unchanged under pure translation, got %v", d)
	}
}

func TestDirToEyeRotates(t *testing.T) {
	// A quarter turn about Y carries the data +X axis onto the view
	// direction.
	rot := mgl32.HomogRotate3D(float32(math.Pi/2), mgl32.Vec3{0, 1, 0})
	f, ok := NewFrame(mgl32.Translate3D(0, 0, -300).Mul4(rot), 1, [3]int{10, 10, 10}, mgl32.Vec3{1, 1, 1})
	if !ok {
		t.Fatal("frame construction failed")
	}

	d := f.DirToEye(mgl32.Vec3{1, 0, 0})
	if !vecNear(d, Forward, 1e-4) {
		t.Errorf("expected %v, got %v", Forward, d)
	}
}

func TestExtentAndBounds(t *testing.T) {
	f, ok := NewFrame(mgl32.Ident4(), 1, [3]int{10, 20, 5}, mgl32.Vec3{2, 1, 4})
	if !ok {
		t.Fatal("frame construction failed")
	}

	if e := f.Extent(); !vecNear(e, mgl32.Vec3{20, 20, 20}, 1e-4) {
		t.Errorf("expected extent (20,20,20), got %v", e)
	}
	if m := f.MaxExtent(); m != 20 {
		t.Errorf("expected max extent 20, got %f", m)
	}

	if !f.InBounds(mgl32.Vec3{0, 0, 0}) {
		t.Error("origin should be in bounds")
	}
	if !f.InBounds(mgl32.Vec3{9.9, 19.9, 4.9}) {
		t.Error("interior point should be in bounds")
	}
	if f.InBounds(mgl32.Vec3{10, 0, 0}) {
		t.Error("upper bound is exclusive")
	}
	if f.InBounds(mgl32.Vec3{-0.1, 0, 0}) {
		t.Error("negative coordinates are out of bounds")
	}
}

func TestDepthRoundtrip(t *testing.T) {
	proj := Projection(mgl32.DegToRad(35), 800.0/900.0, 50, 2500)

	for _, dist := range []float32{60, 300, 1200, 2400} {
		depth := DepthAt(proj, dist)
		back := UnprojectDepth(proj, depth)
		want := Forward.Mul(dist)
		if !vecNear(back, want, 0.05) {
			t.Errorf("distance %f: expected %v, got %v", dist, want, back)
		}
	}

	// Depth increases with distance from the eye.
	if DepthAt(proj, 100) >= DepthAt(proj, 1000) {
		t.Error("expected depth to grow with distance")
	}
}

func TestComposeOrder(t *testing.T) {
	// Scale applies before translation: the unit X point scaled by 3 then
	// moved by (10, 0, 0) lands at 13.
	m := Compose(mgl32.Vec3{10, 0, 0}, mgl32.QuatIdent(), mgl32.Vec3{3, 3, 3})
	p := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, m)
	if !vecNear(p, mgl32.Vec3{13, 0, 0}, 1e-4) {
		t.Errorf("expected (13,0,0), got %v", p)
	}
}
