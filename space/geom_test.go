package space

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestIntersectAABBThroughBox(t *testing.T) {
	// Ray from outside along +X through a 10-unit box.
	tmin, tmax, ok := IntersectAABB(
		mgl32.Vec3{-5, 5, 5}, mgl32.Vec3{1, 0, 0},
		mgl32.Vec3{0, 0, 0}, mgl32.Vec3{10, 10, 10})
	if !ok {
		t.Fatal("expected a hit")
	}
	if tmin != 5 || tmax != 15 {
		t.Errorf("expected range (5, 15), got (%f, %f)", tmin, tmax)
	}
}

func TestIntersectAABBFromInside(t *testing.T) {
	// Origin inside the box clamps the entry to zero.
	tmin, tmax, ok := IntersectAABB(
		mgl32.Vec3{5, 5, 5}, mgl32.Vec3{1, 0, 0},
		mgl32.Vec3{0, 0, 0}, mgl32.Vec3{10, 10, 10})
	if !ok {
		t.Fatal("expected a hit")
	}
	if tmin != 0 || tmax != 5 {
		t.Errorf("expected range (0, 5), got (%f, %f)", tmin, tmax)
	}
}

func TestIntersectAABBMiss(t *testing.T) {
	_, _, ok := IntersectAABB(
		mgl32.Vec3{-5, 50, 5}, mgl32.Vec3{1, 0, 0},
		mgl32.Vec3{0, 0, 0}, mgl32.Vec3{10, 10, 10})
	if ok {
		t.Error("expected a miss for a ray outside the slab")
	}
}

func TestIntersectAABBBehindOrigin(t *testing.T) {
	// Box entirely behind the ray start.
	_, _, ok := IntersectAABB(
		mgl32.Vec3{20, 5, 5}, mgl32.Vec3{1, 0, 0},
		mgl32.Vec3{0, 0, 0}, mgl32.Vec3{10, 10, 10})
	if ok {
		t.Error("expected a miss for a box behind the origin")
	}
}

func TestPlaneIntersectRay(t *testing.T) {
	p := Plane{Point: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}}

	tt, ok := p.IntersectRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1})
	if !ok {
		t.Fatal("expected an intersection")
	}
	if tt != 5 {
		t.Errorf("expected t=5, got %f", tt)
	}

	if _, ok := p.IntersectRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{1, 0, 0}); ok {
		t.Error("expected no intersection for a parallel ray")
	}
}

func TestPlaneOffsetAndSide(t *testing.T) {
	p := Plane{Point: mgl32.Vec3{0, 0, 3}, Normal: mgl32.Vec3{0, 0, 1}}

	if d := p.Offset(); d != -3 {
		t.Errorf("expected offset -3, got %f", d)
	}
	if s := p.Side(mgl32.Vec3{0, 0, 5}); s <= 0 {
		t.Errorf("expected positive side, got %f", s)
	}
	if s := p.Side(mgl32.Vec3{0, 0, 1}); s >= 0 {
		t.Errorf("expected negative side, got %f", s)
	}
}

func TestLowPass(t *testing.T) {
	if v := LowPass(10, 0, 1); v != 10 {
		t.Errorf("weight 1 should pass through, got %f", v)
	}
	if v := LowPass(10, 0, 0); v != 0 {
		t.Errorf("weight 0 should freeze, got %f", v)
	}
	if v := LowPass(10, 0, 0.8); v != 8 {
		t.Errorf("expected 8, got %f", v)
	}

	// Repeated application converges on the target.
	v := float32(0)
	for i := 0; i < 50; i++ {
		v = LowPass(10, v, 0.5)
	}
	if v < 9.99 {
		t.Errorf("expected convergence toward 10, got %f", v)
	}
}

func TestProjectAndReject(t *testing.T) {
	v := mgl32.Vec3{3, 4, 0}
	n := mgl32.Vec3{1, 0, 0}

	if p := ProjectOn(v, n); p != (mgl32.Vec3{3, 0, 0}) {
		t.Errorf("expected (3,0,0), got %v", p)
	}
	if r := RejectFrom(v, n); r != (mgl32.Vec3{0, 4, 0}) {
		t.Errorf("expected (0,4,0), got %v", r)
	}
}
