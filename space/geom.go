package space

import "github.com/go-gl/mathgl/mgl32"

// rayMax bounds the parametric range of box intersections. Rays here are
// probe rays inside a scene a few hundred units across, so the cap is
// effectively infinity.
const rayMax = 10000

// Plane is a clip plane defined by a point and a normal.
type Plane struct {
	Point  mgl32.Vec3
	Normal mgl32.Vec3
}

// Offset returns the fourth plane coefficient d, so that points x on the
// plane satisfy dot(Normal, x) + d = 0.
func (p Plane) Offset() float32 {
	return -p.Normal.Dot(p.Point)
}

// Side returns the signed distance factor of a point relative to the plane.
// Positive values lie on the normal side.
func (p Plane) Side(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.Offset()
}

// IntersectRay returns the parameter t at which origin + dir*t crosses the
// plane. Returns false when the ray runs parallel to it.
func (p Plane) IntersectRay(origin, dir mgl32.Vec3) (float32, bool) {
	den := dir.Dot(p.Normal)
	if den == 0 {
		return 0, false
	}
	t := -(origin.Dot(p.Normal) - p.Normal.Dot(p.Point)) / den
	return t, true
}

// IntersectAABB intersects a ray with an axis-aligned box using the slab
// method. The returned range starts clamped at t=0, so a box behind the
// origin reports a miss through tmin > tmax. Division by zero direction
// components yields infinities, which the min/max folding handles.
func IntersectAABB(origin, dir, boxMin, boxMax mgl32.Vec3) (tmin, tmax float32, ok bool) {
	tmin, tmax = 0, rayMax
	for i := 0; i < 3; i++ {
		t1 := (boxMin[i] - origin[i]) / dir[i]
		t2 := (boxMax[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}

// LowPass blends a new sample toward the previous one. weight is the share
// of the current value in the result; 1 passes through, 0 freezes.
func LowPass(cur, prev, weight float32) float32 {
	return prev + weight*(cur-prev)
}

// LowPassVec3 applies LowPass per component.
func LowPassVec3(cur, prev mgl32.Vec3, weight float32) mgl32.Vec3 {
	return prev.Add(cur.Sub(prev).Mul(weight))
}

// ProjectOn returns the component of v along the unit vector n.
func ProjectOn(v, n mgl32.Vec3) mgl32.Vec3 {
	return n.Mul(n.Dot(v))
}

// RejectFrom returns v with its component along the unit vector n removed,
// leaving the projection of v onto the plane perpendicular to n.
func RejectFrom(v, n mgl32.Vec3) mgl32.Vec3 {
	return v.Sub(ProjectOn(v, n))
}
