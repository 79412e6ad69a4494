package space

import "github.com/go-gl/mathgl/mgl32"

// Projection builds the shared perspective matrix. fov is vertical, in
// radians. With a side-by-side stereo window the aspect already covers a
// single half.
func Projection(fov, aspect, near, far float32) mgl32.Mat4 {
	return mgl32.Perspective(fov, aspect, near, far)
}

// DepthAt returns the normalized device depth of a point dist units in
// front of the eye under proj. The result matches what the depth buffer
// stores for that point, which is what clip planes are specified against.
func DepthAt(proj mgl32.Mat4, dist float32) float32 {
	clip := proj.Mul4x1(Forward.Mul(dist).Vec4(1))
	return clip.Z() / clip.W()
}

// UnprojectDepth returns the eye-space point at the screen center with the
// given normalized device depth. Inverse of DepthAt.
func UnprojectDepth(proj mgl32.Mat4, depth float32) mgl32.Vec3 {
	return UnprojectNDC(proj, mgl32.Vec3{0, 0, depth})
}

// UnprojectNDC maps a normalized device coordinate back to eye space.
func UnprojectNDC(proj mgl32.Mat4, ndc mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(ndc, proj.Inv())
}
