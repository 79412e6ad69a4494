// Package space provides the geometry shared across the visualization:
// transforms between eye space and dataset voxel space under a live model
// matrix, the projection helpers, and ray intersection primitives.
package space

import "github.com/go-gl/mathgl/mgl32"

// Forward is the view direction in eye space (right handed, -Z forward).
var Forward = mgl32.Vec3{0, 0, -1}

// Back points from the scene toward the eye.
var Back = mgl32.Vec3{0, 0, 1}

// Frame captures one pose of the tangible volume: the model matrix placing
// the zoomed dataset in eye space plus the dataset's shape. All transform
// methods are derived from this single snapshot, so results stay coherent
// even while newer poses arrive on another goroutine.
type Frame struct {
	Model   mgl32.Mat4
	Zoom    float32
	Dims    [3]int
	Spacing mgl32.Vec3

	inv       mgl32.Mat4
	dirToEye  mgl32.Mat3 // (Model⁻¹)ᵀ upper 3x3, the normal matrix
	dirToData mgl32.Mat3 // Modelᵀ upper 3x3
}

// NewFrame builds a Frame from one pose snapshot. Returns false when the
// model matrix is singular or the zoom factor is zero; callers must treat
// that frame as unusable rather than transform through a degenerate matrix.
func NewFrame(model mgl32.Mat4, zoom float32, dims [3]int, spacing mgl32.Vec3) (Frame, bool) {
	if zoom == 0 || model.Det() == 0 {
		return Frame{}, false
	}
	inv := model.Inv()
	return Frame{
		Model:     model,
		Zoom:      zoom,
		Dims:      dims,
		Spacing:   spacing,
		inv:       inv,
		dirToEye:  inv.Transpose().Mat3(),
		dirToData: model.Transpose().Mat3(),
	}, true
}

// center is the offset from the dataset corner origin to its middle voxel,
// in physical units. Dimensions are halved as integers to land on a voxel.
func (f Frame) center() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(f.Dims[0]/2) * f.Spacing[0],
		float32(f.Dims[1]/2) * f.Spacing[1],
		float32(f.Dims[2]/2) * f.Spacing[2],
	}
}

// ToData converts an eye-space position to dataset voxel coordinates.
func (f Frame) ToData(pos mgl32.Vec3) mgl32.Vec3 {
	p := mgl32.TransformCoordinate(pos, f.inv)
	p = p.Mul(1 / f.Zoom)
	return p.Add(f.center())
}

// ToEye converts dataset voxel coordinates to an eye-space position.
func (f Frame) ToEye(data mgl32.Vec3) mgl32.Vec3 {
	p := data.Sub(f.center())
	p = p.Mul(f.Zoom)
	return mgl32.TransformCoordinate(p, f.Model)
}

// DirToEye converts a direction from voxel space to eye space using the
// normal matrix. Translation and zoom do not apply to directions.
func (f Frame) DirToEye(dir mgl32.Vec3) mgl32.Vec3 {
	return f.dirToEye.Mul3x1(dir)
}

// DirToData converts an eye-space direction to voxel space.
func (f Frame) DirToData(dir mgl32.Vec3) mgl32.Vec3 {
	return f.dirToData.Mul3x1(dir)
}

// Inv returns the inverse model matrix.
func (f Frame) Inv() mgl32.Mat4 { return f.inv }

// NormalMat returns the 3x3 normal matrix, (Model⁻¹)ᵀ.
func (f Frame) NormalMat() mgl32.Mat3 { return f.dirToEye }

// Extent returns the physical size of the dataset along each axis.
func (f Frame) Extent() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(f.Dims[0]) * f.Spacing[0],
		float32(f.Dims[1]) * f.Spacing[1],
		float32(f.Dims[2]) * f.Spacing[2],
	}
}

// MaxExtent returns the longest physical side of the dataset.
func (f Frame) MaxExtent() float32 {
	e := f.Extent()
	m := e[0]
	if e[1] > m {
		m = e[1]
	}
	if e[2] > m {
		m = e[2]
	}
	return m
}

// InBounds reports whether voxel coordinates fall inside the dataset after
// truncation. The upper bound is exclusive.
func (f Frame) InBounds(data mgl32.Vec3) bool {
	return data.X() >= 0 && data.Y() >= 0 && data.Z() >= 0 &&
		data.X() < float32(f.Dims[0]) && data.Y() < float32(f.Dims[1]) && data.Z() < float32(f.Dims[2])
}

// Compose builds a transform from translation, rotation and scale, with
// scale applied first.
func Compose(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(t.X(), t.Y(), t.Z()).Mul4(r.Mat4()).Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z()))
}
