// Package dataset loads, samples and generates regular-grid volume fields.
package dataset

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Field is a scalar volume on a regular grid, with optional per-voxel
// velocity vectors. Voxels are laid out x fastest, z slowest. A Field is
// immutable once loaded, so concurrent sampling needs no locking.
type Field struct {
	Name    string
	Dims    [3]int
	Spacing mgl32.Vec3
	Scalars []float32
	Vectors []float32 // 3 components per voxel, nil until velocity is attached
	Min     float32
	Max     float32
}

func (f *Field) index(x, y, z int) int {
	return z*(f.Dims[0]*f.Dims[1]) + y*f.Dims[0] + x
}

func (f *Field) contains(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 &&
		x < f.Dims[0] && y < f.Dims[1] && z < f.Dims[2]
}

// At returns the scalar at a voxel.
func (f *Field) At(x, y, z int) (float32, error) {
	if !f.contains(x, y, z) {
		return 0, fmt.Errorf("%w: voxel (%d, %d, %d)", ErrOutOfBounds, x, y, z)
	}
	return f.Scalars[f.index(x, y, z)], nil
}

// VectorAt returns the velocity at a voxel.
func (f *Field) VectorAt(x, y, z int) (mgl32.Vec3, error) {
	if f.Vectors == nil {
		return mgl32.Vec3{}, ErrNoVectorData
	}
	if !f.contains(x, y, z) {
		return mgl32.Vec3{}, fmt.Errorf("%w: voxel (%d, %d, %d)", ErrOutOfBounds, x, y, z)
	}
	i := f.index(x, y, z) * 3
	return mgl32.Vec3{f.Vectors[i], f.Vectors[i+1], f.Vectors[i+2]}, nil
}

// HasVectors reports whether a velocity dataset is attached.
func (f *Field) HasVectors() bool {
	return f != nil && f.Vectors != nil
}

// SampleScalar probes the scalar channel at continuous voxel coordinates
// with trilinear interpolation. Interpolation is defined on [0, dim-1] per
// axis; outside that the probe fails.
func (f *Field) SampleScalar(p mgl32.Vec3) (float32, error) {
	for i := 0; i < 3; i++ {
		if p[i] < 0 || p[i] > float32(f.Dims[i]-1) {
			return 0, fmt.Errorf("%w: probe at %v", ErrOutOfBounds, p)
		}
	}
	return f.sampleClamped(p[0], p[1], p[2]), nil
}

// sampleClamped interpolates with coordinates clamped to the grid.
func (f *Field) sampleClamped(x, y, z float32) float32 {
	x0, fx := splitCoord(x, f.Dims[0])
	y0, fy := splitCoord(y, f.Dims[1])
	z0, fz := splitCoord(z, f.Dims[2])
	x1 := min(x0+1, f.Dims[0]-1)
	y1 := min(y0+1, f.Dims[1]-1)
	z1 := min(z0+1, f.Dims[2]-1)

	c000 := f.Scalars[f.index(x0, y0, z0)]
	c100 := f.Scalars[f.index(x1, y0, z0)]
	c010 := f.Scalars[f.index(x0, y1, z0)]
	c110 := f.Scalars[f.index(x1, y1, z0)]
	c001 := f.Scalars[f.index(x0, y0, z1)]
	c101 := f.Scalars[f.index(x1, y0, z1)]
	c011 := f.Scalars[f.index(x0, y1, z1)]
	c111 := f.Scalars[f.index(x1, y1, z1)]

	c00 := c000 + (c100-c000)*fx
	c10 := c010 + (c110-c010)*fx
	c01 := c001 + (c101-c001)*fx
	c11 := c011 + (c111-c011)*fx
	c0 := c00 + (c10-c00)*fy
	c1 := c01 + (c11-c01)*fy
	return c0 + (c1-c0)*fz
}

// splitCoord clamps a coordinate into the grid and splits it into a base
// voxel and interpolation fraction.
func splitCoord(v float32, dim int) (int, float32) {
	if v < 0 {
		v = 0
	}
	if v > float32(dim-1) {
		v = float32(dim - 1)
	}
	base := int(v)
	if base > dim-1 {
		base = dim - 1
	}
	return base, v - float32(base)
}

// Extent returns the physical size of the volume along each axis.
func (f *Field) Extent() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(f.Dims[0]) * f.Spacing[0],
		float32(f.Dims[1]) * f.Spacing[1],
		float32(f.Dims[2]) * f.Spacing[2],
	}
}

// MaxExtent returns the longest physical side.
func (f *Field) MaxExtent() float32 {
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

// DefaultZoom computes the zoom factor that maps the longest physical side
// onto nativeSize eye units, clamped to the minimum interactive zoom.
func (f *Field) DefaultZoom(nativeSize, minZoom float32) float32 {
	z := nativeSize / f.MaxExtent()
	if z < minZoom {
		z = minZoom
	}
	return z
}

// Preview resamples the scalar channel onto a grid shrunk by divisor along
// each axis, at least one voxel per axis. Velocity vectors are not carried
// over; the preview backs cheap geometry only.
func (f *Field) Preview(divisor int) *Field {
	var nd [3]int
	for i := 0; i < 3; i++ {
		nd[i] = max(f.Dims[i]/divisor, 1)
	}

	p := &Field{
		Name: f.Name,
		Dims: nd,
		Spacing: mgl32.Vec3{
			f.Spacing[0] * float32(f.Dims[0]) / float32(nd[0]),
			f.Spacing[1] * float32(f.Dims[1]) / float32(nd[1]),
			f.Spacing[2] * float32(f.Dims[2]) / float32(nd[2]),
		},
		Scalars: make([]float32, nd[0]*nd[1]*nd[2]),
		Min:     float32(math.Inf(1)),
		Max:     float32(math.Inf(-1)),
	}

	for z := 0; z < nd[2]; z++ {
		sz := (float32(z) + 0.5) * float32(f.Dims[2]) / float32(nd[2])
		for y := 0; y < nd[1]; y++ {
			sy := (float32(y) + 0.5) * float32(f.Dims[1]) / float32(nd[1])
			for x := 0; x < nd[0]; x++ {
				sx := (float32(x) + 0.5) * float32(f.Dims[0]) / float32(nd[0])
				v := f.sampleClamped(sx-0.5, sy-0.5, sz-0.5)
				p.Scalars[p.index(x, y, z)] = v
				if v < p.Min {
					p.Min = v
				}
				if v > p.Max {
					p.Max = v
				}
			}
		}
	}
	return p
}

// rescan recomputes the stored scalar range.
func (f *Field) rescan() {
	f.Min = float32(math.Inf(1))
	f.Max = float32(math.Inf(-1))
	for _, v := range f.Scalars {
		if v < f.Min {
			f.Min = v
		}
		if v > f.Max {
			f.Max = v
		}
	}
}
