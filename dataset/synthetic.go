package dataset

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Synthetic fields let the viewer run without measurement data. All
// generators are deterministic for a given seed.

// SyntheticTurbulence builds a divergence-free swirling flow by taking the
// curl of a noise vector potential, with the local speed as the scalar
// channel.
func SyntheticTurbulence(dims [3]int, spacing mgl32.Vec3, seed int64) *Field {
	const (
		scale    = 0.07
		eps      = 0.5
		strength = 1.5
	)

	psi1 := opensimplex.New(seed)
	psi2 := opensimplex.New(seed + 1)
	psi3 := opensimplex.New(seed + 2)
	sample := func(n opensimplex.Noise, x, y, z float32) float32 {
		return float32(n.Eval3(float64(x)*scale, float64(y)*scale, float64(z)*scale))
	}

	f := &Field{
		Name:    "synthetic-turbulence",
		Dims:    dims,
		Spacing: spacing,
		Scalars: make([]float32, dims[0]*dims[1]*dims[2]),
		Vectors: make([]float32, dims[0]*dims[1]*dims[2]*3),
	}

	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				fx, fy, fz := float32(x), float32(y), float32(z)

				// Curl of (psi1, psi2, psi3) by forward differences.
				d3y := (sample(psi3, fx, fy+eps, fz) - sample(psi3, fx, fy, fz)) / eps
				d2z := (sample(psi2, fx, fy, fz+eps) - sample(psi2, fx, fy, fz)) / eps
				d1z := (sample(psi1, fx, fy, fz+eps) - sample(psi1, fx, fy, fz)) / eps
				d3x := (sample(psi3, fx+eps, fy, fz) - sample(psi3, fx, fy, fz)) / eps
				d2x := (sample(psi2, fx+eps, fy, fz) - sample(psi2, fx, fy, fz)) / eps
				d1y := (sample(psi1, fx, fy+eps, fz) - sample(psi1, fx, fy, fz)) / eps

				v := mgl32.Vec3{
					(d3y - d2z) * strength,
					(d1z - d3x) * strength,
					(d2x - d1y) * strength,
				}

				i := f.index(x, y, z)
				f.Vectors[i*3] = v[0]
				f.Vectors[i*3+1] = v[1]
				f.Vectors[i*3+2] = v[2]
				f.Scalars[i] = v.Len()
			}
		}
	}
	f.rescan()
	return f
}

// SyntheticScalar builds a scalar-only blob, a radial falloff from the
// volume center with a noise detail term. No velocity is attached, which
// exercises the paths that must cope without one.
func SyntheticScalar(dims [3]int, spacing mgl32.Vec3, seed int64) *Field {
	const (
		scale  = 0.11
		detail = 0.25
	)

	noise := opensimplex.NewNormalized(seed)
	f := &Field{
		Name:    "synthetic-scalar",
		Dims:    dims,
		Spacing: spacing,
		Scalars: make([]float32, dims[0]*dims[1]*dims[2]),
	}

	cx := float32(dims[0]-1) / 2
	cy := float32(dims[1]-1) / 2
	cz := float32(dims[2]-1) / 2
	rmax := float32(math.Sqrt(float64(cx*cx + cy*cy + cz*cz)))

	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				dx, dy, dz := float32(x)-cx, float32(y)-cy, float32(z)-cz
				r := float32(math.Sqrt(float64(dx*dx+dy*dy+dz*dz))) / rmax
				n := float32(noise.Eval3(float64(x)*scale, float64(y)*scale, float64(z)*scale))
				f.Scalars[f.index(x, y, z)] = (1 - r) + detail*n
			}
		}
	}
	f.rescan()
	return f
}

// SyntheticUniform builds a constant flow field. The scalar channel is the
// distance from the volume center, so probes see a gradient. Mostly useful
// in tests, and as the simplest possible demo dataset.
func SyntheticUniform(dims [3]int, spacing mgl32.Vec3, vel mgl32.Vec3) *Field {
	f := &Field{
		Name:    "synthetic-uniform",
		Dims:    dims,
		Spacing: spacing,
		Scalars: make([]float32, dims[0]*dims[1]*dims[2]),
		Vectors: make([]float32, dims[0]*dims[1]*dims[2]*3),
	}

	cx := float32(dims[0]-1) / 2
	cy := float32(dims[1]-1) / 2
	cz := float32(dims[2]-1) / 2

	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				dx, dy, dz := float32(x)-cx, float32(y)-cy, float32(z)-cz
				i := f.index(x, y, z)
				f.Scalars[i] = float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
				f.Vectors[i*3] = vel[0]
				f.Vectors[i*3+1] = vel[1]
				f.Vectors[i*3+2] = vel[2]
			}
		}
	}
	f.rescan()
	return f
}
