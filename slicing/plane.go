// Package slicing computes the cutting plane that exposes the interior of a
// tracked volume. Three strategies are supported: a plane glued to the
// camera, a plane snapped to the most view-aligned volume axis, and a plane
// carried by the stylus. All planes are reported in eye space together with
// the polygon where they leave the volume.
package slicing

import "github.com/go-gl/mathgl/mgl32"

// Mode selects how the cutting plane follows the scene.
type Mode uint8

const (
	ModeOff Mode = iota
	ModeCamera
	ModeAxis
	ModeStylus
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeCamera:
		return "camera"
	case ModeAxis:
		return "axis"
	case ModeStylus:
		return "stylus"
	default:
		return "unknown"
	}
}

// Axis names a signed volume axis for axis-aligned slicing.
type Axis int8

const (
	AxisNone Axis = iota
	AxisX
	AxisY
	AxisZ
	AxisNegX
	AxisNegY
	AxisNegZ
)

// Vec returns the axis direction in data orientation. AxisNone yields the
// zero vector.
func (a Axis) Vec() mgl32.Vec3 {
	switch a {
	case AxisX:
		return mgl32.Vec3{1, 0, 0}
	case AxisY:
		return mgl32.Vec3{0, 1, 0}
	case AxisZ:
		return mgl32.Vec3{0, 0, 1}
	case AxisNegX:
		return mgl32.Vec3{-1, 0, 0}
	case AxisNegY:
		return mgl32.Vec3{0, -1, 0}
	case AxisNegZ:
		return mgl32.Vec3{0, 0, -1}
	default:
		return mgl32.Vec3{}
	}
}

// Negate flips the axis direction.
func (a Axis) Negate() Axis {
	switch a {
	case AxisX:
		return AxisNegX
	case AxisY:
		return AxisNegY
	case AxisZ:
		return AxisNegZ
	case AxisNegX:
		return AxisX
	case AxisNegY:
		return AxisY
	case AxisNegZ:
		return AxisZ
	default:
		return AxisNone
	}
}

func (a Axis) String() string {
	switch a {
	case AxisNone:
		return "none"
	case AxisX:
		return "+x"
	case AxisY:
		return "+y"
	case AxisZ:
		return "+z"
	case AxisNegX:
		return "-x"
	case AxisNegY:
		return "-y"
	case AxisNegZ:
		return "-z"
	default:
		return "unknown"
	}
}
