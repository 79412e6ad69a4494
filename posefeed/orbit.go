package posefeed

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// Orbit is a scripted pose source for demo and headless runs: the tangible
// volume turns slowly in front of the viewer while the stylus sweeps
// through it, releasing tracers at the start of each sweep and probing
// halfway through. Output depends only on the timestamp and seed.
type Orbit struct {
	periodMs float64
	distance float32
	sweepMs  float64

	phaseA float64
	phaseB float64
}

// NewOrbit builds an orbit source. periodSec is one full turn of the
// tangible, sweepSec one stylus pass.
func NewOrbit(periodSec, sweepSec float64, distance float32, seed int64) *Orbit {
	rng := rand.New(rand.NewSource(seed))
	return &Orbit{
		periodMs: periodSec * 1000,
		distance: distance,
		sweepMs:  sweepSec * 1000,
		phaseA:   rng.Float64() * 2 * math.Pi,
		phaseB:   rng.Float64() * 2 * math.Pi,
	}
}

// Step returns the pose frame for a timestamp.
func (o *Orbit) Step(tMs int64) PoseFrame {
	turn := 2 * math.Pi * float64(tMs) / o.periodMs

	// The tangible tumbles: a full turn around y with a slower nod around x.
	rot := mgl32.HomogRotate3DY(float32(turn + o.phaseA)).
		Mul4(mgl32.HomogRotate3DX(float32(0.35 * math.Sin(turn/3+o.phaseB))))
	model := mgl32.Translate3D(0, 0, -o.distance).Mul4(rot)

	// The stylus slides across the volume, angled slightly inward.
	sweep := math.Mod(float64(tMs), o.sweepMs) / o.sweepMs
	x := float32(math.Sin(2*math.Pi*sweep)) * o.distance * 0.4
	stylus := mgl32.Translate3D(x, o.distance*0.1, -o.distance*0.55).
		Mul4(mgl32.HomogRotate3DX(-0.3))

	var buttons uint8
	// A tracer release at the start of each sweep, while the stylus ray
	// passes through the volume.
	if sweep < 0.02 {
		buttons |= ButtonRelease
	}
	// A probe gesture through the middle third of each sweep.
	if sweep > 0.4 && sweep < 0.7 {
		buttons |= ButtonProbe
	}

	return PoseFrame{
		Model:           [16]float32(model),
		Stylus:          [16]float32(stylus),
		TangibleVisible: true,
		StylusVisible:   true,
		Buttons:         buttons,
	}
}
