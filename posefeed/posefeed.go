// Package posefeed delivers tracked poses to the application. Live poses
// arrive as JSON frames over a websocket; headless and demo runs use a
// deterministic scripted orbit instead.
package posefeed

import "github.com/go-gl/mathgl/mgl32"

// Button bits in a pose frame.
const (
	ButtonProbe   = 1 << 0
	ButtonRelease = 1 << 1
	ButtonReset   = 1 << 2
)

// PoseFrame is one tracking sample: the tangible and stylus poses in eye
// space, visibility flags, and the stylus button state.
type PoseFrame struct {
	Model           [16]float32 `json:"model"`
	Stylus          [16]float32 `json:"stylus"`
	TangibleVisible bool        `json:"tangibleVisible"`
	StylusVisible   bool        `json:"stylusVisible"`
	Buttons         uint8       `json:"buttons"`
}

// ModelMat returns the tangible pose as a matrix. Values are column major,
// matching the wire layout of the tracker.
func (p *PoseFrame) ModelMat() mgl32.Mat4 { return mgl32.Mat4(p.Model) }

// StylusMat returns the stylus pose as a matrix.
func (p *PoseFrame) StylusMat() mgl32.Mat4 { return mgl32.Mat4(p.Stylus) }

// Sink receives decoded tracking state. The application satisfies this.
type Sink interface {
	SetMatrices(model, stylus mgl32.Mat4)
	SetTangibleVisible(bool)
	SetStylusVisible(bool)
	ButtonPressed()
	ButtonReleased() float64
	ReleaseParticles(seedEye mgl32.Vec3)
	ResetParticles()
}

// Dispatcher turns a stream of PoseFrames into Sink calls, tracking button
// edges between consecutive frames.
type Dispatcher struct {
	sink        Sink
	seedAt      func() (mgl32.Vec3, bool)
	prevButtons uint8
}

// NewDispatcher wraps a sink. seedAt supplies the release seed point,
// typically the application's cached effector intersection; nil means
// releases seed at the zero sentinel and are ignored.
func NewDispatcher(sink Sink, seedAt func() (mgl32.Vec3, bool)) *Dispatcher {
	return &Dispatcher{sink: sink, seedAt: seedAt}
}

// Apply forwards one frame. Visibility is set before the matrices so the
// frame's pipeline pass sees consistent state.
func (d *Dispatcher) Apply(f PoseFrame) {
	d.sink.SetTangibleVisible(f.TangibleVisible)
	d.sink.SetStylusVisible(f.StylusVisible)
	d.sink.SetMatrices(f.ModelMat(), f.StylusMat())

	pressed := f.Buttons &^ d.prevButtons
	released := d.prevButtons &^ f.Buttons
	d.prevButtons = f.Buttons

	if pressed&ButtonProbe != 0 {
		d.sink.ButtonPressed()
	}
	if released&ButtonProbe != 0 {
		d.sink.ButtonReleased()
	}
	if pressed&ButtonRelease != 0 {
		// Seed at the current effector hit; a miss yields the zero
		// sentinel, which the sink ignores.
		seed := mgl32.Vec3{}
		if d.seedAt != nil {
			if p, ok := d.seedAt(); ok {
				seed = p
			}
		}
		d.sink.ReleaseParticles(seed)
	}
	if pressed&ButtonReset != 0 {
		d.sink.ResetParticles()
	}
}
