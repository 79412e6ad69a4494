package posefeed

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// recordingSink counts sink calls for dispatcher tests.
type recordingSink struct {
	poses     int
	pressed   int
	released  int
	releases  []mgl32.Vec3
	resets    int
	tangible  bool
	stylusVis bool
}

func (r *recordingSink) SetMatrices(model, stylus mgl32.Mat4) { r.poses++ }
func (r *recordingSink) SetTangibleVisible(v bool)            { r.tangible = v }
func (r *recordingSink) SetStylusVisible(v bool)              { r.stylusVis = v }
func (r *recordingSink) ButtonPressed()                       { r.pressed++ }
func (r *recordingSink) ButtonReleased() float64              { r.released++; return 0 }
func (r *recordingSink) ReleaseParticles(seed mgl32.Vec3)     { r.releases = append(r.releases, seed) }
func (r *recordingSink) ResetParticles()                      { r.resets++ }

func frameWithButtons(b uint8) PoseFrame {
	return PoseFrame{
		Model:           [16]float32(mgl32.Ident4()),
		Stylus:          [16]float32(mgl32.Ident4()),
		TangibleVisible: true,
		StylusVisible:   true,
		Buttons:         b,
	}
}

func TestDispatcherFiresButtonEdgesOnce(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, nil)

	// Held across three frames: one press, one release.
	d.Apply(frameWithButtons(ButtonProbe))
	d.Apply(frameWithButtons(ButtonProbe))
	d.Apply(frameWithButtons(ButtonProbe))
	d.Apply(frameWithButtons(0))

	if sink.pressed != 1 {
		t.Errorf("expected 1 press, got %d", sink.pressed)
	}
	if sink.released != 1 {
		t.Errorf("expected 1 release, got %d", sink.released)
	}
	if sink.poses != 4 {
		t.Errorf("expected 4 pose updates, got %d", sink.poses)
	}
}

func TestDispatcherSeedsReleaseFromEffector(t *testing.T) {
	sink := &recordingSink{}
	want := mgl32.Vec3{1, 2, -3}
	d := NewDispatcher(sink, func() (mgl32.Vec3, bool) { return want, true })

	d.Apply(frameWithButtons(ButtonRelease))
	d.Apply(frameWithButtons(0))

	if len(sink.releases) != 1 {
		t.Fatalf("expected 1 release, got %d", len(sink.releases))
	}
	if sink.releases[0] != want {
		t.Errorf("expected seed %v, got %v", want, sink.releases[0])
	}
}

func TestDispatcherSendsSentinelOnEffectorMiss(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, func() (mgl32.Vec3, bool) { return mgl32.Vec3{9, 9, 9}, false })

	d.Apply(frameWithButtons(ButtonRelease))

	if len(sink.releases) != 1 {
		t.Fatalf("expected 1 release, got %d", len(sink.releases))
	}
	if sink.releases[0] != (mgl32.Vec3{}) {
		t.Errorf("expected the zero sentinel, got %v", sink.releases[0])
	}
}

func TestDispatcherForwardsReset(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, nil)

	d.Apply(frameWithButtons(ButtonReset))
	d.Apply(frameWithButtons(ButtonReset))

	if sink.resets != 1 {
		t.Errorf("expected 1 reset on the edge, got %d", sink.resets)
	}
}

func TestOrbitIsDeterministic(t *testing.T) {
	a := NewOrbit(24, 9, 420, 7)
	b := NewOrbit(24, 9, 420, 7)

	for _, tMs := range []int64{0, 500, 12345, 99999} {
		fa, fb := a.Step(tMs), b.Step(tMs)
		if fa != fb {
			t.Fatalf("t=%d: same seed produced different frames", tMs)
		}
		if !fa.TangibleVisible || !fa.StylusVisible {
			t.Fatalf("t=%d: orbit proxies should always be visible", tMs)
		}
		if fa.ModelMat().Det() == 0 {
			t.Fatalf("t=%d: orbit produced a singular model matrix", tMs)
		}
	}

	c := NewOrbit(24, 9, 420, 8)
	if a.Step(1000) == c.Step(1000) {
		t.Error("different seeds produced identical frames")
	}
}

func TestOrbitScriptsGestures(t *testing.T) {
	o := NewOrbit(24, 9, 420, 1)

	var sawRelease, sawProbe bool
	for tMs := int64(0); tMs < 9000; tMs += 16 {
		f := o.Step(tMs)
		if f.Buttons&ButtonRelease != 0 {
			sawRelease = true
		}
		if f.Buttons&ButtonProbe != 0 {
			sawProbe = true
		}
	}
	if !sawRelease {
		t.Error("expected a release gesture within one sweep")
	}
	if !sawProbe {
		t.Error("expected a probe gesture within one sweep")
	}
}
