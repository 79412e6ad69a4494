package telemetry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTraceTrackerLifecycle(t *testing.T) {
	tt := NewTraceTracker()

	tt.Begin(3, 1000)
	tt.Move(3, mgl32.Vec3{0, 0, 0}, 1000)
	tt.Move(3, mgl32.Vec3{1, 0, 0}, 1100)
	tt.Move(3, mgl32.Vec3{1, 2, 0}, 1200)

	stats := tt.Retire(3, 1300, "bounds")
	if stats == nil {
		t.Fatal("expected trace stats on retirement")
	}
	if stats.Samples != 3 {
		t.Errorf("samples = %d, want 3", stats.Samples)
	}
	if math.Abs(float64(stats.PathLength)-3) > 1e-5 {
		t.Errorf("path length = %v, want 3", stats.PathLength)
	}
	if stats.LifetimeMs != 300 {
		t.Errorf("lifetime = %d, want 300", stats.LifetimeMs)
	}
	if stats.Cause != "bounds" {
		t.Errorf("cause = %q, want bounds", stats.Cause)
	}
	// Peak speed comes from the fastest hop, 2 units in 100ms.
	if math.Abs(float64(stats.PeakSpeed)-0.02) > 1e-5 {
		t.Errorf("peak speed = %v, want 0.02", stats.PeakSpeed)
	}

	if tt.Count() != 0 {
		t.Errorf("tracker still holds %d traces", tt.Count())
	}
	if tt.Retire(3, 1400, "bounds") != nil {
		t.Error("double retirement should return nil")
	}
}

func TestTraceTrackerBeginReplaces(t *testing.T) {
	tt := NewTraceTracker()

	tt.Begin(1, 0)
	tt.Move(1, mgl32.Vec3{5, 0, 0}, 100)
	tt.Begin(1, 200)

	s := tt.Get(1)
	if s == nil {
		t.Fatal("expected a running trace")
	}
	if s.Samples != 0 || s.PathLength != 0 {
		t.Errorf("re-begin kept old stats: %+v", s)
	}
}

func TestTraceTrackerIgnoresUnknownSlot(t *testing.T) {
	tt := NewTraceTracker()

	tt.Move(9, mgl32.Vec3{1, 1, 1}, 100)
	if tt.Count() != 0 {
		t.Error("move without begin should be ignored")
	}
}

func TestTraceRankingOrderAndCapacity(t *testing.T) {
	tr := NewTraceRanking(3)

	lengths := []float32{2, 8, 4, 6, 3}
	for i, l := range lengths {
		tr.Consider(TraceStats{Slot: int32(i), PathLength: l, LifetimeMs: 500})
	}

	top := tr.Top()
	if len(top) != 3 {
		t.Fatalf("ranking holds %d traces, want 3", len(top))
	}
	want := []float32{8, 6, 4}
	for i, w := range want {
		if top[i].PathLength != w {
			t.Errorf("rank %d path length = %v, want %v", i, top[i].PathLength, w)
		}
	}
	if tr.Considered() != len(lengths) {
		t.Errorf("considered = %d, want %d", tr.Considered(), len(lengths))
	}
}

func TestTraceRankingEntryCriteria(t *testing.T) {
	tr := NewTraceRanking(3)

	if tr.Consider(TraceStats{PathLength: 0.5, LifetimeMs: 500}) {
		t.Error("short hop should be rejected")
	}
	if tr.Consider(TraceStats{PathLength: 5, LifetimeMs: 50}) {
		t.Error("short-lived trace should be rejected")
	}
	if !tr.Consider(TraceStats{PathLength: 5, LifetimeMs: 500}) {
		t.Error("qualifying trace should be admitted")
	}

	best, ok := tr.Best()
	if !ok || best.PathLength != 5 {
		t.Errorf("best = %+v ok=%v, want path length 5", best, ok)
	}
}
