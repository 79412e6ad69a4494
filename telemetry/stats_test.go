package telemetry

import (
	"math"
	"testing"
)

func TestSpeedStats(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	mean, p10, p50, p90 := SpeedStats(values)

	if math.Abs(mean-5.5) > 0.001 {
		t.Errorf("mean = %v, want 5.5", mean)
	}
	// Empirical quantiles pick the smallest sample at or past the cut.
	if p10 != 1 {
		t.Errorf("p10 = %v, want 1", p10)
	}
	if p50 != 5 {
		t.Errorf("p50 = %v, want 5", p50)
	}
	if p90 != 9 {
		t.Errorf("p90 = %v, want 9", p90)
	}
}

func TestSpeedStatsEmpty(t *testing.T) {
	mean, p10, p50, p90 := SpeedStats([]float64{})

	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty sample should return all zeros")
	}
}

func TestSpeedStatsLeavesInputUnsorted(t *testing.T) {
	values := []float64{3, 1, 2}
	SpeedStats(values)

	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input was reordered: %v", values)
	}
}

func TestCollectorWindowing(t *testing.T) {
	c := NewCollector(2.0, 60)

	if c.WindowFrames() != 120 {
		t.Fatalf("window frames = %d, want 120", c.WindowFrames())
	}
	if c.ShouldFlush(119) {
		t.Error("should not flush before the window fills")
	}
	if !c.ShouldFlush(120) {
		t.Error("should flush once the window fills")
	}
}

func TestCollectorFlushResetsCounters(t *testing.T) {
	c := NewCollector(1.0, 60)

	c.RecordRelease()
	c.RecordReset()
	c.RecordAdvance(32, 3, 1)
	c.RecordProbe()
	c.RecordPoseDrop()

	stats := c.Flush(60, FrameSummary{
		Alive:     5,
		Drawn:     4,
		Speeds:    []float64{0.1, 0.2},
		SliceMode: "axis",
		SliceAxis: "+z",
	})

	if stats.Releases != 1 || stats.Resets != 1 || stats.Probes != 1 || stats.PoseDrops != 1 {
		t.Errorf("event counts wrong: %+v", stats)
	}
	if stats.AdvectionSteps != 32 || stats.RetiredBounds != 3 || stats.RetiredStalled != 1 {
		t.Errorf("advection counts wrong: %+v", stats)
	}
	if stats.TracersAlive != 5 || stats.TracersDrawn != 4 {
		t.Errorf("population wrong: %+v", stats)
	}
	if stats.WindowStartFrame != 0 || stats.WindowEndFrame != 60 {
		t.Errorf("window bounds wrong: %+v", stats)
	}

	// The next window starts clean.
	next := c.Flush(120, FrameSummary{})
	if next.Releases != 0 || next.AdvectionSteps != 0 || next.PoseDrops != 0 {
		t.Errorf("counters survived a flush: %+v", next)
	}
	if next.WindowStartFrame != 60 {
		t.Errorf("window start = %d, want 60", next.WindowStartFrame)
	}
}
