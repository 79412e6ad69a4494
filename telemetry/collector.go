package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec float64
	windowFrames      int64
	dt                float64

	windowStartFrame int64

	// Event counters for current window
	releases       int
	resets         int
	retiredBounds  int
	retiredStalled int
	advectionSteps int
	probes         int
	poseDrops      int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in wall seconds
// fps: frames per second (used for frame-to-time conversion)
func NewCollector(windowDurationSec float64, fps int) *Collector {
	if fps < 1 {
		fps = 60
	}
	frames := int64(windowDurationSec * float64(fps))
	if frames < 1 {
		frames = 1
	}

	return &Collector{
		windowDurationSec: windowDurationSec,
		windowFrames:      frames,
		dt:                1 / float64(fps),
	}
}

// RecordRelease records a pool release.
func (c *Collector) RecordRelease() {
	c.releases++
}

// RecordReset records a pool reset.
func (c *Collector) RecordReset() {
	c.resets++
}

// RecordAdvance folds in the results of one advection pass.
func (c *Collector) RecordAdvance(steps, retiredBounds, retiredStalled int) {
	c.advectionSteps += steps
	c.retiredBounds += retiredBounds
	c.retiredStalled += retiredStalled
}

// RecordProbe records a committed probe measurement.
func (c *Collector) RecordProbe() {
	c.probes++
}

// RecordPoseDrop records a discarded tracking update.
func (c *Collector) RecordPoseDrop() {
	c.poseDrops++
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentFrame int64) bool {
	return currentFrame-c.windowStartFrame >= c.windowFrames
}

// FrameSummary is the live state sampled at a window boundary.
type FrameSummary struct {
	Alive          int
	Drawn          int
	Speeds         []float64
	SliceMode      string
	SliceAxis      string
	BoundaryPoints int
	PlaneDepth     float64
	ProbePct       float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentFrame int64, s FrameSummary) WindowStats {
	mean, p10, p50, p90 := SpeedStats(s.Speeds)

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   currentFrame,
		WallTimeSec:      float64(currentFrame) * c.dt,

		TracersAlive: s.Alive,
		TracersDrawn: s.Drawn,

		Releases:       c.releases,
		Resets:         c.resets,
		RetiredBounds:  c.retiredBounds,
		RetiredStalled: c.retiredStalled,
		AdvectionSteps: c.advectionSteps,

		SpeedMean: mean,
		SpeedP10:  p10,
		SpeedP50:  p50,
		SpeedP90:  p90,

		SliceMode:      s.SliceMode,
		SliceAxis:      s.SliceAxis,
		BoundaryPoints: s.BoundaryPoints,
		PlaneDepth:     s.PlaneDepth,

		Probes:    c.probes,
		ProbePct:  s.ProbePct,
		PoseDrops: c.poseDrops,
	}

	c.windowStartFrame = currentFrame
	c.releases = 0
	c.resets = 0
	c.retiredBounds = 0
	c.retiredStalled = 0
	c.advectionSteps = 0
	c.probes = 0
	c.poseDrops = 0

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int64 {
	return c.windowFrames
}
