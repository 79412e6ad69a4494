package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartFrame int64   `csv:"-"`
	WindowEndFrame   int64   `csv:"window_end"`
	WallTimeSec      float64 `csv:"wall_time"`

	// Tracer population at window end
	TracersAlive int `csv:"alive"`
	TracersDrawn int `csv:"drawn"`

	// Events during window
	Releases       int `csv:"releases"`
	Resets         int `csv:"resets"`
	RetiredBounds  int `csv:"retired_bounds"`
	RetiredStalled int `csv:"retired_stalled"`
	AdvectionSteps int `csv:"advection_steps"`

	// Tracer speed distribution (sampled at window end, data units per ms)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Slicing state at window end
	SliceMode      string  `csv:"slice_mode"`
	SliceAxis      string  `csv:"slice_axis"`
	BoundaryPoints int     `csv:"boundary_points"`
	PlaneDepth     float64 `csv:"plane_depth"`

	// Probe and tracking
	Probes    int     `csv:"probes"`
	ProbePct  float64 `csv:"probe_pct"`
	PoseDrops int     `csv:"pose_drops"`
}

// SpeedStats summarizes a speed sample: mean and the 10th, 50th and 90th
// percentiles. Returns zeros for an empty sample.
func SpeedStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartFrame),
		slog.Int64("window_end", s.WindowEndFrame),
		slog.Float64("wall_time", s.WallTimeSec),
		slog.Int("alive", s.TracersAlive),
		slog.Int("drawn", s.TracersDrawn),
		slog.Int("releases", s.Releases),
		slog.Int("resets", s.Resets),
		slog.Int("retired_bounds", s.RetiredBounds),
		slog.Int("retired_stalled", s.RetiredStalled),
		slog.Int("advection_steps", s.AdvectionSteps),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.String("slice_mode", s.SliceMode),
		slog.String("slice_axis", s.SliceAxis),
		slog.Int("boundary_points", s.BoundaryPoints),
		slog.Float64("plane_depth", s.PlaneDepth),
		slog.Int("probes", s.Probes),
		slog.Float64("probe_pct", s.ProbePct),
		slog.Int("pose_drops", s.PoseDrops),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"wall_time", s.WallTimeSec,
		"alive", s.TracersAlive,
		"drawn", s.TracersDrawn,
		"releases", s.Releases,
		"resets", s.Resets,
		"retired_bounds", s.RetiredBounds,
		"retired_stalled", s.RetiredStalled,
		"advection_steps", s.AdvectionSteps,
		"speed_mean", s.SpeedMean,
		"speed_p10", s.SpeedP10,
		"speed_p50", s.SpeedP50,
		"speed_p90", s.SpeedP90,
		"slice_mode", s.SliceMode,
		"slice_axis", s.SliceAxis,
		"boundary_points", s.BoundaryPoints,
		"plane_depth", s.PlaneDepth,
		"probes", s.Probes,
		"probe_pct", s.ProbePct,
		"pose_drops", s.PoseDrops,
	)
}
