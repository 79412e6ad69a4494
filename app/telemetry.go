package app

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/oviz-lab/fluidlab/components"
	"github.com/oviz-lab/fluidlab/config"
	"github.com/oviz-lab/fluidlab/particles"
	"github.com/oviz-lab/fluidlab/slicing"
	"github.com/oviz-lab/fluidlab/telemetry"
)

// rankingSize caps the per-session top trace list.
const rankingSize = 20

// Recorder bundles the session's telemetry: frame phase timing, windowed
// event stats, per-tracer trace accounting and CSV output. All methods are
// called from the update context except RecordPresent; a nil *Recorder is
// inert.
type Recorder struct {
	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	tracker   *telemetry.TraceTracker
	ranking   *telemetry.TraceRanking
	detector  *telemetry.BookmarkDetector
	out       *telemetry.OutputManager

	logStats bool

	prevPhases map[int32]components.Phase
	prevPos    map[int32]mgl32.Vec3
	prevMs     int64
	speeds     []float64
}

// newRecorder wires the telemetry stack from config and options. Returns a
// nil recorder when neither stats logging nor file output is requested.
func newRecorder(cfg *config.Config, opts Options) (*Recorder, error) {
	if !opts.LogStats && opts.OutputDir == "" {
		return nil, nil
	}

	out, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := out.WriteConfig(cfg); err != nil {
		out.Close()
		return nil, err
	}

	window := opts.StatsWindowSec
	if window <= 0 {
		window = cfg.Telemetry.StatsWindow
	}

	return &Recorder{
		perf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:  telemetry.NewCollector(window, cfg.Screen.TargetFPS),
		tracker:    telemetry.NewTraceTracker(),
		ranking:    telemetry.NewTraceRanking(rankingSize),
		detector:   telemetry.NewBookmarkDetector(8, cfg.Tracers.PoolSize),
		out:        out,
		logStats:   opts.LogStats,
		prevPhases: make(map[int32]components.Phase),
		prevPos:    make(map[int32]mgl32.Vec3),
	}, nil
}

func (r *Recorder) StartFrame() {
	if r == nil {
		return
	}
	r.perf.StartFrame()
}

func (r *Recorder) StartPhase(phase string) {
	if r == nil {
		return
	}
	r.perf.StartPhase(phase)
}

// DropFrame abandons timing for a frame that exited early.
func (r *Recorder) DropFrame() {
	if r == nil {
		return
	}
	r.perf.EndFrame()
}

// RecordPresent marks a drawn frame; called from the render context.
func (r *Recorder) RecordPresent() {
	if r == nil {
		return
	}
	r.perf.RecordPresent()
}

func (r *Recorder) RecordPoseDrop() {
	if r == nil {
		return
	}
	r.collector.RecordPoseDrop()
}

// RecordRelease notes a pool release. Forgetting the previous phases makes
// trackTraces open fresh traces for the reseeded slots.
func (r *Recorder) RecordRelease() {
	if r == nil {
		return
	}
	r.collector.RecordRelease()
	for slot := range r.prevPhases {
		delete(r.prevPhases, slot)
	}
}

func (r *Recorder) RecordReset() {
	if r == nil {
		return
	}
	r.collector.RecordReset()
}

func (r *Recorder) RecordAdvance(stats particles.AdvanceStats) {
	if r == nil {
		return
	}
	r.collector.RecordAdvance(stats.Steps, stats.RetiredBounds, stats.RetiredStalled)
}

// RecordProbe writes a committed probe measurement.
func (r *Recorder) RecordProbe(frameID, nowMs int64, pos mgl32.Vec3, value, pct float64) {
	if r == nil {
		return
	}
	r.collector.RecordProbe()
	rec := telemetry.ProbeRecord{
		FrameID:    frameID,
		WallTimeMs: nowMs,
		X:          pos.X(),
		Y:          pos.Y(),
		Z:          pos.Z(),
		Value:      value,
		Percentage: pct,
	}
	if r.logStats {
		rec.LogProbe()
	}
	if err := r.out.WriteProbe(rec); err != nil {
		slog.Warn("telemetry write failed", "error", err)
	}
}

// FrameDone closes the frame's timing, folds tracer movement into the
// trace accounting, and flushes a stats window when due.
func (r *Recorder) FrameDone(a *App, nowMs int64, mode slicing.Mode, res slicing.Result) {
	if r == nil {
		return
	}

	frameID := a.frameID.Load()
	states := a.pool.States()
	drawn := r.trackTraces(states, nowMs)
	r.perf.EndFrame()

	if !r.collector.ShouldFlush(frameID) {
		return
	}

	alive := 0
	for i := range states {
		if states[i].Phase != components.PhaseDormant {
			alive++
		}
	}

	stats := r.collector.Flush(frameID, telemetry.FrameSummary{
		Alive:          alive,
		Drawn:          drawn,
		Speeds:         r.speeds,
		SliceMode:      mode.String(),
		SliceAxis:      res.Axis.String(),
		BoundaryPoints: len(res.Boundary),
		PlaneDepth:     float64(res.Depth),
		ProbePct:       a.SurfacePercentage(),
	})
	r.speeds = r.speeds[:0]

	if r.logStats {
		stats.LogStats()
		r.perf.Stats().LogStats()
	}
	if err := r.out.WriteStats(stats); err != nil {
		slog.Warn("telemetry write failed", "error", err)
	}
	if err := r.out.WritePerf(r.perf.Stats(), frameID); err != nil {
		slog.Warn("telemetry write failed", "error", err)
	}

	for _, b := range r.detector.Check(stats) {
		b.LogBookmark()
		if err := r.out.WriteBookmark(b); err != nil {
			slog.Warn("telemetry write failed", "error", err)
		}
	}
}

// trackTraces advances per-slot trace accounting from one frame's pool
// snapshot and returns the number of drawn tracers.
func (r *Recorder) trackTraces(states []particles.TracerState, nowMs int64) int {
	drawn := 0
	dt := nowMs - r.prevMs
	for i := range states {
		s := &states[i]
		prev, known := r.prevPhases[s.Slot]

		switch s.Phase {
		case components.PhaseActive, components.PhaseStalled:
			drawn++
			if !known || prev == components.PhaseDormant || prev == components.PhaseDelayed {
				r.tracker.Begin(s.Slot, nowMs)
			}
			if p, ok := r.prevPos[s.Slot]; ok && dt > 0 && s.Phase == components.PhaseActive {
				r.speeds = append(r.speeds, float64(s.Pos.Sub(p).Len())/float64(dt))
			}
			r.tracker.Move(s.Slot, s.Pos, nowMs)
			r.prevPos[s.Slot] = s.Pos

		case components.PhaseDormant:
			if known && prev != components.PhaseDormant {
				cause := "bounds"
				if prev == components.PhaseStalled {
					cause = "stalled"
				}
				if ts := r.tracker.Retire(s.Slot, nowMs, cause); ts != nil {
					if r.ranking.Consider(*ts) {
						if err := r.out.WriteTrace(ts.Record()); err != nil {
							slog.Warn("telemetry write failed", "error", err)
						}
					}
				}
			}
			delete(r.prevPos, s.Slot)
		}
		r.prevPhases[s.Slot] = s.Phase
	}
	r.prevMs = nowMs
	return drawn
}

// Close writes the final trace ranking and closes the output files.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	if dir := r.out.Dir(); dir != "" && r.ranking.Size() > 0 {
		if data, err := r.ranking.MarshalJSON(); err == nil {
			if err := os.WriteFile(filepath.Join(dir, "top_traces.json"), data, 0644); err != nil {
				slog.Warn("telemetry write failed", "error", err)
			}
		}
	}
	if best, ok := r.ranking.Best(); ok {
		slog.Info("best trace",
			"slot", best.Slot,
			"path_length", best.PathLength,
			"lifetime_ms", best.LifetimeMs,
			"cause", best.Cause,
		)
	}
	return r.out.Close()
}
