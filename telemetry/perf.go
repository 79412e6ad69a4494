package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the frame pipeline.
const (
	PhasePose   = "pose"
	PhaseProbe  = "probe"
	PhaseClip   = "clip"
	PhaseAdvect = "advect"
	PhaseEmit   = "emit"
	PhaseDraw   = "draw"
)

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	// Wall-clock presentation timing
	lastPresent     time.Time
	presentDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to average over (e.g. 120 for 2 seconds at
// 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 120
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, closing the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndFrame finishes timing the current frame and records the sample.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Phases:        p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordPresent marks a frame hitting the screen, for wall-clock FPS.
func (p *PerfCollector) RecordPresent() {
	now := time.Now()
	if !p.lastPresent.IsZero() {
		p.presentDuration = now.Sub(p.lastPresent)
	}
	p.lastPresent = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total frame time
	PhasePct map[string]float64

	// Pipeline throughput
	FramesPerSecond float64

	// Wall-clock presentation
	PresentDuration time.Duration
	PresentFPS      float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var presentFPS float64
	if p.presentDuration > 0 {
		presentFPS = float64(time.Second) / float64(p.presentDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:        make(map[string]time.Duration),
			PhasePct:        make(map[string]float64),
			PresentDuration: p.presentDuration,
			PresentFPS:      presentFPS,
		}
	}

	var totalFrame time.Duration
	var minFrame, maxFrame time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalFrame += s.FrameDuration

		if i == 0 || s.FrameDuration < minFrame {
			minFrame = s.FrameDuration
		}
		if s.FrameDuration > maxFrame {
			maxFrame = s.FrameDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avgFrame := totalFrame / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgFrame > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgFrame) * 100
		}
	}

	var framesPerSec float64
	if avgFrame > 0 {
		framesPerSec = float64(time.Second) / float64(avgFrame)
	}

	return PerfStats{
		AvgFrameDuration: avgFrame,
		MinFrameDuration: minFrame,
		MaxFrameDuration: maxFrame,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		FramesPerSecond:  framesPerSec,
		PresentDuration:  p.presentDuration,
		PresentFPS:       presentFPS,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgFrameDuration.Microseconds(),
		"min_frame_us", s.MinFrameDuration.Microseconds(),
		"max_frame_us", s.MaxFrameDuration.Microseconds(),
		"frames_per_sec", int(s.FramesPerSecond),
	}

	if s.PresentFPS > 0 {
		attrs = append(attrs, "fps", int(s.PresentFPS))
	}

	phases := []string{
		PhasePose, PhaseProbe, PhaseClip, PhaseAdvect, PhaseEmit, PhaseDraw,
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}

	if s.PresentFPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.PresentFPS))
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	AvgFrameUS   int64   `csv:"avg_frame_us"`
	MinFrameUS   int64   `csv:"min_frame_us"`
	MaxFrameUS   int64   `csv:"max_frame_us"`
	FramesPerSec float64 `csv:"frames_per_sec"`
	FPS          float64 `csv:"fps"`
	PosePct      float64 `csv:"pose_pct"`
	ProbePct     float64 `csv:"probe_pct"`
	ClipPct      float64 `csv:"clip_pct"`
	AdvectPct    float64 `csv:"advect_pct"`
	EmitPct      float64 `csv:"emit_pct"`
	DrawPct      float64 `csv:"draw_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgFrameUS:   s.AvgFrameDuration.Microseconds(),
		MinFrameUS:   s.MinFrameDuration.Microseconds(),
		MaxFrameUS:   s.MaxFrameDuration.Microseconds(),
		FramesPerSec: s.FramesPerSecond,
		FPS:          s.PresentFPS,
		PosePct:      s.PhasePct[PhasePose],
		ProbePct:     s.PhasePct[PhaseProbe],
		ClipPct:      s.PhasePct[PhaseClip],
		AdvectPct:    s.PhasePct[PhaseAdvect],
		EmitPct:      s.PhasePct[PhaseEmit],
		DrawPct:      s.PhasePct[PhaseDraw],
	}
}
