package telemetry

import "github.com/go-gl/mathgl/mgl32"

// TraceStats accumulates over one tracer's journey from release to
// retirement. Lengths and speeds are in data units.
type TraceStats struct {
	Slot       int32
	ReleaseMs  int64
	LifetimeMs int64
	Samples    int
	PathLength float32
	PeakSpeed  float32
	Cause      string
}

// TraceRecord is the flat CSV form of a finished trace.
type TraceRecord struct {
	Slot       int32   `csv:"slot"`
	ReleaseMs  int64   `csv:"release_ms"`
	LifetimeMs int64   `csv:"lifetime_ms"`
	Samples    int     `csv:"samples"`
	PathLength float32 `csv:"path_length"`
	PeakSpeed  float32 `csv:"peak_speed"`
	Cause      string  `csv:"cause"`
}

// Record converts the stats to their CSV form.
func (s *TraceStats) Record() TraceRecord {
	return TraceRecord{
		Slot:       s.Slot,
		ReleaseMs:  s.ReleaseMs,
		LifetimeMs: s.LifetimeMs,
		Samples:    s.Samples,
		PathLength: s.PathLength,
		PeakSpeed:  s.PeakSpeed,
		Cause:      s.Cause,
	}
}

type traceEntry struct {
	stats   TraceStats
	lastPos mgl32.Vec3
	lastMs  int64
	hasLast bool
}

// TraceTracker manages per-slot trace statistics between release and
// retirement.
type TraceTracker struct {
	traces map[int32]*traceEntry
}

// NewTraceTracker creates a new trace tracker.
func NewTraceTracker() *TraceTracker {
	return &TraceTracker{
		traces: make(map[int32]*traceEntry),
	}
}

// Begin starts a fresh trace for a slot, discarding any running one.
func (tt *TraceTracker) Begin(slot int32, nowMs int64) {
	tt.traces[slot] = &traceEntry{
		stats: TraceStats{Slot: slot, ReleaseMs: nowMs},
	}
}

// Move folds one observed position into the slot's trace.
func (tt *TraceTracker) Move(slot int32, pos mgl32.Vec3, nowMs int64) {
	e := tt.traces[slot]
	if e == nil {
		return
	}
	if e.hasLast {
		d := pos.Sub(e.lastPos).Len()
		e.stats.PathLength += d
		if dt := nowMs - e.lastMs; dt > 0 {
			if speed := d / float32(dt); speed > e.stats.PeakSpeed {
				e.stats.PeakSpeed = speed
			}
		}
	}
	e.stats.Samples++
	e.stats.LifetimeMs = nowMs - e.stats.ReleaseMs
	e.lastPos = pos
	e.lastMs = nowMs
	e.hasLast = true
}

// Retire finishes a slot's trace and returns it, or nil if none was running.
func (tt *TraceTracker) Retire(slot int32, nowMs int64, cause string) *TraceStats {
	e := tt.traces[slot]
	if e == nil {
		return nil
	}
	delete(tt.traces, slot)
	e.stats.LifetimeMs = nowMs - e.stats.ReleaseMs
	e.stats.Cause = cause
	return &e.stats
}

// Get returns the running stats for a slot, or nil.
func (tt *TraceTracker) Get(slot int32) *TraceStats {
	if e := tt.traces[slot]; e != nil {
		return &e.stats
	}
	return nil
}

// Count returns the number of running traces.
func (tt *TraceTracker) Count() int {
	return len(tt.traces)
}
