// Package telemetry tracks session health: frame statistics, probe
// measurements, tracer lifetimes, and notable moments.
package telemetry

import "log/slog"

// ProbeRecord is one committed probe measurement, taken when the stylus
// button is released.
type ProbeRecord struct {
	FrameID    int64   `csv:"frame"`
	WallTimeMs int64   `csv:"wall_ms"`
	X          float32 `csv:"x"`
	Y          float32 `csv:"y"`
	Z          float32 `csv:"z"`
	Value      float64 `csv:"value"`
	Percentage float64 `csv:"pct"`
}

// LogProbe logs the measurement using slog.
func (r ProbeRecord) LogProbe() {
	slog.Info("probe",
		"frame", r.FrameID,
		"x", r.X,
		"y", r.Y,
		"z", r.Z,
		"value", r.Value,
		"pct", r.Percentage,
	)
}
