// Package app ties the visualization core together: it owns the shared
// interaction state written by the tracking host and read by the renderer,
// and sequences the per-frame pipeline of clip plane, probe and advection
// updates. Every shared entity carries its own lock; the update path
// snapshots state under the lock and computes outside it, so a render pass
// may see a pose one update old but never a torn one.
package app

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/oviz-lab/fluidlab/config"
	"github.com/oviz-lab/fluidlab/dataset"
	"github.com/oviz-lab/fluidlab/particles"
	"github.com/oviz-lab/fluidlab/slicing"
	"github.com/oviz-lab/fluidlab/space"
)

// Options configures a session beyond what the config file covers.
type Options struct {
	Seed           int64
	OutputDir      string
	LogStats       bool
	StatsWindowSec float64

	// Clock returns the current time in unix milliseconds. Nil uses the
	// wall clock; tests substitute a fake.
	Clock func() int64
}

// EffectorHit is the cached intersection of the stylus ray with the volume.
type EffectorHit struct {
	Point mgl32.Vec3 // eye space
	Valid bool
}

// App is the orchestrator. One instance per loaded dataset.
type App struct {
	cfg     *config.Config
	field   *dataset.Field
	preview *dataset.Field
	proj    mgl32.Mat4
	clock   func() int64

	pool *particles.Pool // internally locked

	// The slicing engine keeps filter and lock state across frames. Its
	// mutex also covers mode and forced-axis settings changed from the UI.
	engineMu sync.Mutex
	engine   *slicing.Engine
	mode     slicing.Mode

	// Pose state written by the host once per tracking sample.
	poseMu          sync.Mutex
	model           mgl32.Mat4
	stylus          mgl32.Mat4
	zoom            float32
	tangibleVisible bool
	stylusVisible   bool
	havePose        bool

	// Last computed slice, consumed by the render path.
	sliceMu sync.Mutex
	slice   slicing.Result

	// Effector intersection cache, consumed by UI feedback.
	effectorMu sync.Mutex
	effector   EffectorHit

	// Surface probe state for the button gesture.
	probeMu    sync.Mutex
	probing    bool
	probeSeen  bool
	probeValue float32
	probePct   float64
	probeData  mgl32.Vec3

	frameID atomic.Int64

	rec *Recorder
}

// New builds an App around a loaded field. The caller keeps ownership of
// the field; it is never mutated here.
func New(field *dataset.Field, cfg *config.Config, opts Options) (*App, error) {
	clock := opts.Clock
	if clock == nil {
		clock = func() int64 { return time.Now().UnixMilli() }
	}

	proj := space.Projection(cfg.Derived.FOVRad, cfg.Derived.Aspect,
		float32(cfg.Projection.Near), float32(cfg.Projection.Far))

	engine := slicing.NewEngine(slicing.Params{
		ClipDistance:       float32(cfg.Slicing.ClipDistance),
		CameraFilterWeight: float32(cfg.Slicing.CameraFilterWeight),
		HysteresisMargin:   float32(cfg.Slicing.AxisHysteresisMargin),
		GuideEpsilon:       float32(cfg.Slicing.GuideEpsilon),
		MaxBoundaryPoints:  cfg.Slicing.MaxBoundaryPoints,
		StylusPlanePad:     float32(cfg.Slicing.StylusPlanePad),
	}, proj)

	pool := particles.NewPool(particles.Params{
		PoolSize:          cfg.Tracers.PoolSize,
		ReleaseDurationMs: cfg.Tracers.ReleaseDurationMs,
		StallDurationMs:   cfg.Tracers.StallDurationMs,
		StepSize:          float32(cfg.Tracers.StepSize),
		SpeedThreshold:    float32(cfg.Tracers.SpeedThreshold),
		JitterScale:       float32(cfg.Tracers.JitterScale),
		SwapVelocityXY:    cfg.Corrections.SwapVelocityXY,
	}, opts.Seed)

	rec, err := newRecorder(cfg, opts)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		field:   field,
		preview: field.Preview(cfg.Volume.PreviewDivisor),
		proj:    proj,
		clock:   clock,
		pool:    pool,
		engine:  engine,
		mode:    slicing.ModeOff,
		model:   mgl32.Ident4(),
		stylus:  mgl32.Ident4(),
		zoom:    field.DefaultZoom(float32(cfg.Volume.NativeSize), float32(cfg.Volume.MinZoom)),
		rec:     rec,
	}

	slog.Info("session ready",
		"dataset", field.Name,
		"dims", field.Dims,
		"has_vectors", field.HasVectors(),
		"zoom", a.zoom,
		"pool", cfg.Tracers.PoolSize,
	)
	return a, nil
}

// Close flushes telemetry output.
func (a *App) Close() error {
	return a.rec.Close()
}

// Field returns the loaded dataset.
func (a *App) Field() *dataset.Field { return a.field }

// Preview returns the low resolution scalar field backing the threshold
// preview geometry.
func (a *App) Preview() *dataset.Field { return a.preview }

// snapshotPose copies the pose state out under its lock.
func (a *App) snapshotPose() (model, stylus mgl32.Mat4, zoom float32, tangible, stylusVis, have bool) {
	a.poseMu.Lock()
	defer a.poseMu.Unlock()
	return a.model, a.stylus, a.zoom, a.tangibleVisible, a.stylusVisible, a.havePose
}

// SetMatrices updates the tracked poses and runs the frame pipeline. This is
// the update-context entry point; the host calls it once per tracking
// sample.
func (a *App) SetMatrices(model, stylus mgl32.Mat4) {
	a.poseMu.Lock()
	a.model = model
	a.stylus = stylus
	a.havePose = true
	a.poseMu.Unlock()

	a.step()
}

// SetZoom changes the user zoom factor.
func (a *App) SetZoom(zoom float32) {
	if zoom < float32(a.cfg.Volume.MinZoom) {
		zoom = float32(a.cfg.Volume.MinZoom)
	}
	a.poseMu.Lock()
	a.zoom = zoom
	a.poseMu.Unlock()
}

// Zoom returns the current zoom factor.
func (a *App) Zoom() float32 {
	a.poseMu.Lock()
	defer a.poseMu.Unlock()
	return a.zoom
}

// SetTangibleVisible flags whether the volume proxy is currently tracked.
// While hidden, particles freeze and the camera plane filter resets.
func (a *App) SetTangibleVisible(v bool) {
	a.poseMu.Lock()
	a.tangibleVisible = v
	a.poseMu.Unlock()
}

// SetStylusVisible flags whether the stylus proxy is currently tracked.
func (a *App) SetStylusVisible(v bool) {
	a.poseMu.Lock()
	a.stylusVisible = v
	a.poseMu.Unlock()
}

// SetSliceMode selects the slicing strategy. Switching drops the previous
// strategy's filter and lock state.
func (a *App) SetSliceMode(mode slicing.Mode) {
	a.engineMu.Lock()
	if mode != a.mode {
		a.mode = mode
		a.engine.Reset()
		slog.Info("slice mode", "mode", mode.String())
	}
	a.engineMu.Unlock()
}

// SliceMode returns the active slicing strategy.
func (a *App) SliceMode() slicing.Mode {
	a.engineMu.Lock()
	defer a.engineMu.Unlock()
	return a.mode
}

// SetForcedAxis pins the axis strategy to one axis.
func (a *App) SetForcedAxis(axis slicing.Axis) {
	a.engineMu.Lock()
	a.engine.SetForcedAxis(axis)
	a.engineMu.Unlock()
}

// ReleaseParticles reseeds the tracer pool from an eye-space seed point.
// A zero seed is the tracker's "no pick" sentinel and is ignored, as is a
// seed outside the volume.
func (a *App) ReleaseParticles(seedEye mgl32.Vec3) {
	if seedEye == (mgl32.Vec3{}) {
		slog.Debug("release ignored", "reason", "unset seed")
		return
	}
	model, _, zoom, _, _, have := a.snapshotPose()
	if !have {
		slog.Debug("release ignored", "reason", "no pose yet")
		return
	}
	frame, ok := space.NewFrame(model, zoom, a.field.Dims, a.field.Spacing)
	if !ok {
		slog.Debug("release ignored", "reason", "degenerate model matrix")
		return
	}
	if !a.pool.Release(frame, a.field, seedEye, a.clock()) {
		slog.Info("release ignored", "reason", "seed outside volume",
			"seed_data", frame.ToData(seedEye))
		return
	}
	a.rec.RecordRelease()
	slog.Info("particles released", "seed_data", frame.ToData(seedEye))
}

// ResetParticles retires the whole pool immediately.
func (a *App) ResetParticles() {
	a.pool.Reset()
	a.rec.RecordReset()
}

// AliveCount returns the number of live tracers.
func (a *App) AliveCount() int { return a.pool.AliveCount() }

// ButtonPressed starts the surface threshold preview gesture. While held,
// each frame probes the scalar field at the effector and low-passes the
// value.
func (a *App) ButtonPressed() {
	a.probeMu.Lock()
	a.probing = true
	a.probeSeen = false
	a.probePct = 0
	a.probeMu.Unlock()
}

// ButtonReleased ends the preview gesture and returns the final surface
// percentage in [0, 1]. Any internal failure maps to 0.0; the gesture
// boundary is where per-frame errors are allowed to surface, and a bad
// probe must not take the session down.
func (a *App) ButtonReleased() (pct float64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("probe recovery", "panic", r)
			pct = 0
		}
	}()

	a.probeMu.Lock()
	wasProbing := a.probing
	a.probing = false
	seen := a.probeSeen
	pct = a.probePct
	value := a.probeValue
	pos := a.probeData
	a.probeMu.Unlock()

	if !wasProbing || !seen {
		return 0
	}
	a.rec.RecordProbe(a.frameID.Load(), a.clock(), pos, float64(value), pct)
	return pct
}

// RecordPresent marks a frame hitting the screen; the render loop calls it
// once per drawn frame.
func (a *App) RecordPresent() { a.rec.RecordPresent() }

// SurfacePercentage returns the running preview percentage while the button
// is held.
func (a *App) SurfacePercentage() float64 {
	a.probeMu.Lock()
	defer a.probeMu.Unlock()
	return a.probePct
}

// Probing reports whether the preview gesture is active.
func (a *App) Probing() bool {
	a.probeMu.Lock()
	defer a.probeMu.Unlock()
	return a.probing
}

// Effector returns the cached stylus ray intersection with the volume.
func (a *App) Effector() EffectorHit {
	a.effectorMu.Lock()
	defer a.effectorMu.Unlock()
	return a.effector
}

// ShowIsosurface reports whether the loaded dataset renders an isosurface.
// Some datasets are volume-render only, listed by name in the corrections
// config.
func (a *App) ShowIsosurface() bool {
	for _, name := range a.cfg.Corrections.SkipIsosurfaceFor {
		if name == a.field.Name {
			return false
		}
	}
	return true
}
