// Package config provides configuration loading and access for the visualization.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all visualization configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Projection  ProjectionConfig  `yaml:"projection"`
	Volume      VolumeConfig      `yaml:"volume"`
	Slicing     SlicingConfig     `yaml:"slicing"`
	Probe       ProbeConfig       `yaml:"probe"`
	Tracers     TracersConfig     `yaml:"tracers"`
	Corrections CorrectionsConfig `yaml:"corrections"`
	Posefeed    PosefeedConfig    `yaml:"posefeed"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ProjectionConfig holds the eye-space projection parameters.
type ProjectionConfig struct {
	FOVDeg     float64 `yaml:"fov_deg"`
	Near       float64 `yaml:"near"`
	Far        float64 `yaml:"far"`
	SideBySide bool    `yaml:"side_by_side"` // Aspect uses half the window width (stereo pair)
}

// VolumeConfig holds dataset presentation parameters.
type VolumeConfig struct {
	NativeSize         float64 `yaml:"native_size"` // Longest physical extent maps to this many eye units at default zoom
	MinZoom            float64 `yaml:"min_zoom"`
	PreviewDivisor     int     `yaml:"preview_divisor"`
	PointBudget        int     `yaml:"point_budget"`
	OpacityWithTracers float64 `yaml:"opacity_with_tracers"`
}

// SlicingConfig holds clip-plane computation parameters.
type SlicingConfig struct {
	ClipDistance         float64 `yaml:"clip_distance"`          // Depth of the camera-locked plane in front of the eye
	CameraFilterWeight   float64 `yaml:"camera_filter_weight"`   // Low-pass weight for the camera plane position
	AxisHysteresisMargin float64 `yaml:"axis_hysteresis_margin"` // Dominance margin once an axis is held
	GuideEpsilon         float64 `yaml:"guide_epsilon"`          // Shared-coordinate tolerance for guide segments
	MaxBoundaryPoints    int     `yaml:"max_boundary_points"`
	StylusPlanePad       float64 `yaml:"stylus_plane_pad"` // Added to the longest extent for the stylus quad size
}

// ProbeConfig holds surface probe parameters.
type ProbeConfig struct {
	FilterWeight float64 `yaml:"filter_weight"` // Low-pass weight for probed scalar values
	EffectorPad  float64 `yaml:"effector_pad"`  // Added to the longest extent for the effector offset
}

// TracersConfig holds particle tracer parameters.
type TracersConfig struct {
	PoolSize          int     `yaml:"pool_size"`
	ReleaseDurationMs int     `yaml:"release_duration_ms"` // Staggered start window for one release
	StallDurationMs   int     `yaml:"stall_duration_ms"`   // Wait before a stalled tracer resamples
	StepSize          float64 `yaml:"step_size"`           // Velocity multiplier per 1 ms sub-step
	SpeedThreshold    float64 `yaml:"speed_threshold"`     // Below this magnitude the flow counts as stagnant
	JitterScale       float64 `yaml:"jitter_scale"`
	RenderRadius      float64 `yaml:"render_radius"`
}

// CorrectionsConfig holds per-dataset convention workarounds.
type CorrectionsConfig struct {
	SwapVelocityXY    bool     `yaml:"swap_velocity_xy"`    // Exchange X/Y vector components at sample time
	SkipIsosurfaceFor []string `yaml:"skip_isosurface_for"` // Dataset names rendered without an isosurface
}

// PosefeedConfig holds tracking input parameters.
type PosefeedConfig struct {
	Listen         string  `yaml:"listen"` // Websocket address for live poses ("" = scripted orbit)
	OrbitPeriodSec float64 `yaml:"orbit_period_sec"`
	OrbitDistance  float64 `yaml:"orbit_distance"`
	StylusSweepSec float64 `yaml:"stylus_sweep_sec"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32 // Screen.Width as float32
	ScreenH32 float32 // Screen.Height as float32
	FOVRad    float32 // Projection.FOVDeg in radians
	Aspect    float32 // Viewport aspect ratio after the side-by-side split
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.FOVRad = float32(c.Projection.FOVDeg * math.Pi / 180.0)

	w := float32(c.Screen.Width)
	if c.Projection.SideBySide {
		w /= 2
	}
	c.Derived.Aspect = w / float32(c.Screen.Height)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
