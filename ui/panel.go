// Package ui draws the raygui control panel for the desktop viewer: slice
// mode selection, zoom, tracer controls and the probe readout.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/oviz-lab/fluidlab/app"
	"github.com/oviz-lab/fluidlab/config"
	"github.com/oviz-lab/fluidlab/slicing"
)

// Panel is the session control panel.
type Panel struct {
	cfg     *config.Config
	x, y    float32
	width   float32
	visible bool
}

// NewPanel creates a panel anchored at the given screen position.
func NewPanel(cfg *config.Config, x, y, width float32) *Panel {
	return &Panel{cfg: cfg, x: x, y: y, width: width, visible: true}
}

// Toggle switches panel visibility and returns the new state.
func (p *Panel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// Draw renders the panel and forwards control changes to the app. It runs
// on the render context; every app call it makes is lock-guarded on the
// app side.
func (p *Panel) Draw(a *app.App, fs app.FrameState) {
	if !p.visible {
		return
	}

	x, y := p.x, p.y
	rl.DrawRectangle(int32(x-10), int32(y-10), int32(p.width+20), 320, rl.Fade(rl.Black, 0.55))

	rl.DrawText(a.Field().Name, int32(x), int32(y), 18, rl.RayWhite)
	y += 28

	// Slice mode
	rl.DrawText("Slice", int32(x), int32(y), 14, rl.LightGray)
	y += 18
	mode := int32(fs.Mode)
	newMode := gui.ToggleGroup(
		rl.Rectangle{X: x, Y: y, Width: (p.width - 9) / 4, Height: 24},
		"OFF;CAMERA;AXIS;STYLUS",
		mode,
	)
	if newMode != mode {
		a.SetSliceMode(slicing.Mode(newMode))
	}
	y += 34

	// Zoom
	rl.DrawText("Zoom", int32(x), int32(y), 14, rl.LightGray)
	y += 18
	zoom := a.Zoom()
	newZoom := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: p.width - 60, Height: 20},
		"", fmt.Sprintf("%.2f", zoom),
		zoom, float32(p.cfg.Volume.MinZoom), zoom*4,
	)
	if newZoom != zoom {
		a.SetZoom(newZoom)
	}
	y += 34

	// Tracer controls
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: (p.width - 10) / 2, Height: 26}, "Release") {
		if hit := a.Effector(); hit.Valid {
			a.ReleaseParticles(hit.Point)
		}
	}
	if gui.Button(rl.Rectangle{X: x + (p.width+10)/2, Y: y, Width: (p.width - 10) / 2, Height: 26}, "Reset") {
		a.ResetParticles()
	}
	y += 36

	// Status readouts
	status := []string{
		fmt.Sprintf("tracers alive: %d / %d", a.AliveCount(), p.cfg.Tracers.PoolSize),
		fmt.Sprintf("drawn: %d", len(fs.Particles)),
	}
	if fs.Mode == slicing.ModeAxis {
		status = append(status, fmt.Sprintf("axis lock: %s", fs.Axis))
	}
	if fs.ClipActive {
		status = append(status, fmt.Sprintf("plane: n=(%.2f %.2f %.2f) d=%.1f",
			fs.ClipNormal.X(), fs.ClipNormal.Y(), fs.ClipNormal.Z(), fs.ClipOffset))
	}
	if fs.Probing {
		status = append(status, fmt.Sprintf("surface: %.1f%%", fs.SurfacePct*100))
	}
	if !fs.TangibleVisible {
		status = append(status, "tracking lost")
	}
	if !fs.HasVectors {
		status = append(status, "no velocity data")
	}
	for _, line := range status {
		rl.DrawText(line, int32(x), int32(y), 14, rl.RayWhite)
		y += 18
	}
}
