// Package renderer draws the session state with raylib. All geometry
// arrives in eye space from the application's frame snapshot; the raylib
// camera sits at the eye origin looking down -z, so eye coordinates pass
// through unchanged.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/oviz-lab/fluidlab/app"
	"github.com/oviz-lab/fluidlab/config"
	"github.com/oviz-lab/fluidlab/dataset"
	"github.com/oviz-lab/fluidlab/space"
)

// Scene renders one session.
type Scene struct {
	cfg *config.Config
	cam rl.Camera3D

	// volume point cloud, rebuilt when the threshold changes
	points    []rl.Vector3 // voxel centers, data space
	values    []float32
	threshold float32
	built     bool
}

// NewScene creates a scene renderer.
func NewScene(cfg *config.Config) *Scene {
	return &Scene{
		cfg: cfg,
		cam: rl.Camera3D{
			Position:   rl.Vector3{},
			Target:     rl.Vector3{Z: -1},
			Up:         rl.Vector3{Y: 1},
			Fovy:       float32(cfg.Projection.FOVDeg),
			Projection: rl.CameraPerspective,
		},
	}
}

func vec3(v mgl32.Vec3) rl.Vector3 {
	return rl.Vector3{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// Draw renders one frame snapshot. preview backs the volume point cloud;
// threshold is the isosurface level as a fraction of the scalar range.
func (s *Scene) Draw(fs app.FrameState, preview *dataset.Field, threshold float64) {
	rl.BeginMode3D(s.cam)

	s.drawOutline(fs)
	if fs.ShowIsosurface || fs.Probing {
		s.drawVolumePoints(fs, preview, float32(threshold))
	}
	s.drawSlice(fs)
	s.drawParticles(fs)
	s.drawStylus(fs)

	rl.EndMode3D()
}

// drawOutline draws the volume box edges. Green signals that velocity data
// is attached and tracers can be released; red that the dataset is scalar
// only. The outline dims while tracking is lost.
func (s *Scene) drawOutline(fs app.FrameState) {
	color := rl.Red
	if fs.HasVectors {
		color = rl.Green
	}
	if !fs.TangibleVisible {
		color = rl.Fade(color, 0.25)
	}
	for _, e := range fs.Outline {
		rl.DrawLine3D(vec3(e[0]), vec3(e[1]), color)
	}
}

// drawSlice draws the slice quad, the boundary polygon and the face guide
// lines.
func (s *Scene) drawSlice(fs app.FrameState) {
	if !fs.ClipActive {
		return
	}

	if fs.HasQuad {
		var c [4]rl.Vector3
		for i, q := range [4]mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}} {
			c[i] = vec3(mgl32.TransformCoordinate(q, fs.Quad))
		}
		fill := rl.Fade(rl.SkyBlue, 0.2)
		rl.DrawTriangle3D(c[0], c[1], c[2], fill)
		rl.DrawTriangle3D(c[0], c[2], c[3], fill)
		// Back faces
		rl.DrawTriangle3D(c[2], c[1], c[0], fill)
		rl.DrawTriangle3D(c[3], c[2], c[0], fill)
		for i := range c {
			rl.DrawLine3D(c[i], c[(i+1)%4], rl.Fade(rl.SkyBlue, 0.6))
		}
	}

	for _, p := range fs.Boundary {
		rl.DrawSphere(vec3(p), 0.01*s.markerScale(fs), rl.Yellow)
	}
	for _, g := range fs.Guides {
		rl.DrawLine3D(vec3(g[0]), vec3(g[1]), rl.Yellow)
	}
}

// markerScale sizes markers relative to the zoomed volume so they stay
// legible at any zoom.
func (s *Scene) markerScale(fs app.FrameState) float32 {
	return fs.Zoom * 10
}

func (s *Scene) drawParticles(fs app.FrameState) {
	r := float32(s.cfg.Tracers.RenderRadius) * fs.Zoom
	for _, p := range fs.Particles {
		rl.DrawSphere(vec3(p), r, rl.Orange)
	}
}

// drawStylus draws the stylus ray up to the effector hit, with a marker at
// the intersection.
func (s *Scene) drawStylus(fs app.FrameState) {
	if !fs.StylusVisible {
		return
	}
	origin := mgl32.TransformCoordinate(mgl32.Vec3{}, fs.Stylus)

	end := fs.Effector.Point
	color := rl.Purple
	if !fs.Effector.Valid {
		// No hit: draw a fixed-length ray.
		dir := fs.Stylus.Mat3().Mul3x1(space.Forward)
		end = origin.Add(dir.Mul(float32(s.cfg.Slicing.ClipDistance)))
		color = rl.Gray
	}
	rl.DrawLine3D(vec3(origin), vec3(end), color)

	if fs.Effector.Valid {
		marker := rl.Purple
		if fs.Probing {
			marker = rl.Magenta
		}
		rl.DrawSphere(vec3(fs.Effector.Point), 0.015*s.markerScale(fs), marker)
	}
}

// drawVolumePoints renders the preview field as a thresholded point cloud,
// the stand-in for the isosurface renderable. Points on the clipped side of
// the plane are dropped while VolumeClip holds; with tracers drawn the
// whole cloud stays, dimmed, so the streaks read against it.
func (s *Scene) drawVolumePoints(fs app.FrameState, preview *dataset.Field, threshold float32) {
	if preview == nil {
		return
	}
	frame, ok := space.NewFrame(fs.Model, fs.Zoom, preview.Dims, preview.Spacing)
	if !ok {
		return
	}

	s.buildPoints(preview, threshold)

	plane := space.Plane{Point: fs.ClipNormal.Mul(-fs.ClipOffset), Normal: fs.ClipNormal}
	span := preview.Max - preview.Min
	for i, p := range s.points {
		eye := frame.ToEye(mgl32.Vec3{p.X, p.Y, p.Z})
		if fs.VolumeClip && plane.Side(eye) > 0 {
			continue
		}
		var strength float32
		if span > 0 {
			strength = (s.values[i] - preview.Min) / span
		}
		alpha := fs.VolumeOpacity * (0.2 + 0.8*strength)
		rl.DrawPoint3D(vec3(eye), rl.Fade(rl.RayWhite, alpha))
	}
}

// buildPoints caches the voxels above threshold, strided down to the point
// budget.
func (s *Scene) buildPoints(preview *dataset.Field, threshold float32) {
	level := preview.Min + threshold*(preview.Max-preview.Min)
	if s.built && level == s.threshold {
		return
	}
	s.threshold = level
	s.built = true
	s.points = s.points[:0]
	s.values = s.values[:0]

	total := preview.Dims[0] * preview.Dims[1] * preview.Dims[2]
	stride := 1
	if budget := s.cfg.Volume.PointBudget; budget > 0 && total > budget {
		stride = total/budget + 1
	}

	i := 0
	for z := 0; z < preview.Dims[2]; z++ {
		for y := 0; y < preview.Dims[1]; y++ {
			for x := 0; x < preview.Dims[0]; x++ {
				i++
				if i%stride != 0 {
					continue
				}
				v, err := preview.At(x, y, z)
				if err != nil || v < level {
					continue
				}
				s.points = append(s.points, rl.Vector3{
					X: (float32(x) + 0.5) * preview.Spacing[0],
					Y: (float32(y) + 0.5) * preview.Spacing[1],
					Z: (float32(z) + 0.5) * preview.Spacing[2],
				})
				s.values = append(s.values, v)
			}
		}
	}
}
