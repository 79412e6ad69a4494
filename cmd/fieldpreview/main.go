// Dataset slice inspector - one axis-aligned cross section with sliders.
//
// Usage: go run ./cmd/fieldpreview [-dataset file.rvf [-velocity file.rvv]]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/oviz-lab/fluidlab/dataset"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 640
	panelX       = previewSize + 30
	panelWidth   = windowWidth - panelX - 20
)

func main() {
	datasetPath := flag.String("dataset", "", "Path to a .rvf scalar volume (empty = synthetic turbulence)")
	velocityPath := flag.String("velocity", "", "Path to a matching .rvv velocity volume")
	seed := flag.Int64("seed", 12345, "Seed for the synthetic dataset")
	flag.Parse()

	field, err := loadField(*datasetPath, *velocityPath, *seed)
	if err != nil {
		slog.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}

	rl.InitWindow(windowWidth, windowHeight, "Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	axis := 2
	depth := float32(field.Dims[axis]) / 2
	threshold := float32(0)

	w, h := sliceSize(field, axis)
	img := rl.GenImageColor(w, h, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			updateSlice(texture, field, axis, int(depth), threshold)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		// Slice, scaled into the preview square.
		scale := float32(previewSize) / float32(max(int(w), int(h)))
		rl.DrawTextureEx(texture, rl.Vector2{X: 10, Y: 10}, 0, scale, rl.White)
		rl.DrawRectangleLines(10, 10, int32(float32(w)*scale), int32(float32(h)*scale), rl.DarkGray)

		if field.HasVectors() {
			drawArrows(field, axis, int(depth), scale)
		}

		// Control panel
		y := float32(10)
		rl.DrawText(field.Name, panelX, int32(y), 20, rl.RayWhite)
		y += 30
		rl.DrawText(fmt.Sprintf("dims %dx%dx%d  range [%.3f, %.3f]",
			field.Dims[0], field.Dims[1], field.Dims[2], field.Min, field.Max),
			panelX, int32(y), 12, rl.Gray)
		y += 30

		rl.DrawText("Axis", panelX, int32(y), 14, rl.LightGray)
		y += 18
		newAxis := gui.ToggleGroup(
			rl.Rectangle{X: panelX, Y: y, Width: (panelWidth - 6) / 3, Height: 24},
			"X;Y;Z",
			int32(axis),
		)
		if int(newAxis) != axis {
			axis = int(newAxis)
			depth = float32(field.Dims[axis]) / 2
			w, h = sliceSize(field, axis)
			rl.UnloadTexture(texture)
			img := rl.GenImageColor(w, h, rl.Black)
			texture = rl.LoadTextureFromImage(img)
			rl.UnloadImage(img)
			needsRegen = true
		}
		y += 35

		rl.DrawText("Depth", panelX, int32(y), 14, rl.LightGray)
		y += 18
		newDepth := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: y, Width: panelWidth - 50, Height: 20},
			"0", fmt.Sprintf("%d", field.Dims[axis]-1),
			depth, 0, float32(field.Dims[axis]-1),
		)
		if int(newDepth) != int(depth) {
			needsRegen = true
		}
		depth = newDepth
		y += 35

		rl.DrawText("Threshold", panelX, int32(y), 14, rl.LightGray)
		y += 18
		newThreshold := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: y, Width: panelWidth - 50, Height: 20},
			"0", "1",
			threshold, 0, 1,
		)
		if newThreshold != threshold {
			threshold = newThreshold
			needsRegen = true
		}

		rl.EndDrawing()
	}
}

func loadField(path, velocity string, seed int64) (*dataset.Field, error) {
	if path == "" {
		return dataset.SyntheticTurbulence([3]int{64, 64, 64}, mgl32.Vec3{1, 1, 1}, seed), nil
	}
	field, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	if velocity != "" {
		if err := field.AttachVelocity(velocity); err != nil {
			return nil, err
		}
	}
	return field, nil
}

// sliceAxes returns the two in-plane axis indices for a slicing axis.
func sliceAxes(axis int) (int, int) {
	switch axis {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

func sliceSize(field *dataset.Field, axis int) (int32, int32) {
	u, v := sliceAxes(axis)
	return int32(field.Dims[u]), int32(field.Dims[v])
}

// voxelAt maps in-plane coordinates and depth back to a voxel index.
func voxelAt(axis, u, v, depth int) (int, int, int) {
	switch axis {
	case 0:
		return depth, u, v
	case 1:
		return u, depth, v
	default:
		return u, v, depth
	}
}

// updateSlice redraws the texture for one cross section. Values below the
// threshold fall to black, everything else ramps blue to white.
func updateSlice(texture rl.Texture2D, field *dataset.Field, axis, depth int, threshold float32) {
	ua, va := sliceAxes(axis)
	w, h := field.Dims[ua], field.Dims[va]
	span := field.Max - field.Min
	level := field.Min + threshold*span

	pixels := make([]color.RGBA, w*h)
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			x, y, z := voxelAt(axis, u, v, depth)
			val, err := field.At(x, y, z)
			if err != nil || val < level {
				continue
			}
			var t float32
			if span > 0 {
				t = (val - field.Min) / span
			}
			pixels[v*w+u] = color.RGBA{
				R: uint8(40 + t*215),
				G: uint8(60 + t*195),
				B: uint8(120 + t*135),
				A: 255,
			}
		}
	}
	rl.UpdateTexture(texture, pixels)
}

// drawArrows overlays the in-plane velocity components on the slice,
// strided so the arrows stay readable.
func drawArrows(field *dataset.Field, axis, depth int, scale float32) {
	ua, va := sliceAxes(axis)
	w, h := field.Dims[ua], field.Dims[va]

	stride := max(w/24, 1)
	for v := stride / 2; v < h; v += stride {
		for u := stride / 2; u < w; u += stride {
			x, y, z := voxelAt(axis, u, v, depth)
			vel, err := field.VectorAt(x, y, z)
			if err != nil {
				continue
			}
			du, dv := vel[ua], vel[va]
			l := float32(stride) * 0.8

			sx := 10 + (float32(u)+0.5)*scale
			sy := 10 + (float32(v)+0.5)*scale
			rl.DrawLineEx(
				rl.Vector2{X: sx, Y: sy},
				rl.Vector2{X: sx + du*l*scale, Y: sy + dv*l*scale},
				1,
				rl.Fade(rl.Orange, 0.8),
			)
		}
	}
}
