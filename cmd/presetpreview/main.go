// Preset preview tool - live GPU simulation with a slider per preset parameter.
//
// Usage: go run ./cmd/presetpreview [-preset veins] [-dir presets]
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mould/game"
	"github.com/pthm-cable/mould/pipeline"
	"github.com/pthm-cable/mould/preset"
	"github.com/pthm-cable/mould/renderer"
	"github.com/pthm-cable/mould/slime"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	previewSize  = 600
	panelWidth   = windowWidth - previewSize - 30
	trailSize    = 400
	agentSide    = 192
	timeStep     = 0.02
)

// sliderRange bounds one preset parameter, in FieldPtrs order.
type sliderRange struct {
	label    string
	min, max float32
	format   string
}

var sliders = []sliderRange{
	{"Sensor angle (rad)", 0, 2, "%.2f"},
	{"Sensor distance (px)", 1, 50, "%.1f"},
	{"Turn rate (rad)", 0, 2, "%.2f"},
	{"Step size (px)", 0.1, 5, "%.2f"},
	{"Deposit amount", 0, 0.2, "%.3f"},
	{"Decay rate", 0.5, 1, "%.3f"},
	{"Diffusion weight", 0, 1, "%.2f"},
	{"Hue base", 0, 1, "%.2f"},
	{"Hue spread", 0, 1, "%.2f"},
	{"Hue speed", 0, 0.5, "%.3f"},
	{"Saturation", 0, 1, "%.2f"},
	{"Brightness", 0.1, 4, "%.2f"},
}

func main() {
	presetRef := flag.String("preset", "veins", "Starting catalog name or preset YAML path")
	dir := flag.String("dir", "presets", "Directory for saved presets and CSV exports")
	layoutName := flag.String("layout", "radial", "Agent layout: uniform, radial or ring")
	flag.Parse()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	layout, err := pipeline.ParseLayout(*layoutName)
	if err != nil {
		fail(err)
	}
	params, err := game.ResolvePreset(*presetRef, rng)
	if err != nil {
		fail(err)
	}
	store := preset.NewStore(*dir)

	rl.SetTraceLogLevel(rl.LogWarning)
	rl.InitWindow(windowWidth, windowHeight, "Preset Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	gpu, err := renderer.New(trailSize, trailSize)
	if err != nil {
		fail(err)
	}
	engine, err := slime.New(gpu, params, slime.Options{
		AgentsWidth:  agentSide,
		AgentsHeight: agentSide,
		Layout:       layout,
		TimeStep:     timeStep,
		Rand:         rng,
		Saver:        store,
	})
	if err != nil {
		fail(err)
	}
	defer engine.Close()

	canvas := renderer.NewCanvas(trailSize, trailSize)
	defer canvas.Unload()

	catalogIndex := preset.Index(indexOf(params.Name))
	paused := false
	status := ""

	for !rl.WindowShouldClose() {
		if !paused {
			engine.Clock().Advance()
			if err := engine.Update(); err != nil {
				fail(err)
			}
		}
		if err := engine.Draw(canvas); err != nil {
			fail(err)
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		rl.DrawTexturePro(
			canvas.Texture(),
			rl.Rectangle{X: 0, Y: 0, Width: trailSize, Height: trailSize},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Preset: %s  Time: %.2f  Frames: %d  FPS: %d",
			engine.Preset().Name, engine.Clock().Now(), engine.Frames(), rl.GetFPS()), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(status, 15, statsY+22, 14, rl.Gray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Preset Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		edited := engine.Nominal()
		changed := false
		for i, ptr := range edited.FieldPtrs() {
			s := sliders[i]
			rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 16},
				"", "",
				*ptr, s.min, s.max,
			)
			rl.DrawText(fmt.Sprintf(s.format, *ptr), int32(panelX+float32(panelWidth-70)), int32(panelY), 14, rl.DarkGray)
			if v != *ptr {
				*ptr = v
				changed = true
			}
			panelY += 24
		}
		if changed {
			engine.LoadPreset(edited, 0)
		}
		panelY += 10

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 28}, "< Prev") {
			catalogIndex = preset.Index(catalogIndex - 1)
			engine.LoadPreset(preset.New(catalogIndex), 1)
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 28}, "Next >") {
			catalogIndex = preset.Index(catalogIndex + 1)
			engine.LoadPreset(preset.New(catalogIndex), 1)
		}
		if gui.Button(rl.Rectangle{X: panelX + 260, Y: panelY, Width: 120, Height: 28}, "Randomize") {
			engine.LoadPreset(preset.Random(rng), 1)
		}
		panelY += 38

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 28}, toggleText(paused, "Resume", "Pause")) {
			paused = !paused
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 28}, "Reset Points") {
			if err := engine.ResetPoints(); err != nil {
				status = err.Error()
			}
		}
		if gui.Button(rl.Rectangle{X: panelX + 260, Y: panelY, Width: 120, Height: 28}, "Clear") {
			if err := engine.Clear(); err != nil {
				status = err.Error()
			}
		}
		panelY += 38

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 28}, "Save YAML") {
			if path, err := engine.SavePreset(); err != nil {
				status = err.Error()
			} else {
				status = "saved " + path
			}
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 28}, "Export CSV") {
			if path, err := exportCSV(*dir, engine.Nominal()); err != nil {
				status = err.Error()
			} else {
				status = "exported " + path
			}
		}

		// Instructions
		rl.DrawText("CSV export holds the catalog plus the current preset", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)

		rl.EndDrawing()
	}
}

// exportCSV writes the catalog followed by p.
func exportCSV(dir string, p preset.Preset) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("presets_%s.csv", time.Now().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	rows := append(preset.Catalog[:len(preset.Catalog):len(preset.Catalog)], p)
	if err := preset.WriteCSV(f, rows); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func indexOf(name string) int {
	for i, p := range preset.Catalog {
		if p.Name == name {
			return i
		}
	}
	return 0
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "presetpreview: %v\n", err)
	os.Exit(1)
}
