// Shader debug tool - runs the GPU pipeline offscreen for a number of frames
// and writes the composite to a PNG file for inspection.
//
// Usage: go run ./cmd/shaderdebug -preset coral -frames 300 -out debug.png
//
// With -cpu the same seed is also run on the CPU reference pipeline and both
// trail totals are printed, which is a quick check that the shaders agree.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"os"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mould/game"
	"github.com/pthm-cable/mould/pipeline"
	"github.com/pthm-cable/mould/renderer"
	"github.com/pthm-cable/mould/slime"
)

func main() {
	presetRef := flag.String("preset", "veins", "Catalog name or preset YAML path")
	frames := flag.Int("frames", 300, "Frames to simulate before capturing")
	outPath := flag.String("out", "debug.png", "Output PNG path")
	width := flag.Int("width", 512, "Trail map width")
	height := flag.Int("height", 512, "Trail map height")
	agents := flag.Int("agents", 256, "Agent grid side (agents = n*n)")
	layoutName := flag.String("layout", "radial", "Initial layout: uniform, radial or ring")
	seed := flag.Int64("seed", 1, "RNG seed")
	compareCPU := flag.Bool("cpu", false, "Also run the CPU pipeline and compare trail totals")
	flag.Parse()

	layout, err := pipeline.ParseLayout(*layoutName)
	if err != nil {
		fail(err)
	}
	p, err := game.ResolvePreset(*presetRef, rand.New(rand.NewSource(*seed)))
	if err != nil {
		fail(err)
	}

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.InitWindow(int32(*width), int32(*height), "Shader Debug")
	defer rl.CloseWindow()

	gpu, err := renderer.New(*width, *height)
	if err != nil {
		fail(err)
	}
	opts := slime.Options{
		AgentsWidth:  *agents,
		AgentsHeight: *agents,
		Layout:       layout,
		TimeStep:     0.02,
		Rand:         rand.New(rand.NewSource(*seed)),
	}
	engine, err := slime.New(gpu, p, opts)
	if err != nil {
		fail(err)
	}
	defer engine.Close()

	if err := run(engine, *frames); err != nil {
		fail(err)
	}

	canvas := renderer.NewCanvas(*width, *height)
	defer canvas.Unload()
	if err := engine.Draw(canvas); err != nil {
		fail(err)
	}
	if err := writePNG(*outPath, canvas.Image()); err != nil {
		fail(err)
	}
	fmt.Printf("Rendered %q after %d frames to: %s (%dx%d)\n", p.Name, *frames, *outPath, *width, *height)

	if !*compareCPU {
		return
	}
	gpuTotal, err := trailTotal(gpu, engine)
	if err != nil {
		fail(err)
	}

	opts.Rand = rand.New(rand.NewSource(*seed))
	cpu := pipeline.NewCPU(*width, *height)
	ref, err := slime.New(cpu, p, opts)
	if err != nil {
		fail(err)
	}
	defer ref.Close()
	if err := run(ref, *frames); err != nil {
		fail(err)
	}
	cpuTotal, err := trailTotal(cpu, ref)
	if err != nil {
		fail(err)
	}

	ratio := float32(0)
	if cpuTotal != 0 {
		ratio = gpuTotal / cpuTotal
	}
	fmt.Printf("Trail total: gpu=%.3f cpu=%.3f ratio=%.4f\n", gpuTotal, cpuTotal, ratio)

	img := image.NewRGBA(image.Rect(0, 0, *width, *height))
	if err := ref.Draw(img); err != nil {
		fail(err)
	}
	cpuPath := strings.TrimSuffix(*outPath, ".png") + "_cpu.png"
	if err := writePNG(cpuPath, img); err != nil {
		fail(err)
	}
	fmt.Printf("CPU reference written to: %s\n", cpuPath)
}

func run(e *slime.Engine, frames int) error {
	for i := 0; i < frames; i++ {
		e.Clock().Advance()
		if err := e.Update(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

func trailTotal(r pipeline.Reader, e *slime.Engine) (float32, error) {
	data, err := r.ReadBuffer(e.Trails().Read())
	if err != nil {
		return 0, err
	}
	var sum float32
	for _, v := range data {
		sum += v
	}
	return sum, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "shaderdebug: %v\n", err)
	os.Exit(1)
}
