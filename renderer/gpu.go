// Package renderer is the raylib GPU backend of the simulation pipeline.
//
// Every pass is a full-target quad or mesh draw into a float framebuffer:
// agent state and trail maps never leave the GPU during a frame. All passes
// address texels through gl_FragCoord, so buffers share one orientation and
// only the final composite onto the screen flips.
//
// A window (or hidden window) must exist before New is called, and every
// method must run on the thread that owns the GL context.
package renderer

import (
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mould/pipeline"
	"github.com/pthm-cable/mould/preset"
)

// GPU implements pipeline.Pipeline with raylib shaders.
type GPU struct {
	w, h     int
	progs    *programs
	material rl.Material

	buffers []*TrailBuffer
	agents  []*AgentState
}

var (
	_ pipeline.Pipeline = (*GPU)(nil)
	_ pipeline.Reader   = (*GPU)(nil)
)

// New compiles the pass programs for a w x h trail map.
func New(w, h int) (*GPU, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid trail size %dx%d", w, h)
	}
	progs, err := loadPrograms()
	if err != nil {
		return nil, err
	}
	g := &GPU{w: w, h: h, progs: progs}
	g.material = rl.LoadMaterialDefault()
	g.material.Shader = progs.deposit.shader

	slog.Debug("gpu pipeline ready", "trail_w", w, "trail_h", h)
	return g, nil
}

// Size implements pipeline.Pipeline.
func (g *GPU) Size() (int, int) {
	return g.w, g.h
}

// NewTrailBuffer implements pipeline.Pipeline.
func (g *GPU) NewTrailBuffer() (pipeline.Buffer, error) {
	rt, err := loadFloatTarget(g.w, g.h, rl.UncompressedR32)
	if err != nil {
		return nil, fmt.Errorf("trail buffer: %w", err)
	}
	b := &TrailBuffer{owner: g, w: g.w, h: g.h, rt: rt}
	g.buffers = append(g.buffers, b)
	return b, nil
}

// NewAgents implements pipeline.Pipeline.
func (g *GPU) NewAgents(w, h int) (pipeline.Agents, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid agent grid %dx%d", w, h)
	}
	a := &AgentState{owner: g, w: w, h: h}
	for i := range a.targets {
		rt, err := loadFloatTarget(w, h, rl.UncompressedR32g32b32a32)
		if err != nil {
			for _, t := range a.targets[:i] {
				unloadFloatTarget(t)
			}
			return nil, fmt.Errorf("agent state: %w", err)
		}
		a.targets[i] = rt
	}

	a.verts, a.uvs = depositQuads(w, h)
	a.mesh = rl.Mesh{
		VertexCount:   int32(len(a.verts) / 3),
		TriangleCount: int32(len(a.verts) / 9),
		Vertices:      &a.verts[0],
		Texcoords:     &a.uvs[0],
	}
	rl.UploadMesh(&a.mesh, false)

	g.agents = append(g.agents, a)
	return a, nil
}

func (g *GPU) agentState(a pipeline.Agents) (*AgentState, error) {
	s, ok := a.(*AgentState)
	if !ok || s.owner != g {
		return nil, fmt.Errorf("agents %T: %w", a, pipeline.ErrForeignBuffer)
	}
	return s, nil
}

func (g *GPU) trail(b pipeline.Buffer) (*TrailBuffer, error) {
	t, ok := b.(*TrailBuffer)
	if !ok || t.owner != g {
		return nil, fmt.Errorf("buffer %T: %w", b, pipeline.ErrForeignBuffer)
	}
	return t, nil
}

func (g *GPU) pair(read, write pipeline.Buffer) (*TrailBuffer, *TrailBuffer, error) {
	if err := pipeline.CheckPass(read, write); err != nil {
		return nil, nil, err
	}
	r, err := g.trail(read)
	if err != nil {
		return nil, nil, err
	}
	w, err := g.trail(write)
	if err != nil {
		return nil, nil, err
	}
	return r, w, nil
}

// ResetAgents implements pipeline.Pipeline. Positions are generated on the
// host with the same placement as the CPU backend and uploaded once.
func (g *GPU) ResetAgents(a pipeline.Agents, layout pipeline.Layout, rng *rand.Rand) error {
	s, err := g.agentState(a)
	if err != nil {
		return err
	}
	n := s.Count()
	x, y, heading := make([]float32, n), make([]float32, n), make([]float32, n)
	w, h := float32(g.w), float32(g.h)
	for i := 0; i < n; i++ {
		x[i], y[i], heading[i] = pipeline.PlaceAgent(layout, w, h, rng)
	}

	img := rl.NewImage(packAgents(x, y, heading), int32(s.w), int32(s.h), 1, rl.UncompressedR32g32b32a32)
	staging := rl.LoadTextureFromImage(img)
	if staging.ID == 0 {
		return fmt.Errorf("uploading %d agents failed", n)
	}
	g.copyInto(s.readTarget(), staging, s.w, s.h)
	rl.UnloadTexture(staging)
	return nil
}

// copyInto overwrites target with src. Both must be w x h.
func (g *GPU) copyInto(target rl.RenderTexture2D, src rl.Texture2D, w, h int) {
	p := g.progs.copy
	rl.BeginTextureMode(target)
	rl.BeginShaderMode(p.shader)
	rl.SetShaderValueTexture(p.shader, p.sourceLoc, src)
	rl.DrawRectangle(0, 0, int32(w), int32(h), rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()
}

// RunSimulationPass implements pipeline.Pipeline:
//
//  1. agent state: sense read, turn, move (agent read -> agent write, swap)
//  2. write = read
//  3. one additive quad per agent at its new position into write
func (g *GPU) RunSimulationPass(a pipeline.Agents, read, write pipeline.Buffer, p preset.Preset) error {
	s, err := g.agentState(a)
	if err != nil {
		return err
	}
	r, w, err := g.pair(read, write)
	if err != nil {
		return err
	}

	ap := g.progs.agent
	setVec2(ap.shader, ap.trailSizeLoc, float32(g.w), float32(g.h))
	setFloat(ap.shader, ap.sensorAngleLoc, p.SensorAngle)
	setFloat(ap.shader, ap.sensorDistLoc, p.SensorDistance)
	setFloat(ap.shader, ap.turnRateLoc, p.TurnRate)
	setFloat(ap.shader, ap.stepSizeLoc, p.StepSize)

	rl.BeginTextureMode(s.writeTarget())
	rl.BeginShaderMode(ap.shader)
	rl.SetShaderValueTexture(ap.shader, ap.agentMapLoc, s.readTarget().Texture)
	rl.SetShaderValueTexture(ap.shader, ap.trailMapLoc, r.rt.Texture)
	rl.DrawRectangle(0, 0, int32(s.w), int32(s.h), rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()
	s.swap()

	g.copyInto(w.rt, r.rt.Texture, g.w, g.h)

	dp := g.progs.deposit
	setVec2(dp.shader, dp.trailSizeLoc, float32(g.w), float32(g.h))
	setFloat(dp.shader, dp.amountLoc, p.DepositAmount)
	rl.SetMaterialTexture(&g.material, rl.MapDiffuse, s.readTarget().Texture)

	rl.BeginTextureMode(w.rt)
	rl.BeginBlendMode(rl.BlendAdditive)
	rl.DrawMesh(s.mesh, g.material, rl.MatrixIdentity())
	rl.EndBlendMode()
	rl.EndTextureMode()
	return nil
}

// RunDiffuseDecayPass implements pipeline.Pipeline.
func (g *GPU) RunDiffuseDecayPass(read, write pipeline.Buffer, p preset.Preset) error {
	r, w, err := g.pair(read, write)
	if err != nil {
		return err
	}

	dp := g.progs.diffuse
	setVec2(dp.shader, dp.trailSizeLoc, float32(g.w), float32(g.h))
	setFloat(dp.shader, dp.weightLoc, p.DiffusionWeight)
	setFloat(dp.shader, dp.decayLoc, p.DecayRate)

	rl.BeginTextureMode(w.rt)
	rl.BeginShaderMode(dp.shader)
	rl.SetShaderValueTexture(dp.shader, dp.trailMapLoc, r.rt.Texture)
	rl.DrawRectangle(0, 0, int32(g.w), int32(g.h), rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()
	return nil
}

// Composite implements pipeline.Pipeline. target must be a Screen, drawn
// between rl.BeginDrawing and rl.EndDrawing, or a *Canvas.
func (g *GPU) Composite(trail pipeline.Buffer, target pipeline.Target, p preset.Preset, time float32) error {
	t, err := g.trail(trail)
	if err != nil {
		return err
	}

	var canvas *Canvas
	switch tg := target.(type) {
	case Screen, *Screen:
	case *Canvas:
		canvas = tg
	default:
		return fmt.Errorf("gpu composite needs *Screen or *Canvas, got %T", target)
	}
	b := target.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil
	}

	cp := g.progs.composite
	setVec2(cp.shader, cp.trailSizeLoc, float32(g.w), float32(g.h))
	setVec2(cp.shader, cp.resolutionLoc, float32(b.Dx()), float32(b.Dy()))
	setFloat(cp.shader, cp.timeLoc, time)
	setFloat(cp.shader, cp.hueBaseLoc, p.HueBase)
	setFloat(cp.shader, cp.hueSpreadLoc, p.HueSpread)
	setFloat(cp.shader, cp.hueSpeedLoc, p.HueSpeed)
	setFloat(cp.shader, cp.saturationLoc, p.Saturation)
	setFloat(cp.shader, cp.brightnessLoc, p.Brightness)

	// The back buffer is read top row first; canvases keep trail orientation.
	flip := float32(1)
	if canvas != nil {
		flip = 0
		rl.BeginTextureMode(canvas.rt)
	}
	setFloat(cp.shader, cp.flipLoc, flip)

	rl.BeginShaderMode(cp.shader)
	rl.SetShaderValueTexture(cp.shader, cp.trailMapLoc, t.rt.Texture)
	rl.DrawRectangle(0, 0, int32(b.Dx()), int32(b.Dy()), rl.White)
	rl.EndShaderMode()

	if canvas != nil {
		rl.EndTextureMode()
	}
	return nil
}

// ClearBuffer implements pipeline.Pipeline.
func (g *GPU) ClearBuffer(b pipeline.Buffer) error {
	t, err := g.trail(b)
	if err != nil {
		return err
	}
	rl.BeginTextureMode(t.rt)
	rl.ClearBackground(rl.Blank)
	rl.EndTextureMode()
	return nil
}

// ReadBuffer implements pipeline.Reader. It stalls the GPU and is meant for
// occasional telemetry snapshots, not per-frame use.
func (g *GPU) ReadBuffer(b pipeline.Buffer) ([]float32, error) {
	t, err := g.trail(b)
	if err != nil {
		return nil, err
	}
	img := rl.LoadImageFromTexture(t.rt.Texture)
	defer rl.UnloadImage(img)
	if img.Data == nil {
		return nil, fmt.Errorf("reading back trail buffer failed")
	}
	raw := unsafe.Slice((*byte)(img.Data), t.w*t.h*4)
	return unpackChannel(raw, 1, 0), nil
}

// ReadAgents copies the current agent state back to the host.
func (g *GPU) ReadAgents(a pipeline.Agents) (*pipeline.AgentSet, error) {
	s, err := g.agentState(a)
	if err != nil {
		return nil, err
	}
	img := rl.LoadImageFromTexture(s.readTarget().Texture)
	defer rl.UnloadImage(img)
	if img.Data == nil {
		return nil, fmt.Errorf("reading back agent state failed")
	}
	raw := unsafe.Slice((*byte)(img.Data), s.Count()*16)
	return &pipeline.AgentSet{
		X:       unpackChannel(raw, 4, 0),
		Y:       unpackChannel(raw, 4, 1),
		Heading: unpackChannel(raw, 4, 2),
	}, nil
}

// Close implements pipeline.Pipeline. Buffers and agents allocated by this
// pipeline are released with it.
func (g *GPU) Close() error {
	for _, b := range g.buffers {
		unloadFloatTarget(b.rt)
	}
	for _, a := range g.agents {
		a.unload()
	}
	g.buffers, g.agents = nil, nil

	// UnloadMaterial frees the material's shader and textures, which are
	// owned elsewhere; detach them first.
	rl.SetMaterialTexture(&g.material, rl.MapDiffuse, rl.Texture2D{})
	g.material.Shader = rl.Shader{}
	rl.UnloadMaterial(g.material)

	g.progs.Unload()
	return nil
}

// Canvas is an offscreen 8-bit composite target.
type Canvas struct {
	rt rl.RenderTexture2D
}

// NewCanvas allocates a w x h offscreen target.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{rt: rl.LoadRenderTexture(int32(w), int32(h))}
}

// Bounds implements pipeline.Target.
func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(c.rt.Texture.Width), int(c.rt.Texture.Height))
}

// Image copies the canvas to host memory.
func (c *Canvas) Image() *image.RGBA {
	img := rl.LoadImageFromTexture(c.rt.Texture)
	defer rl.UnloadImage(img)
	return copyRGBA(img)
}

// Texture returns the canvas texture for drawing it elsewhere.
func (c *Canvas) Texture() rl.Texture2D {
	return c.rt.Texture
}

// Unload frees the canvas.
func (c *Canvas) Unload() {
	rl.UnloadRenderTexture(c.rt)
}

// Screen is the window back buffer as a composite target.
type Screen struct{}

// Bounds implements pipeline.Target.
func (Screen) Bounds() image.Rectangle {
	return image.Rect(0, 0, rl.GetScreenWidth(), rl.GetScreenHeight())
}

// CaptureScreen copies the last presented frame to host memory.
func CaptureScreen() *image.RGBA {
	img := rl.LoadImageFromScreen()
	defer rl.UnloadImage(img)
	return copyRGBA(img)
}

// copyRGBA copies an R8G8B8A8 raylib image into Go memory.
func copyRGBA(img *rl.Image) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, int(img.Width), int(img.Height)))
	if img.Data == nil || img.Format != rl.UncompressedR8g8b8a8 {
		return out
	}
	copy(out.Pix, unsafe.Slice((*byte)(img.Data), len(out.Pix)))
	return out
}
