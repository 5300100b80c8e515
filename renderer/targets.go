package renderer

import (
	"encoding/binary"
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// loadFloatTarget creates a framebuffer backed by a float texture of the given
// format. raylib's LoadRenderTexture is 8-bit only, which cannot hold trail
// densities above 1 or agent positions.
func loadFloatTarget(w, h int, format rl.PixelFormat) (rl.RenderTexture2D, error) {
	bpp := 16
	if format == rl.UncompressedR32 {
		bpp = 4
	}
	img := rl.NewImage(make([]byte, w*h*bpp), int32(w), int32(h), 1, format)
	tex := rl.LoadTextureFromImage(img)
	if tex.ID == 0 {
		return rl.RenderTexture2D{}, fmt.Errorf("float texture %dx%d not supported", w, h)
	}
	rl.SetTextureFilter(tex, rl.FilterPoint)

	fbo := rl.LoadFramebuffer()
	rl.FramebufferAttach(fbo, tex.ID, rl.AttachmentColorChannel0, rl.AttachmentTexture2d, 0)
	if !rl.FramebufferComplete(fbo) {
		rl.UnloadFramebuffer(fbo)
		rl.UnloadTexture(tex)
		return rl.RenderTexture2D{}, fmt.Errorf("framebuffer %dx%d incomplete", w, h)
	}
	return rl.RenderTexture2D{ID: fbo, Texture: tex}, nil
}

func unloadFloatTarget(rt rl.RenderTexture2D) {
	rl.UnloadFramebuffer(rt.ID)
	rl.UnloadTexture(rt.Texture)
}

// TrailBuffer is a single-channel float trail map on the GPU.
type TrailBuffer struct {
	owner *GPU
	w, h  int
	rt    rl.RenderTexture2D
}

// Size implements pipeline.Buffer.
func (b *TrailBuffer) Size() (int, int) {
	return b.w, b.h
}

// Texture returns the backing texture.
func (b *TrailBuffer) Texture() rl.Texture2D {
	return b.rt.Texture
}

// AgentState is the agent population: two RGBA float targets holding
// (x, y, heading) per texel, plus the static deposit mesh.
type AgentState struct {
	owner   *GPU
	w, h    int
	targets [2]rl.RenderTexture2D
	read    int

	mesh  rl.Mesh
	verts []float32
	uvs   []float32
}

// Count implements pipeline.Agents.
func (a *AgentState) Count() int {
	return a.w * a.h
}

func (a *AgentState) readTarget() rl.RenderTexture2D  { return a.targets[a.read] }
func (a *AgentState) writeTarget() rl.RenderTexture2D { return a.targets[1-a.read] }
func (a *AgentState) swap()                           { a.read = 1 - a.read }

func (a *AgentState) unload() {
	rl.UnloadMesh(&a.mesh)
	for _, t := range a.targets {
		unloadFloatTarget(t)
	}
}

// quadCorners are the offsets of the two triangles covering one trail cell
// around an agent position. A cell's centre falls inside exactly when it is
// the cell the position floors to.
var quadCorners = [6][2]float32{
	{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5},
	{-0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5},
}

// depositQuads builds the deposit mesh arrays: six vertices per agent, each
// carrying its corner offset as position and its agent texel as texcoord.
func depositQuads(w, h int) (verts, uvs []float32) {
	n := w * h
	verts = make([]float32, 0, n*6*3)
	uvs = make([]float32, 0, n*6*2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u, v := float32(x)+0.5, float32(y)+0.5
			for _, c := range quadCorners {
				verts = append(verts, c[0], c[1], 0)
				uvs = append(uvs, u, v)
			}
		}
	}
	return verts, uvs
}

// packAgents encodes agent state as RGBA32F texels, row-major from texel
// (0, 0): x, y, heading, 1.
func packAgents(x, y, heading []float32) []byte {
	buf := make([]byte, len(x)*16)
	for i := range x {
		o := i * 16
		binary.LittleEndian.PutUint32(buf[o:], math.Float32bits(x[i]))
		binary.LittleEndian.PutUint32(buf[o+4:], math.Float32bits(y[i]))
		binary.LittleEndian.PutUint32(buf[o+8:], math.Float32bits(heading[i]))
		binary.LittleEndian.PutUint32(buf[o+12:], math.Float32bits(1))
	}
	return buf
}

// unpackChannel extracts one float channel out of packed texels with the
// given channel count.
func unpackChannel(buf []byte, channels, channel int) []float32 {
	stride := channels * 4
	out := make([]float32, len(buf)/stride)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*stride+channel*4:]))
	}
	return out
}
