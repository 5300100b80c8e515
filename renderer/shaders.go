package renderer

import (
	"embed"
	"errors"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

//go:embed shaders/*.fs shaders/*.vs
var shaderFS embed.FS

// ErrShaderCompile is returned when a pass program fails to compile or link.
var ErrShaderCompile = errors.New("shader failed to compile")

// loadProgram builds a shader from embedded sources. An empty vs uses
// raylib's default vertex shader.
func loadProgram(vs, fs string) (rl.Shader, error) {
	var vsCode string
	if vs != "" {
		b, err := shaderFS.ReadFile("shaders/" + vs)
		if err != nil {
			return rl.Shader{}, fmt.Errorf("reading %s: %w", vs, err)
		}
		vsCode = string(b)
	}
	b, err := shaderFS.ReadFile("shaders/" + fs)
	if err != nil {
		return rl.Shader{}, fmt.Errorf("reading %s: %w", fs, err)
	}

	shader := rl.LoadShaderFromMemory(vsCode, string(b))
	if !rl.IsShaderValid(shader) {
		return rl.Shader{}, fmt.Errorf("%s: %w", fs, ErrShaderCompile)
	}
	return shader, nil
}

// copyProgram copies one target into another of the same size.
type copyProgram struct {
	shader    rl.Shader
	sourceLoc int32
}

// agentProgram runs sense, turn and move for every agent texel.
type agentProgram struct {
	shader         rl.Shader
	agentMapLoc    int32
	trailMapLoc    int32
	trailSizeLoc   int32
	sensorAngleLoc int32
	sensorDistLoc  int32
	turnRateLoc    int32
	stepSizeLoc    int32
}

// depositProgram splats one quad per agent into the trail map.
type depositProgram struct {
	shader       rl.Shader
	trailSizeLoc int32
	amountLoc    int32
}

type diffuseProgram struct {
	shader       rl.Shader
	trailMapLoc  int32
	trailSizeLoc int32
	weightLoc    int32
	decayLoc     int32
}

type compositeProgram struct {
	shader        rl.Shader
	trailMapLoc   int32
	trailSizeLoc  int32
	resolutionLoc int32
	flipLoc       int32
	timeLoc       int32
	hueBaseLoc    int32
	hueSpreadLoc  int32
	hueSpeedLoc   int32
	saturationLoc int32
	brightnessLoc int32
}

// programs holds every compiled pass.
type programs struct {
	copy      copyProgram
	agent     agentProgram
	deposit   depositProgram
	diffuse   diffuseProgram
	composite compositeProgram
}

func loadPrograms() (*programs, error) {
	p := &programs{}
	loaded := make([]rl.Shader, 0, 5)
	fail := func(err error) (*programs, error) {
		for _, s := range loaded {
			rl.UnloadShader(s)
		}
		return nil, err
	}

	s, err := loadProgram("", "copy.fs")
	if err != nil {
		return fail(err)
	}
	loaded = append(loaded, s)
	p.copy = copyProgram{shader: s, sourceLoc: rl.GetShaderLocation(s, "source")}

	if s, err = loadProgram("", "agent.fs"); err != nil {
		return fail(err)
	}
	loaded = append(loaded, s)
	p.agent = agentProgram{
		shader:         s,
		agentMapLoc:    rl.GetShaderLocation(s, "agentMap"),
		trailMapLoc:    rl.GetShaderLocation(s, "trailMap"),
		trailSizeLoc:   rl.GetShaderLocation(s, "trailSize"),
		sensorAngleLoc: rl.GetShaderLocation(s, "sensorAngle"),
		sensorDistLoc:  rl.GetShaderLocation(s, "sensorDistance"),
		turnRateLoc:    rl.GetShaderLocation(s, "turnRate"),
		stepSizeLoc:    rl.GetShaderLocation(s, "stepSize"),
	}

	if s, err = loadProgram("deposit.vs", "deposit.fs"); err != nil {
		return fail(err)
	}
	loaded = append(loaded, s)
	p.deposit = depositProgram{
		shader:       s,
		trailSizeLoc: rl.GetShaderLocation(s, "trailSize"),
		amountLoc:    rl.GetShaderLocation(s, "amount"),
	}

	if s, err = loadProgram("", "diffuse.fs"); err != nil {
		return fail(err)
	}
	loaded = append(loaded, s)
	p.diffuse = diffuseProgram{
		shader:       s,
		trailMapLoc:  rl.GetShaderLocation(s, "trailMap"),
		trailSizeLoc: rl.GetShaderLocation(s, "trailSize"),
		weightLoc:    rl.GetShaderLocation(s, "diffusionWeight"),
		decayLoc:     rl.GetShaderLocation(s, "decayRate"),
	}

	if s, err = loadProgram("", "composite.fs"); err != nil {
		return fail(err)
	}
	p.composite = compositeProgram{
		shader:        s,
		trailMapLoc:   rl.GetShaderLocation(s, "trailMap"),
		trailSizeLoc:  rl.GetShaderLocation(s, "trailSize"),
		resolutionLoc: rl.GetShaderLocation(s, "resolution"),
		flipLoc:       rl.GetShaderLocation(s, "flipY"),
		timeLoc:       rl.GetShaderLocation(s, "time"),
		hueBaseLoc:    rl.GetShaderLocation(s, "hueBase"),
		hueSpreadLoc:  rl.GetShaderLocation(s, "hueSpread"),
		hueSpeedLoc:   rl.GetShaderLocation(s, "hueSpeed"),
		saturationLoc: rl.GetShaderLocation(s, "saturation"),
		brightnessLoc: rl.GetShaderLocation(s, "brightness"),
	}
	return p, nil
}

// Unload frees every program.
func (p *programs) Unload() {
	rl.UnloadShader(p.copy.shader)
	rl.UnloadShader(p.agent.shader)
	rl.UnloadShader(p.deposit.shader)
	rl.UnloadShader(p.diffuse.shader)
	rl.UnloadShader(p.composite.shader)
}

func setFloat(s rl.Shader, loc int32, v float32) {
	rl.SetShaderValue(s, loc, []float32{v}, rl.ShaderUniformFloat)
}

func setVec2(s rl.Shader, loc int32, x, y float32) {
	rl.SetShaderValue(s, loc, []float32{x, y}, rl.ShaderUniformVec2)
}
