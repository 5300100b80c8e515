// Command optimize tunes the motion parameters of a preset with CMA-ES so
// that it grows well structured trail networks.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/mould/config"
	"github.com/pthm-cable/mould/game"
	"github.com/pthm-cable/mould/pipeline"
	"github.com/pthm-cable/mould/preset"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	start := flag.String("preset", "veins", "Starting catalog name or preset YAML path")
	frames := flag.Int("frames", 400, "Frames simulated per run")
	size := flag.Int("size", 128, "Trail map side in cells")
	agents := flag.Int("agents", 96, "Agent grid side (agents = n*n)")
	coverage := flag.Float64("coverage", 0.3, "Target fraction of covered cells")
	seeds := flag.Int("seeds", 3, "Seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *coverage <= 0 || *coverage > 1 {
		log.Fatalf("--coverage %v outside (0, 1]", *coverage)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg := config.Cfg()

	layout, err := pipeline.ParseLayout(cfg.Simulation.Layout)
	if err != nil {
		log.Fatalf("invalid layout: %v", err)
	}
	base, err := game.ResolvePreset(*start, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		log.Fatalf("resolving preset: %v", err)
	}

	params := NewParamVector()
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(42 + 1000*i)
	}
	evaluator := NewFitnessEvaluator(params, base, RunConfig{
		TrailWidth:  *size,
		TrailHeight: *size,
		AgentSide:   *agents,
		Frames:      *frames,
		Layout:      layout,
		TimeStep:    cfg.Derived.TimeStep32,
	}, evalSeeds, *coverage)

	tr, err := newTracker(filepath.Join(*outputDir, "optimize_log.csv"), params, *maxEvals)
	if err != nil {
		log.Fatal(err)
	}
	defer tr.close()

	pop := *population
	if pop == 0 {
		pop = 4 + int(3*math.Log(float64(params.Dim())))
	}

	fmt.Printf("Tuning %q: %d parameters, population %d, up to %d evaluations\n",
		base.Name, params.Dim(), pop, *maxEvals)
	fmt.Printf("%d seeds x %d frames on a %dx%d trail map\n", *seeds, *frames, *size, *size)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(values)
			tr.record(values, fitness, evaluator.LastScore())
			return fitness
		},
	}
	// Seeds already run in parallel inside Evaluate.
	settings := &optimize.Settings{FuncEvaluations: *maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: pop}

	initX := params.Normalize(params.ExtractFromPreset(base))
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	bestValues := tr.best
	if bestValues == nil && result != nil {
		bestValues = params.Clamp(params.Denormalize(result.X))
	}
	if bestValues == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nDone: %d evaluations in %s, best structure score %.4f\n",
		tr.evals, clockTime(time.Since(tr.started)), -tr.bestFitness)
	for i, spec := range params.Specs {
		fmt.Printf("  %-16s %.6f\n", spec.Name, bestValues[i])
	}

	best := params.ApplyToPreset(base, bestValues)
	best.Name = base.Name + "_tuned"
	path, err := preset.NewStore(*outputDir).Save(best)
	if err != nil {
		log.Printf("saving best preset: %v", err)
		return
	}
	fmt.Printf("Best preset saved to %s\n", path)
}

// evalRow is one optimize_log.csv record.
type evalRow struct {
	Eval     int     `csv:"eval"`
	Fitness  float64 `csv:"fitness"`
	Contrast float64 `csv:"contrast"`
	Coverage float64 `csv:"coverage"`
	Mean     float64 `csv:"mean"`
	Params   string  `csv:"params"`
}

// tracker logs every evaluation and remembers the best one.
type tracker struct {
	f        *os.File
	params   *ParamVector
	maxEvals int

	evals       int
	started     time.Time
	best        []float64
	bestFitness float64
}

func newTracker(path string, params *ParamVector, maxEvals int) (*tracker, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval log: %w", err)
	}
	return &tracker{
		f:           f,
		params:      params,
		maxEvals:    maxEvals,
		started:     time.Now(),
		bestFitness: math.Inf(1),
	}, nil
}

func (t *tracker) record(values []float64, fitness float64, s Score) {
	t.evals++
	if fitness < t.bestFitness {
		t.bestFitness = fitness
		t.best = values
	}

	pairs := make([]string, len(values))
	for i, v := range values {
		pairs[i] = fmt.Sprintf("%s=%.6f", t.params.Specs[i].Name, v)
	}
	rows := []evalRow{{
		Eval:     t.evals,
		Fitness:  fitness,
		Contrast: s.Contrast,
		Coverage: s.Coverage,
		Mean:     s.Mean,
		Params:   strings.Join(pairs, " "),
	}}
	var err error
	if t.evals == 1 {
		err = gocsv.Marshal(rows, t.f)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, t.f)
	}
	if err != nil {
		log.Printf("writing eval log: %v", err)
	}

	elapsed := time.Since(t.started)
	eta := time.Duration(t.maxEvals-t.evals) * (elapsed / time.Duration(t.evals))
	fmt.Printf("eval %d/%d contrast=%.3f coverage=%.3f best=%.3f elapsed %s eta %s\n",
		t.evals, t.maxEvals, s.Contrast, s.Coverage, -t.bestFitness, clockTime(elapsed), clockTime(eta))
}

func (t *tracker) close() error {
	return t.f.Close()
}

// clockTime renders d as 1h02m03s, or 2m03s under an hour.
func clockTime(d time.Duration) string {
	d = d.Round(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
