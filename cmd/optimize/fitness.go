package main

import (
	"math"
	"math/rand"
	"sync"

	"github.com/pthm-cable/mould/pipeline"
	"github.com/pthm-cable/mould/preset"
	"github.com/pthm-cable/mould/slime"
	"github.com/pthm-cable/mould/telemetry"
)

// RunConfig sizes one headless evaluation run.
type RunConfig struct {
	TrailWidth, TrailHeight int
	AgentSide               int
	Frames                  int
	Layout                  pipeline.Layout
	TimeStep                float32
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params *ParamVector
	base   preset.Preset
	run    RunConfig
	seeds  []int64

	// target fraction of covered cells; structure outside it is penalised
	targetCoverage float64

	mu        sync.Mutex
	lastStats Score
}

// Score is what one evaluation measured, averaged over seeds.
type Score struct {
	Contrast float64 // density std / mean
	Coverage float64
	Mean     float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, base preset.Preset, run RunConfig, seeds []int64, targetCoverage float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:         params,
		base:           base,
		run:            run,
		seeds:          seeds,
		targetCoverage: targetCoverage,
	}
}

// LastScore returns the measurements from the most recent Evaluate call.
func (fe *FitnessEvaluator) LastScore() Score {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastStats
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated structure score, so a dead or saturated field is 0.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	p := fe.params.ApplyToPreset(fe.base, x)

	// Run all seeds in parallel
	results := make([]Score, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(p, s)
		}(i, seed)
	}
	wg.Wait()

	var avg Score
	for _, r := range results {
		avg.Contrast += r.Contrast
		avg.Coverage += r.Coverage
		avg.Mean += r.Mean
	}
	n := float64(len(results))
	avg.Contrast /= n
	avg.Coverage /= n
	avg.Mean /= n

	fe.mu.Lock()
	fe.lastStats = avg
	fe.mu.Unlock()

	return -fe.structure(avg)
}

// structure rewards high contrast at roughly the target coverage.
func (fe *FitnessEvaluator) structure(s Score) float64 {
	if s.Mean <= 0 || math.IsNaN(s.Contrast) {
		return 0
	}
	fit := 1 - math.Abs(s.Coverage-fe.targetCoverage)/fe.targetCoverage
	if fit < 0 {
		return 0
	}
	return s.Contrast * fit
}

// runSimulation runs one seed on the CPU pipeline and measures the final trail map.
func (fe *FitnessEvaluator) runSimulation(p preset.Preset, seed int64) Score {
	cpu := pipeline.NewCPU(fe.run.TrailWidth, fe.run.TrailHeight)
	engine, err := slime.New(cpu, p, slime.Options{
		AgentsWidth:  fe.run.AgentSide,
		AgentsHeight: fe.run.AgentSide,
		Layout:       fe.run.Layout,
		TimeStep:     fe.run.TimeStep,
		Rand:         rand.New(rand.NewSource(seed)),
	})
	if err != nil {
		return Score{}
	}
	defer engine.Close()

	for i := 0; i < fe.run.Frames; i++ {
		engine.Clock().Advance()
		if err := engine.Update(); err != nil {
			return Score{}
		}
	}

	data, err := cpu.ReadBuffer(engine.Trails().Read())
	if err != nil {
		return Score{}
	}
	mean, std, _, _, _, coverage := telemetry.DensityStats(data)
	s := Score{Coverage: coverage, Mean: mean}
	if mean > 0 {
		s.Contrast = std / mean
	}
	return s
}
