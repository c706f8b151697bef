package app

import (
	"log/slog"
	"sort"
	"strings"

	"gointegral/adapters/montecarlo"
	"gointegral/adapters/quadrature"
	"gointegral/internal/errors"
	"gointegral/ports"
)

// Registered method names.
const (
	MethodMonteCarlo = "monte_carlo"
	MethodQuadrature = "quadrature"
)

// solverFactory builds a solver configured for one run.
type solverFactory func(opts RunOptions, logger *slog.Logger) (ports.Solver, error)

// registry is fixed at init and only read afterwards.
var (
	registry = map[string]solverFactory{
		MethodMonteCarlo: newMonteCarloSolver,
		MethodQuadrature: newQuadratureSolver,
	}
	methodNames = sortedMethods()
)

func sortedMethods() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookupMethod resolves a method name case-insensitively.
func lookupMethod(method string) (string, solverFactory, error) {
	name := strings.ToLower(strings.TrimSpace(method))
	factory, ok := registry[name]
	if !ok {
		return "", nil, errors.UnsupportedMethod(method, methodNames)
	}
	return name, factory, nil
}

func newMonteCarloSolver(o RunOptions, logger *slog.Logger) (ports.Solver, error) {
	s, err := montecarlo.New(montecarlo.Config{
		Samples:   o.Samples,
		BatchSize: o.BatchSize,
		Seed:      o.Seed,
		Seeded:    o.Seeded,
		Workers:   o.Workers,
		Progress:  o.Progress,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newQuadratureSolver(o RunOptions, logger *slog.Logger) (ports.Solver, error) {
	s, err := quadrature.New(quadrature.Config{
		MaxDepth:       o.MaxDepth,
		Tolerance:      o.Tolerance,
		MaxEvaluations: o.MaxEvaluations,
		Rule:           o.Rule,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
