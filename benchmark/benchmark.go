package benchmark

import (
	"context"

	"docbench/record"
	"docbench/store"
)

// Phase is a state of the store's schema during a run
type Phase int

const (
	// No schema declared
	Unconstrained Phase = iota
	// Definition statements of every kind declared
	Constrained
)

// Phases returns the phases of a run, in the order they must execute
func Phases() []Phase {
	return []Phase{Unconstrained, Constrained}
}

func (p Phase) String() string {
	if p == Constrained {
		return "constrained"
	}
	return "unconstrained"
}

// Scenario is one measured series: the updates of one kind in one phase
type Scenario struct {
	Phase Phase
	Kind  record.Kind
}

// Name returns the display name, e.g. "Small with No Define Statements"
func (s Scenario) Name() string {
	if s.Phase == Constrained {
		return s.Kind.Title() + " with Define Statements"
	}
	return s.Kind.Title() + " with No Define Statements"
}

// Matrix returns every scenario of the kinds, all unconstrained scenarios
// before the constrained ones
func Matrix(kinds []record.Kind) []Scenario {
	scenarios := make([]Scenario, 0, 2*len(kinds))
	for _, p := range Phases() {
		for _, k := range kinds {
			scenarios = append(scenarios, Scenario{Phase: p, Kind: k})
		}
	}
	return scenarios
}

// Operation is a single measured step, executed repeatedly by a worker
type Operation func(ctx context.Context) error

type Benchmark interface {
	// Called once at the start of the run, to setup any resources required
	Setup(ctx context.Context, st *store.Store) error
	// Brings the store to the state of a phase; called before the phase's scenarios
	Populate(ctx context.Context, st *store.Store, phase Phase) error
	// Returns the list of operations of a scenario (called for each worker)
	Prepare(st *store.Store, scenario Scenario) (map[string]Operation, error)
	// Returns the benchmark-specific configurations
	GetConfigs() map[string]string
	// Returns the benchmark-specific metrics
	GetMetrics(ctx context.Context, st *store.Store) map[string]string
	// Called once at the end of the run, to close any resources required
	Finalize(ctx context.Context, st *store.Store) error
}
