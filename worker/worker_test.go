package worker

import (
	"context"
	"os"
	"sync"
	"testing"

	"docbench/benchmark"
	"docbench/record"
	"docbench/store"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFailed = errors.New("failed")

func TestMain(m *testing.M) {
	// the duration test logs every operation
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

// counts calls and fails from call failAt on (0 never fails)
type fakeBenchmark struct {
	mu     sync.Mutex
	calls  map[string]int
	failAt int
}

func (f *fakeBenchmark) Setup(context.Context, *store.Store) error                     { return nil }
func (f *fakeBenchmark) Populate(context.Context, *store.Store, benchmark.Phase) error { return nil }
func (f *fakeBenchmark) GetConfigs() map[string]string                                 { return map[string]string{"fake": "1"} }
func (f *fakeBenchmark) GetMetrics(context.Context, *store.Store) map[string]string {
	return map[string]string{}
}
func (f *fakeBenchmark) Finalize(context.Context, *store.Store) error { return nil }

func (f *fakeBenchmark) Prepare(_ *store.Store, _ benchmark.Scenario) (map[string]benchmark.Operation, error) {
	op := func(name string) benchmark.Operation {
		return func(context.Context) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls[name]++
			if f.failAt > 0 && f.calls["a"]+f.calls["b"] >= f.failAt {
				return errFailed
			}
			return nil
		}
	}
	return map[string]benchmark.Operation{"a": op("a"), "b": op("b")}, nil
}

type recordingObserver struct {
	observed int
	failed   int
}

func (r *recordingObserver) Observe(_ string, _ string, _ float64, err error) {
	r.observed++
	if err != nil {
		r.failed++
	}
}

var scenario = benchmark.Scenario{Phase: benchmark.Unconstrained, Kind: record.KindSmall}

func run(t *testing.T, ctx context.Context, w *Worker) *BenchmarkResults {
	t.Helper()
	c := make(chan *BenchmarkResults, 1)
	w.Run(ctx, c)
	return <-c
}

func TestRunTransactions(t *testing.T) {
	b := &fakeBenchmark{calls: map[string]int{}}
	obs := &recordingObserver{}
	ops := []Operation{{Name: "a", Weight: 3}, {Name: "b", Weight: 1}}
	w := NewWorker(0, 0, 200, 0, 0, nil, scenario, ops, b, obs)

	results := run(t, context.Background(), w)
	require.NoError(t, results.Err)
	assert.Equal(t, scenario, results.Scenario)

	total := results.Operations["a"].CompleteCount + results.Operations["b"].CompleteCount
	assert.Equal(t, 200, total)
	assert.Len(t, results.Operations["a"].Rts, results.Operations["a"].CompleteCount)
	assert.Greater(t, results.Operations["a"].CompleteCount, results.Operations["b"].CompleteCount)
	assert.Equal(t, 200, obs.observed)
	assert.Zero(t, obs.failed)
}

func TestRunStopsAtFirstError(t *testing.T) {
	b := &fakeBenchmark{calls: map[string]int{}, failAt: 5}
	obs := &recordingObserver{}
	w := NewWorker(1, 0, 100, 0, 0, nil, scenario, []Operation{{Name: "a", Weight: 1}}, b, obs)

	results := run(t, context.Background(), w)
	require.Error(t, results.Err)
	assert.Equal(t, errFailed, errors.Cause(results.Err))
	assert.Equal(t, 4, results.Operations["a"].CompleteCount)
	assert.Equal(t, 1, results.Operations["a"].AbortCount)
	assert.Equal(t, 5, b.calls["a"])
	assert.Equal(t, 1, obs.failed)
}

func TestRunUnknownOperation(t *testing.T) {
	b := &fakeBenchmark{calls: map[string]int{}}
	w := NewWorker(0, 0, 10, 0, 0, nil, scenario, []Operation{{Name: "c", Weight: 1}}, b, nil)

	results := run(t, context.Background(), w)
	assert.Equal(t, ErrUnknownOperation, errors.Cause(results.Err))
	assert.Empty(t, b.calls)
}

func TestRunCancelled(t *testing.T) {
	b := &fakeBenchmark{calls: map[string]int{}}
	w := NewWorker(0, 0, 10, 0, 0, nil, scenario, []Operation{{Name: "a", Weight: 1}}, b, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := run(t, ctx, w)
	assert.Equal(t, context.Canceled, results.Err)
	assert.Empty(t, b.calls)
}

func TestRunDuration(t *testing.T) {
	b := &fakeBenchmark{calls: map[string]int{}}
	w := NewWorker(0, 1, 0, 0, 0, nil, scenario, []Operation{{Name: "b", Weight: 1}}, b, nil)

	results := run(t, context.Background(), w)
	require.NoError(t, results.Err)
	assert.Greater(t, results.Operations["b"].CompleteCount, 0)
	assert.InDelta(t, 1., results.RealDuration, 0.5)
	assert.Equal(t, map[string]string{"fake": "1"}, w.GetConfigs())
}
