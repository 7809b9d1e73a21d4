package worker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"docbench/benchmark"
	"docbench/store"
	"docbench/util"

	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
)

var ErrUnknownOperation = errors.New("operation not found")

// Observer receives every executed operation (e.g. a metrics recorder)
type Observer interface {
	Observe(scenario string, operation string, rt float64, err error)
}

type discard struct{}

func (discard) Observe(string, string, float64, error) {}

type Worker struct {
	id              int
	duration        int
	transactions    int
	warmup          int
	cooldown        int
	store           *store.Store
	scenario        benchmark.Scenario
	benchmark       benchmark.Benchmark
	operations      []Operation
	totalWeight     int
	rng             *rand.Rand
	observer        Observer
	operationsToLog chan *OperationLogEntry
	operationLogWg  *sync.WaitGroup
}

type Operation struct {
	Name   string
	Weight int
}

type OperationLogEntry struct {
	op  string
	rt  float64
	err error
	t   time.Time
}

type Metric struct {
	Rts           []float64 // list of the response times (seconds) of completed operations
	TotalRt       float64   // sum of the response time of all completed operations
	CompleteCount int       // number of completed operations
	AbortCount    int       // number of aborted operations
}

type BenchmarkResults struct {
	Scenario     benchmark.Scenario
	RealDuration float64
	Operations   map[string]*Metric // metric name -> Metric
	Err          error              // first failed operation, which stopped the worker
}

func NewWorker(id int, duration int, transactions int, warmup int, cooldown int, st *store.Store,
	scenario benchmark.Scenario, operations []Operation, benchmark benchmark.Benchmark, observer Observer) *Worker {
	worker := new(Worker)
	worker.id = id
	worker.duration = duration
	worker.transactions = transactions
	worker.warmup = warmup
	worker.cooldown = cooldown
	worker.store = st
	worker.scenario = scenario
	worker.benchmark = benchmark
	worker.operations = operations
	worker.rng = util.NewRand(0)
	worker.observer = observer
	if observer == nil {
		worker.observer = discard{}
	}
	worker.operationsToLog = make(chan *OperationLogEntry, 1024)
	worker.operationLogWg = &sync.WaitGroup{}

	for _, o := range worker.operations {
		worker.totalWeight += o.Weight
	}

	return worker
}

func (w *Worker) log(msg string) {
	zlog.Info().Int("worker", w.id).Str("scenario", w.scenario.Name()).Msg(msg)
}

func (w *Worker) logOperationsWorker() {
	for operation := range w.operationsToLog {
		if operation == nil {
			break
		}

		if operation.err == nil {
			zlog.Debug().Int("worker", w.id).Str("operation", operation.op).
				Float64("rt", operation.rt).Time("real_time", operation.t).Msg("completed")
		} else {
			zlog.Error().Int("worker", w.id).Str("operation", operation.op).Err(operation.err).
				Float64("rt", operation.rt).Time("real_time", operation.t).Msg("aborted")
		}
	}

	w.operationLogWg.Done()
}

func (w *Worker) getRandomOperation() string {
	if len(w.operations) == 1 {
		return w.operations[0].Name
	}

	r := w.rng.Intn(w.totalWeight)
	curr := 0

	for _, o := range w.operations {
		if r < o.Weight+curr {
			return o.Name
		}
		curr += o.Weight
	}

	return w.operations[len(w.operations)-1].Name
}

func (w *Worker) validate(functions map[string]benchmark.Operation) error {
	if len(w.operations) == 0 || w.totalWeight <= 0 {
		return errors.New("no weighted operations to run")
	}
	for _, o := range w.operations {
		if o.Weight < 0 {
			return errors.Errorf("operation '%s' has a negative weight", o.Name)
		}
		if _, ok := functions[o.Name]; !ok {
			return errors.Wrapf(ErrUnknownOperation, "'%s'", o.Name)
		}
	}
	return nil
}

// Run executes operations until the duration elapses, the transactions are
// completed, the context is cancelled or an operation fails, and sends the
// results to c.
func (w *Worker) Run(ctx context.Context, c chan<- *BenchmarkResults) {
	results := BenchmarkResults{Scenario: w.scenario, Operations: map[string]*Metric{}}
	for _, o := range w.operations {
		results.Operations[o.Name] = &Metric{}
	}

	w.log("Preparing")
	functions, err := w.benchmark.Prepare(w.store, w.scenario)
	if err == nil {
		err = w.validate(functions)
	}
	if err != nil {
		results.Err = err
		c <- &results
		return
	}

	w.operationLogWg.Add(1)
	go w.logOperationsWorker()

	w.log("Running")
	completedTransactions := 0
	start := util.EpochSeconds()
	elapsed := 0.

	for (w.duration > 0 && elapsed < float64(w.duration)) || (w.duration <= 0 && completedTransactions < w.transactions) {
		if err := ctx.Err(); err != nil {
			results.Err = err
			break
		}

		op := w.getRandomOperation()
		function := functions[op]

		txStart := util.EpochSeconds()
		err := function(ctx)
		rt := util.EpochSeconds() - txStart
		w.operationsToLog <- &OperationLogEntry{op, rt, err, time.Now()}
		w.observer.Observe(w.scenario.Name(), op, rt, err)

		if w.duration <= 0 || (elapsed > float64(w.warmup) && elapsed < float64(w.duration-w.cooldown)) {
			metric := results.Operations[op]

			if err == nil {
				metric.CompleteCount++
				metric.Rts = append(metric.Rts, rt)
				metric.TotalRt += rt
				completedTransactions++
			} else {
				metric.AbortCount++
			}
		}

		if err != nil {
			results.Err = errors.Wrapf(err, "worker %d, %s", w.id, op)
			break
		}

		elapsed = util.EpochSeconds() - start
	}

	results.RealDuration = util.EpochSeconds() - start
	if w.duration > 0 {
		results.RealDuration -= float64(w.warmup) + float64(w.cooldown)
	}

	w.operationsToLog <- nil
	w.operationLogWg.Wait()
	w.log("Done")

	c <- &results
}

// Returns the benchmark-specific configurations
func (w *Worker) GetConfigs() map[string]string {
	return w.benchmark.GetConfigs()
}

// Returns the benchmark-specific metrics
func (w *Worker) GetMetrics(ctx context.Context) map[string]string {
	return w.benchmark.GetMetrics(ctx, w.store)
}
