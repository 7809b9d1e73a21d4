package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"docbench/benchmark"
	"docbench/benchmark/update"
	"docbench/metrics"
	"docbench/record"
	"docbench/store"
	"docbench/util"
	"docbench/worker"

	"github.com/google/uuid"
	"github.com/pbnjay/memory"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type BenchmarkArgs struct {
	Engine       string
	Connection   string
	Temporary    bool // run on a fresh storage location, removed afterwards
	Time         int
	Transactions int
	Warmup       int
	Cooldown     int
	Runs         int
	Workers      []int
	Kinds        []string
	Benchmark    string
	FileData     []byte `yaml:"-"` // config file contents
	Operations   []worker.Operation
}

// Prepare zerolog
func setupLogging(disableLog bool, level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	var zlevel zerolog.Level
	if disableLog {
		zlevel = zerolog.Disabled
	} else if level == "info" {
		zlevel = zerolog.InfoLevel
	} else {
		zlevel = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(zlevel)
}

func defaultArgs() *BenchmarkArgs {
	return &BenchmarkArgs{
		Engine:       store.EngineSqlite,
		Connection:   "surreal_storage",
		Transactions: 100,
		Runs:         1,
		Workers:      []int{1},
		Benchmark:    "update",
		Operations:   []worker.Operation{{Name: "update", Weight: 1}},
	}
}

// Returns a BenchmarkArgs struct with the information in the config data,
// on top of the defaults.
func parseArgs(data []byte) (*BenchmarkArgs, error) {
	args := defaultArgs()
	if err := yaml.Unmarshal(data, args); err != nil {
		return nil, errors.Wrap(err, "invalid config file")
	}
	args.FileData = data

	if args.Runs <= 0 {
		return nil, errors.Errorf("runs must be positive, got %d", args.Runs)
	}
	if len(args.Workers) == 0 {
		return nil, errors.New("no worker counts configured")
	}
	for _, w := range args.Workers {
		if w <= 0 {
			return nil, errors.Errorf("worker counts must be positive, got %d", w)
		}
	}
	if args.Time <= 0 && args.Transactions <= 0 {
		return nil, errors.New("either time or transactions must be set")
	}
	return args, nil
}

// Returns a BenchmarkArgs struct with the information in the configFile.
func buildArgs(configFile string) (*BenchmarkArgs, error) {
	if configFile == "" {
		return nil, errors.New("missing config file")
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}
	return parseArgs(data)
}

// Returns a benchmark factory based on the benchmarkType. configData is a binary representation of
// the configuration file, so each benchmark can deserialize its respective parameters.
func getBenchmarkFactory(benchmarkType string, configData []byte) (func(int) (benchmark.Benchmark, error), error) {
	switch benchmarkType {
	case "update":
		return func(id int) (benchmark.Benchmark, error) { return update.New(id, configData) }, nil
	}
	return nil, errors.Errorf("benchmark '%s' not found", benchmarkType)
}

// Opens the store of one run. Temporary runs get a fresh location, returned
// so it can be removed.
func createConnection(ctx context.Context, args *BenchmarkArgs) (*store.Store, string, error) {
	location := args.Connection
	temporary := ""
	if args.Temporary {
		temporary = filepath.Join(os.TempDir(), "docbench-"+uuid.NewString())
		location = filepath.Join(temporary, filepath.Base(args.Connection))
	}

	st, err := store.Connect(ctx, args.Engine, location, args.FileData)
	if err != nil {
		return nil, "", err
	}
	return st, temporary, nil
}

// Create one benchmark per worker. They live for the whole run so that each
// worker's record sequence continues from one scenario to the next.
func createBenchmarks(nWorkers int, benchmarkFactory func(int) (benchmark.Benchmark, error)) ([]benchmark.Benchmark, error) {
	benches := make([]benchmark.Benchmark, nWorkers)
	for i := range benches {
		b, err := benchmarkFactory(i)
		if err != nil {
			return nil, err
		}
		benches[i] = b
	}
	return benches, nil
}

// Create a worker per benchmark with the respective arguments and store.
func createWorkers(args *BenchmarkArgs, st *store.Store, scenario benchmark.Scenario,
	benches []benchmark.Benchmark, observer worker.Observer) []*worker.Worker {
	nWorkers := len(benches)
	workers := []*worker.Worker{}

	for i, b := range benches {
		transactions := args.Transactions / nWorkers
		if i < args.Transactions%nWorkers {
			transactions++
		}
		w := worker.NewWorker(i, args.Time, transactions, args.Warmup, args.Cooldown,
			st, scenario, args.Operations, b, observer)
		workers = append(workers, w)
	}

	return workers
}

// Runs the workers of one scenario. The first worker failure cancels the others.
func runScenario(ctx context.Context, workers []*worker.Worker) ([]*worker.BenchmarkResults, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := make(chan *worker.BenchmarkResults)
	for _, w := range workers {
		go w.Run(ctx, c)
	}

	var firstErr error
	results := []*worker.BenchmarkResults{}
	for range workers {
		r := <-c
		if r.Err != nil && firstErr == nil {
			firstErr = r.Err
			cancel()
		}
		results = append(results, r)
	}
	return results, firstErr
}

type runOutcome struct {
	results map[benchmark.Scenario][]*worker.BenchmarkResults
	metrics map[benchmark.Scenario]map[string]string
	configs map[string]string
}

func merge(maps ...map[string]string) map[string]string {
	merged := map[string]string{}
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}

// Executes one run: every scenario of the matrix, on a new connection
func runOnce(ctx context.Context, args *BenchmarkArgs, nWorkers int, kinds []record.Kind,
	benchmarkFactory func(int) (benchmark.Benchmark, error), observer worker.Observer) (*runOutcome, error) {
	startTime := util.EpochSeconds()

	st, temporary, err := createConnection(ctx, args)
	if err != nil {
		return nil, err
	}
	defer func() {
		st.Close()
		if temporary != "" {
			os.RemoveAll(temporary)
		}
	}()

	b, err := benchmarkFactory(-1)
	if err != nil {
		return nil, err
	}
	if err := b.Setup(ctx, st); err != nil {
		return nil, errors.Wrap(err, "setup")
	}
	benches, err := createBenchmarks(nWorkers, benchmarkFactory)
	if err != nil {
		return nil, err
	}

	outcome := &runOutcome{
		results: map[benchmark.Scenario][]*worker.BenchmarkResults{},
		metrics: map[benchmark.Scenario]map[string]string{},
	}
	measured := 0.

	for _, phase := range benchmark.Phases() {
		fmt.Printf("Populating %s\n", phase)
		if err := b.Populate(ctx, st, phase); err != nil {
			return nil, errors.Wrapf(err, "populate %s", phase)
		}

		for _, kind := range kinds {
			scenario := benchmark.Scenario{Phase: phase, Kind: kind}
			fmt.Printf("Running %s\n", scenario.Name())

			workers := createWorkers(args, st, scenario, benches, observer)
			results, err := runScenario(ctx, workers)
			if err != nil {
				return nil, errors.Wrapf(err, "%s", scenario.Name())
			}

			outcome.results[scenario] = results
			outcome.metrics[scenario] = merge(workers[0].GetMetrics(ctx), st.GetMetrics(ctx))
			measured += results[0].RealDuration
		}
	}

	outcome.configs = merge(b.GetConfigs(), st.GetConfigs(), map[string]string{
		"hostMemory": strconv.FormatUint(memory.TotalMemory(), 10),
	})

	fmt.Printf("setupTime=%v\n", util.EpochSeconds()-startTime-measured)

	if err := b.Finalize(ctx, st); err != nil {
		return nil, errors.Wrap(err, "finalize")
	}
	return outcome, nil
}

func runBenchmark(ctx context.Context, args *BenchmarkArgs, metricsFile string) error {
	benchmarkFactory, err := getBenchmarkFactory(args.Benchmark, args.FileData)
	if err != nil {
		return err
	}
	kinds, err := record.ParseKinds(args.Kinds)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	recorder := metrics.NewRecorder(runID)
	table := newSummaryTable(os.Stdout)
	firstLine := true

	for _, nWorkers := range args.Workers {
		allResults := map[benchmark.Scenario][][]*worker.BenchmarkResults{}
		var configs map[string]string
		var scenarioMetrics map[benchmark.Scenario]map[string]string

		zlog.Info().Str("run", runID).Int("workers", nWorkers).Msg("Run started")

		for j := 0; j < args.Runs; j++ {
			outcome, err := runOnce(ctx, args, nWorkers, kinds, benchmarkFactory, recorder)
			if err != nil {
				return errors.Wrapf(err, "run %d with %d workers", j, nWorkers)
			}

			for scenario, results := range outcome.results {
				allResults[scenario] = append(allResults[scenario], results)
			}
			if configs == nil {
				configs = outcome.configs
				scenarioMetrics = outcome.metrics
			}
		}

		for _, scenario := range benchmark.Matrix(kinds) {
			aggregated := aggregateResults(allResults[scenario])
			printSummary(os.Stdout, aggregated, args, scenario, nWorkers, configs, scenarioMetrics[scenario], firstLine)
			table.add(scenario, nWorkers, aggregated["total"])
			firstLine = false
		}

		zlog.Info().Str("run", runID).Int("workers", nWorkers).Msg("Run ended")
	}

	table.render()

	if metricsFile != "" {
		return recorder.WriteToTextfile(metricsFile)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	var disableLog bool
	var logLevel string

	root := &cobra.Command{
		Use:           "docbench",
		Short:         "Update latency benchmarks of a document store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(disableLog, logLevel)
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&disableLog, "no-log", false, "Disables the log")
	flags.StringVar(&logLevel, "level", "debug", "Log level (info|debug)")

	root.AddCommand(newRunCmd(), newStatementsCmd(), newGenerateCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var configFile string
	var metricsFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark described by a config file",
		Long: `Measures the update latency of small, medium and large records, first
without any schema, then with the definition statements of every kind declared.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := buildArgs(configFile)
			if err != nil {
				return err
			}
			return runBenchmark(cmd.Context(), args, metricsFile)
		},
	}

	cmd.Flags().StringVar(&configFile, "conf", "", "Benchmark config file")
	cmd.Flags().StringVar(&metricsFile, "metrics", "", "Write the prometheus metrics of the run to this file")
	return cmd
}

func newStatementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "statements <kind>",
		Short: "Print the definition statements of a record kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			kind, err := record.ParseKind(argv[0])
			if err != nil {
				return err
			}
			for _, stmt := range record.DefinitionStatements(kind) {
				fmt.Fprintln(cmd.OutOrStdout(), stmt+";")
			}
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate <kind>",
		Short: "Print a random record of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			kind, err := record.ParseKind(argv[0])
			if err != nil {
				return err
			}
			rec, err := record.NewGenerator(seed).Generate(kind)
			if err != nil {
				return err
			}
			id, err := record.IdentifierOf(rec)
			if err != nil {
				return err
			}
			content, err := record.Content(rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", id, content)
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 = use current time)")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		zlog.Error().Err(err).Msg("Benchmark aborted")
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
