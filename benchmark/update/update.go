package update

import (
	"context"
	"strconv"
	"strings"
	"time"

	"docbench/benchmark"
	dbutils "docbench/dbUtils"
	"docbench/record"
	"docbench/store"

	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Update writes freshly generated records, one per operation, each under a new
// random identifier.
type Update struct {
	id        int
	Kinds     []string `yaml:"kinds"`
	Namespace string   `yaml:"namespace"`
	Database  string   `yaml:"database"`
	Seed      int64    `yaml:"seed"`
	kinds     []record.Kind
	generator *record.Generator
}

// New creates the benchmark of worker id (-1 for the run driver). configData
// is the raw configuration file.
func New(id int, configData []byte) (*Update, error) {
	u := &Update{id: id, Namespace: "bench", Database: "bench"}
	if err := yaml.Unmarshal(configData, u); err != nil {
		return nil, errors.Wrap(err, "could not parse the update benchmark configuration")
	}

	kinds, err := record.ParseKinds(u.Kinds)
	if err != nil {
		return nil, err
	}
	u.kinds = kinds
	u.generator = record.NewGenerator(workerSeed(u.Seed, id))
	return u, nil
}

// Each worker draws from its own sequence. A zero seed means a clock based one.
func workerSeed(seed int64, id int) int64 {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return seed + int64(id+1)*1_000_003
}

func (u *Update) log(msg string) {
	zlog.Info().Str("benchmark", "update").Int("id", u.id).Msg(msg)
}

func (u *Update) Setup(ctx context.Context, st *store.Store) error {
	u.log("Initializing")
	return dbutils.InitDb(ctx, st, u.Namespace, u.Database, dbutils.Tables(u.kinds))
}

func (u *Update) Populate(ctx context.Context, st *store.Store, phase benchmark.Phase) error {
	if err := st.Use(u.Namespace, u.Database); err != nil {
		return err
	}
	if phase != benchmark.Constrained {
		return nil
	}

	u.log("Declaring schemas")
	return dbutils.DeclareSchemas(ctx, st, u.kinds)
}

// Generates a record of the kind and upserts its content under its identifier
func (u *Update) update(ctx context.Context, st *store.Store, kind record.Kind) error {
	rec, err := u.generator.Generate(kind)
	if err != nil {
		return err
	}
	id, err := record.IdentifierOf(rec)
	if err != nil {
		return err
	}
	thing, err := record.ParseThing(id)
	if err != nil {
		return err
	}
	content, err := record.Content(rec)
	if err != nil {
		return err
	}

	_, err = st.Update(ctx, thing.Table, thing.Key, content)
	return err
}

func (u *Update) Prepare(st *store.Store, scenario benchmark.Scenario) (map[string]benchmark.Operation, error) {
	if st == nil {
		return nil, errors.New("update benchmark prepared without a store")
	}
	return map[string]benchmark.Operation{
		"update": func(ctx context.Context) error { return u.update(ctx, st, scenario.Kind) },
	}, nil
}

// RunScenario performs iterations sequential updates of the kind, returning
// the elapsed time of each. The first failed update stops the scenario.
func (u *Update) RunScenario(ctx context.Context, st *store.Store, kind record.Kind, iterations int) ([]time.Duration, error) {
	rts := make([]time.Duration, 0, iterations)
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return rts, err
		}

		start := time.Now()
		if err := u.update(ctx, st, kind); err != nil {
			return rts, errors.Wrapf(err, "%s update %d", kind, i)
		}
		rts = append(rts, time.Since(start))
	}
	return rts, nil
}

func (u *Update) GetConfigs() map[string]string {
	names := make([]string, len(u.kinds))
	for i, k := range u.kinds {
		names[i] = k.String()
	}
	return map[string]string{
		"kinds":     strings.Join(names, "|"),
		"namespace": u.Namespace,
		"database":  u.Database,
		"seed":      strconv.FormatInt(u.Seed, 10),
	}
}

// Returns the number of rows of each table
func (u *Update) GetMetrics(ctx context.Context, st *store.Store) map[string]string {
	metrics := map[string]string{}
	counts, err := dbutils.CountRows(ctx, st, dbutils.Tables(u.kinds))
	if err != nil {
		zlog.Warn().Err(err).Str("benchmark", "update").Msg("Could not count rows")
		return metrics
	}
	for table, n := range counts {
		metrics["rows_"+table] = strconv.Itoa(n)
	}
	return metrics
}

func (u *Update) Finalize(context.Context, *store.Store) error {
	u.log("Done")
	return nil
}
