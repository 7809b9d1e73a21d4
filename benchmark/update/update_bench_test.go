package update

import (
	"context"
	"path/filepath"
	"testing"

	"docbench/benchmark"
	"docbench/record"
	"docbench/store"

	"github.com/stretchr/testify/require"
)

// Small, Medium, to Large on File
func BenchmarkUpdate(b *testing.B) {
	ctx := context.Background()
	u, err := New(-1, nil)
	require.NoError(b, err)

	st, err := store.Connect(ctx, store.EngineSqlite, filepath.Join(b.TempDir(), "storage.db"), nil)
	require.NoError(b, err)
	defer st.Close()
	require.NoError(b, u.Setup(ctx, st))

	for _, phase := range benchmark.Phases() {
		require.NoError(b, u.Populate(ctx, st, phase))

		for _, kind := range record.AllKinds() {
			scenario := benchmark.Scenario{Phase: phase, Kind: kind}
			ops, err := u.Prepare(st, scenario)
			require.NoError(b, err)
			op := ops["update"]

			b.Run(scenario.Name(), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					if err := op(ctx); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
