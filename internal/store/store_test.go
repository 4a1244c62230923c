package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.InsertRun(ctx, &Run{
		Model: "random_forest", Scoring: "rmse",
		MeanScore: 48.2, StdScore: 12.1, CVFolds: 5, Seed: 42, LogTarget: true,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = s.InsertRun(ctx, &Run{
		Model: "linear", Scoring: "rmse",
		MeanScore: 63.7, StdScore: 20.4, CVFolds: 5, Seed: 42,
	})
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, "linear", runs[0].Model)
	assert.Equal(t, "random_forest", runs[1].Model)
	assert.True(t, runs[1].LogTarget)
	assert.False(t, runs[0].LogTarget)
	assert.Equal(t, 48.2, runs[1].MeanScore)
	assert.False(t, runs[1].CreatedAt.IsZero())
}

func TestListRunsFilterAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.InsertRun(ctx, &Run{
			Model: "svr", Scoring: "rmse",
			MeanScore: float64(50 + i), CVFolds: 5, Seed: 42,
		})
		require.NoError(t, err)
	}
	_, err := s.InsertRun(ctx, &Run{Model: "linear", Scoring: "rmse", MeanScore: 60, CVFolds: 5, Seed: 42})
	require.NoError(t, err)

	svr, err := s.ListRuns(ctx, "svr", 0)
	require.NoError(t, err)
	assert.Len(t, svr, 3)

	limited, err := s.ListRuns(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestBestRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	best, err := s.BestRun(ctx, "rmse")
	require.NoError(t, err)
	assert.Nil(t, best)

	_, err = s.InsertRun(ctx, &Run{Model: "linear", Scoring: "rmse", MeanScore: 63.7, CVFolds: 5, Seed: 42})
	require.NoError(t, err)
	_, err = s.InsertRun(ctx, &Run{Model: "random_forest", Scoring: "rmse", MeanScore: 48.2, CVFolds: 5, Seed: 42})
	require.NoError(t, err)
	_, err = s.InsertRun(ctx, &Run{Model: "svr", Scoring: "mae", MeanScore: 12.9, CVFolds: 5, Seed: 42})
	require.NoError(t, err)

	best, err = s.BestRun(ctx, "rmse")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "random_forest", best.Model)
	assert.Equal(t, 48.2, best.MeanScore)
}

func TestOpenValidation(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
