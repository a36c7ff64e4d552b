package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/badgeshot/pkg/models"
)

func newTestTracker(t *testing.T) *SQLiteTracker {
	t.Helper()
	tr, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func startRun(t *testing.T, tr *SQLiteTracker, id, provider string, started time.Time) models.RunRecord {
	t.Helper()
	run := models.RunRecord{
		ID: id, Provider: provider, Model: "sdxl", Style: "corporate", Format: "png",
		OutputDir: "./out", Requested: 4, EstimatedCost: 0.16, StartedAt: started,
	}
	require.NoError(t, tr.StartRun(context.Background(), run))
	return run
}

func TestStartAndFinishRun(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	run := startRun(t, tr, "run-1", "stability", now)

	got, err := tr.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Zero(t, got.Succeeded)
	assert.True(t, got.FinishedAt.IsZero(), "unfinished run has finished_at %v", got.FinishedAt)

	run.Succeeded = 3
	run.Failed = 1
	run.ActualCost = 0.12
	run.AbortedByBudget = true
	run.FinishedAt = now.Add(time.Minute)
	require.NoError(t, tr.FinishRun(ctx, run))

	got, err = tr.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 0.12, got.ActualCost)
	assert.True(t, got.AbortedByBudget)
	assert.True(t, got.FinishedAt.Equal(now.Add(time.Minute)), "finished_at = %v", got.FinishedAt)
}

func TestFinishUnknownRun(t *testing.T) {
	tr := newTestTracker(t)
	err := tr.FinishRun(context.Background(), models.RunRecord{ID: "nope", FinishedAt: time.Now()})
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = tr.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	startRun(t, tr, "old", "stability", now.Add(-2*time.Hour))
	startRun(t, tr, "mid", "stability", now.Add(-time.Hour))
	startRun(t, tr, "new", "openai", now)

	runs, err := tr.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "old", runs[2].ID)

	limited, err := tr.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRunImages(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	startRun(t, tr, "run-1", "stability", now)

	for i, g := range []models.Gender{models.Male, models.Male, models.Female} {
		err := tr.RecordImage(ctx, models.ImageRecord{
			ID: string(rune('a' + i)), RunID: "run-1", Gender: g,
			Path: "out/" + string(g), Width: 896, Height: 1152,
			Prompt: "p", CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	images, err := tr.RunImages(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, "a", images[0].ID)
	assert.Equal(t, models.Female, images[2].Gender)
	assert.Equal(t, 896, images[1].Width)
	assert.Equal(t, 1152, images[1].Height)

	other, err := tr.RunImages(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCostReport(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for i, id := range []string{"s1", "s2"} {
		run := startRun(t, tr, id, "stability", now.Add(-time.Duration(i)*time.Minute))
		run.Succeeded = 4
		run.ActualCost = 0.16
		run.FinishedAt = now
		require.NoError(t, tr.FinishRun(ctx, run))
	}
	old := startRun(t, tr, "ancient", "stability", now.Add(-48*time.Hour))
	old.Succeeded = 10
	old.ActualCost = 5
	old.FinishedAt = now
	require.NoError(t, tr.FinishRun(ctx, old))

	reports, err := tr.CostReport(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	r := reports[0]
	assert.Equal(t, 2, r.Runs)
	assert.Equal(t, 8, r.Requested)
	assert.Equal(t, 8, r.Images)
	assert.InDelta(t, 0.32, r.Cost, 1e-4)

	all, err := tr.CostReport(ctx, time.Time{})
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, 3, all[0].Runs)
}
