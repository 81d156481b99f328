package watch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadwatch/internal/models"
	"leadwatch/internal/watch"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestMergeOverwritesFetchedFields(t *testing.T) {
	prev := watch.State{
		JobID:     "job123",
		Status:    models.StatusProcessing,
		CreatedAt: "2026-01-01T00:00:00Z",
		UpdatedAt: "2026-01-01T00:00:05Z",
	}
	snap := &models.Job{
		JobID:     "job123",
		Status:    models.StatusCompleted,
		UpdatedAt: "2026-01-01T00:01:00Z",
		ExecutionSteps: []models.ExecutionStep{
			{StepOrder: 1, StepName: "Deep Research", Status: "completed", Output: strPtr("done")},
		},
	}

	res := watch.Merge(prev, snap, "job123", nil)
	require.False(t, res.Stale)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, models.StatusCompleted, res.State.Status)
	assert.Equal(t, "2026-01-01T00:01:00Z", res.State.UpdatedAt)
	require.Len(t, res.State.ExecutionSteps, 1)

	// Fields the snapshot omitted are retained.
	assert.Equal(t, "2026-01-01T00:00:00Z", res.State.CreatedAt)
}

func TestMergeRetainsOmittedFields(t *testing.T) {
	prev := watch.State{
		JobID:  "job123",
		Status: models.StatusProcessing,
		ExecutionSteps: []models.ExecutionStep{
			{StepOrder: 1, Status: "running"},
		},
		LiveStep: &models.LiveStep{StepOrder: 1, Preview: "thinking..."},
	}
	// Snapshot carries only a status; steps and live_step absent.
	snap := &models.Job{JobID: "job123", Status: models.StatusProcessing}

	res := watch.Merge(prev, snap, "job123", nil)
	require.False(t, res.Stale)
	assert.Len(t, res.State.ExecutionSteps, 1)
	require.NotNil(t, res.State.LiveStep)
	assert.Equal(t, "thinking...", res.State.LiveStep.Preview)
}

func TestMergeIdempotent(t *testing.T) {
	prev := watch.State{JobID: "job123", Status: models.StatusProcessing}
	snap := &models.Job{
		JobID:  "job123",
		Status: models.StatusProcessing,
		ExecutionSteps: []models.ExecutionStep{
			{StepOrder: 1, Status: "completed", Output: strPtr("output-1")},
			{StepOrder: 2, Status: "running"},
		},
	}

	first := watch.Merge(prev, snap, "job123", nil)
	second := watch.Merge(first.State, snap, "job123", nil)
	assert.Equal(t, first.State, second.State)
}

func TestMergeStaleJobGuard(t *testing.T) {
	prev := watch.State{JobID: "jobA", Status: models.StatusProcessing}
	snap := &models.Job{JobID: "jobB", Status: models.StatusCompleted}

	// Fetch was issued for a different job than the one held.
	res := watch.Merge(prev, snap, "jobB", nil)
	assert.True(t, res.Stale)
	assert.Equal(t, prev, res.State)

	// Backend echoing a mismatched id is discarded too.
	res = watch.Merge(prev, snap, "jobA", nil)
	assert.True(t, res.Stale)
	assert.Equal(t, prev, res.State)
}

func TestMergeRerunClearable(t *testing.T) {
	prev := watch.State{JobID: "job123", Status: models.StatusProcessing}

	t.Run("eligible when output present and job left processing", func(t *testing.T) {
		snap := &models.Job{
			JobID:  "job123",
			Status: models.StatusCompleted,
			ExecutionSteps: []models.ExecutionStep{
				{StepOrder: 1, Status: "completed", Output: strPtr("fresh output")},
			},
		}
		res := watch.Merge(prev, snap, "job123", intPtr(0))
		assert.True(t, res.RerunClearable)
	})

	t.Run("not eligible while still processing", func(t *testing.T) {
		snap := &models.Job{
			JobID:  "job123",
			Status: models.StatusProcessing,
			ExecutionSteps: []models.ExecutionStep{
				{StepOrder: 1, Status: "completed", Output: strPtr("fresh output")},
			},
		}
		res := watch.Merge(prev, snap, "job123", intPtr(0))
		assert.False(t, res.RerunClearable)
	})

	t.Run("not eligible with empty output", func(t *testing.T) {
		snap := &models.Job{
			JobID:  "job123",
			Status: models.StatusCompleted,
			ExecutionSteps: []models.ExecutionStep{
				{StepOrder: 1, Status: "completed", Output: strPtr("")},
			},
		}
		res := watch.Merge(prev, snap, "job123", intPtr(0))
		assert.False(t, res.RerunClearable)
	})

	t.Run("not eligible with absent step", func(t *testing.T) {
		snap := &models.Job{JobID: "job123", Status: models.StatusCompleted}
		res := watch.Merge(prev, snap, "job123", intPtr(4))
		assert.False(t, res.RerunClearable)
	})

	t.Run("no marker means never eligible", func(t *testing.T) {
		snap := &models.Job{
			JobID:  "job123",
			Status: models.StatusCompleted,
			ExecutionSteps: []models.ExecutionStep{
				{StepOrder: 1, Status: "completed", Output: strPtr("fresh output")},
			},
		}
		res := watch.Merge(prev, snap, "job123", nil)
		assert.False(t, res.RerunClearable)
	})
}

func TestShouldPoll(t *testing.T) {
	assert.True(t, watch.ShouldPoll(models.StatusProcessing, nil))
	assert.True(t, watch.ShouldPoll(models.StatusPending, nil))
	assert.False(t, watch.ShouldPoll(models.StatusCompleted, nil))
	assert.False(t, watch.ShouldPoll(models.StatusFailed, nil))

	// A pending rerun keeps the loop alive even on a terminal status.
	assert.True(t, watch.ShouldPoll(models.StatusCompleted, intPtr(1)))
}
