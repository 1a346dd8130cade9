package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAPI serves scripted pipelines and jobs.
type fakeAPI struct {
	pipelines    []Pipeline
	jobs         map[int][]Job
	pipelinesErr error
	jobsErr      error
}

func (f *fakeAPI) ListPipelines(ctx context.Context, project string, limit int) ([]Pipeline, error) {
	return f.pipelines, f.pipelinesErr
}

func (f *fakeAPI) ListJobs(ctx context.Context, project string, pipelineID int) ([]Job, error) {
	return f.jobs[pipelineID], f.jobsErr
}

func TestInspect_PicksNewestByCreatedAt(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{
		// Deliberately out of order: the remote's ordering is not trusted.
		pipelines: []Pipeline{
			{ID: 10, Status: "success", CreatedAt: now.Add(-2 * time.Hour)},
			{ID: 12, Status: "running", CreatedAt: now},
			{ID: 11, Status: "failed", CreatedAt: now.Add(-time.Hour)},
		},
		jobs: map[int][]Job{12: {{ID: 1, Name: "build", Status: JobRunning}}},
	}

	report := NewInspector(api, "7", discard()).Inspect(context.Background())
	require.True(t, report.Retrieved)
	require.NotNil(t, report.Pipeline)
	assert.Equal(t, 12, report.Pipeline.ID)
	require.Len(t, report.Pipeline.Jobs, 1)
}

func TestInspect_ClassifiesJobs(t *testing.T) {
	api := &fakeAPI{
		pipelines: []Pipeline{{ID: 1, Status: "running", CreatedAt: time.Now()}},
		jobs: map[int][]Job{1: {
			{ID: 1, Name: "build", Status: JobSuccess},
			{ID: 2, Name: "test", Status: JobFailed, FailureReason: "script error"},
			{ID: 3, Name: "train", Status: JobPending, Runner: nil},
		}},
	}

	report := NewInspector(api, "7", discard()).Inspect(context.Background())
	require.True(t, report.Retrieved)
	require.Len(t, report.Hints, 2)

	// Both hints are actionable; job order is preserved within the rank.
	assert.Equal(t, "test", report.Hints[0].JobName)
	assert.Contains(t, report.Hints[0].Message, "script error")
	assert.Equal(t, "train", report.Hints[1].JobName)
	assert.Contains(t, report.Hints[1].Message, "no runner assigned")

	counts := report.JobCounts()
	assert.Equal(t, 1, counts[JobSuccess])
	assert.Equal(t, 1, counts[JobFailed])
	assert.Equal(t, 1, counts[JobPending])
}

func TestInspect_PendingWithRunnerIsNotActionable(t *testing.T) {
	api := &fakeAPI{
		pipelines: []Pipeline{{ID: 1, Status: "running", CreatedAt: time.Now()}},
		jobs: map[int][]Job{1: {
			{ID: 1, Name: "train", Status: JobPending, Runner: &Runner{ID: 5}},
		}},
	}

	report := NewInspector(api, "7", discard()).Inspect(context.Background())
	require.Len(t, report.Hints, 1)
	assert.Equal(t, SeverityInfo, report.Hints[0].Severity)
	assert.NotContains(t, report.Hints[0].Message, "no runner assigned")
}

func TestInspect_StuckJobHint(t *testing.T) {
	api := &fakeAPI{
		pipelines: []Pipeline{{ID: 1, Status: "running", CreatedAt: time.Now()}},
		jobs:      map[int][]Job{1: {{ID: 1, Name: "train", Status: JobStuck}}},
	}

	report := NewInspector(api, "7", discard()).Inspect(context.Background())
	require.Len(t, report.Hints, 1)
	assert.Equal(t, SeverityAction, report.Hints[0].Severity)
	assert.Contains(t, report.Hints[0].Message, "runner availability")
}

func TestInspect_APIFailureIsNotRetrieved(t *testing.T) {
	api := &fakeAPI{pipelinesErr: errors.New("connection refused")}

	report := NewInspector(api, "7", discard()).Inspect(context.Background())
	assert.False(t, report.Retrieved, "an unreachable API must not look like an empty project")
	assert.ErrorIs(t, report.Err, ErrNotRetrieved)
	assert.Nil(t, report.Pipeline)
}

func TestInspect_JobsFailureIsNotRetrieved(t *testing.T) {
	api := &fakeAPI{
		pipelines: []Pipeline{{ID: 1, Status: "running", CreatedAt: time.Now()}},
		jobsErr:   errors.New("connection reset"),
	}

	report := NewInspector(api, "7", discard()).Inspect(context.Background())
	assert.False(t, report.Retrieved)
	assert.ErrorIs(t, report.Err, ErrNotRetrieved)
}

func TestInspect_EmptyProjectIsRetrieved(t *testing.T) {
	api := &fakeAPI{}

	report := NewInspector(api, "7", discard()).Inspect(context.Background())
	assert.True(t, report.Retrieved, "a project with no pipelines is a definite answer")
	assert.Nil(t, report.Pipeline)
	assert.NoError(t, report.Err)
}

func TestRankHints_ActionableFirst(t *testing.T) {
	hints := []Hint{
		{JobName: "a", Severity: SeverityInfo},
		{JobName: "b", Severity: SeverityAction},
		{JobName: "c", Severity: SeverityInfo},
		{JobName: "d", Severity: SeverityAction},
	}
	ranked := rankHints(hints)
	require.Len(t, ranked, 4)
	assert.Equal(t, "b", ranked[0].JobName)
	assert.Equal(t, "d", ranked[1].JobName)
	assert.Equal(t, "a", ranked[2].JobName)
	assert.Equal(t, "c", ranked[3].JobName)
}
