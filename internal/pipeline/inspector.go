package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
)

// ErrNotRetrieved marks a report whose pipeline data could not be fetched.
// Distinct from "the project has no pipelines": an unreachable or malformed
// API is usually the same still-initializing condition as any other
// readiness failure.
var ErrNotRetrieved = errors.New("could not retrieve pipeline data")

// InspectReport is the inspector's output for one invocation.
type InspectReport struct {
	// Retrieved is false when the remote API could not be queried or its
	// response did not decode; Pipeline and Hints are then meaningless.
	Retrieved bool
	Err       error

	// Pipeline is the most recent pipeline, nil when the project has none.
	Pipeline *Pipeline
	Hints    []Hint
}

// Inspector fetches the latest pipeline for a project and classifies its
// jobs into diagnostic hints.
type Inspector struct {
	api     API
	project string
	logger  *slog.Logger

	// fetchDepth is how many recent pipelines to fetch before sorting
	// client-side and taking the newest.
	fetchDepth int
}

// NewInspector creates an Inspector for one project.
func NewInspector(api API, project string, logger *slog.Logger) *Inspector {
	return &Inspector{api: api, project: project, logger: logger, fetchDepth: 10}
}

// Inspect fetches the most recent pipeline and its jobs. API failures yield
// a not-retrieved report, never an empty-but-successful one.
func (i *Inspector) Inspect(ctx context.Context) *InspectReport {
	log := i.logger.With("project", i.project)

	pipelines, err := i.api.ListPipelines(ctx, i.project, i.fetchDepth)
	if err != nil {
		log.Error("listing pipelines failed", "error", err)
		return &InspectReport{Err: errors.Join(ErrNotRetrieved, err)}
	}
	if len(pipelines) == 0 {
		log.Info("project has no pipelines")
		return &InspectReport{Retrieved: true}
	}

	// The sort parameter is sent explicitly, but the remote's ordering is
	// still re-verified here by created_at so a stale page cannot pick the
	// wrong pipeline.
	sort.SliceStable(pipelines, func(a, b int) bool {
		return pipelines[a].CreatedAt.After(pipelines[b].CreatedAt)
	})
	latest := pipelines[0]
	log.Info("inspecting latest pipeline", "pipeline", latest.ID, "status", latest.Status, "ref", latest.Ref)

	jobs, err := i.api.ListJobs(ctx, i.project, latest.ID)
	if err != nil {
		log.Error("listing jobs failed", "pipeline", latest.ID, "error", err)
		return &InspectReport{Err: errors.Join(ErrNotRetrieved, err)}
	}
	latest.Jobs = jobs

	var hints []Hint
	for _, job := range jobs {
		if h := classifyJob(job); h != nil {
			hints = append(hints, *h)
		}
	}

	return &InspectReport{
		Retrieved: true,
		Pipeline:  &latest,
		Hints:     rankHints(hints),
	}
}

// JobCounts tallies jobs by status for the summary line.
func (r *InspectReport) JobCounts() map[JobStatus]int {
	counts := make(map[JobStatus]int)
	if r.Pipeline == nil {
		return counts
	}
	for _, job := range r.Pipeline.Jobs {
		counts[job.Status]++
	}
	return counts
}
