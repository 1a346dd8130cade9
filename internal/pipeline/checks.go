package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gitpulse/gitpulse/internal/probe"
)

// Checks builds the comprehensive, independent probe set for a project's CI
// setup. Unlike the readiness chain, every check runs regardless of the
// others: the operator gets the whole picture in one round.
func Checks(client *Client, project string) []probe.Probe {
	return []probe.Probe{
		probe.Func{ProbeName: "api_version", Fn: func(ctx context.Context) probe.Result {
			return timed(func() (string, error) {
				v, err := client.Version(ctx)
				return fmt.Sprintf("version %s", v), err
			})
		}},
		probe.Func{ProbeName: "project_visible", Fn: func(ctx context.Context) probe.Result {
			return timed(func() (string, error) {
				p, err := client.GetProject(ctx, project)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("project %s (id %d)", p.Path, p.ID), nil
			})
		}},
		probe.Func{ProbeName: "runners_registered", Fn: func(ctx context.Context) probe.Result {
			start := time.Now()
			runners, err := client.ListRunners(ctx, project)
			latency := time.Since(start)
			if err != nil {
				return errResult(err, latency)
			}
			online := 0
			for _, r := range runners {
				if r.Active && r.Online {
					online++
				}
			}
			if len(runners) == 0 {
				return probe.Result{Outcome: probe.Fail, Reason: "no runners registered to project", Latency: latency}
			}
			if online == 0 {
				return probe.Result{Outcome: probe.Fail, Reason: fmt.Sprintf("%d runners registered, none online", len(runners)), Latency: latency}
			}
			return probe.Result{Outcome: probe.Pass, Reason: fmt.Sprintf("%d/%d runners online", online, len(runners)), Latency: latency}
		}},
		probe.Func{ProbeName: "pipelines_present", Fn: func(ctx context.Context) probe.Result {
			start := time.Now()
			pipelines, err := client.ListPipelines(ctx, project, 1)
			latency := time.Since(start)
			if err != nil {
				return errResult(err, latency)
			}
			if len(pipelines) == 0 {
				return probe.Result{Outcome: probe.Fail, Reason: "project has no pipelines", Latency: latency}
			}
			return probe.Result{Outcome: probe.Pass, Reason: fmt.Sprintf("latest pipeline %d is %s", pipelines[0].ID, pipelines[0].Status), Latency: latency}
		}},
	}
}

// timed wraps an API call into a probe result. An HTTP-level rejection is a
// definitive Fail; a transport error is Indeterminate, since retrying a
// still-initializing instance is the common case.
func timed(call func() (string, error)) probe.Result {
	start := time.Now()
	reason, err := call()
	latency := time.Since(start)
	if err != nil {
		return errResult(err, latency)
	}
	return probe.Result{Outcome: probe.Pass, Reason: reason, Latency: latency}
}

func errResult(err error, latency time.Duration) probe.Result {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return probe.Result{Outcome: probe.Fail, Reason: err.Error(), Latency: latency}
	}
	return probe.Result{Outcome: probe.Indeterminate, Reason: err.Error(), Latency: latency}
}
