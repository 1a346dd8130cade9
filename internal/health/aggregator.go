package health

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/gitpulse/gitpulse/internal/probe"
)

// Aggregator runs an ordered list of probes exactly once and produces a
// Report. Retrying is the poller's job, not the aggregator's.
type Aggregator interface {
	Run(ctx context.Context) *Report
}

// Chain runs its probes in order and stops at the first one that does not
// pass; the remaining probes are recorded as skipped. Use it when later
// checks are meaningless once an earlier one fails (no point probing
// services over SSH when HTTP connectivity is down).
type Chain struct {
	probes []probe.Probe
	logger *slog.Logger
}

// NewChain builds a gating aggregator over the given probes.
func NewChain(logger *slog.Logger, probes ...probe.Probe) *Chain {
	return &Chain{probes: probes, logger: logger}
}

func (c *Chain) Run(ctx context.Context) *Report {
	results := make([]ProbeResult, 0, len(c.probes))
	gatedBy := ""

	for _, p := range c.probes {
		if gatedBy != "" {
			results = append(results, ProbeResult{
				Name:    p.Name(),
				Skipped: true,
				Result: probe.Result{
					Outcome: probe.Indeterminate,
					Reason:  fmt.Sprintf("skipped: gated by %s", gatedBy),
				},
			})
			continue
		}

		log := c.logger.With("probe", p.Name())
		log.Debug("running probe")
		res := p.Check(ctx)
		log.Info("probe finished", "outcome", res.Outcome.String(), "reason", res.Reason, "latency", res.Latency)

		results = append(results, ProbeResult{Name: p.Name(), Result: res})
		if !res.Passed() {
			gatedBy = p.Name()
		}
	}

	return buildReport(results)
}

// Set runs its probes concurrently; every probe executes regardless of the
// others' outcomes. Results are reported in declaration order, not
// completion order.
type Set struct {
	probes []probe.Probe
	logger *slog.Logger
}

// NewSet builds an independent aggregator over the given probes.
func NewSet(logger *slog.Logger, probes ...probe.Probe) *Set {
	return &Set{probes: probes, logger: logger}
}

func (s *Set) Run(ctx context.Context) *Report {
	results := make([]ProbeResult, len(s.probes))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range s.probes {
		g.Go(func() error {
			log := s.logger.With("probe", p.Name())
			log.Debug("running probe")
			res := p.Check(gctx)
			log.Info("probe finished", "outcome", res.Outcome.String(), "reason", res.Reason, "latency", res.Latency)
			results[i] = ProbeResult{Name: p.Name(), Result: res}
			return nil
		})
	}
	_ = g.Wait()

	return buildReport(results)
}
