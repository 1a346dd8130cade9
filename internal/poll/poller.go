package poll

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gitpulse/gitpulse/internal/health"
)

// ErrCancelled is returned when the caller's context is cancelled before the
// target becomes healthy. Operationally distinct from exhaustion: the system
// was not proven unhealthy, the operator stopped looking.
var ErrCancelled = errors.New("polling cancelled")

// Outcome is the poller's final word: the last report produced and how many
// rounds it took.
type Outcome struct {
	Report   *health.Report
	Attempts int
}

// Round produces one health report. The poller calls it once per attempt.
type Round func(ctx context.Context) *health.Report

// Run repeats round until it reports healthy, the policy is exhausted, or
// ctx is cancelled. It returns the moment a round is healthy — remaining
// attempts are not consumed — and never sleeps after the last attempt.
//
// On exhaustion the last report is returned with a nil error so the caller
// can show every probe's final state. On cancellation the error is
// ErrCancelled and the report is the last one completed, if any.
func Run(ctx context.Context, logger *slog.Logger, policy Policy, round Round) (*Outcome, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	outcome := &Outcome{}
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return outcome, ErrCancelled
		}

		log := logger.With("attempt", attempt, "max_attempts", policy.MaxAttempts)
		log.Info("starting round")

		report := round(ctx)
		outcome.Report = report
		outcome.Attempts = attempt

		if ctx.Err() != nil {
			return outcome, ErrCancelled
		}
		if report.Healthy() {
			log.Info("round healthy", "pass", report.Pass, "total", report.Total)
			return outcome, nil
		}
		log.Info("round not healthy", "status", string(report.Status), "pass", report.Pass, "total", report.Total)

		if attempt == policy.MaxAttempts {
			return outcome, nil
		}

		log.Info("waiting before next round", "interval", policy.Interval)
		if err := sleep(ctx, policy.Interval); err != nil {
			return outcome, ErrCancelled
		}
	}
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
