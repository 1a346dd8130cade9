package probe

import (
	"context"
	"time"
)

// Outcome classifies a single probe execution.
type Outcome int

const (
	// Pass means the check succeeded.
	Pass Outcome = iota
	// Fail means the target responded but the response indicates a real
	// problem. Retrying will not help until something is fixed.
	Fail
	// Indeterminate means the check could not be completed — connection
	// refused, timeout, host still booting. Retrying may help.
	Indeterminate
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// Result holds the outcome of one probe execution.
type Result struct {
	Outcome Outcome
	Reason  string
	Latency time.Duration
}

// Passed reports whether the probe succeeded.
func (r Result) Passed() bool { return r.Outcome == Pass }

// Probe is a single yes/no check against an external system. Probes are
// stateless and invoked fresh on every retry attempt; expected failure modes
// (network down, timeout, bad status) map to Fail or Indeterminate, never to
// a panic.
type Probe interface {
	Name() string
	Check(ctx context.Context) Result
}

// Func adapts a closure into a Probe.
type Func struct {
	ProbeName string
	Fn        func(ctx context.Context) Result
}

func (f Func) Name() string { return f.ProbeName }

func (f Func) Check(ctx context.Context) Result { return f.Fn(ctx) }

func pass(latency time.Duration, reason string) Result {
	return Result{Outcome: Pass, Reason: reason, Latency: latency}
}

func fail(latency time.Duration, reason string) Result {
	return Result{Outcome: Fail, Reason: reason, Latency: latency}
}

func indeterminate(latency time.Duration, reason string) Result {
	return Result{Outcome: Indeterminate, Reason: reason, Latency: latency}
}
