package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandProbe runs a local command and matches its stdout against a
// pattern. Used for operator-defined checks from the config file.
// A timeout is Indeterminate; a non-zero exit or a missed pattern is a Fail.
type CommandProbe struct {
	ProbeName      string
	Command        string
	Args           []string
	SuccessPattern string
	Timeout        time.Duration
}

func (p *CommandProbe) Name() string { return p.ProbeName }

func (p *CommandProbe) Check(ctx context.Context) Result {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.Command, p.Args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	latency := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		return indeterminate(latency, fmt.Sprintf("timed out after %s", p.Timeout))
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			reason := fmt.Sprintf("exit code %d", exitErr.ExitCode())
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				reason += ": " + msg
			}
			return fail(latency, reason)
		}
		return fail(latency, fmt.Sprintf("executing command: %v", err))
	}

	if p.SuccessPattern != "" && !strings.Contains(stdout.String(), p.SuccessPattern) {
		return fail(latency, fmt.Sprintf("output missing %q", p.SuccessPattern))
	}
	return pass(latency, "command succeeded")
}
