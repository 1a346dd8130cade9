package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceStatus summarizes a gitlab-ctl style status listing.
type ServiceStatus struct {
	Running []string
	Down    []string
}

// ParseServiceStatus parses `gitlab-ctl status` output. Each line looks like
// "run: nginx: (pid 1234) 56s" or "down: sidekiq: 3s, normally up".
func ParseServiceStatus(output string) ServiceStatus {
	var status ServiceStatus
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		state, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimSpace(rest), ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		switch state {
		case "run":
			status.Running = append(status.Running, name)
		case "down", "fail":
			status.Down = append(status.Down, name)
		}
	}
	return status
}

// ServiceStatusProbe checks that every supervised service on the target is
// running. It passes only when at least one service is running and none are
// down.
type ServiceStatusProbe struct {
	ProbeName string
	Runner    CommandRunner
	Command   string
}

func (p *ServiceStatusProbe) Name() string { return p.ProbeName }

func (p *ServiceStatusProbe) Check(ctx context.Context) Result {
	command := p.Command
	if command == "" {
		command = "sudo gitlab-ctl status"
	}

	start := time.Now()
	out, err := p.Runner.Run(ctx, command)
	latency := time.Since(start)

	var connErr *ConnectError
	if errors.As(err, &connErr) {
		return indeterminate(latency, connErr.Error())
	}
	if err != nil {
		return fail(latency, err.Error())
	}

	status := ParseServiceStatus(out)
	if len(status.Down) > 0 {
		return fail(latency, fmt.Sprintf("services down: %s", strings.Join(status.Down, ", ")))
	}
	if len(status.Running) == 0 {
		return fail(latency, "no supervised services reported")
	}
	return pass(latency, fmt.Sprintf("all %d services running", len(status.Running)))
}
