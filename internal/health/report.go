package health

import (
	"github.com/gitpulse/gitpulse/internal/probe"
)

// Status is the aggregate verdict over one round of probes.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusWarning   Status = "warning"
	StatusUnhealthy Status = "unhealthy"
)

// warningFloor is the pass ratio at or above which a degraded round is a
// Warning rather than Unhealthy. 3 of 4 passing is a Warning.
const warningFloor = 0.75

// ProbeResult pairs a probe's name with its result for reporting.
type ProbeResult struct {
	Name    string
	Skipped bool
	probe.Result
}

// Report is the outcome of one aggregator round. It is built once and not
// mutated afterwards; Results preserve the aggregator's declaration order.
type Report struct {
	Results []ProbeResult
	Pass    int
	Total   int
	Status  Status
}

// Healthy reports whether every probe passed.
func (r *Report) Healthy() bool { return r.Status == StatusHealthy }

func buildReport(results []ProbeResult) *Report {
	report := &Report{
		Results: results,
		Total:   len(results),
	}
	for _, pr := range results {
		if pr.Passed() {
			report.Pass++
		}
	}
	report.Status = deriveStatus(report.Pass, report.Total)
	return report
}

func deriveStatus(pass, total int) Status {
	switch {
	case total == 0 || pass == total:
		return StatusHealthy
	case float64(pass) >= float64(total)*warningFloor:
		return StatusWarning
	default:
		return StatusUnhealthy
	}
}
