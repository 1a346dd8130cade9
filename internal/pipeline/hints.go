package pipeline

import "fmt"

// HintSeverity ranks diagnostic hints for display.
type HintSeverity int

const (
	// SeverityAction means the operator must do something.
	SeverityAction HintSeverity = iota
	// SeverityInfo is context, not a call to action.
	SeverityInfo
)

// Hint is one actionable diagnostic derived from a job's state.
type Hint struct {
	JobName  string
	Severity HintSeverity
	Message  string
}

// classifyJob maps a job's state to zero or one hint.
func classifyJob(job Job) *Hint {
	switch job.Status {
	case JobPending:
		if job.Runner == nil {
			return &Hint{
				JobName:  job.Name,
				Severity: SeverityAction,
				Message:  "no runner assigned: check runner registration, tags, and the locked flag",
			}
		}
		return &Hint{
			JobName:  job.Name,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("pending on runner %d", job.Runner.ID),
		}
	case JobFailed:
		msg := "job failed"
		if job.FailureReason != "" {
			msg = fmt.Sprintf("job failed: %s", job.FailureReason)
		}
		return &Hint{JobName: job.Name, Severity: SeverityAction, Message: msg}
	case JobStuck:
		return &Hint{
			JobName:  job.Name,
			Severity: SeverityAction,
			Message:  "job stuck: runner availability or configuration issue",
		}
	case JobRunning, JobSuccess, JobCanceled:
		return nil
	default:
		return nil
	}
}

// rankHints orders hints so actionable ones come first, preserving job
// order within each severity.
func rankHints(hints []Hint) []Hint {
	ranked := make([]Hint, 0, len(hints))
	for _, h := range hints {
		if h.Severity == SeverityAction {
			ranked = append(ranked, h)
		}
	}
	for _, h := range hints {
		if h.Severity != SeverityAction {
			ranked = append(ranked, h)
		}
	}
	return ranked
}
