package review

// Status is the pipeline-facing verdict for a report.
type Status int

const (
	StatusOK Status = iota
	StatusBelowThreshold
	StatusHardError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBelowThreshold:
		return "below-threshold"
	case StatusHardError:
		return "error"
	default:
		return "unknown"
	}
}

// ExitCode maps the status to a process exit code: 0 ok, 1 below
// threshold, 2 hard error.
func (s Status) ExitCode() int {
	switch s {
	case StatusOK:
		return 0
	case StatusBelowThreshold:
		return 1
	default:
		return 2
	}
}

// Evaluate derives the status: hard error when the report failed, below
// threshold when the average score is under threshold, ok otherwise.
func Evaluate(r Report, threshold float64) Status {
	switch {
	case !r.Success:
		return StatusHardError
	case r.AverageScore < threshold:
		return StatusBelowThreshold
	default:
		return StatusOK
	}
}
