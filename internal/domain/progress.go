package domain

import "fmt"

// ProgressFunc reports pagination progress: (20, 140), (40, 140), ...
type ProgressFunc func(loaded, total int)

// ImportProgress is the tracker's unified view of an import, whichever
// outcome shape produced it.
type ImportProgress struct {
	JobID     string // empty once the job is finished or for immediate imports
	Total     int
	Processed int
	Failed    int
	Status    JobState
	Message   string
}

// Normalize enforces processed + failed <= total. Negative counts clamp to
// zero and an under-reported total is raised to what was already handled.
func (p ImportProgress) Normalize() ImportProgress {
	p.Total = max(p.Total, 0)
	p.Processed = max(p.Processed, 0)
	p.Failed = max(p.Failed, 0)
	if handled := p.Processed + p.Failed; handled > p.Total {
		p.Total = handled
	}
	return p
}

// Handled is the number of images the server has finished with.
func (p ImportProgress) Handled() int {
	return p.Processed + p.Failed
}

// Percent returns completion in [0, 1].
func (p ImportProgress) Percent() float64 {
	if p.Status == JobCompleted {
		return 1
	}
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Handled()) / float64(p.Total)
}

// Done reports whether the progress is terminal.
func (p ImportProgress) Done() bool {
	return p.Status == JobCompleted
}

// ProcessingMessage renders the in-flight status line.
func (p ImportProgress) ProcessingMessage() string {
	return fmt.Sprintf("Processing: %d of %d images", p.Handled(), p.Total)
}

// CompletedMessage renders the final summary line.
func (p ImportProgress) CompletedMessage() string {
	return fmt.Sprintf("Import completed! %d processed, %d failed of %d", p.Processed, p.Failed, p.Total)
}
