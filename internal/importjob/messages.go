package importjob

import "github.com/mmcdole/imgport/internal/domain"

// Messages below travel through the bubbletea loop. Every one carries the
// generation it was issued under; a mismatch means the sender was stopped
// or replaced and the message is dropped.

// ImportRecordedMsg reports that a completed import was handed to the
// Recorder. Readers of import history should reload on it.
type ImportRecordedMsg struct {
	Summary domain.ImportSummary
	Err     error
}

type submitResultMsg struct {
	gen     uint64
	outcome domain.ImportOutcome
	err     error
}

type pollTickMsg struct {
	gen   uint64
	jobID string
}

type pollResultMsg struct {
	gen    uint64
	jobID  string
	status domain.JobStatus
	err    error
}
