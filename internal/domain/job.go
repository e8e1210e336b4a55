package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// ImportRequest asks the import gateway to pull every image in a folder.
type ImportRequest struct {
	FolderReference string
}

// NewImportRequest validates a folder reference. A bare folder ID is accepted
// as-is; anything carrying a URL scheme must parse and name a host.
func NewImportRequest(folderRef string) (ImportRequest, error) {
	ref := strings.TrimSpace(folderRef)
	if ref == "" {
		return ImportRequest{}, fmt.Errorf("%w: folder reference is empty", ErrValidation)
	}
	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil || u.Host == "" {
			return ImportRequest{}, fmt.Errorf("%w: malformed folder URL %q", ErrValidation, ref)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return ImportRequest{}, fmt.Errorf("%w: unsupported URL scheme %q", ErrValidation, u.Scheme)
		}
	}
	return ImportRequest{FolderReference: ref}, nil
}

// ImportOutcome is what the gateway answers to an import request: exactly one
// of DeferredOutcome or ImmediateOutcome.
type ImportOutcome interface {
	importOutcome()
}

// DeferredOutcome means the work continues server-side under JobID.
type DeferredOutcome struct {
	JobID         string
	TotalEstimate int
	Message       string
}

// ImmediateOutcome means the import already finished before the response.
type ImmediateOutcome struct {
	TotalFound    int
	ImportedCount int
	FailedCount   int
	Message       string
}

func (DeferredOutcome) importOutcome()  {}
func (ImmediateOutcome) importOutcome() {}

// JobState is the server-side state of a deferred import job.
type JobState int

const (
	JobProcessing JobState = iota
	JobCompleted
)

func (s JobState) String() string {
	switch s {
	case JobProcessing:
		return "processing"
	case JobCompleted:
		return "completed"
	default:
		return fmt.Sprintf("JobState(%d)", int(s))
	}
}

// JobStatus is one poll snapshot of a deferred job.
type JobStatus struct {
	State     JobState
	Total     int
	Processed int
	Failed    int
}
