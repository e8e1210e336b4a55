package devserver

import (
	"sync"

	"github.com/google/uuid"
)

// Job is a deferred import advanced a few images per status poll
type Job struct {
	ID        string `json:"-"`
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`

	pending []sourceFile
}

// Jobs tracks deferred imports
type Jobs struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func NewJobs() *Jobs {
	return &Jobs{jobs: make(map[string]*Job)}
}

// Create registers a processing job for files
func (j *Jobs) Create(files []sourceFile) *Job {
	j.mu.Lock()
	defer j.mu.Unlock()

	job := &Job{
		ID:      uuid.New().String(),
		Status:  statusProcessing,
		Total:   len(files),
		pending: files,
	}
	j.jobs[job.ID] = job
	return job
}

// Advance imports up to step pending files through process and returns a
// snapshot of the job afterwards.
func (j *Jobs) Advance(id string, step int, process func(sourceFile) error) (Job, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return Job{}, false
	}

	for n := 0; n < step && len(job.pending) > 0; n++ {
		f := job.pending[0]
		job.pending = job.pending[1:]
		if err := process(f); err != nil {
			job.Failed++
		} else {
			job.Processed++
		}
	}
	if job.Processed+job.Failed >= job.Total {
		job.Status = statusCompleted
	}

	snapshot := *job
	snapshot.pending = nil
	return snapshot, true
}
