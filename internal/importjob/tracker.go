package importjob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/imgport/internal/domain"
)

// Phase is where the tracker is in an import's lifecycle
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseProcessing
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseProcessing:
		return "processing"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Recorder keeps a record of finished imports
type Recorder interface {
	RecordImport(summary domain.ImportSummary) error
}

// Config tunes a Tracker
type Config struct {
	Source          string // e.g. "google-drive"
	MaxPollFailures int    // consecutive failed polls before giving up; 0 never gives up
}

// Option configures optional Tracker collaborators
type Option func(*Tracker)

// WithRecorder persists a summary of every completed import
func WithRecorder(r Recorder) Option {
	return func(t *Tracker) { t.recorder = r }
}

// WithLogger sets the tracker's logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

func withPollInterval(d time.Duration) Option {
	return func(t *Tracker) { t.scheduler.interval = d }
}

// Tracker owns at most one import at a time: it submits the request,
// resolves the outcome shape, drives the scheduler for deferred jobs and
// publishes completion on the bus exactly once per import.
//
// All methods must be called from the bubbletea Update goroutine.
type Tracker struct {
	gateway   domain.ImportGateway
	scheduler *Scheduler
	bus       *Bus
	recorder  Recorder
	logger    *slog.Logger

	source          string
	maxPollFailures int

	phase        Phase
	gen          uint64
	request      domain.ImportRequest
	jobID        string
	progress     domain.ImportProgress
	err          error
	pollFailures int
	cancelSubmit context.CancelFunc
}

// NewTracker creates an idle tracker
func NewTracker(gateway domain.ImportGateway, bus *Bus, cfg Config, opts ...Option) *Tracker {
	if bus == nil {
		bus = NewBus()
	}
	t := &Tracker{
		gateway:         gateway,
		scheduler:       NewScheduler(gateway),
		bus:             bus,
		source:          cfg.Source,
		maxPollFailures: cfg.MaxPollFailures,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Phase returns the current lifecycle phase
func (t *Tracker) Phase() Phase { return t.phase }

// Progress returns the latest normalized progress snapshot
func (t *Tracker) Progress() domain.ImportProgress { return t.progress }

// Err returns the error that moved the tracker to PhaseFailed
func (t *Tracker) Err() error { return t.err }

// JobID returns the deferred job being polled, or ""
func (t *Tracker) JobID() string { return t.jobID }

// Request returns the request of the current or last import
func (t *Tracker) Request() domain.ImportRequest { return t.request }

// Busy reports whether an import is being submitted or processed
func (t *Tracker) Busy() bool {
	return t.phase == PhaseSubmitting || t.phase == PhaseProcessing
}

// PollRequests returns how many status requests the scheduler has issued
func (t *Tracker) PollRequests() int { return t.scheduler.Requests() }

// Submit validates folderRef and returns the command that sends it.
// Validation failures and conflicts never reach the network.
func (t *Tracker) Submit(folderRef string) (tea.Cmd, error) {
	req, err := domain.NewImportRequest(folderRef)
	if err != nil {
		return nil, err
	}
	if t.Busy() {
		return nil, domain.ErrConflict
	}

	t.gen++
	t.phase = PhaseSubmitting
	t.request = req
	t.jobID = ""
	t.err = nil
	t.pollFailures = 0
	t.progress = domain.ImportProgress{Message: "Submitting import..."}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancelSubmit = cancel

	gen, source, gateway := t.gen, t.source, t.gateway
	t.logger.Info("submitting import", "source", source, "folder", req.FolderReference)
	return func() tea.Msg {
		outcome, err := gateway.SubmitImport(ctx, source, req)
		return submitResultMsg{gen: gen, outcome: outcome, err: err}
	}, nil
}

// Cancel stops tracking the current import. The server-side job keeps
// running; the last progress stays visible. Safe in every phase.
func (t *Tracker) Cancel() {
	t.scheduler.Stop()
	if t.cancelSubmit != nil {
		t.cancelSubmit()
		t.cancelSubmit = nil
	}
	if t.Busy() {
		t.logger.Info("import tracking canceled", "jobID", t.jobID)
	}
	t.gen++
	t.jobID = ""
	t.progress.JobID = ""
	t.err = nil
	t.phase = PhaseIdle
}

// Update handles the tracker's own messages and ignores everything else
func (t *Tracker) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case submitResultMsg:
		return t.handleSubmitResult(msg)
	case pollTickMsg:
		return t.scheduler.handleTick(msg)
	case pollResultMsg:
		if !t.scheduler.accept(msg) {
			return nil
		}
		return t.handlePollResult(msg)
	}
	return nil
}

func (t *Tracker) handleSubmitResult(msg submitResultMsg) tea.Cmd {
	if msg.gen != t.gen || t.phase != PhaseSubmitting {
		return nil
	}
	t.cancelSubmit = nil

	if msg.err != nil {
		t.logger.Error("import submission failed", "error", msg.err)
		t.fail(msg.err)
		return nil
	}

	switch outcome := msg.outcome.(type) {
	case domain.DeferredOutcome:
		t.jobID = outcome.JobID
		t.phase = PhaseProcessing
		t.progress = domain.ImportProgress{
			JobID:  outcome.JobID,
			Total:  outcome.TotalEstimate,
			Status: domain.JobProcessing,
		}.Normalize()
		t.progress.Message = outcome.Message
		if t.progress.Message == "" {
			t.progress.Message = t.progress.ProcessingMessage()
		}
		t.logger.Info("import deferred", "jobID", outcome.JobID, "total", outcome.TotalEstimate)
		return t.scheduler.Start(outcome.JobID)

	case domain.ImmediateOutcome:
		t.progress = domain.ImportProgress{
			Total:     outcome.TotalFound,
			Processed: outcome.ImportedCount,
			Failed:    outcome.FailedCount,
			Status:    domain.JobCompleted,
		}.Normalize()
		t.progress.Message = t.progress.CompletedMessage()
		if t.progress.Total == 0 && outcome.Message != "" {
			t.progress.Message = outcome.Message
		}
		t.logger.Info("import finished immediately", "total", t.progress.Total, "failed", t.progress.Failed)
		return t.complete(false)

	default:
		t.fail(fmt.Errorf("unknown import outcome %T", msg.outcome))
		return nil
	}
}

func (t *Tracker) handlePollResult(msg pollResultMsg) tea.Cmd {
	if t.phase != PhaseProcessing || msg.jobID != t.jobID {
		return nil
	}

	if msg.err != nil {
		return t.handlePollError(msg.err)
	}
	t.pollFailures = 0

	// Each snapshot replaces the previous one wholesale.
	t.progress = domain.ImportProgress{
		JobID:     t.jobID,
		Total:     msg.status.Total,
		Processed: msg.status.Processed,
		Failed:    msg.status.Failed,
		Status:    msg.status.State,
	}.Normalize()

	if msg.status.State != domain.JobCompleted {
		t.progress.Message = t.progress.ProcessingMessage()
		return nil
	}

	t.progress.Message = t.progress.CompletedMessage()
	t.logger.Info("import job completed", "jobID", t.jobID, "processed", t.progress.Processed, "failed", t.progress.Failed)
	return t.complete(true)
}

func (t *Tracker) handlePollError(err error) tea.Cmd {
	if errors.Is(err, domain.ErrJobNotFound) {
		t.logger.Error("import job vanished", "jobID", t.jobID, "error", err)
		t.fail(err)
		return nil
	}

	t.pollFailures++
	t.logger.Warn("status check failed", "jobID", t.jobID, "attempt", t.pollFailures, "error", err)

	if t.maxPollFailures > 0 && t.pollFailures >= t.maxPollFailures {
		t.fail(fmt.Errorf("%w after %d attempts: %v", domain.ErrPollingAbandoned, t.pollFailures, err))
	}
	return nil
}

// complete moves to PhaseCompleted and publishes the summary once
func (t *Tracker) complete(deferred bool) tea.Cmd {
	summary := domain.ImportSummary{
		JobID:           t.jobID,
		FolderReference: t.request.FolderReference,
		Total:           t.progress.Total,
		Processed:       t.progress.Processed,
		Failed:          t.progress.Failed,
		Deferred:        deferred,
		Message:         t.progress.Message,
		CompletedAt:     time.Now(),
	}

	t.scheduler.Stop()
	t.jobID = ""
	t.progress.JobID = ""
	t.phase = PhaseCompleted

	return tea.Batch(t.bus.Publish(summary), t.record(summary))
}

func (t *Tracker) record(summary domain.ImportSummary) tea.Cmd {
	if t.recorder == nil {
		return nil
	}
	recorder, logger := t.recorder, t.logger
	return func() tea.Msg {
		err := recorder.RecordImport(summary)
		if err != nil {
			logger.Warn("failed to record import", "error", err)
		}
		return ImportRecordedMsg{Summary: summary, Err: err}
	}
}

func (t *Tracker) fail(err error) {
	t.scheduler.Stop()
	t.jobID = ""
	t.progress.JobID = ""
	t.err = err
	t.phase = PhaseFailed
}
