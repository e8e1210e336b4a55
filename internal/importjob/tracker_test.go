package importjob

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/imgport/internal/adapter"
	"github.com/mmcdole/imgport/internal/domain"
)

type pollStep struct {
	status domain.JobStatus
	err    error
}

// fakeGateway answers submits with a fixed outcome and polls from a script.
// The last scripted step repeats once the script runs out.
type fakeGateway struct {
	outcome   domain.ImportOutcome
	submitErr error
	steps     []pollStep

	submits    int
	polls      int
	lastSource string
}

func (f *fakeGateway) SubmitImport(_ context.Context, source string, _ domain.ImportRequest) (domain.ImportOutcome, error) {
	f.submits++
	f.lastSource = source
	return f.outcome, f.submitErr
}

func (f *fakeGateway) JobStatus(_ context.Context, _ string) (domain.JobStatus, error) {
	f.polls++
	if len(f.steps) == 0 {
		return domain.JobStatus{}, domain.ErrServerOffline
	}
	step := f.steps[0]
	if len(f.steps) > 1 {
		f.steps = f.steps[1:]
	}
	return step.status, step.err
}

type fakeRecorder struct {
	summaries []domain.ImportSummary
	err       error
}

func (r *fakeRecorder) RecordImport(s domain.ImportSummary) error {
	if r.err != nil {
		return r.err
	}
	r.summaries = append(r.summaries, s)
	return nil
}

// harness runs a miniature bubbletea loop: commands execute in order on the
// test goroutine and their messages are fed back into the tracker.
type harness struct {
	t         *testing.T
	gw        *fakeGateway
	bus       *Bus
	tracker   *Tracker
	refreshes int
	snapshots []domain.ImportProgress
	recorded  []ImportRecordedMsg
}

func newHarness(t *testing.T, gw *fakeGateway, cfg Config, opts ...Option) *harness {
	t.Helper()
	h := &harness{t: t, gw: gw, bus: NewBus()}
	h.bus.Subscribe(func(domain.ImportSummary) tea.Cmd {
		h.refreshes++
		return nil
	})
	if cfg.Source == "" {
		cfg.Source = "google-drive"
	}
	opts = append([]Option{withPollInterval(time.Millisecond), WithLogger(adapter.NullLogger())}, opts...)
	h.tracker = NewTracker(gw, h.bus, cfg, opts...)
	return h
}

func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			h.t.Fatal("event loop did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if msg == nil {
			continue
		}
		if rec, ok := msg.(ImportRecordedMsg); ok {
			h.recorded = append(h.recorded, rec)
		}
		queue = append(queue, h.tracker.Update(msg))
		h.snapshots = append(h.snapshots, h.tracker.Progress())
	}
}

func (h *harness) submit(ref string) {
	h.t.Helper()
	cmd, err := h.tracker.Submit(ref)
	if err != nil {
		h.t.Fatalf("Submit(%q): %v", ref, err)
	}
	h.run(cmd)
}

func (h *harness) assertInvariant() {
	h.t.Helper()
	for i, p := range h.snapshots {
		if p.Processed+p.Failed > p.Total {
			h.t.Errorf("snapshot %d: processed+failed=%d exceeds total=%d", i, p.Processed+p.Failed, p.Total)
		}
	}
}

func processing(total, processed, failed int) pollStep {
	return pollStep{status: domain.JobStatus{State: domain.JobProcessing, Total: total, Processed: processed, Failed: failed}}
}

func completed(total, processed, failed int) pollStep {
	return pollStep{status: domain.JobStatus{State: domain.JobCompleted, Total: total, Processed: processed, Failed: failed}}
}

func TestDeferredImportPollsUntilCompleted(t *testing.T) {
	gw := &fakeGateway{
		outcome: domain.DeferredOutcome{JobID: "j1", TotalEstimate: 10},
		steps:   []pollStep{processing(10, 4, 0), processing(10, 7, 1), completed(10, 9, 1)},
	}
	rec := &fakeRecorder{}
	h := newHarness(t, gw, Config{MaxPollFailures: 5}, WithRecorder(rec))

	h.submit("https://x/folders/abc")

	if got := h.tracker.Phase(); got != PhaseCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
	if gw.polls != 3 || h.tracker.PollRequests() != 3 {
		t.Errorf("expected 3 status requests, got gateway=%d scheduler=%d", gw.polls, h.tracker.PollRequests())
	}
	if h.refreshes != 1 {
		t.Errorf("expected exactly one refresh, got %d", h.refreshes)
	}
	if gw.lastSource != "google-drive" {
		t.Errorf("expected google-drive source, got %q", gw.lastSource)
	}

	p := h.tracker.Progress()
	if p.Message != "Import completed! 9 processed, 1 failed of 10" {
		t.Errorf("unexpected final message %q", p.Message)
	}
	if p.JobID != "" || h.tracker.JobID() != "" {
		t.Error("job id should be cleared after completion")
	}
	h.assertInvariant()

	if len(rec.summaries) != 1 {
		t.Fatalf("expected one recorded summary, got %d", len(rec.summaries))
	}
	if s := rec.summaries[0]; s.JobID != "j1" || !s.Deferred || s.FolderReference != "https://x/folders/abc" || !s.PartialFailure() {
		t.Errorf("unexpected summary: %+v", s)
	}

	// Nothing may poll after completion, even once more ticks would have elapsed.
	time.Sleep(10 * time.Millisecond)
	if gw.polls != 3 || h.tracker.scheduler.Running() {
		t.Errorf("polling continued after completion: polls=%d running=%v", gw.polls, h.tracker.scheduler.Running())
	}
}

func TestImmediateImportNeverPolls(t *testing.T) {
	gw := &fakeGateway{
		outcome: domain.ImmediateOutcome{TotalFound: 3, ImportedCount: 3},
	}
	h := newHarness(t, gw, Config{})

	h.submit("https://x/folders/abc")

	if got := h.tracker.Phase(); got != PhaseCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
	if gw.polls != 0 || h.tracker.PollRequests() != 0 {
		t.Errorf("expected no polling, got %d", gw.polls)
	}
	if h.refreshes != 1 {
		t.Errorf("expected exactly one refresh, got %d", h.refreshes)
	}
	if got := h.tracker.Progress().Message; got != "Import completed! 3 processed, 0 failed of 3" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestRecorderReportsBackAfterWriting(t *testing.T) {
	gw := &fakeGateway{
		outcome: domain.ImmediateOutcome{TotalFound: 2, ImportedCount: 2},
	}
	rec := &fakeRecorder{}
	h := newHarness(t, gw, Config{}, WithRecorder(rec))

	h.submit("abc")

	if len(h.recorded) != 1 {
		t.Fatalf("expected one recorded message, got %d", len(h.recorded))
	}
	if len(rec.summaries) != 1 {
		t.Fatal("recorded message delivered before the recorder wrote")
	}
	if got := h.recorded[0]; got.Err != nil || got.Summary.FolderReference != "abc" || got.Summary.Processed != 2 {
		t.Errorf("unexpected recorded message %+v", got)
	}
}

func TestRecorderErrorIsReported(t *testing.T) {
	gw := &fakeGateway{
		outcome: domain.ImmediateOutcome{TotalFound: 1, ImportedCount: 1},
	}
	diskFull := errors.New("disk full")
	h := newHarness(t, gw, Config{}, WithRecorder(&fakeRecorder{err: diskFull}))

	h.submit("abc")

	if h.tracker.Phase() != PhaseCompleted {
		t.Fatalf("a failed history write must not fail the import, got %s", h.tracker.Phase())
	}
	if len(h.recorded) != 1 || !errors.Is(h.recorded[0].Err, diskFull) {
		t.Errorf("expected the recorder error in the message, got %+v", h.recorded)
	}
}

func TestImmediateEmptyFolderKeepsServerMessage(t *testing.T) {
	gw := &fakeGateway{
		outcome: domain.ImmediateOutcome{Message: "No images found in the folder"},
	}
	h := newHarness(t, gw, Config{})

	h.submit("abc")

	if got := h.tracker.Progress().Message; got != "No images found in the folder" {
		t.Errorf("unexpected message %q", got)
	}
	if h.refreshes != 1 {
		t.Errorf("expected one refresh, got %d", h.refreshes)
	}
}

func TestSubmitEmptyReferenceMakesNoNetworkCalls(t *testing.T) {
	gw := &fakeGateway{}
	h := newHarness(t, gw, Config{})

	cmd, err := h.tracker.Submit("   ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if cmd != nil {
		t.Error("expected no command on validation failure")
	}
	if gw.submits != 0 || gw.polls != 0 {
		t.Errorf("expected zero network calls, got submits=%d polls=%d", gw.submits, gw.polls)
	}
	if h.tracker.Phase() != PhaseIdle {
		t.Errorf("expected idle, got %s", h.tracker.Phase())
	}
}

func TestSubmitConflict(t *testing.T) {
	gw := &fakeGateway{outcome: domain.ImmediateOutcome{TotalFound: 1, ImportedCount: 1}}
	h := newHarness(t, gw, Config{})

	cmd, err := h.tracker.Submit("abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.tracker.Submit("def"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict while submitting, got %v", err)
	}

	h.run(cmd)
	if h.tracker.Phase() != PhaseCompleted {
		t.Fatalf("expected completed, got %s", h.tracker.Phase())
	}
	if _, err := h.tracker.Submit("def"); err != nil {
		t.Errorf("a new import should be accepted after completion: %v", err)
	}
}

func TestSubmitConflictWhileProcessing(t *testing.T) {
	gw := &fakeGateway{outcome: domain.DeferredOutcome{JobID: "j1", TotalEstimate: 4}}
	h := newHarness(t, gw, Config{})

	cmd, _ := h.tracker.Submit("abc")
	h.tracker.Update(cmd())

	if h.tracker.Phase() != PhaseProcessing {
		t.Fatalf("expected processing, got %s", h.tracker.Phase())
	}
	if _, err := h.tracker.Submit("def"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict while processing, got %v", err)
	}
	if got := h.tracker.Progress().Message; got != "Processing: 0 of 4 images" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestSubmitFailure(t *testing.T) {
	gw := &fakeGateway{submitErr: &domain.APIError{StatusCode: 400, Message: "Invalid Google Drive folder URL"}}
	h := newHarness(t, gw, Config{})

	h.submit("abc")

	if h.tracker.Phase() != PhaseFailed {
		t.Fatalf("expected failed, got %s", h.tracker.Phase())
	}
	var apiErr *domain.APIError
	if !errors.As(h.tracker.Err(), &apiErr) {
		t.Errorf("expected APIError, got %v", h.tracker.Err())
	}
	if h.refreshes != 0 {
		t.Errorf("failures must not publish, got %d refreshes", h.refreshes)
	}
}

func TestJobNotFoundIsFatal(t *testing.T) {
	gw := &fakeGateway{
		outcome: domain.DeferredOutcome{JobID: "j1", TotalEstimate: 5},
		steps:   []pollStep{processing(5, 1, 0), {err: domain.ErrJobNotFound}},
	}
	h := newHarness(t, gw, Config{MaxPollFailures: 5})

	h.submit("abc")

	if h.tracker.Phase() != PhaseFailed {
		t.Fatalf("expected failed, got %s", h.tracker.Phase())
	}
	if !errors.Is(h.tracker.Err(), domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", h.tracker.Err())
	}
	if gw.polls != 2 {
		t.Errorf("expected polling to stop after 2 requests, got %d", gw.polls)
	}
	if h.tracker.JobID() != "" {
		t.Error("job id should be cleared")
	}
	if h.refreshes != 0 {
		t.Errorf("expected no refresh, got %d", h.refreshes)
	}
}

func TestTransientPollErrorsAreSwallowed(t *testing.T) {
	gw := &fakeGateway{
		outcome: domain.DeferredOutcome{JobID: "j1", TotalEstimate: 2},
		steps: []pollStep{
			{err: domain.ErrServerOffline},
			{err: &domain.APIError{StatusCode: 502}},
			completed(2, 2, 0),
		},
	}
	h := newHarness(t, gw, Config{MaxPollFailures: 5})

	h.submit("abc")

	if h.tracker.Phase() != PhaseCompleted {
		t.Fatalf("expected completed, got %s (err=%v)", h.tracker.Phase(), h.tracker.Err())
	}
	if gw.polls != 3 {
		t.Errorf("expected 3 polls, got %d", gw.polls)
	}
	if h.refreshes != 1 {
		t.Errorf("expected one refresh, got %d", h.refreshes)
	}
}

func TestPollingAbandonedAfterConsecutiveFailures(t *testing.T) {
	gw := &fakeGateway{
		outcome: domain.DeferredOutcome{JobID: "j1", TotalEstimate: 2},
		steps:   []pollStep{{err: domain.ErrServerOffline}},
	}
	h := newHarness(t, gw, Config{MaxPollFailures: 3})

	h.submit("abc")

	if h.tracker.Phase() != PhaseFailed {
		t.Fatalf("expected failed, got %s", h.tracker.Phase())
	}
	if !errors.Is(h.tracker.Err(), domain.ErrPollingAbandoned) {
		t.Errorf("expected ErrPollingAbandoned, got %v", h.tracker.Err())
	}
	if gw.polls != 3 {
		t.Errorf("expected 3 polls before giving up, got %d", gw.polls)
	}
}

func TestPollProgressIsNormalized(t *testing.T) {
	gw := &fakeGateway{
		outcome: domain.DeferredOutcome{JobID: "j1", TotalEstimate: 5},
		steps:   []pollStep{processing(5, 5, 1), completed(5, 5, 1)},
	}
	h := newHarness(t, gw, Config{})

	h.submit("abc")

	h.assertInvariant()
	if got := h.tracker.Progress().Total; got != 6 {
		t.Errorf("expected total raised to 6, got %d", got)
	}
}

func TestTickWhileInFlightIsSkipped(t *testing.T) {
	gw := &fakeGateway{
		outcome: domain.DeferredOutcome{JobID: "j1", TotalEstimate: 10},
		steps:   []pollStep{processing(10, 1, 0)},
	}
	h := newHarness(t, gw, Config{})

	cmd, _ := h.tracker.Submit("abc")
	h.tracker.Update(cmd())

	s := h.tracker.scheduler
	tick := pollTickMsg{gen: s.gen, jobID: "j1"}

	if h.tracker.Update(tick) == nil {
		t.Fatal("expected a status request")
	}
	if next := h.tracker.Update(tick); next == nil {
		t.Fatal("the tick chain must continue while a request is in flight")
	}
	if s.Requests() != 1 || s.Skipped() != 1 {
		t.Fatalf("expected 1 request and 1 skipped tick, got %d and %d", s.Requests(), s.Skipped())
	}

	h.tracker.Update(pollResultMsg{gen: s.gen, jobID: "j1", status: domain.JobStatus{State: domain.JobProcessing, Total: 10, Processed: 1}})
	h.tracker.Update(tick)
	if s.Requests() != 2 {
		t.Errorf("expected a new request once the previous one resolved, got %d", s.Requests())
	}
}

func TestResultsAfterCancelAreDropped(t *testing.T) {
	gw := &fakeGateway{outcome: domain.DeferredOutcome{JobID: "j1", TotalEstimate: 10}}
	h := newHarness(t, gw, Config{})

	cmd, _ := h.tracker.Submit("abc")
	h.tracker.Update(cmd())

	s := h.tracker.scheduler
	staleGen := s.gen
	h.tracker.Update(pollTickMsg{gen: staleGen, jobID: "j1"})
	before := h.tracker.Progress()

	h.tracker.Cancel()
	h.tracker.Cancel() // idempotent

	late := pollResultMsg{gen: staleGen, jobID: "j1", status: domain.JobStatus{State: domain.JobCompleted, Total: 10, Processed: 10}}
	if cmd := h.tracker.Update(late); cmd != nil {
		t.Error("stale result must not produce work")
	}
	if cmd := h.tracker.Update(pollTickMsg{gen: staleGen, jobID: "j1"}); cmd != nil {
		t.Error("stale tick must not produce work")
	}

	if h.tracker.Phase() != PhaseIdle {
		t.Errorf("expected idle after cancel, got %s", h.tracker.Phase())
	}
	if got := h.tracker.Progress(); got.Processed != before.Processed || got.Total != before.Total {
		t.Errorf("progress changed after cancel: %+v -> %+v", before, got)
	}
	if h.refreshes != 0 {
		t.Errorf("expected no refresh, got %d", h.refreshes)
	}
	if s.Requests() != 1 {
		t.Errorf("expected no requests after cancel, got %d", s.Requests())
	}
}

func TestSubmitResultAfterCancelIsDropped(t *testing.T) {
	gw := &fakeGateway{outcome: domain.ImmediateOutcome{TotalFound: 2, ImportedCount: 2}}
	h := newHarness(t, gw, Config{})

	cmd, _ := h.tracker.Submit("abc")
	h.tracker.Cancel()
	h.run(cmd)

	if h.tracker.Phase() != PhaseIdle {
		t.Errorf("expected idle, got %s", h.tracker.Phase())
	}
	if h.refreshes != 0 {
		t.Errorf("expected no refresh, got %d", h.refreshes)
	}
}

func TestBusWithoutSubscriber(t *testing.T) {
	bus := NewBus()
	if cmd := bus.Publish(domain.ImportSummary{}); cmd != nil {
		t.Error("expected nil command without a subscriber")
	}
	if bus.Published() != 1 {
		t.Errorf("expected 1 publication, got %d", bus.Published())
	}
}
