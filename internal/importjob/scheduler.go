package importjob

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/imgport/internal/domain"
)

// PollInterval is the fixed cadence of job status checks
const PollInterval = 2 * time.Second

// Scheduler issues status checks for one deferred job on a fixed tick.
//
// Ticks and results are messages in the bubbletea loop; the scheduler only
// keeps bookkeeping, so it must be driven from a single Update goroutine.
// At most one status request is outstanding: a tick that lands while one is
// in flight is skipped, not queued.
type Scheduler struct {
	gateway  domain.ImportGateway
	interval time.Duration

	gen      uint64
	jobID    string
	running  bool
	inFlight bool
	requests int
	skipped  int

	cancel context.CancelFunc
	ctx    context.Context
}

// NewScheduler creates a stopped scheduler polling through gateway
func NewScheduler(gateway domain.ImportGateway) *Scheduler {
	return &Scheduler{
		gateway:  gateway,
		interval: PollInterval,
	}
}

// Start begins polling jobID, replacing any job polled before
func (s *Scheduler) Start(jobID string) tea.Cmd {
	s.Stop()

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.jobID = jobID
	s.running = true
	return s.tick()
}

// Stop ends polling. Pending ticks and results become stale and are dropped.
// Calling Stop on a stopped scheduler is a no-op apart from the generation bump.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.running = false
	s.inFlight = false
	s.jobID = ""
}

// Running reports whether a job is being polled
func (s *Scheduler) Running() bool {
	return s.running
}

// Requests returns the number of status requests issued so far
func (s *Scheduler) Requests() int {
	return s.requests
}

// Skipped returns the number of ticks dropped because a request was in flight
func (s *Scheduler) Skipped() int {
	return s.skipped
}

func (s *Scheduler) tick() tea.Cmd {
	gen, jobID := s.gen, s.jobID
	return tea.Tick(s.interval, func(time.Time) tea.Msg {
		return pollTickMsg{gen: gen, jobID: jobID}
	})
}

// handleTick fires one status request unless one is already in flight.
// The tick chain continues either way.
func (s *Scheduler) handleTick(msg pollTickMsg) tea.Cmd {
	if !s.running || msg.gen != s.gen {
		return nil
	}

	next := s.tick()
	if s.inFlight {
		s.skipped++
		return next
	}

	s.inFlight = true
	s.requests++

	ctx, gen, jobID, gateway := s.ctx, s.gen, s.jobID, s.gateway
	fetch := func() tea.Msg {
		status, err := gateway.JobStatus(ctx, jobID)
		return pollResultMsg{gen: gen, jobID: jobID, status: status, err: err}
	}
	return tea.Batch(fetch, next)
}

// accept reports whether a poll result belongs to the current run
func (s *Scheduler) accept(msg pollResultMsg) bool {
	if !s.running || msg.gen != s.gen {
		return false
	}
	s.inFlight = false
	return true
}
