package cli

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/imgport/internal/domain"
	"github.com/mmcdole/imgport/internal/exitcode"
)

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps an error returned by the root command to a process exit code
func ExitCode(err error) int {
	return mapExitCode(err)
}

func mapExitCode(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var coded *ExitError
	if errors.As(err, &coded) {
		return coded.Code
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, tea.ErrProgramKilled), errors.Is(err, tea.ErrInterrupted):
		return exitcode.Interrupted
	case errors.Is(err, domain.ErrValidation):
		return exitcode.InvalidUsage
	case errors.Is(err, domain.ErrServerOffline):
		return exitcode.Unavailable
	case errors.Is(err, domain.ErrImageNotFound), errors.Is(err, domain.ErrJobNotFound):
		return exitcode.NotFound
	}
	message := err.Error()
	if strings.Contains(message, "unknown command") || strings.Contains(message, "unknown flag") {
		return exitcode.InvalidUsage
	}
	return exitcode.RuntimeFailure
}
