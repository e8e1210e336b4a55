package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mmcdole/imgport/internal/domain"
	"github.com/mmcdole/imgport/internal/exitcode"
)

func TestMapExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitcode.Success},
		{name: "coded", err: &ExitError{Code: exitcode.InvalidConfig, Err: errors.New("bad")}, want: exitcode.InvalidConfig},
		{name: "partial", err: withExitCode(exitcode.PartialSuccess, errors.New("2 images failed")), want: exitcode.PartialSuccess},
		{name: "validation", err: fmt.Errorf("%w: folder reference is empty", domain.ErrValidation), want: exitcode.InvalidUsage},
		{name: "offline", err: fmt.Errorf("%w: dial tcp", domain.ErrServerOffline), want: exitcode.Unavailable},
		{name: "missing image", err: domain.ErrImageNotFound, want: exitcode.NotFound},
		{name: "unknown command", err: errors.New("unknown command \"x\" for \"imgport\""), want: exitcode.InvalidUsage},
		{name: "generic", err: errors.New("boom"), want: exitcode.RuntimeFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapExitCode(tc.err); got != tc.want {
				t.Fatalf("mapExitCode() = %d, want %d", got, tc.want)
			}
		})
	}
}
