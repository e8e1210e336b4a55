package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// Viewer opens an image's storage location in an external program
type Viewer struct {
	command string   // configured viewer command, empty for system default
	args    []string // additional arguments for the viewer
	goos    string
	logger  *slog.Logger
}

// NewViewer creates a Viewer for the current platform
func NewViewer(cfg ViewerConfig, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewer{
		command: cfg.Command,
		args:    cfg.Args,
		goos:    runtime.GOOS,
		logger:  logger,
	}
}

// Open launches the viewer on location without waiting for it to exit
func (v *Viewer) Open(location string) error {
	if strings.TrimSpace(location) == "" {
		return fmt.Errorf("image has no storage location")
	}

	name, args := v.commandLine(location)
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("viewer %q not found: %w", name, err)
	}

	v.logger.Info("opening image", "command", name, "args", args)
	return exec.Command(name, args...).Start()
}

// commandLine builds the argv for location, location always last
func (v *Viewer) commandLine(location string) (string, []string) {
	if v.command != "" {
		args := append(append([]string{}, v.args...), location)
		return v.command, args
	}

	// System default handler
	switch v.goos {
	case "darwin":
		return "open", []string{location}
	case "windows":
		return "cmd", []string{"/c", "start", "", location}
	default:
		return "xdg-open", []string{location}
	}
}
