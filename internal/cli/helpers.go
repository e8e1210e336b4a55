package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mmcdole/imgport/internal/adapter"
	"github.com/mmcdole/imgport/internal/adapter/gateway"
	"github.com/mmcdole/imgport/internal/exitcode"
	"github.com/mmcdole/imgport/internal/gallery"
	"github.com/mmcdole/imgport/internal/importjob"
	"github.com/mmcdole/imgport/internal/store"
	"golang.org/x/term"
)

// runtime is everything a command needs to talk to the import service
type runtime struct {
	cfg       *adapter.Config
	logger    *slog.Logger
	client    *gateway.Client
	store     *store.CatalogStore
	logCloser io.Closer
}

func loadConfig(app *AppContext) (*adapter.Config, error) {
	cfg, err := adapter.LoadConfig(app.Opts.ConfigPath)
	if err != nil {
		return nil, withExitCode(exitcode.InvalidConfig, err)
	}
	if app.Opts.ServerURL != "" {
		cfg.Server.URL = app.Opts.ServerURL
	}
	if app.Opts.LogFile != "" {
		cfg.Logging.File = app.Opts.LogFile
	}
	return cfg, nil
}

// openRuntime loads the configuration and opens the logger, the gateway
// client and the local cache. Callers must Close it.
func openRuntime(app *AppContext) (*runtime, error) {
	cfg, err := loadConfig(app)
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		fmt.Fprintln(app.IO.ErrOut, "WARN:", err)
		logger, logCloser = adapter.NullLogger(), io.NopCloser(nil)
	}
	slog.SetDefault(logger)

	st, err := store.NewCatalogStore(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		logger.Warn("cache unavailable, continuing without persistence", "error", err)
		if st, err = store.NewCatalogStore("", cfg.Server.URL); err != nil {
			logCloser.Close()
			return nil, err
		}
	}

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		client:    gateway.NewClient(cfg.Server.URL, cfg.Server.Timeout, logger),
		store:     st,
		logCloser: logCloser,
	}, nil
}

func (r *runtime) Close() error {
	return errors.Join(r.store.Close(), r.logCloser.Close())
}

func (r *runtime) galleryService() *gallery.Service {
	return gallery.NewService(r.client, r.store, r.cfg.Gallery.PerPage, r.logger)
}

func (r *runtime) newTracker(bus *importjob.Bus, opts ...importjob.Option) *importjob.Tracker {
	opts = append([]importjob.Option{importjob.WithLogger(r.logger)}, opts...)
	return importjob.NewTracker(r.client, bus,
		importjob.Config{
			Source:          r.cfg.Import.Source,
			MaxPollFailures: r.cfg.Import.MaxPollFailures,
		},
		opts...,
	)
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func parseImageID(arg string) (string, error) {
	id := strings.TrimSpace(arg)
	if id == "" {
		return "", withExitCode(exitcode.InvalidUsage, fmt.Errorf("image id must not be empty"))
	}
	return id, nil
}
