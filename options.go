package notepad

import (
	"log/slog"
	"time"

	"github.com/aretw0/notepad/internal/platform"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/editor"
	"github.com/aretw0/notepad/pkg/notify"
	"github.com/aretw0/notepad/pkg/prefs"
)

// --- Configuration ---

type config struct {
	store        []platform.Option
	logger       *slog.Logger
	systemDir    string
	presenter    notify.Presenter
	errorHandler func(error)
	closeTimeout time.Duration
	clock        func() time.Time
	prefs        *prefs.Preferences
}

func defaultConfig() *config {
	return &config{
		logger:       slog.New(slog.DiscardHandler),
		systemDir:    platform.DefaultSystemDir,
		closeTimeout: editor.DefaultCloseTimeout,
		clock:        time.Now,
	}
}

func (c *config) storeOptions() []platform.Option {
	opts := []platform.Option{
		platform.WithLogger(c.logger),
		platform.WithSystemDir(c.systemDir),
		platform.WithClock(c.clock),
	}
	if c.errorHandler != nil {
		opts = append(opts, platform.WithWatcherErrorHandler(c.errorHandler))
	}
	return append(opts, c.store...)
}

// Option configures an App.
type Option func(*config)

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
func WithAdapter(name string) Option {
	return func(c *config) {
		c.store = append(c.store, platform.WithAdapter(name))
	}
}

// WithRepository injects a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return func(c *config) {
		c.store = append(c.store, platform.WithRepository(repo))
	}
}

// WithSystemDir sets the hidden directory name (default ".notepad").
func WithSystemDir(name string) Option {
	return func(c *config) {
		c.systemDir = name
	}
}

// WithMustExist requires the store directory to exist already.
func WithMustExist(must bool) Option {
	return func(c *config) {
		c.store = append(c.store, platform.WithMustExist(must))
	}
}

// WithReadOnly opens the store read-only.
func WithReadOnly(enabled bool) Option {
	return func(c *config) {
		c.store = append(c.store, platform.WithReadOnly(enabled))
	}
}

// WithEventBuffer sets the size of the event broker buffer.
func WithEventBuffer(size int) Option {
	return func(c *config) {
		c.store = append(c.store, platform.WithEventBuffer(size))
	}
}

// WithPresenter sets where change alerts are shown.
func WithPresenter(p notify.Presenter) Option {
	return func(c *config) {
		c.presenter = p
	}
}

// WithErrorHandler receives background failures: suspended saves, list
// refreshes, watcher errors and alerts.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) {
		c.errorHandler = fn
	}
}

// WithCloseTimeout bounds how long closing an editor waits for pending writes.
func WithCloseTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.closeTimeout = d
		}
	}
}

// WithClock overrides the clock used for note timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithPreferences injects preferences instead of reading the preferences
// file. Changes are then kept in memory only.
func WithPreferences(p prefs.Preferences) Option {
	return func(c *config) {
		c.prefs = &p
	}
}
