// Package platform wires a store adapter from functional options.
package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/notepad/pkg/core"
)

// DefaultSystemDir is the hidden directory holding preferences and the
// SQLite database.
const DefaultSystemDir = ".notepad"

// options holds the internal configuration for a notepad store.
type options struct {
	repository core.Repository
	logger     *slog.Logger
	adapter    string
	config     map[string]interface{}
}

// Option defines a functional option for configuring the store.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter: "fs",
		config:  make(map[string]interface{}),
	}
}

func (o *options) systemDir() string {
	if dir, _ := o.config["system_dir"].(string); dir != "" {
		return dir
	}
	return DefaultSystemDir
}

// WithLogger sets the logger for the store and the service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a custom storage adapter (e.g. a fake in tests).
// If provided, adapter selection is skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir sets the hidden directory name. Defaults to ".notepad".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithMustExist requires the store directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithReadOnly opens the store read-only. Writes fail with
// core.ErrPersistenceUnavailable wrapping core.ErrReadOnly. Only the fs
// adapter supports it.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures,
// which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithEventBuffer sets the size of the service's event broker buffer.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithClock overrides the store clock used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.config["clock"] = clock
	}
}
