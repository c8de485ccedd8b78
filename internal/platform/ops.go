package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aretw0/notepad/pkg/adapters/fs"
	"github.com/aretw0/notepad/pkg/adapters/sqlite"
	"github.com/aretw0/notepad/pkg/core"
)

// DatabaseFile is the SQLite database name inside the system directory.
const DatabaseFile = "notes.db"

// Init opens and initializes the store rooted at uri.
// For both adapters uri is the store root directory.
func Init(ctx context.Context, uri string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	// 1. Check for injected repository
	if o.repository != nil {
		return o.repository, nil
	}

	// 2. Build the adapter
	var (
		repo core.Repository
		err  error
	)
	switch o.adapter {
	case "fs":
		repo = initFS(uri, o)
	case "sqlite":
		repo, err = initSQLite(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	// 3. Run Initialization
	if err := repo.Initialize(ctx); err != nil {
		if c, ok := repo.(interface{ Close() error }); ok {
			_ = c.Close()
		}
		return nil, err
	}

	if o.logger != nil {
		o.logger.Debug("store ready", "adapter", o.adapter, "path", uri)
	}
	return repo, nil
}

func initFS(path string, o *options) core.Repository {
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	clock, _ := o.config["clock"].(func() time.Time)

	return fs.NewRepository(fs.Config{
		Path:         path,
		MustExist:    mustExist || readOnly,
		ReadOnly:     readOnly,
		Logger:       o.logger,
		SystemDir:    o.systemDir(),
		ErrorHandler: errorHandler,
		Clock:        clock,
	})
}

func initSQLite(root string, o *options) (core.Repository, error) {
	if readOnly, _ := o.config["read_only"].(bool); readOnly {
		return nil, fmt.Errorf("sqlite adapter does not support read-only mode")
	}
	clock, _ := o.config["clock"].(func() time.Time)

	dir := filepath.Join(root, o.systemDir())
	if mustExist, _ := o.config["must_exist"].(bool); !mustExist {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
	}

	repo, err := sqlite.Open(sqlite.Config{
		Path:   filepath.Join(dir, DatabaseFile),
		Logger: o.logger,
		Clock:  clock,
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}
