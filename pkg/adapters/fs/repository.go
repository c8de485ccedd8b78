// Package fs stores notes as Markdown files with a YAML frontmatter header,
// one file per note under <root>/notes.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/notepad/pkg/core"
)

const (
	// NotesDir is the directory, relative to the store root, holding note files.
	NotesDir = "notes"
	// Ext is the extension of note files.
	Ext = ".md"
)

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path         string
	MustExist    bool
	ReadOnly     bool
	Logger       *slog.Logger
	SystemDir    string // e.g. ".notepad"
	ErrorHandler func(error)
	Clock        func() time.Time
}

// Repository implements core.Repository on top of the filesystem.
type Repository struct {
	Path   string
	config Config
	logger *slog.Logger
	clock  func() time.Time
	cache  *cache

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	mu       sync.RWMutex
	watchers int

	openHandles atomic.Int64
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.SystemDir == "" {
		config.SystemDir = ".notepad"
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Repository{
		Path:   config.Path,
		config: config,
		logger: config.Logger,
		clock:  config.Clock,
		cache:  newCache(),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Initialize creates the store directories.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", r.Path)
		}
	}
	if r.config.ReadOnly {
		return nil
	}
	for _, dir := range []string{r.notesDir(), filepath.Join(r.Path, r.config.SystemDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Create writes a new note file under a fresh UUID.
func (r *Repository) Create(ctx context.Context, f core.Fields) (string, error) {
	if err := r.writable(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := r.clock()
	n := core.Note{
		ID:         uuid.NewString(),
		Title:      f.Title,
		Body:       f.Body,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	unlock := r.lock(n.ID)
	defer unlock()

	if err := r.write(n); err != nil {
		return "", err
	}
	r.logger.Debug("note created", "id", n.ID)
	return n.ID, nil
}

// Get reads a single note.
func (r *Repository) Get(ctx context.Context, id string) (core.Note, error) {
	if err := ctx.Err(); err != nil {
		return core.Note{}, err
	}
	path, ok := r.pathFor(id)
	if !ok {
		return core.Note{}, core.NotFound(id)
	}
	return r.read(id, path)
}

// Update applies a partial update under the per-record lock.
func (r *Repository) Update(ctx context.Context, id string, p core.Patch) error {
	if err := r.writable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path, ok := r.pathFor(id)
	if !ok {
		return core.NotFound(id)
	}

	unlock := r.lock(id)
	defer unlock()

	current, err := r.read(id, path)
	if err != nil {
		return err
	}
	updated := p.Apply(current, r.clock())
	if err := r.write(updated); err != nil {
		return err
	}
	r.logger.Debug("note updated", "id", id)
	return nil
}

// Delete removes the note file.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.writable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path, ok := r.pathFor(id)
	if !ok {
		return core.NotFound(id)
	}

	unlock := r.lock(id)
	defer unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return core.NotFound(id)
		}
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	r.cache.Delete(id)
	r.logger.Debug("note deleted", "id", id)
	return nil
}

// Query scans the notes directory and returns a materialized snapshot.
func (r *Repository) Query(ctx context.Context, q core.Query) (core.ResultHandle, error) {
	entries, err := os.ReadDir(r.notesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return r.snapshot(nil), nil
		}
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	var notes []core.Note
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, ok := idFromName(entry.Name())
		if entry.IsDir() || !ok {
			continue
		}
		seen[id] = true

		n, err := r.read(id, filepath.Join(r.notesDir(), entry.Name()))
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue // removed mid-scan
			}
			// One corrupt file must not hide the rest of the list.
			r.logger.Warn("skipping unreadable note", "id", id, "error", err)
			r.handleError(err)
			continue
		}
		if q.Predicate.Match(n) {
			notes = append(notes, n)
		}
	}
	r.cache.Prune(seen)

	core.SortNotes(notes, q.Order)
	return r.snapshot(notes), nil
}

func (r *Repository) snapshot(notes []core.Note) *core.Snapshot {
	r.openHandles.Add(1)
	return core.NewSnapshot(notes, func() {
		r.openHandles.Add(-1)
	})
}

// OpenHandles returns the number of query handles not yet released.
func (r *Repository) OpenHandles() int {
	return int(r.openHandles.Load())
}

func (r *Repository) read(id, path string) (core.Note, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Note{}, core.NotFound(id)
		}
		return core.Note{}, fmt.Errorf("failed to stat note %s: %w", id, err)
	}
	if n, ok := r.cache.Get(id, info.ModTime(), info.Size()); ok {
		return n, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Note{}, core.NotFound(id)
		}
		return core.Note{}, fmt.Errorf("failed to read note %s: %w", id, err)
	}
	n, hasHeader, err := unmarshalNote(data)
	if err != nil {
		return core.Note{}, fmt.Errorf("failed to parse note %s: %w", id, err)
	}
	if !hasHeader {
		// Hand-written file: the file itself carries the timestamps.
		n.CreatedAt = info.ModTime()
		n.ModifiedAt = info.ModTime()
	}
	n.ID = id

	r.cache.Set(id, n, info.ModTime(), info.Size())
	return n, nil
}

func (r *Repository) write(n core.Note) error {
	data, err := marshalNote(n)
	if err != nil {
		return fmt.Errorf("failed to serialize note %s: %w", n.ID, err)
	}
	path := filepath.Join(r.notesDir(), n.ID+Ext)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return err
	}
	return nil
}

func (r *Repository) writable() error {
	if r.config.ReadOnly {
		return fmt.Errorf("%w: %w", core.ErrPersistenceUnavailable, core.ErrReadOnly)
	}
	return nil
}

// lock serializes writes to a single record.
func (r *Repository) lock(id string) func() {
	r.locksMu.Lock()
	m, ok := r.locks[id]
	if !ok {
		m = &sync.Mutex{}
		r.locks[id] = m
	}
	r.locksMu.Unlock()

	m.Lock()
	return m.Unlock
}

func (r *Repository) handleError(err error) {
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
	}
}

func (r *Repository) notesDir() string {
	return filepath.Join(r.Path, NotesDir)
}

// pathFor maps an ID to its file. IDs that could escape the notes directory
// are rejected.
func (r *Repository) pathFor(id string) (string, bool) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", false
	}
	return filepath.Join(r.notesDir(), id+Ext), true
}

// idFromName extracts the note ID from a file name, skipping temp files.
func idFromName(name string) (string, bool) {
	if strings.HasPrefix(name, TempFilePrefix) || !strings.HasSuffix(name, Ext) {
		return "", false
	}
	id := strings.TrimSuffix(name, Ext)
	return id, id != ""
}
