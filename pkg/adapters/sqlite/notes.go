package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/notepad/pkg/core"
)

// Create inserts a new row under a fresh UUID.
func (r *Repository) Create(ctx context.Context, f core.Fields) (string, error) {
	id := uuid.NewString()
	now := r.clock().UnixNano()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notes (id, title, body, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, f.Title, f.Body, now, now)
	if err != nil {
		return "", fmt.Errorf("insert note: %w", err)
	}

	r.logger.Debug("note created", "id", id)
	r.publish(core.NewEvent(core.EventCreate, id))
	return id, nil
}

// Get reads a single row.
func (r *Repository) Get(ctx context.Context, id string) (core.Note, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, body, created_at, modified_at
		FROM notes WHERE id = ?
	`, id)

	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Note{}, core.NotFound(id)
	}
	if err != nil {
		return core.Note{}, fmt.Errorf("get note %s: %w", id, err)
	}
	return n, nil
}

// Update applies a partial update in a single statement.
// modified_at is clamped so it never decreases and never precedes created_at.
func (r *Repository) Update(ctx context.Context, id string, p core.Patch) error {
	modified := p.ModifiedAt
	if modified.IsZero() {
		modified = r.clock()
	}

	var title, body, created any
	if p.Title != nil {
		title = *p.Title
	}
	if p.Body != nil {
		body = *p.Body
	}
	if p.CreatedAt != nil {
		created = p.CreatedAt.UnixNano()
	}

	// Right-hand expressions see the old row values.
	res, err := r.db.ExecContext(ctx, `
		UPDATE notes SET
			title       = COALESCE(?, title),
			body        = COALESCE(?, body),
			created_at  = COALESCE(?, created_at),
			modified_at = MAX(?, modified_at, COALESCE(?, created_at))
		WHERE id = ?
	`, title, body, created, modified.UnixNano(), created, id)
	if err != nil {
		return fmt.Errorf("update note %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update note %s: %w", id, err)
	}
	if affected == 0 {
		return core.NotFound(id)
	}

	r.logger.Debug("note updated", "id", id)
	r.publish(core.NewEvent(core.EventModify, id))
	return nil
}

// Delete removes a row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	if affected == 0 {
		return core.NotFound(id)
	}

	r.logger.Debug("note deleted", "id", id)
	r.publish(core.NewEvent(core.EventDelete, id))
	return nil
}

// Query matches title OR body with LIKE over fold()ed text, so the filter is
// literal (wildcards escaped) and case-insensitive beyond ASCII. Rows are
// materialized before returning: holding a cursor open would pin the only
// connection.
func (r *Repository) Query(ctx context.Context, q core.Query) (core.ResultHandle, error) {
	var (
		where string
		args  []any
	)
	if q.Predicate != nil && q.Predicate.Contains != "" {
		pattern := "%" + escapeLike(fold(q.Predicate.Contains)) + "%"
		where = `WHERE fold(title) LIKE ? ESCAPE '\' OR fold(body) LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}

	order := "ORDER BY modified_at DESC, id"
	if q.Order == core.OrderTitleAsc {
		order = "ORDER BY title COLLATE FOLD, id"
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, body, created_at, modified_at FROM notes "+where+" "+order, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []core.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	r.openHandles.Add(1)
	return core.NewSnapshot(notes, func() {
		r.openHandles.Add(-1)
	}), nil
}

// OpenHandles returns the number of query handles not yet released.
func (r *Repository) OpenHandles() int {
	return int(r.openHandles.Load())
}

// escapeLike escapes LIKE metacharacters using '\' as the escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (core.Note, error) {
	var (
		n                 core.Note
		created, modified int64
	)
	if err := s.Scan(&n.ID, &n.Title, &n.Body, &created, &modified); err != nil {
		return core.Note{}, err
	}
	n.CreatedAt = time.Unix(0, created)
	n.ModifiedAt = time.Unix(0, modified)
	return n, nil
}
