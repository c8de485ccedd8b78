// Package core holds the domain model of notepad: the Note entity, the store
// contract consumed by the editors and the live query, and the Service that
// wraps a concrete store.
package core

import (
	"slices"
	"strings"
	"time"
)

// Note is the sole persisted entity.
// ID is assigned by the store at creation and never changes afterwards.
type Note struct {
	ID         string    `json:"id" yaml:"-"`
	Title      string    `json:"title" yaml:"title"`
	Body       string    `json:"body" yaml:"-"`
	CreatedAt  time.Time `json:"created_at" yaml:"created"`
	ModifiedAt time.Time `json:"modified_at" yaml:"modified"`
}

// Fields is the initial content of a record passed to Create.
type Fields struct {
	Title string
	Body  string
}

// Patch is a partial update. Nil pointers leave the stored field untouched.
// A zero ModifiedAt means "now" according to the store clock.
type Patch struct {
	Title      *string
	Body       *string
	CreatedAt  *time.Time
	ModifiedAt time.Time
}

// Apply returns n with the patch applied.
// ModifiedAt never moves backwards and never precedes CreatedAt.
func (p Patch) Apply(n Note, now time.Time) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
	if p.CreatedAt != nil {
		n.CreatedAt = *p.CreatedAt
	}
	modified := p.ModifiedAt
	if modified.IsZero() {
		modified = now
	}
	if modified.Before(n.ModifiedAt) {
		modified = n.ModifiedAt
	}
	if modified.Before(n.CreatedAt) {
		modified = n.CreatedAt
	}
	n.ModifiedAt = modified
	return n
}

// Order selects the sort order of a query.
type Order int

const (
	// OrderModifiedDesc lists the most recently modified notes first.
	OrderModifiedDesc Order = iota
	// OrderTitleAsc lists notes alphabetically by title.
	OrderTitleAsc
)

// Predicate restricts a query to notes whose title or body contains the
// given text. Matching is literal and case-insensitive: adapters must escape
// any wildcard syntax of their query language.
type Predicate struct {
	Contains string
}

// Contains builds a predicate for text. Empty text yields nil (match all).
func Contains(text string) *Predicate {
	if text == "" {
		return nil
	}
	return &Predicate{Contains: text}
}

// Match reports whether n satisfies the predicate. A nil predicate matches everything.
func (p *Predicate) Match(n Note) bool {
	if p == nil || p.Contains == "" {
		return true
	}
	needle := strings.ToLower(p.Contains)
	return strings.Contains(strings.ToLower(n.Title), needle) ||
		strings.Contains(strings.ToLower(n.Body), needle)
}

// Query describes a result set.
type Query struct {
	Predicate *Predicate
	Order     Order
}

// SortNotes orders notes in place. Ties are broken by ID for stable output.
func SortNotes(notes []Note, order Order) {
	slices.SortStableFunc(notes, func(a, b Note) int {
		switch order {
		case OrderTitleAsc:
			if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
				return c
			}
		default:
			if c := b.ModifiedAt.Compare(a.ModifiedAt); c != 0 {
				return c
			}
		}
		return strings.Compare(a.ID, b.ID)
	})
}
