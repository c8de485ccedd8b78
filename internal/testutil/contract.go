package testutil

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notepad/pkg/core"
)

// Collect drains a result handle into a slice.
func Collect(h core.ResultHandle) []core.Note {
	return slices.Collect(h.All())
}

// Titles returns the titles of notes in order.
func Titles(notes []core.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Title)
	}
	return out
}

// RunRepositoryContract exercises the behaviour every core.Repository must provide.
// open must return a fresh, initialized repository.
func RunRepositoryContract(t *testing.T, open func(t *testing.T) core.Repository) {
	t.Helper()
	base := time.Now().Add(24 * time.Hour).Truncate(time.Second)

	t.Run("CreateThenGet", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()

		id, err := repo.Create(ctx, core.Fields{Title: "first", Body: "hello"})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		n, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, n.ID)
		assert.Equal(t, "first", n.Title)
		assert.Equal(t, "hello", n.Body)
		assert.False(t, n.CreatedAt.IsZero())
		assert.False(t, n.ModifiedAt.Before(n.CreatedAt))
	})

	t.Run("CreateEmptyRecord", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()

		a, err := repo.Create(ctx, core.Fields{})
		require.NoError(t, err)
		b, err := repo.Create(ctx, core.Fields{})
		require.NoError(t, err)
		assert.NotEqual(t, a, b, "ids must be unique")

		n, err := repo.Get(ctx, a)
		require.NoError(t, err)
		assert.Empty(t, n.Title)
		assert.Empty(t, n.Body)
	})

	t.Run("PartialUpdate", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()

		id, err := repo.Create(ctx, core.Fields{Title: "t", Body: "b"})
		require.NoError(t, err)
		before, err := repo.Get(ctx, id)
		require.NoError(t, err)

		title := "renamed"
		require.NoError(t, repo.Update(ctx, id, core.Patch{Title: &title, ModifiedAt: before.ModifiedAt.Add(time.Minute)}))

		after, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "renamed", after.Title)
		assert.Equal(t, "b", after.Body, "body must be untouched")
		assert.True(t, after.ModifiedAt.After(before.ModifiedAt))
		assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
	})

	t.Run("ModifiedAtNeverDecreases", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()

		id, err := repo.Create(ctx, core.Fields{Body: "x"})
		require.NoError(t, err)
		body := "y"
		later := time.Now().Add(time.Hour)
		require.NoError(t, repo.Update(ctx, id, core.Patch{Body: &body, ModifiedAt: later}))

		body = "z"
		require.NoError(t, repo.Update(ctx, id, core.Patch{Body: &body, ModifiedAt: later.Add(-30 * time.Minute)}))

		n, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "z", n.Body)
		assert.True(t, n.ModifiedAt.Equal(later), "modified_at went backwards: %v", n.ModifiedAt)
	})

	t.Run("CreatedAtRefresh", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()

		id, err := repo.Create(ctx, core.Fields{})
		require.NoError(t, err)
		stamp := time.Now().Add(2 * time.Hour)
		body := "saved"
		require.NoError(t, repo.Update(ctx, id, core.Patch{Body: &body, CreatedAt: &stamp, ModifiedAt: stamp}))

		n, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, n.CreatedAt.Equal(stamp))
		assert.False(t, n.ModifiedAt.Before(n.CreatedAt))
	})

	t.Run("DeleteIsTerminal", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()

		id, err := repo.Create(ctx, core.Fields{Body: "gone soon"})
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, id))

		_, err = repo.Get(ctx, id)
		assert.ErrorIs(t, err, core.ErrNotFound)

		body := "revived?"
		err = repo.Update(ctx, id, core.Patch{Body: &body})
		assert.ErrorIs(t, err, core.ErrNotFound)

		err = repo.Delete(ctx, id)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("GetMissing", func(t *testing.T) {
		repo := open(t)
		_, err := repo.Get(context.Background(), "does-not-exist")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("QueryOrderAndFilter", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()

		seed := []core.Fields{
			{Title: "Groceries", Body: "buy milk"},
			{Title: "Cat facts", Body: "they sleep a lot"},
			{Title: "Reading", Body: "a book about CATS"},
		}
		for i, f := range seed {
			id, err := repo.Create(ctx, f)
			require.NoError(t, err)
			require.NoError(t, repo.Update(ctx, id, core.Patch{ModifiedAt: base.Add(time.Duration(i) * time.Hour)}))
		}

		all, err := repo.Query(ctx, core.Query{})
		require.NoError(t, err)
		defer all.Release()
		assert.Equal(t, []string{"Reading", "Cat facts", "Groceries"}, Titles(Collect(all)))
		assert.Equal(t, 3, all.Len())

		cats, err := repo.Query(ctx, core.Query{Predicate: core.Contains("cAt")})
		require.NoError(t, err)
		defer cats.Release()
		assert.Equal(t, []string{"Reading", "Cat facts"}, Titles(Collect(cats)))

		accented, err := repo.Create(ctx, core.Fields{Title: "Été à Paris", Body: "ÜBER alles"})
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, accented, core.Patch{ModifiedAt: base.Add(-time.Hour)}))
		for _, filter := range []string{"été", "ÉTÉ", "über"} {
			h, err := repo.Query(ctx, core.Query{Predicate: core.Contains(filter)})
			require.NoError(t, err)
			assert.Equal(t, []string{"Été à Paris"}, Titles(Collect(h)), "filter %q", filter)
			require.NoError(t, h.Release())
		}

		byTitle, err := repo.Query(ctx, core.Query{Order: core.OrderTitleAsc})
		require.NoError(t, err)
		defer byTitle.Release()
		assert.Equal(t, []string{"Cat facts", "Groceries", "Reading", "Été à Paris"}, Titles(Collect(byTitle)))
	})

	t.Run("QueryTreatsWildcardsLiterally", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()

		for _, f := range []core.Fields{
			{Title: "progress", Body: "100% done"},
			{Title: "count", Body: "1000 done"},
			{Title: "snake_case", Body: ""},
			{Title: "snakeXcase", Body: ""},
			{Title: `back\slash`, Body: ""},
		} {
			_, err := repo.Create(ctx, f)
			require.NoError(t, err)
		}

		cases := map[string][]string{
			"0%":  {"progress"},
			"e_c": {"snake_case"},
			`k\s`: {`back\slash`},
			"%":   {"progress"},
			"_":   {"snake_case"},
			"zzz": nil,
		}
		for filter, want := range cases {
			h, err := repo.Query(ctx, core.Query{Predicate: core.Contains(filter), Order: core.OrderTitleAsc})
			require.NoError(t, err)
			got := Titles(Collect(h))
			require.NoError(t, h.Release())
			if want == nil {
				assert.Empty(t, got, "filter %q", filter)
				continue
			}
			assert.Equal(t, want, got, "filter %q", filter)
		}
	})

	t.Run("ReleaseExactlyOnce", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, core.Fields{Title: "a"})
		require.NoError(t, err)

		h, err := repo.Query(ctx, core.Query{})
		require.NoError(t, err)
		require.NoError(t, h.Release())
		assert.ErrorIs(t, h.Release(), core.ErrReleased)
		assert.Empty(t, Collect(h), "released handle must not yield rows")
	})
}
