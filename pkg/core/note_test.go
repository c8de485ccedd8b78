package core_test

import (
	"testing"
	"time"

	"github.com/aretw0/notepad/pkg/core"
)

func TestPatchApply_ClampsModifiedAt(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	n := core.Note{Title: "t", Body: "b", CreatedAt: base, ModifiedAt: base.Add(time.Hour)}

	got := core.Patch{ModifiedAt: base.Add(time.Minute)}.Apply(n, base)
	if !got.ModifiedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("modified_at went backwards: %v", got.ModifiedAt)
	}

	created := base.Add(2 * time.Hour)
	got = core.Patch{CreatedAt: &created}.Apply(n, base)
	if got.ModifiedAt.Before(got.CreatedAt) {
		t.Errorf("modified_at %v precedes created_at %v", got.ModifiedAt, got.CreatedAt)
	}

	got = core.Patch{}.Apply(n, base.Add(3*time.Hour))
	if !got.ModifiedAt.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("zero ModifiedAt should mean now, got %v", got.ModifiedAt)
	}
	if got.Title != "t" || got.Body != "b" {
		t.Errorf("empty patch changed fields: %+v", got)
	}
}

func TestPredicate(t *testing.T) {
	if core.Contains("") != nil {
		t.Error("empty text should match everything")
	}
	var nilPred *core.Predicate
	if !nilPred.Match(core.Note{}) {
		t.Error("nil predicate should match")
	}

	p := core.Contains("CaT")
	cases := map[core.Note]bool{
		{Title: "cats"}:          true,
		{Body: "a CAT sat"}:      true,
		{Title: "dog", Body: ""}: false,
	}
	for n, want := range cases {
		if got := p.Match(n); got != want {
			t.Errorf("Match(%+v) = %v, want %v", n, got, want)
		}
	}
}

func TestSnapshot_ReleaseOnce(t *testing.T) {
	calls := 0
	s := core.NewSnapshot([]core.Note{{ID: "a"}}, func() { calls++ })

	if s.Len() != 1 {
		t.Fatalf("Len = %d", s.Len())
	}
	if err := s.Release(); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := s.Release(); err != core.ErrReleased {
		t.Errorf("second release = %v, want ErrReleased", err)
	}
	if calls != 1 {
		t.Errorf("onRelease ran %d times", calls)
	}
	for range s.All() {
		t.Error("released snapshot yielded a row")
	}
}
