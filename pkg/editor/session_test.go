package editor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notepad/internal/testutil"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/editor"
)

type fixture struct {
	store   *testutil.Store
	clock   *testutil.StepClock
	service *core.Service

	mu     sync.Mutex
	errors []error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := testutil.NewStepClock()
	store := testutil.NewStore(clock.Now)
	return &fixture{store: store, clock: clock, service: core.NewService(store)}
}

func (f *fixture) options() editor.Options {
	return editor.Options{
		Clock: f.clock.Now,
		ErrorHandler: func(err error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.errors = append(f.errors, err)
		},
	}
}

func (f *fixture) reported() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.errors...)
}

func (f *fixture) open(t *testing.T, req editor.Request) *editor.Session {
	t.Helper()
	s, err := editor.Open(context.Background(), f.service, req, f.options())
	require.NoError(t, err)
	return s
}

func (f *fixture) get(t *testing.T, id string) core.Note {
	t.Helper()
	n, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	return n
}

func ptr(s string) *string { return &s }

func TestOpenNew_AbandonedEmptyNoteLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, editor.Request{Mode: editor.OpenNew})
	assert.Equal(t, editor.StateInsert, s.State())
	assert.Equal(t, 1, f.store.Len(), "record is created eagerly")

	require.NoError(t, s.Close(context.Background()))

	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, editor.StateTerminated, s.State())
	assert.Equal(t, editor.ResultCanceled, s.Result())
}

func TestOpenNew_CreateFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext(testutil.OpCreate, 1)

	s, err := editor.Open(context.Background(), f.service, editor.Request{Mode: editor.OpenNew}, f.options())
	assert.Nil(t, s)
	assert.ErrorIs(t, err, core.ErrPersistenceUnavailable)
}

func TestOpenEdit_Missing(t *testing.T) {
	f := newFixture(t)
	_, err := editor.Open(context.Background(), f.service, editor.Request{Mode: editor.OpenEdit, ID: "nope"}, f.options())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSuspend_InsertDerivesTitleAndBecomesEdit(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, editor.Request{Mode: editor.OpenNew})
	created := f.get(t, s.ID()).CreatedAt

	require.NoError(t, s.SetFields(nil, ptr("Buy milk and eggs today please, and bread")))
	require.NoError(t, s.Suspend(false))
	require.NoError(t, s.Flush(context.Background()))

	n := f.get(t, s.ID())
	assert.Equal(t, "Buy milk and eggs today", n.Title)
	assert.Equal(t, "Buy milk and eggs today please, and bread", n.Body)
	assert.True(t, n.CreatedAt.After(created), "creation time refreshed on first save")
	assert.Equal(t, editor.StateEdit, s.State())
	assert.Equal(t, "Buy milk and eggs today", s.Title())
}

func TestSuspend_EditKeepsCreationTime(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	before := f.get(t, id)
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})

	require.NoError(t, s.SetFields(ptr("  Renamed  "), ptr("C")))
	require.NoError(t, s.Suspend(true))
	require.NoError(t, s.Flush(context.Background()))

	n := f.get(t, id)
	assert.Equal(t, "Renamed", n.Title, "title is trimmed")
	assert.Equal(t, "C", n.Body)
	assert.True(t, n.CreatedAt.Equal(before.CreatedAt))
	assert.True(t, n.ModifiedAt.After(before.ModifiedAt))
	assert.Equal(t, editor.StateEdit, s.State(), "finishing an EDIT session saves, it does not discard")
}

func TestSuspend_EmptyTitleIsNotWritten(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "Keep me", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})

	require.NoError(t, s.SetFields(ptr("   "), ptr("new body")))
	require.NoError(t, s.Suspend(false))
	require.NoError(t, s.Flush(context.Background()))

	n := f.get(t, id)
	assert.Equal(t, "Keep me", n.Title)
	assert.Equal(t, "new body", n.Body)
}

func TestRevert_EditRestoresSnapshotBody(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})

	require.NoError(t, s.SetFields(nil, ptr("C")))
	require.NoError(t, s.Suspend(false))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, "C", f.get(t, id).Body)

	require.NoError(t, s.Revert(context.Background()))

	assert.Equal(t, "B", s.Body())
	assert.Equal(t, "A", s.Title())
	assert.Equal(t, editor.StateEdit, s.State())
	n := f.get(t, id)
	assert.Equal(t, "B", n.Body)
	assert.Equal(t, "A", n.Title)
}

func TestRevert_KeepsSavedTitle(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})

	require.NoError(t, s.SetFields(ptr("X"), ptr("C")))
	require.NoError(t, s.Suspend(false))
	require.NoError(t, s.Revert(context.Background()))

	assert.Equal(t, "X", s.Title(), "revert restores the body only")
	assert.Equal(t, "B", s.Body())
}

func TestRevert_InsertDeletes(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, editor.Request{Mode: editor.OpenNew})
	require.NoError(t, s.SetFields(nil, ptr("draft")))

	require.NoError(t, s.Revert(context.Background()))

	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, editor.StateTerminated, s.State())
	assert.Equal(t, editor.ResultCanceled, s.Result())
}

func TestDelete_MissingRecordTerminates(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})
	require.NoError(t, f.store.Delete(context.Background(), id))

	err := s.Delete(context.Background())

	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, editor.StateTerminated, s.State())
	assert.ErrorIs(t, s.Suspend(false), core.ErrInvalidState)
}

func TestDelete_FailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})
	f.store.FailNext(testutil.OpDelete, 1)

	err := s.Delete(context.Background())
	assert.ErrorIs(t, err, core.ErrPersistenceUnavailable)
	assert.Equal(t, editor.StateEdit, s.State())

	require.NoError(t, s.Delete(context.Background()))
	assert.False(t, f.store.Has(id))
	assert.Equal(t, editor.StateTerminated, s.State())
}

func TestSave_Terminates(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, editor.Request{Mode: editor.OpenNew})
	require.NoError(t, s.SetFields(ptr("Title"), ptr("Body")))

	require.NoError(t, s.Save(context.Background()))

	assert.Equal(t, editor.StateTerminated, s.State())
	assert.Equal(t, editor.ResultOK, s.Result())
	n := f.get(t, s.ID())
	assert.Equal(t, "Title", n.Title)
	assert.Equal(t, "Body", n.Body)
}

func TestSave_FailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})
	f.store.FailNext(testutil.OpUpdate, 1)

	err := s.Save(context.Background())
	assert.ErrorIs(t, err, core.ErrPersistenceUnavailable)
	assert.Equal(t, editor.StateEdit, s.State())
}

func TestTerminatedSessionRejectsCommands(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, editor.Request{Mode: editor.OpenNew})
	require.NoError(t, s.SetFields(nil, ptr("x")))
	require.NoError(t, s.Save(context.Background()))

	ctx := context.Background()
	assert.ErrorIs(t, s.SetFields(nil, ptr("y")), core.ErrInvalidState)
	assert.ErrorIs(t, s.Suspend(false), core.ErrInvalidState)
	assert.ErrorIs(t, s.Save(ctx), core.ErrInvalidState)
	assert.ErrorIs(t, s.Revert(ctx), core.ErrInvalidState)
	assert.ErrorIs(t, s.Delete(ctx), core.ErrInvalidState)
	assert.ErrorIs(t, s.Resume(ctx), core.ErrInvalidState)
	assert.NoError(t, s.Close(ctx), "close of a terminated session only drains")
}

func TestSuspend_RetriesOnceOnUnavailable(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})
	f.store.FailNext(testutil.OpUpdate, 1)

	require.NoError(t, s.SetFields(nil, ptr("C")))
	require.NoError(t, s.Suspend(false))
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, "C", f.get(t, id).Body)
	assert.Empty(t, f.reported())
	assert.Equal(t, 2, f.store.CountCalls(testutil.OpUpdate))
}

func TestSuspend_ReportsPersistentFailure(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})
	f.store.FailNext(testutil.OpUpdate, 2)

	require.NoError(t, s.SetFields(nil, ptr("C")))
	require.NoError(t, s.Suspend(false))
	require.NoError(t, s.Flush(context.Background()))

	errs := f.reported()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], core.ErrPersistenceUnavailable)
	assert.Equal(t, "B", f.get(t, id).Body)
	assert.Equal(t, "C", s.Body(), "in-memory fields stay authoritative")
	assert.Equal(t, editor.StateEdit, s.State())
}

func TestSuspend_VanishedRecordTerminates(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})
	require.NoError(t, f.store.Delete(context.Background(), id))

	require.NoError(t, s.Suspend(false))
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, editor.StateTerminated, s.State())
	require.Len(t, f.reported(), 1)
	assert.ErrorIs(t, f.reported()[0], core.ErrNotFound)
}

func TestSuspend_WritesInCallOrder(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})

	for _, body := range []string{"1", "2", "3"} {
		require.NoError(t, s.SetFields(nil, ptr(body)))
		require.NoError(t, s.Suspend(false))
	}
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, "3", f.get(t, id).Body)
}

func TestResume(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})

	// Changed elsewhere, no local edits: follow the record.
	require.NoError(t, f.store.Update(context.Background(), id, core.Patch{Body: ptr("remote")}))
	require.NoError(t, s.Resume(context.Background()))
	assert.Equal(t, "remote", s.Body())
	assert.Equal(t, "B", s.Snapshot(), "snapshot is never replaced")

	// Local edits win over the record.
	require.NoError(t, s.SetFields(nil, ptr("local")))
	require.NoError(t, f.store.Update(context.Background(), id, core.Patch{Body: ptr("remote 2")}))
	require.NoError(t, s.Resume(context.Background()))
	assert.Equal(t, "local", s.Body())
}

func TestResume_VanishedRecord(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})
	require.NoError(t, f.store.Delete(context.Background(), id))

	assert.ErrorIs(t, s.Resume(context.Background()), core.ErrNotFound)
	assert.Equal(t, editor.StateTerminated, s.State())
}

func TestPaste_FromNote(t *testing.T) {
	f := newFixture(t)
	src := f.store.Seed(core.Note{Title: "Source", Body: "copied body"})

	s := f.open(t, editor.Request{Mode: editor.OpenPaste, Clip: editor.ClipOf(f.get(t, src))})

	assert.NotEqual(t, src, s.ID())
	assert.Equal(t, editor.StateEdit, s.State())
	assert.Equal(t, "copied body", s.Snapshot())
	n := f.get(t, s.ID())
	assert.Equal(t, "Source", n.Title)
	assert.Equal(t, "copied body", n.Body)
}

func TestPaste_FromText(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, editor.Request{Mode: editor.OpenPaste, Clip: editor.TextClip("pasted words")})

	n := f.get(t, s.ID())
	assert.Equal(t, "pasted words", n.Title, "title derived from the pasted body")
	assert.Equal(t, "pasted words", n.Body)
	assert.Equal(t, "pasted words", s.Snapshot())
}

func TestPaste_MissingNoteFallsBackToText(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, editor.Request{Mode: editor.OpenPaste, Clip: editor.Clip{NoteID: "gone", Text: "fallback"}})
	assert.Equal(t, "fallback", f.get(t, s.ID()).Body)
}

func TestPaste_WriteFailureRemovesRecord(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext(testutil.OpUpdate, 1)

	s, err := editor.Open(context.Background(), f.service,
		editor.Request{Mode: editor.OpenPaste, Clip: editor.TextClip("x")}, f.options())

	assert.Nil(t, s)
	assert.ErrorIs(t, err, core.ErrPersistenceUnavailable)
	assert.Equal(t, 0, f.store.Len())
}

func TestHeadingAndCanRevert(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, editor.Request{Mode: editor.OpenNew})
	assert.Equal(t, "New note", s.Heading())
	assert.False(t, s.CanRevert())

	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	e := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})
	assert.Equal(t, "Edit: A", e.Heading())
	assert.False(t, e.CanRevert())

	require.NoError(t, e.SetFields(nil, ptr("changed")))
	assert.True(t, e.CanRevert())
}

// slowStore blocks updates until release is closed.
type slowStore struct {
	editor.Store
	release chan struct{}
}

func (s *slowStore) Update(ctx context.Context, id string, p core.Patch) error {
	<-s.release
	return s.Store.Update(ctx, id, p)
}

func TestClose_Timeout(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	slow := &slowStore{Store: f.service, release: make(chan struct{})}

	opts := f.options()
	opts.CloseTimeout = 20 * time.Millisecond
	s, err := editor.Open(context.Background(), slow, editor.Request{Mode: editor.OpenEdit, ID: id}, opts)
	require.NoError(t, err)
	require.NoError(t, s.SetFields(nil, ptr("late")))

	err = s.Close(context.Background())
	assert.True(t, errors.Is(err, editor.ErrCloseTimeout))

	close(slow.release)
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, "late", f.get(t, id).Body, "the pending write still lands")
}

func TestSave_CallerCancelDoesNotDropWrite(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	slow := &slowStore{Store: f.service, release: make(chan struct{})}
	s, err := editor.Open(context.Background(), slow, editor.Request{Mode: editor.OpenEdit, ID: id}, f.options())
	require.NoError(t, err)
	require.NoError(t, s.SetFields(nil, ptr("kept")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx), context.Canceled)

	close(slow.release)
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, "kept", f.get(t, id).Body)
}

func TestClose_RejectsLaterCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	s := f.open(t, editor.Request{Mode: editor.OpenEdit, ID: id})

	require.NoError(t, s.SetFields(nil, ptr("C")))
	require.NoError(t, s.Close(ctx))

	assert.Equal(t, editor.StateTerminated, s.State())
	assert.Equal(t, editor.ResultOK, s.Result())
	assert.Equal(t, "C", f.get(t, id).Body)
	updates := f.store.CountCalls(testutil.OpUpdate)

	assert.ErrorIs(t, s.SetFields(nil, ptr("after close")), core.ErrInvalidState)
	assert.ErrorIs(t, s.Suspend(false), core.ErrInvalidState)
	assert.ErrorIs(t, s.Save(ctx), core.ErrInvalidState)
	assert.ErrorIs(t, s.Revert(ctx), core.ErrInvalidState)
	assert.ErrorIs(t, s.Resume(ctx), core.ErrInvalidState)
	assert.ErrorIs(t, s.Delete(ctx), core.ErrInvalidState)
	assert.False(t, s.CanRevert())

	require.NoError(t, s.Close(ctx), "closing again only drains")
	assert.Equal(t, updates, f.store.CountCalls(testutil.OpUpdate))
	assert.Equal(t, "C", f.get(t, id).Body)
	assert.True(t, f.store.Has(id))
}

func TestClose_RejectsCommandsWhileFinalWritePending(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})
	slow := &slowStore{Store: f.service, release: make(chan struct{})}

	opts := f.options()
	opts.CloseTimeout = 20 * time.Millisecond
	s, err := editor.Open(context.Background(), slow, editor.Request{Mode: editor.OpenEdit, ID: id}, opts)
	require.NoError(t, err)
	require.NoError(t, s.SetFields(nil, ptr("final")))

	assert.ErrorIs(t, s.Close(context.Background()), editor.ErrCloseTimeout)
	assert.ErrorIs(t, s.SetFields(nil, ptr("too late")), core.ErrInvalidState)

	close(slow.release)
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, editor.StateTerminated, s.State())
	assert.Equal(t, "final", f.get(t, id).Body)
}
