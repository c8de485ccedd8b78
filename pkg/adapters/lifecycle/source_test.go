package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notepad/pkg/adapters/lifecycle"
	"github.com/aretw0/notepad/pkg/core"
)

func TestSource_ForwardsSelectedTypes(t *testing.T) {
	events := make(chan core.Event, 3)
	events <- core.NewEvent(core.EventCreate, "a")
	events <- core.NewEvent(core.EventDelete, "b")
	events <- core.NewEvent(core.EventModify, "c")
	close(events)

	src := lifecycle.NewSource(events, core.EventCreate, core.EventModify)
	require.NoError(t, src.Start(context.Background()))

	var got []string
	for e := range src.Events() {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{"CREATE a", "MODIFY c"}, got)
}

func TestSource_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := lifecycle.NewSource(make(chan core.Event))
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not close")
	}
}
