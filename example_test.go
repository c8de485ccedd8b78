package notepad_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/notepad"
	"github.com/aretw0/notepad/pkg/editor"
)

// Example_basic creates a note through an edit session and lists it.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "notepad-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	app, err := notepad.Open(ctx, tmpDir)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	// 1. Write a note; closing the editor saves it.
	s, err := app.OpenEditor(ctx, editor.Request{Mode: editor.OpenNew})
	if err != nil {
		log.Fatal(err)
	}
	body := "Buy milk and eggs on the way home"
	if err := s.SetFields(nil, &body); err != nil {
		log.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		log.Fatal(err)
	}

	// 2. List notes matching "milk".
	if err := app.SetFilter(ctx, "milk"); err != nil {
		log.Fatal(err)
	}
	for n := range app.CurrentResults() {
		fmt.Println(n.Title)
	}

	// Output:
	// Buy milk and eggs on the way
}
