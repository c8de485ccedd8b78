package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// WriterPresenter renders alerts as text, e.g. to a terminal.
type WriterPresenter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterPresenter creates a presenter writing to w.
func NewWriterPresenter(w io.Writer) *WriterPresenter {
	return &WriterPresenter{w: w}
}

// Present writes one alert block.
func (p *WriterPresenter) Present(ctx context.Context, a Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.w, Render(a))
	return err
}

// Render formats an alert the way WriterPresenter prints it.
func Render(a Alert) string {
	title := a.Title
	if strings.TrimSpace(title) == "" {
		title = "(untitled)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", a.Tag, title)
	if a.Text != "" {
		for _, line := range strings.Split(a.Text, "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	fmt.Fprintf(&b, "    open: %s\n", a.Link)
	return b.String()
}
