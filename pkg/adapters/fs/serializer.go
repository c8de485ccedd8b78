package fs

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/notepad/pkg/core"
)

var (
	fenceOpen  = []byte("---\n")
	fenceClose = []byte("\n---\n")
)

// frontmatter is the YAML header of a note file.
type frontmatter struct {
	Title    string    `yaml:"title"`
	Created  time.Time `yaml:"created"`
	Modified time.Time `yaml:"modified"`
}

// marshalNote renders a note as Markdown with a YAML frontmatter block.
// The body follows the closing fence verbatim.
func marshalNote(n core.Note) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(fenceOpen)
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(frontmatter{
		Title:    n.Title,
		Created:  n.CreatedAt.UTC(),
		Modified: n.ModifiedAt.UTC(),
	}); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	buf.Write(fenceOpen)
	buf.WriteString(n.Body)
	return buf.Bytes(), nil
}

// unmarshalNote parses a note file. Files without frontmatter are treated as
// a bare body; the caller fills in timestamps from the file itself.
func unmarshalNote(data []byte) (core.Note, bool, error) {
	if !bytes.HasPrefix(data, fenceOpen) {
		return core.Note{Body: string(data)}, false, nil
	}

	rest := data[len(fenceOpen):]
	end := bytes.Index(rest, fenceClose)
	var header, body []byte
	switch {
	case bytes.HasPrefix(rest, fenceOpen):
		// empty header
		body = rest[len(fenceOpen):]
	case end >= 0:
		header = rest[:end+1]
		body = rest[end+len(fenceClose):]
	case bytes.HasSuffix(rest, []byte("\n---")):
		// closing fence at EOF without trailing newline
		header = rest[:len(rest)-len("---")]
	default:
		return core.Note{}, false, errors.New("frontmatter started but no closing delimiter found")
	}

	var fm frontmatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return core.Note{}, false, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	return core.Note{
		Title:      fm.Title,
		Body:       string(body),
		CreatedAt:  fm.Created,
		ModifiedAt: fm.Modified,
	}, true, nil
}
