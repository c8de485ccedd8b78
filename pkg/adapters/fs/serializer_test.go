package fs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notepad/pkg/core"
)

func TestMarshalNote_RoundTrip(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	in := core.Note{
		Title:      "Multi\nline",
		Body:       "---\nnot a header\n",
		CreatedAt:  stamp,
		ModifiedAt: stamp.Add(time.Minute),
	}

	data, err := marshalNote(in)
	require.NoError(t, err)

	out, hasHeader, err := unmarshalNote(data)
	require.NoError(t, err)
	assert.True(t, hasHeader)
	assert.Equal(t, in.Title, out.Title)
	assert.Equal(t, in.Body, out.Body)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.True(t, in.ModifiedAt.Equal(out.ModifiedAt))
}

func TestUnmarshalNote(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantBody  string
		header    bool
		wantErr   bool
	}{
		{name: "bare body", input: "hello", wantBody: "hello"},
		{name: "fence at EOF", input: "---\ntitle: x\n---", wantTitle: "x", header: true},
		{name: "empty header", input: "---\n---\nbody", wantBody: "body", header: true},
		{name: "unterminated", input: "---\ntitle: x\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, header, err := unmarshalNote([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.header, header)
			assert.Equal(t, tt.wantTitle, n.Title)
			assert.Equal(t, tt.wantBody, n.Body)
		})
	}
}
