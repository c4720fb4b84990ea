package codec

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    string `json:"id"`
	Count int    `json:"count,omitempty"`
}

func TestDecodeObjectKeepsUndeclaredMembers(t *testing.T) {
	var s sample
	extra, err := DecodeObject([]byte(`{"id":"a","count":3,"text":"hello","tags":[1,2]}`), &s)
	require.NoError(t, err)

	assert.Equal(t, "a", s.ID)
	assert.Equal(t, 3, s.Count)
	require.Len(t, extra, 2)
	assert.JSONEq(t, `"hello"`, string(extra["text"]))
	assert.JSONEq(t, `[1,2]`, string(extra["tags"]))
}

func TestDecodeObjectNoExtra(t *testing.T) {
	var s sample
	extra, err := DecodeObject([]byte(`{"id":"a"}`), &s)
	require.NoError(t, err)
	assert.Nil(t, extra)
}

func TestEncodeObjectAppendsExtra(t *testing.T) {
	out, err := EncodeObject(sample{ID: "a"}, Extra{
		"text": json.RawMessage(`"hi"`),
		"id":   json.RawMessage(`"shadowed"`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","text":"hi"}`, string(out))
}

func TestEncodeObjectEmptyBody(t *testing.T) {
	type empty struct{}
	out, err := EncodeObject(empty{}, Extra{"x": json.RawMessage(`1`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(out))
}

func TestWriteFileAndBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, Backup(path)) // missing file is not an error
	require.NoError(t, WriteFile(path, sample{ID: "first"}))
	require.NoError(t, Backup(path))
	require.NoError(t, WriteFile(path, sample{ID: "second"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])

	var got sample
	require.NoError(t, ReadFile(path+".bak", &got))
	assert.Equal(t, "first", got.ID)
	require.NoError(t, ReadFile(path, &got))
	assert.Equal(t, "second", got.ID)
}

func TestExtraString(t *testing.T) {
	e := Extra{"title": json.RawMessage(`"Velvet"`), "n": json.RawMessage(`3`)}
	assert.Equal(t, "Velvet", ExtraString(e, "title"))
	assert.Empty(t, ExtraString(e, "n"))
	assert.Empty(t, ExtraString(e, "missing"))
	assert.Empty(t, ExtraString(nil, "title"))
}
