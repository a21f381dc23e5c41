package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_PlainText(t *testing.T) {
	text, err := Extract("resume.txt", []byte("  Pubali has 5 years of Python experience.  "))
	require.NoError(t, err)
	assert.Equal(t, "Pubali has 5 years of Python experience.", text)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	_, err := Extract("resume.docx", []byte("whatever"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtract_EmptyDocument(t *testing.T) {
	_, err := Extract("resume.txt", []byte("   \n\t  "))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestExtract_BrokenPDF(t *testing.T) {
	_, err := Extract("resume.pdf", []byte("not a pdf at all"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestStore_PersistsAndMarksCurrent(t *testing.T) {
	dir := t.TempDir()
	ing := New(dir)

	doc, text, err := ing.Store("resume.txt", strings.NewReader("hello resume"))
	require.NoError(t, err)
	assert.Equal(t, "hello resume", text)
	assert.Equal(t, filepath.Join(dir, "resume.txt"), doc.Path)
	assert.Equal(t, DocumentKey(doc.Path), doc.Key)

	stored, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello resume", string(stored))

	current, err := ing.Current()
	require.NoError(t, err)
	assert.Equal(t, doc.Key, current.Key)
}

func TestStore_ReuploadOverwrites(t *testing.T) {
	dir := t.TempDir()
	ing := New(dir)

	_, _, err := ing.Store("resume.txt", strings.NewReader("old content"))
	require.NoError(t, err)
	doc, text, err := ing.Store("resume.txt", strings.NewReader("new content"))
	require.NoError(t, err)
	assert.Equal(t, "new content", text)

	reread, err := ing.Text(doc)
	require.NoError(t, err)
	assert.Equal(t, "new content", reread)
}

func TestCurrent_NoDocument(t *testing.T) {
	ing := New(t.TempDir())
	_, err := ing.Current()
	assert.ErrorIs(t, err, ErrNoDocument)
}
