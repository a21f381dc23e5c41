package vectorstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordEmbedder maps each known word onto its own axis, so retrieval is
// deterministic and human-checkable.
type wordEmbedder struct {
	vocab map[string]int
}

func newWordEmbedder(words ...string) *wordEmbedder {
	vocab := make(map[string]int, len(words))
	for i, w := range words {
		vocab[w] = i
	}
	return &wordEmbedder{vocab: vocab}
}

func (e *wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(e.vocab)+1)
	for word, axis := range e.vocab {
		if containsWord(text, word) {
			vec[axis] = 1
		}
	}
	vec[len(e.vocab)] = 0.01 // avoid zero vectors
	return vec, nil
}

func (e *wordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func containsWord(text, word string) bool {
	for i := 0; i+len(word) <= len(text); i++ {
		if text[i:i+len(word)] == word {
			return true
		}
	}
	return false
}

func TestBuildAndSearch(t *testing.T) {
	ctx := context.Background()
	embedder := newWordEmbedder("python", "golang", "kayaking")
	chunks := []string{
		"Pubali has 5 years of python experience",
		"side projects are written in golang",
		"hobbies include kayaking and chess",
	}

	idx, err := Build(ctx, embedder, chunks)
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Dim)
	require.Len(t, idx.Vectors, 3)

	results, err := idx.Search(ctx, embedder, "how much python experience?", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chunks[0], results[0])
}

func TestSearch_KClampAndEmptyIndex(t *testing.T) {
	ctx := context.Background()
	embedder := newWordEmbedder("a")

	empty := &Index{}
	results, err := empty.Search(ctx, embedder, "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	idx, err := Build(ctx, embedder, []string{"only one chunk with a"})
	require.NoError(t, err)
	results, err = idx.Search(ctx, embedder, "a", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	embedder := newWordEmbedder("python", "golang")
	chunks := []string{"python things", "golang things", "unrelated things"}

	idx, err := Build(ctx, embedder, chunks)
	require.NoError(t, err)

	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(idx, "doc-key"))

	loaded, err := store.Load("doc-key")
	require.NoError(t, err)

	before, err := idx.Search(ctx, embedder, "golang", 2)
	require.NoError(t, err)
	after, err := loaded.Search(ctx, embedder, "golang", 2)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLoad_NotFound(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load("missing")
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestLoad_CorruptIndexData(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "bad-key", "gen-0")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad-key", "current"), []byte("gen-0"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte("{not json"), 0o644))

	store := NewStore(root)
	_, err := store.Load("bad-key")
	assert.ErrorIs(t, err, ErrIndexCorrupt)
}

func TestLoad_CorruptMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bad-key"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad-key", "current"), []byte("../escape"), 0o644))

	store := NewStore(root)
	_, err := store.Load("bad-key")
	assert.ErrorIs(t, err, ErrIndexCorrupt)
}

func TestSave_ReplacesPreviousIndex(t *testing.T) {
	ctx := context.Background()
	embedder := newWordEmbedder("python", "rust")
	store := NewStore(t.TempDir())

	oldIdx, err := Build(ctx, embedder, []string{"5 years of python"})
	require.NoError(t, err)
	require.NoError(t, store.Save(oldIdx, "key"))

	newIdx, err := Build(ctx, embedder, []string{"2 years of rust"})
	require.NoError(t, err)
	require.NoError(t, store.Save(newIdx, "key"))

	loaded, err := store.Load("key")
	require.NoError(t, err)
	require.Len(t, loaded.Chunks, 1)
	assert.Equal(t, "2 years of rust", loaded.Chunks[0])
}

func TestSave_IndexStaysLoadableDuringRebuild(t *testing.T) {
	ctx := context.Background()
	embedder := newWordEmbedder("python", "rust")
	root := t.TempDir()
	store := NewStore(root)

	oldIdx, err := Build(ctx, embedder, []string{"5 years of python"})
	require.NoError(t, err)
	require.NoError(t, store.Save(oldIdx, "key"))

	// a rebuild that wrote its generation but died before committing the
	// marker must not affect readers
	strayDir := filepath.Join(root, "key", "gen-stray")
	require.NoError(t, os.MkdirAll(strayDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(strayDir, "index.json"), []byte("{partial"), 0o644))

	loaded, err := store.Load("key")
	require.NoError(t, err)
	assert.Equal(t, "5 years of python", loaded.Chunks[0])

	// the next committed save prunes the abandoned generation
	newIdx, err := Build(ctx, embedder, []string{"2 years of rust"})
	require.NoError(t, err)
	require.NoError(t, store.Save(newIdx, "key"))

	_, err = os.Stat(strayDir)
	assert.ErrorIs(t, err, os.ErrNotExist)

	loaded, err = store.Load("key")
	require.NoError(t, err)
	assert.Equal(t, "2 years of rust", loaded.Chunks[0])
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, assert.AnError
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, assert.AnError
}

func TestBuild_ProviderError(t *testing.T) {
	_, err := Build(context.Background(), failingEmbedder{}, []string{"chunk"})
	assert.ErrorIs(t, err, ErrEmbeddingProvider)
}
