// Package vectorstore builds, persists and queries per-document embedding
// indexes. Each index lives in its own directory under the store root, keyed
// by the document identity, and is replaced atomically on rebuild so readers
// never observe a half-written index.
package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrIndexNotFound     = errors.New("vector index not found")
	ErrIndexCorrupt      = errors.New("vector index is corrupt")
	ErrEmbeddingProvider = errors.New("embedding provider failed")
)

const (
	indexFile     = "index.json"
	currentMarker = "current"
	genPrefix     = "gen-"
)

// Embedder turns text into a fixed-dimension vector via an external provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index holds the (vector, chunk) pairs for one document.
type Index struct {
	Dim     int         `json:"dim"`
	Chunks  []string    `json:"chunks"`
	Vectors [][]float32 `json:"vectors"`
}

// embeddingBatchSize keeps requests under common provider batch limits.
const embeddingBatchSize = 10

// Build embeds every chunk and assembles an in-memory index. Whitespace-only
// chunks carry no searchable content and are skipped. Provider failures are
// not retried here; retry policy belongs to the caller.
func Build(ctx context.Context, embedder Embedder, chunks []string) (*Index, error) {
	kept := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			kept = append(kept, c)
		}
	}
	chunks = kept

	idx := &Index{}
	for i := 0; i < len(chunks); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		vectors, err := embedder.EmbedBatch(ctx, chunks[i:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingProvider, err)
		}
		if len(vectors) != end-i {
			return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingProvider, len(vectors), end-i)
		}
		idx.Vectors = append(idx.Vectors, vectors...)
	}
	idx.Chunks = append(idx.Chunks, chunks...)
	if len(idx.Vectors) > 0 {
		idx.Dim = len(idx.Vectors[0])
	}
	return idx, nil
}

// Search returns up to k chunk texts nearest to the query, nearest first.
// An empty result is a normal outcome, not an error.
func (idx *Index) Search(ctx context.Context, embedder Embedder, query string, k int) ([]string, error) {
	if k <= 0 || len(idx.Chunks) == 0 {
		return nil, nil
	}

	queryVec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingProvider, err)
	}

	type scored struct {
		pos   int
		score float32
	}
	ranked := make([]scored, len(idx.Vectors))
	for i, vec := range idx.Vectors {
		ranked[i] = scored{pos: i, score: cosineSimilarity(queryVec, vec)}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	results := make([]string, 0, k)
	for _, r := range ranked[:k] {
		results = append(results, idx.Chunks[r.pos])
	}
	return results, nil
}

// Store persists indexes as one self-contained directory per key.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Save writes the index into a fresh generation directory under the key and
// then atomically repoints the key's marker file at it. Readers resolve the
// marker before touching index data, so a rebuild in progress never makes the
// key unreadable: until the marker commit they load the previous generation,
// after it the new one.
func (s *Store) Save(idx *Index, key string) error {
	keyDir := filepath.Join(s.root, key)
	if err := os.MkdirAll(keyDir, 0o755); err != nil {
		return fmt.Errorf("create index dir failed: %w", err)
	}

	gen, err := os.MkdirTemp(keyDir, genPrefix)
	if err != nil {
		return fmt.Errorf("create generation dir failed: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(gen)
		}
	}()

	payload, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index failed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(gen, indexFile), payload, 0o644); err != nil {
		return fmt.Errorf("write index file failed: %w", err)
	}

	tmpMarker, err := os.CreateTemp(keyDir, currentMarker+".tmp-")
	if err != nil {
		return fmt.Errorf("create marker file failed: %w", err)
	}
	tmpName := tmpMarker.Name()
	if _, err := tmpMarker.WriteString(filepath.Base(gen)); err != nil {
		_ = tmpMarker.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write marker file failed: %w", err)
	}
	if err := tmpMarker.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close marker file failed: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(keyDir, currentMarker)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit index marker failed: %w", err)
	}
	committed = true

	s.pruneGenerations(keyDir, filepath.Base(gen))
	return nil
}

// pruneGenerations drops superseded and abandoned generation dirs. A reader
// that resolved the old marker moments ago and loses its generation mid-read
// sees ErrIndexCorrupt and falls back to the rebuild path.
func (s *Store) pruneGenerations(keyDir, keep string) {
	entries, err := os.ReadDir(keyDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), genPrefix) && entry.Name() != keep {
			_ = os.RemoveAll(filepath.Join(keyDir, entry.Name()))
		}
	}
}

// Load reads the key's current index generation. A missing marker is
// ErrIndexNotFound; an unreadable marker or an unreadable or structurally
// invalid generation is ErrIndexCorrupt, which callers treat as not-found
// and rebuild.
func (s *Store) Load(key string) (*Index, error) {
	keyDir := filepath.Join(s.root, key)
	marker, err := os.ReadFile(filepath.Join(keyDir, currentMarker))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	gen := strings.TrimSpace(string(marker))
	if gen == "" || gen != filepath.Base(gen) {
		return nil, fmt.Errorf("%w: invalid generation marker %q", ErrIndexCorrupt, gen)
	}

	raw, err := os.ReadFile(filepath.Join(keyDir, gen, indexFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	var idx Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	if len(idx.Chunks) != len(idx.Vectors) {
		return nil, fmt.Errorf("%w: %d chunks but %d vectors", ErrIndexCorrupt, len(idx.Chunks), len(idx.Vectors))
	}
	return &idx, nil
}

// Delete removes the index for the key, if any.
func (s *Store) Delete(key string) error {
	return os.RemoveAll(filepath.Join(s.root, key))
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
