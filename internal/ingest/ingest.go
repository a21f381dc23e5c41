// Package ingest extracts text from uploaded resume documents and manages
// the single live resume artifact on disk.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"portfolio-backend/internal/pkg/pdfextract"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyDocument     = errors.New("document contains no extractable text")
	ErrNoDocument        = errors.New("no resume has been uploaded")
)

const markerFile = "current_resume_path.txt"

// Document identifies a stored resume artifact. Key is derived from the
// artifact path and addresses the document's vector index.
type Document struct {
	Path string
	Key  string
}

type Ingestor struct {
	artifactDir string
}

func New(artifactDir string) *Ingestor {
	return &Ingestor{artifactDir: artifactDir}
}

// Extract returns the plain text of the document. PDF content is parsed
// page by page in order; .txt and .md pass through as UTF-8.
func Extract(filename string, data []byte) (string, error) {
	var text string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		extracted, err := pdfextract.ExtractText(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		text = extracted
	case ".txt", ".md":
		text = string(data)
	default:
		return "", ErrUnsupportedFormat
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// Store persists the raw upload, overwriting any previous resume, extracts
// its text and records the artifact as the current document. A previously
// built index for a different upload becomes unreachable once the marker
// points at the new artifact.
func (g *Ingestor) Store(filename string, r io.Reader) (*Document, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read upload failed: %w", err)
	}

	text, err := Extract(filename, data)
	if err != nil {
		return nil, "", err
	}

	if err := os.MkdirAll(g.artifactDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create artifact dir failed: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	artifactPath := filepath.Join(g.artifactDir, "resume"+ext)
	if err := os.WriteFile(artifactPath, data, 0o644); err != nil {
		return nil, "", fmt.Errorf("write artifact failed: %w", err)
	}

	if err := os.WriteFile(filepath.Join(g.artifactDir, markerFile), []byte(artifactPath), 0o644); err != nil {
		return nil, "", fmt.Errorf("write current resume marker failed: %w", err)
	}

	return &Document{Path: artifactPath, Key: DocumentKey(artifactPath)}, text, nil
}

// Current resolves the marker to the live document. ErrNoDocument when no
// resume has ever been stored.
func (g *Ingestor) Current() (*Document, error) {
	raw, err := os.ReadFile(filepath.Join(g.artifactDir, markerFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("read current resume marker failed: %w", err)
	}
	path := strings.TrimSpace(string(raw))
	if path == "" {
		return nil, ErrNoDocument
	}
	return &Document{Path: path, Key: DocumentKey(path)}, nil
}

// Text re-extracts the plain text of the stored document, for index rebuilds.
func (g *Ingestor) Text(doc *Document) (string, error) {
	data, err := os.ReadFile(doc.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoDocument
	}
	if err != nil {
		return "", fmt.Errorf("read artifact failed: %w", err)
	}
	return Extract(doc.Path, data)
}

// DocumentKey derives the index slot for an artifact path, so re-uploads of
// the same logical document rebuild the same slot.
func DocumentKey(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}
