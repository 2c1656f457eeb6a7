package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/verdicthq/verdict/pkg/logger"
)

// Metadata keys stamped on loaded documents and inherited by their chunks.
const (
	MetadataSource      = "source"
	MetadataContentHash = "content_hash"
	MetadataDocumentID  = "document_id"
	MetadataChunkIndex  = "chunk_index"
)

var supportedExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
	".pdf": {},
}

// Document is one source file read from the corpus directory.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Source returns the base filename the document was read from.
func (d *Document) Source() string {
	if source, ok := d.Metadata[MetadataSource].(string); ok {
		return source
	}
	return ""
}

// Loader reads question-answering source material from a directory tree.
type Loader struct {
	root string
}

// NewLoader validates the corpus directory and returns a loader over it.
func NewLoader(root string) (*Loader, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("ingest: corpus directory is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("ingest: corpus directory %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ingest: corpus path %q is not a directory", root)
	}
	return &Loader{root: root}, nil
}

// Load walks the corpus tree and reads every .txt, .md and .pdf file into a
// document. Unreadable files are logged and skipped so one bad file cannot
// abort the run; documents with identical content collapse to the first hit.
func (l *Loader) Load(ctx context.Context) ([]Document, error) {
	log := logger.FromContext(ctx)
	seen := make(map[string]struct{})
	var docs []Document
	walkErr := filepath.WalkDir(l.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := supportedExtensions[ext]; !ok {
			log.Debug("Skipping unsupported file", "path", path)
			return nil
		}
		text, err := readDocument(path, ext)
		if err != nil {
			log.Warn("Skipping unreadable document", "path", path, "error", err)
			return nil
		}
		text = strings.TrimSpace(text)
		if text == "" {
			log.Debug("Skipping empty document", "path", path)
			return nil
		}
		hash := hashText(text)
		if _, dup := seen[hash]; dup {
			log.Debug("Skipping duplicate document", "path", path)
			return nil
		}
		seen[hash] = struct{}{}
		docs = append(docs, Document{
			ID:   uuid.NewString(),
			Text: text,
			Metadata: map[string]any{
				MetadataSource:      filepath.Base(path),
				MetadataContentHash: hash,
			},
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("ingest: walk corpus %q: %w", l.root, walkErr)
	}
	log.Info("Loaded corpus documents", "root", l.root, "documents", len(docs))
	return docs, nil
}

func readDocument(path string, ext string) (string, error) {
	if ext == ".pdf" {
		return readPDF(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var text strings.Builder
	if _, err := io.Copy(&text, plain); err != nil {
		return "", err
	}
	return text.String(), nil
}

// hashText is the short content fingerprint used for deduplication and chunk
// identity.
func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:16])
}
