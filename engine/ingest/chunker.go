package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter settings the retrieval pipeline was tuned with.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunk is one splitter segment ready for embedding.
type Chunk struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Chunker splits documents into overlapping segments with stable ids.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the splitter settings.
func NewChunker(size int, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("ingest: chunk size must be greater than zero")
	}
	if overlap < 0 {
		return nil, fmt.Errorf("ingest: chunk overlap cannot be negative")
	}
	if overlap >= size {
		return nil, fmt.Errorf("ingest: chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits every document, dropping blank and duplicate segments. Chunk
// ids derive from the document content hash, the segment position and the
// segment hash, so re-ingesting unchanged files overwrites in place instead
// of accumulating copies.
func (c *Chunker) Chunk(docs []Document) ([]Chunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.size),
		textsplitter.WithChunkOverlap(c.overlap),
	)
	seen := make(map[string]struct{})
	var chunks []Chunk
	for i := range docs {
		doc := &docs[i]
		text := normalizeNewlines(doc.Text)
		segments, err := splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("ingest: split document %s: %w", doc.ID, err)
		}
		docHash := hashText(text)
		for idx, segment := range segments {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			segmentHash := hashText(segment)
			if _, dup := seen[segmentHash]; dup {
				continue
			}
			seen[segmentHash] = struct{}{}
			chunks = append(chunks, Chunk{
				ID:       chunkID(docHash, idx, segmentHash),
				Text:     segment,
				Metadata: chunkMetadata(doc, idx),
			})
		}
	}
	return chunks, nil
}

func chunkID(docHash string, index int, segmentHash string) string {
	return hashText(docHash + "::" + strconv.Itoa(index) + "::" + segmentHash)
}

func chunkMetadata(doc *Document, index int) map[string]any {
	metadata := make(map[string]any, len(doc.Metadata)+2)
	for key, value := range doc.Metadata {
		metadata[key] = value
	}
	metadata[MetadataDocumentID] = doc.ID
	metadata[MetadataChunkIndex] = index
	return metadata
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
