package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/verdicthq/verdict/engine/core"
)

// fileStore persists embeddings to a JSON snapshot for deterministic local storage.
type fileStore struct {
	mu        sync.RWMutex
	path      string
	dimension int
	maxTopK   int
	records   map[string]Record
}

func newFileStore(cfg *Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("filesystem: config is required")
	}
	storePath := filepath.Clean(cfg.Path)
	dir := filepath.Dir(storePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("filesystem: ensure directory %q: %w", dir, err)
	}
	fs := &fileStore{
		path:      storePath,
		dimension: cfg.Dimension,
		maxTopK:   cfg.MaxTopK,
		records:   make(map[string]Record),
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (s *fileStore) Upsert(_ context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		rec := records[i]
		s.records[rec.ID] = Record{
			ID:        rec.ID,
			Text:      rec.Text,
			Embedding: fitDimension(rec.Embedding, s.dimension),
			Metadata:  core.CloneMap(rec.Metadata),
		}
	}
	return s.persistLocked()
}

func (s *fileStore) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	started := time.Now()
	q := fitDimension(query, s.dimension)
	topK := clampTopK(opts.TopK, s.maxTopK)
	s.mu.RLock()
	candidates := make([]Match, 0, len(s.records))
	for _, rec := range s.records {
		if !metadataMatches(rec.Metadata, opts.Filters) {
			continue
		}
		candidates = append(candidates, Match{
			ID:       rec.ID,
			Distance: cosineDistance(rec.Embedding, q),
			Text:     rec.Text,
			Metadata: core.CloneMap(rec.Metadata),
		})
	}
	s.mu.RUnlock()
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Distance == candidates[j].Distance {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	observeSearch(ctx, ProviderFilesystem, topK, started, candidates)
	return candidates, nil
}

func (s *fileStore) Count(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func (s *fileStore) Delete(_ context.Context, filter Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(filter.IDs) > 0 {
		for _, id := range filter.IDs {
			delete(s.records, id)
		}
		return s.persistLocked()
	}
	changed := false
	for id, rec := range s.records {
		if len(filter.Metadata) > 0 && metadataMatches(rec.Metadata, filter.Metadata) {
			delete(s.records, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.persistLocked()
}

func (s *fileStore) Close(context.Context) error {
	return nil
}

func (s *fileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("filesystem: read %q: %w", s.path, err)
	}
	var payload fileStorePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("filesystem: decode %q: %w", s.path, err)
	}
	for i := range payload.Records {
		rec := payload.Records[i]
		s.records[rec.ID] = Record{
			ID:        rec.ID,
			Text:      rec.Text,
			Embedding: toFloat32(rec.Embedding, s.dimension),
			Metadata:  rec.Metadata,
		}
	}
	return nil
}

func (s *fileStore) persistLocked() error {
	payload := fileStorePayload{
		Dimension: s.dimension,
		Records:   make([]fileStoreRecord, 0, len(s.records)),
	}
	for _, rec := range s.records {
		payload.Records = append(payload.Records, fileStoreRecord{
			ID:        rec.ID,
			Text:      rec.Text,
			Embedding: toFloat64(rec.Embedding),
			Metadata:  rec.Metadata,
		})
	}
	sort.Slice(payload.Records, func(i, j int) bool {
		return payload.Records[i].ID < payload.Records[j].ID
	})
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("filesystem: encode snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("filesystem: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("filesystem: commit snapshot: %w", err)
	}
	return nil
}

type fileStorePayload struct {
	Dimension int               `json:"dimension"`
	Records   []fileStoreRecord `json:"records"`
}

type fileStoreRecord struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Embedding []float64      `json:"embedding"`
	Metadata  map[string]any `json:"metadata"`
}

// fitDimension copies values into a slice of exactly dimension entries,
// trimming extra components and zero-padding short ones.
func fitDimension(values []float32, dimension int) []float32 {
	out := make([]float32, dimension)
	copy(out, values)
	return out
}

func toFloat64(values []float32) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	for i := range values {
		out[i] = float64(values[i])
	}
	return out
}

func toFloat32(values []float64, dimension int) []float32 {
	out := make([]float32, len(values))
	for i := range values {
		out[i] = float32(values[i])
	}
	return fitDimension(out, dimension)
}
