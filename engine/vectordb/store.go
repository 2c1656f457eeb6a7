package vectordb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

const defaultTopK = 5

var (
	errMissingID        = errors.New("vectordb id is required")
	errMissingProvider  = errors.New("vectordb provider is required")
	errMissingDSN       = errors.New("vectordb dsn is required")
	errMissingPath      = errors.New("vectordb path is required")
	errInvalidDimension = errors.New("vectordb dimension must be greater than zero")
)

// New instantiates a vector store backed by the requested provider.
func New(ctx context.Context, cfg *Config) (Store, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return instantiateStore(ctx, cfg)
}

func instantiateStore(ctx context.Context, cfg *Config) (Store, error) {
	switch cfg.Provider {
	case ProviderPGVector:
		return newPGStore(ctx, cfg)
	case ProviderRedis:
		return newRedisStore(ctx, cfg)
	case ProviderFilesystem:
		return newFileStore(cfg)
	default:
		return nil, fmt.Errorf("vectordb %q: provider %q is not supported", cfg.ID, cfg.Provider)
	}
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("vectordb config is required")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return errMissingID
	}
	if strings.TrimSpace(string(cfg.Provider)) == "" {
		return fmt.Errorf("vectordb %q: %w", cfg.ID, errMissingProvider)
	}
	dsn := strings.TrimSpace(cfg.DSN)
	path := strings.TrimSpace(cfg.Path)
	if dsn != cfg.DSN {
		cfg.DSN = dsn
	}
	if path != cfg.Path {
		cfg.Path = path
	}
	switch cfg.Provider {
	case ProviderPGVector, ProviderRedis:
		if dsn == "" {
			return fmt.Errorf("vectordb %q: %w", cfg.ID, errMissingDSN)
		}
	case ProviderFilesystem:
		if path == "" {
			return fmt.Errorf("vectordb %q: %w", cfg.ID, errMissingPath)
		}
	}
	if cfg.Dimension <= 0 {
		return fmt.Errorf("vectordb %q: %w", cfg.ID, errInvalidDimension)
	}
	if cfg.MaxTopK < 0 {
		return fmt.Errorf("vectordb %q: max_top_k must be non-negative", cfg.ID)
	}
	return nil
}

// clampTopK normalizes a requested result count against the configured cap.
func clampTopK(topK int, maxTopK int) int {
	if topK <= 0 {
		topK = defaultTopK
	}
	if maxTopK > 0 && topK > maxTopK {
		topK = maxTopK
	}
	return topK
}

// cosineDistance returns 1 minus the cosine similarity of a and b, so aligned
// vectors measure 0 and orthogonal vectors 1. Zero-magnitude vectors are
// treated as maximally distant.
func cosineDistance(a []float32, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	distance := 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
	if distance < 0 {
		return 0
	}
	return distance
}

func metadataMatches(metadata map[string]any, filters map[string]string) bool {
	if len(filters) == 0 {
		return true
	}
	for key, want := range filters {
		value, ok := metadata[key]
		if !ok {
			return false
		}
		if fmt.Sprint(value) != want {
			return false
		}
	}
	return true
}
