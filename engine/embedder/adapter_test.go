package embedder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder returns deterministic vectors derived from the text length
// and records how many provider calls were made.
type countingEmbedder struct {
	documentCalls int
	queryCalls    int
	batchSizes    []int
	err           error
}

func (c *countingEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	c.documentCalls++
	c.batchSizes = append(c.batchSizes, len(texts))
	if c.err != nil {
		return nil, c.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1}
	}
	return vectors, nil
}

func (c *countingEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	c.queryCalls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

// shortEmbedder returns fewer vectors than requested texts.
type shortEmbedder struct{}

func (s *shortEmbedder) EmbedDocuments(_ context.Context, _ []string) ([][]float32, error) {
	return [][]float32{{1}}, nil
}

func (s *shortEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{1}, nil
}

func testConfig() *Config {
	return &Config{
		ID:        "embed",
		Provider:  ProviderOllama,
		Model:     "nomic-embed-text",
		Dimension: 2,
		BatchSize: 4,
	}
}

func TestWrap(t *testing.T) {
	t.Run("Should construct an adapter around an existing implementation", func(t *testing.T) {
		adapter, err := Wrap(testConfig(), &countingEmbedder{})
		require.NoError(t, err)
		assert.Equal(t, 2, adapter.Dimension())
		assert.Equal(t, 4, adapter.BatchSize())
	})
	t.Run("Should reject a nil config", func(t *testing.T) {
		_, err := Wrap(nil, &countingEmbedder{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config is required")
	})
	t.Run("Should reject a nil implementation", func(t *testing.T) {
		_, err := Wrap(testConfig(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "implementation is required")
	})
}

func TestValidateConfig(t *testing.T) {
	t.Run("Should require an id", func(t *testing.T) {
		cfg := testConfig()
		cfg.ID = "  "
		require.ErrorIs(t, validateConfig(cfg), errMissingEmbedderID)
	})
	t.Run("Should require a provider", func(t *testing.T) {
		cfg := testConfig()
		cfg.Provider = ""
		require.ErrorIs(t, validateConfig(cfg), errMissingEmbedderProvider)
	})
	t.Run("Should require a model", func(t *testing.T) {
		cfg := testConfig()
		cfg.Model = ""
		require.ErrorIs(t, validateConfig(cfg), errMissingEmbedderModel)
	})
	t.Run("Should require an api key for openai", func(t *testing.T) {
		cfg := testConfig()
		cfg.Provider = ProviderOpenAI
		cfg.APIKey = ""
		require.ErrorIs(t, validateConfig(cfg), errMissingEmbedderAPIKey)
	})
	t.Run("Should not require an api key for ollama", func(t *testing.T) {
		cfg := testConfig()
		cfg.APIKey = ""
		require.NoError(t, validateConfig(cfg))
	})
	t.Run("Should require a positive dimension", func(t *testing.T) {
		cfg := testConfig()
		cfg.Dimension = 0
		require.ErrorIs(t, validateConfig(cfg), errInvalidEmbedderDim)
	})
	t.Run("Should require a positive batch size", func(t *testing.T) {
		cfg := testConfig()
		cfg.BatchSize = -1
		require.ErrorIs(t, validateConfig(cfg), errInvalidEmbedderBatch)
	})
}

func TestNew(t *testing.T) {
	t.Run("Should construct an openai adapter", func(t *testing.T) {
		cfg := testConfig()
		cfg.Provider = ProviderOpenAI
		cfg.Model = "text-embedding-3-small"
		cfg.APIKey = "test-key"
		adapter, err := New(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, 2, adapter.Dimension())
	})
	t.Run("Should construct an ollama adapter with a cache", func(t *testing.T) {
		cfg := testConfig()
		cfg.CacheSize = 16
		adapter, err := New(context.Background(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, adapter.getCache())
	})
	t.Run("Should reject an unsupported provider", func(t *testing.T) {
		cfg := testConfig()
		cfg.Provider = "vertex"
		_, err := New(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not supported")
	})
	t.Run("Should reject a nil config", func(t *testing.T) {
		_, err := New(context.Background(), nil)
		require.Error(t, err)
	})
}

func TestAdapter_EmbedQuery(t *testing.T) {
	t.Run("Should delegate without a cache", func(t *testing.T) {
		stub := &countingEmbedder{}
		adapter, err := Wrap(testConfig(), stub)
		require.NoError(t, err)
		vector, err := adapter.EmbedQuery(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, []float32{2, 1}, vector)
		assert.Equal(t, 1, stub.queryCalls)
	})
	t.Run("Should serve repeated queries from the cache", func(t *testing.T) {
		stub := &countingEmbedder{}
		adapter, err := Wrap(testConfig(), stub)
		require.NoError(t, err)
		require.NoError(t, adapter.EnableCache(8))
		first, err := adapter.EmbedQuery(context.Background(), "hello")
		require.NoError(t, err)
		second, err := adapter.EmbedQuery(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, stub.queryCalls)
	})
	t.Run("Should hand out clones that cannot poison the cache", func(t *testing.T) {
		stub := &countingEmbedder{}
		adapter, err := Wrap(testConfig(), stub)
		require.NoError(t, err)
		require.NoError(t, adapter.EnableCache(8))
		first, err := adapter.EmbedQuery(context.Background(), "hello")
		require.NoError(t, err)
		first[0] = -99
		second, err := adapter.EmbedQuery(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, []float32{5, 1}, second)
		assert.Equal(t, 1, stub.queryCalls)
	})
	t.Run("Should wrap implementation errors with the adapter id", func(t *testing.T) {
		stub := &countingEmbedder{err: errors.New("boom")}
		adapter, err := Wrap(testConfig(), stub)
		require.NoError(t, err)
		_, err = adapter.EmbedQuery(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `embedder "embed"`)
	})
}

func TestAdapter_EmbedDocuments(t *testing.T) {
	t.Run("Should delegate without a cache", func(t *testing.T) {
		stub := &countingEmbedder{}
		adapter, err := Wrap(testConfig(), stub)
		require.NoError(t, err)
		vectors, err := adapter.EmbedDocuments(context.Background(), []string{"a", "bb"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{1, 1}, vectors[0])
		assert.Equal(t, []float32{2, 1}, vectors[1])
	})
	t.Run("Should deduplicate repeated texts before calling the provider", func(t *testing.T) {
		stub := &countingEmbedder{}
		adapter, err := Wrap(testConfig(), stub)
		require.NoError(t, err)
		require.NoError(t, adapter.EnableCache(8))
		vectors, err := adapter.EmbedDocuments(context.Background(), []string{"aa", "b", "aa"})
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		assert.Equal(t, vectors[0], vectors[2])
		assert.Equal(t, 1, stub.documentCalls)
		require.Len(t, stub.batchSizes, 1)
		assert.Equal(t, 2, stub.batchSizes[0])
	})
	t.Run("Should serve follow-up batches from the cache", func(t *testing.T) {
		stub := &countingEmbedder{}
		adapter, err := Wrap(testConfig(), stub)
		require.NoError(t, err)
		require.NoError(t, adapter.EnableCache(8))
		_, err = adapter.EmbedDocuments(context.Background(), []string{"aa", "b"})
		require.NoError(t, err)
		vectors, err := adapter.EmbedDocuments(context.Background(), []string{"b", "aa"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{1, 1}, vectors[0])
		assert.Equal(t, []float32{2, 1}, vectors[1])
		assert.Equal(t, 1, stub.documentCalls)
	})
	t.Run("Should fail when the provider returns a short batch", func(t *testing.T) {
		adapter, err := Wrap(testConfig(), &shortEmbedder{})
		require.NoError(t, err)
		require.NoError(t, adapter.EnableCache(8))
		_, err = adapter.EmbedDocuments(context.Background(), []string{"aa", "b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "received 1 embeddings for 2 texts")
	})
}

func TestAdapter_EnableCache(t *testing.T) {
	t.Run("Should reject a non-positive size", func(t *testing.T) {
		adapter, err := Wrap(testConfig(), &countingEmbedder{})
		require.NoError(t, err)
		require.Error(t, adapter.EnableCache(0))
	})
}

func TestNormalizeModelName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		model    string
		expected string
	}{
		{"text-embedding-3-small", "text-embedding-3"},
		{"text-embedding-ada-002", "text-embedding-ada"},
		{"nomic-embed-text", "nomic-embed"},
		{"mxbai-embed-large", "mxbai-embed"},
		{"all-minilm:l6-v2", "all-minilm"},
		{"", "other"},
		{"custom-model", "other"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("Should normalize %q", tc.model), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, normalizeModelName(tc.model))
		})
	}
}

func TestCategorizeError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, errorTypeRateLimit, categorizeError(errors.New("429 rate limit exceeded")))
	assert.Equal(t, errorTypeAuth, categorizeError(errors.New("401 Unauthorized")))
	assert.Equal(t, errorTypeInvalidInput, categorizeError(errors.New("invalid request body")))
	assert.Equal(t, errorTypeServerError, categorizeError(errors.New("connection reset")))
	assert.Equal(t, errorTypeServerError, categorizeError(context.DeadlineExceeded))
}
