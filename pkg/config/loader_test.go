package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	t.Run("Should load default configuration when no sources provided", func(t *testing.T) {
		ctx := context.Background()
		loader := NewService()

		cfg, err := loader.Load(ctx)

		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "development", cfg.Runtime.Environment)
		assert.Equal(t, 0.5, cfg.Orchestrator.ConfidenceThreshold)
		assert.Equal(t, 3, cfg.Similarity.TopK)
		assert.Equal(t, "filesystem", cfg.Similarity.Provider)
	})

	t.Run("Should apply sources in precedence order", func(t *testing.T) {
		ctx := context.Background()
		loader := NewService()

		source1 := &mockSource{
			data: map[string]any{
				"server": map[string]any{
					"host": "source1.example.com",
					"port": 9001,
				},
			},
			sourceType: SourceYAML,
		}

		source2 := &mockSource{
			data: map[string]any{
				"server": map[string]any{
					"host": "source2.example.com",
					// Port not overridden, should keep source1 value
				},
			},
			sourceType: SourceCLI,
		}

		cfg, err := loader.Load(ctx, source1, source2)

		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "source2.example.com", cfg.Server.Host)
		assert.Equal(t, 9001, cfg.Server.Port)
	})

	t.Run("Should let environment variables override file sources", func(t *testing.T) {
		t.Setenv("VERDICT_SERVER_PORT", "9102")
		t.Setenv("VERDICT_ORCHESTRATOR_CONFIDENCE_THRESHOLD", "0.75")
		ctx := context.Background()
		loader := NewService()

		source := &mockSource{
			data: map[string]any{
				"server": map[string]any{"port": 9001},
			},
			sourceType: SourceYAML,
		}

		cfg, err := loader.Load(ctx, source)

		require.NoError(t, err)
		assert.Equal(t, 9102, cfg.Server.Port)
		assert.Equal(t, 0.75, cfg.Orchestrator.ConfidenceThreshold)
	})

	t.Run("Should decode secrets into SensitiveString", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-test-123")
		ctx := context.Background()
		loader := NewService()

		cfg, err := loader.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, "sk-test-123", cfg.LLM.APIKey.Value())
		assert.Equal(t, "[REDACTED]", cfg.LLM.APIKey.String())
	})

	t.Run("Should validate configuration after loading", func(t *testing.T) {
		ctx := context.Background()
		loader := NewService()

		source := &mockSource{
			data: map[string]any{
				"server": map[string]any{"port": 99999},
			},
			sourceType: SourceYAML,
		}

		cfg, err := loader.Load(ctx, source)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
		assert.Nil(t, cfg)
	})

	t.Run("Should handle nil sources gracefully", func(t *testing.T) {
		ctx := context.Background()
		loader := NewService()

		validSource := &mockSource{
			data: map[string]any{
				"server": map[string]any{"host": "valid.example.com"},
			},
			sourceType: SourceCLI,
		}

		cfg, err := loader.Load(ctx, nil, validSource, nil)

		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "valid.example.com", cfg.Server.Host)
	})

	t.Run("Should handle source loading errors", func(t *testing.T) {
		ctx := context.Background()
		loader := NewService()

		source := &mockSource{
			loadErr:    assert.AnError,
			sourceType: SourceCLI,
		}

		cfg, err := loader.Load(ctx, source)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load from source")
		assert.Nil(t, cfg)
	})
}

func TestLoader_Validate(t *testing.T) {
	t.Run("Should accept valid configuration", func(t *testing.T) {
		loader := NewService()
		cfg := Default()

		err := loader.Validate(cfg)

		assert.NoError(t, err)
	})

	t.Run("Should reject nil configuration", func(t *testing.T) {
		loader := NewService()

		err := loader.Validate(nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration cannot be nil")
	})

	t.Run("Should reject invalid struct tag validation", func(t *testing.T) {
		loader := NewService()
		cfg := Default()
		cfg.Server.Port = 0

		err := loader.Validate(cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("Should reject out-of-range confidence threshold", func(t *testing.T) {
		loader := NewService()
		cfg := Default()
		cfg.Orchestrator.ConfidenceThreshold = 1.5

		err := loader.Validate(cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("Should reject pgvector provider without conn string", func(t *testing.T) {
		loader := NewService()
		cfg := Default()
		cfg.Similarity.Provider = "pgvector"

		err := loader.Validate(cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires conn_string")
	})

	t.Run("Should reject chunk overlap larger than chunk size", func(t *testing.T) {
		loader := NewService()
		cfg := Default()
		cfg.Ingest.ChunkSize = 100
		cfg.Ingest.ChunkOverlap = 100

		err := loader.Validate(cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "chunk overlap must be smaller than chunk size")
	})

	t.Run("Should reject redis cache backend without redis url", func(t *testing.T) {
		loader := NewService()
		cfg := Default()
		cfg.Cache.Backend = "redis"

		err := loader.Validate(cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires redis_url")
	})
}

func TestLoader_GetSource(t *testing.T) {
	t.Run("Should track which source provided each key", func(t *testing.T) {
		ctx := context.Background()
		loader := NewService()

		source := &mockSource{
			data: map[string]any{
				"server": map[string]any{"host": "tracked.example.com"},
			},
			sourceType: SourceCLI,
		}

		_, err := loader.Load(ctx, source)
		require.NoError(t, err)

		assert.Equal(t, SourceCLI, loader.GetSource("server.host"))
		assert.Equal(t, SourceDefault, loader.GetSource("server.port"))
		assert.Equal(t, SourceDefault, loader.GetSource("nonexistent"))
	})
}

func TestLoader_Watch(t *testing.T) {
	t.Run("Should accept watch callbacks", func(t *testing.T) {
		ctx := context.Background()
		loader := NewService()
		called := false

		err := loader.Watch(ctx, func(*Config) { called = true })

		assert.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("Should reject nil callback", func(t *testing.T) {
		ctx := context.Background()
		loader := NewService()

		err := loader.Watch(ctx, nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "callback cannot be nil")
	})
}

// mockSource is a test implementation of the Source interface
type mockSource struct {
	data       map[string]any
	sourceType SourceType
	loadErr    error
}

func (m *mockSource) Load() (map[string]any, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data, nil
}

func (m *mockSource) Watch(_ context.Context, _ func()) error {
	return nil
}

func (m *mockSource) Type() SourceType {
	return m.sourceType
}

func (m *mockSource) Close() error {
	return nil
}

func TestTransformEnvKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Should strip the app prefix",
			input:    "VERDICT_GRAPH_SEED_PATH",
			expected: "graph.seed_path",
		},
		{
			name:     "Should handle standard environment variable",
			input:    "INGEST_CHUNK_OVERLAP",
			expected: "ingest.chunk_overlap",
		},
		{
			name:     "Should handle single part",
			input:    "PORT",
			expected: "port",
		},
		{
			name:     "Should handle empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "Should handle double underscore",
			input:    "FOO__BAR",
			expected: "foo.bar",
		},
		{
			name:     "Should handle leading underscore",
			input:    "_FOO_BAR",
			expected: "foo.bar",
		},
		{
			name:     "Should handle trailing underscore",
			input:    "FOO_BAR_",
			expected: "foo.bar",
		},
		{
			name:     "Should handle only underscores",
			input:    "___",
			expected: "",
		},
		{
			name:     "Should preserve underscores in nested parts",
			input:    "SERVER_SHUTDOWN_TIMEOUT",
			expected: "server.shutdown_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := transformEnvKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
