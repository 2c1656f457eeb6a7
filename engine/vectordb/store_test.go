package vectordb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ID:        "primary",
			Provider:  ProviderFilesystem,
			Path:      "./vectors.json",
			Dimension: 4,
		}
	}

	t.Run("ShouldAcceptValidConfig", func(t *testing.T) {
		require.NoError(t, validateConfig(valid()))
	})

	t.Run("ShouldRejectNilConfig", func(t *testing.T) {
		require.Error(t, validateConfig(nil))
	})

	t.Run("ShouldRejectMissingID", func(t *testing.T) {
		cfg := valid()
		cfg.ID = "  "
		require.ErrorIs(t, validateConfig(cfg), errMissingID)
	})

	t.Run("ShouldRejectMissingProvider", func(t *testing.T) {
		cfg := valid()
		cfg.Provider = ""
		require.ErrorIs(t, validateConfig(cfg), errMissingProvider)
	})

	t.Run("ShouldRequirePathForFilesystem", func(t *testing.T) {
		cfg := valid()
		cfg.Path = ""
		require.ErrorIs(t, validateConfig(cfg), errMissingPath)
	})

	t.Run("ShouldRequireDSNForPGVector", func(t *testing.T) {
		cfg := valid()
		cfg.Provider = ProviderPGVector
		cfg.DSN = ""
		require.ErrorIs(t, validateConfig(cfg), errMissingDSN)
	})

	t.Run("ShouldRequireDSNForRedis", func(t *testing.T) {
		cfg := valid()
		cfg.Provider = ProviderRedis
		cfg.DSN = "   "
		require.ErrorIs(t, validateConfig(cfg), errMissingDSN)
	})

	t.Run("ShouldRejectZeroDimension", func(t *testing.T) {
		cfg := valid()
		cfg.Dimension = 0
		require.ErrorIs(t, validateConfig(cfg), errInvalidDimension)
	})

	t.Run("ShouldRejectNegativeMaxTopK", func(t *testing.T) {
		cfg := valid()
		cfg.MaxTopK = -1
		require.Error(t, validateConfig(cfg))
	})

	t.Run("ShouldTrimDSNAndPath", func(t *testing.T) {
		cfg := valid()
		cfg.Path = "  ./vectors.json  "
		require.NoError(t, validateConfig(cfg))
		assert.Equal(t, "./vectors.json", cfg.Path)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("ShouldBuildFilesystemStore", func(t *testing.T) {
		cfg := &Config{
			ID:        "primary",
			Provider:  ProviderFilesystem,
			Path:      filepath.Join(t.TempDir(), "vectors.json"),
			Dimension: 4,
		}
		store, err := New(ctx, cfg)
		require.NoError(t, err)
		require.NotNil(t, store)
		require.NoError(t, store.Close(ctx))
	})

	t.Run("ShouldRejectUnsupportedProvider", func(t *testing.T) {
		cfg := &Config{ID: "primary", Provider: "qdrant", Dimension: 4}
		_, err := New(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not supported")
	})
}

func TestClampTopK(t *testing.T) {
	t.Run("ShouldDefaultWhenUnset", func(t *testing.T) {
		assert.Equal(t, defaultTopK, clampTopK(0, 0))
		assert.Equal(t, defaultTopK, clampTopK(-3, 0))
	})

	t.Run("ShouldClampToMax", func(t *testing.T) {
		assert.Equal(t, 10, clampTopK(25, 10))
	})

	t.Run("ShouldKeepWithinMax", func(t *testing.T) {
		assert.Equal(t, 3, clampTopK(3, 10))
	})

	t.Run("ShouldIgnoreZeroMax", func(t *testing.T) {
		assert.Equal(t, 25, clampTopK(25, 0))
	})
}

func TestCosineDistance(t *testing.T) {
	t.Run("ShouldMeasureZeroForAlignedVectors", func(t *testing.T) {
		assert.InDelta(t, 0, cosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-6)
	})

	t.Run("ShouldMeasureOneForOrthogonalVectors", func(t *testing.T) {
		assert.InDelta(t, 1, cosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-6)
	})

	t.Run("ShouldMeasureTwoForOppositeVectors", func(t *testing.T) {
		assert.InDelta(t, 2, cosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	})

	t.Run("ShouldTreatZeroVectorAsMaximallyDistant", func(t *testing.T) {
		assert.InDelta(t, 1, cosineDistance([]float32{0, 0}, []float32{1, 0}), 1e-6)
	})
}

func TestMetadataMatches(t *testing.T) {
	t.Run("ShouldMatchWhenFiltersEmpty", func(t *testing.T) {
		assert.True(t, metadataMatches(nil, nil))
		assert.True(t, metadataMatches(map[string]any{"a": 1}, nil))
	})

	t.Run("ShouldMatchStringValues", func(t *testing.T) {
		meta := map[string]any{"source": "doc.txt"}
		assert.True(t, metadataMatches(meta, map[string]string{"source": "doc.txt"}))
		assert.False(t, metadataMatches(meta, map[string]string{"source": "other.txt"}))
	})

	t.Run("ShouldCompareNonStringValuesByPrintForm", func(t *testing.T) {
		meta := map[string]any{"chunk_index": 7}
		assert.True(t, metadataMatches(meta, map[string]string{"chunk_index": "7"}))
	})

	t.Run("ShouldRejectMissingKeys", func(t *testing.T) {
		assert.False(t, metadataMatches(map[string]any{}, map[string]string{"source": "doc.txt"}))
	})
}
