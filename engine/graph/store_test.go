package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdicthq/verdict/engine/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), &Config{})
	require.NoError(t, err)
	return store
}

func TestNewStore(t *testing.T) {
	t.Run("ShouldRequireConfig", func(t *testing.T) {
		_, err := NewStore(context.Background(), nil)
		require.Error(t, err)
	})

	t.Run("ShouldStartEmptyWhenSnapshotMissing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "graph.json")
		store, err := NewStore(context.Background(), &Config{Path: path})
		require.NoError(t, err)
		assert.Equal(t, Stats{}, store.Stats())
	})

	t.Run("ShouldStartEmptyWhenSnapshotCorrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "graph.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		store, err := NewStore(context.Background(), &Config{Path: path})
		require.NoError(t, err)
		assert.Equal(t, Stats{}, store.Stats())
	})
}

func TestStore_AddNode(t *testing.T) {
	t.Run("ShouldMergeAttributesAndKeepFirstType", func(t *testing.T) {
		store := newTestStore(t)
		store.AddNode("Aspirin", "Drug", core.Attributes{"description": "Common pain reliever"})
		store.AddNode("Aspirin", "Condition", core.Attributes{"class": "NSAID"})

		attrs, ok := store.NodeAttributes("Aspirin")
		require.True(t, ok)
		assert.Equal(t, "Drug", attrs["type"])
		assert.Equal(t, "Common pain reliever", attrs["description"])
		assert.Equal(t, "NSAID", attrs["class"])
		assert.Equal(t, Stats{Nodes: 1}, store.Stats())
	})

	t.Run("ShouldSetTypeWhenNodeHasNone", func(t *testing.T) {
		store := newTestStore(t)
		store.AddNode("Fever", "", nil)

		attrs, ok := store.NodeAttributes("Fever")
		require.True(t, ok)
		_, hasType := attrs["type"]
		assert.False(t, hasType)

		store.AddNode("Fever", "Symptom", nil)
		attrs, _ = store.NodeAttributes("Fever")
		assert.Equal(t, "Symptom", attrs["type"])
	})

	t.Run("ShouldHandOutAttributeCopies", func(t *testing.T) {
		store := newTestStore(t)
		store.AddNode("Aspirin", "Drug", nil)

		attrs, _ := store.NodeAttributes("Aspirin")
		attrs["type"] = "Tampered"

		fresh, _ := store.NodeAttributes("Aspirin")
		assert.Equal(t, "Drug", fresh["type"])
	})

	t.Run("ShouldReportMissingNode", func(t *testing.T) {
		store := newTestStore(t)
		attrs, ok := store.NodeAttributes("nope")
		assert.False(t, ok)
		assert.Nil(t, attrs)
		assert.False(t, store.HasNode("nope"))
	})
}

func TestStore_AddEdge(t *testing.T) {
	t.Run("ShouldCreateMissingEndpointsAsUnknown", func(t *testing.T) {
		store := newTestStore(t)
		store.AddEdge("Aspirin", "Headache", "treats", nil)

		for _, id := range []string{"Aspirin", "Headache"} {
			attrs, ok := store.NodeAttributes(id)
			require.True(t, ok, id)
			assert.Equal(t, UnknownNodeType, attrs["type"])
		}
		assert.Equal(t, Stats{Nodes: 2, Edges: 1}, store.Stats())
	})

	t.Run("ShouldReplaceSameKeyEdgeInPlace", func(t *testing.T) {
		store := newTestStore(t)
		store.AddEdge("Aspirin", "Headache", "treats", core.Attributes{"dosage": "500mg"})
		store.AddEdge("Aspirin", "Inflammation", "treats", nil)
		store.AddEdge("Aspirin", "Headache", "treats", core.Attributes{"dosage": "1000mg"})

		assert.Equal(t, 2, store.Stats().Edges)
		assert.Equal(t, []string{"Headache", "Inflammation"}, store.QueryGraph("Aspirin", "treats", ""))

		attrs, ok := store.EdgeAttributes("Aspirin", "Headache", "treats")
		require.True(t, ok)
		assert.Equal(t, "1000mg", attrs["dosage"])
	})

	t.Run("ShouldKeepParallelEdgesWithDistinctLabels", func(t *testing.T) {
		store := newTestStore(t)
		store.AddEdge("Aspirin", "Fever", "treats", nil)
		store.AddEdge("Aspirin", "Fever", "reduces", nil)

		assert.Equal(t, 2, store.Stats().Edges)
		assert.Equal(t, []string{"Fever", "Fever"}, store.QueryGraph("Aspirin", "", ""))
		assert.Equal(t, []string{"Fever"}, store.Neighbors("Aspirin"))
	})
}

func TestStore_Neighbors(t *testing.T) {
	t.Run("ShouldReturnDistinctSuccessorsInInsertionOrder", func(t *testing.T) {
		store := newTestStore(t)
		store.AddEdge("Aspirin", "Headache", "treats", nil)
		store.AddEdge("Aspirin", "Fever", "reduces", nil)
		store.AddEdge("Aspirin", "Headache", "relieves", nil)

		assert.Equal(t, []string{"Headache", "Fever"}, store.Neighbors("Aspirin"))
	})

	t.Run("ShouldReturnEmptyForUnknownNode", func(t *testing.T) {
		store := newTestStore(t)
		assert.Empty(t, store.Neighbors("nope"))
	})
}

func TestStore_QueryGraph(t *testing.T) {
	buildStore := func(t *testing.T) *Store {
		store := newTestStore(t)
		store.AddNode("Aspirin", "Drug", nil)
		store.AddNode("Headache", "Symptom", nil)
		store.AddNode("Fever", "Symptom", nil)
		store.AddNode("Inflammation", "Condition", nil)
		store.AddEdge("Aspirin", "Headache", "treats", nil)
		store.AddEdge("Aspirin", "Fever", "reduces", nil)
		store.AddEdge("Aspirin", "Inflammation", "treats", nil)
		return store
	}

	t.Run("ShouldFilterByRelationshipInInsertionOrder", func(t *testing.T) {
		store := buildStore(t)
		assert.Equal(t, []string{"Headache", "Inflammation"}, store.QueryGraph("Aspirin", "treats", ""))
	})

	t.Run("ShouldMatchAnyRelationshipWhenEmpty", func(t *testing.T) {
		store := buildStore(t)
		assert.Equal(t,
			[]string{"Headache", "Fever", "Inflammation"},
			store.QueryGraph("Aspirin", "", ""))
	})

	t.Run("ShouldFilterByTargetType", func(t *testing.T) {
		store := buildStore(t)
		assert.Equal(t, []string{"Headache"}, store.QueryGraph("Aspirin", "treats", "Symptom"))
		assert.Equal(t, []string{"Headache", "Fever"}, store.QueryGraph("Aspirin", "", "Symptom"))
	})

	t.Run("ShouldReturnEmptyForMissingStart", func(t *testing.T) {
		store := buildStore(t)
		assert.Empty(t, store.QueryGraph("Turmeric", "treats", ""))
	})
}

func TestStore_AddTriplets(t *testing.T) {
	t.Run("ShouldSkipInvalidRows", func(t *testing.T) {
		store := newTestStore(t)
		added := store.AddTriplets(context.Background(), [][]any{
			{"Aspirin", "treats", "Headache"},
			{"Ibuprofen", "Drug", "reduces", "Fever", "Symptom"},
			{"Paracetamol", "Drug", "reduces", "Fever", "Symptom", map[string]any{"dosage_adult": "500-1000mg"}},
			{"bad", "row"},
			{"x", 42, "y"},
		})

		assert.Equal(t, 3, added)
		assert.Equal(t, Stats{Nodes: 5, Edges: 3}, store.Stats())
	})

	t.Run("ShouldApplyTypesAndEdgeAttributes", func(t *testing.T) {
		store := newTestStore(t)
		store.AddTriplets(context.Background(), [][]any{
			{"Aspirin", "treats", "Headache"},
			{"Paracetamol", "Drug", "reduces", "Fever", "Symptom", map[string]any{"dosage_adult": "500-1000mg"}},
		})

		attrs, ok := store.NodeAttributes("Paracetamol")
		require.True(t, ok)
		assert.Equal(t, "Drug", attrs["type"])

		attrs, ok = store.NodeAttributes("Headache")
		require.True(t, ok)
		_, hasType := attrs["type"]
		assert.False(t, hasType)

		edgeAttrs, ok := store.EdgeAttributes("Paracetamol", "Fever", "reduces")
		require.True(t, ok)
		assert.Equal(t, "500-1000mg", edgeAttrs["dosage_adult"])
	})
}

func TestStore_SaveLoad(t *testing.T) {
	t.Run("ShouldRoundTripThroughSnapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "graph.json")
		store, err := NewStore(context.Background(), &Config{Path: path})
		require.NoError(t, err)

		store.AddNode("Aspirin", "Drug", core.Attributes{"description": "Common pain reliever"})
		store.AddEdge("Aspirin", "Headache", "treats", core.Attributes{"dosage": "500mg"})
		store.AddEdge("Aspirin", "Fever", "reduces", nil)
		require.NoError(t, store.Save())

		reloaded, err := NewStore(context.Background(), &Config{Path: path})
		require.NoError(t, err)
		assert.Equal(t, store.Stats(), reloaded.Stats())
		assert.Equal(t, []string{"Headache", "Fever"}, reloaded.Neighbors("Aspirin"))

		attrs, ok := reloaded.NodeAttributes("Aspirin")
		require.True(t, ok)
		assert.Equal(t, "Drug", attrs["type"])
		assert.Equal(t, "Common pain reliever", attrs["description"])

		attrs, ok = reloaded.NodeAttributes("Headache")
		require.True(t, ok)
		assert.Equal(t, UnknownNodeType, attrs["type"])

		edgeAttrs, ok := reloaded.EdgeAttributes("Aspirin", "Headache", "treats")
		require.True(t, ok)
		assert.Equal(t, "500mg", edgeAttrs["dosage"])
	})

	t.Run("ShouldResetStateOnLoad", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "graph.json")
		store, err := NewStore(context.Background(), &Config{Path: path})
		require.NoError(t, err)

		store.AddNode("Transient", "Drug", nil)
		require.True(t, store.HasNode("Transient"))

		require.NoError(t, store.Load(context.Background()))
		assert.False(t, store.HasNode("Transient"))
	})

	t.Run("ShouldFailSaveWithoutPath", func(t *testing.T) {
		store := newTestStore(t)
		require.Error(t, store.Save())
	})
}
