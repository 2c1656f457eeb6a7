package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdicthq/verdict/engine/core"
)

func newTestBackend(t *testing.T) (*Backend, *Store) {
	t.Helper()
	store := newTestStore(t)
	store.AddNode("Aspirin", "Drug", core.Attributes{"description": "Common pain reliever"})
	store.AddNode("Headache", "Symptom", nil)
	store.AddNode("Fever", "Symptom", nil)
	store.AddEdge("Aspirin", "Headache", "treats", nil)
	store.AddEdge("Aspirin", "Fever", "reduces", nil)

	backend, err := NewBackend(store)
	require.NoError(t, err)
	return backend, store
}

func TestNewBackend(t *testing.T) {
	t.Run("ShouldRequireQuerier", func(t *testing.T) {
		_, err := NewBackend(nil)
		require.Error(t, err)
	})
}

func TestBackend_Query(t *testing.T) {
	ctx := context.Background()

	t.Run("ShouldAnswerDirectNodeMatch", func(t *testing.T) {
		backend, _ := newTestBackend(t)
		env, err := backend.Query(ctx, "Aspirin", nil)
		require.NoError(t, err)

		assert.False(t, env.IsError())
		assert.Equal(t, 0.7, env.Confidence)
		assert.Equal(t, BackendID, env.BackendID)
		assert.Contains(t, env.Answer, `"Aspirin"`)
		assert.Contains(t, env.Answer, "Common pain reliever")
		assert.Equal(t, "Node: Aspirin, Neighbors: [Headache, Fever]", env.Source.Text())
	})

	t.Run("ShouldLimitNeighborSummaryToThree", func(t *testing.T) {
		backend, store := newTestBackend(t)
		for _, target := range []string{"N1", "N2", "N3", "N4"} {
			store.AddEdge("Hub", target, "links", nil)
		}

		env, err := backend.Query(ctx, "Hub", nil)
		require.NoError(t, err)
		assert.Equal(t, "Node: Hub, Neighbors: [N1, N2, N3]", env.Source.Text())
	})

	t.Run("ShouldAnswerTreatsPattern", func(t *testing.T) {
		backend, _ := newTestBackend(t)
		env, err := backend.Query(ctx, "Aspirin treats Headache", nil)
		require.NoError(t, err)

		assert.Equal(t, 0.75, env.Confidence)
		assert.Equal(t, "Aspirin treats: Headache", env.Answer)
		assert.Contains(t, env.Answer, "Headache")
		assert.Equal(t, "KG: Aspirin-treats->?", env.Source.Text())
	})

	t.Run("ShouldMatchTreatsCaseInsensitively", func(t *testing.T) {
		backend, _ := newTestBackend(t)
		env, err := backend.Query(ctx, "aspirin TREATS headache", nil)
		require.NoError(t, err)

		assert.Equal(t, 0.75, env.Confidence)
		assert.Equal(t, "Aspirin treats: Headache", env.Answer)
	})

	t.Run("ShouldPreferNodeMatchOverTreatsPattern", func(t *testing.T) {
		backend, store := newTestBackend(t)
		store.AddNode("Aspirin treats Headache", "Statement", nil)

		env, err := backend.Query(ctx, "Aspirin treats Headache", nil)
		require.NoError(t, err)
		assert.Equal(t, 0.7, env.Confidence)
	})

	t.Run("ShouldSkipTreatsWhenSplitAmbiguous", func(t *testing.T) {
		backend, _ := newTestBackend(t)
		env, err := backend.Query(ctx, "what treats pain treats everything", nil)
		require.NoError(t, err)

		assert.Equal(t, 0.2, env.Confidence)
		assert.Equal(t, "Knowledge Graph", env.Source.Text())
	})

	t.Run("ShouldSkipTreatsWhenOneSideIsEmpty", func(t *testing.T) {
		backend, _ := newTestBackend(t)
		env, err := backend.Query(ctx, "treats Headache", nil)
		require.NoError(t, err)
		assert.Equal(t, 0.2, env.Confidence)
	})

	t.Run("ShouldFallThroughWhenTreatsSubjectUnknown", func(t *testing.T) {
		backend, _ := newTestBackend(t)
		env, err := backend.Query(ctx, "Turmeric treats inflammation", nil)
		require.NoError(t, err)
		assert.Equal(t, 0.2, env.Confidence)
	})

	t.Run("ShouldReturnUnresolvedForUnmatchedQuestion", func(t *testing.T) {
		backend, _ := newTestBackend(t)
		env, err := backend.Query(ctx, "What is the capital of France?", nil)
		require.NoError(t, err)

		assert.False(t, env.IsError())
		assert.Equal(t, 0.2, env.Confidence)
		assert.Equal(t, "Knowledge Graph", env.Source.Text())
		assert.Contains(t, env.Answer, "What is the capital of France?")
	})

	t.Run("ShouldRecoverFromPanickingQuerier", func(t *testing.T) {
		backend, err := NewBackend(panicQuerier{})
		require.NoError(t, err)

		env, err := backend.Query(ctx, "anything", nil)
		require.NoError(t, err)
		assert.True(t, env.IsError())
		assert.Equal(t, 0.0, env.Confidence)
		assert.Equal(t, BackendID, env.BackendID)
		assert.Contains(t, env.Error, "boom")
	})
}

type panicQuerier struct{}

func (panicQuerier) NodeAttributes(string) (core.Attributes, bool) { panic("boom") }
func (panicQuerier) Neighbors(string) []string                    { return nil }
func (panicQuerier) QueryGraph(string, string, string) []string   { return nil }
