package wiki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdicthq/verdict/engine/answer"
)

func TestNewBackend(t *testing.T) {
	t.Run("Should require a searcher", func(t *testing.T) {
		_, err := NewBackend(nil, 0.6)
		require.ErrorContains(t, err, "searcher is required")
	})
	t.Run("Should reject confidence outside the unit range", func(t *testing.T) {
		fake := &fakeWiki{}
		searcher := newTestSearcher(t, fake)
		_, err := NewBackend(searcher, 1.2)
		require.ErrorContains(t, err, "outside [0,1]")
		_, err = NewBackend(searcher, -0.1)
		require.ErrorContains(t, err, "outside [0,1]")
	})
}

func TestBackend_Query(t *testing.T) {
	t.Run("Should report its identifier", func(t *testing.T) {
		fake := &fakeWiki{}
		backend, err := NewBackend(newTestSearcher(t, fake), 0.6)
		require.NoError(t, err)
		assert.Equal(t, BackendID, backend.ID())
	})
	t.Run("Should wrap a found summary in an envelope", func(t *testing.T) {
		fake := &fakeWiki{
			titles:  []string{"Carotid artery stenosis"},
			extract: "Stenosis narrows the carotid artery.",
		}
		backend, err := NewBackend(newTestSearcher(t, fake), 0.6)
		require.NoError(t, err)
		env, err := backend.Query(context.Background(), "carotid stenosis", answer.NewQueryContext("carotid stenosis"))
		require.NoError(t, err)
		assert.Equal(t, "**Wikipedia - Carotid artery stenosis**\n\nStenosis narrows the carotid artery.", env.Answer)
		assert.InDelta(t, 0.6, env.Confidence, 1e-9)
		assert.Equal(t, answer.TextSource("Wikipedia"), env.Source)
		assert.Equal(t, BackendID, env.BackendID)
		assert.False(t, env.IsError())
	})
	t.Run("Should degrade an empty lookup to a low confidence envelope", func(t *testing.T) {
		fake := &fakeWiki{titles: []string{}}
		backend, err := NewBackend(newTestSearcher(t, fake), 0.6)
		require.NoError(t, err)
		env, err := backend.Query(context.Background(), "obscure topic", answer.NewQueryContext("obscure topic"))
		require.NoError(t, err)
		assert.Equal(t, noArticleAnswer, env.Answer)
		assert.InDelta(t, emptyResultConfidence, env.Confidence, 1e-9)
		assert.Equal(t, answer.TextSource("Wikipedia"), env.Source)
		assert.False(t, env.IsError())
	})
	t.Run("Should recover from panics with an error envelope", func(t *testing.T) {
		backend := &Backend{searcher: &Searcher{}, confidence: 0.6}
		env, err := backend.Query(context.Background(), "anything", answer.NewQueryContext("anything"))
		require.NoError(t, err)
		assert.True(t, env.IsError())
		assert.Contains(t, env.Error, "wikipedia lookup failed")
		assert.Equal(t, answer.TextSource("System"), env.Source)
		assert.Equal(t, BackendID, env.BackendID)
		assert.Zero(t, env.Confidence)
	})
}
