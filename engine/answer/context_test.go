package answer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verdicthq/verdict/engine/answer"
)

func TestQueryContext_Append(t *testing.T) {
	t.Run("Should accumulate envelopes in order", func(t *testing.T) {
		qctx := answer.NewQueryContext("q")

		qctx.Append(answer.New("a1", 0.5, answer.TextSource("s1"), "b1"))
		qctx.Append(answer.NewError("boom", answer.TextSource("b2"), "b2"))

		collected := qctx.Collected()
		assert.Len(t, collected, 2)
		assert.Equal(t, "b1", collected[0].BackendID)
		assert.True(t, collected[1].IsError())
	})

	t.Run("Should copy on Collected", func(t *testing.T) {
		qctx := answer.NewQueryContext("q")
		qctx.Append(answer.New("a", 0.5, answer.TextSource("s"), "b"))

		collected := qctx.Collected()
		collected[0] = answer.Envelope{}

		assert.Equal(t, "b", qctx.Envelopes[0].BackendID)
	})

	t.Run("Should return nil when nothing collected", func(t *testing.T) {
		assert.Nil(t, answer.NewQueryContext("q").Collected())
	})
}

func TestQueryContext_BackendMeta(t *testing.T) {
	t.Run("Should return the sub-mapping for a backend", func(t *testing.T) {
		qctx := answer.NewQueryContext("q").WithMeta(map[string]any{
			"vector": map[string]any{"k": 5},
		})

		meta := qctx.BackendMeta("vector")
		assert.Equal(t, 5, meta["k"])
	})

	t.Run("Should return nil for unknown backend", func(t *testing.T) {
		qctx := answer.NewQueryContext("q").WithMeta(map[string]any{})
		assert.Nil(t, qctx.BackendMeta("missing"))
	})

	t.Run("Should return nil when meta is not a mapping", func(t *testing.T) {
		qctx := answer.NewQueryContext("q").WithMeta(map[string]any{"vector": 42})
		assert.Nil(t, qctx.BackendMeta("vector"))
	})

	t.Run("Should tolerate nil context", func(t *testing.T) {
		var qctx *answer.QueryContext
		assert.Nil(t, qctx.BackendMeta("any"))
	})
}
