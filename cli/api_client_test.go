package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdicthq/verdict/engine/answer"
	"github.com/verdicthq/verdict/pkg/config"
)

func clientFor(t *testing.T, serverURL string) *APIClient {
	t.Helper()
	cfg := config.Default()
	cfg.CLI.BaseURL = serverURL
	client, err := NewAPIClient(cfg)
	require.NoError(t, err)
	return client
}

func TestAPIClient_Ask(t *testing.T) {
	t.Run("Should decode the response envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/v1/questions", r.URL.Path)
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "What treats a headache?", req["question"])
			env := answer.New("Aspirin.", 0.75, answer.TextSource("KG"), "knowledge-graph")
			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(env))
		}))
		defer server.Close()

		client := clientFor(t, server.URL)
		env, err := client.Ask(context.Background(), "What treats a headache?", false)
		require.NoError(t, err)
		assert.Equal(t, "Aspirin.", env.Answer)
		assert.InDelta(t, 0.75, env.Confidence, 1e-9)
		assert.Equal(t, "knowledge-graph", env.BackendID)
	})
	t.Run("Should surface problem documents as errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":400,"error":"Bad Request","details":"question is required"}`))
		}))
		defer server.Close()

		client := clientFor(t, server.URL)
		_, err := client.Ask(context.Background(), "", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "question is required")
	})
}

func TestAPIClient_Routes(t *testing.T) {
	t.Run("Should decode the route list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v1/routes", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"routes":[{"question":"What drugs treat Headache?","start_node":"Headache","relationship":"treats","target_type":"Drug"}],"count":1}`))
		}))
		defer server.Close()

		client := clientFor(t, server.URL)
		routes, err := client.Routes(context.Background())
		require.NoError(t, err)
		require.Len(t, routes, 1)
		assert.Equal(t, "Headache", routes[0].StartNode)
	})
}

func TestRootCmd(t *testing.T) {
	t.Run("Should register every subcommand", func(t *testing.T) {
		root := RootCmd()
		names := make([]string, 0, len(root.Commands()))
		for _, sub := range root.Commands() {
			names = append(names, sub.Name())
		}
		for _, expected := range []string{"serve", "ask", "chat", "ingest", "routes", "init", "version"} {
			assert.Contains(t, names, expected)
		}
	})
}
