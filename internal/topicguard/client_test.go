package topicguard_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindforum/internal/core"
	"mindforum/internal/topicguard"
)

func newClient(t *testing.T, baseURL string) *topicguard.Client {
	t.Helper()

	client := &topicguard.Client{
		Logger: slog.Default(),
		Config: &core.Config{TopicGuardURL: baseURL},
	}
	require.NoError(t, client.Init(t.Context()))
	t.Cleanup(func() { _ = client.Shutdown(t.Context()) })
	return client
}

func TestRebuildCentroid(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)

	err := client.RebuildCentroid(t.Context(), 7, []string{"galaxies", "nebulae"})
	require.NoError(t, err)

	assert.Equal(t, "PUT /v1/communities/7/centroid", gotPath)
	assert.Equal(t, []string{"galaxies", "nebulae"}, gotBody["texts"])
}

func TestScore(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/communities/7/score", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(core.TopicScore{Match: true, Score: 0.83})
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)

	score, err := client.Score(t.Context(), 7, "saturn at opposition")
	require.NoError(t, err)
	assert.Equal(t, core.TopicScore{Match: true, Score: 0.83}, score)
}

func TestRebuildCentroidRecoversFromTransientFailure(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)

	err := client.RebuildCentroid(t.Context(), 7, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestServerErrorSurfaces(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)

	err := client.RebuildCentroid(t.Context(), 7, []string{"x"})
	assert.ErrorIs(t, err, topicguard.ErrUnexpectedStatus)

	_, err = client.Score(t.Context(), 7, "x")
	assert.ErrorIs(t, err, topicguard.ErrUnexpectedStatus)
}
