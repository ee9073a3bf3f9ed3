package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

func embeddingsResponse(vectors [][]float64) map[string]interface{} {
	data := make([]map[string]interface{}, len(vectors))
	for i, v := range vectors {
		data[i] = map[string]interface{}{
			"object":    "embedding",
			"index":     i,
			"embedding": v,
		}
	}
	return map[string]interface{}{
		"object": "list",
		"data":   data,
		"model":  "mistral-embed",
		"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(ClientConfig{
		APIKey:        "test-key",
		BaseURL:       srv.URL + "/v1",
		Model:         "mistral-embed",
		Dimensions:    4,
		MaxInputChars: 50,
	})
}

func TestClientEmbed_Success(t *testing.T) {
	var gotReq embeddingsRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embeddingsResponse([][]float64{{0.25, 0.5, -0.25, 1}}))
	})

	vector, err := client.Embed(context.Background(), "responsabilité civile")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.5, -0.25, 1}, vector)
	assert.Equal(t, "mistral-embed", gotReq.Model)
	require.Len(t, gotReq.Input, 1)
	assert.Equal(t, "responsabilité civile", gotReq.Input[0])
}

func TestClientEmbed_TruncatesLongInput(t *testing.T) {
	var gotReq embeddingsRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embeddingsResponse([][]float64{{1, 2, 3, 4}}))
	})

	_, err := client.Embed(context.Background(), strings.Repeat("a", 500))
	require.NoError(t, err)
	require.Len(t, gotReq.Input, 1)
	assert.Len(t, gotReq.Input[0], 50)
}

func TestClientEmbed_EmptyInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	})

	_, err := client.Embed(context.Background(), "   ")
	require.Error(t, err)
}

func TestClientEmbed_AuthError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	})

	_, err := client.Embed(context.Background(), "article 1240")
	assert.ErrorIs(t, err, ErrAuth)
}

func TestClientEmbed_RateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"requests"}}`))
	})

	_, err := client.Embed(context.Background(), "article 1240")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestClientEmbed_ServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
	})

	_, err := client.Embed(context.Background(), "article 1240")
	assert.ErrorIs(t, err, ErrTransient)
}

func TestClientEmbed_DimensionMismatchIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embeddingsResponse([][]float64{{0.1, 0.2}}))
	})

	_, err := client.Embed(context.Background(), "article 1240")
	assert.ErrorIs(t, err, ErrTransient)
}

func TestClientEmbed_CountMismatchIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embeddingsResponse([][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}}))
	})

	_, err := client.Embed(context.Background(), "article 1240")
	assert.ErrorIs(t, err, ErrTransient)
}
