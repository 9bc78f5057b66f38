package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions"`
}

func TestEmbedRequestShape(t *testing.T) {
	var got embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}],"model":"text-embedding-3-small","usage":{"prompt_tokens":1,"total_tokens":1}}`))
	}))
	defer srv.Close()

	e := NewOpenAI(Config{APIKey: "sk-test", BaseURL: srv.URL, MaxChars: 10})

	vec, err := e.Embed(context.Background(), strings.Repeat("경", 20))
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "text-embedding-3-small", got.Model)
	assert.Equal(t, 1536, got.Dimensions)
	assert.Equal(t, 10, utf8.RuneCountInString(got.Input))
	assert.Equal(t, 1536, e.Dimensions())
}

func TestEmbedWithoutKey(t *testing.T) {
	_, err := NewOpenAI(Config{}).Embed(context.Background(), "경복궁")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestEmbedEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[],"model":"text-embedding-3-small"}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL}).Embed(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrEmpty))
}

func TestEmbedProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL}).Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "create embedding")
}
