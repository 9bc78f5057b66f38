package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tour_guide_rag/src"
	"tour_guide_rag/src/model"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogueYAML = `
tours:
  - id: 1
    title: 경복궁 산책
    description: 광화문에서 시작하는 궁궐 산책 코스
    spots:
      - id: 11
        title: 근정전
        guideLines:
          - id: 101
            text: 근정전은 경복궁의 정전입니다.
`

// fakeEmbeddings returns a unit vector keyed on whether the input mentions 근정전.
func fakeEmbeddings(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Error(err)
			return
		}
		vec := "[0,1,0]"
		if strings.Contains(string(body), "근정전") {
			vec = "[1,0,0]"
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":` + vec + `}],"model":"text-embedding-3-small"}`))
	}))
}

func testConfig(t *testing.T, embeddingsURL string) *src.Config {
	t.Helper()
	return &src.Config{
		LLMConfig: model.LLMConfig{
			Provider:          "openai",
			OpenAIAPIKey:      "sk-test",
			OpenAIBaseURL:     embeddingsURL,
			OpenAIModel:       "gpt-4o-mini",
			EmbeddingDim:      3,
			EmbeddingMaxChars: 8000,
			EmbeddingTimeout:  5 * time.Second,
			MaxHistoryTurns:   20,
			Timeout:           5 * time.Second,
		},
		DatabaseConfig: model.DatabaseConfig{
			VectorBackend: "sqlite",
			SQLitePath:    filepath.Join(t.TempDir(), "knowledge.db"),
		},
		CacheConfig:  model.CacheConfig{Backend: "memory", TTL: time.Minute},
		EnrichConfig: model.EnrichConfig{MaxChars: 4000, RetrieverTimeout: 5 * time.Second},
	}
}

func run(t *testing.T, cfg *src.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	err := Execute(context.Background(), cfg)
	return out.String(), err
}

func TestIngestThenSearch(t *testing.T) {
	srv := fakeEmbeddings(t)
	defer srv.Close()
	cfg := testConfig(t, srv.URL)

	path := filepath.Join(t.TempDir(), "tours.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogueYAML), 0o644))

	out, err := run(t, cfg, "ingest", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"embeddingsCount":2}`, out)

	out, err = run(t, cfg, "search", "근정전", "--limit", "1")
	require.NoError(t, err)

	var contents []string
	require.NoError(t, sonic.Unmarshal([]byte(out), &contents))
	assert.Equal(t, []string{"[근정전] 근정전은 경복궁의 정전입니다."}, contents)
}

func TestIngestUnknownTour(t *testing.T) {
	srv := fakeEmbeddings(t)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "tours.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogueYAML), 0o644))

	_, err := run(t, testConfig(t, srv.URL), "ingest", path, "--tour", "99")
	assert.ErrorContains(t, err, "tour 99 not found")

	_, err = run(t, testConfig(t, srv.URL), "ingest", path, "--tour", "0")
	require.NoError(t, err)
}

func TestSearchWithoutStore(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.DatabaseConfig.SQLitePath = ""

	_, err := run(t, cfg, "search", "근정전")
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "경복궁", preview("  경복궁 ", 5))
	assert.Equal(t, "경복...", preview("경복궁", 2))
}
