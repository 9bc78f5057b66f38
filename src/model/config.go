package model

import (
	"strings"
	"time"
)

// ----------------------------------------------------
// ================ Config ================

// LogConfig holds logger settings
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	Format     string `envconfig:"LOG_FORMAT" default:"json"` // json, console
	Output     string `envconfig:"LOG_OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"LOG_FILE_PATH" default:"logs/tour_guide_rag.log"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"rfc3339"`
}

type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"PORT" default:"8000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LLMConfig selects the chat provider and its credentials
type LLMConfig struct {
	Provider          string        `envconfig:"LLM_PROVIDER" default:"openai"` // openai, ollama, ark, deepseek
	OpenAIAPIKey      string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel       string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL     string        `envconfig:"OPENAI_BASE_URL"`
	OllamaBaseURL     string        `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	OllamaModel       string        `envconfig:"OLLAMA_MODEL" default:"llama3.1"`
	ArkAPIKey         string        `envconfig:"ARK_API_KEY"`
	ArkModel          string        `envconfig:"ARK_MODEL"`
	DeepSeekAPIKey    string        `envconfig:"DEEPSEEK_API_KEY"`
	DeepSeekModel     string        `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
	MaxTokens         int           `envconfig:"CHAT_MAX_TOKENS" default:"300"`
	Temperature       float64       `envconfig:"CHAT_TEMPERATURE" default:"0.7"`
	MaxHistoryTurns   int           `envconfig:"CHAT_MAX_HISTORY_TURNS" default:"20"`
	Timeout           time.Duration `envconfig:"CHAT_TIMEOUT" default:"30s"`
	EmbeddingModel    string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDim      int           `envconfig:"EMBEDDING_DIM" default:"1536"`
	EmbeddingTimeout  time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"15s"`
	EmbeddingMaxChars int           `envconfig:"EMBEDDING_MAX_CHARS" default:"8000"`
}

// IsConfigured reports whether the selected provider has what it needs to be called.
func (c LLMConfig) IsConfigured() bool {
	switch strings.ToLower(c.Provider) {
	case "ollama":
		return strings.TrimSpace(c.OllamaBaseURL) != "" && strings.TrimSpace(c.OllamaModel) != ""
	case "ark":
		return strings.TrimSpace(c.ArkAPIKey) != "" && strings.TrimSpace(c.ArkModel) != ""
	case "deepseek":
		return strings.TrimSpace(c.DeepSeekAPIKey) != ""
	default:
		return strings.TrimSpace(c.OpenAIAPIKey) != ""
	}
}

// HasEmbeddingKey reports whether embeddings can be requested. Embeddings always go to OpenAI.
func (c LLMConfig) HasEmbeddingKey() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) != ""
}

type TourAPIConfig struct {
	ServiceKey string        `envconfig:"DATA_GO_KR_SERVICE_KEY"`
	BaseURL    string        `envconfig:"TOUR_API_BASE_URL" default:"http://apis.data.go.kr/B551011/KorService2"`
	Timeout    time.Duration `envconfig:"TOUR_API_TIMEOUT" default:"10s"`
}

func (c TourAPIConfig) IsConfigured() bool {
	return strings.TrimSpace(c.ServiceKey) != ""
}

// DatabaseConfig points at the knowledge table backend
type DatabaseConfig struct {
	URL              string        `envconfig:"DATABASE_URL"`
	VectorBackend    string        `envconfig:"VECTOR_BACKEND" default:"pgvector"` // pgvector, milvus, sqlite
	MilvusAddress    string        `envconfig:"MILVUS_ADDRESS"`
	MilvusCollection string        `envconfig:"MILVUS_COLLECTION" default:"tour_knowledge_embeddings"`
	SQLitePath       string        `envconfig:"SQLITE_PATH"`
	QueryTimeout     time.Duration `envconfig:"VECTOR_QUERY_TIMEOUT" default:"5s"`
}

// IsConfigured reports whether the chosen vector backend has a connection target.
func (c DatabaseConfig) IsConfigured() bool {
	switch strings.ToLower(c.VectorBackend) {
	case "milvus":
		return strings.TrimSpace(c.MilvusAddress) != ""
	case "sqlite":
		return strings.TrimSpace(c.SQLitePath) != ""
	default:
		return strings.TrimSpace(c.URL) != ""
	}
}

type CacheConfig struct {
	Backend  string        `envconfig:"CACHE_BACKEND" default:"memory"` // memory, redis
	RedisURL string        `envconfig:"REDIS_URL"`
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

type EnrichConfig struct {
	Parallel         bool          `envconfig:"ENRICH_PARALLEL" default:"false"`
	MaxChars         int           `envconfig:"ENRICH_MAX_CHARS" default:"4000"`
	RetrieverTimeout time.Duration `envconfig:"ENRICH_RETRIEVER_TIMEOUT" default:"20s"`
	TuningFile       string        `envconfig:"RAG_CONFIG_FILE"`
}
