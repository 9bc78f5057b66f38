// Package app builds the long-lived components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tour_guide_rag/internal/cache"
	"tour_guide_rag/internal/chat"
	"tour_guide_rag/internal/config"
	"tour_guide_rag/internal/embedding"
	"tour_guide_rag/internal/enrich"
	"tour_guide_rag/internal/geocode"
	"tour_guide_rag/internal/httpx"
	"tour_guide_rag/internal/ingest"
	"tour_guide_rag/internal/keyword"
	"tour_guide_rag/internal/retriever"
	"tour_guide_rag/internal/tourapi"
	"tour_guide_rag/internal/vectorstore"
	"tour_guide_rag/internal/weather"
	"tour_guide_rag/src"
	"tour_guide_rag/src/logger"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// App holds one instance of every component for the life of the process.
type App struct {
	Config *src.Config
	Tuning *config.YAMLConfig

	Cache        cache.Cache
	Geocoder     *geocode.Geocoder
	Forecast     *weather.Client
	TourAPI      *tourapi.Client
	Embedder     embedding.Embedder
	Store        vectorstore.Store
	Retrievers   []retriever.Retriever
	Search       *retriever.Vector
	Orchestrator *enrich.Orchestrator
	Chat         *chat.Service
	Syncer       *ingest.Syncer

	log zerolog.Logger
}

// New wires the components. Optional backends that are not configured or not
// reachable are left out and logged; only a broken tuning file or chain fails.
func New(ctx context.Context, cfg *src.Config) (*App, error) {
	tuning, err := config.LoadOptional(cfg.EnrichConfig.TuningFile)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Tuning: tuning, log: logger.With("app")}
	a.Cache = a.buildCache(ctx)

	geoHTTP := httpx.New(httpx.Options{
		Timeout:   config.DurationOr(tuning.Timeouts.Geocode, geocode.DefaultTimeout),
		UserAgent: geocode.UserAgent,
	})
	a.Geocoder = geocode.New(
		[]geocode.Provider{geocode.NewOpenMeteo(geoHTTP), geocode.NewNominatim(geoHTTP)},
		geocode.WithCache(a.Cache),
		geocode.WithProfile(keyword.LocationProfile.WithStopwords(tuning.Keywords.Stopwords...)),
		geocode.WithLogger(logger.With("geocode")),
	)

	a.Forecast = weather.NewClient(httpx.New(httpx.Options{
		Timeout:   config.DurationOr(tuning.Timeouts.Weather, weather.DefaultTimeout),
		UserAgent: httpx.BrowserUserAgent,
	}))

	a.TourAPI = tourapi.NewClient(cfg.TourAPIConfig.ServiceKey, httpx.New(httpx.Options{
		Timeout:   config.DurationOr(tuning.Timeouts.TourAPI, cfg.TourAPIConfig.Timeout),
		UserAgent: httpx.BrowserUserAgent,
	}), logger.With("tourapi"))
	if cfg.TourAPIConfig.BaseURL != "" {
		a.TourAPI.BaseURL = cfg.TourAPIConfig.BaseURL
	}

	if cfg.LLMConfig.HasEmbeddingKey() {
		a.Embedder = embedding.NewOpenAI(embedding.Config{
			APIKey:     cfg.LLMConfig.OpenAIAPIKey,
			BaseURL:    cfg.LLMConfig.OpenAIBaseURL,
			Model:      cfg.LLMConfig.EmbeddingModel,
			Dimensions: cfg.LLMConfig.EmbeddingDim,
			MaxChars:   cfg.LLMConfig.EmbeddingMaxChars,
			Timeout:    config.DurationOr(tuning.Timeouts.Embedding, cfg.LLMConfig.EmbeddingTimeout),
		})
	}

	store, err := vectorstore.Open(ctx, cfg.DatabaseConfig, cfg.LLMConfig.EmbeddingDim, logger.With("vectorstore"))
	switch {
	case errors.Is(err, vectorstore.ErrNotConfigured):
		a.log.Info().Str("backend", cfg.DatabaseConfig.VectorBackend).Msg("vector store not configured")
	case err != nil:
		a.log.Warn().Err(err).Str("backend", cfg.DatabaseConfig.VectorBackend).Msg("vector store unavailable")
	default:
		a.Store = store
	}

	a.Retrievers = a.buildRetrievers(a.Forecast)
	a.Orchestrator = enrich.New(a.Retrievers, enrich.Options{
		Parallel:         cfg.EnrichConfig.Parallel,
		MaxChars:         cfg.EnrichConfig.MaxChars,
		RetrieverTimeout: config.DurationOr(tuning.Timeouts.Retriever, cfg.EnrichConfig.RetrieverTimeout),
		Log:              logger.With("enrich"),
	})

	cm, err := chat.NewChatModel(ctx, cfg.LLMConfig)
	if err != nil && !errors.Is(err, chat.ErrDisabled) {
		_ = a.Close()
		return nil, err
	}
	if errors.Is(err, chat.ErrDisabled) {
		a.log.Warn().Str("provider", cfg.LLMConfig.Provider).Msg("chat model not configured, AI guide disabled")
	}
	a.Chat, err = chat.NewService(ctx, cm, a.Orchestrator, chat.Options{
		MaxHistoryTurns: cfg.LLMConfig.MaxHistoryTurns,
		Timeout:         cfg.LLMConfig.Timeout,
		Log:             logger.With("chat"),
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var writer ingest.Writer
	if a.Store != nil {
		writer = a.Store
	}
	a.Syncer = ingest.NewSyncer(a.Embedder, writer, cfg.LLMConfig.HasEmbeddingKey(), logger.With("ingest"))

	names := make([]string, 0, len(a.Retrievers))
	for _, r := range a.Retrievers {
		names = append(names, r.Name())
	}
	a.log.Info().
		Strs("retrievers", names).
		Bool("chat_enabled", a.Chat.Enabled()).
		Bool("vector_store", a.Store != nil).
		Msg("application initialized")
	return a, nil
}

func (a *App) buildCache(ctx context.Context) cache.Cache {
	cc := a.Config.CacheConfig
	if strings.EqualFold(cc.Backend, "redis") {
		rc, err := cache.NewRedisCache(ctx, cc.RedisURL, cc.TTL)
		if err == nil {
			a.log.Info().Msg("using redis cache")
			return rc
		}
		a.log.Warn().Err(err).Msg("redis cache unavailable, falling back to memory")
	}
	return cache.NewMemoryCache(cc.TTL)
}

// buildRetrievers returns the retrievers in consultation order: weather,
// knowledge, vector. The tuning file may drop some of them.
func (a *App) buildRetrievers(forecast *weather.Client) []retriever.Retriever {
	t := a.Tuning
	ttl := a.Config.CacheConfig.TTL

	w := retriever.NewWeather(a.Geocoder, forecast, a.Cache, logger.With("retriever.weather"))
	w.CacheTTL = ttl
	w.Keywords = append(append([]string(nil), retriever.WeatherKeywords...), t.Keywords.Weather...)

	k := retriever.NewKnowledge(a.TourAPI, a.Cache, logger.With("retriever.knowledge"))
	k.CacheTTL = ttl
	k.Profile = keyword.SearchProfile.WithStopwords(t.Keywords.Stopwords...)

	var all []retriever.Retriever
	all = append(all, w, k)
	if a.Store != nil && a.Embedder != nil {
		v := retriever.NewVector(a.Embedder, a.Store)
		v.Keywords = append(append([]string(nil), retriever.KnowledgeKeywords...), t.Keywords.Knowledge...)
		a.Search = v
		all = append(all, v)
	}

	enabled := make([]retriever.Retriever, 0, len(all))
	for _, r := range all {
		if t.RetrieverEnabled(r.Name()) {
			enabled = append(enabled, r)
		}
	}
	return enabled
}

// Close releases the cache and the vector store.
func (a *App) Close() error {
	var errs *multierror.Error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close vector store: %w", err))
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	return errs.ErrorOrNil()
}
