package retriever

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tour_guide_rag/internal/cache"
	"tour_guide_rag/internal/keyword"
	"tour_guide_rag/internal/tourapi"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// InfoFetcher looks up a place record by keyword.
type InfoFetcher interface {
	Configured() bool
	FetchInfo(ctx context.Context, keyword string) (*tourapi.Info, error)
}

// Knowledge fetches the public tourism record of the place being discussed.
type Knowledge struct {
	Fetcher  InfoFetcher
	Cache    cache.Cache
	CacheTTL time.Duration
	Profile  keyword.Profile
	Log      zerolog.Logger
}

func NewKnowledge(f InfoFetcher, c cache.Cache, log zerolog.Logger) *Knowledge {
	return &Knowledge{
		Fetcher: f,
		Cache:   c,
		Profile: keyword.SearchProfile,
		Log:     log,
	}
}

func (k *Knowledge) Name() string { return "knowledge" }

func (k *Knowledge) ShouldRetrieve(query, tourContext string) bool {
	if k.Fetcher == nil || !k.Fetcher.Configured() {
		return false
	}
	return len(keyword.Extract(combine(query, tourContext), k.Profile)) > 0
}

// Retrieve tries each candidate keyword until one yields a record. It fails
// only when every candidate failed for a reason other than "no result".
func (k *Knowledge) Retrieve(ctx context.Context, query, tourContext string) Result {
	candidates := keyword.Extract(combine(query, tourContext), k.Profile)
	if len(candidates) == 0 || k.Fetcher == nil || !k.Fetcher.Configured() {
		return Empty()
	}

	var errs *multierror.Error
	for _, kw := range candidates {
		if err := ctx.Err(); err != nil {
			return Failed(err)
		}

		key := cache.Key("tourapi", kw)
		if k.Cache != nil {
			if text, ok := k.Cache.Get(ctx, key); ok {
				return Hit(text)
			}
		}

		info, err := k.Fetcher.FetchInfo(ctx, kw)
		if err != nil {
			if !errors.Is(err, tourapi.ErrNoResult) {
				errs = multierror.Append(errs, fmt.Errorf("%q: %w", kw, err))
			}
			continue
		}

		text := info.Format()
		// Partial records are served but not cached so the next turn retries the details.
		if k.Cache != nil && !info.Partial {
			if err := k.Cache.Set(ctx, key, text, k.CacheTTL); err != nil {
				k.Log.Debug().Err(err).Str("key", key).Msg("cache set failed")
			}
		}
		k.Log.Debug().Str("keyword", kw).Str("title", info.Title).Msg("tour info found")
		return Hit(text)
	}

	if errs != nil && len(errs.Errors) == len(candidates) {
		return Failed(errs.ErrorOrNil())
	}
	if errs != nil {
		k.Log.Debug().Err(errs).Msg("some tour api lookups failed")
	}
	return Empty()
}
