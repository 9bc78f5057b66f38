package retriever

import (
	"context"
	"fmt"
	"time"

	"tour_guide_rag/internal/cache"
	"tour_guide_rag/internal/geocode"
	"tour_guide_rag/internal/keyword"
	"tour_guide_rag/internal/weather"

	"github.com/rs/zerolog"
)

// WeatherKeywords mark a question about weather or what to wear.
var WeatherKeywords = []string{
	"날씨", "옷", "복장", "입고", "쌀쌀", "따뜻", "춥", "더우", "선선",
	"비", "눈", "우산", "외투", "코트", "재킷", "스웨터", "가벼운",
	"따뜻하게", "시원하게", "체감", "기온", "온도", "날씨에",
}

// Locator resolves a place mentioned in free text.
type Locator interface {
	Resolve(ctx context.Context, text string) (geocode.Coordinates, bool)
}

// Forecaster fetches the forecast for a point.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error)
}

// Weather reports current conditions at the place the question is about.
type Weather struct {
	Locator    Locator
	Forecaster Forecaster
	Cache      cache.Cache
	CacheTTL   time.Duration
	Keywords   []string
	Log        zerolog.Logger
}

func NewWeather(loc Locator, fc Forecaster, c cache.Cache, log zerolog.Logger) *Weather {
	return &Weather{
		Locator:    loc,
		Forecaster: fc,
		Cache:      c,
		Keywords:   WeatherKeywords,
		Log:        log,
	}
}

func (w *Weather) Name() string { return "weather" }

func (w *Weather) ShouldRetrieve(query, tourContext string) bool {
	return keyword.ContainsAny(combine(query, tourContext), w.Keywords)
}

func (w *Weather) Retrieve(ctx context.Context, query, tourContext string) Result {
	coords, ok := w.Locator.Resolve(ctx, combine(query, tourContext))
	if !ok {
		w.Log.Debug().Msg("no location resolved for weather")
		return Empty()
	}

	// Two decimals is about one kilometre, close enough to share a forecast.
	key := cache.Key("weather", fmt.Sprintf("%.2f,%.2f", coords.Lat, coords.Lon))
	if w.Cache != nil {
		if text, ok := w.Cache.Get(ctx, key); ok {
			return Hit(text)
		}
	}

	f, err := w.Forecaster.Forecast(ctx, coords.Lat, coords.Lon)
	if err != nil {
		return Failed(fmt.Errorf("forecast %s: %w", coords, err))
	}
	text := weather.Format(f)
	if text != "" && w.Cache != nil {
		if err := w.Cache.Set(ctx, key, text, w.CacheTTL); err != nil {
			w.Log.Debug().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return Hit(text)
}
