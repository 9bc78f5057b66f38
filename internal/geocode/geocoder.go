package geocode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tour_guide_rag/internal/cache"
	"tour_guide_rag/internal/keyword"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// UserAgent identifies this service to public geocoding providers.
const UserAgent = "QuestOfSeoul-AI/1.0"

// DefaultTimeout bounds each provider call.
const DefaultTimeout = 4 * time.Second

// maxCandidates is how many extracted place names are tried per lookup.
const maxCandidates = 5

// ErrNoMatch is returned by a provider that answered without a usable result.
var ErrNoMatch = errors.New("geocode: no match")

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64
	Lon float64
}

func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lon, 'f', 6, 64)
}

// Provider resolves one place name.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, place string) (Coordinates, error)
}

// Geocoder tries each provider in order for each candidate place name.
type Geocoder struct {
	providers []Provider
	cache     cache.Cache
	profile   keyword.Profile
	log       zerolog.Logger
}

type Option func(*Geocoder)

func WithCache(c cache.Cache) Option {
	return func(g *Geocoder) { g.cache = c }
}

func WithProfile(p keyword.Profile) Option {
	return func(g *Geocoder) { g.profile = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(g *Geocoder) { g.log = l }
}

// New builds a Geocoder. Providers are tried in the given order.
func New(providers []Provider, opts ...Option) *Geocoder {
	g := &Geocoder{
		providers: providers,
		profile:   keyword.LocationProfile,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve extracts place names from text and returns the first coordinates any
// provider finds. Provider failures never abort the remaining candidates.
func (g *Geocoder) Resolve(ctx context.Context, text string) (Coordinates, bool) {
	candidates := keyword.Extract(text, g.profile)
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	var errs *multierror.Error
	for _, place := range candidates {
		for _, p := range g.providers {
			if ctx.Err() != nil {
				g.logFailures(errs)
				return Coordinates{}, false
			}
			coords, err := g.lookup(ctx, p, place)
			if err == nil {
				g.log.Debug().Str("place", place).Str("provider", p.Name()).Str("coords", coords.String()).Msg("Resolved location")
				return coords, true
			}
			if !errors.Is(err, ErrNoMatch) {
				errs = multierror.Append(errs, fmt.Errorf("%s %q: %w", p.Name(), place, err))
			}
		}
	}

	g.logFailures(errs)
	return Coordinates{}, false
}

func (g *Geocoder) lookup(ctx context.Context, p Provider, place string) (Coordinates, error) {
	key := cache.Key("geocode", p.Name(), place)
	if g.cache != nil {
		if v, ok := g.cache.Get(ctx, key); ok {
			if coords, err := parseCoordinates(v); err == nil {
				return coords, nil
			}
		}
	}

	coords, err := p.Lookup(ctx, place)
	if err != nil {
		return Coordinates{}, err
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, key, coords.String(), 0); err != nil {
			g.log.Debug().Err(err).Msg("Failed to cache coordinates")
		}
	}
	return coords, nil
}

func (g *Geocoder) logFailures(errs *multierror.Error) {
	if err := errs.ErrorOrNil(); err != nil {
		g.log.Debug().Err(err).Int("failures", len(errs.Errors)).Msg("Geocoding attempts failed")
	}
}

func parseCoordinates(s string) (Coordinates, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return Coordinates{}, fmt.Errorf("malformed coordinates %q", s)
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Coordinates{}, err
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return Coordinates{}, err
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}
