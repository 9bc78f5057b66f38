package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tour_guide_rag/internal/cache"
	"tour_guide_rag/internal/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func newProviders(t *testing.T, log *callLog, primary, fallback http.HandlerFunc) []Provider {
	t.Helper()
	p := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add("openmeteo:" + r.URL.Query().Get("name"))
		primary(w, r)
	}))
	t.Cleanup(p.Close)
	f := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add("nominatim:" + r.URL.Query().Get("q"))
		fallback(w, r)
	}))
	t.Cleanup(f.Close)

	client := httpx.New(httpx.Options{Timeout: time.Second, UserAgent: UserAgent})
	om := NewOpenMeteo(client)
	om.BaseURL = p.URL
	nm := NewNominatim(client)
	nm.BaseURL = f.URL
	return []Provider{om, nm}
}

func noResults(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(`{"results":[]}`))
}

func TestResolvePrimaryHit(t *testing.T) {
	log := &callLog{}
	providers := newProviders(t, log,
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "KR", r.URL.Query().Get("countryCode"))
			assert.Equal(t, "ko", r.URL.Query().Get("language"))
			assert.Equal(t, "3", r.URL.Query().Get("count"))
			_, _ = w.Write([]byte(`{"results":[{"latitude":37.5796,"longitude":126.977}]}`))
		},
		func(w http.ResponseWriter, r *http.Request) { t.Error("fallback must not be called") },
	)

	coords, ok := New(providers).Resolve(context.Background(), "경복궁 날씨")

	require.True(t, ok)
	assert.InDelta(t, 37.5796, coords.Lat, 1e-9)
	assert.InDelta(t, 126.977, coords.Lon, 1e-9)
	assert.Equal(t, []string{"openmeteo:경복궁 날씨"}, log.list())
}

func TestResolveFallbackTriedBeforeNextCandidate(t *testing.T) {
	log := &callLog{}
	providers := newProviders(t, log, noResults,
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("q") == "경복궁" {
				_, _ = w.Write([]byte(`[{"lat":"37.57","lon":"126.97"}]`))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		},
	)

	coords, ok := New(providers).Resolve(context.Background(), "경복궁 날씨")

	require.True(t, ok)
	assert.Equal(t, Coordinates{Lat: 37.57, Lon: 126.97}, coords)
	assert.Equal(t, []string{
		"openmeteo:경복궁 날씨",
		"nominatim:경복궁 날씨",
		"openmeteo:경복궁",
		"nominatim:경복궁",
	}, log.list())
}

func TestResolveProviderErrorDoesNotAbort(t *testing.T) {
	log := &callLog{}
	providers := newProviders(t, log,
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("name") == "남산타워" {
				_, _ = w.Write([]byte(`{"results":[{"latitude":37.55,"longitude":126.98}]}`))
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		},
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	)

	coords, ok := New(providers).Resolve(context.Background(), "남산타워 가는 길")

	require.True(t, ok)
	assert.Equal(t, Coordinates{Lat: 37.55, Lon: 126.98}, coords)
}

func TestResolveNoCandidates(t *testing.T) {
	log := &callLog{}
	providers := newProviders(t, log, noResults, noResults)

	_, ok := New(providers).Resolve(context.Background(), "a")
	assert.False(t, ok)
	assert.Empty(t, log.list())
}

func TestResolveTriesAtMostFiveCandidates(t *testing.T) {
	log := &callLog{}
	providers := newProviders(t, log, noResults, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, ok := New(providers).Resolve(context.Background(), "가나다 라마바 사아자 차카타 파하가 나다라 마바사")
	assert.False(t, ok)
	assert.Len(t, log.list(), 2*maxCandidates)
}

func TestResolveUsesCache(t *testing.T) {
	log := &callLog{}
	providers := newProviders(t, log,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results":[{"latitude":37.5,"longitude":127.0}]}`))
		},
		noResults,
	)
	g := New(providers, WithCache(cache.NewMemoryCache(time.Minute)))

	first, ok := g.Resolve(context.Background(), "경복궁")
	require.True(t, ok)
	second, ok := g.Resolve(context.Background(), "경복궁")
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Len(t, log.list(), 1)
}

func TestParseCoordinates(t *testing.T) {
	c, err := parseCoordinates(Coordinates{Lat: 37.5, Lon: 126.9}.String())
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 37.5, Lon: 126.9}, c)

	_, err = parseCoordinates("garbage")
	assert.Error(t, err)
}
