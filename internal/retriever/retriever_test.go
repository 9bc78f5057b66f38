package retriever

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tour_guide_rag/internal/cache"
	"tour_guide_rag/internal/geocode"
	"tour_guide_rag/internal/httpx"
	"tour_guide_rag/internal/tourapi"
	"tour_guide_rag/internal/vectorstore"
	"tour_guide_rag/internal/weather"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocator struct {
	coords geocode.Coordinates
	ok     bool
	seen   string
}

func (f *fakeLocator) Resolve(_ context.Context, text string) (geocode.Coordinates, bool) {
	f.seen = text
	return f.coords, f.ok
}

type fakeForecaster struct {
	f     *weather.Forecast
	err   error
	calls int32
}

func (f *fakeForecaster) Forecast(context.Context, float64, float64) (*weather.Forecast, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.f, f.err
}

func ptr[T any](v T) *T { return &v }

func sampleForecast() *weather.Forecast {
	return &weather.Forecast{Current: &weather.Current{
		Temperature:      ptr(12.5),
		RelativeHumidity: ptr(40.0),
		WeatherCode:      ptr(0),
		WindSpeed:        ptr(3.2),
	}}
}

func TestWeatherShouldRetrieve(t *testing.T) {
	w := NewWeather(&fakeLocator{}, &fakeForecaster{}, nil, zerolog.Nop())

	assert.True(t, w.ShouldRetrieve("경복궁 날씨 어때?", ""))
	assert.True(t, w.ShouldRetrieve("", "오늘은 쌀쌀한 하루"))
	assert.False(t, w.ShouldRetrieve("경복궁 입장료", "투어: 경복궁"))
}

func TestWeatherRetrieveCachesByRoundedCoordinates(t *testing.T) {
	loc := &fakeLocator{coords: geocode.Coordinates{Lat: 37.5796, Lon: 126.977}, ok: true}
	fc := &fakeForecaster{f: sampleForecast()}
	w := NewWeather(loc, fc, cache.NewMemoryCache(time.Minute), zerolog.Nop())

	first := w.Retrieve(context.Background(), "경복궁 날씨", "투어: 경복궁")
	require.Equal(t, KindHit, first.Kind)
	assert.Contains(t, first.Text, "현재 날씨: 맑음")
	assert.Equal(t, "경복궁 날씨 투어: 경복궁", loc.seen)

	loc.coords = geocode.Coordinates{Lat: 37.5801, Lon: 126.9751}
	second := w.Retrieve(context.Background(), "경복궁 날씨", "")
	assert.Equal(t, first.Text, second.Text)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fc.calls))
}

func TestWeatherRetrieveOutcomes(t *testing.T) {
	noPlace := NewWeather(&fakeLocator{}, &fakeForecaster{}, nil, zerolog.Nop())
	assert.Equal(t, KindEmpty, noPlace.Retrieve(context.Background(), "날씨", "").Kind)

	boom := errors.New("boom")
	failing := NewWeather(&fakeLocator{ok: true}, &fakeForecaster{err: boom}, nil, zerolog.Nop())
	res := failing.Retrieve(context.Background(), "날씨", "")
	assert.Equal(t, KindFailed, res.Kind)
	assert.ErrorIs(t, res.Err, boom)
}

type fakeFetcher struct {
	configured bool
	infos      map[string]*tourapi.Info
	errs       map[string]error
	asked      []string
}

func (f *fakeFetcher) Configured() bool { return f.configured }

func (f *fakeFetcher) FetchInfo(_ context.Context, kw string) (*tourapi.Info, error) {
	f.asked = append(f.asked, kw)
	if err, ok := f.errs[kw]; ok {
		return nil, err
	}
	if info, ok := f.infos[kw]; ok {
		return info, nil
	}
	return nil, tourapi.ErrNoResult
}

func TestKnowledgeShouldRetrieve(t *testing.T) {
	assert.False(t, NewKnowledge(&fakeFetcher{}, nil, zerolog.Nop()).ShouldRetrieve("경복궁", ""))
	assert.False(t, NewKnowledge(nil, nil, zerolog.Nop()).ShouldRetrieve("경복궁", ""))

	k := NewKnowledge(&fakeFetcher{configured: true}, nil, zerolog.Nop())
	assert.True(t, k.ShouldRetrieve("경복궁 알려줘", ""))
	assert.False(t, k.ShouldRetrieve("?", ""))
}

func TestKnowledgeTriesCandidatesInOrder(t *testing.T) {
	f := &fakeFetcher{
		configured: true,
		infos:      map[string]*tourapi.Info{"경복궁": {Title: "경복궁", Overview: "조선의 법궁"}},
	}
	k := NewKnowledge(f, cache.NewMemoryCache(time.Minute), zerolog.Nop())

	res := k.Retrieve(context.Background(), "경복궁을", "")
	require.Equal(t, KindHit, res.Kind)
	assert.Equal(t, "[경복궁 관광 정보 - Tour API]\n- 개요: 조선의 법궁", res.Text)
	assert.Equal(t, []string{"경복궁을", "경복궁"}, f.asked)

	f.asked = nil
	again := k.Retrieve(context.Background(), "경복궁을", "")
	assert.Equal(t, res.Text, again.Text)
	assert.Equal(t, []string{"경복궁을"}, f.asked)
}

func TestKnowledgePartialRecordIsNotCached(t *testing.T) {
	f := &fakeFetcher{
		configured: true,
		infos:      map[string]*tourapi.Info{"경복궁": {Title: "경복궁", Overview: "조선의 법궁", Partial: true}},
	}
	c := cache.NewMemoryCache(time.Minute)
	k := NewKnowledge(f, c, zerolog.Nop())

	res := k.Retrieve(context.Background(), "경복궁", "")
	require.Equal(t, KindHit, res.Kind)
	assert.Contains(t, res.Text, "조선의 법궁")
	assert.Zero(t, c.Len())

	k.Retrieve(context.Background(), "경복궁", "")
	assert.Equal(t, []string{"경복궁", "경복궁"}, f.asked)
}

func TestKnowledgeFailureModes(t *testing.T) {
	boom := errors.New("timeout")
	allFail := &fakeFetcher{configured: true, errs: map[string]error{"경복궁": boom}}
	res := NewKnowledge(allFail, nil, zerolog.Nop()).Retrieve(context.Background(), "경복궁", "")
	assert.Equal(t, KindFailed, res.Kind)
	assert.ErrorIs(t, res.Err, boom)

	nothing := &fakeFetcher{configured: true}
	assert.Equal(t, KindEmpty, NewKnowledge(nothing, nil, zerolog.Nop()).Retrieve(context.Background(), "없는곳", "").Kind)
}

type fakeEmbedder struct {
	got string
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.got = text
	return []float32{1, 0}, f.err
}

func (f *fakeEmbedder) Dimensions() int { return 2 }

type fakeSearcher struct {
	contents []string
	err      error
	limit    int
}

func (f *fakeSearcher) Search(_ context.Context, _ []float32, limit int) ([]string, error) {
	f.limit = limit
	return f.contents, f.err
}

func TestVectorShouldRetrieve(t *testing.T) {
	v := NewVector(&fakeEmbedder{}, &fakeSearcher{})
	assert.True(t, v.ShouldRetrieve("왜", ""))
	assert.True(t, v.ShouldRetrieve("", "투어: 경복궁"))
	assert.False(t, v.ShouldRetrieve("경복", ""))

	assert.False(t, NewVector(&fakeEmbedder{}, nil).ShouldRetrieve("역사 알려줘", ""))
}

func TestVectorRetrieveKeepsFirstThree(t *testing.T) {
	e := &fakeEmbedder{}
	s := &fakeSearcher{contents: []string{"a", "", "b", "c", "d"}}
	v := NewVector(e, s)

	res := v.Retrieve(context.Background(), "  근정전의 역사  ", "투어: 경복궁")
	require.Equal(t, KindHit, res.Kind)
	assert.Equal(t, "a\n---\nb\n---\nc", res.Text)
	assert.Equal(t, "근정전의 역사", e.got)
	assert.Equal(t, 5, s.limit)
}

func TestVectorRetrieveFallsBackToTourContext(t *testing.T) {
	e := &fakeEmbedder{}
	v := NewVector(e, &fakeSearcher{contents: []string{"x"}})

	v.Retrieve(context.Background(), " ", strings.Repeat("궁", 250))
	assert.Equal(t, strings.Repeat("궁", 200), e.got)
}

func TestVectorRetrieveOutcomes(t *testing.T) {
	none := NewVector(&fakeEmbedder{}, &fakeSearcher{})
	assert.Equal(t, KindEmpty, none.Retrieve(context.Background(), "역사", "").Kind)

	embedFail := NewVector(&fakeEmbedder{err: errors.New("401")}, &fakeSearcher{})
	assert.Equal(t, KindFailed, embedFail.Retrieve(context.Background(), "역사", "").Kind)

	storeFail := NewVector(&fakeEmbedder{}, &fakeSearcher{err: errors.New("conn refused")})
	assert.Equal(t, KindFailed, storeFail.Retrieve(context.Background(), "역사", "").Kind)
}

func TestVectorSearchClampsLimit(t *testing.T) {
	s := &fakeSearcher{contents: []string{"a", "b"}}
	v := NewVector(&fakeEmbedder{}, s)

	got, err := v.Search(context.Background(), "근정전", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 5, s.limit)

	_, err = v.Search(context.Background(), "근정전", 100)
	require.NoError(t, err)
	assert.Equal(t, 20, s.limit)

	_, err = NewVector(nil, nil).Search(context.Background(), "근정전", 5)
	assert.ErrorIs(t, err, vectorstore.ErrNotConfigured)
}

func TestWeatherEndToEnd(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "경복궁" {
			_, _ = w.Write([]byte(`{"results":[{"latitude":37.5796,"longitude":126.977}]}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer geo.Close()

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Asia/Seoul", r.URL.Query().Get("timezone"))
		_, _ = w.Write([]byte(`{"timezone":"Asia/Seoul","current":{"temperature_2m":18.4,"relative_humidity_2m":55,"weather_code":2,"wind_speed_10m":6.1,"precipitation":0,"apparent_temperature":17.9},"daily":{"temperature_2m_max":[21.3,22],"temperature_2m_min":[11.2,12]}}`))
	}))
	defer forecast.Close()

	hc := httpx.New(httpx.Options{Timeout: time.Second, UserAgent: geocode.UserAgent})
	om := geocode.NewOpenMeteo(hc)
	om.BaseURL = geo.URL
	c := cache.NewMemoryCache(time.Minute)
	g := geocode.New([]geocode.Provider{om}, geocode.WithCache(c))

	wc := weather.NewClient(hc)
	wc.BaseURL = forecast.URL

	w := NewWeather(g, wc, c, zerolog.Nop())
	query, tourCtx := "경복궁 날씨 어때?", "투어: 경복궁"

	require.True(t, w.ShouldRetrieve(query, tourCtx))
	res := w.Retrieve(context.Background(), query, tourCtx)
	require.Equal(t, KindHit, res.Kind)
	assert.Contains(t, res.Text, "현재 날씨:")
	assert.Contains(t, res.Text, "기온: 18.4°C")
	assert.NotContains(t, res.Text, "강수량")
	assert.Contains(t, res.Text, "내일 예상: 최저 11.2°C, 최고 21.3°C")
}

func TestWeatherEmptyCurrentBlockIsNotReported(t *testing.T) {
	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"timezone":"Asia/Seoul","current":{}}`))
	}))
	defer forecast.Close()

	wc := weather.NewClient(httpx.New(httpx.Options{Timeout: time.Second}))
	wc.BaseURL = forecast.URL
	c := cache.NewMemoryCache(time.Minute)
	loc := &fakeLocator{coords: geocode.Coordinates{Lat: 37.5796, Lon: 126.977}, ok: true}

	res := NewWeather(loc, wc, c, zerolog.Nop()).Retrieve(context.Background(), "경복궁 날씨 어때?", "투어: 경복궁")
	assert.Equal(t, KindFailed, res.Kind)
	assert.ErrorIs(t, res.Err, weather.ErrNoCurrent)
	assert.Empty(t, res.Text)
	assert.Zero(t, c.Len())
}

func TestResultConstructors(t *testing.T) {
	assert.Equal(t, KindEmpty, Hit("  \n").Kind)
	assert.Equal(t, "x", Hit(" x ").Text)
	assert.Equal(t, "failed", Failed(errors.New("e")).Kind.String())
	assert.Equal(t, "hit", KindHit.String())
	assert.Equal(t, "empty", Empty().Kind.String())
}
