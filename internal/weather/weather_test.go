package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tour_guide_rag/internal/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestDescribe(t *testing.T) {
	assert.Equal(t, "맑음", Describe(0))
	assert.Equal(t, "뇌우+큰 우박", Describe(99))
	assert.Equal(t, "진눈깨비", Describe(77))
	assert.Equal(t, OtherDescription, Describe(4))
	assert.Equal(t, OtherDescription, Describe(-1))
}

func TestFormatClearSkyWithoutRawCode(t *testing.T) {
	out := Format(&Forecast{Current: &Current{
		Temperature:      ptr(12.5),
		RelativeHumidity: ptr(40.0),
		WeatherCode:      ptr(0),
		WindSpeed:        ptr(3.2),
		Precipitation:    ptr(0.0),
	}})

	assert.Equal(t, "현재 날씨: 맑음\n기온: 12.5°C\n습도: 40%\n풍속: 3.2 km/h", out)
	assert.NotContains(t, out, "강수량")
	assert.NotContains(t, out, "코드")
}

func TestFormatOptionalLines(t *testing.T) {
	out := Format(&Forecast{
		Current: &Current{
			Temperature:         ptr(8.0),
			RelativeHumidity:    ptr(90.0),
			WeatherCode:         ptr(63),
			WindSpeed:           ptr(10.4),
			Precipitation:       ptr(1.2),
			ApparentTemperature: ptr(5.1),
		},
		Daily: &Daily{TemperatureMax: []float64{11.3, 13}, TemperatureMin: []float64{4.2, 6}},
	})

	lines := strings.Split(out, "\n")
	assert.Equal(t, []string{
		"현재 날씨: 비(보통)",
		"기온: 8°C",
		"습도: 90%",
		"풍속: 10.4 km/h",
		"강수량: 1.2 mm",
		"체감기온: 5.1°C",
		"내일 예상: 최저 4.2°C, 최고 11.3°C",
	}, lines)
}

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "", Format(&Forecast{}))
	assert.Equal(t, "", Format(&Forecast{Current: &Current{WeatherCode: ptr(0)}}))
}

func TestForecastRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "37.5796", q.Get("latitude"))
		assert.Equal(t, "126.977", q.Get("longitude"))
		assert.Equal(t, currentFields, q.Get("current"))
		assert.Equal(t, dailyFields, q.Get("daily"))
		assert.Equal(t, "Asia/Seoul", q.Get("timezone"))
		assert.Equal(t, "2", q.Get("forecast_days"))
		_, _ = w.Write([]byte(`{
			"timezone":"Asia/Seoul",
			"current":{"temperature_2m":15.3,"relative_humidity_2m":55,"weather_code":2,"wind_speed_10m":7.9,"precipitation":0,"apparent_temperature":14.1},
			"daily":{"weather_code":[2,3],"temperature_2m_max":[18.2,19],"temperature_2m_min":[9.1,10],"precipitation_probability_max":[10,30]}
		}`))
	}))
	defer srv.Close()

	c := NewClient(httpx.New(httpx.Options{Timeout: time.Second}))
	c.BaseURL = srv.URL

	f, err := c.Forecast(context.Background(), 37.5796, 126.977)
	require.NoError(t, err)
	require.NotNil(t, f.Current.WeatherCode)
	assert.Equal(t, 2, *f.Current.WeatherCode)
	assert.Contains(t, Format(f), "현재 날씨: 부분적 흐림")
	assert.Contains(t, Format(f), "내일 예상: 최저 9.1°C, 최고 18.2°C")
}

func TestForecastWithoutCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"timezone":"Asia/Seoul"}`))
	}))
	defer srv.Close()

	c := NewClient(httpx.New(httpx.Options{Timeout: time.Second}))
	c.BaseURL = srv.URL

	_, err := c.Forecast(context.Background(), 1, 2)
	assert.True(t, errors.Is(err, ErrNoCurrent))
}

func TestForecastWithEmptyCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"timezone":"Asia/Seoul","current":{}}`))
	}))
	defer srv.Close()

	c := NewClient(httpx.New(httpx.Options{Timeout: time.Second}))
	c.BaseURL = srv.URL

	f, err := c.Forecast(context.Background(), 37.5796, 126.977)
	assert.Nil(t, f)
	assert.ErrorIs(t, err, ErrNoCurrent)
}
