package weather

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"tour_guide_rag/internal/httpx"
)

const (
	ForecastURL = "https://api.open-meteo.com/v1/forecast"

	// DefaultTimeout bounds one forecast call.
	DefaultTimeout = 5 * time.Second

	currentFields = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,precipitation,apparent_temperature"
	hourlyFields  = "temperature_2m,weather_code,precipitation_probability"
	dailyFields   = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max"
)

// ErrNoCurrent is returned when the response carries no current conditions.
var ErrNoCurrent = errors.New("weather: response has no current conditions")

// Current holds the fields of the "current" block. Nil means the provider omitted it.
type Current struct {
	Temperature         *float64 `json:"temperature_2m"`
	RelativeHumidity    *float64 `json:"relative_humidity_2m"`
	WeatherCode         *int     `json:"weather_code"`
	WindSpeed           *float64 `json:"wind_speed_10m"`
	Precipitation       *float64 `json:"precipitation"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
}

// empty reports whether the block is missing or carries neither a temperature nor a weather code.
func (c *Current) empty() bool {
	return c == nil || (c.Temperature == nil && c.WeatherCode == nil)
}

type Daily struct {
	WeatherCode              []int     `json:"weather_code"`
	TemperatureMax           []float64 `json:"temperature_2m_max"`
	TemperatureMin           []float64 `json:"temperature_2m_min"`
	PrecipitationProbability []float64 `json:"precipitation_probability_max"`
}

// Forecast is the subset of the Open-Meteo forecast response in use.
type Forecast struct {
	Timezone string   `json:"timezone"`
	Current  *Current `json:"current"`
	Daily    *Daily   `json:"daily"`
}

// Client queries the Open-Meteo forecast endpoint.
type Client struct {
	BaseURL  string
	Timezone string
	Days     int
	http     *httpx.Client
}

func NewClient(hc *httpx.Client) *Client {
	return &Client{
		BaseURL:  ForecastURL,
		Timezone: "Asia/Seoul",
		Days:     2,
		http:     hc,
	}
}

// Forecast fetches current conditions and the daily summary for a point.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", currentFields)
	q.Set("hourly", hourlyFields)
	q.Set("daily", dailyFields)
	q.Set("timezone", c.Timezone)
	q.Set("forecast_days", strconv.Itoa(c.Days))

	var f Forecast
	if err := c.http.GetJSON(ctx, c.BaseURL+"?"+q.Encode(), &f); err != nil {
		return nil, err
	}
	if f.Current.empty() {
		return nil, ErrNoCurrent
	}
	return &f, nil
}
