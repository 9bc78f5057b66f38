package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"tour_guide_rag/internal/httpx"
)

const (
	OpenMeteoURL = "https://geocoding-api.open-meteo.com/v1/search"
	NominatimURL = "https://nominatim.openstreetmap.org/search"

	// DefaultCountry restricts Open-Meteo results to Korea.
	DefaultCountry = "KR"
)

// OpenMeteo is the primary provider.
type OpenMeteo struct {
	BaseURL string
	Country string
	client  *httpx.Client
}

func NewOpenMeteo(client *httpx.Client) *OpenMeteo {
	return &OpenMeteo{BaseURL: OpenMeteoURL, Country: DefaultCountry, client: client}
}

func (o *OpenMeteo) Name() string { return "openmeteo" }

type openMeteoResponse struct {
	Results []struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"results"`
}

func (o *OpenMeteo) Lookup(ctx context.Context, place string) (Coordinates, error) {
	q := url.Values{}
	q.Set("name", place)
	q.Set("count", "3")
	q.Set("language", "ko")
	q.Set("countryCode", o.Country)

	var resp openMeteoResponse
	if err := o.client.GetJSON(ctx, o.BaseURL+"?"+q.Encode(), &resp); err != nil {
		return Coordinates{}, err
	}
	if len(resp.Results) == 0 {
		return Coordinates{}, ErrNoMatch
	}
	first := resp.Results[0]
	if first.Latitude == nil || first.Longitude == nil {
		return Coordinates{}, ErrNoMatch
	}
	return Coordinates{Lat: *first.Latitude, Lon: *first.Longitude}, nil
}

// Nominatim is the OpenStreetMap fallback provider.
type Nominatim struct {
	BaseURL string
	client  *httpx.Client
}

func NewNominatim(client *httpx.Client) *Nominatim {
	return &Nominatim{BaseURL: NominatimURL, client: client}
}

func (n *Nominatim) Name() string { return "nominatim" }

// Nominatim encodes coordinates as strings.
type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) Lookup(ctx context.Context, place string) (Coordinates, error) {
	q := url.Values{}
	q.Set("q", place)
	q.Set("format", "json")
	q.Set("limit", "1")

	var resp []nominatimPlace
	if err := n.client.GetJSON(ctx, n.BaseURL+"?"+q.Encode(), &resp); err != nil {
		return Coordinates{}, err
	}
	if len(resp) == 0 || resp[0].Lat == "" || resp[0].Lon == "" {
		return Coordinates{}, ErrNoMatch
	}
	lat, err := strconv.ParseFloat(resp[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse lat %q: %w", resp[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(resp[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse lon %q: %w", resp[0].Lon, err)
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}
