// Package lookup holds the clients for the external search services the
// diary uses to enrich memories: a geocoder for places and a music
// catalog for songs. Both are plain request/response lookups with no
// retries; a network or HTTP failure is reported as an error, which is
// distinct from a successful search with zero results.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/mgalvez/undiacomohoy/internal/storage"
)

// PlaceResult is one geocoder match.
type PlaceResult struct {
	// Name is the short label of the place, suitable for display.
	Name string `json:"name"`

	// Lat and Lon are the WGS84 coordinates.
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// DisplayName is the full formatted address.
	DisplayName string `json:"display_name"`
}

const (
	placesDefaultBaseURL = "https://nominatim.openstreetmap.org"
	placesDefaultLimit   = 8
	placesTimeout        = 10 * time.Second

	// placesUserAgent identifies the application to the geocoder, as its
	// usage policy requires.
	placesUserAgent = "undiacomohoy/1.0"
)

// Places searches a Nominatim-compatible geocoder. The service's usage
// policy caps clients at one request per second, so every search waits
// on a limiter before hitting the network.
type Places struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	limit   int
}

// NewPlaces creates a place search client. An empty baseURL selects the
// public Nominatim endpoint.
func NewPlaces(baseURL string) *Places {
	if baseURL == "" {
		baseURL = placesDefaultBaseURL
	}
	return &Places{
		baseURL: baseURL,
		client:  &http.Client{Timeout: placesTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		limit:   placesDefaultLimit,
	}
}

// nominatimPlace is the subset of the geocoder's result object we use.
// Coordinates arrive as strings.
type nominatimPlace struct {
	Name        string `json:"name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search geocodes a free-form term. An empty slice with a nil error
// means the term matched nothing.
func (p *Places) Search(ctx context.Context, term string) ([]PlaceResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", term)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(p.limit))
	reqURL := p.baseURL + "/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}
	req.Header.Set("User-Agent", placesUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: place lookup failed: %v", storage.ErrIO, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: place lookup returned %d", storage.ErrIO, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}
	var raw []nominatimPlace
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed place lookup response: %v", storage.ErrInvalidFormat, err)
	}

	results := make([]PlaceResult, 0, len(raw))
	for _, place := range raw {
		lat, latErr := strconv.ParseFloat(place.Lat, 64)
		lon, lonErr := strconv.ParseFloat(place.Lon, 64)
		if latErr != nil || lonErr != nil {
			// A match without parseable coordinates is useless; skip it.
			continue
		}
		name := place.Name
		if name == "" {
			name = place.DisplayName
		}
		results = append(results, PlaceResult{
			Name:        name,
			Lat:         lat,
			Lon:         lon,
			DisplayName: place.DisplayName,
		})
	}
	return results, nil
}
