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

	"github.com/mgalvez/undiacomohoy/internal/storage"
)

// SongResult is one music catalog match.
type SongResult struct {
	// TrackSummary is a display line combining track and artist.
	TrackSummary string `json:"track_summary"`

	// TrackName and ArtistName are the individual catalog fields.
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`

	// ArtworkURL points at the cover image, when the catalog has one.
	ArtworkURL string `json:"artwork_url,omitempty"`
}

const (
	songsDefaultBaseURL = "https://itunes.apple.com"
	songsDefaultLimit   = 10
	songsTimeout        = 10 * time.Second
)

// Songs searches an iTunes-compatible music catalog.
type Songs struct {
	baseURL string
	client  *http.Client
	limit   int
}

// NewSongs creates a song search client. An empty baseURL selects the
// public iTunes endpoint.
func NewSongs(baseURL string) *Songs {
	if baseURL == "" {
		baseURL = songsDefaultBaseURL
	}
	return &Songs{
		baseURL: baseURL,
		client:  &http.Client{Timeout: songsTimeout},
		limit:   songsDefaultLimit,
	}
}

// itunesResponse is the catalog's search envelope.
type itunesResponse struct {
	Results []struct {
		TrackName     string `json:"trackName"`
		ArtistName    string `json:"artistName"`
		ArtworkURL100 string `json:"artworkUrl100"`
	} `json:"results"`
}

// Search looks up songs by free-form term. An empty slice with a nil
// error means the term matched nothing.
func (s *Songs) Search(ctx context.Context, term string) ([]SongResult, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("media", "music")
	q.Set("entity", "song")
	q.Set("limit", strconv.Itoa(s.limit))
	reqURL := s.baseURL + "/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: song lookup failed: %v", storage.ErrIO, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: song lookup returned %d", storage.ErrIO, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}
	var raw itunesResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed song lookup response: %v", storage.ErrInvalidFormat, err)
	}

	results := make([]SongResult, 0, len(raw.Results))
	for _, track := range raw.Results {
		summary := track.TrackName
		if track.ArtistName != "" {
			summary = fmt.Sprintf("%s — %s", track.TrackName, track.ArtistName)
		}
		results = append(results, SongResult{
			TrackSummary: summary,
			TrackName:    track.TrackName,
			ArtistName:   track.ArtistName,
			ArtworkURL:   track.ArtworkURL100,
		})
	}
	return results, nil
}
