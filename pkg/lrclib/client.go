// Package lrclib queries the lrclib.net lyrics API. It backs the two
// highest-confidence lyric sources: an exact-metadata lookup and a broad
// search fallback.
package lrclib

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"lyricsync/pkg/music"
)

var logger = log.With().Str("component", "lrclib").Logger()

const (
	DefaultBaseURL   = "https://lrclib.net/api"
	DefaultUserAgent = "lyricsync/1.0"
)

// Client is a thin lrclib.net API client shared by both lrclib sources.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
}

// NewClient creates a client. Empty baseURL or userAgent fall back to the
// defaults.
func NewClient(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		userAgent:  userAgent,
		maxRetries: 3,
	}
}

// trackResponse is the lrclib API track shape.
type trackResponse struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// Get performs the exact lookup against /api/get: title + artist + album +
// duration rounded to the nearest second. The server only answers on an
// exact match, so a 404 is a clean miss, not an error.
func (c *Client) Get(ctx context.Context, song music.Song, duration float64) (*music.Record, error) {
	params := url.Values{}
	params.Set("track_name", song.Title)
	params.Set("artist_name", song.Artist)
	params.Set("album_name", song.AlbumName)
	params.Set("duration", strconv.Itoa(int(math.Round(duration))))

	resp, err := c.doWithRetry(ctx, fmt.Sprintf("%s/get?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		logger.Info().
			Str("title", song.Title).
			Str("artist", song.Artist).
			Msg("No exact lrclib match")
		return nil, nil
	}

	var track trackResponse
	if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
		return nil, fmt.Errorf("failed to decode lrclib response: %w", err)
	}

	logger.Info().
		Str("track", track.TrackName).
		Str("artist", track.ArtistName).
		Float64("duration", track.Duration).
		Msg("Exact lrclib match found")
	return &music.Record{PlainLyrics: track.PlainLyrics, SyncedLyrics: track.SyncedLyrics}, nil
}

// Search performs the broad lookup against /api/search: title + artist only,
// first-ranked candidate taken as-is. Lower precision than Get; used when
// the exact lookup yields nothing.
func (c *Client) Search(ctx context.Context, song music.Song) (*music.Record, error) {
	params := url.Values{}
	params.Set("track_name", song.Title)
	params.Set("artist_name", song.Artist)

	resp, err := c.doWithRetry(ctx, fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	var tracks []trackResponse
	if err := json.NewDecoder(resp.Body).Decode(&tracks); err != nil {
		return nil, fmt.Errorf("failed to decode lrclib search response: %w", err)
	}

	logger.Info().
		Int("results", len(tracks)).
		Str("title", song.Title).
		Str("artist", song.Artist).
		Msg("lrclib search results")

	if len(tracks) == 0 {
		return nil, nil
	}

	first := tracks[0]
	return &music.Record{PlainLyrics: first.PlainLyrics, SyncedLyrics: first.SyncedLyrics}, nil
}

// doWithRetry issues a GET and retries transport errors and unexpected
// statuses with a linear backoff. 404 is returned to the caller untouched
// since both endpoints use it to mean "no match".
func (c *Client) doWithRetry(ctx context.Context, rawURL string) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Info().
				Int("attempt", attempt).
				Int("max_retries", c.maxRetries).
				Msg("Retrying lrclib request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt*500) * time.Millisecond):
			}
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if reqErr != nil {
			return nil, fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err = c.httpClient.Do(req)
		if err == nil && (resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound) {
			return resp, nil
		}

		if err != nil {
			logger.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Msg("lrclib request failed")
		} else {
			logger.Warn().
				Int("status", resp.StatusCode).
				Int("attempt", attempt+1).
				Msg("lrclib request returned unexpected status")
			resp.Body.Close()
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, err)
	}
	return nil, fmt.Errorf("request failed after %d attempts with status %d", c.maxRetries+1, resp.StatusCode)
}

// PreciseSource is the highest-confidence lyric source: exact server-side
// match on title, artist, album and duration, which disambiguates same-titled
// songs by length.
type PreciseSource struct {
	Client *Client
}

func (s *PreciseSource) Name() string { return "lrclib-get" }

func (s *PreciseSource) Resolve(ctx context.Context, song music.Song, duration float64) (*music.Record, error) {
	return s.Client.Get(ctx, song, duration)
}

// SearchSource is the broad fallback against the same service: title + artist
// search, first candidate wins.
type SearchSource struct {
	Client *Client
}

func (s *SearchSource) Name() string { return "lrclib-search" }

func (s *SearchSource) Resolve(ctx context.Context, song music.Song, _ float64) (*music.Record, error) {
	return s.Client.Search(ctx, song)
}
