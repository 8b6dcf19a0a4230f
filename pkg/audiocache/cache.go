// Package audiocache keeps fetched audio durably available without the
// network. Fetch is network-first with cache fallback, so cached bytes keep
// serving when connectivity drops; Precache warms the cache ahead of
// offline use.
package audiocache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "audiocache").Logger()

const keyPrefix = "audio:"

// KV is the byte store the audio bytes live in. Satisfied by *redis.Client.
type KV interface {
	SetBytes(ctx context.Context, key string, value []byte) error
	GetBytes(ctx context.Context, key string) ([]byte, error)
}

// Cache stores audio payloads keyed by their source URL.
type Cache struct {
	kv         KV
	httpClient *http.Client
}

func New(kv KV) *Cache {
	return &Cache{
		kv:         kv,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch returns the audio bytes for a URL. The network is tried first; a
// successful response is stored (best-effort) before being returned. When
// the network fails, the cached copy serves instead.
func (c *Cache) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	data, err := c.fetch(ctx, rawURL)
	if err == nil {
		if putErr := c.kv.SetBytes(ctx, keyPrefix+rawURL, data); putErr != nil {
			logger.Warn().Err(putErr).Str("url", rawURL).Msg("Failed to cache audio")
		}
		return data, nil
	}

	logger.Warn().Err(err).Str("url", rawURL).Msg("Network fetch failed, trying cache")
	cached, cacheErr := c.kv.GetBytes(ctx, keyPrefix+rawURL)
	if cacheErr != nil {
		logger.Warn().Err(cacheErr).Str("url", rawURL).Msg("Cache read failed")
	}
	if cached == nil {
		return nil, fmt.Errorf("audio unavailable from network and cache: %w", err)
	}
	return cached, nil
}

// Precache fetches and stores each URL in the background. Completion is not
// awaited and failures are only logged; the metadata write that marks a song
// offline stays authoritative regardless, and the cache-first fetch path
// covers the window before the bytes land.
func (c *Cache) Precache(urls []string) {
	go c.precacheAll(urls)
}

func (c *Cache) precacheAll(urls []string) {
	for _, u := range urls {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		data, err := c.fetch(ctx, u)
		if err != nil {
			logger.Warn().Err(err).Str("url", u).Msg("Failed to precache audio")
			cancel()
			continue
		}
		if err := c.kv.SetBytes(ctx, keyPrefix+u, data); err != nil {
			logger.Warn().Err(err).Str("url", u).Msg("Failed to store precached audio")
			cancel()
			continue
		}
		logger.Info().Str("url", u).Int("bytes", len(data)).Msg("Audio precached")
		cancel()
	}
}

func (c *Cache) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
