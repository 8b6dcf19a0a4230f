package music

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "music-chain").Logger()

// Chain tries a fixed, ordered list of sources and returns the first record
// that actually contains lyrics. Sources are never reordered and never run
// concurrently: an earlier, higher-confidence source succeeding must
// short-circuit the less reliable ones.
type Chain struct {
	sources []Source
}

// NewChain creates a chain that resolves through the given sources in order.
func NewChain(sources ...Source) *Chain {
	if len(sources) == 0 {
		logger.Warn().Msg("No lyric sources configured")
		return &Chain{}
	}

	logger.Info().
		Int("source_count", len(sources)).
		Str("primary_source", sources[0].Name()).
		Msg("Lyric source chain initialized")

	return &Chain{sources: sources}
}

// Resolve walks the sources in priority order. A source returning a record
// without lyric content, or an error, falls through to the next one. When
// every source is exhausted the chain returns (nil, lastErr); lastErr is nil
// if all sources reported a clean miss.
func (c *Chain) Resolve(ctx context.Context, song Song, duration float64) (*Record, error) {
	if len(c.sources) == 0 {
		return nil, fmt.Errorf("no lyric sources available")
	}

	var lastErr error
	for i, src := range c.sources {
		logger.Info().
			Str("source", src.Name()).
			Int("attempt", i+1).
			Int("total_sources", len(c.sources)).
			Str("title", song.Title).
			Str("artist", song.Artist).
			Msg("Trying lyric source")

		rec, err := src.Resolve(ctx, song, duration)
		if err != nil {
			logger.Warn().
				Str("source", src.Name()).
				Err(err).
				Msg("Lyric source failed")
			lastErr = err
			continue
		}

		if !rec.HasLyrics() {
			logger.Info().
				Str("source", src.Name()).
				Msg("Source has no lyrics for this song")
			continue
		}

		logger.Info().
			Str("source", src.Name()).
			Bool("synced", rec.SyncedLyrics != "").
			Msg("Successfully got lyrics")
		return rec, nil
	}

	return nil, lastErr
}

// Name implements Source so a chain can stand in wherever a single source is
// expected.
func (c *Chain) Name() string {
	if len(c.sources) > 0 {
		return fmt.Sprintf("Chain[primary: %s]", c.sources[0].Name())
	}
	return "Chain[no sources]"
}

// SourceNames returns the names of all sources in priority order.
func (c *Chain) SourceNames() []string {
	names := make([]string, len(c.sources))
	for i, src := range c.sources {
		names[i] = src.Name()
	}
	return names
}
