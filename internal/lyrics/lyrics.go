// Package lyrics orchestrates lyric resolution: durable cache first, then
// the ordered source chain, with the winning raw record written back to the
// cache.
package lyrics

import (
	"context"

	"github.com/rs/zerolog/log"

	"lyricsync/internal/store"
	"lyricsync/pkg/lrc"
	"lyricsync/pkg/music"
)

var logger = log.With().Str("component", "lyrics").Logger()

// Result is what the player layer renders: synced lines when available,
// plain text otherwise. SongID travels with the result so the caller can
// discard a resolution that finishes after the song has already changed.
type Result struct {
	SongID string
	Synced []lrc.Line
	Plain  string
}

// Found reports whether any lyrics were resolved. The zero Result is the
// "not found" outcome; distinguishing it from "still loading" is the
// caller's job via its own loading state.
func (r Result) Found() bool {
	return len(r.Synced) > 0 || r.Plain != ""
}

// Provider resolves lyrics through the store-then-sources path. It is a
// stateless orchestrator; all durable state lives in the store. Concurrent
// calls for the same song run independently and race on the cache write,
// which is harmless: last write wins.
type Provider struct {
	store *store.Store
	chain music.Source
}

func NewProvider(st *store.Store, chain music.Source) *Provider {
	return &Provider{store: st, chain: chain}
}

// GetLyrics resolves lyrics for a song. A record already in the store is
// authoritative and short-circuits all network sources. A not-found outcome
// is never cached, so transient source failures are retried on the next
// call. The returned error covers store access only; exhausting every
// source is reported as an empty Result.
func (p *Provider) GetLyrics(ctx context.Context, song music.Song, duration float64) (Result, error) {
	cached, err := p.store.GetLyrics(song.ID)
	if err != nil {
		return Result{SongID: song.ID}, err
	}
	if cached != nil {
		logger.Info().
			Str("song_id", song.ID).
			Str("title", song.Title).
			Msg("Lyrics cache hit")
		return normalize(song.ID, cached), nil
	}

	logger.Info().
		Str("song_id", song.ID).
		Str("title", song.Title).
		Str("artist", song.Artist).
		Msg("Lyrics cache miss, trying sources")

	rec, err := p.chain.Resolve(ctx, song, duration)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("song_id", song.ID).
			Msg("All lyric sources exhausted")
	}
	if !rec.HasLyrics() {
		return Result{SongID: song.ID}, nil
	}

	if err := p.store.PutLyrics(song.ID, rec); err != nil {
		// The lookup itself succeeded and its result is still valid for
		// this call; losing the write only costs future calls the cache.
		logger.Error().
			Err(err).
			Str("song_id", song.ID).
			Msg("Failed to cache lyrics")
	}

	return normalize(song.ID, rec), nil
}

// normalize converts a raw source record into the result the player renders.
// Synced text that fails to parse degrades to nil; plain text, if present,
// is still returned.
func normalize(songID string, rec *music.Record) Result {
	res := Result{SongID: songID, Plain: rec.PlainLyrics}
	if rec.SyncedLyrics != "" {
		res.Synced = lrc.Parse(rec.SyncedLyrics)
		if len(res.Synced) == 0 {
			logger.Warn().
				Str("song_id", songID).
				Msg("Synced lyrics present but unparseable, falling back to plain")
		}
	}
	return res
}
