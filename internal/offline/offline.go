// Package offline coordinates the set of songs guaranteed available without
// network access: audio bytes in the audio cache, metadata rows in the
// store. The metadata row is what makes a song count as offline.
package offline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"lyricsync/internal/store"
	"lyricsync/pkg/audiocache"
	"lyricsync/pkg/music"
)

var logger = log.With().Str("component", "offline").Logger()

// Coordinator is a stateless orchestrator over the store and the audio
// cache. The audio cache may be nil, in which case only metadata is kept.
type Coordinator struct {
	store *store.Store
	audio *audiocache.Cache
}

func NewCoordinator(st *store.Store, audio *audiocache.Cache) *Coordinator {
	return &Coordinator{store: st, audio: audio}
}

// MarkAvailableOffline makes a song part of the offline set. Already-marked
// songs are a no-op. The audio precache is fire-and-forget: the metadata
// write is not held back waiting for bytes, since the fetch path serves
// cache-first with network fallback anyway.
func (c *Coordinator) MarkAvailableOffline(ctx context.Context, song music.Song) error {
	marked, err := c.IsOffline(song.ID)
	if err != nil {
		return err
	}
	if marked {
		logger.Info().Str("song_id", song.ID).Msg("Song already available offline")
		return nil
	}

	if c.audio != nil && song.URL != "" {
		c.audio.Precache([]string{song.URL})
	}

	if err := c.store.AddSong(song); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent mark; the song is offline
			// either way.
			return nil
		}
		return fmt.Errorf("failed to record offline song: %w", err)
	}

	logger.Info().
		Str("song_id", song.ID).
		Str("title", song.Title).
		Str("artist", song.Artist).
		Msg("Song marked available offline")
	return nil
}

// MarkAlbumOffline marks every song of an album. Songs that fail are logged
// and skipped so one bad track does not abort the rest.
func (c *Coordinator) MarkAlbumOffline(ctx context.Context, songs []music.Song) {
	logger.Info().Int("songs", len(songs)).Msg("Marking album available offline")
	for _, song := range songs {
		if err := c.MarkAvailableOffline(ctx, song); err != nil {
			logger.Warn().
				Err(err).
				Str("song_id", song.ID).
				Msg("Failed to mark song offline")
		}
	}
}

// UnmarkAvailableOffline removes a song's metadata row. Idempotent. Cached
// audio bytes are left in place; reclaiming them is not worth the
// bookkeeping, the row's absence already hides the song from the offline
// listing.
func (c *Coordinator) UnmarkAvailableOffline(songID string) error {
	if err := c.store.RemoveSong(songID); err != nil {
		return fmt.Errorf("failed to remove offline song: %w", err)
	}
	logger.Info().Str("song_id", songID).Msg("Song removed from offline set")
	return nil
}

// ListOffline returns the metadata of every offline song, for rendering an
// offline library regardless of reachability.
func (c *Coordinator) ListOffline() ([]music.Song, error) {
	return c.store.ListSongs()
}

// IsOffline reports whether a song id is in the offline set.
func (c *Coordinator) IsOffline(songID string) (bool, error) {
	ids, err := c.store.ListSongIDs()
	if err != nil {
		return false, err
	}
	_, ok := ids[songID]
	return ok, nil
}
