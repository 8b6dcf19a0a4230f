// Package store is the single durable home of all persistent state: raw
// lyric records keyed by song id, and the metadata of songs available
// offline. Everything survives process restarts.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"lyricsync/pkg/music"
)

var logger = log.With().Str("component", "store").Logger()

var (
	// ErrNotInitialized is returned by every operation issued before Open
	// has completed. Operations never queue behind initialization.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrAlreadyExists is returned by AddSong for an id that is already
	// present. A duplicate add is a caller error, never a silent overwrite.
	ErrAlreadyExists = errors.New("song already exists")
)

var (
	bucketLyrics = []byte("lyrics")
	bucketSongs  = []byte("downloaded_songs")
)

// Store wraps a bolt database with two buckets: lyrics-by-song-id and
// downloaded-songs-by-id. Each method runs as one bolt transaction; that is
// the store's entire atomicity boundary and callers need no extra locking.
type Store struct {
	path string
	db   *bolt.DB
}

// New creates an unopened store. Open must be called before any other method.
func New(path string) *Store {
	return &Store{path: path}
}

// Open opens the database file and creates the buckets if absent.
func (s *Store) Open() error {
	if s.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketLyrics, bucketSongs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create buckets: %w", err)
	}

	s.db = db
	logger.Info().Str("path", s.path).Msg("Store opened")
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// GetLyrics returns the cached raw record for a song, or nil when none is
// cached. A miss is not an error.
func (s *Store) GetLyrics(songID string) (*music.Record, error) {
	if s.db == nil {
		return nil, ErrNotInitialized
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketLyrics).Get([]byte(songID)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var rec music.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode cached lyrics: %w", err)
	}
	return &rec, nil
}

// PutLyrics stores a raw source record verbatim, overwriting any previous
// record for the same id. Last write wins.
func (s *Store) PutLyrics(songID string, rec *music.Record) error {
	if s.db == nil {
		return ErrNotInitialized
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode lyrics record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLyrics).Put([]byte(songID), data)
	})
}

// AddSong records a song's metadata as available offline. Adding an id that
// is already present fails with ErrAlreadyExists and leaves the stored
// metadata untouched.
func (s *Store) AddSong(song music.Song) error {
	if s.db == nil {
		return ErrNotInitialized
	}

	data, err := json.Marshal(song)
	if err != nil {
		return fmt.Errorf("failed to encode song: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSongs)
		if b.Get([]byte(song.ID)) != nil {
			return ErrAlreadyExists
		}
		return b.Put([]byte(song.ID), data)
	})
}

// RemoveSong deletes a song's offline metadata. Idempotent: removing an id
// that is not present succeeds.
func (s *Store) RemoveSong(songID string) error {
	if s.db == nil {
		return ErrNotInitialized
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSongs).Delete([]byte(songID))
	})
}

// ListSongIDs returns the set of ids currently marked available offline.
func (s *Store) ListSongIDs() (map[string]struct{}, error) {
	if s.db == nil {
		return nil, ErrNotInitialized
	}

	ids := make(map[string]struct{})
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSongs).ForEach(func(k, _ []byte) error {
			ids[string(k)] = struct{}{}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListSongs returns the metadata of every song marked available offline.
func (s *Store) ListSongs() ([]music.Song, error) {
	if s.db == nil {
		return nil, ErrNotInitialized
	}

	var songs []music.Song
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSongs).ForEach(func(_, v []byte) error {
			var song music.Song
			if err := json.Unmarshal(v, &song); err != nil {
				return fmt.Errorf("failed to decode song: %w", err)
			}
			songs = append(songs, song)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return songs, nil
}
