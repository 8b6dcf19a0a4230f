package music

import (
	"context"
)

// Song describes a track as supplied by the surrounding player or library
// layer. Identity is ID; Title and Artist are the fuzzy lookup key against
// external sources when no direct identifier exists.
type Song struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	AlbumName string  `json:"albumName,omitempty"`
	Duration  float64 `json:"duration"` // seconds
	URL       string  `json:"url,omitempty"`
}

// Record is the unmodified response of whichever source satisfied a lookup.
// It is cached verbatim, keyed by song id.
type Record struct {
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// HasLyrics reports whether the record carries any lyric content.
func (r *Record) HasLyrics() bool {
	return r != nil && (r.PlainLyrics != "" || r.SyncedLyrics != "")
}

// Source is one strategy for resolving lyrics from one external service.
// A clean miss is (nil, nil). A non-nil error is a transient failure
// (timeout, non-2xx, malformed response) and the caller is expected to fall
// through to the next source.
type Source interface {
	// Resolve looks up lyrics for a song. duration is the track length in
	// seconds; sources that cannot use it ignore it.
	Resolve(ctx context.Context, song Song, duration float64) (*Record, error)

	// Name identifies the source in logs.
	Name() string
}
