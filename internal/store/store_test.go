package store

import (
	"errors"
	"path/filepath"
	"testing"

	"lyricsync/pkg/music"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "test.db"))
	if err := s.Open(); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOperationsBeforeOpen(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "test.db"))

	if _, err := s.GetLyrics("x"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GetLyrics: expected ErrNotInitialized, got %v", err)
	}
	if err := s.PutLyrics("x", &music.Record{}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("PutLyrics: expected ErrNotInitialized, got %v", err)
	}
	if err := s.AddSong(music.Song{ID: "x"}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("AddSong: expected ErrNotInitialized, got %v", err)
	}
	if err := s.RemoveSong("x"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("RemoveSong: expected ErrNotInitialized, got %v", err)
	}
	if _, err := s.ListSongIDs(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListSongIDs: expected ErrNotInitialized, got %v", err)
	}
	if _, err := s.ListSongs(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListSongs: expected ErrNotInitialized, got %v", err)
	}
}

func TestLyricsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rec := &music.Record{PlainLyrics: "plain", SyncedLyrics: "[00:01.00]line"}
	if err := s.PutLyrics("song-1", rec); err != nil {
		t.Fatalf("PutLyrics failed: %v", err)
	}

	got, err := s.GetLyrics("song-1")
	if err != nil {
		t.Fatalf("GetLyrics failed: %v", err)
	}
	if got == nil || got.PlainLyrics != "plain" || got.SyncedLyrics != "[00:01.00]line" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestLyricsMissIsNotAnError(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetLyrics("absent")
	if err != nil {
		t.Fatalf("miss should not error, got: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil record, got %+v", got)
	}
}

func TestPutLyricsOverwrites(t *testing.T) {
	s := openTestStore(t)

	s.PutLyrics("song-1", &music.Record{PlainLyrics: "old"})
	if err := s.PutLyrics("song-1", &music.Record{PlainLyrics: "new"}); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, _ := s.GetLyrics("song-1")
	if got.PlainLyrics != "new" {
		t.Errorf("expected last write to win, got %q", got.PlainLyrics)
	}
}

func TestAddSongDuplicateRejected(t *testing.T) {
	s := openTestStore(t)

	original := music.Song{ID: "song-1", Title: "Original", Artist: "Artist"}
	if err := s.AddSong(original); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	err := s.AddSong(music.Song{ID: "song-1", Title: "Imposter", Artist: "Artist"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// The stored metadata must be untouched by the failed add.
	songs, err := s.ListSongs()
	if err != nil {
		t.Fatalf("ListSongs failed: %v", err)
	}
	if len(songs) != 1 || songs[0].Title != "Original" {
		t.Errorf("metadata mutated by rejected add: %+v", songs)
	}
}

func TestRemoveSongIdempotent(t *testing.T) {
	s := openTestStore(t)

	s.AddSong(music.Song{ID: "song-1", Title: "T"})
	if err := s.RemoveSong("song-1"); err != nil {
		t.Fatalf("first remove failed: %v", err)
	}
	if err := s.RemoveSong("song-1"); err != nil {
		t.Fatalf("second remove should be a no-op, got: %v", err)
	}
	if err := s.RemoveSong("never-existed"); err != nil {
		t.Fatalf("removing unknown id should succeed, got: %v", err)
	}

	ids, _ := s.ListSongIDs()
	if _, ok := ids["song-1"]; ok {
		t.Error("song-1 still present after removal")
	}
}

func TestListSongs(t *testing.T) {
	s := openTestStore(t)

	s.AddSong(music.Song{ID: "a", Title: "A", Artist: "X", Duration: 120})
	s.AddSong(music.Song{ID: "b", Title: "B", Artist: "Y", Duration: 240})

	ids, err := s.ListSongIDs()
	if err != nil {
		t.Fatalf("ListSongIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 ids, got %d", len(ids))
	}

	songs, err := s.ListSongs()
	if err != nil {
		t.Fatalf("ListSongs failed: %v", err)
	}
	if len(songs) != 2 {
		t.Errorf("expected 2 songs, got %d", len(songs))
	}
	for _, song := range songs {
		if song.Title == "" || song.Duration == 0 {
			t.Errorf("song metadata incomplete: %+v", song)
		}
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s := New(path)
	if err := s.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	s.PutLyrics("song-1", &music.Record{PlainLyrics: "persisted"})
	s.AddSong(music.Song{ID: "song-1", Title: "T"})
	s.Close()

	s2 := New(path)
	if err := s2.Open(); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	rec, err := s2.GetLyrics("song-1")
	if err != nil || rec == nil || rec.PlainLyrics != "persisted" {
		t.Errorf("lyrics did not survive reopen: rec=%+v err=%v", rec, err)
	}
	ids, _ := s2.ListSongIDs()
	if _, ok := ids["song-1"]; !ok {
		t.Error("offline set did not survive reopen")
	}
}
