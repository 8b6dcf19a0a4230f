package player

import (
	"testing"

	"lyricsync/pkg/music"
)

func TestDeriveIDStable(t *testing.T) {
	song := music.Song{Title: "Song", Artist: "Artist", AlbumName: "Album"}

	first := DeriveID(song)
	if first == "" {
		t.Fatal("expected a non-empty id")
	}
	if DeriveID(song) != first {
		t.Error("id must be stable across calls")
	}

	// Tag case differences must not split the lyrics cache.
	upper := music.Song{Title: "SONG", Artist: "ARTIST", AlbumName: "ALBUM"}
	if DeriveID(upper) != first {
		t.Error("id must be case-insensitive")
	}
}

func TestDeriveIDDistinguishesSongs(t *testing.T) {
	a := DeriveID(music.Song{Title: "Song", Artist: "Artist"})
	b := DeriveID(music.Song{Title: "Song", Artist: "Other Artist"})
	c := DeriveID(music.Song{Title: "Song", Artist: "Artist", AlbumName: "Deluxe"})

	if a == b || a == c {
		t.Errorf("different songs must get different ids: %q %q %q", a, b, c)
	}
}
