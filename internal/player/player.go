// Package player probes the active MPRIS player through playerctl for the
// current track and playback position.
package player

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"lyricsync/pkg/music"
)

// metadata fields joined by a separator unlikely to appear in tags.
const fieldSep = "|~|"

// Current returns the track the player reports, with a stable derived id.
func Current() (music.Song, error) {
	format := strings.Join([]string{"{{title}}", "{{artist}}", "{{album}}", "{{mpris:length}}"}, fieldSep)
	out, err := exec.Command("playerctl", "metadata", "--format", format).Output()
	if err != nil {
		return music.Song{}, fmt.Errorf("no active player: %w", err)
	}

	parts := strings.Split(strings.TrimSpace(string(out)), fieldSep)
	if len(parts) != 4 {
		return music.Song{}, fmt.Errorf("unexpected playerctl metadata: %q", string(out))
	}

	song := music.Song{
		Title:     parts[0],
		Artist:    parts[1],
		AlbumName: parts[2],
	}
	if song.Title == "" {
		return music.Song{}, fmt.Errorf("player reports no track")
	}

	// mpris:length is microseconds.
	if length, err := strconv.ParseFloat(parts[3], 64); err == nil {
		song.Duration = length / 1e6
	}

	song.ID = DeriveID(song)
	return song, nil
}

// Position returns the playback position in seconds, or 0 when the player is
// unreachable.
func Position() float64 {
	out, err := exec.Command("playerctl", "position").Output()
	if err != nil {
		return 0
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0
	}
	return seconds
}

// DeriveID builds a stable song id from metadata. Tracks coming from a local
// player carry no library id of their own, and the id must survive restarts
// for the lyrics cache to hit.
func DeriveID(song music.Song) string {
	key := strings.ToLower(song.Artist + "|" + song.Title + "|" + song.AlbumName)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}
