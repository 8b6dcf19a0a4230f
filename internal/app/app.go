package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyricsync/internal/config"
	"lyricsync/internal/ipc"
	"lyricsync/internal/lyrics"
	"lyricsync/internal/offline"
	"lyricsync/internal/player"
	"lyricsync/internal/store"
	"lyricsync/pkg/audiocache"
	"lyricsync/pkg/genius"
	"lyricsync/pkg/lrc"
	"lyricsync/pkg/lrclib"
	"lyricsync/pkg/music"
	"lyricsync/pkg/redis"
)

// lookAhead shifts the line lookup slightly forward so a line lands on
// screen as it is sung rather than just after.
const lookAhead = 0.1 // s

// tickInterval is how often the scheduler re-derives the active line from
// the player position.
const tickInterval = 100 * time.Millisecond

type App struct {
	cfg       *config.Config
	ipcServer *ipc.Server
	store     *store.Store
	provider  *lyrics.Provider
	offline   *offline.Coordinator

	currentID string
	mutex     sync.Mutex

	schedulerMutex  sync.Mutex
	schedulerCancel context.CancelFunc
}

func New(cfg *config.Config) *App {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	st := store.New(cfg.App.StorePath)

	lrclibClient := lrclib.NewClient(cfg.Lrclib.BaseURL, cfg.Lrclib.UserAgent)
	chain := music.NewChain(
		&lrclib.PreciseSource{Client: lrclibClient},
		&lrclib.SearchSource{Client: lrclibClient},
		genius.NewClient(cfg.Genius.BaseURL, cfg.Genius.UserAgent),
	)

	var audio *audiocache.Cache
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, audio caching disabled")
		} else {
			audio = audiocache.New(rdb)
		}
	}

	return &App{
		cfg:       cfg,
		ipcServer: ipc.NewServer(cfg.App.SocketPath),
		store:     st,
		provider:  lyrics.NewProvider(st, chain),
		offline:   offline.NewCoordinator(st, audio),
	}
}

// Offline exposes the offline coordinator to embedding front-ends.
func (a *App) Offline() *offline.Coordinator {
	return a.offline
}

func (a *App) Run() {
	// The store must be ready before anything reads or writes through it.
	if err := a.store.Open(); err != nil {
		log.Fatal().Err(err).Str("store_path", a.cfg.App.StorePath).Msg("Failed to open store")
	}
	defer a.store.Close()

	if err := a.ipcServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start IPC server")
	}
	defer a.ipcServer.Close()

	ticker := time.NewTicker(a.cfg.App.CheckInterval)
	defer ticker.Stop()

	log.Info().Msg("Starting player check loop...")
	for {
		a.checkPlayer()
		<-ticker.C
	}
}

func (a *App) checkPlayer() {
	song, err := player.Current()
	if err != nil {
		a.stopScheduler()
		a.ipcServer.Broadcast("No music playing...")
		return
	}

	a.mutex.Lock()
	if song.ID == a.currentID {
		a.mutex.Unlock()
		return
	}
	log.Info().Msg("-----------------------------------------------------")
	log.Info().
		Str("song_id", song.ID).
		Str("title", song.Title).
		Str("artist", song.Artist).
		Msg("New song detected")
	a.currentID = song.ID
	a.mutex.Unlock()

	// The previous song's scheduler must not keep overwriting broadcasts
	// while the new song resolves.
	a.stopScheduler()
	a.ipcServer.Broadcast(fmt.Sprintf("... Searching lyrics for %s - %s ...", song.Artist, song.Title))

	if a.cfg.App.AutoOffline {
		go func(s music.Song) {
			if err := a.offline.MarkAvailableOffline(context.Background(), s); err != nil {
				log.Warn().Err(err).Str("song_id", s.ID).Msg("Auto-offline failed")
			}
		}(song)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := a.provider.GetLyrics(ctx, song, song.Duration)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get lyrics")
		a.ipcServer.Broadcast(fmt.Sprintf("Error getting lyrics: %v", err))
		return
	}

	// The lookup may outlive the song it was started for; a result for a
	// song that is no longer current is discarded, not broadcast.
	a.mutex.Lock()
	current := a.currentID
	a.mutex.Unlock()
	if result.SongID != current {
		log.Info().
			Str("resolved_for", result.SongID).
			Str("now_playing", current).
			Msg("Discarding stale lyrics result")
		return
	}

	if !result.Found() {
		a.ipcServer.Broadcast(fmt.Sprintf("No lyrics found for %s - %s", song.Artist, song.Title))
		return
	}

	if len(result.Synced) == 0 {
		// Plain lyrics have no line timing; show them as one block.
		a.ipcServer.Broadcast(result.Plain)
		return
	}

	a.startLineScheduler(result.Synced, player.Position)
}

func (a *App) stopScheduler() {
	a.schedulerMutex.Lock()
	defer a.schedulerMutex.Unlock()
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
}

// startLineScheduler replaces any running scheduler with one following the
// given lines. Each tick re-derives the active line purely from the player
// position, so there is no drift to accumulate.
func (a *App) startLineScheduler(lines []lrc.Line, position func() float64) {
	a.schedulerMutex.Lock()
	defer a.schedulerMutex.Unlock()

	if a.schedulerCancel != nil {
		log.Info().Msg("Stopping previous line scheduler")
		a.schedulerCancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel

	log.Info().Int("lines", len(lines)).Msg("Starting line scheduler")

	go func() {
		defer log.Info().Msg("Line scheduler stopped")

		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		lastIndex := -2 // forces a broadcast on the first tick

		for {
			select {
			case <-ticker.C:
				now := position()
				if now < 0 {
					continue
				}

				index := lrc.IndexAt(lines, now+lookAhead)
				if index != lastIndex {
					if index >= 0 {
						line := lines[index]
						log.Info().
							Int("index", index).
							Float64("player_time", now).
							Float64("line_time", line.Time).
							Str("line", line.Text).
							Msg("Broadcasting line")
						a.ipcServer.Broadcast(line.Text)
					} else {
						a.ipcServer.Broadcast("♪ ...")
					}
					lastIndex = index
				}

				// Past the last line with margin: the song is over.
				if now > lines[len(lines)-1].Time+5.0 {
					a.ipcServer.Broadcast("♪")
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()
}
