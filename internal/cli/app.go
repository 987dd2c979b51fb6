package cli

import (
	"yt-music-sync/internal/configstore"
	"yt-music-sync/internal/engine"
	"yt-music-sync/internal/logsession"
	"yt-music-sync/internal/media"
	"yt-music-sync/internal/status"
	"yt-music-sync/internal/ytdlp"
)

// app wires the engine for one command invocation.
type app struct {
	store    *configstore.Store
	state    *status.State
	sessions *logsession.Manager
	worker   *engine.Worker
}

func newApp(configPath string) *app {
	store := configstore.New(configPath)
	cfg := store.Load()

	st := status.NewState()
	sessions := logsession.NewManager(cfg.LogFolder)

	fetcher := ytdlp.New("")
	fetcher.CookiesEnabled = cfg.CookiesEnabled
	fetcher.CookiesPath = cfg.CookiesPath

	worker := engine.NewWorker(store, st, sessions, fetcher, media.NewTagger(), media.NewCover())

	return &app{
		store:    store,
		state:    st,
		sessions: sessions,
		worker:   worker,
	}
}
