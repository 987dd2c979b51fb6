package model

import (
	"time"

	"github.com/google/uuid"
)

type TriggerType string

const (
	TriggerManual          TriggerType = "manual"
	TriggerCron            TriggerType = "cron"
	TriggerManualAlbums    TriggerType = "manual_albums"
	TriggerManualPlaylists TriggerType = "manual_playlists"
)

type DownloadMode string

const (
	ModeBoth          DownloadMode = "both"
	ModePlaylistsOnly DownloadMode = "playlists_only"
	ModeAlbumsOnly    DownloadMode = "albums_only"
)

func ParseDownloadMode(raw string) (DownloadMode, bool) {
	switch DownloadMode(raw) {
	case ModeBoth, ModePlaylistsOnly, ModeAlbumsOnly:
		return DownloadMode(raw), true
	case "":
		return ModeBoth, true
	default:
		return "", false
	}
}

// Task is one run request. It is immutable once enqueued and consumed exactly
// once by the worker.
type Task struct {
	ID         uuid.UUID
	URLs       []string
	Trigger    TriggerType
	ForceMode  DownloadMode // empty means use the configured mode
	EnqueuedAt time.Time
}

func NewTask(urls []string, trigger TriggerType, forceMode DownloadMode) Task {
	return Task{
		ID:         uuid.New(),
		URLs:       append([]string(nil), urls...),
		Trigger:    trigger,
		ForceMode:  forceMode,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Song is one entry of a source collection, valid for a single run.
type Song struct {
	Ordinal int
	Title   string
	MediaID string
}
