package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"yt-music-sync/internal/configstore"
	"yt-music-sync/internal/logsession"
	"yt-music-sync/internal/model"
	"yt-music-sync/internal/status"
)

// fakeFetcher is a scriptable collaborator. Download materializes a file the
// same way the real downloader does, so ledger lookups behave.
type fakeFetcher struct {
	mu sync.Mutex

	titles     map[string]string
	titleErr   error
	entries    map[string][]model.Song
	entriesErr error
	updateErr  error
	artworkErr error

	// downloadErr is consulted per attempt; nil entries succeed.
	downloadErr   func(mediaID string, attempt int) error
	downloadCalls map[string]int
	onDownload    func(mediaID string)

	processedURLs []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		titles:        map[string]string{},
		entries:       map[string][]model.Song{},
		downloadCalls: map[string]int{},
	}
}

func (f *fakeFetcher) Update(context.Context) error { return f.updateErr }

func (f *fakeFetcher) FetchTitle(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	f.processedURLs = append(f.processedURLs, url)
	f.mu.Unlock()
	if f.titleErr != nil {
		return "", f.titleErr
	}
	return f.titles[url], nil
}

func (f *fakeFetcher) FetchEntries(_ context.Context, url string) ([]model.Song, error) {
	if f.entriesErr != nil {
		return nil, f.entriesErr
	}
	return f.entries[url], nil
}

func (f *fakeFetcher) Download(_ context.Context, req DownloadRequest) error {
	f.mu.Lock()
	f.downloadCalls[req.MediaID]++
	attempt := f.downloadCalls[req.MediaID]
	f.mu.Unlock()
	if f.onDownload != nil {
		f.onDownload(req.MediaID)
	}
	if f.downloadErr != nil {
		if err := f.downloadErr(req.MediaID, attempt); err != nil {
			return err
		}
	}
	name := fmt.Sprintf("Artist - Song - %s.mp3", req.MediaID)
	return os.WriteFile(filepath.Join(req.TargetFolder, name), []byte("audio"), 0o644)
}

func (f *fakeFetcher) FetchArtwork(_ context.Context, _ string, targetFolder string) error {
	if f.artworkErr != nil {
		return f.artworkErr
	}
	return os.WriteFile(filepath.Join(targetFolder, "folder.png"), []byte("png"), 0o644)
}

func (f *fakeFetcher) calls(mediaID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloadCalls[mediaID]
}

type taggedCall struct {
	File  string
	Album string
	Track int
}

type fakeTagger struct {
	mu    sync.Mutex
	calls []taggedCall
	err   error
}

func (t *fakeTagger) WriteTags(file, album string, track int) error {
	t.mu.Lock()
	t.calls = append(t.calls, taggedCall{File: file, Album: album, Track: track})
	t.mu.Unlock()
	return t.err
}

type fakeCover struct {
	mu    sync.Mutex
	files []string
	err   error
}

func (c *fakeCover) CropToSquare(file string) error {
	c.mu.Lock()
	c.files = append(c.files, file)
	c.mu.Unlock()
	return c.err
}

func newTestConfig(t *testing.T) configstore.Config {
	t.Helper()
	tmp := t.TempDir()
	cfg := configstore.Default()
	cfg.BaseFolder = filepath.Join(tmp, "music")
	cfg.IndexFolder = filepath.Join(tmp, "playlists")
	cfg.MountPath = "/library"
	cfg.LogFolder = filepath.Join(tmp, "logs")
	cfg.TimeoutMetaS = 5
	cfg.TimeoutDLS = 5
	if err := os.MkdirAll(cfg.BaseFolder, 0o755); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newTestSession(t *testing.T, logDir string) *logsession.Session {
	t.Helper()
	s, err := logsession.NewManager(logDir).Open(model.TriggerManual)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close(model.PhaseCompleted, 0, 0, 0)
	})
	return s
}

func newTestProcessor(f *fakeFetcher) (*Processor, *fakeTagger, *fakeCover) {
	tagger := &fakeTagger{}
	cover := &fakeCover{}
	p := &Processor{
		Fetcher:    f,
		Tagger:     tagger,
		Cover:      cover,
		State:      status.NewState(),
		RetryDelay: 0,
	}
	return p, tagger, cover
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	return string(data)
}
