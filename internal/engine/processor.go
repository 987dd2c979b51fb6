package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"yt-music-sync/internal/configstore"
	"yt-music-sync/internal/fsutil"
	"yt-music-sync/internal/ledger"
	"yt-music-sync/internal/logsession"
	"yt-music-sync/internal/m3u"
	"yt-music-sync/internal/model"
	"yt-music-sync/internal/status"
)

const unsortedFolderName = "Unsorted Songs"

// Processor materializes one source URL (album or playlist) to disk and
// updates the index. Failures for one song never abort its siblings.
type Processor struct {
	Fetcher    Fetcher
	Tagger     Tagger
	Cover      CoverTool
	State      *status.State
	RetryDelay time.Duration
}

type Result struct {
	Downloaded int
	Errors     int
}

func (p *Processor) Process(ctx context.Context, cfg configstore.Config, rawURL string, session *logsession.Session) Result {
	var res Result
	album := IsAlbumURL(rawURL)
	led := ledger.New(cfg.BaseFolder, cfg.RecordFileName)

	session.Log("INFO", "Processing: %s", rawURL)

	session.Log("INFO", "Fetching collection metadata...")
	title, err := p.fetchTitle(ctx, cfg, rawURL, session)
	if err != nil {
		session.Log("ERROR", "Failed to fetch collection title: %v", err)
		res.Errors++
		return res
	}
	title = SanitizeTitle(title, album)
	if title == "" {
		session.Log("ERROR", "Collection title is empty after sanitization, skipping")
		res.Errors++
		return res
	}
	p.State.SetCollection(title)

	targetFolder := filepath.Join(cfg.BaseFolder, unsortedFolderName)
	kind := "Playlist"
	if album {
		targetFolder = filepath.Join(cfg.BaseFolder, title)
		kind = "Album"
	}
	if err := fsutil.Mkdir(targetFolder); err != nil {
		session.Log("ERROR", "Failed to create target folder: %v", err)
		res.Errors++
		return res
	}
	session.Log("INFO", "%s: '%s'", kind, title)
	session.Log("INFO", "Folder: %s", targetFolder)

	session.Log("INFO", "Fetching song list...")
	songs, err := p.fetchEntries(ctx, cfg, rawURL, session)
	if err != nil {
		session.Log("ERROR", "Failed to retrieve song list: %v", err)
		res.Errors++
		return res
	}
	session.Log("INFO", "Found %d songs", len(songs))
	p.State.SetTotal(len(songs))

	for idx, song := range songs {
		n := idx + 1
		if p.State.CancelRequested() {
			session.Log("WARNING", "Cancellation requested, stopping song processing")
			return res
		}
		if strings.TrimSpace(song.MediaID) == "" {
			session.Log("ERROR", "[%d/%d] Entry has no media id, skipping", n, len(songs))
			res.Errors++
			continue
		}
		p.State.SetItem(fmt.Sprintf("%s (%d/%d)", song.Title, n, len(songs)), n)
		session.Log("INFO", "[%d/%d] %s (ID: %s)", n, len(songs), song.Title, song.MediaID)

		if existing := led.FindByID(song.MediaID); existing != "" {
			p.adoptExisting(existing, targetFolder, title, n, album, session)
			if !led.Recorded(song.MediaID) {
				if err := led.Append(song.MediaID); err != nil {
					session.Log("WARNING", "Failed to record %s: %v", song.MediaID, err)
				}
			}
			continue
		}

		if p.State.CancelRequested() {
			session.Log("WARNING", "Cancellation requested, stopping before download")
			return res
		}
		session.Log("INFO", "Downloading new song...")
		req := DownloadRequest{
			MediaURL:     WatchURL(song.MediaID),
			MediaID:      song.MediaID,
			TargetFolder: targetFolder,
		}
		if album {
			req.AlbumName = title
			req.TrackNumber = n
		}
		if p.downloadSong(ctx, cfg, req, session) {
			session.Log("INFO", "Downloaded successfully")
			res.Downloaded++
			if err := led.Append(song.MediaID); err != nil {
				session.Log("WARNING", "Failed to record %s: %v", song.MediaID, err)
			}
		} else {
			res.Errors++
		}
	}

	if album {
		p.fetchArtwork(ctx, cfg, rawURL, targetFolder, session)
	} else {
		p.writeIndex(cfg, rawURL, title, songs, led, session)
	}
	return res
}

func (p *Processor) adoptExisting(existing, targetFolder, title string, track int, album bool, session *logsession.Session) {
	currentFolder := filepath.Dir(existing)
	if currentFolder == targetFolder {
		session.Log("INFO", "Song already in correct folder")
		if album {
			if err := p.Tagger.WriteTags(existing, title, track); err != nil {
				session.Log("WARNING", "Failed to update tags: %v", err)
			}
		}
		return
	}

	session.Log("INFO", "Song exists in: %s", filepath.Base(currentFolder))
	if !album {
		session.Log("INFO", "Song already downloaded")
		return
	}

	session.Log("INFO", "Moving to album and updating tags...")
	newPath := filepath.Join(targetFolder, filepath.Base(existing))
	if err := os.Rename(existing, newPath); err != nil {
		session.Log("WARNING", "Failed to move song: %v", err)
		return
	}
	if err := p.Tagger.WriteTags(newPath, title, track); err != nil {
		session.Log("WARNING", "Failed to update tags: %v", err)
	}
	session.Log("INFO", "Song relocated to album")
}

func (p *Processor) fetchTitle(ctx context.Context, cfg configstore.Config, url string, session *logsession.Session) (string, error) {
	attempts := max(1, cfg.MaxRetries)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		tctx, cancel := context.WithTimeout(ctx, cfg.MetadataTimeout())
		title, err := p.Fetcher.FetchTitle(tctx, url)
		cancel()
		if err == nil && strings.TrimSpace(title) != "" {
			return title, nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		lastErr = err
		if attempt < attempts {
			session.Log("WARNING", "Metadata fetch failed (attempt %d/%d): %v, retrying in %s", attempt, attempts, err, p.RetryDelay)
			if !p.sleep(ctx) {
				return "", lastErr
			}
		}
	}
	return "", lastErr
}

func (p *Processor) fetchEntries(ctx context.Context, cfg configstore.Config, url string, session *logsession.Session) ([]model.Song, error) {
	attempts := max(1, cfg.MaxRetries)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		tctx, cancel := context.WithTimeout(ctx, cfg.MetadataTimeout())
		songs, err := p.Fetcher.FetchEntries(tctx, url)
		cancel()
		if err == nil && len(songs) > 0 {
			return songs, nil
		}
		if err == nil {
			err = errors.New("empty song list")
		}
		lastErr = err
		if attempt < attempts {
			session.Log("WARNING", "Song list fetch failed (attempt %d/%d): %v, retrying in %s", attempt, attempts, err, p.RetryDelay)
			if !p.sleep(ctx) {
				return nil, lastErr
			}
		}
	}
	return nil, lastErr
}

// downloadSong retries transient failures up to the configured maximum with
// a fixed delay. Permanently unavailable content is attempted exactly once.
func (p *Processor) downloadSong(ctx context.Context, cfg configstore.Config, req DownloadRequest, session *logsession.Session) bool {
	attempts := max(1, cfg.MaxRetries)
	for attempt := 1; attempt <= attempts; attempt++ {
		tctx, cancel := context.WithTimeout(ctx, cfg.DownloadTimeout())
		err := p.Fetcher.Download(tctx, req)
		cancel()
		if err == nil {
			return true
		}
		if IsPermanent(err) {
			session.Log("ERROR", "Download failed, not retrying: %v", err)
			return false
		}
		if attempt < attempts {
			session.Log("WARNING", "Download failed (attempt %d/%d): %v, retrying in %s", attempt, attempts, err, p.RetryDelay)
			if !p.sleep(ctx) {
				return false
			}
		} else {
			session.Log("ERROR", "Download failed after %d attempts: %v", attempts, err)
		}
	}
	return false
}

func (p *Processor) fetchArtwork(ctx context.Context, cfg configstore.Config, url, targetFolder string, session *logsession.Session) {
	artwork := filepath.Join(targetFolder, "folder.png")
	if _, err := os.Stat(artwork); err == nil {
		session.Log("INFO", "Album artwork already exists")
		return
	}

	tctx, cancel := context.WithTimeout(ctx, cfg.MetadataTimeout())
	err := p.Fetcher.FetchArtwork(tctx, url, targetFolder)
	cancel()
	if err != nil {
		session.Log("WARNING", "Failed to download album artwork: %v", err)
		return
	}
	if err := p.Cover.CropToSquare(artwork); err != nil {
		session.Log("INFO", "Keeping original artwork aspect ratio: %v", err)
		return
	}
	session.Log("INFO", "Album artwork cropped to square")
}

func (p *Processor) writeIndex(cfg configstore.Config, rawURL, title string, songs []model.Song, led *ledger.Ledger, session *logsession.Session) {
	playlistID := ExtractPlaylistID(rawURL)
	if playlistID == "" {
		session.Log("WARNING", "Could not extract playlist id from URL: %s", rawURL)
		return
	}
	session.Log("INFO", "Generating index for: %s", title)

	paths := make([]string, 0, len(songs))
	for _, song := range songs {
		if song.MediaID == "" {
			continue
		}
		if found := led.FindByID(song.MediaID); found != "" {
			paths = append(paths, m3u.RemapPath(found, cfg.BaseFolder, cfg.MountPath))
		}
	}
	if len(paths) == 0 {
		session.Log("INFO", "No resolved songs, skipping index for %s", title)
		return
	}

	path, err := m3u.Write(cfg.IndexFolder, playlistID, title, paths)
	if err != nil {
		session.Log("WARNING", "Failed to write index: %v", err)
		return
	}
	session.Log("INFO", "Created index: %s", filepath.Base(path))
}

// sleep waits the fixed retry delay; false means the context ended first.
func (p *Processor) sleep(ctx context.Context) bool {
	if p.RetryDelay <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(p.RetryDelay):
		return true
	}
}
