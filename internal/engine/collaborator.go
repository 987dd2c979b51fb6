package engine

import (
	"context"
	"errors"
	"fmt"

	"yt-music-sync/internal/model"
)

// DownloadRequest describes one song download. An empty AlbumName means the
// song belongs to the shared unsorted pool rather than an album.
type DownloadRequest struct {
	MediaURL     string
	MediaID      string
	TargetFolder string
	AlbumName    string
	TrackNumber  int
}

// Fetcher is the metadata/download collaborator. Implementations classify
// download failures: permanently unavailable content is reported as a
// PermanentError so the engine never retries it.
type Fetcher interface {
	Update(ctx context.Context) error
	FetchTitle(ctx context.Context, url string) (string, error)
	FetchEntries(ctx context.Context, url string) ([]model.Song, error)
	Download(ctx context.Context, req DownloadRequest) error
	FetchArtwork(ctx context.Context, url, targetFolder string) error
}

// Tagger rewrites album membership tags on an existing file.
type Tagger interface {
	WriteTags(file, album string, track int) error
}

// CoverTool post-processes stored artwork. Best-effort; a failure keeps the
// original image.
type CoverTool interface {
	CropToSquare(file string) error
}

// PermanentError marks a download failure that retrying cannot fix: content
// removed, private, deleted, or blocked by a copyright claim.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("permanently unavailable (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("permanently unavailable (%s)", e.Reason)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
