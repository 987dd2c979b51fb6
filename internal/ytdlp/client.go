package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"yt-music-sync/internal/engine"
	"yt-music-sync/internal/model"
)

// Client drives the yt-dlp binary. It implements engine.Fetcher; every call
// is bounded by the caller's context, which carries the per-operation
// timeout.
type Client struct {
	Binary         string
	CookiesEnabled bool
	CookiesPath    string
}

func New(binary string) *Client {
	b := strings.TrimSpace(binary)
	if b == "" {
		b = "yt-dlp"
	}
	return &Client{Binary: b}
}

func CheckDependencies() error {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return fmt.Errorf("missing dependency: yt-dlp is not installed or not on PATH")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("missing dependency: ffmpeg is required for audio extraction and was not found on PATH")
	}
	return nil
}

// Update runs the downloader's self-update. Best-effort; callers log
// failures as warnings.
func (c *Client) Update(ctx context.Context) error {
	_, err := c.run(ctx, []string{"-U"})
	return err
}

func (c *Client) FetchTitle(ctx context.Context, url string) (string, error) {
	args := c.withCookies([]string{"--print", "%(playlist_title)s", url})
	out, err := c.run(ctx, args)
	if err != nil {
		return "", err
	}
	title := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	if title == "" {
		return "", fmt.Errorf("empty title response")
	}
	return title, nil
}

// FetchEntries lists a collection without downloading. Entries yt-dlp cannot
// resolve are simply absent from its output and therefore skipped.
func (c *Client) FetchEntries(ctx context.Context, url string) ([]model.Song, error) {
	args := c.withCookies([]string{
		"--flat-playlist",
		"--print", "%(playlist_index)s:%(title)s:%(id)s",
		url,
	})
	out, err := c.run(ctx, args)
	if err != nil {
		return nil, err
	}

	var songs []model.Song
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		// index:title:id, where the title itself may contain colons. The
		// index ends at the first separator, the id starts at the last.
		head, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		sep := strings.LastIndex(rest, ":")
		if sep < 0 {
			continue
		}
		ordinal, _ := strconv.Atoi(strings.TrimSpace(head))
		songs = append(songs, model.Song{
			Ordinal: ordinal,
			Title:   rest[:sep],
			MediaID: strings.TrimSpace(rest[sep+1:]),
		})
	}
	if len(songs) == 0 {
		return nil, fmt.Errorf("no entries in response")
	}
	return songs, nil
}

// Download extracts one song as mp3 into the target folder, embedding a
// square-cropped thumbnail and parsed metadata. Failures whose output names
// a permanently unavailable source come back as engine.PermanentError.
func (c *Client) Download(ctx context.Context, req engine.DownloadRequest) error {
	outputTemplate := filepath.Join(req.TargetFolder, "%(artist)s - %(title)s - "+req.MediaID+".%(ext)s")
	args := []string{
		"-o", outputTemplate,
		"--format", "bestaudio[ext=m4a]/best",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--embed-thumbnail",
		"--convert-thumbnails", "png",
		"--add-metadata",
		"--parse-metadata", "%(title)s:%(meta_title)s",
		"--parse-metadata", "%(artist)s:%(meta_artist)s",
		"--no-overwrites",
	}
	if req.AlbumName != "" {
		args = append(args, "--parse-metadata", req.AlbumName+":%(meta_album)s")
		if req.TrackNumber > 0 {
			args = append(args, "--parse-metadata", fmt.Sprintf("%d:%%(meta_track)s", req.TrackNumber))
		}
	} else {
		args = append(args, "--parse-metadata", "Unsorted Songs:%(meta_album)s")
	}
	args = append(args, "--ppa", `EmbedThumbnail+ffmpeg_o:-c:v png -vf crop="'if(gt(ih,iw),iw,ih)':'if(gt(iw,ih),ih,iw)'"`)
	args = c.withCookies(append(args, req.MediaURL))

	if _, err := c.run(ctx, args); err != nil {
		if reason, ok := classifyPermanent(err.Error()); ok {
			return &engine.PermanentError{Reason: reason, Err: err}
		}
		return err
	}
	return nil
}

// FetchArtwork stores a collection's thumbnail as folder.png in the target
// folder, clearing out stale folder.* leftovers first.
func (c *Client) FetchArtwork(ctx context.Context, url, targetFolder string) error {
	stale, _ := filepath.Glob(filepath.Join(targetFolder, "folder.*"))
	for _, f := range stale {
		_ = os.Remove(f)
	}

	args := c.withCookies([]string{
		"--write-thumbnail",
		"--convert-thumbnails", "png",
		"--skip-download",
		"-o", filepath.Join(targetFolder, "folder.%(ext)s"),
		url,
	})
	if _, err := c.run(ctx, args); err != nil {
		return err
	}

	// yt-dlp may leave intermediate formats behind.
	leftovers, _ := filepath.Glob(filepath.Join(targetFolder, "folder.*"))
	for _, f := range leftovers {
		if filepath.Ext(f) != ".png" {
			_ = os.Remove(f)
		}
	}
	if _, err := os.Stat(filepath.Join(targetFolder, "folder.png")); err != nil {
		return fmt.Errorf("artwork not written: %w", err)
	}
	return nil
}

func (c *Client) withCookies(args []string) []string {
	if !c.CookiesEnabled || strings.TrimSpace(c.CookiesPath) == "" {
		return args
	}
	return append([]string{"--cookies", c.CookiesPath}, args...)
}

func (c *Client) run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%s timed out: %w", c.Binary, ctx.Err())
		}
		return "", fmt.Errorf("%s failed: %w: %s", c.Binary, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// classifyPermanent matches failure output against known unavailability
// markers. The list is best-effort, not exhaustive; anything unmatched is
// treated as transient and retried.
func classifyPermanent(s string) (string, bool) {
	text := strings.ToLower(s)
	markers := []struct {
		hint   string
		reason string
	}{
		{"video unavailable", "content_removed"},
		{"private video", "private"},
		{"copyright", "copyright_claim"},
		{"has been removed", "content_removed"},
		{"no longer available", "content_removed"},
		{"account associated with this video has been terminated", "account_terminated"},
		{"deleted", "deleted"},
	}
	for _, m := range markers {
		if strings.Contains(text, m.hint) {
			return m.reason, true
		}
	}
	return "", false
}
