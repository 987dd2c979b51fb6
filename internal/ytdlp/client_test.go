package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"yt-music-sync/internal/engine"
)

func writeFakeBinary(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "yt-dlp")
	if err := os.WriteFile(path, []byte("#!/usr/bin/env bash\nset -euo pipefail\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFetchTitleReturnsFirstLine(t *testing.T) {
	bin := writeFakeBinary(t, `printf 'Album - Night Drive\nextra noise\n'`)
	c := New(bin)

	title, err := c.FetchTitle(context.Background(), "https://music.youtube.com/playlist?list=OLAK5uy_x")
	if err != nil {
		t.Fatalf("fetch title: %v", err)
	}
	if title != "Album - Night Drive" {
		t.Fatalf("unexpected title %q", title)
	}
}

func TestFetchTitleRejectsEmptyOutput(t *testing.T) {
	bin := writeFakeBinary(t, `printf '\n'`)
	c := New(bin)
	if _, err := c.FetchTitle(context.Background(), "url"); err == nil {
		t.Fatal("empty title must be an error")
	}
}

func TestFetchEntriesParsesFlatPlaylistOutput(t *testing.T) {
	bin := writeFakeBinary(t, `cat <<'EOF'
1:First Song:vid1
2:Second: With Colon:vid2
garbage line
3:Third Song:vid3
EOF`)
	c := New(bin)

	songs, err := c.FetchEntries(context.Background(), "https://music.youtube.com/playlist?list=PLabc")
	if err != nil {
		t.Fatalf("fetch entries: %v", err)
	}
	if len(songs) != 3 {
		t.Fatalf("expected 3 songs, got %d: %+v", len(songs), songs)
	}
	if songs[0].Ordinal != 1 || songs[0].Title != "First Song" || songs[0].MediaID != "vid1" {
		t.Fatalf("unexpected first song: %+v", songs[0])
	}
	// Titles containing a colon split at the last separator: the id keeps its
	// position as the final field.
	if songs[1].MediaID != "vid2" {
		t.Fatalf("unexpected id for colon title: %+v", songs[1])
	}
}

func TestFetchEntriesEmptyOutputFails(t *testing.T) {
	bin := writeFakeBinary(t, `exit 0`)
	c := New(bin)
	if _, err := c.FetchEntries(context.Background(), "url"); err == nil {
		t.Fatal("no entries must be an error")
	}
}

func TestDownloadClassifiesPermanentFailure(t *testing.T) {
	bin := writeFakeBinary(t, `echo "ERROR: Video unavailable. This video is private" >&2
exit 1`)
	c := New(bin)

	err := c.Download(context.Background(), engine.DownloadRequest{
		MediaURL:     "https://www.youtube.com/watch?v=gone",
		MediaID:      "gone",
		TargetFolder: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected download failure")
	}
	if !engine.IsPermanent(err) {
		t.Fatalf("unavailable content must classify as permanent: %v", err)
	}
}

func TestDownloadKeepsTransientFailuresRetryable(t *testing.T) {
	bin := writeFakeBinary(t, `echo "ERROR: unable to connect, connection reset" >&2
exit 1`)
	c := New(bin)

	err := c.Download(context.Background(), engine.DownloadRequest{
		MediaURL:     "https://www.youtube.com/watch?v=flaky",
		MediaID:      "flaky",
		TargetFolder: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected download failure")
	}
	if engine.IsPermanent(err) {
		t.Fatalf("network failures must stay transient: %v", err)
	}
}

func TestClassifyPermanent(t *testing.T) {
	cases := []struct {
		output string
		reason string
		ok     bool
	}{
		{"ERROR: Video unavailable", "content_removed", true},
		{"ERROR: Private video. Sign in if you've been granted access", "private", true},
		{"blocked due to a copyright claim", "copyright_claim", true},
		{"This video has been removed by the uploader", "content_removed", true},
		{"the account associated with this video has been terminated", "account_terminated", true},
		{"HTTP Error 503: Service Unavailable", "", false},
		{"timed out after 600s", "", false},
	}
	for _, tc := range cases {
		reason, ok := classifyPermanent(tc.output)
		if reason != tc.reason || ok != tc.ok {
			t.Fatalf("classifyPermanent(%q) = %q, %v; want %q, %v", tc.output, reason, ok, tc.reason, tc.ok)
		}
	}
}

func TestWithCookies(t *testing.T) {
	c := New("yt-dlp")
	args := c.withCookies([]string{"-U"})
	if len(args) != 1 {
		t.Fatalf("cookies disabled must leave args alone: %v", args)
	}

	c.CookiesEnabled = true
	c.CookiesPath = "/secrets/cookies.txt"
	args = c.withCookies([]string{"-U"})
	if len(args) != 3 || args[0] != "--cookies" || args[1] != "/secrets/cookies.txt" {
		t.Fatalf("unexpected cookie args: %v", args)
	}
}

func TestFetchArtworkVerifiesResult(t *testing.T) {
	target := t.TempDir()
	// The fake writes folder.png plus a leftover the client must clean up.
	bin := writeFakeBinary(t, `target="$YTM_TEST_TARGET"
printf 'png' > "$target/folder.png"
printf 'webp' > "$target/folder.webp"`)
	t.Setenv("YTM_TEST_TARGET", target)
	c := New(bin)

	if err := c.FetchArtwork(context.Background(), "url", target); err != nil {
		t.Fatalf("fetch artwork: %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, "folder.png")); err != nil {
		t.Fatalf("artwork missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, "folder.webp")); !os.IsNotExist(err) {
		t.Fatal("non-png leftovers must be removed")
	}
}

func TestFetchArtworkFailsWithoutResult(t *testing.T) {
	bin := writeFakeBinary(t, `exit 0`)
	c := New(bin)
	if err := c.FetchArtwork(context.Background(), "url", t.TempDir()); err == nil {
		t.Fatal("missing folder.png must be an error")
	}
}
