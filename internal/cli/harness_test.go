package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yt-music-sync/internal/configstore"
	"yt-music-sync/internal/logsession"
	"yt-music-sync/internal/model"
)

// fakeToolsOnPath installs yt-dlp and ffmpeg stand-ins. The yt-dlp script
// answers the same invocations the real binary sees: self-update, title
// fetch, flat-playlist listing, thumbnail fetch, and audio extraction.
func fakeToolsOnPath(t *testing.T) {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}

	ytScript := `#!/usr/bin/env bash
set -euo pipefail
args="$*"
if [[ "$args" == "-U" ]]; then
  exit 0
fi
outarg=""
prev=""
for a in "$@"; do
  if [[ "$prev" == "-o" ]]; then outarg="$a"; fi
  prev="$a"
done
if [[ "$args" == *"--flat-playlist"* ]]; then
  printf '1:First Song:vid1\n2:Second Song:vid2\n'
  exit 0
fi
if [[ "$args" == *"--write-thumbnail"* ]]; then
  printf 'png' > "$(dirname "$outarg")/folder.png"
  exit 0
fi
if [[ "$args" == *"--extract-audio"* ]]; then
  out="${outarg//%(artist)s/Artist}"
  out="${out//%(title)s/Song}"
  out="${out//%(ext)s/mp3}"
  printf 'audio' > "$out"
  exit 0
fi
printf 'Road Trip\n'
`
	if err := os.WriteFile(filepath.Join(bin, "yt-dlp"), []byte(ytScript), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bin, "ffmpeg"), []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", bin+":"+os.Getenv("PATH"))
}

func seedConfig(t *testing.T, mutate func(*configstore.Config)) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.json")
	cfg := configstore.Default()
	cfg.BaseFolder = filepath.Join(tmp, "music")
	cfg.IndexFolder = filepath.Join(tmp, "playlists")
	cfg.MountPath = "/library"
	cfg.LogFolder = filepath.Join(tmp, "logs")
	if mutate != nil {
		mutate(&cfg)
	}
	if err := configstore.New(path).Save(cfg); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHarnessRunDownloadsPlaylist(t *testing.T) {
	fakeToolsOnPath(t)
	configPath := seedConfig(t, nil)
	cfg := configstore.New(configPath).Load()

	url := "https://music.youtube.com/playlist?list=PLtrip"
	if err := Run([]string{"run", "--config", configPath, url}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	unsorted := filepath.Join(cfg.BaseFolder, "Unsorted Songs")
	for _, id := range []string{"vid1", "vid2"} {
		if _, err := os.Stat(filepath.Join(unsorted, "Artist - Song - "+id+".mp3")); err != nil {
			t.Fatalf("expected downloaded song %s: %v", id, err)
		}
	}

	record, err := os.ReadFile(filepath.Join(cfg.BaseFolder, cfg.RecordFileName))
	if err != nil || !strings.Contains(string(record), "vid1") {
		t.Fatalf("record file not written: %v %q", err, record)
	}

	index, err := os.ReadFile(filepath.Join(cfg.IndexFolder, "PLtrip.m3u"))
	if err != nil {
		t.Fatalf("index missing: %v", err)
	}
	if !strings.Contains(string(index), `#GONIC-NAME:"Road Trip"`) {
		t.Fatalf("unexpected index content: %q", index)
	}

	records, err := logsession.NewManager(cfg.LogFolder).List()
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one session record: %v %d", err, len(records))
	}
	rec := records[0]
	if rec.Status != model.PhaseCompleted || rec.Collections != 1 || rec.Downloaded != 2 {
		t.Fatalf("unexpected session record: %+v", rec)
	}
	if rec.Trigger != string(model.TriggerManual) {
		t.Fatalf("unexpected trigger: %q", rec.Trigger)
	}
}

func TestHarnessRunIsIdempotent(t *testing.T) {
	fakeToolsOnPath(t)
	configPath := seedConfig(t, nil)
	cfg := configstore.New(configPath).Load()

	url := "https://music.youtube.com/playlist?list=PLtrip"
	if err := Run([]string{"run", "--config", configPath, url}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := Run([]string{"run", "--config", configPath, url}); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	records, err := logsession.NewManager(cfg.LogFolder).List()
	if err != nil || len(records) != 2 {
		t.Fatalf("expected two session records: %v %d", err, len(records))
	}
	// The second run finds everything on disk and downloads nothing.
	if records[0].Downloaded != 0 || records[0].Status != model.PhaseCompleted {
		t.Fatalf("second run should adopt existing files: %+v", records[0])
	}
}

func TestHarnessRunAlbumsOnlySkipsPlaylists(t *testing.T) {
	fakeToolsOnPath(t)
	configPath := seedConfig(t, nil)
	cfg := configstore.New(configPath).Load()

	playlist := "https://music.youtube.com/playlist?list=PLtrip"
	if err := Run([]string{"run", "--config", configPath, "--albums-only", playlist}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.BaseFolder, "Unsorted Songs")); !os.IsNotExist(err) {
		t.Fatal("albums-only run must not process playlists")
	}
	records, err := logsession.NewManager(cfg.LogFolder).List()
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one session record: %v", err)
	}
	if records[0].Collections != 0 {
		t.Fatalf("no collections expected: %+v", records[0])
	}
}

func TestRunRejectsConflictingModeFlags(t *testing.T) {
	fakeToolsOnPath(t)
	configPath := seedConfig(t, nil)
	err := Run([]string{"run", "--config", configPath, "--albums-only", "--playlists-only", "url"})
	if err == nil {
		t.Fatal("conflicting mode flags must be rejected")
	}
}

func TestRunWithoutURLsFails(t *testing.T) {
	fakeToolsOnPath(t)
	configPath := seedConfig(t, nil)
	if err := Run([]string{"run", "--config", configPath}); err == nil {
		t.Fatal("run without URLs must fail")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := Run([]string{"frobnicate"}); err == nil {
		t.Fatal("unknown command must fail")
	}
}
