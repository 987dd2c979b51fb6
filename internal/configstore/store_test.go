package configstore

import (
	"os"
	"path/filepath"
	"testing"

	"yt-music-sync/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "config", "config.json"))
	s.retryDelay = 0
	return s
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	s := newTestStore(t)
	cfg := s.Load()
	def := Default()
	if cfg.BaseFolder != def.BaseFolder || cfg.MaxRetries != def.MaxRetries {
		t.Fatalf("missing config must load defaults, got %+v", cfg)
	}
	if cfg.Cron.Spec() != "0 2 * * *" {
		t.Fatalf("unexpected default schedule %q", cfg.Cron.Spec())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := Default()
	want.BaseFolder = "/srv/music"
	want.URLs = []string{"https://music.youtube.com/playlist?list=PLabc"}
	want.CronEnabled = true
	want.Cron.Hour = "4"
	want.MaxRetries = 7
	want.Debug = true
	want.DownloadMode = model.ModeAlbumsOnly

	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := s.Load()
	if got.BaseFolder != want.BaseFolder {
		t.Fatalf("base folder: got %q want %q", got.BaseFolder, want.BaseFolder)
	}
	if len(got.URLs) != 1 || got.URLs[0] != want.URLs[0] {
		t.Fatalf("urls: got %v", got.URLs)
	}
	if !got.CronEnabled || got.Cron.Spec() != "0 4 * * *" {
		t.Fatalf("schedule: enabled=%v spec=%q", got.CronEnabled, got.Cron.Spec())
	}
	if got.MaxRetries != 7 || !got.Debug || got.DownloadMode != model.ModeAlbumsOnly {
		t.Fatalf("fields lost in round trip: %+v", got)
	}
}

func TestLoadCorruptFileFallsBackToDefaults(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := s.Load()
	if cfg.BaseFolder != Default().BaseFolder {
		t.Fatalf("corrupt config must fall back to defaults, got %+v", cfg)
	}
}

func TestLoadEmptyFileFallsBackToDefaults(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := s.Load()
	if cfg.MaxRetries != Default().MaxRetries {
		t.Fatalf("empty config must fall back to defaults, got %+v", cfg)
	}
}

func TestLoadFillsMissingKeys(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	partial := `{"base_folder":"/srv/music","urls":[]}`
	if err := os.WriteFile(s.Path(), []byte(partial), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := s.Load()
	if cfg.BaseFolder != "/srv/music" {
		t.Fatalf("explicit key lost: %q", cfg.BaseFolder)
	}
	def := Default()
	if cfg.RecordFileName != def.RecordFileName || cfg.TimeoutDLS != def.TimeoutDLS || cfg.DownloadMode != def.DownloadMode {
		t.Fatalf("missing keys must take defaults: %+v", cfg)
	}
}

func TestUpdateAppliesAndPersists(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Update(func(c *Config) {
		c.URLs = append(c.URLs, "https://music.youtube.com/playlist?list=PLabc")
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	reread := New(s.Path())
	cfg := reread.Load()
	if len(cfg.URLs) != 1 {
		t.Fatalf("update not persisted: %v", cfg.URLs)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(Default()); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected files next to config: %v", names)
	}
}

func TestNormalizeRejectsUnknownDownloadMode(t *testing.T) {
	cfg := Default()
	cfg.DownloadMode = "sideways"
	if got := normalize(cfg).DownloadMode; got != model.ModeBoth {
		t.Fatalf("unknown mode must normalize to both, got %q", got)
	}
}
