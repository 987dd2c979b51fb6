package configstore

import (
	"path/filepath"
	"strings"
	"time"

	"yt-music-sync/internal/model"
)

const configSchemaVersion = 1

type CronSchedule struct {
	Minute    string `json:"minute"`
	Hour      string `json:"hour"`
	Day       string `json:"day"`
	Month     string `json:"month"`
	DayOfWeek string `json:"day_of_week"`
}

// Spec renders the schedule as a standard five-field cron expression.
func (c CronSchedule) Spec() string {
	return strings.Join([]string{c.Minute, c.Hour, c.Day, c.Month, c.DayOfWeek}, " ")
}

// Config is the shared configuration document. It is mutated only through
// Store and persisted as a single JSON file.
type Config struct {
	SchemaVersion  int          `json:"schema_version"`
	BaseFolder     string       `json:"base_folder"`
	RecordFileName string       `json:"record_file_name"`
	IndexFolder    string       `json:"index_folder"`
	MountPath      string       `json:"mount_path"`
	LogFolder      string       `json:"log_folder"`
	URLs           []string     `json:"urls"`
	CronEnabled    bool         `json:"cron_enabled"`
	Cron           CronSchedule `json:"cron_schedule"`
	LastRun        string       `json:"last_run,omitempty"`
	NextRun        string       `json:"next_run,omitempty"`
	TimeoutMetaS   int          `json:"timeout_metadata_s"`
	TimeoutDLS     int          `json:"timeout_download_s"`
	MaxRetries     int          `json:"max_retries"`
	// ParallelLimit is persisted for compatibility with older documents.
	// The worker is single-consumer by construction and does not read it.
	ParallelLimit  int                `json:"parallel_limit"`
	Debug          bool               `json:"debug"`
	CookiesEnabled bool               `json:"cookies_enabled"`
	CookiesPath    string             `json:"cookies_path,omitempty"`
	DownloadMode   model.DownloadMode `json:"download_mode"`
}

func Default() Config {
	return Config{
		SchemaVersion:  configSchemaVersion,
		BaseFolder:     "/music",
		RecordFileName: ".downloaded_videos.txt",
		IndexFolder:    "/playlists",
		MountPath:      "/music",
		LogFolder:      "logs",
		URLs:           []string{},
		CronEnabled:    false,
		Cron: CronSchedule{
			Minute:    "0",
			Hour:      "2",
			Day:       "*",
			Month:     "*",
			DayOfWeek: "*",
		},
		TimeoutMetaS:  120,
		TimeoutDLS:    600,
		MaxRetries:    3,
		ParallelLimit: 4,
		DownloadMode:  model.ModeBoth,
	}
}

func (c Config) MetadataTimeout() time.Duration {
	return time.Duration(c.TimeoutMetaS) * time.Second
}

func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.TimeoutDLS) * time.Second
}

func (c Config) RecordPath() string {
	return filepath.Join(c.BaseFolder, c.RecordFileName)
}

func normalize(cfg Config) Config {
	def := Default()
	if cfg.SchemaVersion == 0 {
		cfg.SchemaVersion = configSchemaVersion
	}
	if strings.TrimSpace(cfg.BaseFolder) == "" {
		cfg.BaseFolder = def.BaseFolder
	}
	if strings.TrimSpace(cfg.RecordFileName) == "" {
		cfg.RecordFileName = def.RecordFileName
	}
	if strings.TrimSpace(cfg.IndexFolder) == "" {
		cfg.IndexFolder = def.IndexFolder
	}
	if strings.TrimSpace(cfg.MountPath) == "" {
		cfg.MountPath = def.MountPath
	}
	if strings.TrimSpace(cfg.LogFolder) == "" {
		cfg.LogFolder = def.LogFolder
	}
	if cfg.URLs == nil {
		cfg.URLs = []string{}
	}
	cfg.Cron = normalizeSchedule(cfg.Cron, def.Cron)
	if cfg.TimeoutMetaS <= 0 {
		cfg.TimeoutMetaS = def.TimeoutMetaS
	}
	if cfg.TimeoutDLS <= 0 {
		cfg.TimeoutDLS = def.TimeoutDLS
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.ParallelLimit <= 0 {
		cfg.ParallelLimit = def.ParallelLimit
	}
	if mode, ok := model.ParseDownloadMode(string(cfg.DownloadMode)); ok {
		cfg.DownloadMode = mode
	} else {
		cfg.DownloadMode = def.DownloadMode
	}
	return cfg
}

func normalizeSchedule(s, def CronSchedule) CronSchedule {
	if strings.TrimSpace(s.Minute) == "" {
		s.Minute = def.Minute
	}
	if strings.TrimSpace(s.Hour) == "" {
		s.Hour = def.Hour
	}
	if strings.TrimSpace(s.Day) == "" {
		s.Day = def.Day
	}
	if strings.TrimSpace(s.Month) == "" {
		s.Month = def.Month
	}
	if strings.TrimSpace(s.DayOfWeek) == "" {
		s.DayOfWeek = def.DayOfWeek
	}
	return s
}
