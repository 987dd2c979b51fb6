package logsession

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"yt-music-sync/internal/fsutil"
	"yt-music-sync/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// Record is the session index entry for one worker run. It is created when
// the session opens and updated in place (matched by filename) when it
// closes.
type Record struct {
	Filename    string `json:"filename"`
	StartedAt   string `json:"started_at"`
	Trigger     string `json:"trigger_type"`
	Status      string `json:"status"`
	Collections int    `json:"collections_processed"`
	Downloaded  int    `json:"items_downloaded"`
	Errors      int    `json:"errors"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// Manager owns the log directory: one plain-text log file per run plus a
// sessions.json index, most-recent-first.
type Manager struct {
	dir string
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

func (m *Manager) indexPath() string {
	return filepath.Join(m.dir, "sessions.json")
}

// Open starts a session: creates the run log file with its header block and
// registers a running index entry.
func (m *Manager) Open(trigger model.TriggerType) (*Session, error) {
	if err := fsutil.Mkdir(m.dir); err != nil {
		return nil, err
	}

	started := time.Now()
	name := fmt.Sprintf("run_%s.log", started.Format("20060102_150405"))
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(m.dir, name)); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("run_%s_%d.log", started.Format("20060102_150405"), i)
	}

	f, err := os.Create(filepath.Join(m.dir, name))
	if err != nil {
		return nil, fmt.Errorf("create session log %s: %w", name, err)
	}

	s := &Session{
		mgr:  m,
		file: f,
		rec: Record{
			Filename:  name,
			StartedAt: started.Format(timeLayout),
			Trigger:   string(trigger),
			Status:    model.PhaseRunning,
		},
	}
	fmt.Fprintf(f, "==== session started %s ====\n", s.rec.StartedAt)
	fmt.Fprintf(f, "trigger: %s\n\n", trigger)

	if err := m.upsert(s.rec); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

// List returns the session index, most recent first.
func (m *Manager) List() ([]Record, error) {
	var records []Record
	if err := fsutil.ReadJSON(m.indexPath(), &records); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, err
	}
	return records, nil
}

// upsert updates an existing entry with the same filename in place, or
// prepends a new one. Entries are never duplicated.
func (m *Manager) upsert(rec Record) error {
	records, err := m.List()
	if err != nil {
		return err
	}
	replaced := false
	for i := range records {
		if records[i].Filename == rec.Filename {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append([]Record{rec}, records...)
	}
	return fsutil.WriteJSON(m.indexPath(), records)
}

// Session is one open run log. The worker is its only writer.
type Session struct {
	mgr    *Manager
	file   *os.File
	rec    Record
	debug  bool
	Mirror func(level, message string)
	// MirrorDebug feeds the separate debug ring when debug mode is on.
	MirrorDebug func(level, message string)
}

func (s *Session) Filename() string {
	return s.rec.Filename
}

func (s *Session) SetDebug(enabled bool) {
	s.debug = enabled
}

// Log writes one timestamped line to the run log and mirrors it to the
// status ring when a mirror is attached.
func (s *Session) Log(level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(s.file, "%s [%s] %s\n", time.Now().Format(timeLayout), level, msg)
	if s.Mirror != nil {
		s.Mirror(level, msg)
	}
}

// Debug writes only when debug mode is on.
func (s *Session) Debug(format string, args ...any) {
	if !s.debug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(s.file, "%s [DEBUG] %s\n", time.Now().Format(timeLayout), msg)
	if s.MirrorDebug != nil {
		s.MirrorDebug("DEBUG", msg)
	}
}

// Close writes the footer block, closes the file, and settles the index
// entry with the final status and counts.
func (s *Session) Close(runStatus string, collections, downloaded, errCount int) error {
	completed := time.Now().Format(timeLayout)
	fmt.Fprintf(s.file, "\n==== session ended %s status=%s collections=%d downloaded=%d errors=%d ====\n",
		completed, runStatus, collections, downloaded, errCount)
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close session log %s: %w", s.rec.Filename, err)
	}

	s.rec.Status = runStatus
	s.rec.Collections = collections
	s.rec.Downloaded = downloaded
	s.rec.Errors = errCount
	s.rec.CompletedAt = completed
	return s.mgr.upsert(s.rec)
}
