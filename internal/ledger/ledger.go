package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ledger is the append-only completion log of media identifiers plus the
// on-disk lookup used to decide whether an item is already materialized.
// Existence is answered by the filesystem, not by the log: downloaded files
// carry their media id as a " - <id>.mp3" filename suffix.
type Ledger struct {
	baseFolder string
	recordPath string
}

func New(baseFolder, recordFileName string) *Ledger {
	return &Ledger{
		baseFolder: baseFolder,
		recordPath: filepath.Join(baseFolder, recordFileName),
	}
}

func (l *Ledger) RecordPath() string {
	return l.recordPath
}

// Append writes one identifier line. Duplicates are permitted and harmless;
// the caller treats failures as best-effort and only logs them.
func (l *Ledger) Append(mediaID string) error {
	id := strings.TrimSpace(mediaID)
	if id == "" {
		return fmt.Errorf("media id is required")
	}
	f, err := os.OpenFile(l.recordPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open record file %s: %w", l.recordPath, err)
	}
	defer f.Close()
	if _, err := f.WriteString(id + "\n"); err != nil {
		return fmt.Errorf("append to record file %s: %w", l.recordPath, err)
	}
	return nil
}

// Recorded reports whether the identifier already appears in the record
// file. This is a convenience for avoiding redundant appends, not the
// existence check.
func (l *Ledger) Recorded(mediaID string) bool {
	data, err := os.ReadFile(l.recordPath)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == mediaID {
			return true
		}
	}
	return false
}

// FindByID walks the base folder for a file whose name ends in the media id.
// Returns the empty string when no match exists.
func (l *Ledger) FindByID(mediaID string) string {
	id := strings.TrimSpace(mediaID)
	if id == "" {
		return ""
	}
	suffix := id + ".mp3"
	found := ""
	_ = filepath.WalkDir(l.baseFolder, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		lower := strings.ToLower(name)
		if strings.HasSuffix(lower, ".part") || strings.HasSuffix(lower, ".tmp") {
			return nil
		}
		if strings.HasSuffix(name, suffix) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func (l *Ledger) Exists(mediaID string) bool {
	return l.FindByID(mediaID) != ""
}
