package status

import (
	"sync"
	"time"

	"yt-music-sync/internal/model"
)

// LogHistoryLimit bounds the in-memory log rings.
const LogHistoryLimit = 1000

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Snapshot is a consistent copy of the run status for observers.
type Snapshot struct {
	Phase             string
	IsRunning         bool
	CurrentCollection string
	CurrentItem       string
	Progress          int
	Total             int
	CancelRequested   bool
	Logs              []LogEntry
	DebugLogs         []LogEntry
}

// State is the process-wide run status record. The worker is the only
// writer; the control plane and scheduler read it through Snapshot. All
// access is serialized through the mutex.
type State struct {
	mu sync.Mutex

	phase             string
	currentCollection string
	currentItem       string
	progress          int
	total             int
	cancelRequested   bool
	logs              []LogEntry
	debugLogs         []LogEntry
}

func NewState() *State {
	return &State{phase: model.PhaseIdle}
}

// TryStartRun is the single mutual-exclusion gate: it moves the phase to
// running and resets the per-run fields, or reports false if a run is
// already active.
func (s *State) TryStartRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !model.CanTransition(s.phase, model.PhaseRunning) {
		return false
	}
	s.phase = model.PhaseRunning
	s.cancelRequested = false
	s.progress = 0
	s.total = 0
	s.currentCollection = ""
	s.currentItem = ""
	return true
}

// FinishRun moves the phase to the given terminal phase and sets the
// display fields observers see between runs.
func (s *State) FinishRun(phase, collection, item string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next, err := model.Transition(s.phase, phase); err == nil {
		s.phase = next
	}
	s.currentCollection = collection
	s.currentItem = item
}

func (s *State) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == model.PhaseRunning
}

// RequestCancel flips the cancellation flag. It only has an effect during a
// run and is monotonic within it.
func (s *State) RequestCancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != model.PhaseRunning {
		return false
	}
	s.cancelRequested = true
	return true
}

func (s *State) CancelRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelRequested
}

func (s *State) SetCollection(name string) {
	s.mu.Lock()
	s.currentCollection = name
	s.mu.Unlock()
}

func (s *State) SetItem(name string, progress int) {
	s.mu.Lock()
	s.currentItem = name
	s.progress = progress
	s.mu.Unlock()
}

func (s *State) SetTotal(total int) {
	s.mu.Lock()
	s.total = total
	s.progress = 0
	s.mu.Unlock()
}

func (s *State) Append(level, message string) {
	s.mu.Lock()
	s.logs = appendBounded(s.logs, newEntry(level, message))
	s.mu.Unlock()
}

func (s *State) AppendDebug(level, message string) {
	s.mu.Lock()
	s.debugLogs = appendBounded(s.debugLogs, newEntry(level, message))
	s.mu.Unlock()
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Phase:             s.phase,
		IsRunning:         s.phase == model.PhaseRunning,
		CurrentCollection: s.currentCollection,
		CurrentItem:       s.currentItem,
		Progress:          s.progress,
		Total:             s.total,
		CancelRequested:   s.cancelRequested,
		Logs:              append([]LogEntry(nil), s.logs...),
		DebugLogs:         append([]LogEntry(nil), s.debugLogs...),
	}
}

func newEntry(level, message string) LogEntry {
	return LogEntry{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Level:     level,
		Message:   message,
	}
}

func appendBounded(entries []LogEntry, e LogEntry) []LogEntry {
	entries = append(entries, e)
	if len(entries) > LogHistoryLimit {
		entries = entries[len(entries)-LogHistoryLimit:]
	}
	return entries
}
