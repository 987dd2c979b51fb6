package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"yt-music-sync/internal/configstore"
	"yt-music-sync/internal/logsession"
	"yt-music-sync/internal/model"
	"yt-music-sync/internal/status"
)

var (
	ErrRunInProgress = errors.New("a run is already in progress")
	ErrQueueFull     = errors.New("download queue is full")
)

const taskQueueSize = 16

type RunCounts struct {
	Collections int
	Downloaded  int
	Errors      int
}

// Worker is the single consumer of the task queue. Runs execute strictly
// sequentially; a task that arrives while a run is active is rejected at
// enqueue time, and a task that still slips through is discarded.
type Worker struct {
	store    *configstore.Store
	state    *status.State
	sessions *logsession.Manager
	proc     *Processor
	tasks    chan model.Task

	// OnRunDone is invoked after every run settles; callers use it to wait
	// for a one-shot run.
	OnRunDone func(runStatus string, counts RunCounts)
}

func NewWorker(store *configstore.Store, st *status.State, sessions *logsession.Manager, fetcher Fetcher, tagger Tagger, cover CoverTool) *Worker {
	return &Worker{
		store:    store,
		state:    st,
		sessions: sessions,
		proc: &Processor{
			Fetcher:    fetcher,
			Tagger:     tagger,
			Cover:      cover,
			State:      st,
			RetryDelay: 5 * time.Second,
		},
		tasks: make(chan model.Task, taskQueueSize),
	}
}

// SetRetryDelay adjusts the fixed inter-attempt delay.
func (w *Worker) SetRetryDelay(d time.Duration) {
	w.proc.RetryDelay = d
}

// Enqueue accepts a task unless a run is active or the queue is full. The
// check against the running state is what rejects a second run request
// without mutating anything.
func (w *Worker) Enqueue(task model.Task) error {
	if w.state.Running() {
		return ErrRunInProgress
	}
	select {
	case w.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Loop consumes tasks until the context is cancelled. It never exits
// because of a run failure.
func (w *Worker) Loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case task := <-w.tasks:
			w.runTask(ctx, task)
		}
	}
}

func (w *Worker) runTask(ctx context.Context, task model.Task) {
	if !w.state.TryStartRun() {
		// Defends against an enqueuer racing the running flag.
		fmt.Fprintf(os.Stderr, "discarding task %s: a run is already in progress\n", task.ID)
		return
	}

	cfg := w.store.Load()
	session, err := w.sessions.Open(task.Trigger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log session: %v\n", err)
		w.state.FinishRun(model.PhaseError, "Error", err.Error())
		w.notify(model.PhaseError, RunCounts{})
		return
	}
	session.Mirror = w.state.Append
	session.MirrorDebug = w.state.AppendDebug
	session.SetDebug(cfg.Debug)

	runStatus, counts, errMsg := w.executeRun(ctx, cfg, task, session)

	if err := session.Close(runStatus, counts.Collections, counts.Downloaded, counts.Errors); err != nil {
		fmt.Fprintf(os.Stderr, "close log session: %v\n", err)
	}

	switch runStatus {
	case model.PhaseCompleted:
		w.state.FinishRun(runStatus, "Completed", "All downloads finished")
	case model.PhaseCancelled:
		w.state.FinishRun(runStatus, "Cancelled", "Run stopped by request")
	default:
		w.state.FinishRun(model.PhaseError, "Error", errMsg)
	}
	w.notify(runStatus, counts)
}

func (w *Worker) executeRun(ctx context.Context, cfg configstore.Config, task model.Task, session *logsession.Session) (runStatus string, counts RunCounts, errMsg string) {
	runStatus = model.PhaseCompleted
	defer func() {
		if r := recover(); r != nil {
			errMsg = fmt.Sprintf("%v", r)
			session.Log("ERROR", "Worker error: %v", r)
			runStatus = model.PhaseError
		}
	}()

	session.Log("INFO", "Run %s started (trigger: %s)", task.ID, task.Trigger)
	session.Debug("urls: %v", task.URLs)

	session.Log("INFO", "Updating downloader...")
	uctx, cancel := context.WithTimeout(ctx, time.Minute)
	if err := w.proc.Fetcher.Update(uctx); err != nil {
		session.Log("WARNING", "Downloader update failed: %v", err)
	} else {
		session.Log("INFO", "Downloader updated successfully")
	}
	cancel()

	albums, playlists := Categorize(task.URLs)
	mode := task.ForceMode
	if mode == "" {
		mode = cfg.DownloadMode
	}
	switch mode {
	case model.ModePlaylistsOnly:
		albums = nil
	case model.ModeAlbumsOnly:
		playlists = nil
	}
	session.Log("INFO", "Processing %d album(s) and %d playlist(s)", len(albums), len(playlists))

	pass := func(urls []string, label string) bool {
		if len(urls) == 0 {
			return true
		}
		session.Log("INFO", label)
		for _, u := range urls {
			if w.state.CancelRequested() {
				return false
			}
			res := w.processURL(ctx, cfg, u, session)
			counts.Collections++
			counts.Downloaded += res.Downloaded
			counts.Errors += res.Errors
		}
		return true
	}

	// Albums settle their per-track metadata before playlist processing can
	// rediscover the same songs as duplicates.
	done := pass(albums, "PASS 1: Processing Albums") &&
		pass(playlists, "PASS 2: Processing Playlists")

	if !done || w.state.CancelRequested() {
		session.Log("WARNING", "Run cancelled")
		return model.PhaseCancelled, counts, ""
	}
	session.Log("INFO", "All downloads completed!")
	return runStatus, counts, ""
}

// processURL contains one URL's failures: anything escaping the processor is
// logged and counted without aborting the remaining URLs.
func (w *Worker) processURL(ctx context.Context, cfg configstore.Config, url string, session *logsession.Session) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			session.Log("ERROR", "Unexpected failure processing %s: %v", url, r)
			res.Errors++
		}
	}()
	return w.proc.Process(ctx, cfg, url, session)
}

func (w *Worker) notify(runStatus string, counts RunCounts) {
	if w.OnRunDone != nil {
		w.OnRunDone(runStatus, counts)
	}
}

// Categorize splits source URLs into the album and playlist passes.
func Categorize(urls []string) (albums, playlists []string) {
	for _, u := range urls {
		if IsAlbumURL(u) {
			albums = append(albums, u)
		} else {
			playlists = append(playlists, u)
		}
	}
	return albums, playlists
}
