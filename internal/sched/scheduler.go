package sched

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"yt-music-sync/internal/configstore"
	"yt-music-sync/internal/model"
	"yt-music-sync/internal/status"
)

const timeLayout = "2006-01-02 15:04:05"

// Enqueuer is the slice of the worker the scheduler needs.
type Enqueuer interface {
	Enqueue(task model.Task) error
}

// Scheduler enqueues a cron-triggered run of the subscribed URLs. It is
// gated by the same running flag as every other caller: an overlapping
// trigger is skipped, never queued behind the active run.
type Scheduler struct {
	store  *configstore.Store
	worker Enqueuer
	state  *status.State
	cron   *cron.Cron
	entry  cron.EntryID
}

func New(store *configstore.Store, worker Enqueuer, st *status.State) *Scheduler {
	return &Scheduler{
		store:  store,
		worker: worker,
		state:  st,
	}
}

// Start registers the cron entry from the current configuration. Disabled
// schedules are a no-op. Schedule edits take effect on the next Start.
func (s *Scheduler) Start() error {
	cfg := s.store.Load()
	if !cfg.CronEnabled {
		return nil
	}

	spec := cfg.Cron.Spec()
	s.cron = cron.New()
	entry, err := s.cron.AddFunc(spec, s.trigger)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	s.entry = entry
	s.cron.Start()

	if _, err := s.store.Update(func(c *configstore.Config) {
		c.NextRun = s.cron.Entry(s.entry).Schedule.Next(time.Now()).Format(timeLayout)
	}); err != nil {
		return err
	}
	fmt.Printf("scheduler: cron enabled (%s)\n", spec)
	return nil
}

// Stop halts the cron loop; an already-started trigger finishes its enqueue.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// NextRun reports the next scheduled fire time, or the zero time when the
// schedule is not active.
func (s *Scheduler) NextRun() time.Time {
	if s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) trigger() {
	cfg := s.store.Load()

	if s.state.Running() {
		fmt.Fprintln(os.Stderr, "scheduler: skipping scheduled run, a run is already in progress")
		return
	}
	if len(cfg.URLs) == 0 {
		fmt.Fprintln(os.Stderr, "scheduler: no URLs configured, skipping scheduled run")
		return
	}

	task := model.NewTask(cfg.URLs, model.TriggerCron, "")
	if err := s.worker.Enqueue(task); err != nil {
		fmt.Fprintf(os.Stderr, "scheduler: enqueue failed: %v\n", err)
		return
	}

	if _, err := s.store.Update(func(c *configstore.Config) {
		c.LastRun = time.Now().Format(timeLayout)
		if next := s.NextRun(); !next.IsZero() {
			c.NextRun = next.Format(timeLayout)
		}
	}); err != nil {
		fmt.Fprintf(os.Stderr, "scheduler: record last run: %v\n", err)
	}
}
