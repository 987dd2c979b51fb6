package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"yt-music-sync/internal/configstore"
	"yt-music-sync/internal/engine"
	"yt-music-sync/internal/model"
	"yt-music-sync/internal/ytdlp"
)

type runOutcome struct {
	Status string
	Counts engine.RunCounts
}

func runRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	config := fs.String("config", configstore.DefaultConfigPath, "config file path")
	albumsOnly := fs.Bool("albums-only", false, "process only album URLs")
	playlistsOnly := fs.Bool("playlists-only", false, "process only playlist URLs")
	watch := fs.Bool("watch", false, "show the live dashboard while the run executes")

	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *albumsOnly && *playlistsOnly {
		return fmt.Errorf("--albums-only and --playlists-only are mutually exclusive")
	}

	if err := ytdlp.CheckDependencies(); err != nil {
		return err
	}

	a := newApp(*config)
	urls := fs.Args()
	if len(urls) == 0 {
		urls = a.store.Load().URLs
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given and none configured (use: ytm-sync config add-url <url>)")
	}

	trigger := model.TriggerManual
	force := model.DownloadMode("")
	switch {
	case *albumsOnly:
		trigger = model.TriggerManualAlbums
		force = model.ModeAlbumsOnly
	case *playlistsOnly:
		trigger = model.TriggerManualPlaylists
		force = model.ModePlaylistsOnly
	}

	done := make(chan runOutcome, 1)
	a.worker.OnRunDone = func(runStatus string, counts engine.RunCounts) {
		done <- runOutcome{Status: runStatus, Counts: counts}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = a.worker.Loop(ctx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "cancellation requested; finishing the current operation...")
		a.state.RequestCancel()
		<-sigCh
		cancel()
	}()

	task := model.NewTask(urls, trigger, force)
	if err := a.worker.Enqueue(task); err != nil {
		return err
	}

	if *watch {
		if err := runWatch(a.state); err != nil {
			fmt.Fprintf(os.Stderr, "dashboard error: %v\n", err)
		}
	}

	outcome := <-done
	fmt.Printf("run finished: status=%s collections=%d downloaded=%d errors=%d\n",
		outcome.Status, outcome.Counts.Collections, outcome.Counts.Downloaded, outcome.Counts.Errors)
	if outcome.Status == model.PhaseError {
		return fmt.Errorf("run ended with status error")
	}
	return nil
}
