package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"yt-music-sync/internal/configstore"
	"yt-music-sync/internal/sched"
	"yt-music-sync/internal/ytdlp"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	config := fs.String("config", configstore.DefaultConfigPath, "config file path")

	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := ytdlp.CheckDependencies(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(*config)
	scheduler := sched.New(a.store, a.worker, a.state)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	cfg := a.store.Load()
	fmt.Printf("serve: worker ready (config: %s, %d subscribed URL(s))\n", a.store.Path(), len(cfg.URLs))
	if next := scheduler.NextRun(); !next.IsZero() {
		fmt.Printf("serve: next scheduled run at %s\n", next.Format("2006-01-02 15:04:05"))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.worker.Loop(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		// The worker finishes the task in flight; cancellation stops it at
		// the next checkpoint.
		if a.state.Running() {
			a.state.RequestCancel()
			fmt.Fprintln(os.Stderr, "serve: shutdown requested, cancelling the active run")
		}
		return nil
	})
	return g.Wait()
}
