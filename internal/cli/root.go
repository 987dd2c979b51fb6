package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "run":
		return runRun(args[1:])
	case "serve":
		return runServe(args[1:])
	case "status":
		return runStatus(args[1:])
	case "sessions":
		return runSessions(args[1:])
	case "config":
		return runConfig(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("ytm-sync: scheduled YouTube Music playlist and album downloader")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  ytm-sync config add-url <url>")
	fmt.Println("  ytm-sync run --watch")
	fmt.Println("  ytm-sync serve")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run       run a one-shot download of the given (or subscribed) URLs")
	fmt.Println("  serve     run the background worker with the cron schedule enabled")
	fmt.Println("  status    show configuration and recent session rollup")
	fmt.Println("  sessions  list recorded run sessions")
	fmt.Println("  config    show or update the configuration document")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - run --albums-only / --playlists-only restricts a run to one category")
	fmt.Println("  - the first Ctrl-C requests a cooperative cancel; the second forces exit")
}
