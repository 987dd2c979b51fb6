package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"yt-music-sync/internal/configstore"
	"yt-music-sync/internal/logsession"
)

func runSessions(args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	config := fs.String("config", configstore.DefaultConfigPath, "config file path")
	asJSON := fs.Bool("json", false, "print the raw session index as JSON")
	limit := fs.Int("limit", 20, "maximum number of sessions to list")
	showLog := fs.String("show", "", "print the log file of the given session filename")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := configstore.New(*config).Load()
	mgr := logsession.NewManager(cfg.LogFolder)

	if *showLog != "" {
		data, err := os.ReadFile(filepath.Join(cfg.LogFolder, filepath.Base(*showLog)))
		if err != nil {
			return fmt.Errorf("read session log: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	records, err := mgr.List()
	if err != nil {
		return err
	}
	if *limit > 0 && len(records) > *limit {
		records = records[:*limit]
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("no sessions recorded yet")
		return nil
	}
	fmt.Printf("%-24s %-19s %-16s %-10s %11s %10s %6s\n",
		"FILE", "STARTED", "TRIGGER", "STATUS", "COLLECTIONS", "DOWNLOADED", "ERRORS")
	for _, r := range records {
		fmt.Printf("%-24s %-19s %-16s %-10s %11d %10d %6d\n",
			truncateString(r.Filename, 24), r.StartedAt, truncateString(r.Trigger, 16),
			r.Status, r.Collections, r.Downloaded, r.Errors)
	}
	return nil
}
