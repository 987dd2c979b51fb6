package cli

import (
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"yt-music-sync/internal/configstore"
	"yt-music-sync/internal/logsession"
	"yt-music-sync/internal/model"
)

var (
	statusTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	statusKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	statusWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	config := fs.String("config", configstore.DefaultConfigPath, "config file path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := configstore.New(*config)
	cfg := store.Load()

	fmt.Println(statusTitleStyle.Render("ytm-sync status"))
	fmt.Println()
	printKV("config", store.Path())
	printKV("base folder", cfg.BaseFolder)
	printKV("index folder", cfg.IndexFolder)
	printKV("mount path", cfg.MountPath)
	printKV("log folder", cfg.LogFolder)
	printKV("download mode", string(cfg.DownloadMode))
	printKV("subscribed URLs", fmt.Sprintf("%d", len(cfg.URLs)))
	if cfg.CronEnabled {
		printKV("schedule", statusOKStyle.Render(cfg.Cron.Spec()))
		if cfg.NextRun != "" {
			printKV("next run", cfg.NextRun)
		}
	} else {
		printKV("schedule", statusWarnStyle.Render("disabled"))
	}
	if cfg.LastRun != "" {
		printKV("last scheduled run", cfg.LastRun)
	}
	printKV("debug", yesNo(cfg.Debug))
	printKV("cookies", yesNo(cfg.CookiesEnabled))

	records, err := logsession.NewManager(cfg.LogFolder).List()
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(statusTitleStyle.Render("recent sessions"))
	if len(records) == 0 {
		fmt.Println(statusKeyStyle.Render("  no sessions recorded yet"))
		return nil
	}
	if len(records) > 5 {
		records = records[:5]
	}
	for _, r := range records {
		fmt.Printf("  %s  %-10s  %s  collections=%d downloaded=%d errors=%d\n",
			r.StartedAt, renderStatusWord(r.Status), r.Trigger, r.Collections, r.Downloaded, r.Errors)
	}
	return nil
}

func printKV(key, value string) {
	fmt.Printf("  %s %s\n", statusKeyStyle.Render(fmt.Sprintf("%-20s", key+":")), value)
}

func renderStatusWord(s string) string {
	padded := fmt.Sprintf("%-10s", s)
	switch s {
	case model.PhaseCompleted:
		return statusOKStyle.Render(padded)
	case model.PhaseError:
		return statusErrStyle.Render(padded)
	case model.PhaseCancelled, model.PhaseRunning:
		return statusWarnStyle.Render(padded)
	default:
		return padded
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func truncateString(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	if limit <= 3 {
		return s[:limit]
	}
	return strings.TrimSpace(s[:limit-3]) + "..."
}
