package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"yt-music-sync/internal/configstore"
	"yt-music-sync/internal/model"
)

func runConfig(args []string) error {
	if len(args) == 0 {
		printConfigUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runConfigShow(args[1:])
	case "set":
		return runConfigSet(args[1:])
	case "add-url":
		return runConfigAddURL(args[1:])
	case "remove-url":
		return runConfigRemoveURL(args[1:])
	case "schedule":
		return runConfigSchedule(args[1:])
	case "help", "-h", "--help":
		printConfigUsage()
		return nil
	default:
		printConfigUsage()
		return fmt.Errorf("unknown config subcommand %q", args[0])
	}
}

func printConfigUsage() {
	fmt.Println("ytm-sync config: show or update the configuration document")
	fmt.Println()
	fmt.Println("Subcommands:")
	fmt.Println("  show                      print the effective configuration as JSON")
	fmt.Println("  set <key> <value>         set a configuration key")
	fmt.Println("  add-url <url>             subscribe a playlist or album URL")
	fmt.Println("  remove-url <url>          unsubscribe a URL")
	fmt.Println("  schedule [flags]          enable, disable, or edit the cron schedule")
	fmt.Println()
	fmt.Println("Keys for set:")
	fmt.Println("  base-folder index-folder mount-path log-folder download-mode")
	fmt.Println("  max-retries timeout-metadata-s timeout-download-s debug")
	fmt.Println("  cookies-enabled cookies-path")
}

func runConfigShow(args []string) error {
	fs := flag.NewFlagSet("config show", flag.ContinueOnError)
	config := fs.String("config", configstore.DefaultConfigPath, "config file path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := configstore.New(*config).Load()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

func runConfigSet(args []string) error {
	fs := flag.NewFlagSet("config set", flag.ContinueOnError)
	config := fs.String("config", configstore.DefaultConfigPath, "config file path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: ytm-sync config set <key> <value>")
	}
	key, value := rest[0], rest[1]

	apply, err := configSetter(key, value)
	if err != nil {
		return err
	}
	store := configstore.New(*config)
	if _, err := store.Update(apply); err != nil {
		return err
	}
	fmt.Printf("config updated: %s\n", key)
	return nil
}

func configSetter(key, value string) (func(*configstore.Config), error) {
	switch key {
	case "base-folder":
		return func(c *configstore.Config) { c.BaseFolder = value }, nil
	case "index-folder":
		return func(c *configstore.Config) { c.IndexFolder = value }, nil
	case "mount-path":
		return func(c *configstore.Config) { c.MountPath = value }, nil
	case "log-folder":
		return func(c *configstore.Config) { c.LogFolder = value }, nil
	case "download-mode":
		mode, ok := model.ParseDownloadMode(value)
		if !ok {
			return nil, fmt.Errorf("download-mode must be one of: both, playlists_only, albums_only")
		}
		return func(c *configstore.Config) { c.DownloadMode = mode }, nil
	case "max-retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("max-retries must be an integer >= 1")
		}
		return func(c *configstore.Config) { c.MaxRetries = n }, nil
	case "timeout-metadata-s":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("timeout-metadata-s must be an integer >= 1")
		}
		return func(c *configstore.Config) { c.TimeoutMetaS = n }, nil
	case "timeout-download-s":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("timeout-download-s must be an integer >= 1")
		}
		return func(c *configstore.Config) { c.TimeoutDLS = n }, nil
	case "debug":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("debug must be true or false")
		}
		return func(c *configstore.Config) { c.Debug = v }, nil
	case "cookies-enabled":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("cookies-enabled must be true or false")
		}
		return func(c *configstore.Config) { c.CookiesEnabled = v }, nil
	case "cookies-path":
		return func(c *configstore.Config) { c.CookiesPath = value }, nil
	default:
		return nil, fmt.Errorf("unknown config key %q", key)
	}
}

func runConfigAddURL(args []string) error {
	fs := flag.NewFlagSet("config add-url", flag.ContinueOnError)
	config := fs.String("config", configstore.DefaultConfigPath, "config file path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) == 0 {
		return fmt.Errorf("usage: ytm-sync config add-url <url> [<url>...]")
	}

	store := configstore.New(*config)
	added := 0
	if _, err := store.Update(func(c *configstore.Config) {
		for _, url := range fs.Args() {
			url = strings.TrimSpace(url)
			if url == "" || containsString(c.URLs, url) {
				continue
			}
			c.URLs = append(c.URLs, url)
			added++
		}
	}); err != nil {
		return err
	}
	fmt.Printf("added %d URL(s)\n", added)
	return nil
}

func runConfigRemoveURL(args []string) error {
	fs := flag.NewFlagSet("config remove-url", flag.ContinueOnError)
	config := fs.String("config", configstore.DefaultConfigPath, "config file path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) != 1 {
		return fmt.Errorf("usage: ytm-sync config remove-url <url>")
	}
	target := strings.TrimSpace(fs.Args()[0])

	removed := false
	store := configstore.New(*config)
	if _, err := store.Update(func(c *configstore.Config) {
		kept := c.URLs[:0]
		for _, url := range c.URLs {
			if url == target {
				removed = true
				continue
			}
			kept = append(kept, url)
		}
		c.URLs = kept
	}); err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("URL not subscribed: %s", target)
	}
	fmt.Println("URL removed")
	return nil
}

func runConfigSchedule(args []string) error {
	fs := flag.NewFlagSet("config schedule", flag.ContinueOnError)
	config := fs.String("config", configstore.DefaultConfigPath, "config file path")
	enable := fs.Bool("enable", false, "enable the cron schedule")
	disable := fs.Bool("disable", false, "disable the cron schedule")
	spec := fs.String("spec", "", "five-field cron expression, e.g. \"0 2 * * *\"")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *enable && *disable {
		return fmt.Errorf("--enable and --disable are mutually exclusive")
	}

	var schedule *configstore.CronSchedule
	if *spec != "" {
		fields := strings.Fields(*spec)
		if len(fields) != 5 {
			return fmt.Errorf("--spec needs five fields (minute hour day month day-of-week)")
		}
		schedule = &configstore.CronSchedule{
			Minute:    fields[0],
			Hour:      fields[1],
			Day:       fields[2],
			Month:     fields[3],
			DayOfWeek: fields[4],
		}
	}

	store := configstore.New(*config)
	cfg, err := store.Update(func(c *configstore.Config) {
		if schedule != nil {
			c.Cron = *schedule
		}
		if *enable {
			c.CronEnabled = true
		}
		if *disable {
			c.CronEnabled = false
			c.NextRun = ""
		}
	})
	if err != nil {
		return err
	}

	if cfg.CronEnabled {
		fmt.Printf("schedule enabled: %s\n", cfg.Cron.Spec())
		fmt.Println("note: a running serve process picks the change up on restart")
	} else {
		fmt.Println("schedule disabled")
	}
	return nil
}

func containsString(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}
