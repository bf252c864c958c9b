package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

var version = ""

func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func usage() {
	fmt.Println("wordc: count tracked words (TODO, FIXME, NOTE) in your documents")
	fmt.Println()
	fmt.Println("Usage: wordc [flags] [file|glob|-]...")
	fmt.Println()
	fmt.Println("Each file opens as a document; the first is active. Globs may use **.")
	fmt.Println("A lone - reads an untitled document from stdin.")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --help, -h      Show this help")
	fmt.Println("  --version       Print version")
	fmt.Println("  --demo          Launch with demo documents")
	fmt.Println("  --debug         Write a debug log (see $WORDC_LOG)")
	fmt.Println("  --init-config   Write a config file with every default spelled out")
}

type options struct {
	demo       bool
	debug      bool
	initConfig bool
	files      []string
}

// parseArgs splits flags from file arguments. done is true when a flag like
// --help has already been handled.
func parseArgs(args []string) (opts options, done bool, err error) {
	for _, a := range args {
		switch a {
		case "--help", "-h":
			usage()
			return opts, true, nil
		case "--version":
			fmt.Println("wordc " + getVersion())
			return opts, true, nil
		case "--demo":
			opts.demo = true
		case "--debug":
			opts.debug = true
		case "--init-config":
			opts.initConfig = true
		default:
			if strings.HasPrefix(a, "-") && a != "-" {
				return opts, false, fmt.Errorf("unknown flag: %s", a)
			}
			opts.files = append(opts.files, a)
		}
	}
	return opts, false, nil
}

// initConfig writes the effective config, defaults included, to config.json.
// An existing file is left alone.
func initConfig(cfg config) (string, error) {
	path, err := configPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return path, err
	}
	if err := saveConfig(path, explicitConfig(cfg)); err != nil {
		return path, fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

func main() {
	opts, done, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\nRun wordc --help for usage.\n", err)
		os.Exit(1)
	}
	if done {
		return
	}

	cfg, cfgErr := loadConfig()
	if cfgErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", cfgErr)
	}

	if opts.initConfig {
		path, err := initConfig(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Wrote " + contractHome(path))
		return
	}

	dlog := newDebugLog(cfg.DebugLogs || opts.debug)
	defer dlog.Close()
	dlog.logger.Info("starting", "version", getVersion(), "files", opts.files)
	if cfgErr != nil {
		dlog.logger.Warn("config", "err", cfgErr)
	}

	ws, err := loadWorkspace(opts.files, os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not start file watcher: %v\n", err)
	} else {
		defer watcher.Close()
		syncWatches(watcher, watchDirs(ws))
	}

	m := newModel(ws, cfg, watcher, dlog)
	m.forceDebug = opts.debug
	if opts.demo {
		m.enterDemoMode()
	}
	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
	if slices.Contains(opts.files, "-") {
		// stdin was the document; keys come from the terminal.
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	p := tea.NewProgram(m, progOpts...)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
