package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docchat/cli/config"
	"github.com/docchat/cli/internal/tui"
	"github.com/docchat/cli/pkg/logger"
)

func main() {
	var (
		logLevel = flag.String("log-level", "", "Override configured log level")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	// Logs go next to the config so the terminal stays usable for the UI.
	logDir := filepath.Join(os.Getenv("HOME"), ".docchat")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, filepath.Join(logDir, "docchat.log"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Create and run TUI
	app, err := tui.NewApp(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing app: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}
