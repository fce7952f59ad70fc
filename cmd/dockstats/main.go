package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dockstats/dockstats/internal/app"
	"github.com/dockstats/dockstats/internal/constants"
	"github.com/dockstats/dockstats/internal/log"
	"github.com/dockstats/dockstats/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	serve := flag.Bool("serve", false, "Keep serving the result over REST/gRPC after the run")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dockstats %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug, nil); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	filename, _ := filepath.Abs(*cfgFile)
	provider := config.NewYAMLProvider(filename)
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		log.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %v", err)
		log.Sync()
		os.Exit(1)
	}

	if cfg.Log.File != "" {
		err := log.Init(*debug, &log.FileOutput{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
		if err != nil {
			log.Errorf("could not set up log file %s: %v", cfg.Log.File, err)
			os.Exit(1)
		}
	}

	// Create and run the application
	application := app.New(provider, log.Named("dockstats"))
	if err := application.Run(context.Background(), *serve); err != nil {
		log.Errorf("Application error: %v", err)
		log.Sync()
		os.Exit(1)
	}
}
