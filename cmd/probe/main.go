// Package main provides the entry point for the model capability prober.
// The prober runs a fixed sequence of feature-specific requests against an
// OpenAI-compatible endpoint to determine which optional capabilities each
// model actually supports: chat, function calling, structured output, and
// vision input.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/modelprobe/modelprobe/internal/api"
	"github.com/modelprobe/modelprobe/internal/buildinfo"
	"github.com/modelprobe/modelprobe/internal/client"
	"github.com/modelprobe/modelprobe/internal/config"
	"github.com/modelprobe/modelprobe/internal/logging"
	"github.com/modelprobe/modelprobe/internal/probe"
	"github.com/modelprobe/modelprobe/internal/report"
	"github.com/modelprobe/modelprobe/internal/tui"
	"github.com/modelprobe/modelprobe/internal/util"
	log "github.com/sirupsen/logrus"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = "probe-config.yaml"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

// main parses command-line flags, loads configuration, and dispatches to the
// selected mode: one-shot probing, the report server, or the interactive UI.
func main() {
	var (
		configPath  string
		apiKey      string
		apiBase     string
		modelID     string
		pattern     string
		probeAll    bool
		jsonOutput  bool
		serve       bool
		port        int
		debug       bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configure file path")
	flag.StringVar(&apiKey, "api-key", "", "API key (overrides config and OPENAI_API_KEY)")
	flag.StringVar(&apiBase, "api-base", "", "API base URL (overrides config and OPENAI_API_BASE)")
	flag.StringVar(&modelID, "model", "", "Probe a single model by identifier")
	flag.StringVar(&pattern, "pattern", "", "Probe all models whose identifier contains this pattern")
	flag.BoolVar(&probeAll, "all", false, "Probe every model the endpoint lists")
	flag.BoolVar(&jsonOutput, "json", false, "Output results as JSON instead of a table")
	flag.BoolVar(&serve, "serve", false, "Start the HTTP report server")
	flag.IntVar(&port, "port", 0, "Report server port (overrides config)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("modelprobe Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if apiBase != "" {
		cfg.APIBase = apiBase
	}
	if port > 0 {
		cfg.Port = port
	}
	if debug {
		cfg.Debug = true
	}

	util.SetLogLevel(cfg)
	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		os.Exit(1)
	}
	if err = cfg.Validate(); err != nil {
		log.Error(err)
		os.Exit(1)
	}

	engine := probe.NewEngine(client.New(cfg), cfg)
	ctx := context.Background()

	switch {
	case serve:
		if err = api.Run(cfg, engine); err != nil {
			log.Errorf("report server exited: %v", err)
			os.Exit(1)
		}

	case modelID != "":
		printResults(jsonOutput, engine.ProbeModel(ctx, modelID))

	case pattern != "" || probeAll:
		models, errList := engine.ListModels(ctx)
		if errList != nil {
			log.Errorf("failed to list models: %v", errList)
			os.Exit(1)
		}
		matched := probe.FilterModels(models, pattern)
		if len(matched) == 0 {
			log.Errorf("no models match pattern %q", pattern)
			os.Exit(1)
		}
		printResults(jsonOutput, engine.ProbeModels(ctx, matched)...)

	default:
		if err = tui.Run(engine); err != nil {
			log.Errorf("interactive session failed: %v", err)
			os.Exit(1)
		}
	}
}

// printResults writes each result to stdout in the selected format.
func printResults(jsonOutput bool, results ...*probe.Result) {
	for _, result := range results {
		if jsonOutput {
			out, err := report.RenderJSON(result)
			if err != nil {
				log.Errorf("failed to render result for %s: %v", result.ModelID, err)
				continue
			}
			fmt.Println(out)
			continue
		}
		fmt.Println(report.RenderTable(result))
	}
}
