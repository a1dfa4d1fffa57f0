// songscope analyzes recorded audio and reports tempo, key distribution,
// dominant notes, band energy balance and loudness dynamics.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/TofaJede/songscope/internal/analysis"
	"github.com/TofaJede/songscope/internal/audio"
	"github.com/TofaJede/songscope/internal/config"
	"github.com/TofaJede/songscope/internal/report"
	"github.com/TofaJede/songscope/internal/scanner"
)

var version = "0.1.0"

// CLI defines the command-line interface
type CLI struct {
	Version    bool     `short:"v" help:"Show version information"`
	JSON       bool     `help:"Emit results as JSON instead of a styled report"`
	Library    []string `short:"l" type:"existingdir" help:"Library directories to scan for audio files"`
	Workers    int      `short:"w" help:"Concurrent analyses (default: CPUs - 1)"`
	SampleRate int      `help:"Decode sample rate in Hz" default:"0"`
	ConfigDir  string   `type:"path" help:"Configuration directory (default: user config dir)"`
	NoCache    bool     `help:"Skip the on-disk result cache"`
	Verbose    bool     `help:"Enable debug logging"`
	Files      []string `arg:"" name:"files" help:"Audio files to analyze" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("songscope"),
		kong.Description("Musical feature analyzer for recorded audio"),
		kong.UsageOnError(),
	)

	if cliArgs.Version {
		fmt.Printf("songscope %s\n", version)
		os.Exit(0)
	}

	logger := newLogger(cliArgs.Verbose)
	defer logger.Sync()

	cfg := loadConfig(cliArgs, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths := cliArgs.Files
	libraries := append(append([]string{}, cfg.LibraryPaths...), cliArgs.Library...)
	if len(libraries) > 0 {
		found, err := scanner.ScanPaths(ctx, libraries)
		if err != nil {
			logger.Fatal("library scan failed", zap.Error(err))
		}
		paths = append(paths, found...)
	}
	paths = dedupe(paths)
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "no input files specified")
		kctx.PrintUsage(false)
		os.Exit(1)
	}

	decoder, err := audio.NewFFmpegDecoder()
	if err != nil {
		logger.Fatal("decoder unavailable", zap.Error(err))
	}

	var store *analysis.ResultStore
	if !cliArgs.NoCache && cfg.DataDir != "" {
		store, err = analysis.NewResultStore(cfg.DataDir)
		if err != nil {
			logger.Fatal("cannot open result store", zap.Error(err))
		}
	}

	// Results arrive from worker goroutines in completion order; collect
	// and re-emit them in input order.
	var mu sync.Mutex
	results := make(map[string]analysis.TrackResult, len(paths))

	worker, err := analysis.NewWorker(analysis.WorkerConfig{
		MaxWorkers: cfg.Workers,
		SampleRate: cfg.SampleRate,
		Decode:     decoder.DecodeMono,
		Analysis: analysis.Config{
			WindowSize:   cfg.Analysis.WindowSize,
			HopSize:      cfg.Analysis.HopSize,
			TempoMinBPM:  cfg.Analysis.TempoMinBPM,
			TempoMaxBPM:  cfg.Analysis.TempoMaxBPM,
			PitchMinHz:   cfg.Analysis.PitchMinHz,
			PitchMaxHz:   cfg.Analysis.PitchMaxHz,
			YinThreshold: cfg.Analysis.YinThreshold,
		},
		Store: store,
		OnResult: func(r analysis.TrackResult) {
			mu.Lock()
			results[r.Path] = r
			mu.Unlock()
		},
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("cannot create worker", zap.Error(err))
	}

	if err := worker.Start(ctx, paths); err != nil {
		logger.Fatal("cannot start batch", zap.Error(err))
	}
	worker.Wait()

	if store != nil {
		if err := store.Save(); err != nil {
			logger.Warn("cannot save result store", zap.Error(err))
		}
	}

	failed := emit(cliArgs, paths, results)
	if failed > 0 {
		os.Exit(1)
	}
}

// emit prints every result in input order and returns the failure count.
func emit(cliArgs *CLI, ordered []string, results map[string]analysis.TrackResult) int {
	if cliArgs.JSON {
		type jsonEntry struct {
			Path   string      `json:"path"`
			Result interface{} `json:"result,omitempty"`
			Error  string      `json:"error,omitempty"`
		}
		entries := make([]jsonEntry, 0, len(ordered))
		failed := 0
		for _, p := range ordered {
			r := results[p]
			entry := jsonEntry{Path: p}
			if r.Err != nil {
				entry.Error = r.Err.Error()
				failed++
			} else {
				entry.Result = r.Result
			}
			entries = append(entries, entry)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(entries)
		return failed
	}

	failed := 0
	for i, p := range ordered {
		r := results[p]
		if i > 0 {
			fmt.Println()
		}
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", p, r.Err)
			failed++
			continue
		}
		fmt.Println(report.Render(p, r.Result))
	}
	return failed
}

// dedupe removes duplicate paths while preserving first-seen order.
func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// loadConfig merges the on-disk configuration with CLI overrides.
func loadConfig(cliArgs *CLI, logger *zap.Logger) *config.Config {
	configDir := cliArgs.ConfigDir
	if configDir == "" {
		if userDir, err := os.UserConfigDir(); err == nil {
			configDir = filepath.Join(userDir, "songscope")
		}
	}

	manager := config.NewManager(configDir)
	if configDir != "" {
		if err := manager.Load(); err != nil {
			logger.Warn("cannot load config", zap.Error(err))
		}
	}

	cfg := manager.Get()
	if cliArgs.SampleRate > 0 {
		cfg.SampleRate = cliArgs.SampleRate
	}
	if cliArgs.Workers > 0 {
		cfg.Workers = cliArgs.Workers
	}
	if cfg.DataDir == "" && configDir != "" {
		cfg.DataDir = configDir
	}
	return cfg
}

func newLogger(verbose bool) *zap.Logger {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
