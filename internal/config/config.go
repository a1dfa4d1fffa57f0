// Package config handles configuration file management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the songscope configuration
type Config struct {
	// LibraryPaths is a list of directories containing music files
	LibraryPaths []string `json:"libraryPaths"`

	// DataDir is where to store data files (cached results)
	DataDir string `json:"dataDir"`

	// SampleRate the decoder resamples to before analysis
	SampleRate int `json:"sampleRate"`

	// Workers is the number of concurrent analyses (0 = NumCPU - 1)
	Workers int `json:"workers"`

	// Analysis settings
	Analysis AnalysisConfig `json:"analysis"`
}

// AnalysisConfig contains the pipeline parameters
type AnalysisConfig struct {
	// WindowSize is the FFT window in samples (power of two)
	WindowSize int `json:"windowSize"`

	// HopSize is the frame advance in samples
	HopSize int `json:"hopSize"`

	// Tempo search range in BPM
	TempoMinBPM float64 `json:"tempoMinBpm"`
	TempoMaxBPM float64 `json:"tempoMaxBpm"`

	// Pitch search range in Hz
	PitchMinHz float64 `json:"pitchMinHz"`
	PitchMaxHz float64 `json:"pitchMaxHz"`

	// YinThreshold is the voiced-decision threshold
	YinThreshold float64 `json:"yinThreshold"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LibraryPaths: []string{},
		SampleRate:   22050,
		Analysis: AnalysisConfig{
			WindowSize:   2048,
			HopSize:      512,
			TempoMinBPM:  40,
			TempoMaxBPM:  240,
			PitchMinHz:   65.406,
			PitchMaxHz:   2093.0,
			YinThreshold: 0.1,
		},
	}
}

// Manager handles loading and saving configuration
type Manager struct {
	configDir  string
	configPath string
	config     *Config
}

// NewManager creates a new configuration manager
func NewManager(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configPath: filepath.Join(configDir, "config.json"),
		config:     DefaultConfig(),
	}
}

// Load reads the configuration from disk. A missing file leaves the
// defaults in place and is not an error.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	m.config = cfg
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	return m.config
}
