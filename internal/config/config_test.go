package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SampleRate != 22050 {
		t.Errorf("sample rate = %d, want 22050", cfg.SampleRate)
	}
	if cfg.Analysis.WindowSize != 2048 || cfg.Analysis.HopSize != 512 {
		t.Errorf("analysis grid = %d/%d, want 2048/512", cfg.Analysis.WindowSize, cfg.Analysis.HopSize)
	}
	if cfg.Analysis.TempoMinBPM != 40 || cfg.Analysis.TempoMaxBPM != 240 {
		t.Errorf("tempo range = [%g, %g], want [40, 240]", cfg.Analysis.TempoMinBPM, cfg.Analysis.TempoMaxBPM)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.Load(); err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
	if m.Get().SampleRate != 22050 {
		t.Errorf("defaults lost: %+v", m.Get())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	m.Get().SampleRate = 44100
	m.Get().Workers = 4
	m.Get().LibraryPaths = []string{"/music"}
	m.Get().Analysis.YinThreshold = 0.15
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := NewManager(dir)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := reloaded.Get()
	if cfg.SampleRate != 44100 || cfg.Workers != 4 {
		t.Errorf("settings lost: %+v", cfg)
	}
	if len(cfg.LibraryPaths) != 1 || cfg.LibraryPaths[0] != "/music" {
		t.Errorf("library paths lost: %v", cfg.LibraryPaths)
	}
	if cfg.Analysis.YinThreshold != 0.15 {
		t.Errorf("analysis settings lost: %+v", cfg.Analysis)
	}
}

// A config file naming only some fields keeps the defaults for the rest.
func TestLoadPartialFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`{"sampleRate": 16000}`)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0600); err != nil {
		t.Fatal(err)
	}

	m := NewManager(dir)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := m.Get()
	if cfg.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.Analysis.WindowSize != 2048 {
		t.Errorf("unset analysis fields should keep defaults: %+v", cfg.Analysis)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{oops"), 0600); err != nil {
		t.Fatal(err)
	}

	m := NewManager(dir)
	if err := m.Load(); err == nil {
		t.Error("corrupt config should be reported")
	}
	if m.Get().SampleRate != 22050 {
		t.Errorf("failed load should leave defaults intact: %+v", m.Get())
	}
}
