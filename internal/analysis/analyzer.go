package analysis

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/TofaJede/songscope/internal/types"
)

// Input contract violations. These fail fast, before any stage executes.
var (
	ErrEmptyBuffer     = errors.New("empty sample buffer")
	ErrBadSampleRate   = errors.New("sample rate must be positive")
	ErrNonFiniteSample = errors.New("sample buffer contains a non-finite value")
)

// ErrBusy is returned when Analyze is called on an Analyzer that is
// already running. Invocations are never interleaved; callers wanting
// parallelism use one Analyzer per goroutine (see Worker).
var ErrBusy = errors.New("analysis already in progress")

// InputError reports a sample buffer that violates the decoder contract.
// No partial result is produced.
type InputError struct {
	Cause error
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Cause.Error()
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// StageError reports an internal failure of one pipeline stage. The whole
// analysis fails atomically; the originating stage is named.
type StageError struct {
	Stage string
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// Config holds the pipeline's tunable parameters.
type Config struct {
	// WindowSize is the FFT analysis window in samples; must be a power
	// of two.
	WindowSize int `json:"windowSize"`
	// HopSize is the frame advance in samples.
	HopSize int `json:"hopSize"`

	// Tempo search range in BPM.
	TempoMinBPM float64 `json:"tempoMinBpm"`
	TempoMaxBPM float64 `json:"tempoMaxBpm"`

	// Fundamental-frequency search range in Hz (defaults span C2-C7).
	PitchMinHz float64 `json:"pitchMinHz"`
	PitchMaxHz float64 `json:"pitchMaxHz"`

	// YinThreshold is the CMNDF dip threshold for the voiced decision.
	YinThreshold float64 `json:"yinThreshold"`
}

// DefaultConfig returns the standard analysis parameters: a 2048-sample
// Hann window with 512-sample hop, tempo search over 40-240 BPM and pitch
// search over C2-C7.
func DefaultConfig() Config {
	return Config{
		WindowSize:   2048,
		HopSize:      512,
		TempoMinBPM:  40,
		TempoMaxBPM:  240,
		PitchMinHz:   65.406, // C2
		PitchMaxHz:   2093.0, // C7
		YinThreshold: 0.1,
	}
}

// Analyzer runs the feature-extraction pipeline. The pipeline itself is a
// pure function of the sample buffer; the Analyzer only guards against
// interleaved invocations. One analysis at a time per Analyzer.
type Analyzer struct {
	mu      sync.Mutex
	running bool

	cfg Config
}

// NewAnalyzer creates an Analyzer with the given configuration. Zero
// fields fall back to their defaults.
func NewAnalyzer(cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.WindowSize == 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.HopSize == 0 {
		cfg.HopSize = def.HopSize
	}
	if cfg.TempoMinBPM == 0 && cfg.TempoMaxBPM == 0 {
		cfg.TempoMinBPM = def.TempoMinBPM
		cfg.TempoMaxBPM = def.TempoMaxBPM
	}
	if cfg.PitchMinHz == 0 && cfg.PitchMaxHz == 0 {
		cfg.PitchMinHz = def.PitchMinHz
		cfg.PitchMaxHz = def.PitchMaxHz
	}
	if cfg.YinThreshold == 0 {
		cfg.YinThreshold = def.YinThreshold
	}
	return &Analyzer{cfg: cfg}
}

// Analyze runs every stage over the sample buffer and assembles the
// result record. The buffer is read-only throughout and never retained.
// Degenerate-but-valid signals (silence, no onsets, no voiced frames)
// produce a successful result with documented zero/empty fields; invalid
// input or a stage failure aborts with no partial result.
func (a *Analyzer) Analyze(samples []float64, sampleRate int) (*types.AnalysisResult, error) {
	if err := validateInput(samples, sampleRate); err != nil {
		return nil, err
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil, ErrBusy
	}
	a.running = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	cfg := a.cfg

	// The magnitude spectrogram is computed once and shared by the band
	// energy and tempo stages.
	spec, err := computeSpectrogram(samples, sampleRate, cfg.WindowSize, cfg.HopSize)
	if err != nil {
		return nil, &StageError{Stage: "spectrogram", Cause: err}
	}

	if cfg.TempoMinBPM <= 0 || cfg.TempoMaxBPM <= cfg.TempoMinBPM {
		return nil, &StageError{
			Stage: "tempo",
			Cause: fmt.Errorf("tempo range must satisfy 0 < min < max, got [%g, %g]", cfg.TempoMinBPM, cfg.TempoMaxBPM),
		}
	}

	nyquist := float64(sampleRate) / 2
	bands := bandEnergies(spec, nyquist)
	chroma := chromaDistribution(spec)
	tempo := estimateTempo(spec, cfg.TempoMinBPM, cfg.TempoMaxBPM)

	track, err := trackPitch(samples, sampleRate, cfg.WindowSize, cfg.HopSize, cfg.PitchMinHz, cfg.PitchMaxHz, cfg.YinThreshold)
	if err != nil {
		return nil, &StageError{Stage: "pitch", Cause: err}
	}
	topNotes := noteHistogram(track)

	envelope, dynamicRange := loudness(samples, cfg.WindowSize, cfg.HopSize)

	return &types.AnalysisResult{
		Duration:         float64(len(samples)) / float64(sampleRate),
		Tempo:            tempo,
		KeyDistribution:  chroma,
		TopNotes:         topNotes,
		BandEnergy:       bands,
		DynamicRange:     dynamicRange,
		LoudnessEnvelope: envelope,
	}, nil
}

// validateInput enforces the decoder contract before any stage runs.
func validateInput(samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return &InputError{Cause: ErrBadSampleRate}
	}
	if len(samples) == 0 {
		return &InputError{Cause: ErrEmptyBuffer}
	}
	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return &InputError{Cause: fmt.Errorf("%w at index %d", ErrNonFiniteSample, i)}
		}
	}
	return nil
}
