package analysis

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/TofaJede/songscope/internal/types"
)

func TestAnalyzeSteadyTone(t *testing.T) {
	samples := makeSine(440, 22050, 3, 0.8)
	res, err := NewAnalyzer(DefaultConfig()).Analyze(samples, 22050)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if want := 3.0; math.Abs(res.Duration-want) > 1e-9 {
		t.Errorf("duration %g, want %g", res.Duration, want)
	}
	if math.Abs(res.KeyDistribution.Sum()-1) > 1e-6 {
		t.Errorf("key distribution sums to %g, want 1", res.KeyDistribution.Sum())
	}
	if peak := res.KeyDistribution.Peak(); types.PitchClassNames[peak] != "A" {
		t.Errorf("key distribution peaks at %s, want A", types.PitchClassNames[peak])
	}
	if len(res.TopNotes) == 0 || res.TopNotes[0].Label != "A4" {
		t.Errorf("top note should be A4, got %+v", res.TopNotes)
	}
	mid := res.BandEnergy[types.BandMid]
	if mid <= res.BandEnergy[types.BandLow] || mid <= res.BandEnergy[types.BandHigh] {
		t.Errorf("440 Hz tone should concentrate in mid band: %+v", res.BandEnergy)
	}
	if want := frameCount(len(samples), 512); len(res.LoudnessEnvelope) != want {
		t.Errorf("envelope has %d frames, want %d", len(res.LoudnessEnvelope), want)
	}
	if res.Tempo != 0 && (res.Tempo < 40 || res.Tempo > 240) {
		t.Errorf("tempo %g outside configured range", res.Tempo)
	}
}

func TestAnalyzeClickTrainTempo(t *testing.T) {
	res, err := NewAnalyzer(DefaultConfig()).Analyze(makeClickTrain(120, 22050, 5), 22050)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if math.Abs(res.Tempo-120) > 2 {
		t.Errorf("tempo %g, want 120 +/- 2", res.Tempo)
	}
}

// Silence is valid input: every feature takes its documented degenerate
// value and no error is returned.
func TestAnalyzeSilence(t *testing.T) {
	res, err := NewAnalyzer(DefaultConfig()).Analyze(makeSilence(22050, 2), 22050)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Tempo != 0 {
		t.Errorf("tempo = %g, want 0 for silence", res.Tempo)
	}
	if res.KeyDistribution.Sum() != 0 {
		t.Errorf("key distribution should be all zero, sums to %g", res.KeyDistribution.Sum())
	}
	if len(res.TopNotes) != 0 {
		t.Errorf("top notes should be empty, got %+v", res.TopNotes)
	}
	if res.DynamicRange != 0 {
		t.Errorf("dynamic range = %g, want 0", res.DynamicRange)
	}
	for name, v := range res.BandEnergy {
		if v != 0 {
			t.Errorf("band %s = %g, want 0", name, v)
		}
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	samples := makeNoiseBursts(22050, 2, 0.25)
	a := NewAnalyzer(DefaultConfig())

	first, err := a.Analyze(samples, 22050)
	if err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	second, err := a.Analyze(samples, 22050)
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated analysis of the same buffer should be bit-identical")
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	if _, err := a.Analyze(nil, 22050); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("empty buffer: got %v, want ErrEmptyBuffer", err)
	}
	if _, err := a.Analyze(makeSine(440, 22050, 1, 0.5), 0); !errors.Is(err, ErrBadSampleRate) {
		t.Errorf("zero sample rate: got %v, want ErrBadSampleRate", err)
	}
	if _, err := a.Analyze(makeSine(440, 22050, 1, 0.5), -8000); !errors.Is(err, ErrBadSampleRate) {
		t.Errorf("negative sample rate: got %v, want ErrBadSampleRate", err)
	}

	bad := makeSine(440, 22050, 1, 0.5)
	bad[100] = math.NaN()
	if _, err := a.Analyze(bad, 22050); !errors.Is(err, ErrNonFiniteSample) {
		t.Errorf("NaN sample: got %v, want ErrNonFiniteSample", err)
	}
	bad[100] = math.Inf(1)
	if _, err := a.Analyze(bad, 22050); !errors.Is(err, ErrNonFiniteSample) {
		t.Errorf("Inf sample: got %v, want ErrNonFiniteSample", err)
	}

	var inputErr *InputError
	_, err := a.Analyze(nil, 22050)
	if !errors.As(err, &inputErr) {
		t.Errorf("validation failures should be InputError, got %T", err)
	}
}

func TestAnalyzeRejectsInterleavedUse(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()

	if _, err := a.Analyze(makeSine(440, 22050, 1, 0.5), 22050); !errors.Is(err, ErrBusy) {
		t.Errorf("got %v, want ErrBusy while an analysis is in flight", err)
	}

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
	if _, err := a.Analyze(makeSine(440, 22050, 1, 0.5), 22050); err != nil {
		t.Errorf("analyzer should accept work again once idle: %v", err)
	}
}

func TestAnalyzeStageErrors(t *testing.T) {
	var stageErr *StageError

	a := NewAnalyzer(Config{WindowSize: 1000, HopSize: 512})
	_, err := a.Analyze(makeSine(440, 22050, 1, 0.5), 22050)
	if !errors.As(err, &stageErr) || stageErr.Stage != "spectrogram" {
		t.Errorf("non-power-of-two window: got %v, want spectrogram stage error", err)
	}

	a = NewAnalyzer(Config{TempoMinBPM: 240, TempoMaxBPM: 40})
	_, err = a.Analyze(makeSine(440, 22050, 1, 0.5), 22050)
	if !errors.As(err, &stageErr) || stageErr.Stage != "tempo" {
		t.Errorf("inverted tempo range: got %v, want tempo stage error", err)
	}

	a = NewAnalyzer(Config{PitchMinHz: 20, PitchMaxHz: 2093})
	_, err = a.Analyze(makeSine(440, 22050, 1, 0.5), 22050)
	if !errors.As(err, &stageErr) || stageErr.Stage != "pitch" {
		t.Errorf("unresolvable pitch floor: got %v, want pitch stage error", err)
	}
}

func TestNewAnalyzerFillsDefaults(t *testing.T) {
	a := NewAnalyzer(Config{})
	if !reflect.DeepEqual(a.cfg, DefaultConfig()) {
		t.Errorf("zero config should become the default: %+v", a.cfg)
	}

	a = NewAnalyzer(Config{WindowSize: 4096, HopSize: 1024})
	if a.cfg.WindowSize != 4096 || a.cfg.HopSize != 1024 {
		t.Errorf("explicit grid should be kept: %+v", a.cfg)
	}
	if a.cfg.TempoMinBPM != 40 || a.cfg.YinThreshold != 0.1 {
		t.Errorf("unset fields should fall back to defaults: %+v", a.cfg)
	}
}
